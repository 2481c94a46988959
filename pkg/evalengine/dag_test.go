package evalengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildWorkflowLinearPlan(t *testing.T) {
	tasks := []*Task{
		{ID: "fetch", Kind: TaskLLMJudge, Prompt: "p", Provider: "openai", ResponseType: "", BoundParams: []string{"x"}},
		{ID: "check", Kind: TaskAssertion, FieldPath: "fetch.score", Operator: OpGreaterThan, ExpectedValue: 0.5, DependsOn: []string{"fetch"}},
		{ID: "score", Kind: TaskLLMJudge, Prompt: "p2", Provider: "openai", ResponseType: ResponseTypeScore, DependsOn: []string{"check"}, BoundParams: []string{"x"}},
	}
	metrics := []Metric{{ID: "score"}}

	w, err := BuildWorkflow(tasks, metrics)
	require.NoError(t, err)
	require.Len(t, w.plan, 3)
	assert.Equal(t, []string{"fetch"}, w.plan[0])
	assert.Equal(t, []string{"check"}, w.plan[1])
	assert.Equal(t, []string{"score"}, w.plan[2])
}

func TestBuildWorkflowDetectsCycle(t *testing.T) {
	tasks := []*Task{
		{ID: "a", Kind: TaskAssertion, DependsOn: []string{"b"}},
		{ID: "b", Kind: TaskAssertion, DependsOn: []string{"a"}},
	}
	_, err := BuildWorkflow(tasks, nil)
	assert.ErrorContains(t, err, "cycle")
}

func TestBuildWorkflowUnknownDependency(t *testing.T) {
	tasks := []*Task{
		{ID: "a", Kind: TaskAssertion, DependsOn: []string{"ghost"}},
	}
	_, err := BuildWorkflow(tasks, nil)
	assert.Error(t, err)
}

func TestBuildWorkflowDuplicateID(t *testing.T) {
	tasks := []*Task{
		{ID: "a", Kind: TaskAssertion},
		{ID: "A", Kind: TaskAssertion},
	}
	_, err := BuildWorkflow(tasks, nil)
	assert.ErrorContains(t, err, "duplicate")
}

func TestBuildWorkflowLevel1LLMJudgeRequiresBoundParams(t *testing.T) {
	tasks := []*Task{
		{ID: "judge", Kind: TaskLLMJudge, Prompt: "p", Provider: "openai", ResponseType: ResponseTypeScore},
	}
	_, err := BuildWorkflow(tasks, []Metric{{ID: "judge"}})
	assert.ErrorContains(t, err, "bound")
}

func TestBuildWorkflowTerminalTaskMustMatchMetrics(t *testing.T) {
	tasks := []*Task{
		{ID: "a", Kind: TaskAssertion},
	}
	_, err := BuildWorkflow(tasks, []Metric{{ID: "b"}})
	assert.Error(t, err)
}

func TestBuildWorkflowTerminalLLMJudgeMustBeScore(t *testing.T) {
	tasks := []*Task{
		{ID: "a", Kind: TaskLLMJudge, Prompt: "p", Provider: "x", ResponseType: "raw", BoundParams: []string{"y"}},
	}
	_, err := BuildWorkflow(tasks, []Metric{{ID: "a"}})
	assert.ErrorContains(t, err, "Score")
}
