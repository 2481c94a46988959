package evalengine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	score float64
	err   error
	calls int
}

func (f *fakeProvider) Judge(ctx context.Context, prompt string) (JudgeResponse, error) {
	f.calls++
	if f.err != nil {
		return JudgeResponse{}, f.err
	}
	return JudgeResponse{Score: f.score, ResponseType: ResponseTypeScore, Raw: prompt}, nil
}

func TestEngineRunAssertionOnly(t *testing.T) {
	tasks := []*Task{
		{ID: "len_check", Kind: TaskAssertion, FieldPath: "response.text", Operator: OpHasLengthGreaterThan, ExpectedValue: 3.0},
	}
	w, err := BuildWorkflow(tasks, []Metric{{ID: "len_check"}})
	require.NoError(t, err)

	e := NewEngine(nil)
	res := e.Run(context.Background(), w, sampleCtx())

	assert.Equal(t, 1, res.Passed)
	assert.Equal(t, 0, res.Failed)
	assert.Equal(t, 1.0, res.PassRate)
}

func TestEngineRunLLMJudgeWithDependentAssertion(t *testing.T) {
	pool := NewProviderPool(&fakeProvider{score: 0.9}, 2, time.Second)

	tasks := []*Task{
		{ID: "judge", Kind: TaskLLMJudge, Prompt: "score ${response.text}", Provider: "openai",
			ResponseType: ResponseTypeScore, Operator: OpGreaterThan, ExpectedValue: 0.5, BoundParams: []string{"response.text"}},
		{ID: "downstream", Kind: TaskAssertion, FieldPath: "response.score", Operator: OpIsNumeric, DependsOn: []string{"judge"}},
	}
	w, err := BuildWorkflow(tasks, []Metric{{ID: "downstream"}})
	require.NoError(t, err)

	e := NewEngine(map[string]*ProviderPool{"openai": pool})
	res := e.Run(context.Background(), w, sampleCtx())

	require.Contains(t, res.TaskResults, "judge")
	assert.True(t, res.TaskResults["judge"].Passed)
	assert.True(t, res.TaskResults["downstream"].Passed)
	assert.Equal(t, 2, res.Passed)
}

func TestEngineSkipsDownstreamOnFatalUpstream(t *testing.T) {
	tasks := []*Task{
		{ID: "judge", Kind: TaskLLMJudge, Prompt: "p", Provider: "missing",
			ResponseType: ResponseTypeScore, BoundParams: []string{"x"}},
		{ID: "downstream", Kind: TaskAssertion, FieldPath: "response.text", Operator: OpIsString, DependsOn: []string{"judge"}},
	}
	w, err := BuildWorkflow(tasks, []Metric{{ID: "downstream"}})
	require.NoError(t, err)

	e := NewEngine(map[string]*ProviderPool{})
	res := e.Run(context.Background(), w, sampleCtx())

	require.Contains(t, res.TaskResults, "downstream")
	assert.True(t, res.TaskResults["downstream"].Skipped)
	assert.Contains(t, res.TaskResults["downstream"].Message, "judge")
}

func TestEngineTransportFailureIsNotFatal(t *testing.T) {
	pool := NewProviderPool(&fakeProvider{err: assert.AnError}, 1, 50*time.Millisecond)

	tasks := []*Task{
		{ID: "judge", Kind: TaskLLMJudge, Prompt: "p", Provider: "openai",
			ResponseType: ResponseTypeScore, BoundParams: []string{"x"}},
	}
	w, err := BuildWorkflow(tasks, []Metric{{ID: "judge"}})
	require.NoError(t, err)

	e := NewEngine(map[string]*ProviderPool{"openai": pool})
	res := e.Run(context.Background(), w, sampleCtx())

	require.Contains(t, res.TaskResults, "judge")
	assert.False(t, res.TaskResults["judge"].Passed)
	assert.False(t, res.TaskResults["judge"].Skipped)
}
