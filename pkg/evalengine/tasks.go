package evalengine

import (
	"fmt"
	"strings"
)

// TaskKind distinguishes the two task variants an evaluation workflow
// supports.
type TaskKind string

const (
	TaskAssertion TaskKind = "assertion"
	TaskLLMJudge  TaskKind = "llm_judge"
)

// ResponseType is the declared shape of an LLMJudge task's parsed response.
type ResponseType string

// ResponseTypeScore is the only response type a terminal task may declare.
const ResponseTypeScore ResponseType = "score"

// TaskResult is the per-task outcome recorded after evaluation.
type TaskResult struct {
	Passed  bool
	Actual  any
	Message string
	Skipped bool
}

// Task is one node in the evaluation DAG: either an Assertion or an
// LLMJudge, distinguished by Kind. Fields not applicable to a Kind are
// simply unused — a flat struct over a small closed variant set.
type Task struct {
	ID            string // lowercased, unique within a profile
	Kind          TaskKind
	FieldPath     string
	Operator      Operator
	ExpectedValue any
	DependsOn     []string

	// LLMJudge-only fields.
	Prompt         string
	Provider       string
	ResponseType   ResponseType
	MaxRetries     int
	BoundParams    []string // prompt parameters bound at construction time

	Result *TaskResult
}

// NormalizeID lowercases a task ID.
func NormalizeID(id string) string { return strings.ToLower(id) }

// Metric is a declared terminal metric a GenAIEvalProfile must satisfy.
type Metric struct {
	ID string
}

// Workflow is a GenAIEvalProfile's compiled DAG of tasks plus its declared
// terminal metrics.
type Workflow struct {
	Tasks   []*Task
	Metrics []Metric

	byID map[string]*Task
	plan [][]string // execution levels, each a list of task IDs
}

func (w *Workflow) taskByID(id string) (*Task, bool) {
	t, ok := w.byID[id]
	return t, ok
}

func validateTasks(tasks []*Task) error {
	seen := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		id := NormalizeID(t.ID)
		if id == "" {
			return fmt.Errorf("task has empty id")
		}
		if seen[id] {
			return fmt.Errorf("duplicate task id %q", id)
		}
		seen[id] = true
		t.ID = id
	}
	for _, t := range tasks {
		for _, dep := range t.DependsOn {
			d := NormalizeID(dep)
			if !seen[d] {
				return fmt.Errorf("task %q depends on unknown task %q", t.ID, dep)
			}
		}
	}
	return nil
}
