package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/codeready-toolchain/tarsy/pkg/driftprofile"
	"github.com/codeready-toolchain/tarsy/pkg/evalengine"
)

// taskDTO is the wire shape of one evalengine.Task inside a
// GenAIPayload.WorkflowJSON document.
type taskDTO struct {
	ID            string          `json:"id"`
	Kind          string          `json:"kind"`
	FieldPath     string          `json:"field_path,omitempty"`
	Operator      string          `json:"operator,omitempty"`
	ExpectedValue json.RawMessage `json:"expected_value,omitempty"`
	DependsOn     []string        `json:"depends_on,omitempty"`

	Prompt       string   `json:"prompt,omitempty"`
	Provider     string   `json:"provider,omitempty"`
	ResponseType string   `json:"response_type,omitempty"`
	MaxRetries   int      `json:"max_retries,omitempty"`
	BoundParams  []string `json:"bound_params,omitempty"`
}

type metricDTO struct {
	ID string `json:"id"`
}

type workflowDTO struct {
	Tasks   []taskDTO   `json:"tasks"`
	Metrics []metricDTO `json:"metrics"`
}

// compileWorkflow decodes a GenAIPayload.WorkflowJSON document into a
// compiled evalengine.Workflow.
func compileWorkflow(raw json.RawMessage) (*evalengine.Workflow, error) {
	var dto workflowDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return nil, fmt.Errorf("decoding workflow json: %w", err)
	}

	tasks := make([]*evalengine.Task, 0, len(dto.Tasks))
	for _, td := range dto.Tasks {
		var expected any
		if len(td.ExpectedValue) > 0 {
			if err := json.Unmarshal(td.ExpectedValue, &expected); err != nil {
				return nil, fmt.Errorf("task %q: decoding expected_value: %w", td.ID, err)
			}
		}
		tasks = append(tasks, &evalengine.Task{
			ID:            td.ID,
			Kind:          evalengine.TaskKind(td.Kind),
			FieldPath:     td.FieldPath,
			Operator:      evalengine.Operator(td.Operator),
			ExpectedValue: expected,
			DependsOn:     td.DependsOn,
			Prompt:        td.Prompt,
			Provider:      td.Provider,
			ResponseType:  evalengine.ResponseType(td.ResponseType),
			MaxRetries:    td.MaxRetries,
			BoundParams:   td.BoundParams,
		})
	}
	metrics := make([]evalengine.Metric, 0, len(dto.Metrics))
	for _, m := range dto.Metrics {
		metrics = append(metrics, evalengine.Metric{ID: m.ID})
	}

	return evalengine.BuildWorkflow(tasks, metrics)
}

// GenAIDrifter runs a compiled evaluation workflow against each context
// record observed since the previous run and alerts on the aggregate
// pass rate, e.g. "pass_rate < 0.8 delta 0.01".
type GenAIDrifter struct {
	profile *driftprofile.Profile
	records RecordSource
	engine  *evalengine.Engine
}

func (d *GenAIDrifter) CheckForAlerts(ctx context.Context, previousRun time.Time) ([]AlertMap, error) {
	recs, err := d.records.GenAIRecordsSince(ctx, d.profile.EntityID, previousRun)
	if err != nil {
		return nil, fmt.Errorf("genai drifter: fetching records: %w", err)
	}
	if len(recs) == 0 {
		return nil, nil
	}

	w, err := compileWorkflow(d.profile.GenAI.WorkflowJSON)
	if err != nil {
		return nil, fmt.Errorf("genai drifter: compiling workflow: %w", err)
	}

	totalPassed, totalTasks := 0, 0
	for _, rec := range recs {
		result := d.engine.Run(ctx, w, rec.Context)
		totalPassed += result.Passed
		totalTasks += result.Passed + result.Failed
	}
	if totalTasks == 0 {
		return nil, nil
	}
	passRate := float64(totalPassed) / float64(totalTasks)

	cond, ok := alertCondition(d.profile.Config.AlertConditions, "pass_rate")
	if !ok {
		return nil, nil
	}
	if !breached(cond, passRate) {
		return nil, nil
	}
	return []AlertMap{baseAlert(d.profile.Config.Name, map[string]string{
		"drift_type": "genai",
		"pass_rate":  fmt.Sprintf("%.6f", passRate),
		"records":    fmt.Sprintf("%d", len(recs)),
	})}, nil
}
