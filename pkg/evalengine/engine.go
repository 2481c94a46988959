package evalengine

import (
	"context"
	"sync"
	"time"
)

// RecordResult is the per-record roll-up of one workflow run.
type RecordResult struct {
	Passed       int
	Failed       int
	PassRate     float64
	DurationMs   int64
	TaskResults  map[string]TaskResult
	WorkflowError string
}

// Engine evaluates a Workflow against context records.
type Engine struct {
	pools map[string]*ProviderPool
}

// NewEngine builds an Engine with one ProviderPool per named provider.
func NewEngine(pools map[string]*ProviderPool) *Engine {
	return &Engine{pools: pools}
}

// Run executes every task in w against ctxRecord in dependency order,
// level by level: tasks within one level
// run concurrently; dependents start only after all upstream tasks in
// their dependency set succeed. An upstream task that errors fatally (as
// opposed to merely passed=false) marks its dependents skipped, noting
// the upstream id in their message.
func (e *Engine) Run(ctx context.Context, w *Workflow, ctxRecord map[string]any) RecordResult {
	start := time.Now()
	results := make(map[string]TaskResult, len(w.Tasks))
	fatal := make(map[string]string) // task id -> fatal error reason

	for _, level := range w.plan {
		var wg sync.WaitGroup
		var mu sync.Mutex
		for _, id := range level {
			id := id
			t := w.byID[id]

			// If any dependency was fatal, skip without spawning work.
			if reason, skip := upstreamFatal(t.DependsOn, fatal); skip {
				mu.Lock()
				results[id] = TaskResult{Skipped: true, Message: "skipped: upstream task " + reason + " failed"}
				fatal[id] = reason
				mu.Unlock()
				continue
			}

			wg.Add(1)
			go func() {
				defer wg.Done()
				res, isFatal := e.runTask(ctx, t, ctxRecord)
				mu.Lock()
				results[id] = res
				if isFatal {
					fatal[id] = id
				}
				mu.Unlock()
			}()
		}
		wg.Wait()
	}

	passed, failed := 0, 0
	for _, r := range results {
		if r.Skipped {
			failed++
			continue
		}
		if r.Passed {
			passed++
		} else {
			failed++
		}
	}
	total := passed + failed
	var passRate float64
	if total > 0 {
		passRate = float64(passed) / float64(total)
	}

	return RecordResult{
		Passed:      passed,
		Failed:      failed,
		PassRate:    passRate,
		DurationMs:  time.Since(start).Milliseconds(),
		TaskResults: results,
	}
}

func upstreamFatal(deps []string, fatal map[string]string) (string, bool) {
	for _, d := range deps {
		id := NormalizeID(d)
		if reason, ok := fatal[id]; ok {
			return reason, true
		}
	}
	return "", false
}

// runTask evaluates a single task. The second return value reports
// whether the task failed *fatally* (a construction-time class of error
// that should skip downstream tasks) as opposed to a normal passed=false
// outcome. In this engine only a missing Provider pool for an LLMJudge
// task is treated as fatal; everything else (path errors, regex errors,
// transport failures after retry) converts to passed=false instead.
func (e *Engine) runTask(ctx context.Context, t *Task, ctxRecord map[string]any) (TaskResult, bool) {
	switch t.Kind {
	case TaskAssertion:
		return e.runAssertion(t, ctxRecord), false
	case TaskLLMJudge:
		return e.runJudge(ctx, t, ctxRecord)
	default:
		return TaskResult{Passed: false, Message: "unknown task kind"}, false
	}
}

func (e *Engine) runAssertion(t *Task, ctxRecord map[string]any) TaskResult {
	actual, err := ExtractPath(ctxRecord, t.FieldPath)
	if err != nil {
		return TaskResult{Passed: false, Message: err.Error()}
	}

	expected, err := ResolveExpected(ctxRecord, t.ExpectedValue)
	if err != nil {
		return TaskResult{Passed: false, Actual: actual, Message: "resolving expected_value: " + err.Error()}
	}

	passed, msg := Evaluate(t.Operator, actual, expected)
	return TaskResult{Passed: passed, Actual: actual, Message: msg}
}

func (e *Engine) runJudge(ctx context.Context, t *Task, ctxRecord map[string]any) (TaskResult, bool) {
	prompt, tmplErrs := RenderTemplate(ctxRecord, t.Prompt)
	if len(tmplErrs) > 0 {
		return TaskResult{Passed: false, Message: tmplErrs[0].Error()}, false
	}

	pool, ok := e.pools[t.Provider]
	if !ok {
		return TaskResult{Passed: false, Message: "no provider pool configured for " + t.Provider}, true
	}

	resp, err := pool.Judge(ctx, prompt, t.MaxRetries)
	if err != nil {
		return TaskResult{Passed: false, Message: err.Error()}, false
	}

	expected, err := ResolveExpected(ctxRecord, t.ExpectedValue)
	if err != nil {
		return TaskResult{Passed: false, Actual: resp.Score, Message: "resolving expected_value: " + err.Error()}, false
	}

	passed, msg := Evaluate(t.Operator, resp.Score, expected)
	return TaskResult{Passed: passed, Actual: resp.Score, Message: msg}, false
}
