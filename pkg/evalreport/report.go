// Package evalreport aligns per-record evaluation results into a
// reportable shape, computes score histograms, and exports to CSV.
package evalreport

import (
	"sort"

	"github.com/codeready-toolchain/tarsy/pkg/evalengine"
)

// Cell is one task's result within one record, aligned by task id.
// Missing/skipped tasks are reported as a zero-value cell rather than
// causing a panic.
type Cell struct {
	RecordID string
	TaskID   string
	Passed   bool
	Actual   any
	Message  string
	Skipped  bool
}

// Report is a set of records' results aligned task-by-task.
type Report struct {
	TaskIDs []string // sorted, union of every record's task ids
	Cells   []Cell
}

// Record pairs a caller-assigned identifier with the engine's raw
// per-task results for one context record.
type Record struct {
	ID     string
	Result evalengine.RecordResult
}

// Align builds a Report from a slice of Records.
func Align(records []Record) *Report {
	taskSet := make(map[string]bool)
	for _, r := range records {
		for id := range r.Result.TaskResults {
			taskSet[id] = true
		}
	}
	taskIDs := make([]string, 0, len(taskSet))
	for id := range taskSet {
		taskIDs = append(taskIDs, id)
	}
	sort.Strings(taskIDs)

	report := &Report{TaskIDs: taskIDs}
	for _, r := range records {
		for _, taskID := range taskIDs {
			tr, ok := r.Result.TaskResults[taskID]
			if !ok {
				report.Cells = append(report.Cells, Cell{RecordID: r.ID, TaskID: taskID, Skipped: true})
				continue
			}
			report.Cells = append(report.Cells, Cell{
				RecordID: r.ID,
				TaskID:   taskID,
				Passed:   tr.Passed,
				Actual:   tr.Actual,
				Message:  tr.Message,
				Skipped:  tr.Skipped,
			})
		}
	}
	return report
}

// ScoresFor extracts the numeric Actual values recorded for one task
// across the report, skipping cells whose Actual is missing or
// non-numeric.
func (r *Report) ScoresFor(taskID string) []float64 {
	var scores []float64
	for _, c := range r.Cells {
		if c.TaskID != taskID || c.Skipped {
			continue
		}
		switch v := c.Actual.(type) {
		case float64:
			scores = append(scores, v)
		case float32:
			scores = append(scores, float64(v))
		case int:
			scores = append(scores, float64(v))
		}
	}
	return scores
}
