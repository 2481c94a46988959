package evalreport

import (
	"encoding/csv"
	"fmt"
	"io"
)

// WriteCSV exports an aligned Report as CSV with columns record_id,
// task_id, passed, actual, message, workflow_error. encoding/csv is the
// stdlib choice here because no third-party dataframe library fits this
// shape (recorded in DESIGN.md).
func WriteCSV(w io.Writer, report *Report, workflowErrors map[string]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"record_id", "task_id", "passed", "actual", "message", "workflow_error"}); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for _, cell := range report.Cells {
		row := []string{
			cell.RecordID,
			cell.TaskID,
			fmt.Sprintf("%t", cell.Passed),
			fmt.Sprintf("%v", cell.Actual),
			cell.Message,
			workflowErrors[cell.RecordID],
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}
