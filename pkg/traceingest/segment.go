package traceingest

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"
)

// segmentEntry is one manifest line: a committed parquet segment file
// plus the min/max start_time it covers, so compaction and time-ranged
// reads can skip segments without opening them.
type segmentEntry struct {
	Path         string    `json:"path"`
	RowCount     int       `json:"row_count"`
	MinStartTime time.Time `json:"min_start_time"`
	MaxStartTime time.Time `json:"max_start_time"`
	WrittenAt    time.Time `json:"written_at"`
	SizeBytes    int64     `json:"size_bytes"`
}

// writeSegment persists rows as a new parquet file under dir and returns
// the manifest entry describing it. The caller is responsible for
// appending the entry to the manifest only after the file is durably on
// disk.
func writeSegment(dir string, rows []spanRow, now time.Time) (segmentEntry, error) {
	if len(rows) == 0 {
		return segmentEntry{}, fmt.Errorf("writeSegment: no rows")
	}

	name := fmt.Sprintf("segment-%s.parquet", uuid.NewString())
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return segmentEntry{}, fmt.Errorf("creating segment file: %w", err)
	}

	writer := parquet.NewGenericWriter[spanRow](f)
	if _, err := writer.Write(rows); err != nil {
		f.Close()
		return segmentEntry{}, fmt.Errorf("writing segment rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		f.Close()
		return segmentEntry{}, fmt.Errorf("closing segment writer: %w", err)
	}
	if err := f.Close(); err != nil {
		return segmentEntry{}, fmt.Errorf("closing segment file: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return segmentEntry{}, fmt.Errorf("stat segment file: %w", err)
	}

	minT, maxT := timeFromMicros(rows[0].StartTime), timeFromMicros(rows[0].StartTime)
	for _, r := range rows {
		t := timeFromMicros(r.StartTime)
		if t.Before(minT) {
			minT = t
		}
		if t.After(maxT) {
			maxT = t
		}
	}

	return segmentEntry{
		Path:         path,
		RowCount:     len(rows),
		MinStartTime: minT,
		MaxStartTime: maxT,
		WrittenAt:    now,
		SizeBytes:    info.Size(),
	}, nil
}

// readSegment reads back every row of a segment file, used by
// compaction and by pkg/tracequery's batch loader.
func readSegment(path string) ([]spanRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening segment file: %w", err)
	}
	defer f.Close()

	reader := parquet.NewGenericReader[spanRow](f)
	defer reader.Close()

	rows := make([]spanRow, 0, reader.NumRows())
	buf := make([]spanRow, 1024)
	for {
		n, err := reader.Read(buf)
		rows = append(rows, buf[:n]...)
		if err != nil {
			break // io.EOF, including the final partial read
		}
	}
	return rows, nil
}

// removeSegment deletes a compacted-away segment file. Best effort: a
// leftover orphan file is harmless once its manifest entry is gone.
func removeSegment(path string) {
	_ = os.Remove(path)
}
