package traceingest

import (
	"fmt"
	"sort"
	"time"
)

// targetSegmentBytes bounds compacted segment size.
const targetSegmentBytes = 128 * 1024 * 1024

// compact rewrites every live segment into new segments sorted by
// (start_time, service_name) — a cheap two-key approximation of
// Z-order clustering. Segments are capped at targetSegmentBytes using
// each existing segment's observed bytes-per-row as a size estimate.
func compact(dir string, m *manifest, now time.Time) error {
	entries, err := m.read()
	if err != nil {
		return fmt.Errorf("reading manifest: %w", err)
	}
	if len(entries) <= 1 {
		return nil // nothing to merge
	}

	var allRows []spanRow
	var bytesPerRow float64
	var totalRows int
	for _, e := range entries {
		rows, err := readSegment(e.Path)
		if err != nil {
			return fmt.Errorf("reading segment %s: %w", e.Path, err)
		}
		allRows = append(allRows, rows...)
		if e.RowCount > 0 {
			bytesPerRow += float64(e.SizeBytes) / float64(e.RowCount) * float64(e.RowCount)
			totalRows += e.RowCount
		}
	}
	if totalRows > 0 {
		bytesPerRow /= float64(totalRows)
	} else {
		bytesPerRow = 256 // conservative fallback estimate
	}

	sort.Slice(allRows, func(i, j int) bool {
		if allRows[i].StartTime != allRows[j].StartTime {
			return allRows[i].StartTime < allRows[j].StartTime
		}
		return allRows[i].ServiceName < allRows[j].ServiceName
	})

	rowsPerSegment := int(float64(targetSegmentBytes) / bytesPerRow)
	if rowsPerSegment < 1 {
		rowsPerSegment = 1
	}

	var newEntries []segmentEntry
	for start := 0; start < len(allRows); start += rowsPerSegment {
		end := start + rowsPerSegment
		if end > len(allRows) {
			end = len(allRows)
		}
		entry, err := writeSegment(dir, allRows[start:end], now)
		if err != nil {
			return fmt.Errorf("writing compacted segment: %w", err)
		}
		newEntries = append(newEntries, entry)
	}

	if err := m.swap(newEntries); err != nil {
		return fmt.Errorf("swapping manifest: %w", err)
	}

	for _, e := range entries {
		removeSegment(e.Path)
	}
	return nil
}
