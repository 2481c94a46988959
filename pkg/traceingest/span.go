// Package traceingest implements the trace ingestion pipeline: a single
// actor accepting batches of TraceSpan, appending them to a columnar,
// time-partitioned store, and running periodic Z-order compaction.
package traceingest

import (
	"encoding/hex"
	"fmt"
	"time"
)

// SpanEvent is a point-in-time annotation on a span.
type SpanEvent struct {
	Name         string
	Timestamp    time.Time
	Attributes   map[string]string
	DroppedCount int32
}

// SpanLink references another span, possibly in another trace.
type SpanLink struct {
	TraceID      string // hex
	SpanID       string // hex
	TraceState   string
	Attributes   map[string]string
	DroppedCount int32
}

// TraceSpan is one OpenTelemetry-shaped span as accepted by the ingest
// pipeline. IDs are hex strings at the API boundary; the write path
// decodes them to raw bytes before storing.
type TraceSpan struct {
	TraceID      string // 32 hex chars (16 bytes)
	SpanID       string // 16 hex chars (8 bytes)
	ParentSpanID string // empty for a root span
	RootSpanID   string // 16 hex chars (8 bytes)

	ServiceName   string
	SpanName      string
	SpanKind      string // optional
	StartTime     time.Time
	EndTime       time.Time
	StatusCode    int32
	StatusMessage string // optional

	Depth     int32
	SpanOrder int32
	Path      []string // ancestor span names, len(Path) == Depth

	Attributes map[string]string
	Events     []SpanEvent
	Links      []SpanLink

	Input  string // optional, JSON payload
	Output string // optional, JSON payload
}

// DurationMs returns the span's duration in milliseconds:
// duration_ms == (end_time - start_time) / 1000 (microseconds).
func (s TraceSpan) DurationMs() int64 {
	return s.EndTime.Sub(s.StartTime).Microseconds() / 1000
}

// Validate checks every invariant TraceSpan carries. A span failing
// validation fails its whole batch — caller bug, since upstream is
// expected to have validated already.
func (s TraceSpan) Validate() error {
	if _, err := decodeID(s.TraceID, 16); err != nil {
		return fmt.Errorf("invalid trace_id: %w", err)
	}
	if _, err := decodeID(s.SpanID, 8); err != nil {
		return fmt.Errorf("invalid span_id: %w", err)
	}
	if _, err := decodeID(s.RootSpanID, 8); err != nil {
		return fmt.Errorf("invalid root_span_id: %w", err)
	}
	if s.ParentSpanID != "" {
		if _, err := decodeID(s.ParentSpanID, 8); err != nil {
			return fmt.Errorf("invalid parent_span_id: %w", err)
		}
	}

	if s.EndTime.Before(s.StartTime) {
		return fmt.Errorf("end_time %s precedes start_time %s", s.EndTime, s.StartTime)
	}
	if (s.ParentSpanID == "") != (s.Depth == 0) {
		return fmt.Errorf("parent_span_id presence must match depth == 0")
	}
	if len(s.Path) != int(s.Depth) {
		return fmt.Errorf("path length %d does not match depth %d", len(s.Path), s.Depth)
	}
	return nil
}

// decodeID decodes a hex-encoded span/trace ID to raw bytes, validating
// its width.
func decodeID(hexStr string, width int) ([]byte, error) {
	b, err := hex.DecodeString(hexStr)
	if err != nil {
		return nil, fmt.Errorf("not valid hex: %w", err)
	}
	if len(b) != width {
		return nil, fmt.Errorf("expected %d bytes, got %d", width, len(b))
	}
	return b, nil
}

// buildSearchBlob concatenates service_name, span_name, status_message,
// attribute k:v pairs, and event names, lowercased and space-separated.
func buildSearchBlob(s TraceSpan) string {
	var parts []string
	parts = append(parts, s.ServiceName, s.SpanName)
	if s.StatusMessage != "" {
		parts = append(parts, s.StatusMessage)
	}
	for k, v := range s.Attributes {
		parts = append(parts, k+":"+v)
	}
	for _, e := range s.Events {
		parts = append(parts, e.Name)
	}
	blob := ""
	for i, p := range parts {
		if i > 0 {
			blob += " "
		}
		blob += p
	}
	return toLower(blob)
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
