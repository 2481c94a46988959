package traceingest

import (
	"encoding/hex"
	"strings"
	"time"
)

// spanRow is the flat, on-disk representation of a TraceSpan written to
// parquet segment files via parquet-go (github.com/parquet-go/parquet-go).
// Nested fields (attributes, events, links) are JSON-encoded rather than
// modeled as native parquet group types.
type spanRow struct {
	TraceID      []byte `parquet:"trace_id"`
	SpanID       []byte `parquet:"span_id"`
	ParentSpanID []byte `parquet:"parent_span_id,optional"`
	RootSpanID   []byte `parquet:"root_span_id"`

	ServiceName   string `parquet:"service_name,dict"`
	SpanName      string `parquet:"span_name"`
	SpanKind      string `parquet:"span_kind,dict,optional"`
	StartTime     int64  `parquet:"start_time,timestamp"` // microseconds since epoch, UTC
	EndTime       int64  `parquet:"end_time,timestamp"`
	DurationMs    int64  `parquet:"duration_ms"`
	StatusCode    int32  `parquet:"status_code"`
	StatusMessage string `parquet:"status_message,optional"`

	Depth     int32  `parquet:"depth"`
	SpanOrder int32  `parquet:"span_order"`
	Path      string `parquet:"path"` // ancestor span names, joined with "/"

	AttributesJSON string `parquet:"attributes_json,optional"`
	EventsJSON     string `parquet:"events_json,optional"`
	LinksJSON      string `parquet:"links_json,optional"`

	Input      string `parquet:"input,optional"`
	Output     string `parquet:"output,optional"`
	SearchBlob string `parquet:"search_blob"`
}

func toSpanRow(s TraceSpan) (spanRow, error) {
	traceID, err := decodeID(s.TraceID, 16)
	if err != nil {
		return spanRow{}, err
	}
	spanID, err := decodeID(s.SpanID, 8)
	if err != nil {
		return spanRow{}, err
	}
	rootSpanID, err := decodeID(s.RootSpanID, 8)
	if err != nil {
		return spanRow{}, err
	}
	var parentSpanID []byte
	if s.ParentSpanID != "" {
		parentSpanID, err = decodeID(s.ParentSpanID, 8)
		if err != nil {
			return spanRow{}, err
		}
	}

	return spanRow{
		TraceID:        traceID,
		SpanID:         spanID,
		ParentSpanID:   parentSpanID,
		RootSpanID:     rootSpanID,
		ServiceName:    s.ServiceName,
		SpanName:       s.SpanName,
		SpanKind:       s.SpanKind,
		StartTime:      s.StartTime.UTC().UnixMicro(),
		EndTime:        s.EndTime.UTC().UnixMicro(),
		DurationMs:     s.DurationMs(),
		StatusCode:     s.StatusCode,
		StatusMessage:  s.StatusMessage,
		Depth:          s.Depth,
		SpanOrder:      s.SpanOrder,
		Path:           strings.Join(s.Path, "/"),
		AttributesJSON: encodeAttributes(s.Attributes),
		EventsJSON:     encodeEvents(s.Events),
		LinksJSON:      encodeLinks(s.Links),
		Input:          s.Input,
		Output:         s.Output,
		SearchBlob:     buildSearchBlob(s),
	}, nil
}

// hexID formats raw ID bytes back to hex. pkg/tracequery does not use
// it; its views call hex.EncodeToString directly.
func hexID(b []byte) string {
	return hex.EncodeToString(b)
}

func timeFromMicros(us int64) time.Time {
	return time.UnixMicro(us).UTC()
}
