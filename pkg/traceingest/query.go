package traceingest

import "fmt"

// Row is the exported, flat view of a persisted span handed to
// pkg/tracequery to build Arrow record batches from. It's a direct
// mirror of spanRow — kept as a separate type so callers outside this
// package never depend on the parquet-tagged storage struct directly.
type Row struct {
	TraceID      []byte
	SpanID       []byte
	ParentSpanID []byte // nil for root spans
	RootSpanID   []byte

	ServiceName   string
	SpanName      string
	SpanKind      string
	StartTimeUs   int64
	EndTimeUs     int64
	DurationMs    int64
	StatusCode    int32
	StatusMessage string

	Depth     int32
	SpanOrder int32
	Path      []string

	AttributesJSON string
	EventsJSON     string
	LinksJSON      string

	Input      string
	Output     string
	SearchBlob string
}

func rowFromSpanRow(r spanRow) Row {
	var path []string
	if r.Path != "" {
		path = splitPath(r.Path)
	}
	return Row{
		TraceID:        r.TraceID,
		SpanID:         r.SpanID,
		ParentSpanID:   r.ParentSpanID,
		RootSpanID:     r.RootSpanID,
		ServiceName:    r.ServiceName,
		SpanName:       r.SpanName,
		SpanKind:       r.SpanKind,
		StartTimeUs:    r.StartTime,
		EndTimeUs:      r.EndTime,
		DurationMs:     r.DurationMs,
		StatusCode:     r.StatusCode,
		StatusMessage:  r.StatusMessage,
		Depth:          r.Depth,
		SpanOrder:      r.SpanOrder,
		Path:           path,
		AttributesJSON: r.AttributesJSON,
		EventsJSON:     r.EventsJSON,
		LinksJSON:      r.LinksJSON,
		Input:          r.Input,
		Output:         r.Output,
		SearchBlob:     r.SearchBlob,
	}
}

func splitPath(joined string) []string {
	var out []string
	start := 0
	for i := 0; i < len(joined); i++ {
		if joined[i] == '/' {
			out = append(out, joined[start:i])
			start = i + 1
		}
	}
	out = append(out, joined[start:])
	return out
}

// LoadAll reads back every row across every live segment, in no
// particular cross-segment order. Intended for pkg/tracequery's batch
// loader; the actor's command channel isn't involved since reads don't
// need to serialize against writes beyond seeing a consistent manifest
// snapshot.
func (s *Store) LoadAll() ([]Row, error) {
	entries, err := s.man.read()
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var rows []Row
	for _, e := range entries {
		segRows, err := readSegment(e.Path)
		if err != nil {
			return nil, fmt.Errorf("reading segment %s: %w", e.Path, err)
		}
		for _, r := range segRows {
			rows = append(rows, rowFromSpanRow(r))
		}
	}
	return rows, nil
}
