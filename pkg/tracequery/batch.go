package tracequery

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/codeready-toolchain/tarsy/pkg/traceingest"
)

// BuildBatch assembles an Arrow record batch from rows already
// persisted by pkg/traceingest, one column builder per Schema field.
// Builders are released when BuildBatch returns.
func BuildBatch(mem memory.Allocator, rows []traceingest.Row) (arrow.Record, error) {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}

	traceIDB := array.NewFixedSizeBinaryBuilder(mem, &arrow.FixedSizeBinaryType{ByteWidth: 16})
	spanIDB := array.NewFixedSizeBinaryBuilder(mem, &arrow.FixedSizeBinaryType{ByteWidth: 8})
	parentSpanIDB := array.NewFixedSizeBinaryBuilder(mem, &arrow.FixedSizeBinaryType{ByteWidth: 8})
	rootSpanIDB := array.NewFixedSizeBinaryBuilder(mem, &arrow.FixedSizeBinaryType{ByteWidth: 8})
	defer traceIDB.Release()
	defer spanIDB.Release()
	defer parentSpanIDB.Release()
	defer rootSpanIDB.Release()

	serviceNameB := array.NewDictionary32Builder(mem, serviceNameDict)
	spanNameB := array.NewStringBuilder(mem)
	spanKindB := array.NewDictionary32Builder(mem, spanKindDict)
	startTimeB := array.NewTimestampBuilder(mem, Schema.Field(7).Type.(*arrow.TimestampType))
	endTimeB := array.NewTimestampBuilder(mem, Schema.Field(8).Type.(*arrow.TimestampType))
	durationB := array.NewInt64Builder(mem)
	statusCodeB := array.NewInt32Builder(mem)
	statusMsgB := array.NewStringBuilder(mem)
	depthB := array.NewInt32Builder(mem)
	spanOrderB := array.NewInt32Builder(mem)
	pathB := array.NewListBuilder(mem, arrow.BinaryTypes.String)
	pathValueB := pathB.ValueBuilder().(*array.StringBuilder)

	attrsB := array.NewMapBuilder(mem, arrow.BinaryTypes.String, arrow.BinaryTypes.StringView, false)
	attrsKeyB := attrsB.KeyBuilder().(*array.StringBuilder)
	attrsValB := attrsB.ItemBuilder().(*array.StringViewBuilder)

	eventsB := array.NewListBuilder(mem, eventStructType)
	eventsStructB := eventsB.ValueBuilder().(*array.StructBuilder)
	eventNameB := eventsStructB.FieldBuilder(0).(*array.StringBuilder)
	eventTimeB := eventsStructB.FieldBuilder(1).(*array.TimestampBuilder)
	eventAttrsB := eventsStructB.FieldBuilder(2).(*array.StringBuilder)
	eventDroppedB := eventsStructB.FieldBuilder(3).(*array.Int32Builder)

	linksB := array.NewListBuilder(mem, linkStructType)
	linksStructB := linksB.ValueBuilder().(*array.StructBuilder)
	linkTraceIDB := linksStructB.FieldBuilder(0).(*array.FixedSizeBinaryBuilder)
	linkSpanIDB := linksStructB.FieldBuilder(1).(*array.FixedSizeBinaryBuilder)
	linkStateB := linksStructB.FieldBuilder(2).(*array.StringBuilder)
	linkAttrsB := linksStructB.FieldBuilder(3).(*array.StringBuilder)
	linkDroppedB := linksStructB.FieldBuilder(4).(*array.Int32Builder)

	inputB := array.NewStringViewBuilder(mem)
	outputB := array.NewStringViewBuilder(mem)
	searchBlobB := array.NewStringViewBuilder(mem)

	defer serviceNameB.Release()
	defer spanNameB.Release()
	defer spanKindB.Release()
	defer startTimeB.Release()
	defer endTimeB.Release()
	defer durationB.Release()
	defer statusCodeB.Release()
	defer statusMsgB.Release()
	defer depthB.Release()
	defer spanOrderB.Release()
	defer pathB.Release()
	defer attrsB.Release()
	defer eventsB.Release()
	defer linksB.Release()
	defer inputB.Release()
	defer outputB.Release()
	defer searchBlobB.Release()

	for _, r := range rows {
		if err := traceIDB.Append(r.TraceID); err != nil {
			return nil, fmt.Errorf("appending trace_id: %w", err)
		}
		if err := spanIDB.Append(r.SpanID); err != nil {
			return nil, fmt.Errorf("appending span_id: %w", err)
		}
		if len(r.ParentSpanID) == 0 {
			parentSpanIDB.AppendNull()
		} else if err := parentSpanIDB.Append(r.ParentSpanID); err != nil {
			return nil, fmt.Errorf("appending parent_span_id: %w", err)
		}
		if err := rootSpanIDB.Append(r.RootSpanID); err != nil {
			return nil, fmt.Errorf("appending root_span_id: %w", err)
		}

		if err := serviceNameB.AppendString(r.ServiceName); err != nil {
			return nil, fmt.Errorf("appending service_name: %w", err)
		}
		spanNameB.Append(r.SpanName)
		if r.SpanKind == "" {
			spanKindB.AppendNull()
		} else if err := spanKindB.AppendString(r.SpanKind); err != nil {
			return nil, fmt.Errorf("appending span_kind: %w", err)
		}
		startTimeB.Append(arrow.Timestamp(r.StartTimeUs))
		endTimeB.Append(arrow.Timestamp(r.EndTimeUs))
		durationB.Append(r.DurationMs)
		statusCodeB.Append(r.StatusCode)
		appendOptionalString(statusMsgB, r.StatusMessage)

		depthB.Append(r.Depth)
		spanOrderB.Append(r.SpanOrder)

		pathB.Append(true)
		for _, p := range r.Path {
			pathValueB.Append(p)
		}

		attrs := traceingest.DecodeAttributes(r.AttributesJSON)
		if attrs == nil {
			attrsB.AppendNull()
		} else {
			attrsB.Append(true)
			for k, v := range attrs {
				attrsKeyB.Append(k)
				attrsValB.Append(v)
			}
		}

		events := traceingest.DecodeEvents(r.EventsJSON)
		if events == nil {
			eventsB.AppendNull()
		} else {
			eventsB.Append(true)
			for _, e := range events {
				eventsStructB.Append(true)
				eventNameB.Append(e.Name)
				eventTimeB.Append(arrow.Timestamp(e.Timestamp.UnixMicro()))
				appendOptionalString(eventAttrsB, encodeMap(e.Attributes))
				eventDroppedB.Append(e.DroppedCount)
			}
		}

		links := traceingest.DecodeLinks(r.LinksJSON)
		if links == nil {
			linksB.AppendNull()
		} else {
			linksB.Append(true)
			for _, l := range links {
				linksStructB.Append(true)
				traceIDBytes, _ := hexOrNil(l.TraceID, 16)
				spanIDBytes, _ := hexOrNil(l.SpanID, 8)
				if traceIDBytes == nil {
					linkTraceIDB.AppendNull()
				} else if err := linkTraceIDB.Append(traceIDBytes); err != nil {
					return nil, fmt.Errorf("appending link trace_id: %w", err)
				}
				if spanIDBytes == nil {
					linkSpanIDB.AppendNull()
				} else if err := linkSpanIDB.Append(spanIDBytes); err != nil {
					return nil, fmt.Errorf("appending link span_id: %w", err)
				}
				appendOptionalString(linkStateB, l.TraceState)
				appendOptionalString(linkAttrsB, encodeMap(l.Attributes))
				linkDroppedB.Append(l.DroppedCount)
			}
		}

		appendOptionalStringView(inputB, r.Input)
		appendOptionalStringView(outputB, r.Output)
		searchBlobB.Append(r.SearchBlob)
	}

	cols := []arrow.Array{
		traceIDB.NewArray(), spanIDB.NewArray(), parentSpanIDB.NewArray(), rootSpanIDB.NewArray(),
		serviceNameB.NewDictionaryArray(), spanNameB.NewArray(), spanKindB.NewDictionaryArray(),
		startTimeB.NewArray(), endTimeB.NewArray(), durationB.NewArray(),
		statusCodeB.NewArray(), statusMsgB.NewArray(),
		depthB.NewArray(), spanOrderB.NewArray(), pathB.NewArray(),
		attrsB.NewArray(), eventsB.NewArray(), linksB.NewArray(),
		inputB.NewArray(), outputB.NewArray(), searchBlobB.NewArray(),
	}
	defer func() {
		for _, c := range cols {
			c.Release()
		}
	}()

	return array.NewRecord(Schema, cols, int64(len(rows))), nil
}

func appendOptionalString(b *array.StringBuilder, v string) {
	if v == "" {
		b.AppendNull()
		return
	}
	b.Append(v)
}

func appendOptionalStringView(b *array.StringViewBuilder, v string) {
	if v == "" {
		b.AppendNull()
		return
	}
	b.Append(v)
}

// encodeMap re-serializes an event/link's decoded attribute map back to
// JSON text for the struct field; events/links are supplementary
// context, not query targets, so a nested text column is enough (only
// the top-level attributes column needs to be queryable as a map).
func encodeMap(m map[string]string) string {
	if len(m) == 0 {
		return ""
	}
	b, err := json.Marshal(m)
	if err != nil {
		return ""
	}
	return string(b)
}

func hexOrNil(hexStr string, width int) ([]byte, error) {
	if hexStr == "" {
		return nil, nil
	}
	b, err := hex.DecodeString(hexStr)
	if err != nil {
		return nil, fmt.Errorf("decoding hex id: %w", err)
	}
	if len(b) != width {
		return nil, fmt.Errorf("hex id %q: want %d bytes, got %d", hexStr, width, len(b))
	}
	return b, nil
}
