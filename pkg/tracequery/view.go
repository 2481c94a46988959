package tracequery

import (
	"encoding/hex"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/codeready-toolchain/tarsy/pkg/traceingest"
)

func arrowTimestampToTime(ts arrow.Timestamp) time.Time {
	return time.UnixMicro(int64(ts)).UTC()
}

// TraceSpanBatch is a zero-copy view over one Arrow record batch of
// spans: column accessors index directly into the underlying Arrow
// arrays, so reading N spans allocates O(1) rather than O(N).
type TraceSpanBatch struct {
	rec arrow.Record

	traceID, spanID, parentSpanID, rootSpanID *array.FixedSizeBinary
	serviceName, spanKind                     *array.Dictionary
	serviceNameDict, spanKindDict              *array.String
	spanName, statusMessage                   *array.String
	startTime, endTime                        *array.Timestamp
	duration                                  *array.Int64
	statusCode                                *array.Int32
	depth, spanOrder                          *array.Int32
	path                                       *array.List
	pathValues                                *array.String

	attrs      *array.Map
	attrKeys   *array.String
	attrValues *array.StringView

	events        *array.List
	eventNames    *array.String
	eventTimes    *array.Timestamp
	eventAttrs    *array.String
	eventDropped  *array.Int32

	links         *array.List
	linkTraceIDs  *array.FixedSizeBinary
	linkSpanIDs   *array.FixedSizeBinary
	linkStates    *array.String
	linkAttrs     *array.String
	linkDropped   *array.Int32

	input, output, searchBlob *array.StringView
}

// LoadBatch reads every persisted row out of store and materializes it
// as one Arrow record batch, so its memory use grows with the store's
// total row count; no paged variant is exported.
func LoadBatch(mem memory.Allocator, store *traceingest.Store) (*TraceSpanBatch, error) {
	rows, err := store.LoadAll()
	if err != nil {
		return nil, err
	}
	rec, err := BuildBatch(mem, rows)
	if err != nil {
		return nil, err
	}
	return NewTraceSpanBatch(rec), nil
}

// NewTraceSpanBatch wraps an already-built Arrow record conforming to
// Schema.
func NewTraceSpanBatch(rec arrow.Record) *TraceSpanBatch {
	b := &TraceSpanBatch{
		rec:            rec,
		traceID:        rec.Column(0).(*array.FixedSizeBinary),
		spanID:         rec.Column(1).(*array.FixedSizeBinary),
		parentSpanID:   rec.Column(2).(*array.FixedSizeBinary),
		rootSpanID:     rec.Column(3).(*array.FixedSizeBinary),
		serviceName:    rec.Column(4).(*array.Dictionary),
		spanName:       rec.Column(5).(*array.String),
		spanKind:       rec.Column(6).(*array.Dictionary),
		startTime:      rec.Column(7).(*array.Timestamp),
		endTime:        rec.Column(8).(*array.Timestamp),
		duration:       rec.Column(9).(*array.Int64),
		statusCode:     rec.Column(10).(*array.Int32),
		statusMessage:  rec.Column(11).(*array.String),
		depth:          rec.Column(12).(*array.Int32),
		spanOrder:      rec.Column(13).(*array.Int32),
		path:           rec.Column(14).(*array.List),
		attrs:          rec.Column(15).(*array.Map),
		events:         rec.Column(16).(*array.List),
		links:          rec.Column(17).(*array.List),
		input:          rec.Column(18).(*array.StringView),
		output:         rec.Column(19).(*array.StringView),
		searchBlob:     rec.Column(20).(*array.StringView),
	}
	b.serviceNameDict = b.serviceName.Dictionary().(*array.String)
	b.spanKindDict = b.spanKind.Dictionary().(*array.String)
	b.pathValues = b.path.ListValues().(*array.String)

	b.attrKeys = b.attrs.Keys().(*array.String)
	b.attrValues = b.attrs.Items().(*array.StringView)

	eventsStruct := b.events.ListValues().(*array.Struct)
	b.eventNames = eventsStruct.Field(0).(*array.String)
	b.eventTimes = eventsStruct.Field(1).(*array.Timestamp)
	b.eventAttrs = eventsStruct.Field(2).(*array.String)
	b.eventDropped = eventsStruct.Field(3).(*array.Int32)

	linksStruct := b.links.ListValues().(*array.Struct)
	b.linkTraceIDs = linksStruct.Field(0).(*array.FixedSizeBinary)
	b.linkSpanIDs = linksStruct.Field(1).(*array.FixedSizeBinary)
	b.linkStates = linksStruct.Field(2).(*array.String)
	b.linkAttrs = linksStruct.Field(3).(*array.String)
	b.linkDropped = linksStruct.Field(4).(*array.Int32)

	return b
}

// NumRows returns the number of spans in the batch.
func (b *TraceSpanBatch) NumRows() int { return int(b.rec.NumRows()) }

// Release drops the batch's reference to its underlying Arrow record.
func (b *TraceSpanBatch) Release() { b.rec.Release() }

// At returns a zero-copy view over row i. The view is valid only while
// the batch is not Released.
func (b *TraceSpanBatch) At(i int) TraceSpanView {
	return TraceSpanView{b: b, i: i}
}

// TraceSpanView is a handle to one row of a TraceSpanBatch. ID
// accessors return raw bytes directly from the Arrow buffer; hex-string
// forms allocate only when requested via TraceIDHex etc.
type TraceSpanView struct {
	b *TraceSpanBatch
	i int
}

func (v TraceSpanView) TraceID() []byte    { return v.b.traceID.Value(v.i) }
func (v TraceSpanView) SpanID() []byte     { return v.b.spanID.Value(v.i) }
func (v TraceSpanView) RootSpanID() []byte { return v.b.rootSpanID.Value(v.i) }

func (v TraceSpanView) ParentSpanID() []byte {
	if v.b.parentSpanID.IsNull(v.i) {
		return nil
	}
	return v.b.parentSpanID.Value(v.i)
}

func (v TraceSpanView) TraceIDHex() string    { return hex.EncodeToString(v.TraceID()) }
func (v TraceSpanView) SpanIDHex() string     { return hex.EncodeToString(v.SpanID()) }
func (v TraceSpanView) RootSpanIDHex() string { return hex.EncodeToString(v.RootSpanID()) }
func (v TraceSpanView) ParentSpanIDHex() string {
	p := v.ParentSpanID()
	if p == nil {
		return ""
	}
	return hex.EncodeToString(p)
}

// ServiceName resolves the row's dictionary index against the
// column's shared dictionary values array.
func (v TraceSpanView) ServiceName() string {
	idx := v.b.serviceName.GetValueIndex(v.i)
	return v.b.serviceNameDict.Value(idx)
}

func (v TraceSpanView) SpanName() string { return v.b.spanName.Value(v.i) }

func (v TraceSpanView) SpanKind() string {
	if v.b.spanKind.IsNull(v.i) {
		return ""
	}
	idx := v.b.spanKind.GetValueIndex(v.i)
	return v.b.spanKindDict.Value(idx)
}

func (v TraceSpanView) StartTime() arrow.Timestamp { return v.b.startTime.Value(v.i) }
func (v TraceSpanView) EndTime() arrow.Timestamp   { return v.b.endTime.Value(v.i) }
func (v TraceSpanView) DurationMs() int64          { return v.b.duration.Value(v.i) }
func (v TraceSpanView) StatusCode() int32          { return v.b.statusCode.Value(v.i) }

func (v TraceSpanView) StatusMessage() string {
	if v.b.statusMessage.IsNull(v.i) {
		return ""
	}
	return v.b.statusMessage.Value(v.i)
}

func (v TraceSpanView) Depth() int32     { return v.b.depth.Value(v.i) }
func (v TraceSpanView) SpanOrder() int32 { return v.b.spanOrder.Value(v.i) }

// Path returns the row's ancestor span names, read back from the
// list<utf8> column the write path built.
func (v TraceSpanView) Path() []string {
	start, end := v.b.path.ValueOffsets(v.i)
	out := make([]string, 0, end-start)
	for j := start; j < end; j++ {
		out = append(out, v.b.pathValues.Value(int(j)))
	}
	return out
}

// Attributes reads the row's entries out of the map<utf8,string_view>
// column directly, with no JSON decode on the read path.
func (v TraceSpanView) Attributes() map[string]string {
	if v.b.attrs.IsNull(v.i) {
		return nil
	}
	start, end := v.b.attrs.ValueOffsets(v.i)
	if start == end {
		return nil
	}
	m := make(map[string]string, end-start)
	for j := start; j < end; j++ {
		m[v.b.attrKeys.Value(int(j))] = v.b.attrValues.Value(int(j))
	}
	return m
}

func (v TraceSpanView) Events() []traceingest.SpanEvent {
	if v.b.events.IsNull(v.i) {
		return nil
	}
	start, end := v.b.events.ValueOffsets(v.i)
	if start == end {
		return nil
	}
	out := make([]traceingest.SpanEvent, 0, end-start)
	for j := start; j < end; j++ {
		idx := int(j)
		var attrs map[string]string
		if !v.b.eventAttrs.IsNull(idx) {
			attrs = traceingest.DecodeAttributes(v.b.eventAttrs.Value(idx))
		}
		out = append(out, traceingest.SpanEvent{
			Name:         v.b.eventNames.Value(idx),
			Timestamp:    arrowTimestampToTime(v.b.eventTimes.Value(idx)),
			Attributes:   attrs,
			DroppedCount: v.b.eventDropped.Value(idx),
		})
	}
	return out
}

func (v TraceSpanView) Links() []traceingest.SpanLink {
	if v.b.links.IsNull(v.i) {
		return nil
	}
	start, end := v.b.links.ValueOffsets(v.i)
	if start == end {
		return nil
	}
	out := make([]traceingest.SpanLink, 0, end-start)
	for j := start; j < end; j++ {
		idx := int(j)
		var attrs map[string]string
		if !v.b.linkAttrs.IsNull(idx) {
			attrs = traceingest.DecodeAttributes(v.b.linkAttrs.Value(idx))
		}
		var traceState string
		if !v.b.linkStates.IsNull(idx) {
			traceState = v.b.linkStates.Value(idx)
		}
		var traceID, spanID string
		if !v.b.linkTraceIDs.IsNull(idx) {
			traceID = hex.EncodeToString(v.b.linkTraceIDs.Value(idx))
		}
		if !v.b.linkSpanIDs.IsNull(idx) {
			spanID = hex.EncodeToString(v.b.linkSpanIDs.Value(idx))
		}
		out = append(out, traceingest.SpanLink{
			TraceID:      traceID,
			SpanID:       spanID,
			TraceState:   traceState,
			Attributes:   attrs,
			DroppedCount: v.b.linkDropped.Value(idx),
		})
	}
	return out
}

func (v TraceSpanView) Input() string {
	if v.b.input.IsNull(v.i) {
		return ""
	}
	return v.b.input.Value(v.i)
}

func (v TraceSpanView) Output() string {
	if v.b.output.IsNull(v.i) {
		return ""
	}
	return v.b.output.Value(v.i)
}

func (v TraceSpanView) SearchBlob() string { return v.b.searchBlob.Value(v.i) }
