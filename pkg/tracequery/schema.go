// Package tracequery provides read-side, mostly zero-copy access over
// trace spans persisted by pkg/traceingest. Batches are materialized as
// Arrow record batches (apache/arrow-go/v18) so column access is a
// slice/array lookup rather than a per-row decode.
package tracequery

import (
	"github.com/apache/arrow-go/v18/arrow"
)

// eventStructType is the struct type backing the events list column.
var eventStructType = arrow.StructOf(
	arrow.Field{Name: "name", Type: arrow.BinaryTypes.String},
	arrow.Field{Name: "timestamp", Type: &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}},
	arrow.Field{Name: "attributes_json", Type: arrow.BinaryTypes.String, Nullable: true},
	arrow.Field{Name: "dropped_count", Type: arrow.PrimitiveTypes.Int32},
)

// linkStructType is the struct type backing the links list column.
var linkStructType = arrow.StructOf(
	arrow.Field{Name: "trace_id", Type: &arrow.FixedSizeBinaryType{ByteWidth: 16}},
	arrow.Field{Name: "span_id", Type: &arrow.FixedSizeBinaryType{ByteWidth: 8}},
	arrow.Field{Name: "trace_state", Type: arrow.BinaryTypes.String, Nullable: true},
	arrow.Field{Name: "attributes_json", Type: arrow.BinaryTypes.String, Nullable: true},
	arrow.Field{Name: "dropped_count", Type: arrow.PrimitiveTypes.Int32},
)

// serviceNameDict and spanKindDict are the dictionary types service_name
// and span_kind are encoded with.
var serviceNameDict = &arrow.DictionaryType{IndexType: arrow.PrimitiveTypes.Int32, ValueType: arrow.BinaryTypes.String}
var spanKindDict = &arrow.DictionaryType{IndexType: arrow.PrimitiveTypes.Int8, ValueType: arrow.BinaryTypes.String}

// Schema is the Arrow schema every TraceSpanBatch conforms to: column
// types are bit-exact against the wire schema, since dictionary-encoded,
// view, and list<struct> columns aren't interchangeable with plain utf8
// at query time (group-bys by service_name dictionary index, substring
// search over a view's pointer-into-buffer representation).
var Schema = arrow.NewSchema([]arrow.Field{
	{Name: "trace_id", Type: &arrow.FixedSizeBinaryType{ByteWidth: 16}},
	{Name: "span_id", Type: &arrow.FixedSizeBinaryType{ByteWidth: 8}},
	{Name: "parent_span_id", Type: &arrow.FixedSizeBinaryType{ByteWidth: 8}, Nullable: true},
	{Name: "root_span_id", Type: &arrow.FixedSizeBinaryType{ByteWidth: 8}},

	{Name: "service_name", Type: serviceNameDict},
	{Name: "span_name", Type: arrow.BinaryTypes.String},
	{Name: "span_kind", Type: spanKindDict, Nullable: true},
	{Name: "start_time", Type: &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}},
	{Name: "end_time", Type: &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}},
	{Name: "duration_ms", Type: arrow.PrimitiveTypes.Int64},
	{Name: "status_code", Type: arrow.PrimitiveTypes.Int32},
	{Name: "status_message", Type: arrow.BinaryTypes.String, Nullable: true},

	{Name: "depth", Type: arrow.PrimitiveTypes.Int32},
	{Name: "span_order", Type: arrow.PrimitiveTypes.Int32},
	{Name: "path", Type: arrow.ListOf(arrow.BinaryTypes.String)},

	{Name: "attributes", Type: arrow.MapOf(arrow.BinaryTypes.String, arrow.BinaryTypes.StringView), Nullable: true},
	{Name: "events", Type: arrow.ListOf(eventStructType), Nullable: true},
	{Name: "links", Type: arrow.ListOf(linkStructType), Nullable: true},

	{Name: "input", Type: arrow.BinaryTypes.StringView, Nullable: true},
	{Name: "output", Type: arrow.BinaryTypes.StringView, Nullable: true},
	{Name: "search_blob", Type: arrow.BinaryTypes.StringView},
}, nil)
