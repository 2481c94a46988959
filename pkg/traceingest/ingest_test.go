package traceingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSpan(t *testing.T, name string) TraceSpan {
	t.Helper()
	start := time.Now().UTC()
	return TraceSpan{
		TraceID:     "0123456789abcdef0123456789abcdef",
		SpanID:      "0123456789abcdef",
		RootSpanID:  "0123456789abcdef",
		ServiceName: "scouter-api",
		SpanName:    name,
		StartTime:   start,
		EndTime:     start.Add(150 * time.Millisecond),
		StatusCode:  0,
		Depth:       0,
		Path:        nil,
		Attributes:  map[string]string{"env": "prod"},
	}
}

func TestValidateRejectsBadIDs(t *testing.T) {
	span := sampleSpan(t, "root")
	span.TraceID = "not-hex"
	assert.Error(t, span.Validate())
}

func TestValidateRejectsDepthPathMismatch(t *testing.T) {
	span := sampleSpan(t, "root")
	span.Depth = 1
	span.ParentSpanID = "fedcba9876543210"
	span.Path = nil
	assert.Error(t, span.Validate())
}

func TestValidateRejectsEndBeforeStart(t *testing.T) {
	span := sampleSpan(t, "root")
	span.EndTime = span.StartTime.Add(-time.Second)
	assert.Error(t, span.Validate())
}

func TestDurationMsComputedFromMicroseconds(t *testing.T) {
	span := sampleSpan(t, "root")
	assert.Equal(t, int64(150), span.DurationMs())
}

func TestSpanRowRoundTripsIDs(t *testing.T) {
	span := sampleSpan(t, "root")
	row, err := toSpanRow(span)
	require.NoError(t, err)
	assert.Equal(t, span.TraceID, hexID(row.TraceID))
	assert.Equal(t, span.SpanID, hexID(row.SpanID))
}

func TestBuildSearchBlobLowercasesAndJoins(t *testing.T) {
	span := sampleSpan(t, "Root-Call")
	blob := buildSearchBlob(span)
	assert.Contains(t, blob, "root-call")
	assert.Contains(t, blob, "env:prod")
}

func TestStoreWriteAndReadBackSegment(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	store, err := Open(ctx, dir)
	require.NoError(t, err)
	defer store.Close()

	spans := []TraceSpan{sampleSpan(t, "root"), sampleSpan(t, "child")}
	require.NoError(t, store.Write(ctx, spans))

	segments, err := store.Segments()
	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.Equal(t, 2, segments[0].RowCount)

	rows, err := readSegment(segments[0].Path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
}

func TestStoreWriteRejectsInvalidBatch(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	store, err := Open(ctx, dir)
	require.NoError(t, err)
	defer store.Close()

	bad := sampleSpan(t, "root")
	bad.SpanID = "xx"
	assert.Error(t, store.Write(ctx, []TraceSpan{bad}))

	segments, err := store.Segments()
	require.NoError(t, err)
	assert.Len(t, segments, 0)
}

func TestStoreOptimizeMergesSegments(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	store, err := Open(ctx, dir)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Write(ctx, []TraceSpan{sampleSpan(t, "a")}))
	require.NoError(t, store.Write(ctx, []TraceSpan{sampleSpan(t, "b")}))

	segmentsBefore, err := store.Segments()
	require.NoError(t, err)
	require.Len(t, segmentsBefore, 2)

	require.NoError(t, store.Optimize(ctx))

	segmentsAfter, err := store.Segments()
	require.NoError(t, err)
	require.Len(t, segmentsAfter, 1)
	assert.Equal(t, 2, segmentsAfter[0].RowCount)
}

func TestStoreCloseStopsActor(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	store, err := Open(ctx, dir)
	require.NoError(t, err)
	store.Close()

	timeoutCtx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err = store.Write(timeoutCtx, []TraceSpan{sampleSpan(t, "root")})
	assert.Error(t, err) // actor stopped, context deadline exceeded waiting on reply
}
