package tracequery

import (
	"context"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/tarsy/pkg/traceingest"
)

func sampleSpan(serviceName, spanName string, depth int32, path []string) traceingest.TraceSpan {
	start := time.Now().UTC()
	span := traceingest.TraceSpan{
		TraceID:     "0123456789abcdef0123456789abcdef",
		SpanID:      "0123456789abcdef",
		RootSpanID:  "0123456789abcdef",
		ServiceName: serviceName,
		SpanName:    spanName,
		StartTime:   start,
		EndTime:     start.Add(100 * time.Millisecond),
		Depth:       depth,
		Path:        path,
		Attributes:  map[string]string{"region": "us-east-1"},
	}
	if depth > 0 {
		span.ParentSpanID = "fedcba9876543210"
	}
	return span
}

func newTestStore(t *testing.T) *traceingest.Store {
	t.Helper()
	ctx := context.Background()
	store, err := traceingest.Open(ctx, t.TempDir())
	require.NoError(t, err)
	t.Cleanup(store.Close)

	spans := []traceingest.TraceSpan{
		sampleSpan("scouter-api", "root", 0, nil),
		sampleSpan("scouter-worker", "child", 1, []string{"root"}),
	}
	require.NoError(t, store.Write(ctx, spans))
	return store
}

func TestLoadBatchRoundTripsFields(t *testing.T) {
	store := newTestStore(t)
	batch, err := LoadBatch(memory.NewGoAllocator(), store)
	require.NoError(t, err)
	defer batch.Release()

	require.Equal(t, 2, batch.NumRows())

	var sawRoot, sawChild bool
	for i := 0; i < batch.NumRows(); i++ {
		v := batch.At(i)
		switch v.SpanName() {
		case "root":
			sawRoot = true
			assert.Equal(t, int32(0), v.Depth())
			assert.Empty(t, v.ParentSpanIDHex())
			assert.Equal(t, "us-east-1", v.Attributes()["region"])
		case "child":
			sawChild = true
			assert.Equal(t, int32(1), v.Depth())
			assert.Equal(t, []string{"root"}, v.Path())
			assert.NotEmpty(t, v.ParentSpanIDHex())
		}
	}
	assert.True(t, sawRoot)
	assert.True(t, sawChild)
}

func TestSearchMatchesSearchBlob(t *testing.T) {
	store := newTestStore(t)
	batch, err := LoadBatch(memory.NewGoAllocator(), store)
	require.NoError(t, err)
	defer batch.Release()

	matches := batch.Search("CHILD")
	require.Len(t, matches, 1)
	assert.Equal(t, "child", batch.At(matches[0]).SpanName())
}

func TestFilterByServiceAndRootSpans(t *testing.T) {
	store := newTestStore(t)
	batch, err := LoadBatch(memory.NewGoAllocator(), store)
	require.NoError(t, err)
	defer batch.Release()

	workerRows := batch.FilterByService("scouter-worker")
	require.Len(t, workerRows, 1)

	roots := batch.RootSpans()
	require.Len(t, roots, 1)
	assert.Equal(t, "root", batch.At(roots[0]).SpanName())
}
