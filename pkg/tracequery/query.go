package tracequery

import "strings"

// Search returns the row indices whose search_blob contains term
// (case-insensitive), preserving batch order. A from-scratch linear
// scan — the batch is expected to already be narrowed by time range or
// service before Search runs.
func (b *TraceSpanBatch) Search(term string) []int {
	term = strings.ToLower(term)
	var matches []int
	for i := 0; i < b.NumRows(); i++ {
		if strings.Contains(b.searchBlob.Value(i), term) {
			matches = append(matches, i)
		}
	}
	return matches
}

// FilterByService returns the row indices whose service_name equals
// name.
func (b *TraceSpanBatch) FilterByService(name string) []int {
	var matches []int
	for i := 0; i < b.NumRows(); i++ {
		if b.At(i).ServiceName() == name {
			matches = append(matches, i)
		}
	}
	return matches
}

// RootSpans returns the row indices with depth 0 (trace roots).
func (b *TraceSpanBatch) RootSpans() []int {
	var matches []int
	for i := 0; i < b.NumRows(); i++ {
		if b.depth.Value(i) == 0 {
			matches = append(matches, i)
		}
	}
	return matches
}
