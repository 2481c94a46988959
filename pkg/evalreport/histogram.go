package evalreport

import "math"

// Histogram is a fixed-bin count over a numeric score range.
type Histogram struct {
	Min     float64
	Max     float64
	Bins    []int
	BinSize float64
}

// DefaultBins is the number of histogram bins used when the caller
// doesn't override it.
const DefaultBins = 10

// BuildHistogram computes a fixed-bin histogram over scores. A single
// repeated value (min == max) collapses to one bin holding every score.
func BuildHistogram(scores []float64, numBins int) Histogram {
	if numBins <= 0 {
		numBins = DefaultBins
	}
	h := Histogram{Bins: make([]int, numBins)}
	if len(scores) == 0 {
		return h
	}

	min, max := scores[0], scores[0]
	for _, s := range scores {
		min = math.Min(min, s)
		max = math.Max(max, s)
	}
	h.Min, h.Max = min, max

	if min == max {
		h.Bins[0] = len(scores)
		h.BinSize = 0
		return h
	}

	h.BinSize = (max - min) / float64(numBins)
	for _, s := range scores {
		idx := int((s - min) / h.BinSize)
		if idx >= numBins {
			idx = numBins - 1
		}
		if idx < 0 {
			idx = 0
		}
		h.Bins[idx]++
	}
	return h
}
