// Package spcmath implements the control-limit arithmetic underlying
// Scouter's Statistical Process Control engine: sample-size selection,
// chunked mean/stddev reduction, the c4 unbiasing constant, and per-feature
// control limits.
package spcmath

import (
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/codeready-toolchain/tarsy/internal/xerrors"
)

// SampleSize chooses the chunk size k for a baseline of n rows.
func SampleSize(n int) int {
	switch {
	case n < 1_000:
		return 25
	case n < 10_000:
		return 100
	case n < 100_000:
		return 1_000
	case n < 1_000_000:
		return 10_000
	default:
		return 100_000
	}
}

// C4 is the unbiasing constant for the sample standard deviation at chunk
// size k: (4k-4)/(4k-3).
func C4(k int) float64 {
	kf := float64(k)
	return (4*kf - 4) / (4*kf - 3)
}

// FeatureLimits holds one feature's control limits, in the ordering
// required by the profile invariant:
// three_lcl <= two_lcl <= one_lcl <= center <= one_ucl <= two_ucl <= three_ucl.
type FeatureLimits struct {
	Center                   float64
	OneLCL, OneUCL           float64
	TwoLCL, TwoUCL           float64
	ThreeLCL, ThreeUCL       float64
}

// Baseline computes per-feature control limits from a 2-D row-major array
// X with n rows and m columns (one column per feature). Returns an error
// if X is empty, ragged, or contains NaN — these are ComputeErrors, fatal
// for this one computation.
func Baseline(x [][]float64) ([]FeatureLimits, error) {
	n := len(x)
	if n == 0 {
		return nil, xerrors.Compute("spcmath.Baseline", fmt.Errorf("empty input array"))
	}
	m := len(x[0])
	if m == 0 {
		return nil, xerrors.Compute("spcmath.Baseline", fmt.Errorf("zero-width input array"))
	}
	for i, row := range x {
		if len(row) != m {
			return nil, xerrors.Compute("spcmath.Baseline", fmt.Errorf("row %d has width %d, want %d", i, len(row), m))
		}
		for _, v := range row {
			if math.IsNaN(v) {
				return nil, xerrors.Compute("spcmath.Baseline", fmt.Errorf("row %d contains NaN", i))
			}
		}
	}

	k := SampleSize(n)
	chunkRows := chunkMeansAndStdevs(x, k, m)
	if len(chunkRows) == 0 {
		return nil, xerrors.Compute("spcmath.Baseline", fmt.Errorf("no chunks produced for n=%d k=%d", n, k))
	}

	// Average the 2m-wide rows into a single mean row, then split.
	width := 2 * m
	avg := make([]float64, width)
	for _, row := range chunkRows {
		for j := 0; j < width; j++ {
			avg[j] += row[j]
		}
	}
	for j := range avg {
		avg[j] /= float64(len(chunkRows))
	}
	means := avg[:m]
	stdevs := avg[m:]

	c4 := C4(k)
	limits := make([]FeatureLimits, m)
	for i := 0; i < m; i++ {
		base := stdevs[i] / c4
		center := means[i]
		limits[i] = FeatureLimits{
			Center:   center,
			OneLCL:   center - base,
			OneUCL:   center + base,
			TwoLCL:   center - 2*base,
			TwoUCL:   center + 2*base,
			ThreeLCL: center - 3*base,
			ThreeUCL: center + 3*base,
		}
	}
	return limits, nil
}

// chunkMeansAndStdevs partitions x into chunks of size k (last chunk may be
// shorter) and computes, for each chunk, a width-2m row of
// [mean_0..mean_{m-1}, stdev_0..stdev_{m-1}] (ddof=1). Chunks are processed
// across a data-parallel worker pool sized to GOMAXPROCS, per spec §5.
func chunkMeansAndStdevs(x [][]float64, k, m int) [][]float64 {
	n := len(x)
	numChunks := (n + k - 1) / k
	rows := make([][]float64, numChunks)

	workers := runtime.GOMAXPROCS(0)
	if workers > numChunks {
		workers = numChunks
	}
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	chunkIdx := make(chan int, numChunks)
	for c := 0; c < numChunks; c++ {
		chunkIdx <- c
	}
	close(chunkIdx)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range chunkIdx {
				start := c * k
				end := start + k
				if end > n {
					end = n
				}
				rows[c] = meanStdevRow(x[start:end], m)
			}
		}()
	}
	wg.Wait()
	return rows
}

func meanStdevRow(chunk [][]float64, m int) []float64 {
	row := make([]float64, 2*m)
	count := float64(len(chunk))
	if count == 0 {
		return row
	}

	means := row[:m]
	for _, r := range chunk {
		for j := 0; j < m; j++ {
			means[j] += r[j]
		}
	}
	for j := 0; j < m; j++ {
		means[j] /= count
	}

	stdevs := row[m:]
	if count > 1 {
		for _, r := range chunk {
			for j := 0; j < m; j++ {
				d := r[j] - means[j]
				stdevs[j] += d * d
			}
		}
		for j := 0; j < m; j++ {
			stdevs[j] = math.Sqrt(stdevs[j] / (count - 1))
		}
	}
	return row
}
