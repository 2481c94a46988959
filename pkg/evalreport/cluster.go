package evalreport

import (
	"fmt"
	"math"
)

// Embedding is one record's caller-supplied embedding vector. Generating
// embeddings is an external-provider concern handled by the same
// Provider abstraction pkg/evalengine defines for LLM judges; this
// package only clusters vectors it's given.
type Embedding struct {
	RecordID string
	Vector   []float64
}

// Cluster assigns each embedding to one of k centroids.
type Cluster struct {
	Centroid []float64
	Members  []string // record ids
}

// ClusterByEmbedding runs a small k-means over precomputed embedding
// vectors. maxIterations bounds convergence; a converged run may stop
// earlier.
func ClusterByEmbedding(embeddings []Embedding, k int, maxIterations int) ([]Cluster, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings to cluster")
	}
	if k > len(embeddings) {
		k = len(embeddings)
	}
	if maxIterations <= 0 {
		maxIterations = 100
	}
	dim := len(embeddings[0].Vector)

	centroids := make([][]float64, k)
	for i := 0; i < k; i++ {
		centroids[i] = append([]float64(nil), embeddings[i*len(embeddings)/k].Vector...)
	}

	assignment := make([]int, len(embeddings))
	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		for i, e := range embeddings {
			best, bestDist := 0, math.Inf(1)
			for c, centroid := range centroids {
				d := squaredDistance(e.Vector, centroid)
				if d < bestDist {
					best, bestDist = c, d
				}
			}
			if assignment[i] != best {
				assignment[i] = best
				changed = true
			}
		}

		sums := make([][]float64, k)
		counts := make([]int, k)
		for i := range sums {
			sums[i] = make([]float64, dim)
		}
		for i, e := range embeddings {
			c := assignment[i]
			counts[c]++
			for d := 0; d < dim; d++ {
				sums[c][d] += e.Vector[d]
			}
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				continue
			}
			for d := 0; d < dim; d++ {
				centroids[c][d] = sums[c][d] / float64(counts[c])
			}
		}

		if !changed {
			break
		}
	}

	clusters := make([]Cluster, k)
	for c := 0; c < k; c++ {
		clusters[c].Centroid = centroids[c]
	}
	for i, e := range embeddings {
		c := assignment[i]
		clusters[c].Members = append(clusters[c].Members, e.RecordID)
	}
	return clusters, nil
}

func squaredDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
