package engine

import (
	"math"
	"math/rand"
)

// kmeansSeed and kmeansInits mirror the original tool's
// KMeans(n_clusters=n, random_state=42, n_init=10): a fixed seed keeps
// clustering_score reproducible across runs on the same population, and
// multiple restarts avoid a single bad initialization skewing the result.
const (
	kmeansSeed    = 42
	kmeansInits   = 10
	kmeansMaxIter = 100
)

// standardize z-scores each feature column (mean 0, std 1), matching
// sklearn's StandardScaler used ahead of KMeans in the original tool.
func standardize(points [][]float64) (scaled [][]float64, means, stds []float64) {
	if len(points) == 0 {
		return nil, nil, nil
	}
	dims := len(points[0])
	means = make([]float64, dims)
	stds = make([]float64, dims)

	for d := 0; d < dims; d++ {
		col := make([]float64, len(points))
		for i, p := range points {
			col[i] = p[d]
		}
		means[d] = mean(col)
		stds[d] = stddev(col)
		if stds[d] < epsilon {
			stds[d] = 1
		}
	}

	scaled = make([][]float64, len(points))
	for i, p := range points {
		row := make([]float64, dims)
		for d := 0; d < dims; d++ {
			row[d] = (p[d] - means[d]) / stds[d]
		}
		scaled[i] = row
	}
	return scaled, means, stds
}

func applyScale(point, means, stds []float64) []float64 {
	scaled := make([]float64, len(point))
	for d := range point {
		scaled[d] = (point[d] - means[d]) / stds[d]
	}
	return scaled
}

func euclideanDistance(a, b []float64) float64 {
	var sumSq float64
	for i := range a {
		d := a[i] - b[i]
		sumSq += d * d
	}
	return math.Sqrt(sumSq)
}

// kmeansResult holds the fitted cluster centers in scaled feature space.
type kmeansResult struct {
	centers [][]float64
}

// fitKMeans runs Lloyd's algorithm with kmeansInits random restarts from a
// fixed seed, keeping the restart with the lowest total inertia.
func fitKMeans(points [][]float64, k int) kmeansResult {
	rng := rand.New(rand.NewSource(kmeansSeed))

	var best kmeansResult
	bestInertia := -1.0

	for init := 0; init < kmeansInits; init++ {
		centers := make([][]float64, k)
		perm := rng.Perm(len(points))
		for i := 0; i < k; i++ {
			centers[i] = append([]float64{}, points[perm[i%len(perm)]]...)
		}

		assignments := make([]int, len(points))
		for iter := 0; iter < kmeansMaxIter; iter++ {
			changed := false
			for i, p := range points {
				best := 0
				bestDist := euclideanDistance(p, centers[0])
				for c := 1; c < k; c++ {
					d := euclideanDistance(p, centers[c])
					if d < bestDist {
						bestDist = d
						best = c
					}
				}
				if assignments[i] != best {
					assignments[i] = best
					changed = true
				}
			}

			sums := make([][]float64, k)
			counts := make([]int, k)
			dims := len(points[0])
			for c := 0; c < k; c++ {
				sums[c] = make([]float64, dims)
			}
			for i, p := range points {
				c := assignments[i]
				counts[c]++
				for d := 0; d < dims; d++ {
					sums[c][d] += p[d]
				}
			}
			for c := 0; c < k; c++ {
				if counts[c] == 0 {
					continue
				}
				for d := 0; d < dims; d++ {
					centers[c][d] = sums[c][d] / float64(counts[c])
				}
			}

			if !changed {
				break
			}
		}

		var inertia float64
		for i, p := range points {
			d := euclideanDistance(p, centers[assignments[i]])
			inertia += d * d
		}

		if bestInertia < 0 || inertia < bestInertia {
			bestInertia = inertia
			best = kmeansResult{centers: centers}
		}
	}

	return best
}

// nearestCenterDistance returns the distance from point to its closest
// fitted cluster center.
func (r kmeansResult) nearestCenterDistance(point []float64) float64 {
	if len(r.centers) == 0 {
		return 0
	}
	minDist := euclideanDistance(point, r.centers[0])
	for _, c := range r.centers[1:] {
		if d := euclideanDistance(point, c); d < minDist {
			minDist = d
		}
	}
	return minDist
}
