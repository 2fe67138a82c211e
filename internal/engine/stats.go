package engine

import "math"

// sigmaFloor is the minimum standard deviation used in z-score denominators,
// preventing division blow-ups on near-constant populations.
const sigmaFloor = 0.01

// epsilon guards ratio denominators against exact-zero populations.
const epsilon = 1e-6

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stddev returns the population standard deviation (ddof=0), matching
// numpy's default np.std used throughout the original tool.
func stddev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	var sumSq float64
	for _, x := range xs {
		d := x - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(xs)))
}

// zScore computes (value-mean)/max(std,sigmaFloor).
func zScore(value, m, sd float64) float64 {
	return (value - m) / math.Max(sd, sigmaFloor)
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// shannonEntropy computes the Shannon entropy (base 2) of a discrete
// distribution expressed as bucket counts.
func shannonEntropy(counts map[string]int, total int) float64 {
	if total == 0 {
		return 0
	}
	var h float64
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / float64(total)
		h -= p * math.Log2(p)
	}
	return h
}

// linearDetrend fits y = a + b*x by ordinary least squares over index x and
// returns the residuals (y minus the fitted trend line), used to separate
// genuine period-over-period volatility from a steady drift.
func linearDetrend(ys []float64) []float64 {
	n := len(ys)
	if n < 2 {
		return append([]float64{}, ys...)
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range ys {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	nf := float64(n)
	denom := nf*sumXX - sumX*sumX
	if math.Abs(denom) < epsilon {
		residuals := make([]float64, n)
		m := sumY / nf
		for i, y := range ys {
			residuals[i] = y - m
		}
		return residuals
	}

	b := (nf*sumXY - sumX*sumY) / denom
	a := (sumY - b*sumX) / nf

	residuals := make([]float64, n)
	for i, y := range ys {
		fitted := a + b*float64(i)
		residuals[i] = y - fitted
	}
	return residuals
}
