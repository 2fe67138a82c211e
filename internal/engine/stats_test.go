package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeanAndStddev(t *testing.T) {
	xs := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	assert.InDelta(t, 5.0, mean(xs), 1e-9)
	assert.InDelta(t, 2.0, stddev(xs), 1e-9)
}

func TestMeanEmpty(t *testing.T) {
	assert.Equal(t, 0.0, mean(nil))
	assert.Equal(t, 0.0, stddev(nil))
}

func TestZScoreFloorsSigma(t *testing.T) {
	z := zScore(1.0, 0.0, 0.0)
	assert.InDelta(t, 1.0/sigmaFloor, z, 1e-9)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, clamp(-5, 0, 10))
	assert.Equal(t, 10.0, clamp(15, 0, 10))
	assert.Equal(t, 5.0, clamp(5, 0, 10))
}

func TestShannonEntropyUniform(t *testing.T) {
	counts := map[string]int{"a": 5, "b": 5, "c": 5, "d": 5}
	h := shannonEntropy(counts, 20)
	assert.InDelta(t, 2.0, h, 1e-9) // log2(4) == 2
}

func TestShannonEntropyDegenerate(t *testing.T) {
	counts := map[string]int{"a": 10}
	assert.Equal(t, 0.0, shannonEntropy(counts, 10))
	assert.Equal(t, 0.0, shannonEntropy(nil, 0))
}

func TestLinearDetrendRemovesTrend(t *testing.T) {
	ys := []float64{1, 2, 3, 4, 5}
	residuals := linearDetrend(ys)
	for _, r := range residuals {
		assert.InDelta(t, 0.0, r, 1e-9)
	}
}

func TestLinearDetrendShortSeries(t *testing.T) {
	assert.Equal(t, []float64{42}, linearDetrend([]float64{42}))
}
