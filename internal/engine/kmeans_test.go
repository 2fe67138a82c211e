package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardizeZeroMeanUnitVariance(t *testing.T) {
	points := [][]float64{{1, 10}, {2, 20}, {3, 30}}
	scaled, means, stds := standardize(points)

	require.Len(t, scaled, 3)
	assert.InDelta(t, 2.0, means[0], 1e-9)
	assert.InDelta(t, 20.0, means[1], 1e-9)
	assert.Greater(t, stds[0], 0.0)
}

func TestStandardizeConstantColumnAvoidsDivideByZero(t *testing.T) {
	points := [][]float64{{5, 1}, {5, 2}, {5, 3}}
	scaled, _, stds := standardize(points)

	assert.Equal(t, 1.0, stds[0])
	for _, row := range scaled {
		assert.Equal(t, 0.0, row[0])
	}
}

func TestEuclideanDistanceIdenticalPointsIsZero(t *testing.T) {
	assert.Equal(t, 0.0, euclideanDistance([]float64{1, 2, 3}, []float64{1, 2, 3}))
}

func TestFitKMeansSeparatesTwoDistinctClusters(t *testing.T) {
	points := [][]float64{
		{0, 0}, {0.1, 0.1}, {0.2, -0.1},
		{10, 10}, {10.1, 9.9}, {9.9, 10.1},
	}

	result := fitKMeans(points, 2)
	require.Len(t, result.centers, 2)

	distNearOrigin := result.nearestCenterDistance([]float64{0, 0})
	distNearFar := result.nearestCenterDistance([]float64{10, 10})
	assert.Less(t, distNearOrigin, 2.0)
	assert.Less(t, distNearFar, 2.0)
}

func TestFitKMeansIsDeterministicAcrossRuns(t *testing.T) {
	points := [][]float64{
		{0, 0}, {0.1, 0.1}, {0.2, -0.1},
		{10, 10}, {10.1, 9.9}, {9.9, 10.1},
	}

	a := fitKMeans(points, 2)
	b := fitKMeans(points, 2)

	distA := a.nearestCenterDistance([]float64{5, 5})
	distB := b.nearestCenterDistance([]float64{5, 5})
	assert.Equal(t, distA, distB)
}
