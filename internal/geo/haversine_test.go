// internal/geo/haversine_test.go
package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineDistance_SamePointIsZero(t *testing.T) {
	assert.Equal(t, 0.0, HaversineDistance(41.482, -81.798, 41.482, -81.798))
}

func TestHaversineDistance_Symmetry(t *testing.T) {
	d1 := HaversineDistance(41.482, -81.798, 41.474, -81.740)
	d2 := HaversineDistance(41.474, -81.740, 41.482, -81.798)
	assert.InDelta(t, d1, d2, 1e-9)
}

func TestHaversineDistance_KnownDistance(t *testing.T) {
	// Lakewood OH (44107) to Cleveland west side (44102): about 3 miles.
	d := HaversineDistance(41.4824, -81.7982, 41.4739, -81.7399)
	assert.InDelta(t, 3.0, d, 0.5)
}

func TestHaversineDistance_CrossCountry(t *testing.T) {
	// New York to Los Angeles, roughly 2445 miles.
	d := HaversineDistance(40.7128, -74.0060, 34.0522, -118.2437)
	assert.InDelta(t, 2445, d, 20)
}

func TestHaversineDistance_NaNInputsCollapseToZero(t *testing.T) {
	assert.Equal(t, 0.0, HaversineDistance(math.NaN(), -81.798, 41.474, -81.740))
	assert.Equal(t, 0.0, HaversineDistance(41.482, math.NaN(), 41.474, -81.740))
	assert.Equal(t, 0.0, HaversineDistance(41.482, -81.798, math.NaN(), math.NaN()))
}

func TestHaversineDistance_NeverNegative(t *testing.T) {
	coords := [][4]float64{
		{0, 0, 0, 180},
		{-90, 0, 90, 0},
		{41.482, -81.798, 41.482, -81.798},
	}
	for _, c := range coords {
		assert.GreaterOrEqual(t, HaversineDistance(c[0], c[1], c[2], c[3]), 0.0)
	}
}
