package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceMeters(t *testing.T) {
	testCases := []struct {
		name                   string
		lat1, lng1, lat2, lng2 float64
		expected               float64
		tolerance              float64
	}{
		{
			name: "Same point is zero",
			lat1: 37.5, lng1: 127.0, lat2: 37.5, lng2: 127.0,
			expected: 0, tolerance: 0,
		},
		{
			name: "About one kilometer north",
			lat1: 37.5, lng1: 127.0, lat2: 37.509, lng2: 127.0,
			expected: 1000, tolerance: 5,
		},
		{
			name: "Seoul to Busan",
			lat1: 37.5665, lng1: 126.9780, lat2: 35.1796, lng2: 129.0756,
			expected: 325000, tolerance: 2000,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := DistanceMeters(tc.lat1, tc.lng1, tc.lat2, tc.lng2)
			assert.InDelta(t, tc.expected, got, tc.tolerance)
		})
	}
}

func TestDistanceMetersSymmetry(t *testing.T) {
	pairs := [][4]float64{
		{37.5, 127.0, 37.509, 127.0},
		{0, 0, 51.5, -0.12},
		{-33.86, 151.20, 35.68, 139.69},
	}
	for _, p := range pairs {
		ab := DistanceMeters(p[0], p[1], p[2], p[3])
		ba := DistanceMeters(p[2], p[3], p[0], p[1])
		assert.InDelta(t, ab, ba, 1e-9)
	}
}

func TestRequiredBattery(t *testing.T) {
	assert.Equal(t, 20, RequiredBattery(0))
	assert.Equal(t, 25, RequiredBattery(50))
	assert.Equal(t, 120, RequiredBattery(1000))

	// Monotonically non-decreasing in distance.
	prev := 0
	for d := 0.0; d <= 2000; d += 7.3 {
		req := RequiredBattery(d)
		assert.GreaterOrEqual(t, req, prev)
		prev = req
	}
}

func TestEstimatedMinutes(t *testing.T) {
	assert.Equal(t, 0, EstimatedMinutes(0))
	assert.Equal(t, 1, EstimatedMinutes(50))
	assert.Equal(t, 1, EstimatedMinutes(400))
	assert.Equal(t, 2, EstimatedMinutes(401))
	assert.Equal(t, 3, EstimatedMinutes(1000))
}

func TestFormatDistance(t *testing.T) {
	assert.Equal(t, "0m", FormatDistance(0))
	assert.Equal(t, "152m", FormatDistance(151.7))
	assert.Equal(t, "1000m", FormatDistance(999.6))
}
