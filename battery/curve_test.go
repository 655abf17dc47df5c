package battery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelInterpolation(t *testing.T) {
	curve := []Threshold{
		{4.05, 5.5, 95.0, 100.0},
		{4.00, 4.05, 80.0, 95.0},
		{3.0, 4.00, 0.0, 80.0},
		{0.0, 3.0, 0.0, 0.0},
	}

	assert.InDelta(t, 80.0, Level(curve, 4.00), 1e-9)
	assert.InDelta(t, 87.5, Level(curve, 4.025), 1e-9)
	// A boundary voltage belongs to the higher segment.
	assert.InDelta(t, 95.0, Level(curve, 4.05), 1e-9)
}

func TestLevelOptimisticFallback(t *testing.T) {
	assert.Equal(t, 100.0, Level(DefaultCurve, 5.6))
	assert.Equal(t, 100.0, Level(DefaultCurve, 12.0))
	// No reading yet reports full, not empty.
	assert.Equal(t, 100.0, Level(DefaultCurve, 0))
	assert.Equal(t, 100.0, Level(DefaultCurve, -1))
}

func TestDefaultCurve(t *testing.T) {
	// Voltage-descending with no gaps.
	for i := 0; i < len(DefaultCurve)-1; i++ {
		assert.Equal(t, DefaultCurve[i].LowV, DefaultCurve[i+1].HighV)
	}

	assert.Equal(t, 100.0, Level(DefaultCurve, 4.16))
	assert.Equal(t, 0.0, Level(DefaultCurve, 3.1))
	assert.Equal(t, 0.0, Level(DefaultCurve, 2.5))
	assert.InDelta(t, 87.5, Level(DefaultCurve, 4.05), 1e-9)
	assert.InDelta(t, 56.25, Level(DefaultCurve, 3.89), 1e-9)
}
