package workouts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVolumeDeviationPct(t *testing.T) {
	// no training data, no deviation
	assert.Zero(t, volumeDeviationPct(nil))
	assert.Zero(t, volumeDeviationPct([]float64{0, 0, 0}))

	// identical daily volumes, perfectly steady
	assert.Zero(t, volumeDeviationPct([]float64{1000, 1000, 1000}))

	// mean 100, pstdev 20 => 20%
	assert.InDelta(t, 20, volumeDeviationPct([]float64{80, 120}), 0.0001)

	// wildly uneven days deviate more than mildly uneven ones
	mild := volumeDeviationPct([]float64{900, 1000, 1100})
	wild := volumeDeviationPct([]float64{100, 1000, 1900})
	assert.Greater(t, wild, mild)
}
