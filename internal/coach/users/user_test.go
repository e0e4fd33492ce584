package users

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActivityLevelScalar(t *testing.T) {
	assert.Equal(t, 0.2, ActivitySedentary.Scalar())
	assert.Equal(t, 0.4, ActivityCasual.Scalar())
	assert.Equal(t, 0.6, ActivityModerate.Scalar())
	assert.Equal(t, 0.8, ActivityActive.Scalar())
	assert.Equal(t, 1.0, ActivityIntense.Scalar())
	// unknown levels fall back to the lowest score
	assert.Equal(t, 0.2, ActivityLevel("couch").Scalar())
}

func TestActivityLevelFromScalar(t *testing.T) {
	assert.Equal(t, ActivitySedentary, ActivityLevelFromScalar(0))
	assert.Equal(t, ActivitySedentary, ActivityLevelFromScalar(0.34))
	assert.Equal(t, ActivityCasual, ActivityLevelFromScalar(0.35))
	assert.Equal(t, ActivityModerate, ActivityLevelFromScalar(0.5))
	assert.Equal(t, ActivityActive, ActivityLevelFromScalar(0.65))
	assert.Equal(t, ActivityIntense, ActivityLevelFromScalar(0.85))
	assert.Equal(t, ActivityIntense, ActivityLevelFromScalar(1))
}
