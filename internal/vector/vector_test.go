package vector_test

import (
	"testing"

	"github.com/Alazca/official-coach/internal/vector"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	v, err := vector.New([]string{"weekly_volume", "training_days"}, []float64{0.5, 0.7})
	require.NoError(t, err)
	assert.Equal(t, 2, v.Len())

	val, ok := v.Value("training_days")
	require.True(t, ok)
	assert.Equal(t, 0.7, val)

	_, ok = v.Value("nonexistent")
	assert.False(t, ok)
}

func TestNew_Invalid(t *testing.T) {
	_, err := vector.New(nil, nil)
	assert.ErrorIs(t, err, vector.ErrInvalidInput)

	_, err = vector.New([]string{"a", "b"}, []float64{1})
	assert.ErrorIs(t, err, vector.ErrInvalidInput)

	_, err = vector.New([]string{"a", "a"}, []float64{1, 2})
	assert.ErrorIs(t, err, vector.ErrInvalidInput)
}

func TestClone(t *testing.T) {
	v, err := vector.New([]string{"a", "b"}, []float64{1, 2})
	require.NoError(t, err)

	clone := v.Clone()
	clone.Values[0] = 99
	clone.Dimensions[0] = "z"

	val, ok := v.Value("a")
	require.True(t, ok)
	assert.Equal(t, 1.0, val)
}

func TestCommonDimensions(t *testing.T) {
	a, err := vector.New([]string{"a", "b", "c"}, []float64{1, 2, 3})
	require.NoError(t, err)
	b, err := vector.New([]string{"c", "a", "d"}, []float64{1, 2, 3})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "c"}, a.CommonDimensions(b))
}
