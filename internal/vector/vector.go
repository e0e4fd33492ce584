package vector

import (
	"errors"
	"fmt"
)

var ErrInvalidInput = errors.New("invalid vector input")

// Vector pairs an ordered list of dimension names with their values.
// The order carries no meaning beyond matching index to name.
type Vector struct {
	Dimensions []string  `json:"dimensions"`
	Values     []float64 `json:"vector"`
}

func New(dimensions []string, values []float64) (Vector, error) {
	if len(dimensions) == 0 {
		return Vector{}, fmt.Errorf("%w: no dimensions", ErrInvalidInput)
	}
	if len(dimensions) != len(values) {
		return Vector{}, fmt.Errorf(
			"%w: %d dimensions for %d values",
			ErrInvalidInput, len(dimensions), len(values),
		)
	}
	seen := make(map[string]struct{}, len(dimensions))
	for _, dim := range dimensions {
		if _, ok := seen[dim]; ok {
			return Vector{}, fmt.Errorf("%w: duplicate dimension %q", ErrInvalidInput, dim)
		}
		seen[dim] = struct{}{}
	}
	return Vector{Dimensions: dimensions, Values: values}, nil
}

// Value returns the value for the named dimension.
func (v Vector) Value(dimension string) (float64, bool) {
	for i, dim := range v.Dimensions {
		if dim == dimension {
			return v.Values[i], true
		}
	}
	return 0, false
}

// Len returns the number of dimensions.
func (v Vector) Len() int {
	return len(v.Dimensions)
}

// Clone returns a deep copy, so callers can mutate values without
// touching the original.
func (v Vector) Clone() Vector {
	dims := make([]string, len(v.Dimensions))
	copy(dims, v.Dimensions)
	values := make([]float64, len(v.Values))
	copy(values, v.Values)
	return Vector{Dimensions: dims, Values: values}
}

// CommonDimensions returns the names present in both vectors, in the
// receiver's order.
func (v Vector) CommonDimensions(other Vector) []string {
	var common []string
	for _, dim := range v.Dimensions {
		if _, ok := other.Value(dim); ok {
			common = append(common, dim)
		}
	}
	return common
}
