package vector

import (
	"fmt"
	"math"
	"sort"
)

// Normalize returns a unit-length copy of values. A zero vector is
// returned unchanged, so the zero-norm case never produces NaN.
func Normalize(values []float64) []float64 {
	norm := euclideanNorm(values)
	out := make([]float64, len(values))
	if norm == 0 {
		copy(out, values)
		return out
	}
	for i, v := range values {
		out[i] = v / norm
	}
	return out
}

// WeightedSimilarity computes cosine similarity between a and b,
// optionally scaling both by a normalized weight vector first (pass nil
// for unweighted). Negative similarities are remapped onto [0,1] via
// (sim+1)/2, and a zero-norm operand yields 0.
func WeightedSimilarity(a, b, weights []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: length mismatch %d vs %d", ErrInvalidInput, len(a), len(b))
	}
	if weights != nil && len(weights) != len(a) {
		return 0, fmt.Errorf("%w: %d weights for %d values", ErrInvalidInput, len(weights), len(a))
	}

	if weights != nil {
		weights = Normalize(weights)
		wa := make([]float64, len(a))
		wb := make([]float64, len(b))
		for i := range a {
			wa[i] = a[i] * weights[i]
			wb[i] = b[i] * weights[i]
		}
		a, b = wa, wb
	}

	var dot float64
	for i := range a {
		dot += a[i] * b[i]
	}

	normA := euclideanNorm(a)
	normB := euclideanNorm(b)
	if normA == 0 || normB == 0 {
		return 0, nil
	}

	sim := dot / (normA * normB)
	// guard against floating point drift outside [-1, 1]
	sim = math.Max(math.Min(sim, 1), -1)

	if sim < 0 {
		return (sim + 1) / 2, nil
	}
	return sim, nil
}

// Interpolate blends a and b linearly, with ratio clamped to [0,1] so
// ratio 0 yields a and ratio 1 yields b.
func Interpolate(a, b []float64, ratio float64) ([]float64, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("%w: length mismatch %d vs %d", ErrInvalidInput, len(a), len(b))
	}
	ratio = math.Max(0, math.Min(1, ratio))
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i]*(1-ratio) + b[i]*ratio
	}
	return out, nil
}

const (
	AggregateMean   = "mean"
	AggregateMedian = "median"
	AggregateMin    = "min"
	AggregateMax    = "max"
)

// Aggregate reduces a non-empty list of equal-length vectors into one.
func Aggregate(vectors [][]float64, method string) ([]float64, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w: cannot aggregate empty list of vectors", ErrInvalidInput)
	}
	size := len(vectors[0])
	for _, v := range vectors {
		if len(v) != size {
			return nil, fmt.Errorf("%w: vectors of unequal length", ErrInvalidInput)
		}
	}

	out := make([]float64, size)
	switch method {
	case AggregateMean:
		for _, v := range vectors {
			for i, val := range v {
				out[i] += val
			}
		}
		for i := range out {
			out[i] /= float64(len(vectors))
		}
	case AggregateMedian:
		column := make([]float64, len(vectors))
		for i := 0; i < size; i++ {
			for j, v := range vectors {
				column[j] = v[i]
			}
			sort.Float64s(column)
			mid := len(column) / 2
			if len(column)%2 == 0 {
				out[i] = (column[mid-1] + column[mid]) / 2
			} else {
				out[i] = column[mid]
			}
		}
	case AggregateMin:
		copy(out, vectors[0])
		for _, v := range vectors[1:] {
			for i, val := range v {
				out[i] = math.Min(out[i], val)
			}
		}
	case AggregateMax:
		copy(out, vectors[0])
		for _, v := range vectors[1:] {
			for i, val := range v {
				out[i] = math.Max(out[i], val)
			}
		}
	default:
		return nil, fmt.Errorf("%w: unknown aggregation method %q", ErrInvalidInput, method)
	}
	return out, nil
}

const (
	DistanceEuclidean = "euclidean"
	DistanceManhattan = "manhattan"
	DistanceChebyshev = "chebyshev"
)

// Distance computes the distance between a and b with the given method.
func Distance(a, b []float64, method string) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: length mismatch %d vs %d", ErrInvalidInput, len(a), len(b))
	}
	switch method {
	case DistanceEuclidean:
		var sum float64
		for i := range a {
			d := a[i] - b[i]
			sum += d * d
		}
		return math.Sqrt(sum), nil
	case DistanceManhattan:
		var sum float64
		for i := range a {
			sum += math.Abs(a[i] - b[i])
		}
		return sum, nil
	case DistanceChebyshev:
		var maxDiff float64
		for i := range a {
			maxDiff = math.Max(maxDiff, math.Abs(a[i]-b[i]))
		}
		return maxDiff, nil
	default:
		return 0, fmt.Errorf("%w: unknown distance method %q", ErrInvalidInput, method)
	}
}

func euclideanNorm(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v * v
	}
	return math.Sqrt(sum)
}
