package vectorspace

import "math"

// Vector is a sparse vector over a model's vocabulary.
// Indices are strictly increasing column numbers below Dim.
type Vector struct {
	Dim     int
	Indices []int32
	Values  []float32
}

// NNZ returns the number of stored (non-zero) entries.
func (v Vector) NNZ() int {
	return len(v.Indices)
}

// IsZero reports whether every component is zero.
func (v Vector) IsZero() bool {
	for _, x := range v.Values {
		if x != 0 {
			return false
		}
	}
	return true
}

// Norm returns the L2 norm.
func (v Vector) Norm() float64 {
	var sum float64
	for _, x := range v.Values {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// Normalized returns a unit-length copy of v. The zero vector is returned
// unchanged.
func (v Vector) Normalized() Vector {
	out := Vector{
		Dim:     v.Dim,
		Indices: append([]int32(nil), v.Indices...),
		Values:  make([]float32, len(v.Values)),
	}
	norm := v.Norm()
	if norm == 0 {
		copy(out.Values, v.Values)
		return out
	}
	inv := 1 / norm
	for i, x := range v.Values {
		out.Values[i] = float32(float64(x) * inv)
	}
	return out
}

// Dense expands v to a []float32 of length Dim.
func (v Vector) Dense() []float32 {
	out := make([]float32, v.Dim)
	for i, col := range v.Indices {
		out[col] = v.Values[i]
	}
	return out
}

// Dot returns the inner product of a and b. Both must use the same vocabulary.
func Dot(a, b Vector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(a.Indices) && j < len(b.Indices) {
		switch {
		case a.Indices[i] == b.Indices[j]:
			sum += float64(a.Values[i]) * float64(b.Values[j])
			i++
			j++
		case a.Indices[i] < b.Indices[j]:
			i++
		default:
			j++
		}
	}
	return sum
}
