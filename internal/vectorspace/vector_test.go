package vectorspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDot_MergesSparseIndices(t *testing.T) {
	a := Vector{Dim: 5, Indices: []int32{0, 2, 4}, Values: []float32{1, 2, 3}}
	b := Vector{Dim: 5, Indices: []int32{1, 2, 4}, Values: []float32{5, 0.5, 2}}

	assert.InDelta(t, 7.0, Dot(a, b), 1e-9)
	assert.InDelta(t, Dot(a, b), Dot(b, a), 1e-12)
}

func TestNormalized_UnitLength(t *testing.T) {
	v := Vector{Dim: 3, Indices: []int32{0, 2}, Values: []float32{3, 4}}

	n := v.Normalized()

	assert.InDelta(t, 1.0, n.Norm(), 1e-6)
	assert.InDelta(t, 0.6, n.Values[0], 1e-6)
	assert.Equal(t, float32(3), v.Values[0], "original is untouched")
}

func TestNormalized_ZeroVectorStaysZero(t *testing.T) {
	v := Vector{Dim: 4}

	n := v.Normalized()

	assert.True(t, n.IsZero())
	assert.Equal(t, 4, n.Dim)
}

func TestDense_Expands(t *testing.T) {
	v := Vector{Dim: 4, Indices: []int32{1, 3}, Values: []float32{0.5, 2}}

	assert.Equal(t, []float32{0, 0.5, 0, 2}, v.Dense())
}
