package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatrix(t *testing.T) {
	{ // Row major layout
		A := NewMatrix(2, 3, []float64{1, 2, 3, 4, 5, 6})
		nr, nc := A.Dims()
		require.Equal(t, 2, nr)
		require.Equal(t, 3, nc)
		assert.Equal(t, 6., A.At(1, 2))
		assert.Equal(t, 2., A.At(0, 1))
	}
	{ // In-place arithmetic and reductions
		A := NewMatrix(2, 2, []float64{1, 2, 3, 4})
		B := A.Copy().Scale(2)
		assert.Equal(t, []float64{1, 2, 3, 4}, A.Data())
		assert.Equal(t, []float64{2, 4, 6, 8}, B.Data())
		B.Set(0, 1, -3)
		assert.Equal(t, []float64{2, -3, 6, 8}, B.Data())
		assert.Equal(t, -3., B.Min())
		assert.Equal(t, 8., B.Max())
		assert.Equal(t, 3.25, B.Mean())
		assert.Equal(t, 30., A.Energy())
		assert.Equal(t, []float32{1, 2, 3, 4}, A.Float32())
	}
	{ // Finiteness
		A := NewMatrix(2, 2)
		assert.True(t, A.IsFinite())
		A.Set(1, 1, math.NaN())
		assert.False(t, A.IsFinite())
		A.Set(1, 1, math.Inf(-1))
		assert.False(t, A.IsFinite())
	}
	{ // Read only matrices refuse writes
		A := NewMatrix(2, 2)
		A.SetReadOnly("A")
		assert.Panics(t, func() { A.Scale(2) })
		assert.Panics(t, func() { A.Set(0, 0, 1) })
		assert.Panics(t, func() { NewMatrix(2, 2, []float64{1}) })
	}
}
