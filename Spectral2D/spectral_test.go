package Spectral2D

import (
	"errors"
	"math"
	"math/cmplx"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/spectralns/utils"
)

func near(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func nearVec(a, b []float64, tol float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !near(a[i], b[i], tol) {
			return false
		}
	}
	return true
}

func randomField(N int, seed uint64) utils.Matrix {
	rng := rand.New(rand.NewPCG(seed, 7))
	w := utils.NewMatrix(N, N)
	wD := w.Data()
	for i := range wD {
		wD[i] = rng.NormFloat64()
	}
	return w
}

func TestGrid(t *testing.T) {
	{ // Frequency ordering matches the transform output
		assert.Equal(t, []float64{0, 1, 2, 3, -4, -3, -2, -1}, FFTFreq(8, 1./8))
		assert.Equal(t, []float64{0, 1, -2, -1}, FFTFreq(4, 0.25))
	}
	{ // Wavenumber mesh for a 2π periodic square
		g, err := NewGrid(4, 2*math.Pi)
		require.NoError(t, err)
		assert.True(t, near(math.Pi/2, g.D, 1.e-15))
		assert.True(t, nearVec([]float64{0, 1, -2, -1}, g.K, 1.e-12))
		for i := 0; i < 4; i++ {
			for j := 0; j < 4; j++ {
				assert.Equal(t, g.K[j], g.K1.At(i, j))
				assert.Equal(t, g.K[i], g.K2.At(i, j))
			}
		}
		// Zero mode protection and forced zero
		assert.Equal(t, 1., g.KSquared.At(0, 0))
		assert.Equal(t, 0., g.KMagSquared.At(0, 0))
		assert.Equal(t, 0., g.InvLaplace.At(0, 0))
		assert.True(t, near(-1, g.InvLaplace.At(0, 1), 1.e-12))
		assert.True(t, near(-1./5, g.InvLaplace.At(2, 1), 1.e-12))
		assert.True(t, near(5, g.KSquared.At(2, 1), 1.e-12))
		// Operators are immutable once built
		assert.Panics(t, func() { g.InvLaplace.Set(0, 0, 1) })
	}
	{ // Bad resolution or extent is a configuration error
		for _, bad := range []struct {
			N int
			L float64
		}{{0, 1}, {-2, 1}, {5, 1}, {8, 0}, {8, -1}, {8, math.NaN()}} {
			_, err := NewGrid(bad.N, bad.L)
			assert.True(t, errors.Is(err, utils.ErrConfiguration), "N=%d L=%v", bad.N, bad.L)
		}
	}
}

func TestTransformer(t *testing.T) {
	var (
		N = 16
		L = 2 * math.Pi
	)
	g, err := NewGrid(N, L)
	require.NoError(t, err)
	for _, bt := range []BackendType{GonumFFT, GoDSPFFT} {
		tr := NewTransformer(g, bt)
		{ // Round trip recovers the field
			w := randomField(N, 1)
			wr := tr.ToPhysical(tr.ToSpectral(w))
			assert.True(t, nearVec(w.Data(), wr.Data(), 1.e-12), bt.Print())
		}
		{ // Zero mode of the unnormalized transform is the field sum
			w := randomField(N, 2)
			wHat := tr.ToSpectral(w)
			var sum float64
			for _, val := range w.Data() {
				sum += val
			}
			assert.True(t, near(sum, real(wHat.At(0, 0)), 1.e-10))
		}
		{ // Spectral derivative of sin(2x + 3y)
			w := utils.NewMatrix(N, N)
			dwdx := utils.NewMatrix(N, N)
			dwdy := utils.NewMatrix(N, N)
			for i := 0; i < N; i++ {
				y := float64(i) * g.D
				for j := 0; j < N; j++ {
					x := float64(j) * g.D
					w.Set(i, j, math.Sin(2*x+3*y))
					dwdx.Set(i, j, 2*math.Cos(2*x+3*y))
					dwdy.Set(i, j, 3*math.Cos(2*x+3*y))
				}
			}
			wHat := tr.ToSpectral(w)
			dx := tr.ToPhysical(tr.Derivative(wHat, XAxis))
			dy := tr.ToPhysical(tr.Derivative(wHat, YAxis))
			assert.True(t, nearVec(dwdx.Data(), dx.Data(), 1.e-10), bt.Print())
			assert.True(t, nearVec(dwdy.Data(), dy.Data(), 1.e-10), bt.Print())
		}
	}
	{ // Backends agree mode for mode
		w := randomField(N, 3)
		a := NewTransformer(g, GonumFFT).ToSpectral(w)
		b := NewTransformer(g, GoDSPFFT).ToSpectral(w)
		aD, bD := a.RawCMatrix().Data, b.RawCMatrix().Data
		for i := range aD {
			assert.True(t, cmplx.Abs(aD[i]-bD[i]) < 1.e-9)
		}
	}
	{ // Field dimensions are checked against the grid
		tr := NewTransformer(g, GonumFFT)
		assert.Panics(t, func() { tr.ToSpectral(utils.NewMatrix(N, N/2)) })
	}
	{ // Backend names
		bt, err := NewBackendType("Go-DSP")
		assert.NoError(t, err)
		assert.Equal(t, GoDSPFFT, bt)
		bt, err = NewBackendType("")
		assert.NoError(t, err)
		assert.Equal(t, GonumFFT, bt)
		_, err = NewBackendType("fftw")
		assert.Error(t, err)
	}
}
