package Spectral2D

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/notargets/spectralns/utils"
)

/*
	Wavenumber mesh for an N x N periodic square of side L

	Fields are stored row-major, row index i runs along y and column index j
	runs along x. The 1D angular wavenumbers follow the standard FFT ordering:

				k = 2π/d * [0, 1, ..., N/2-1, -N/2, ..., -1] / N,  d = L/N

	and the mesh is laid out like meshgrid(k, k):

				K1[i][j] = k[j]    (x wavenumber)
				K2[i][j] = k[i]    (y wavenumber)

	KSquared has its zero mode replaced by 1 so the reciprocal is defined; the
	zero mode of InvLaplace is then forced to zero, which drops the undefined
	mean of the streamfunction. KMagSquared is the unprotected K1²+K2², the
	symbol of -∇², and is what the viscous decay factor uses.
*/
type Grid struct {
	N           int     // Points per side
	L, D        float64 // Domain extent and spacing
	K           []float64
	K1, K2      utils.Matrix
	KSquared    utils.Matrix
	KMagSquared utils.Matrix
	InvLaplace  utils.Matrix
}

func NewGrid(N int, L float64) (g *Grid, err error) {
	if N <= 0 {
		err = utils.ConfigErrorf("grid resolution must be positive, have N = %d", N)
		return
	}
	if N%2 != 0 {
		err = utils.ConfigErrorf("grid resolution must be even, have N = %d", N)
		return
	}
	if !(L > 0) || math.IsInf(L, 0) {
		err = utils.ConfigErrorf("domain size must be positive and finite, have L = %v", L)
		return
	}
	g = &Grid{
		N: N,
		L: L,
		D: L / float64(N),
	}
	g.K = FFTFreq(N, g.D)
	for i := range g.K {
		g.K[i] *= 2 * math.Pi
	}
	var (
		NN = N * N
		k1 = make([]float64, NN)
		k2 = make([]float64, NN)
		kk = make([]float64, NN)
		ks = make([]float64, NN)
		il = make([]float64, NN)
	)
	for i := 0; i < N; i++ {
		for j := 0; j < N; j++ {
			ind := i*N + j
			k1[ind] = g.K[j]
			k2[ind] = g.K[i]
			kk[ind] = k1[ind]*k1[ind] + k2[ind]*k2[ind]
			ks[ind] = kk[ind]
		}
	}
	ks[0] = 1 // Zero mode protection, only ever used inside the reciprocal below
	for ind, val := range ks {
		il[ind] = -1. / val
	}
	il[0] = 0
	g.K1 = utils.NewMatrix(N, N, k1)
	g.K2 = utils.NewMatrix(N, N, k2)
	g.KMagSquared = utils.NewMatrix(N, N, kk)
	g.KSquared = utils.NewMatrix(N, N, ks)
	g.InvLaplace = utils.NewMatrix(N, N, il)
	g.K1.SetReadOnly("K1")
	g.K2.SetReadOnly("K2")
	g.KMagSquared.SetReadOnly("KMagSquared")
	g.KSquared.SetReadOnly("KSquared")
	g.InvLaplace.SetReadOnly("InvLaplace")
	return
}

// FFTFreq returns the sample frequencies of an n point transform with sample
// spacing d, in cycles per unit of d, ordered as the transform output.
func FFTFreq(n int, d float64) (f []float64) {
	var (
		t = fourier.NewCmplxFFT(n)
	)
	f = make([]float64, n)
	for i := range f {
		f[i] = t.Freq(i) / d
	}
	return
}

// Wavenumber returns the angular wavenumber array for a derivative axis.
func (g *Grid) Wavenumber(axis Axis) utils.Matrix {
	switch axis {
	case XAxis:
		return g.K1
	case YAxis:
		return g.K2
	default:
		panic(fmt.Errorf("unknown axis %d", axis))
	}
}

func (g *Grid) Print() {
	fmt.Printf("[%d x %d]\t\t= Grid\n", g.N, g.N)
	fmt.Printf("%8.5f\t\t= Domain Size L\n", g.L)
	fmt.Printf("%8.5f\t\t= Spacing d\n", g.D)
	fmt.Printf("%8.5f\t\t= Max Wavenumber\n", math.Abs(g.K[g.N/2]))
}
