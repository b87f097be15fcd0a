package Spectral2D

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/notargets/spectralns/utils"
)

type Axis uint8

const (
	XAxis Axis = iota // Along columns, wavenumber K1
	YAxis             // Along rows, wavenumber K2
)

// Transformer moves real fields between physical and spectral space on one
// Grid. The Grid is shared and read only; the Transformer owns scratch storage
// and must not be shared between goroutines.
type Transformer struct {
	Grid    *Grid
	Backend FFTBackend
	work    []complex128
}

func NewTransformer(g *Grid, bt BackendType) (tr *Transformer) {
	tr = &Transformer{
		Grid:    g,
		Backend: NewFFTBackend(bt, g.N),
		work:    make([]complex128, g.N*g.N),
	}
	return
}

func (tr *Transformer) NewSpectralField() *mat.CDense {
	N := tr.Grid.N
	return mat.NewCDense(N, N, make([]complex128, N*N))
}

func (tr *Transformer) NewField() utils.Matrix {
	N := tr.Grid.N
	return utils.NewMatrix(N, N)
}

// ToSpectral is the unnormalized forward 2D DFT of a real field.
func (tr *Transformer) ToSpectral(field utils.Matrix) (spec *mat.CDense) {
	spec = tr.NewSpectralField()
	tr.ToSpectralInto(spec, field)
	return
}

func (tr *Transformer) ToSpectralInto(spec *mat.CDense, field utils.Matrix) {
	var (
		fD = field.Data()
		sD = spec.RawCMatrix().Data
	)
	tr.checkField(field)
	for i, val := range fD {
		tr.work[i] = complex(val, 0)
	}
	tr.Backend.Forward(sD, tr.work)
}

// ToPhysical is the inverse 2D DFT. Only the real part is kept, the imaginary
// residual is dropped without inspection.
func (tr *Transformer) ToPhysical(spec *mat.CDense) (field utils.Matrix) {
	field = tr.NewField()
	tr.ToPhysicalInto(field, spec)
	return
}

func (tr *Transformer) ToPhysicalInto(field utils.Matrix, spec *mat.CDense) {
	var (
		fD = field.Data()
	)
	tr.checkField(field)
	tr.Backend.Inverse(tr.work, spec.RawCMatrix().Data)
	for i, val := range tr.work {
		fD[i] = real(val)
	}
}

// Derivative multiplies by i·k along axis, a spatial partial derivative.
func (tr *Transformer) Derivative(spec *mat.CDense, axis Axis) (dspec *mat.CDense) {
	dspec = tr.NewSpectralField()
	tr.DerivativeInto(dspec, spec, axis)
	return
}

func (tr *Transformer) DerivativeInto(dspec, spec *mat.CDense, axis Axis) {
	var (
		kD = tr.Grid.Wavenumber(axis).Data()
		sD = spec.RawCMatrix().Data
		dD = dspec.RawCMatrix().Data
	)
	for i, val := range sD {
		dD[i] = complex(0, kD[i]) * val
	}
}

// MulInto sets dspec = spec * a pointwise for a real array a.
func MulInto(dspec, spec *mat.CDense, a utils.Matrix) {
	var (
		aD = a.Data()
		sD = spec.RawCMatrix().Data
		dD = dspec.RawCMatrix().Data
	)
	for i, val := range sD {
		dD[i] = val * complex(aD[i], 0)
	}
}

func (tr *Transformer) checkField(field utils.Matrix) {
	nr, nc := field.Dims()
	if nr != tr.Grid.N || nc != tr.Grid.N {
		err := fmt.Errorf("field dimension [%d,%d] does not match grid N = %d", nr, nc, tr.Grid.N)
		panic(err)
	}
}
