package Spectral2D

import (
	"fmt"
	"strings"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/dsp/fourier"
)

// FFTBackend computes 2D transforms of N x N row-major complex arrays. Forward
// is unnormalized, Inverse is scaled by 1/N² so that Inverse(Forward(x)) = x.
// dst and src must not overlap.
type FFTBackend interface {
	Forward(dst, src []complex128)
	Inverse(dst, src []complex128)
}

type BackendType uint8

const (
	GonumFFT BackendType = iota
	GoDSPFFT
)

var (
	BackendNames = map[string]BackendType{
		"":       GonumFFT,
		"gonum":  GonumFFT,
		"go-dsp": GoDSPFFT,
		"dsp":    GoDSPFFT,
	}
	BackendPrintNames = []string{"gonum dsp/fourier", "go-dsp fft"}
)

func (bt BackendType) Print() (txt string) {
	txt = BackendPrintNames[bt]
	return
}

func NewBackendType(label string) (bt BackendType, err error) {
	var (
		ok bool
	)
	label = strings.ToLower(strings.TrimSpace(label))
	if bt, ok = BackendNames[label]; !ok {
		err = fmt.Errorf("unable to use FFT backend named %q", label)
	}
	return
}

// NewFFTBackend returns a backend for N x N transforms. Backends may hold
// scratch storage and are not safe for concurrent use.
func NewFFTBackend(bt BackendType, N int) FFTBackend {
	switch bt {
	case GoDSPFFT:
		return NewDSPBackend(N)
	case GonumFFT:
		fallthrough
	default:
		return NewGonumBackend(N)
	}
}

// GonumBackend applies 1D complex transforms along rows, then along columns.
type GonumBackend struct {
	N           int
	fft         *fourier.CmplxFFT
	line, lineT []complex128
}

func NewGonumBackend(N int) (b *GonumBackend) {
	b = &GonumBackend{
		N:     N,
		fft:   fourier.NewCmplxFFT(N),
		line:  make([]complex128, N),
		lineT: make([]complex128, N),
	}
	return
}

func (b *GonumBackend) Forward(dst, src []complex128) {
	b.transform(dst, src, b.fft.Coefficients)
}

func (b *GonumBackend) Inverse(dst, src []complex128) {
	b.transform(dst, src, b.fft.Sequence)
	scale := complex(1./float64(b.N*b.N), 0)
	for i := range dst {
		dst[i] *= scale
	}
}

func (b *GonumBackend) transform(dst, src []complex128, f func(dst, seq []complex128) []complex128) {
	var (
		N = b.N
	)
	checkLen(N, dst, src)
	for i := 0; i < N; i++ {
		copy(b.line, src[i*N:(i+1)*N])
		f(dst[i*N:(i+1)*N], b.line)
	}
	for j := 0; j < N; j++ {
		for i := 0; i < N; i++ {
			b.line[i] = dst[i*N+j]
		}
		f(b.lineT, b.line)
		for i := 0; i < N; i++ {
			dst[i*N+j] = b.lineT[i]
		}
	}
}

// DSPBackend wraps the 2D transforms of go-dsp, which allocate per call.
type DSPBackend struct {
	N    int
	rows [][]complex128
}

func NewDSPBackend(N int) (b *DSPBackend) {
	b = &DSPBackend{
		N:    N,
		rows: make([][]complex128, N),
	}
	for i := range b.rows {
		b.rows[i] = make([]complex128, N)
	}
	return
}

func (b *DSPBackend) Forward(dst, src []complex128) {
	b.load(src)
	b.store(dst, fft.FFT2(b.rows))
}

func (b *DSPBackend) Inverse(dst, src []complex128) {
	b.load(src)
	b.store(dst, fft.IFFT2(b.rows))
}

func (b *DSPBackend) load(src []complex128) {
	checkLen(b.N, src, src)
	for i := range b.rows {
		copy(b.rows[i], src[i*b.N:(i+1)*b.N])
	}
}

func (b *DSPBackend) store(dst []complex128, out [][]complex128) {
	checkLen(b.N, dst, dst)
	for i, row := range out {
		copy(dst[i*b.N:(i+1)*b.N], row)
	}
}

func checkLen(N int, dst, src []complex128) {
	if len(dst) != N*N || len(src) != N*N {
		err := fmt.Errorf("transform size mismatch: need %d, have dst %d, src %d", N*N, len(dst), len(src))
		panic(err)
	}
}
