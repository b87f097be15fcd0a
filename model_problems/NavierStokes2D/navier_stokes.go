package NavierStokes2D

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/notargets/spectralns/Spectral2D"
	"github.com/notargets/spectralns/utils"
)

/*
	2D incompressible Navier-Stokes in vorticity-streamfunction form on a
	periodic square:

				∂w/∂t + u ∂w/∂x + v ∂w/∂y = ν ∇²w

	The streamfunction satisfies ∇²ψ = w, so in Fourier space

				ψ_hat = -w_hat / |k|²                 (zero mode dropped)
				u     = physical(i k2 ψ_hat)
				v     = -physical(i k1 ψ_hat)

	The advection term is a product of fields and is evaluated in physical
	space (pseudo-spectral), then transformed back. No dealiasing is applied.

	Time advance uses an integrating factor on the viscous term, which is
	solved exactly, and a forward Euler sub-step on advection:

				w_hat(t+dt) = (w_hat - dt N_hat) exp(-ν |k|² dt)

	The step itself never checks for blow up; an unstable dt shows up as growing
	or NaN output.
*/
type Solver struct {
	Grid      *Spectral2D.Grid
	Nonlinear bool // When false the advection term is skipped, leaving pure diffusion
	tr        *Spectral2D.Transformer
	// Scratch storage, reused every step
	wHat, psiHat, tmpHat, nlHat *mat.CDense
	u, v, dwdx, dwdy, nl        utils.Matrix
	// Cached integrating factor for the last (dt, nu)
	decay          []float64
	decayDT, decNu float64
}

// NewSolver binds a solver to a shared Grid. Each Solver owns its transform
// and field buffers, use one per goroutine.
func NewSolver(g *Spectral2D.Grid, bt Spectral2D.BackendType) (c *Solver) {
	tr := Spectral2D.NewTransformer(g, bt)
	c = &Solver{
		Grid:      g,
		Nonlinear: true,
		tr:        tr,
		wHat:      tr.NewSpectralField(),
		psiHat:    tr.NewSpectralField(),
		tmpHat:    tr.NewSpectralField(),
		nlHat:     tr.NewSpectralField(),
		u:         tr.NewField(),
		v:         tr.NewField(),
		dwdx:      tr.NewField(),
		dwdy:      tr.NewField(),
		nl:        tr.NewField(),
		decayDT:   math.NaN(),
		decNu:     math.NaN(),
	}
	return
}

func (c *Solver) Transformer() *Spectral2D.Transformer { return c.tr }

// Velocity recovers (u, v) from spectral vorticity.
func (c *Solver) Velocity(wHat *mat.CDense) (u, v utils.Matrix) {
	u, v = c.tr.NewField(), c.tr.NewField()
	c.velocityInto(u, v, wHat)
	return
}

func (c *Solver) velocityInto(u, v utils.Matrix, wHat *mat.CDense) {
	Spectral2D.MulInto(c.psiHat, wHat, c.Grid.InvLaplace)
	c.tr.DerivativeInto(c.tmpHat, c.psiHat, Spectral2D.YAxis)
	c.tr.ToPhysicalInto(u, c.tmpHat)
	c.tr.DerivativeInto(c.tmpHat, c.psiHat, Spectral2D.XAxis)
	c.tr.ToPhysicalInto(v, c.tmpHat)
	v.Scale(-1)
}

// Advection returns u ∂w/∂x + v ∂w/∂y for a physical vorticity field. The
// returned field is a new allocation.
func (c *Solver) Advection(w utils.Matrix) (nl utils.Matrix) {
	c.tr.ToSpectralInto(c.wHat, w)
	c.advectionInto(c.nl, c.wHat)
	nl = c.nl.Copy()
	return
}

func (c *Solver) advectionInto(nl utils.Matrix, wHat *mat.CDense) {
	c.velocityInto(c.u, c.v, wHat)
	c.tr.DerivativeInto(c.tmpHat, wHat, Spectral2D.XAxis)
	c.tr.ToPhysicalInto(c.dwdx, c.tmpHat)
	c.tr.DerivativeInto(c.tmpHat, wHat, Spectral2D.YAxis)
	c.tr.ToPhysicalInto(c.dwdy, c.tmpHat)
	var (
		nD       = nl.Data()
		uD, vD   = c.u.Data(), c.v.Data()
		dxD, dyD = c.dwdx.Data(), c.dwdy.Data()
	)
	for i := range nD {
		nD[i] = uD[i]*dxD[i] + vD[i]*dyD[i]
	}
}

// Step advances w by one time step and returns the new field; w is unchanged.
func (c *Solver) Step(w utils.Matrix, dt, nu float64) (wNew utils.Matrix) {
	wNew = c.tr.NewField()
	c.StepInto(wNew, w, dt, nu)
	return
}

// StepInto is Step writing into wNew, which may be the same field as w.
func (c *Solver) StepInto(wNew, w utils.Matrix, dt, nu float64) {
	var (
		wD  = c.wHat.RawCMatrix().Data
		nlD = c.nlHat.RawCMatrix().Data
		eD  = c.decayFactor(dt, nu)
	)
	c.tr.ToSpectralInto(c.wHat, w)
	if c.Nonlinear {
		c.advectionInto(c.nl, c.wHat)
		c.tr.ToSpectralInto(c.nlHat, c.nl)
		for i := range wD {
			wD[i] = (wD[i] - complex(dt, 0)*nlD[i]) * complex(eD[i], 0)
		}
	} else {
		for i := range wD {
			wD[i] *= complex(eD[i], 0)
		}
	}
	c.tr.ToPhysicalInto(wNew, c.wHat)
}

// Rollout applies Step nSteps times in place on w.
func (c *Solver) Rollout(w utils.Matrix, nSteps int, dt, nu float64) {
	for n := 0; n < nSteps; n++ {
		c.StepInto(w, w, dt, nu)
	}
}

func (c *Solver) decayFactor(dt, nu float64) []float64 {
	if c.decay != nil && dt == c.decayDT && nu == c.decNu {
		return c.decay
	}
	kk := c.Grid.KMagSquared.Data()
	if c.decay == nil {
		c.decay = make([]float64, len(kk))
	}
	for i, k2 := range kk {
		c.decay[i] = math.Exp(-nu * k2 * dt)
	}
	c.decayDT, c.decNu = dt, nu
	return c.decay
}
