package NavierStokes2D

import (
	"errors"
	"fmt"
	"math"

	"github.com/exascience/pargo/parallel"

	"github.com/notargets/spectralns/utils"
)

// ErrUnstable is reported when an opt-in divergence check trips during a rollout.
var ErrUnstable = errors.New("rollout diverged")

type InstabilityError struct {
	Sample, Step int
	MaxAbs       float64
	Wrapped      error
}

func (e *InstabilityError) Error() string {
	return fmt.Sprintf("sample %d, step %d: max |w| = %g: %v", e.Sample, e.Step, e.MaxAbs, e.Wrapped)
}

func (e *InstabilityError) Unwrap() error { return e.Wrapped }

const parallelReduceMin = 1 << 14

// MaxAbs is the largest magnitude in w, NaN if any value is NaN.
func MaxAbs(w utils.Matrix) float64 {
	var (
		data = w.Data()
	)
	maxRange := func(low, high int) (m float64) {
		for _, val := range data[low:high] {
			m = math.Max(m, math.Abs(val))
		}
		return
	}
	if len(data) < parallelReduceMin {
		return maxRange(0, len(data))
	}
	return parallel.RangeReduceFloat64(0, len(data), 0, maxRange, math.Max)
}

// DivergenceGuard is applied between steps by callers that want blow up
// reported. It is never applied inside Solver.Step.
type DivergenceGuard struct {
	Limit float64 // Largest allowed |w|, zero means only non-finite values trip
}

func (dg DivergenceGuard) Check(w utils.Matrix, sample, step int) (err error) {
	m := MaxAbs(w)
	switch {
	case !w.IsFinite():
		err = &InstabilityError{Sample: sample, Step: step, MaxAbs: m, Wrapped: ErrUnstable}
	case dg.Limit > 0 && m > dg.Limit:
		err = &InstabilityError{Sample: sample, Step: step, MaxAbs: m,
			Wrapped: fmt.Errorf("%w: exceeds limit %g", ErrUnstable, dg.Limit)}
	}
	return
}

// Rollout applies Step nSteps times in place on w, checking the field after
// every step.
func (dg DivergenceGuard) Rollout(c *Solver, w utils.Matrix, nSteps int, dt, nu float64, sample int) (err error) {
	for n := 0; n < nSteps; n++ {
		c.StepInto(w, w, dt, nu)
		if err = dg.Check(w, sample, n+1); err != nil {
			return
		}
	}
	return
}
