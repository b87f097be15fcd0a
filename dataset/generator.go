package dataset

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat/sampleuv"

	"github.com/notargets/spectralns/InputParameters"
	"github.com/notargets/spectralns/Spectral2D"
	"github.com/notargets/spectralns/model_problems/NavierStokes2D"
	"github.com/notargets/spectralns/utils"
)

// A Sample pairs the random initial vorticity with the field after the rollout.
type Sample struct {
	Initial, Evolved utils.Matrix
}

type Dataset struct {
	N         int
	Samples   []Sample
	TestIndex []int    // Indices into Samples, distinct
	Test      []Sample // Copies of Samples[TestIndex[i]]
}

// testStream is the PCG stream reserved for drawing the test subset, sample
// streams use the sample index.
const testStream = ^uint64(0)

type Generator struct {
	Params  *InputParameters.GenerationParameters
	Grid    *Spectral2D.Grid
	Verbose bool
}

func NewGenerator(ip *InputParameters.GenerationParameters, verbose bool) (g *Generator, err error) {
	if err = ip.Validate(); err != nil {
		return
	}
	g = &Generator{
		Params:  ip,
		Verbose: verbose,
	}
	if g.Grid, err = Spectral2D.NewGrid(ip.Resolution, ip.DomainSize); err != nil {
		return nil, err
	}
	return
}

// InitialCondition draws an i.i.d. standard normal field. The stream depends
// only on the master seed and the sample index, never on which worker runs it.
func InitialCondition(N int, seed uint64, index int) (w utils.Matrix) {
	var (
		rng = rand.New(rand.NewPCG(seed, uint64(index)))
	)
	w = utils.NewMatrix(N, N)
	for i := 0; i < N; i++ {
		for j := 0; j < N; j++ {
			w.Set(i, j, rng.NormFloat64())
		}
	}
	return
}

// SelectTestSubset draws numTest distinct indices from [0, numSamples)
// uniformly, in ascending order.
func SelectTestSubset(numSamples, numTest int, seed uint64) (idx []int, err error) {
	if numTest < 0 || numTest > numSamples {
		err = utils.ConfigErrorf("test subset size %d outside [0, %d]", numTest, numSamples)
		return
	}
	idx = make([]int, numTest)
	if numTest == 0 {
		return
	}
	sampleuv.WithoutReplacement(idx, numSamples, rand.NewPCG(seed, testStream))
	sort.Ints(idx)
	return
}

// Generate runs every rollout and assembles the dataset. Samples are spread
// over worker goroutines, each with its own Solver. Any error aborts the whole
// dataset; no partial result is returned.
func (g *Generator) Generate(ctx context.Context) (ds *Dataset, err error) {
	var (
		ip      = g.Params
		N       = ip.Resolution
		NP      = utils.ParallelDegree(ip.Workers, ip.NumSamples)
		pm      = utils.NewPartitionMap(NP, ip.NumSamples)
		samples = make([]Sample, ip.NumSamples)
		errs    = make([]error, NP)
		wg      = sync.WaitGroup{}
		start   = time.Now()
	)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g.PrintInitialization(NP)
	for np := 0; np < NP; np++ {
		wg.Add(1)
		go func(np int) {
			defer wg.Done()
			if errs[np] = g.runPartition(ctx, pm, np, samples); errs[np] != nil {
				cancel()
			}
		}(np)
	}
	wg.Wait()
	if err = firstError(errs); err != nil {
		return nil, err
	}
	ds = &Dataset{
		N:       N,
		Samples: samples,
	}
	if ds.TestIndex, err = SelectTestSubset(ip.NumSamples, ip.NumTest, ip.Seed); err != nil {
		return nil, err
	}
	ds.Test = make([]Sample, len(ds.TestIndex))
	for i, k := range ds.TestIndex {
		ds.Test[i] = Sample{
			Initial: samples[k].Initial.Copy(),
			Evolved: samples[k].Evolved.Copy(),
		}
	}
	g.PrintFinal(time.Since(start), ds)
	return
}

func (g *Generator) runPartition(ctx context.Context, pm *utils.PartitionMap, np int, samples []Sample) (err error) {
	var (
		ip         = g.Params
		c          = NavierStokes2D.NewSolver(g.Grid, ip.Backend())
		guard      = NavierStokes2D.DivergenceGuard{Limit: ip.DivergenceLimit}
		kMin, kMax = pm.GetBucketRange(np)
	)
	for k := kMin; k < kMax; k++ {
		w0 := InitialCondition(ip.Resolution, ip.Seed, k)
		w := w0.Copy()
		for n := 0; n < ip.StepsPerSample; n++ {
			if err = ctx.Err(); err != nil {
				return
			}
			c.StepInto(w, w, ip.TimeStep, ip.Viscosity)
			if ip.DivergenceCheck {
				if err = guard.Check(w, k, n+1); err != nil {
					return
				}
			}
		}
		samples[k] = Sample{Initial: w0, Evolved: w}
		if g.Verbose && np == 0 {
			g.PrintUpdate(k-kMin+1, pm.GetBucketDimension(np), w0, w)
		}
	}
	return
}

// firstError prefers a real failure over the cancellation it caused in the
// other workers.
func firstError(errs []error) (err error) {
	for _, e := range errs {
		if e != nil && e != context.Canceled {
			return e
		}
	}
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return
}

func (g *Generator) PrintInitialization(NP int) {
	if !g.Verbose {
		return
	}
	fmt.Printf("Navier-Stokes 2D, pseudo-spectral, periodic\n")
	g.Params.Print()
	g.Grid.Print()
	fmt.Printf("Using %d go routines in parallel\n\n", NP)
}

func (g *Generator) PrintUpdate(done, total int, w0, w utils.Matrix) {
	fmt.Printf("worker 0: %5d/%-5d energy %12.5e -> %12.5e, max|w| %10.4f\n",
		done, total, w0.Energy(), w.Energy(), NavierStokes2D.MaxAbs(w))
}

func (g *Generator) PrintFinal(elapsed time.Duration, ds *Dataset) {
	if !g.Verbose {
		return
	}
	var (
		nSteps = g.Params.NumSamples * g.Params.StepsPerSample
	)
	fmt.Printf("\nGenerated %d samples (%d test) in %s, %8.2f steps/s\n",
		len(ds.Samples), len(ds.Test), elapsed.Round(time.Millisecond),
		float64(nSteps)/elapsed.Seconds())
}
