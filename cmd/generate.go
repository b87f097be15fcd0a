/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/spectralns/InputParameters"
	"github.com/notargets/spectralns/catalog"
	"github.com/notargets/spectralns/dataset"
)

type ModelGenerate struct {
	InputFile   string
	OutputDir   string
	Verbose     bool
	Preview     bool
	Catalog     string
	CatalogPath string
	Profile     string
	ProfileDir  string
	Timeout     time.Duration
}

// GenerateCmd represents the generate command
var GenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a dataset of paired initial and evolved vorticity fields",
	Long: `
Draws random initial vorticity fields, advances each one with the
pseudo-spectral solver and writes

	<outputDir>/data/navier_stokes.npy       (num_samples, 2, N, N) float32
	<outputDir>/data/navier_stokes_test.npy  (num_test, 2, N, N) float32

Every input file key can be overridden from the config file or the
environment (SPECTRALNS_<KEY>, e.g. SPECTRALNS_DOMAINSIZE): title, viscosity,
timeStep, resolution, domainSize, numSamples, stepsPerSample, numTest, seed,
workers, fftBackend, divergenceCheck, divergenceLimit. The --workers, --seed
and --fftBackend flags win over both.

spectralns generate -I input.yaml -o out --preview`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		mg := &ModelGenerate{}
		mg.InputFile, _ = cmd.Flags().GetString("inputConditionsFile")
		mg.OutputDir, _ = cmd.Flags().GetString("outputDir")
		mg.Verbose, _ = cmd.Flags().GetBool("verbose")
		mg.Preview, _ = cmd.Flags().GetBool("preview")
		mg.Catalog, _ = cmd.Flags().GetString("catalog")
		mg.CatalogPath, _ = cmd.Flags().GetString("catalogPath")
		mg.Profile, _ = cmd.Flags().GetString("profile")
		mg.ProfileDir, _ = cmd.Flags().GetString("profileDir")
		mg.Timeout, _ = cmd.Flags().GetDuration("timeout")
		return generate(context.Background(), mg)
	},
}

// generate returns every failure instead of exiting, so a running profile is
// always stopped and flushed.
func generate(ctx context.Context, mg *ModelGenerate) (err error) {
	var (
		ip   *InputParameters.GenerationParameters
		stop func()
	)
	if stop, err = startProfile(mg.Profile, mg.ProfileDir); err != nil {
		return
	}
	defer stop()
	if ip, err = processGenerateInput(mg); err != nil {
		return
	}
	_, err = RunGenerate(ctx, mg, ip)
	return
}

func startProfile(mode, dir string) (stop func(), err error) {
	var p interface{ Stop() }
	switch mode {
	case "":
		return func() {}, nil
	case "cpu":
		p = profile.Start(profile.CPUProfile, profile.ProfilePath(dir), profile.NoShutdownHook)
	case "mem":
		p = profile.Start(profile.MemProfile, profile.ProfilePath(dir), profile.NoShutdownHook)
	default:
		err = fmt.Errorf("unknown profile mode %q, want cpu or mem", mode)
		return
	}
	return p.Stop, nil
}

func init() {
	rootCmd.AddCommand(GenerateCmd)
	GenerateCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file for generation parameters like:\n\t- Viscosity\n\t- TimeStep\n\t- Resolution")
	GenerateCmd.Flags().StringP("outputDir", "o", ".", "directory under which data/ is written")
	GenerateCmd.Flags().BoolP("verbose", "v", false, "print progress while generating")
	GenerateCmd.Flags().BoolP("preview", "p", false, "write a PNG of the first sample pair next to the data")
	GenerateCmd.Flags().String("catalog", "", "record the run in a catalog: memory or sqlite")
	GenerateCmd.Flags().String("catalogPath", "spectralns.db", "sqlite catalog file")
	GenerateCmd.Flags().String("profile", "", "write a cpu or mem profile, also on failed runs")
	GenerateCmd.Flags().String("profileDir", ".", "directory the profile is written to")
	GenerateCmd.Flags().Duration("timeout", 0, "abort generation after this long, zero waits forever")
	GenerateCmd.Flags().IntP("workers", "w", 0, "worker goroutines, zero uses one per CPU")
	GenerateCmd.Flags().Uint64P("seed", "s", 0, "master random seed")
	GenerateCmd.Flags().String("fftBackend", "", "FFT backend: gonum or go-dsp")
	for _, key := range []string{"workers", "seed", "fftBackend"} {
		if err := viper.BindPFlag(key, GenerateCmd.Flags().Lookup(key)); err != nil {
			panic(err)
		}
	}
}

var exampleGenerateFile = `
########################################
Title: "Decaying turbulence"
Viscosity: 0.001
TimeStep: 0.001
Resolution: 64
DomainSize: 6.283185307179586
NumSamples: 1000
StepsPerSample: 100
NumTest: 100
Seed: 1
FFTBackend: gonum # Can be go-dsp
DivergenceCheck: true
DivergenceLimit: 1.e6
########################################
`

// processGenerateInput layers the input file over the defaults, then config
// file, environment and flag values over that.
func processGenerateInput(mg *ModelGenerate) (ip *InputParameters.GenerationParameters, err error) {
	ip = InputParameters.NewGenerationParameters()
	if len(mg.InputFile) != 0 {
		var data []byte
		if data, err = os.ReadFile(mg.InputFile); err != nil {
			return
		}
		if err = ip.Parse(data); err != nil {
			fmt.Printf("Example File:%s\n", exampleGenerateFile)
			err = fmt.Errorf("parsing %s: %w", mg.InputFile, err)
			return
		}
	}
	applyOverrides(ip)
	return
}

func applyOverrides(ip *InputParameters.GenerationParameters) {
	if viper.IsSet("title") {
		ip.Title = viper.GetString("title")
	}
	if viper.IsSet("viscosity") {
		ip.Viscosity = viper.GetFloat64("viscosity")
	}
	if viper.IsSet("timeStep") {
		ip.TimeStep = viper.GetFloat64("timeStep")
	}
	if viper.IsSet("resolution") {
		ip.Resolution = viper.GetInt("resolution")
	}
	if viper.IsSet("domainSize") {
		ip.DomainSize = viper.GetFloat64("domainSize")
	}
	if viper.IsSet("numSamples") {
		ip.NumSamples = viper.GetInt("numSamples")
	}
	if viper.IsSet("stepsPerSample") {
		ip.StepsPerSample = viper.GetInt("stepsPerSample")
	}
	if viper.IsSet("numTest") {
		ip.NumTest = viper.GetInt("numTest")
	}
	if viper.IsSet("workers") {
		ip.Workers = viper.GetInt("workers")
	}
	if viper.IsSet("seed") {
		ip.Seed = viper.GetUint64("seed")
	}
	if viper.IsSet("fftBackend") {
		ip.FFTBackend = viper.GetString("fftBackend")
	}
	if viper.IsSet("divergenceCheck") {
		ip.DivergenceCheck = viper.GetBool("divergenceCheck")
	}
	if viper.IsSet("divergenceLimit") {
		ip.DivergenceLimit = viper.GetFloat64("divergenceLimit")
	}
}

// RunGenerate builds, saves and optionally previews and catalogs one dataset.
func RunGenerate(ctx context.Context, mg *ModelGenerate, ip *InputParameters.GenerationParameters) (run catalog.Run, err error) {
	var (
		g     *dataset.Generator
		ds    *dataset.Dataset
		paths []string
		size  int64
	)
	if g, err = dataset.NewGenerator(ip, mg.Verbose); err != nil {
		return
	}
	if mg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, mg.Timeout)
		defer cancel()
	}
	if ds, err = g.Generate(ctx); err != nil {
		return
	}
	if paths, size, err = ds.Save(mg.OutputDir); err != nil {
		return
	}
	for _, path := range paths {
		fmt.Printf("Wrote %s\n", path)
	}
	fmt.Printf("%s written in total\n", humanize.Bytes(uint64(size)))
	if mg.Preview {
		fileName := filepath.Join(mg.OutputDir, dataset.DataDir, dataset.PreviewFile)
		if err = dataset.SavePreview(fileName, ds.Samples[0], ip.DomainSize); err != nil {
			return
		}
		fmt.Printf("Wrote %s\n", fileName)
	}
	run = catalog.NewRun(ip, paths, size)
	if len(mg.Catalog) != 0 {
		if err = recordRun(ctx, mg, run); err != nil {
			return
		}
		fmt.Printf("Cataloged run %s\n", run.ID)
	}
	return
}

func recordRun(ctx context.Context, mg *ModelGenerate, run catalog.Run) (err error) {
	var (
		store catalog.Store
	)
	if store, err = catalog.NewStore(mg.Catalog, mg.CatalogPath); err != nil {
		return
	}
	defer func() {
		if cerr := catalog.CloseIfSupported(store); err == nil {
			err = cerr
		}
	}()
	if err = store.Init(ctx); err != nil {
		return
	}
	return store.SaveRun(ctx, run)
}
