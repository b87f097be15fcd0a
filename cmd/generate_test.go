package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/spectralns/InputParameters"
	"github.com/notargets/spectralns/dataset"
)

func TestProcessGenerateInput(t *testing.T) {
	t.Cleanup(viper.Reset)
	fileInput := []byte(`
Title: Test Case
Viscosity: 0.01
TimeStep: 0.002
Resolution: 16
NumSamples: 12
StepsPerSample: 5
NumTest: 3
Seed: 7
FFTBackend: go-dsp
`)
	dir := t.TempDir()
	inputFile := filepath.Join(dir, "input.yaml")
	require.NoError(t, os.WriteFile(inputFile, fileInput, 0o644))
	{ // Input file over the defaults
		ip, err := processGenerateInput(&ModelGenerate{InputFile: inputFile})
		require.NoError(t, err)
		assert.Equal(t, "Test Case", ip.Title)
		assert.Equal(t, 0.01, ip.Viscosity)
		assert.Equal(t, 16, ip.Resolution)
		assert.Equal(t, uint64(7), ip.Seed)
		assert.Equal(t, "go-dsp", ip.FFTBackend)
		assert.NoError(t, ip.Validate())
	}
	{ // Overrides win over the input file
		viper.Set("workers", 3)
		viper.Set("seed", 11)
		viper.Set("numTest", 0)
		ip, err := processGenerateInput(&ModelGenerate{InputFile: inputFile})
		require.NoError(t, err)
		assert.Equal(t, 3, ip.Workers)
		assert.Equal(t, uint64(11), ip.Seed)
		assert.Equal(t, 0, ip.NumTest)
		assert.Equal(t, 12, ip.NumSamples)
	}
	{ // Every parameter is reachable from the environment
		viper.Reset()
		viper.SetEnvPrefix("SPECTRALNS")
		viper.AutomaticEnv()
		for key, val := range map[string]string{
			"SPECTRALNS_TITLE":           "from env",
			"SPECTRALNS_VISCOSITY":       "0.5",
			"SPECTRALNS_TIMESTEP":        "0.25",
			"SPECTRALNS_RESOLUTION":      "32",
			"SPECTRALNS_DOMAINSIZE":      "3.5",
			"SPECTRALNS_NUMSAMPLES":      "40",
			"SPECTRALNS_STEPSPERSAMPLE":  "9",
			"SPECTRALNS_NUMTEST":         "4",
			"SPECTRALNS_SEED":            "13",
			"SPECTRALNS_WORKERS":         "2",
			"SPECTRALNS_FFTBACKEND":      "gonum",
			"SPECTRALNS_DIVERGENCECHECK": "true",
			"SPECTRALNS_DIVERGENCELIMIT": "100",
		} {
			t.Setenv(key, val)
		}
		ip, err := processGenerateInput(&ModelGenerate{InputFile: inputFile})
		require.NoError(t, err)
		assert.Equal(t, InputParameters.GenerationParameters{
			Title:           "from env",
			Viscosity:       0.5,
			TimeStep:        0.25,
			Resolution:      32,
			DomainSize:      3.5,
			NumSamples:      40,
			StepsPerSample:  9,
			NumTest:         4,
			Seed:            13,
			Workers:         2,
			FFTBackend:      "gonum",
			DivergenceCheck: true,
			DivergenceLimit: 100,
		}, *ip)
		viper.Reset()
	}
	{ // Unreadable and malformed input
		_, err := processGenerateInput(&ModelGenerate{InputFile: filepath.Join(dir, "missing.yaml")})
		assert.Error(t, err)
		bad := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(bad, []byte("Resolution: [1, 2"), 0o644))
		_, err = processGenerateInput(&ModelGenerate{InputFile: bad})
		assert.Error(t, err)
	}
}

func TestRunGenerate(t *testing.T) {
	t.Cleanup(viper.Reset)
	var (
		dir = t.TempDir()
		ctx = context.Background()
	)
	ip, err := processGenerateInput(&ModelGenerate{})
	require.NoError(t, err)
	ip.Resolution = 8
	ip.NumSamples = 6
	ip.StepsPerSample = 2
	ip.NumTest = 2
	mg := &ModelGenerate{
		OutputDir:   dir,
		Preview:     true,
		Catalog:     "sqlite",
		CatalogPath: filepath.Join(dir, "catalog.db"),
		Timeout:     time.Minute,
	}
	run, err := RunGenerate(ctx, mg, ip)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Len(t, run.Paths, 2)
	for _, name := range []string{dataset.FullFile, dataset.TestFile, dataset.PreviewFile} {
		_, err = os.Stat(filepath.Join(dir, dataset.DataDir, name))
		assert.NoError(t, err)
	}
	{ // Catalog listing shows the run
		var buf bytes.Buffer
		require.NoError(t, ListCatalog(ctx, &buf, mg.CatalogPath))
		assert.Contains(t, buf.String(), run.ID)
		assert.Error(t, ListCatalog(ctx, &buf, filepath.Join(dir, "none.db")))
	}
	{ // Inspection of the written file
		fileName := filepath.Join(dir, dataset.DataDir, dataset.FullFile)
		a, err := dataset.ReadArrayFile(fileName)
		require.NoError(t, err)
		sums, err := Summarize(a)
		require.NoError(t, err)
		require.Len(t, sums, 6)
		for _, s := range sums {
			assert.True(t, s.InitialEnergy > 0)
			assert.InDelta(t, 1., s.EvolvedEnergy/s.InitialEnergy, 0.1)
			assert.True(t, s.InitialMax > 0)
			assert.InDelta(t, s.InitialMean, s.EvolvedMean, 5.e-3)
		}
		assert.NoError(t, Inspect(fileName, 2, true))
		assert.Error(t, Inspect(filepath.Join(dir, "missing.npy"), 2, false))
	}
	{ // Configuration errors surface before anything is written
		ip.NumTest = 100
		_, err = RunGenerate(ctx, &ModelGenerate{OutputDir: filepath.Join(dir, "bad")}, ip)
		assert.Error(t, err)
		_, err = os.Stat(filepath.Join(dir, "bad"))
		assert.True(t, os.IsNotExist(err))
	}
}

func TestGenerateProfile(t *testing.T) {
	t.Cleanup(viper.Reset)
	{ // Unknown modes are refused before anything starts
		_, err := startProfile("trace", t.TempDir())
		assert.Error(t, err)
	}
	{ // A failed run still flushes its profile
		dir := t.TempDir()
		viper.Set("numTest", 1000)
		viper.Set("numSamples", 10)
		err := generate(context.Background(), &ModelGenerate{
			OutputDir:  filepath.Join(dir, "out"),
			Profile:    "cpu",
			ProfileDir: dir,
		})
		assert.Error(t, err)
		fi, err := os.Stat(filepath.Join(dir, "cpu.pprof"))
		require.NoError(t, err)
		assert.True(t, fi.Size() > 0)
	}
}
