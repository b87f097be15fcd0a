package InputParameters

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/spectralns/Spectral2D"
	"github.com/notargets/spectralns/utils"
)

func TestGenerationParameters(t *testing.T) {
	{ // YAML overlays the defaults
		fileInput := []byte(`
Title: Test Case
Viscosity: 0.01
TimeStep: 0.0005
Resolution: 32
NumSamples: 10
StepsPerSample: 3
NumTest: 2
Seed: 42
FFTBackend: go-dsp
DivergenceCheck: true
DivergenceLimit: 1.e+6
`)
		ip := NewGenerationParameters()
		require.NoError(t, ip.Parse(fileInput))
		assert.Equal(t, "Test Case", ip.Title)
		assert.Equal(t, 0.01, ip.Viscosity)
		assert.Equal(t, 0.0005, ip.TimeStep)
		assert.Equal(t, 32, ip.Resolution)
		assert.Equal(t, 10, ip.NumSamples)
		assert.Equal(t, 3, ip.StepsPerSample)
		assert.Equal(t, 2, ip.NumTest)
		assert.Equal(t, uint64(42), ip.Seed)
		assert.Equal(t, NewGenerationParameters().DomainSize, ip.DomainSize)
		assert.True(t, ip.DivergenceCheck)
		assert.Equal(t, 1.e6, ip.DivergenceLimit)
		assert.Equal(t, Spectral2D.GoDSPFFT, ip.Backend())
		require.NoError(t, ip.Validate())
		ip.Print()
	}
	{ // Every rejected combination is a configuration error
		mods := []func(ip *GenerationParameters){
			func(ip *GenerationParameters) { ip.Viscosity = 0 },
			func(ip *GenerationParameters) { ip.Viscosity = -1 },
			func(ip *GenerationParameters) { ip.TimeStep = 0 },
			func(ip *GenerationParameters) { ip.Resolution = 0 },
			func(ip *GenerationParameters) { ip.Resolution = 33 },
			func(ip *GenerationParameters) { ip.DomainSize = 0 },
			func(ip *GenerationParameters) { ip.NumSamples = 0 },
			func(ip *GenerationParameters) { ip.StepsPerSample = 0 },
			func(ip *GenerationParameters) { ip.NumTest = -1 },
			func(ip *GenerationParameters) { ip.NumTest = ip.NumSamples + 1 },
			func(ip *GenerationParameters) { ip.Workers = -2 },
			func(ip *GenerationParameters) { ip.DivergenceLimit = -1 },
			func(ip *GenerationParameters) { ip.FFTBackend = "fftw" },
		}
		for i, mod := range mods {
			ip := NewGenerationParameters()
			mod(ip)
			err := ip.Validate()
			assert.True(t, errors.Is(err, utils.ErrConfiguration), "case %d: %v", i, err)
		}
		ip := NewGenerationParameters()
		ip.NumTest = ip.NumSamples
		assert.NoError(t, ip.Validate())
	}
	{
		assert.Error(t, NewGenerationParameters().Parse([]byte("Resolution: [1, 2")))
	}
}
