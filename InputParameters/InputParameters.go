package InputParameters

import (
	"fmt"
	"math"

	"github.com/ghodss/yaml"

	"github.com/notargets/spectralns/Spectral2D"
	"github.com/notargets/spectralns/utils"
)

// Parameters obtained from the YAML input file
type GenerationParameters struct {
	Title           string  `yaml:"Title"`
	Viscosity       float64 `yaml:"Viscosity"`
	TimeStep        float64 `yaml:"TimeStep"`
	Resolution      int     `yaml:"Resolution"`
	DomainSize      float64 `yaml:"DomainSize"`
	NumSamples      int     `yaml:"NumSamples"`
	StepsPerSample  int     `yaml:"StepsPerSample"`
	NumTest         int     `yaml:"NumTest"`
	Seed            uint64  `yaml:"Seed"`
	Workers         int     `yaml:"Workers"` // Zero means one per CPU
	FFTBackend      string  `yaml:"FFTBackend"`
	DivergenceCheck bool    `yaml:"DivergenceCheck"`
	DivergenceLimit float64 `yaml:"DivergenceLimit"` // Zero trips only on non-finite values
}

func NewGenerationParameters() (ip *GenerationParameters) {
	ip = &GenerationParameters{
		Title:          "Navier-Stokes 2D",
		Viscosity:      1.e-3,
		TimeStep:       1.e-3,
		Resolution:     64,
		DomainSize:     2 * math.Pi,
		NumSamples:     1000,
		StepsPerSample: 100,
		NumTest:        100,
		Seed:           1,
		FFTBackend:     "gonum",
	}
	return
}

// Parse overlays the YAML document onto ip, fields absent from data keep their
// current values.
func (ip *GenerationParameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, ip)
}

func (ip *GenerationParameters) Validate() (err error) {
	switch {
	case !(ip.Viscosity > 0) || math.IsInf(ip.Viscosity, 0):
		err = utils.ConfigErrorf("viscosity must be positive, have %v", ip.Viscosity)
	case !(ip.TimeStep > 0) || math.IsInf(ip.TimeStep, 0):
		err = utils.ConfigErrorf("time step must be positive, have %v", ip.TimeStep)
	case ip.Resolution <= 0 || ip.Resolution%2 != 0:
		err = utils.ConfigErrorf("resolution must be positive and even, have %d", ip.Resolution)
	case !(ip.DomainSize > 0) || math.IsInf(ip.DomainSize, 0):
		err = utils.ConfigErrorf("domain size must be positive, have %v", ip.DomainSize)
	case ip.NumSamples <= 0:
		err = utils.ConfigErrorf("sample count must be positive, have %d", ip.NumSamples)
	case ip.StepsPerSample <= 0:
		err = utils.ConfigErrorf("steps per sample must be positive, have %d", ip.StepsPerSample)
	case ip.NumTest < 0:
		err = utils.ConfigErrorf("test subset size must not be negative, have %d", ip.NumTest)
	case ip.NumTest > ip.NumSamples:
		err = utils.ConfigErrorf("test subset size %d exceeds sample count %d", ip.NumTest, ip.NumSamples)
	case ip.Workers < 0:
		err = utils.ConfigErrorf("worker count must not be negative, have %d", ip.Workers)
	case ip.DivergenceLimit < 0:
		err = utils.ConfigErrorf("divergence limit must not be negative, have %v", ip.DivergenceLimit)
	}
	if err != nil {
		return
	}
	if _, err = Spectral2D.NewBackendType(ip.FFTBackend); err != nil {
		err = utils.ConfigErrorf("%v", err)
	}
	return
}

func (ip *GenerationParameters) Backend() (bt Spectral2D.BackendType) {
	bt, _ = Spectral2D.NewBackendType(ip.FFTBackend)
	return
}

func (ip *GenerationParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("%8.5g\t\t= Viscosity\n", ip.Viscosity)
	fmt.Printf("%8.5g\t\t= TimeStep\n", ip.TimeStep)
	fmt.Printf("[%d]\t\t\t\t= Resolution\n", ip.Resolution)
	fmt.Printf("%8.5f\t\t= DomainSize\n", ip.DomainSize)
	fmt.Printf("[%d]\t\t\t\t= NumSamples\n", ip.NumSamples)
	fmt.Printf("[%d]\t\t\t\t= StepsPerSample\n", ip.StepsPerSample)
	fmt.Printf("[%d]\t\t\t\t= NumTest\n", ip.NumTest)
	fmt.Printf("[%d]\t\t\t\t= Seed\n", ip.Seed)
	fmt.Printf("[%s]\t\t\t= FFT Backend\n", ip.Backend().Print())
	if ip.DivergenceCheck {
		fmt.Printf("%8.5g\t\t= DivergenceLimit\n", ip.DivergenceLimit)
	}
}
