package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/cstrsim/internal/ident"
	"github.com/san-kum/cstrsim/internal/models"
)

const (
	DefaultTs       = 1.0    // min
	DefaultTfin     = 4000.0 // min
	DefaultSubsteps = 5

	// BoilingPoint is the tank temperature at which the steam energy
	// balance stops being meaningful.
	BoilingPoint = 100.0
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	Seed           uint64      `yaml:"seed"`
	Ts             float64     `yaml:"ts"`
	Tfin           float64     `yaml:"tfin"`
	Integrator     string      `yaml:"integrator"`
	Substeps       int         `yaml:"substeps"`
	Plant          PlantConfig `yaml:"plant"`
	Inputs         InputConfig `yaml:"inputs"`
	NoiseVariance  []float64   `yaml:"noise_variance"`
	Identification []JobConfig `yaml:"identification"`
}

type PlantConfig struct {
	Volume       float64 `yaml:"volume"`
	Density      float64 `yaml:"density"`
	SpecificHeat float64 `yaml:"specific_heat"`
	LatentHeat   float64 `yaml:"latent_heat"`
}

type InputConfig struct {
	Flow          GBNConfig  `yaml:"flow"`
	Steam         GBNConfig  `yaml:"steam"`
	Concentration WalkConfig `yaml:"concentration"`
	Temperature   WalkConfig `yaml:"temperature"`
}

type GBNConfig struct {
	SwitchProb float64 `yaml:"switch_prob"`
	Low        float64 `yaml:"low"`
	High       float64 `yaml:"high"`
	MinHold    int     `yaml:"min_hold"`
	Tol        float64 `yaml:"tol"`
	MaxIter    int     `yaml:"max_iter"`
}

type WalkConfig struct {
	Initial float64 `yaml:"initial"`
	Sigma   float64 `yaml:"sigma"`
}

// JobConfig describes one identification run on the generated data.
type JobConfig struct {
	Method        string  `yaml:"method"`
	Centering     string  `yaml:"centering,omitempty"`
	NA            []int   `yaml:"na,omitempty"`
	NB            [][]int `yaml:"nb,omitempty"`
	NC            []int   `yaml:"nc,omitempty"`
	Theta         [][]int `yaml:"theta,omitempty"`
	SSOrder       int     `yaml:"ss_order,omitempty"`
	MaxIterations int     `yaml:"max_iterations,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Ts:         DefaultTs,
		Tfin:       DefaultTfin,
		Integrator: "rk4",
		Substeps:   DefaultSubsteps,
		Plant: PlantConfig{
			Volume:       models.DefaultVolume,
			Density:      models.DefaultDensity,
			SpecificHeat: models.DefaultSpecificHeat,
			LatentHeat:   models.DefaultLatentHeat,
		},
		Inputs: InputConfig{
			Flow:          GBNConfig{SwitchProb: 0.05, Low: 0.4, High: 0.6, MinHold: 1, Tol: 0.01, MaxIter: 30},
			Steam:         GBNConfig{SwitchProb: 0.05, Low: 20, High: 40, MinHold: 1, Tol: 0.01, MaxIter: 30},
			Concentration: WalkConfig{Initial: 10.0, Sigma: 0.01},
			Temperature:   WalkConfig{Initial: 25.0, Sigma: 0.01},
		},
		NoiseVariance:  []float64{0.001, 0.001},
		Identification: DefaultJobs(),
	}
}

// DefaultJobs are the ARX, ARMAX and PARSIM-K runs of the reference
// experiment.
func DefaultJobs() []JobConfig {
	return []JobConfig{
		{
			Method:    ident.MethodARX,
			Centering: string(ident.CenteringMean),
			NA:        []int{5, 5},
			NB:        [][]int{{3, 1, 3, 1}, {3, 3, 1, 3}},
			Theta:     [][]int{{0, 0, 0, 0}, {0, 0, 0, 0}},
		},
		{
			Method:        ident.MethodARMAX,
			Centering:     string(ident.CenteringInit),
			NA:            []int{5, 5},
			NB:            [][]int{{2, 2, 2, 2}, {2, 2, 2, 2}},
			NC:            []int{3, 3},
			Theta:         [][]int{{1, 1, 1, 1}, {1, 1, 1, 1}},
			MaxIterations: 300,
		},
		{
			Method:  ident.MethodPARSIMK,
			SSOrder: 2,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Samples returns npts = tfin/ts + 1, the length of every time series.
func (c *Config) Samples() int {
	return int(math.Floor(c.Tfin/c.Ts+1e-9)) + 1
}

func (c *Config) NewPlant() *models.CSTR {
	return &models.CSTR{
		Volume:       c.Plant.Volume,
		Density:      c.Plant.Density,
		SpecificHeat: c.Plant.SpecificHeat,
		LatentHeat:   c.Plant.LatentHeat,
	}
}

// Orders converts the job into an identification order specification.
func (j JobConfig) Orders() ident.Orders {
	return ident.Orders{
		NA:            j.NA,
		NB:            j.NB,
		NC:            j.NC,
		Theta:         j.Theta,
		SSOrder:       j.SSOrder,
		MaxIterations: j.MaxIterations,
	}
}

func (j JobConfig) Options() (ident.Options, error) {
	c, err := ident.ParseCentering(j.Centering)
	if err != nil {
		return ident.Options{}, err
	}
	return ident.Options{Centering: c}, nil
}

// Validate reports structural problems that would make a run meaningless.
// Physically questionable but computable settings are left to Warnings.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if !finite(c.Ts) || c.Ts <= 0 {
		add("ts must be positive and finite, got %v", c.Ts)
	}
	if !finite(c.Tfin) || c.Tfin < 0 {
		add("tfin must be finite and not negative, got %v", c.Tfin)
	}
	if c.Substeps < 1 {
		add("substeps must be at least 1, got %d", c.Substeps)
	}
	switch c.Integrator {
	case "rk4", "euler":
	default:
		add("unknown integrator %q", c.Integrator)
	}
	if c.Plant.Volume <= 0 || c.Plant.Density <= 0 || c.Plant.SpecificHeat <= 0 {
		add("plant volume, density and specific heat must be positive")
	}
	for name, g := range map[string]GBNConfig{"flow": c.Inputs.Flow, "steam": c.Inputs.Steam} {
		if g.SwitchProb < 0 || g.SwitchProb > 1 {
			add("%s switch probability %v not in [0, 1]", name, g.SwitchProb)
		}
		if g.Low > g.High {
			add("%s low bound %v above high bound %v", name, g.Low, g.High)
		}
	}
	for name, w := range map[string]WalkConfig{"concentration": c.Inputs.Concentration, "temperature": c.Inputs.Temperature} {
		if w.Sigma < 0 {
			add("%s sigma must not be negative, got %v", name, w.Sigma)
		}
	}
	if len(c.NoiseVariance) != 2 {
		add("noise_variance needs one entry per output, got %d", len(c.NoiseVariance))
	}
	for i, v := range c.NoiseVariance {
		if v < 0 {
			add("noise variance %d must not be negative, got %v", i, v)
		}
	}
	methods := make(map[string]int, len(c.Identification))
	for i, job := range c.Identification {
		if job.Method == "" {
			add("identification job %d has no method", i)
		}
		if prev, ok := methods[job.Method]; ok && job.Method != "" {
			add("identification job %d repeats method %s of job %d", i, job.Method, prev)
		} else {
			methods[job.Method] = i
		}
		if _, err := job.Options(); err != nil {
			add("identification job %d: %v", i, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Warnings flags settings the plant model accepts but that are physically
// dubious. None of them are corrected.
func (c *Config) Warnings() []string {
	var warns []string
	flow, steam := c.Inputs.Flow, c.Inputs.Steam

	if flow.Low <= 0 {
		warns = append(warns, fmt.Sprintf(
			"feed flow can reach %v: the steady temperature is unbounded at zero flow", flow.Low))
	}
	if steam.Low < 0 {
		warns = append(warns, fmt.Sprintf("steam flow can be negative (%v)", steam.Low))
	}
	if flow.Low > 0 {
		plant := c.NewPlant()
		rc := plant.Density * plant.SpecificHeat
		hottest := (rc*flow.Low*c.Inputs.Temperature.Initial + steam.High*plant.LatentHeat) / (rc * flow.Low)
		if hottest >= BoilingPoint {
			warns = append(warns, fmt.Sprintf(
				"low feed with high steam settles at %.1f degC, at or above boiling", hottest))
		}
	}
	return warns
}
