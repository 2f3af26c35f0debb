package config

import "sort"

// Presets are named variations of DefaultConfig.
var Presets = map[string]func() *Config{
	"identification": DefaultConfig,
	"short": func() *Config {
		cfg := DefaultConfig()
		cfg.Tfin = 500
		return cfg
	},
	"steady": func() *Config {
		cfg := DefaultConfig()
		cfg.Tfin = 100
		cfg.Inputs.Flow = GBNConfig{Low: 0.5, High: 0.5}
		cfg.Inputs.Steam = GBNConfig{Low: 30, High: 30}
		cfg.Inputs.Concentration.Sigma = 0
		cfg.Inputs.Temperature.Sigma = 0
		cfg.NoiseVariance = []float64{0, 0}
		cfg.Identification = nil
		return cfg
	},
	"arx": func() *Config {
		cfg := DefaultConfig()
		cfg.Identification = cfg.Identification[:1]
		return cfg
	},
}

func GetPreset(name string) *Config {
	fn, ok := Presets[name]
	if !ok {
		return nil
	}
	return fn()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
