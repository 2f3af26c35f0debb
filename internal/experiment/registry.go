package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/cstrsim/internal/config"
	"github.com/san-kum/cstrsim/internal/dynamo"
	"github.com/san-kum/cstrsim/internal/integrators"
	"github.com/san-kum/cstrsim/internal/metrics"
	"github.com/san-kum/cstrsim/internal/models"
)

// Registry maps configuration names to integrator constructors.
type Registry struct {
	integrators map[string]func() dynamo.Integrator
}

func NewRegistry() *Registry {
	r := &Registry{
		integrators: make(map[string]func() dynamo.Integrator),
	}

	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }

	return r
}

// GetIntegrator returns the named single-step method wrapped in a
// zero-order hold with the given number of sub-steps per sample.
func (r *Registry) GetIntegrator(name string, substeps int) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return integrators.NewZeroOrderHold(fn(), substeps), nil
}

func (r *Registry) ListIntegrators() []string {
	names := make([]string, 0, len(r.integrators))
	for name := range r.integrators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) DefaultMetrics(plant *models.CSTR) []dynamo.Metric {
	return []dynamo.Metric{
		metrics.NewSteadyStateDeviation("max_temp_deviation", models.StateTemperature, plant),
		metrics.NewBounds("below_boiling", models.StateTemperature, 0, config.BoilingPoint),
		metrics.NewInputMean("mean_feed", models.InputFlow),
		metrics.NewInputMean("mean_steam", models.InputSteam),
	}
}
