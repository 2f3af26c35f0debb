package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/cstrsim/internal/dynamo"
)

// Simulator drives a System through an input sequence on a uniform
// sampling grid.
type Simulator struct {
	dyn        dynamo.System
	integrator dynamo.Integrator
	metrics    []dynamo.Metric
	observers  []dynamo.Observer
}

func New(dyn dynamo.System, integrator dynamo.Integrator) *Simulator {
	return &Simulator{
		dyn:        dyn,
		integrator: integrator,
		metrics:    make([]dynamo.Metric, 0),
		observers:  make([]dynamo.Observer, 0),
	}
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

// Run produces one state per input sample. State k+1 is obtained by
// integrating from state k with inputs[k] held over [t_k, t_k+Ts], so the
// last input only contributes to metrics and observers. Exactly
// len(inputs)-1 integration steps are taken.
func (s *Simulator) Run(ctx context.Context, x0 dynamo.State, inputs []dynamo.Control, cfg Config) (*dynamo.Result, error) {
	if err := s.validate(x0, inputs, cfg); err != nil {
		return nil, err
	}

	npts := len(inputs)
	result := &dynamo.Result{
		States:   make([]dynamo.State, 0, npts),
		Controls: make([]dynamo.Control, 0, npts),
		Times:    make([]float64, 0, npts),
		Metrics:  make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	x := x0.Clone()
	result.States = append(result.States, x.Clone())
	result.Controls = append(result.Controls, inputs[0].Clone())
	result.Times = append(result.Times, 0)

	for j := 0; j < npts-1; j++ {
		select {
		case <-ctx.Done():
			s.collect(result)
			return result, fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err())
		default:
		}

		t := float64(j) * cfg.Ts
		u := inputs[j]
		s.notify(x, u, t)

		next := s.integrator.Step(s.dyn, x, u, t, cfg.Ts)
		if cfg.ValidateState && !next.IsValid() {
			s.collect(result)
			return result, &dynamo.SimulationError{
				Step:    j,
				Time:    t,
				State:   next,
				Wrapped: dynamo.ErrInvalidState,
			}
		}

		x = next
		result.StepsTaken++
		result.States = append(result.States, x.Clone())
		result.Controls = append(result.Controls, inputs[j+1].Clone())
		result.Times = append(result.Times, float64(j+1)*cfg.Ts)
	}

	s.notify(x, inputs[npts-1], float64(npts-1)*cfg.Ts)
	s.collect(result)

	return result, nil
}

func (s *Simulator) notify(x dynamo.State, u dynamo.Control, t float64) {
	for _, m := range s.metrics {
		m.Observe(x, u, t)
	}
	for _, obs := range s.observers {
		obs.OnStep(x, u, t)
	}
}

func (s *Simulator) collect(result *dynamo.Result) {
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func (s *Simulator) validate(x0 dynamo.State, inputs []dynamo.Control, cfg Config) error {
	if math.IsNaN(cfg.Ts) || math.IsInf(cfg.Ts, 0) || cfg.Ts <= 0 {
		return fmt.Errorf("sampling time must be positive and finite, got %f", cfg.Ts)
	}
	if len(inputs) == 0 {
		return dynamo.ErrNoInputs
	}
	if len(x0) != s.dyn.StateDim() {
		return fmt.Errorf("%w: initial state has %d components, system expects %d",
			dynamo.ErrDimensionMismatch, len(x0), s.dyn.StateDim())
	}
	for k, u := range inputs {
		if len(u) != s.dyn.ControlDim() {
			return fmt.Errorf("%w: input %d has %d components, system expects %d",
				dynamo.ErrDimensionMismatch, k, len(u), s.dyn.ControlDim())
		}
	}
	return nil
}
