package dynamo

import "math"

// State is the plant state vector. For the CSTR it is [Ca, T].
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Control is the input vector applied over one sampling interval.
// For the CSTR it is [F, W, Ca_in, T_in].
type Control []float64

func (c Control) Clone() Control {
	out := make(Control, len(c))
	copy(out, c)
	return out
}

type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

// SteadyStater is implemented by systems with a closed-form equilibrium
// for a constant input.
type SteadyStater interface {
	SteadyState(u Control) State
}

type Integrator interface {
	Step(dyn System, x State, u Control, t float64, dt float64) State
}

type Metric interface {
	Name() string
	Observe(x State, u Control, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(x State, u Control, t float64)
}

type Result struct {
	States     []State
	Controls   []Control
	Times      []float64
	Metrics    map[string]float64
	StepsTaken int
}

// Samples returns the number of stored trajectory columns.
func (r *Result) Samples() int {
	return len(r.States)
}

// Channel extracts state component i across the whole trajectory.
func (r *Result) Channel(i int) []float64 {
	out := make([]float64, len(r.States))
	for k, s := range r.States {
		out[k] = s[i]
	}
	return out
}
