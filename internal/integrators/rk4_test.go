package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/cstrsim/internal/dynamo"
	"github.com/san-kum/cstrsim/internal/models"
)

type simpleDynamics struct{}

func (s *simpleDynamics) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{x[1], -x[0]}
}

func (s *simpleDynamics) StateDim() int   { return 2 }
func (s *simpleDynamics) ControlDim() int { return 0 }

type zeroField struct{}

func (z *zeroField) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return make(dynamo.State, len(x))
}

func (z *zeroField) StateDim() int   { return 2 }
func (z *zeroField) ControlDim() int { return 4 }

func TestRK4Accuracy(t *testing.T) {
	dyn := &simpleDynamics{}
	integ := NewRK4()

	x0 := dynamo.State{1.0, 0.0}
	u := dynamo.Control{}
	dt := 0.01
	steps := 100

	x := x0
	for i := 0; i < steps; i++ {
		x = integ.Step(dyn, x, u, float64(i)*dt, dt)
	}

	expectedX := math.Cos(float64(steps) * dt)
	expectedV := -math.Sin(float64(steps) * dt)

	if math.Abs(x[0]-expectedX) > 1e-4 {
		t.Errorf("position error too large: got %.6f, expected %.6f", x[0], expectedX)
	}

	if math.Abs(x[1]-expectedV) > 1e-4 {
		t.Errorf("velocity error too large: got %.6f, expected %.6f", x[1], expectedV)
	}
}

func TestZeroFieldFixedPoint(t *testing.T) {
	integs := map[string]dynamo.Integrator{
		"euler": NewEuler(),
		"rk4":   NewRK4(),
		"zoh":   NewZeroOrderHold(NewRK4(), 5),
	}

	for name, integ := range integs {
		t.Run(name, func(t *testing.T) {
			x := dynamo.State{10.0, 54.6}
			u := dynamo.Control{0.5, 30, 10, 25}
			for i := 0; i < 50; i++ {
				x = integ.Step(&zeroField{}, x, u, float64(i), 1.0)
			}
			if x[0] != 10.0 || x[1] != 54.6 {
				t.Errorf("state drifted under zero field: %v", x)
			}
		})
	}
}

func TestZeroOrderHoldMatchesManualSubsteps(t *testing.T) {
	plant := models.NewCSTR()
	x := dynamo.State{9.0, 40.0}
	u := dynamo.Control{0.45, 35, 10.2, 24.8}
	ts := 1.0

	zoh := NewZeroOrderHold(NewRK4(), 5)
	got := zoh.Step(plant, x, u, 0, ts)

	rk := NewRK4()
	want := x
	for i := 0; i < 5; i++ {
		want = rk.Step(plant, want, u, float64(i)*ts/5, ts/5)
	}

	for i := range want {
		if got[i] != want[i] {
			t.Errorf("component %d: zoh %v, manual %v", i, got[i], want[i])
		}
	}

	if x[0] != 9.0 || x[1] != 40.0 {
		t.Error("Step mutated its input state")
	}
}

func TestZeroOrderHoldDefaults(t *testing.T) {
	z := NewZeroOrderHold(NewRK4(), 0)
	if z.Substeps != DefaultSubsteps {
		t.Errorf("expected %d substeps, got %d", DefaultSubsteps, z.Substeps)
	}

	var empty ZeroOrderHold
	x := dynamo.State{1, 2}
	out := empty.Step(&simpleDynamics{}, x, nil, 0, 1)
	if out[0] != 1 || out[1] != 2 {
		t.Errorf("zero-value hold should not move the state, got %v", out)
	}
}

func TestCSTRConvergesToSteadyState(t *testing.T) {
	plant := models.NewCSTR()
	u := dynamo.Control{0.5, 30, 10, 25}
	want := plant.SteadyState(u)

	zoh := NewZeroOrderHold(NewRK4(), DefaultSubsteps)
	x := dynamo.State{10.0, 25.0}
	for j := 0; j < 400; j++ {
		x = zoh.Step(plant, x, u, float64(j), 1.0)
	}

	if math.Abs(x[0]-10.0) > 1e-9 {
		t.Errorf("concentration should stay at 10.0, got %f", x[0])
	}
	if math.Abs(x[1]-want[1]) > 1e-3 {
		t.Errorf("temperature should converge to %.4f, got %.4f", want[1], x[1])
	}
}
