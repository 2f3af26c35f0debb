package integrators

import "github.com/san-kum/cstrsim/internal/dynamo"

// DefaultSubsteps is the number of inner steps taken per sampling interval.
const DefaultSubsteps = 5

// ZeroOrderHold advances a system across one sampling interval by taking
// Substeps uniform inner steps, holding the input constant throughout.
type ZeroOrderHold struct {
	Inner    dynamo.Integrator
	Substeps int
}

// NewZeroOrderHold wraps inner; substeps below one fall back to DefaultSubsteps.
func NewZeroOrderHold(inner dynamo.Integrator, substeps int) *ZeroOrderHold {
	if substeps < 1 {
		substeps = DefaultSubsteps
	}
	return &ZeroOrderHold{Inner: inner, Substeps: substeps}
}

// Step integrates from t to t+ts. A zero-value ZeroOrderHold returns a copy
// of x unchanged.
func (z *ZeroOrderHold) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, ts float64) dynamo.State {
	if z.Substeps < 1 {
		return x.Clone()
	}
	h := ts / float64(z.Substeps)
	cur := x
	for i := 0; i < z.Substeps; i++ {
		cur = z.Inner.Step(dyn, cur, u, t+float64(i)*h, h)
	}
	return cur
}
