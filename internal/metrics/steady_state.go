package metrics

import (
	"math"

	"github.com/san-kum/cstrsim/internal/dynamo"
)

// SteadyStateDeviation tracks the largest distance between the sampled
// state and the equilibrium of the input currently applied.
type SteadyStateDeviation struct {
	name    string
	channel int
	dyn     dynamo.SteadyStater
	maxDev  float64
}

func NewSteadyStateDeviation(name string, channel int, dyn dynamo.SteadyStater) *SteadyStateDeviation {
	return &SteadyStateDeviation{
		name:    name,
		channel: channel,
		dyn:     dyn,
	}
}

func (s *SteadyStateDeviation) Name() string { return s.name }

func (s *SteadyStateDeviation) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if s.channel >= len(x) {
		return
	}
	eq := s.dyn.SteadyState(u)
	dev := math.Abs(x[s.channel] - eq[s.channel])
	if math.IsNaN(dev) {
		return
	}
	s.maxDev = math.Max(s.maxDev, dev)
}

func (s *SteadyStateDeviation) Value() float64 {
	return s.maxDev
}

func (s *SteadyStateDeviation) Reset() {
	s.maxDev = 0
}
