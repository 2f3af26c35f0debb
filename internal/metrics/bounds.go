package metrics

import (
	"github.com/san-kum/cstrsim/internal/dynamo"
)

// Bounds reports the fraction of samples where one state channel stayed
// inside [lo, hi]. For the tank temperature the natural upper bound is the
// boiling point assumed by the energy balance.
type Bounds struct {
	name       string
	channel    int
	lo, hi     float64
	violations int
	samples    int
}

func NewBounds(name string, channel int, lo, hi float64) *Bounds {
	return &Bounds{
		name:    name,
		channel: channel,
		lo:      lo,
		hi:      hi,
	}
}

func (b *Bounds) Name() string {
	return b.name
}

func (b *Bounds) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if b.channel >= len(x) {
		return
	}
	b.samples++
	if v := x[b.channel]; v < b.lo || v > b.hi {
		b.violations++
	}
}

func (b *Bounds) Value() float64 {
	if b.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(b.violations)/float64(b.samples)
}

func (b *Bounds) Reset() {
	b.violations = 0
	b.samples = 0
}
