package metrics

import (
	"github.com/san-kum/cstrsim/internal/dynamo"
)

// InputMean averages one input channel over the run, e.g. mean steam use.
type InputMean struct {
	name    string
	channel int
	sum     float64
	samples int
}

func NewInputMean(name string, channel int) *InputMean {
	return &InputMean{
		name:    name,
		channel: channel,
	}
}

func (m *InputMean) Name() string {
	return m.name
}

func (m *InputMean) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if m.channel >= len(u) {
		return
	}
	m.sum += u[m.channel]
	m.samples++
}

func (m *InputMean) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *InputMean) Reset() {
	m.sum = 0
	m.samples = 0
}
