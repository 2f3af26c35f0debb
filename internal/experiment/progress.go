package experiment

import (
	"go.uber.org/zap"

	"github.com/san-kum/cstrsim/internal/dynamo"
	"github.com/san-kum/cstrsim/internal/models"
)

// progressEvery is the sample spacing of progress log entries.
const progressEvery = 500

// progressLogger logs the trajectory every few samples at debug level.
type progressLogger struct {
	logger *zap.Logger
	every  int
	seen   int
}

func newProgressLogger(logger *zap.Logger, every int) *progressLogger {
	if every < 1 {
		every = 1
	}
	return &progressLogger{logger: logger, every: every}
}

func (p *progressLogger) OnStep(x dynamo.State, u dynamo.Control, t float64) {
	if p.seen%p.every == 0 {
		p.logger.Debug("simulation progress",
			zap.Float64("t", t),
			zap.Float64("Ca", x[models.StateConcentration]),
			zap.Float64("T", x[models.StateTemperature]),
			zap.Float64("F", u[models.InputFlow]),
			zap.Float64("W", u[models.InputSteam]))
	}
	p.seen++
}
