package experiment

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/cstrsim/internal/analysis"
	"github.com/san-kum/cstrsim/internal/config"
	"github.com/san-kum/cstrsim/internal/dynamo"
	"github.com/san-kum/cstrsim/internal/ident"
	"github.com/san-kum/cstrsim/internal/models"
	"github.com/san-kum/cstrsim/internal/signal"
	"github.com/san-kum/cstrsim/internal/sim"
)

// Fit is the outcome of one identification job.
type Fit struct {
	Method string
	Model  ident.Model
	// Yid is the model's simulated output over the experiment inputs.
	Yid *mat.Dense
	// Percent is the NRMSE fit against the measured outputs, per channel.
	Percent []float64
}

type Outcome struct {
	Seed    uint64
	Dataset *Dataset
	Result  *dynamo.Result
	Fits    []Fit
	// Skipped holds identification jobs that produced no model, by method.
	Skipped map[string]error

	// Excitation is the normalized bandwidth of each input channel.
	Excitation map[string]float64
}

// InputNames labels the rows of Dataset.U.
var InputNames = []string{"F", "W", "Ca_in", "T_in"}

type Experiment struct {
	cfg      *config.Config
	registry *Registry
	idents   *ident.Registry
	logger   *zap.Logger
}

func New(cfg *config.Config, idents *ident.Registry, logger *zap.Logger) *Experiment {
	if logger == nil {
		logger = zap.NewNop()
	}
	if idents == nil {
		idents = ident.NewRegistry()
	}
	return &Experiment{
		cfg:      cfg,
		registry: NewRegistry(),
		idents:   idents,
		logger:   logger,
	}
}

// Run generates inputs, simulates the plant, adds measurement noise and
// hands the data to every configured identification job. A failing job is
// logged and recorded in Outcome.Skipped; the others still run.
func (e *Experiment) Run(ctx context.Context) (*Outcome, error) {
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}
	for _, w := range e.cfg.Warnings() {
		e.logger.Warn("questionable configuration", zap.String("detail", w))
	}

	ds, result, err := e.Simulate(ctx)
	if err != nil {
		return nil, err
	}

	out := &Outcome{
		Seed:       e.cfg.Seed,
		Dataset:    ds,
		Result:     result,
		Skipped:    make(map[string]error),
		Excitation: analysis.InputBandwidths(InputNames, denseToRows(ds.U), analysis.DefaultPowerShare),
	}
	e.logger.Debug("input excitation", zap.Any("bandwidth", out.Excitation))

	for _, job := range e.cfg.Identification {
		fit, err := e.identify(ctx, ds, job)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			e.logger.Warn("identification skipped", zap.String("method", job.Method), zap.Error(err))
			out.Skipped[job.Method] = err
			continue
		}
		e.logger.Info("identified model",
			zap.String("method", fit.Method),
			zap.Float64s("fit_percent", fit.Percent))
		out.Fits = append(out.Fits, fit)
	}

	return out, nil
}

// Simulate produces the dataset without running identification.
func (e *Experiment) Simulate(ctx context.Context) (*Dataset, *dynamo.Result, error) {
	cfg := e.cfg
	npts := cfg.Samples()
	src := signal.NewSource(cfg.Seed)

	inputs, err := GenerateInputs(cfg, src, npts)
	if err != nil {
		return nil, nil, err
	}
	e.logger.Debug("inputs generated", zap.Int("samples", npts), zap.Uint64("seed", cfg.Seed))

	plant := cfg.NewPlant()
	integ, err := e.registry.GetIntegrator(cfg.Integrator, cfg.Substeps)
	if err != nil {
		return nil, nil, err
	}

	s := sim.New(plant, integ)
	for _, m := range e.registry.DefaultMetrics(plant) {
		s.AddMetric(m)
	}
	s.AddObserver(newProgressLogger(e.logger, progressEvery))

	x0 := InitialState(cfg, plant, inputs[0])
	result, err := s.Run(ctx, x0, inputs, sim.Config{Ts: cfg.Ts, ValidateState: true})
	if err != nil {
		return nil, result, fmt.Errorf("simulate plant: %w", err)
	}
	e.logger.Info("plant simulated",
		zap.Int("samples", result.Samples()),
		zap.Int("steps", result.StepsTaken),
		zap.Any("metrics", result.Metrics))

	clean := [][]float64{
		result.Channel(models.StateConcentration),
		result.Channel(models.StateTemperature),
	}
	noise, err := signal.WhiteNoise(src, npts, cfg.NoiseVariance)
	if err != nil {
		return nil, result, err
	}
	yRows, err := signal.AddNoise(clean, noise)
	if err != nil {
		return nil, result, err
	}

	ds := &Dataset{
		Ts:    cfg.Ts,
		Times: result.Times,
		U:     controlsToDense(inputs),
		X:     rowsToDense(clean),
		Y:     rowsToDense(yRows),
	}
	return ds, result, nil
}

func (e *Experiment) identify(ctx context.Context, ds *Dataset, job config.JobConfig) (Fit, error) {
	opts, err := job.Options()
	if err != nil {
		return Fit{}, err
	}
	model, err := e.idents.Identify(ctx, job.Method, ds.IdentData(), job.Orders(), opts)
	if err != nil {
		return Fit{}, err
	}

	yid := model.Yid()
	if ssm, ok := model.(ident.StateSpaceModel); ok {
		_, yid, err = ssm.StateSpace().Simulate(ds.U)
		if err != nil {
			return Fit{}, fmt.Errorf("simulate %s realization: %w", job.Method, err)
		}
	}
	if yid == nil {
		return Fit{}, errors.New("identifier returned no simulated output")
	}
	p, _ := ds.Y.Dims()
	if r, c := yid.Dims(); r != p || c != ds.Samples() {
		return Fit{}, fmt.Errorf("%w: simulated output is %dx%d", ident.ErrDataShape, r, c)
	}

	return Fit{
		Method:  job.Method,
		Model:   model,
		Yid:     yid,
		Percent: ident.FitPercent(ds.Y, yid),
	}, nil
}

// GenerateInputs builds the input sequence: feed and steam flow as GBN,
// inlet concentration and temperature as random walks. The draws are taken
// from src in that order.
func GenerateInputs(cfg *config.Config, src *signal.Source, npts int) ([]dynamo.Control, error) {
	in := cfg.Inputs
	gbn := func(g config.GBNConfig) signal.GBNParams {
		return signal.GBNParams{
			N:          npts,
			SwitchProb: g.SwitchProb,
			Low:        g.Low,
			High:       g.High,
			MinHold:    g.MinHold,
			Tol:        g.Tol,
			MaxIter:    g.MaxIter,
		}
	}

	flow, err := signal.GBN(src, gbn(in.Flow))
	if err != nil {
		return nil, fmt.Errorf("feed flow: %w", err)
	}
	steam, err := signal.GBN(src, gbn(in.Steam))
	if err != nil {
		return nil, fmt.Errorf("steam flow: %w", err)
	}
	caIn, err := signal.RandomWalk(src, npts, in.Concentration.Initial, in.Concentration.Sigma)
	if err != nil {
		return nil, fmt.Errorf("inlet concentration: %w", err)
	}
	tIn, err := signal.RandomWalk(src, npts, in.Temperature.Initial, in.Temperature.Sigma)
	if err != nil {
		return nil, fmt.Errorf("inlet temperature: %w", err)
	}

	inputs := make([]dynamo.Control, npts)
	for k := range inputs {
		u := make(dynamo.Control, 4)
		u[models.InputFlow] = flow[k]
		u[models.InputSteam] = steam[k]
		u[models.InputConcentration] = caIn[k]
		u[models.InputTemperature] = tIn[k]
		inputs[k] = u
	}
	return inputs, nil
}

// InitialState starts the tank at the inlet concentration and at the
// temperature the energy balance settles to under the first input.
func InitialState(cfg *config.Config, plant *models.CSTR, u0 dynamo.Control) dynamo.State {
	eq := plant.SteadyState(u0)
	return dynamo.State{cfg.Inputs.Concentration.Initial, eq[models.StateTemperature]}
}
