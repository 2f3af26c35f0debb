package experiment_test

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/cstrsim/internal/config"
	"github.com/san-kum/cstrsim/internal/dynamo"
	"github.com/san-kum/cstrsim/internal/experiment"
	"github.com/san-kum/cstrsim/internal/ident"
	"github.com/san-kum/cstrsim/internal/integrators"
	"github.com/san-kum/cstrsim/internal/models"
	"github.com/san-kum/cstrsim/internal/signal"
)

var _ = Describe("GenerateInputs", func() {
	It("builds npts four-channel inputs within the configured ranges", func() {
		cfg := config.DefaultConfig()
		npts := cfg.Samples()

		inputs, err := experiment.GenerateInputs(cfg, signal.NewSource(3), npts)
		Expect(err).NotTo(HaveOccurred())
		Expect(inputs).To(HaveLen(4001))

		for _, u := range inputs {
			Expect(u).To(HaveLen(4))
			Expect(u[models.InputFlow]).To(BeElementOf(0.4, 0.6))
			Expect(u[models.InputSteam]).To(BeElementOf(20.0, 40.0))
		}
		Expect(inputs[0][models.InputConcentration]).To(Equal(10.0))
		Expect(inputs[0][models.InputTemperature]).To(Equal(25.0))
	})

	It("rejects invalid generator settings", func() {
		cfg := config.DefaultConfig()
		cfg.Inputs.Steam.SwitchProb = -1

		_, err := experiment.GenerateInputs(cfg, signal.NewSource(1), 10)
		Expect(err).To(MatchError(signal.ErrInvalidParams))
	})
})

var _ = Describe("InitialState", func() {
	It("starts at the inlet concentration and the energy-balance temperature", func() {
		cfg := config.DefaultConfig()
		plant := cfg.NewPlant()

		x0 := experiment.InitialState(cfg, plant, dynamo.Control{0.5, 30, 10, 25})
		Expect(x0[0]).To(Equal(10.0))
		Expect(x0[1]).To(BeNumerically("~", 54.6477, 1e-3))
	})
})

var _ = Describe("Experiment", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Context("with constant inputs", func() {
		It("holds the plant at its steady state", func() {
			cfg := config.GetPreset("steady")

			out, err := experiment.New(cfg, nil, nil).Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			ds := out.Dataset
			Expect(ds.Samples()).To(Equal(101))
			Expect(out.Result.StepsTaken).To(Equal(100))
			for k := 0; k < ds.Samples(); k++ {
				Expect(ds.X.At(0, k)).To(BeNumerically("~", 10.0, 1e-12))
				Expect(ds.X.At(1, k)).To(BeNumerically("~", 54.6477, 1e-3))
			}
			Expect(mat.Equal(ds.X, ds.Y)).To(BeTrue(), "zero noise variance must leave outputs clean")
			Expect(out.Excitation).To(HaveKeyWithValue("F", 0.0), "constant feed carries no excitation")
			Expect(out.Fits).To(BeEmpty())
			Expect(out.Result.Metrics).To(HaveKeyWithValue("below_boiling", 1.0))
		})
	})

	It("rejects a non-finite horizon before generating inputs", func() {
		for _, mutate := range []func(*config.Config){
			func(c *config.Config) { c.Tfin = math.NaN() },
			func(c *config.Config) { c.Tfin = math.Inf(1) },
			func(c *config.Config) { c.Ts = math.NaN() },
		} {
			cfg := config.GetPreset("steady")
			mutate(cfg)

			out, err := experiment.New(cfg, nil, nil).Run(ctx)
			Expect(errors.Is(err, config.ErrInvalidConfig)).To(BeTrue(), "got %v", err)
			Expect(out).To(BeNil())
		}
	})

	It("logs simulation progress at debug level", func() {
		core, logs := observer.New(zap.DebugLevel)
		cfg := config.GetPreset("steady")
		cfg.Tfin = 1200

		_, err := experiment.New(cfg, nil, zap.New(core)).Run(ctx)
		Expect(err).NotTo(HaveOccurred())

		progress := logs.FilterMessage("simulation progress").All()
		Expect(progress).To(HaveLen(3))
		Expect(progress[1].ContextMap()).To(HaveKeyWithValue("t", 500.0))
	})

	Context("with the short identification preset", func() {
		var cfg *config.Config

		BeforeEach(func() {
			cfg = config.GetPreset("short")
			cfg.Seed = 2018
		})

		It("produces consistently shaped trajectories", func() {
			out, err := experiment.New(cfg, nil, nil).Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			ds := out.Dataset
			npts := cfg.Samples()
			Expect(ds.Times).To(HaveLen(npts))
			r, c := ds.U.Dims()
			Expect([]int{r, c}).To(Equal([]int{4, npts}))
			r, c = ds.Y.Dims()
			Expect([]int{r, c}).To(Equal([]int{2, npts}))
			Expect(ds.Times[npts-1]).To(Equal(cfg.Tfin))
		})

		It("fits ARX and records methods without a back-end as skipped", func() {
			out, err := experiment.New(cfg, nil, nil).Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(out.Fits).To(HaveLen(1))
			fit := out.Fits[0]
			Expect(fit.Method).To(Equal(ident.MethodARX))
			Expect(fit.Percent).To(HaveLen(2))
			for _, p := range fit.Percent {
				Expect(math.IsNaN(p)).To(BeFalse())
			}

			Expect(out.Skipped).To(HaveKey(ident.MethodARMAX))
			Expect(out.Skipped).To(HaveKey(ident.MethodPARSIMK))
			Expect(errors.Is(out.Skipped[ident.MethodARMAX], ident.ErrUnknownMethod)).To(BeTrue())
		})

		It("is reproducible for a fixed seed", func() {
			a, err := experiment.New(cfg, nil, nil).Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			b, err := experiment.New(cfg, nil, nil).Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(mat.Equal(a.Dataset.U, b.Dataset.U)).To(BeTrue())
			Expect(mat.Equal(a.Dataset.X, b.Dataset.X)).To(BeTrue())
			Expect(mat.Equal(a.Dataset.Y, b.Dataset.Y)).To(BeTrue())

			cfg.Seed++
			c, err := experiment.New(cfg, nil, nil).Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(mat.Equal(a.Dataset.U, c.Dataset.U)).To(BeFalse())
		})

		It("re-simulates state-space models over the experiment inputs", func() {
			ss := &ident.StateSpace{
				A:  mat.NewDense(2, 2, []float64{0.95, 0, 0, 0.95}),
				B:  mat.NewDense(2, 4, nil),
				C:  mat.NewDense(2, 2, []float64{1, 0, 0, 1}),
				D:  mat.NewDense(2, 4, nil),
				X0: mat.NewVecDense(2, []float64{10, 50}),
			}
			reg := ident.NewRegistry()
			reg.Register(ident.MethodPARSIMK, ident.IdentifierFunc(
				func(ctx context.Context, data ident.Data, orders ident.Orders, opts ident.Options) (ident.Model, error) {
					Expect(orders.SSOrder).To(Equal(2))
					return ident.NewSSModel(ident.MethodPARSIMK, ss, data.U)
				}))

			out, err := experiment.New(cfg, reg, nil).Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Fits).To(HaveLen(2))

			fit := out.Fits[1]
			Expect(fit.Method).To(Equal(ident.MethodPARSIMK))
			Expect(fit.Yid.At(0, 0)).To(Equal(10.0))
			Expect(fit.Yid.At(1, 1)).To(BeNumerically("~", 47.5, 1e-12))
		})

		It("keeps going when a back-end fails", func() {
			reg := ident.NewRegistry()
			boom := errors.New("did not converge")
			reg.Register(ident.MethodARMAX, ident.IdentifierFunc(
				func(context.Context, ident.Data, ident.Orders, ident.Options) (ident.Model, error) {
					return nil, boom
				}))

			out, err := experiment.New(cfg, reg, nil).Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Skipped[ident.MethodARMAX]).To(MatchError(boom))
			Expect(out.Fits).To(HaveLen(1))
		})
	})

	It("rejects an invalid configuration before simulating", func() {
		cfg := config.DefaultConfig()
		cfg.Ts = 0

		_, err := experiment.New(cfg, nil, nil).Run(ctx)
		Expect(err).To(MatchError(config.ErrInvalidConfig))
	})

	It("reports a diverging plant as a simulation error", func() {
		cfg := config.GetPreset("steady")
		cfg.Inputs.Flow = config.GBNConfig{Low: 0, High: 0}

		_, err := experiment.New(cfg, nil, nil).Run(ctx)
		Expect(err).To(MatchError(dynamo.ErrInvalidState))
	})
})

var _ = Describe("Registry", func() {
	It("wraps integrators in a zero-order hold", func() {
		r := experiment.NewRegistry()
		Expect(r.ListIntegrators()).To(Equal([]string{"euler", "rk4"}))

		integ, err := r.GetIntegrator("rk4", 5)
		Expect(err).NotTo(HaveOccurred())
		Expect(integ).To(BeAssignableToTypeOf(integrators.NewZeroOrderHold(nil, 1)))

		_, err = r.GetIntegrator("verlet", 5)
		Expect(err).To(HaveOccurred())
	})
})
