package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/cstrsim/internal/config"
	"github.com/san-kum/cstrsim/internal/experiment"
	"github.com/san-kum/cstrsim/internal/ident"
	"github.com/san-kum/cstrsim/internal/optim"
	"github.com/san-kum/cstrsim/internal/report"
	"github.com/san-kum/cstrsim/internal/storage"
)

var (
	dataDir    string
	configFile string
	preset     string
	seed       uint64
	tfin       float64
	integrator string
	plotsDir   string
	noSave     bool
	quiet      bool
	verbose    bool
	terminal   bool
	width      int
	height     int
	maxNA      int
	maxNB      int
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "cstrsim",
		Short:        "CSTR simulation and system identification lab",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".cstrsim", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "disable logging")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "simulate the reactor and identify models from the data",
		Args:  cobra.NoArgs,
		RunE:  runExperiment,
	}
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	runCmd.Flags().Uint64Var(&seed, "seed", 0, "random seed; when neither flag nor config sets it, a time based seed is used")
	runCmd.Flags().Float64Var(&tfin, "tfin", 0, "experiment length, overrides config")
	runCmd.Flags().StringVar(&integrator, "integrator", "", "integrator, overrides config")
	runCmd.Flags().StringVar(&plotsDir, "plots", "", "write PNG figures into this directory")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not persist the run")
	runCmd.Flags().BoolVar(&terminal, "terminal", true, "draw charts in the terminal")
	runCmd.Flags().IntVar(&width, "width", 80, "terminal chart width")
	runCmd.Flags().IntVar(&height, "height", 10, "terminal chart height")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}
	showCmd.Flags().StringVar(&plotsDir, "plots", "", "write PNG figures into this directory")
	showCmd.Flags().IntVar(&width, "width", 80, "terminal chart width")
	showCmd.Flags().IntVar(&height, "height", 10, "terminal chart height")

	configCmd := &cobra.Command{
		Use:   "config [path]",
		Short: "write the default configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultConfig()
			if preset != "" {
				if cfg = config.GetPreset(preset); cfg == nil {
					return fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
				}
			}
			if err := config.Save(args[0], cfg); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", args[0])
			return nil
		},
	}
	configCmd.Flags().StringVar(&preset, "preset", "", "start from a preset")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, p := range config.ListPresets() {
				fmt.Printf("  %s\n", p)
			}
		},
	}

	methodsCmd := &cobra.Command{
		Use:   "methods",
		Short: "list identification methods with a back-end",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, m := range ident.NewRegistry().Methods() {
				fmt.Printf("  %s\n", m)
			}
		},
	}

	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "simulate once and grid-search ARX orders on the data",
		Args:  cobra.NoArgs,
		RunE:  searchOrders,
	}
	searchCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	searchCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	searchCmd.Flags().Uint64Var(&seed, "seed", 0, "random seed; when neither flag nor config sets it, a time based seed is used")
	searchCmd.Flags().Float64Var(&tfin, "tfin", 0, "experiment length, overrides config")
	searchCmd.Flags().StringVar(&integrator, "integrator", "", "integrator, overrides config")
	searchCmd.Flags().IntVar(&maxNA, "max-na", 4, "largest autoregressive order")
	searchCmd.Flags().IntVar(&maxNB, "max-nb", 4, "largest input order")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).ExportJSON(os.Stdout, args[0])
		},
	}

	rootCmd.AddCommand(runCmd, listCmd, showCmd, configCmd, presetsCmd, methodsCmd, searchCmd, exportJSONCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() (*zap.Logger, error) {
	if quiet {
		return zap.NewNop(), nil
	}
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

// loadConfig resolves the run configuration: preset, then config file, then
// flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		if cfg = config.GetPreset(preset); cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	} else if cfg.Seed == 0 {
		cfg.Seed = uint64(time.Now().UnixNano())
	}
	if cmd.Flags().Changed("tfin") {
		cfg.Tfin = tfin
	}
	if cmd.Flags().Changed("integrator") {
		cfg.Integrator = integrator
	}

	return cfg, cfg.Validate()
}

func runExperiment(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("running cstr experiment (seed %d, %d samples)...\n", cfg.Seed, cfg.Samples())
	start := time.Now()

	out, err := experiment.New(cfg, ident.NewRegistry(), logger).Run(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("completed in %v\n\n", time.Since(start))

	fits := make(map[string][]float64, len(out.Fits))
	for _, f := range out.Fits {
		fits[f.Method] = f.Percent
	}
	skipped := make(map[string]string, len(out.Skipped))
	for method, err := range out.Skipped {
		skipped[method] = err.Error()
	}
	if err := report.Summary(os.Stdout, fits, skipped, withExcitation(out.Result.Metrics, out.Excitation)); err != nil {
		return err
	}

	inputs := report.InputPanels(out.Dataset)
	outputs := report.OutputPanels(out.Dataset, out.Fits)

	if terminal {
		fmt.Println()
		if err := report.Terminal(os.Stdout, outputs, width, height); err != nil {
			return err
		}
	}

	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(cfg, out)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
		if plotsDir == "" {
			plotsDir = filepath.Join(dataDir, runID)
		}
	}

	if plotsDir != "" {
		return writeFigures(plotsDir, inputs, outputs)
	}
	return nil
}

func withExcitation(metrics, excitation map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(metrics)+len(excitation))
	for k, v := range metrics {
		out[k] = v
	}
	for k, v := range excitation {
		out["bandwidth_"+k] = v
	}
	return out
}

func writeFigures(dir string, inputs, outputs []report.Panel) error {
	in, err := report.SavePNG(dir, "inputs", inputs)
	if err != nil {
		return err
	}
	outs, err := report.SavePNG(dir, "outputs", outputs)
	if err != nil {
		return err
	}
	fmt.Printf("figures: %s\n", strings.Join(append(in, outs...), ", "))
	return nil
}

func searchOrders(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if maxNA < 0 || maxNB < 1 {
		return fmt.Errorf("need max-na >= 0 and max-nb >= 1")
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ds, _, err := experiment.New(cfg, nil, logger).Simulate(ctx)
	if err != nil {
		return err
	}

	search := &optim.OrderSearch{NA: intRange(0, maxNA), NB: intRange(1, maxNB)}
	var opts ident.Options
	for _, job := range cfg.Identification {
		if job.Method != ident.MethodARX {
			continue
		}
		search.Theta = job.Theta
		if opts, err = job.Options(); err != nil {
			return err
		}
		break
	}

	best, points, err := search.Search(ctx, ident.NewRegistry(), ds.IdentData(), opts)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NA\tNB\tMEAN FIT [%]")
	for _, p := range points {
		fmt.Fprintf(w, "%d\t%d\t%.3f\n", p.Params[optim.ParamNA], p.Params[optim.ParamNB], p.Score)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nbest: na=%d nb=%d\n", best.NA[0], best.NB[0][0])
	return nil
}

func intRange(lo, hi int) []int {
	out := make([]int, 0, hi-lo+1)
	for v := lo; v <= hi; v++ {
		out = append(out, v)
	}
	return out
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tSEED\tTFIN\tTS\tINTEG\tFITS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.0f\t%.2f\t%s\t%s\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Seed,
			run.Tfin,
			run.Ts,
			run.Integrator,
			fitMethods(run.Fits),
		)
	}

	return w.Flush()
}

func fitMethods(fits map[string][]float64) string {
	if len(fits) == 0 {
		return "-"
	}
	methods := make([]string, 0, len(fits))
	for m := range fits {
		methods = append(methods, m)
	}
	sort.Strings(methods)
	return strings.Join(methods, ",")
}

func showRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	table, err := st.LoadDataset(runID)
	if err != nil {
		return err
	}
	if len(table.Columns) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("seed: %d\n", meta.Seed)
	fmt.Printf("samples: %d\n", meta.Samples)
	params := make([]string, 0, len(meta.Plant))
	for name, v := range meta.Plant {
		params = append(params, fmt.Sprintf("%s=%g", name, v))
	}
	sort.Strings(params)
	fmt.Printf("plant: %s\n\n", strings.Join(params, " "))

	if err := report.Summary(os.Stdout, meta.Fits, meta.Skipped, withExcitation(meta.Metrics, meta.Excitation)); err != nil {
		return err
	}

	methods := make([]string, 0, len(meta.Fits))
	for m := range meta.Fits {
		methods = append(methods, m)
	}
	sort.Strings(methods)

	inputs, outputs, err := report.TablePanels(table, methods)
	if err != nil {
		return err
	}

	fmt.Println()
	if err := report.Terminal(os.Stdout, append(inputs, outputs...), width, height); err != nil {
		return err
	}

	if plotsDir != "" {
		return writeFigures(plotsDir, inputs, outputs)
	}
	return nil
}
