package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/benbjohnson/clock"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/pkg/errors"
	"github.com/san-kum/inertial/internal/config"
	"github.com/san-kum/inertial/internal/experiment"
	"github.com/san-kum/inertial/internal/logging"
	"github.com/san-kum/inertial/internal/metrics"
	"github.com/san-kum/inertial/internal/physics"
	"github.com/san-kum/inertial/internal/sim"
	"github.com/san-kum/inertial/internal/storage"
	"github.com/san-kum/inertial/internal/viz"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	dataDir    string
	logLevel   string
	configFile string
	dt         float64
	duration   float64
	integrator string
	workers    int
	noSave     bool
	speedup    float64
	theme      string
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "inertial",
		Short:        "newtonian flight dynamics and control lab",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".inertial", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run [scenario]",
		Short: "run a preset or scenario file",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScenario,
	}
	addScenarioFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	liveCmd := &cobra.Command{
		Use:   "live [scenario]",
		Short: "run a scenario with live telemetry",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addScenarioFlags(liveCmd)
	liveCmd.Flags().Float64Var(&speedup, "speed", 1, "simulated seconds per wall second")
	liveCmd.Flags().StringVar(&theme, "theme", viz.Themes[0].Name, "color theme ("+strings.Join(viz.ThemeNames(), ", ")+")")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSHIPS\tDURATION\tDT")
			for _, name := range config.ListPresets() {
				cfg := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%d\t%.0fs\t%.3fs\n", name, len(cfg.Ships), cfg.Duration, cfg.Dt)
			}
			return w.Flush()
		},
	}

	compareCmd := &cobra.Command{
		Use:   "compare [scenario] [integrator...]",
		Short: "compare integrators on the same scenario",
		Args:  cobra.MinimumNArgs(1),
		RunE:  compareIntegrators,
	}
	addScenarioFlags(compareCmd)

	rootCmd.AddCommand(runCmd, listCmd, liveCmd, presetsCmd, compareCmd)
	rootCmd.AddCommand(runCommands()...)
	rootCmd.AddCommand(solveCommand(), tuneCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addScenarioFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "scenario file path (yaml)")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	cmd.Flags().StringVar(&integrator, "integrator", config.DefaultIntegrator, "integrator")
	cmd.Flags().IntVar(&workers, "workers", 1, "ships evaluated in parallel per tick")
}

// loadScenario resolves the scenario from --config or a preset name; flags the
// user set explicitly override the file.
func loadScenario(cmd *cobra.Command, args []string) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case configFile != "":
		c, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = c
	case len(args) > 0:
		cfg = config.GetPreset(args[0])
		if cfg == nil {
			return nil, errors.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
		}
	default:
		return nil, errors.New("need a preset name or --config")
	}

	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("time") {
		cfg.Duration = duration
	}
	if cmd.Flags().Changed("integrator") {
		cfg.Integrator = integrator
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = workers
	}
	return cfg, nil
}

func newLogger() (*zap.Logger, error) {
	return logging.New("inertial", logLevel)
}

func interruptContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(cmd, args)
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	exp, err := experiment.Build(cfg, experiment.NewRegistry(), logger)
	if err != nil {
		return err
	}

	ctx, cancel := interruptContext()
	defer cancel()

	fmt.Printf("running %s...\n", cfg.Name)
	start := time.Now()
	result, err := exp.Run(ctx)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("steps: %d (%.1fs simulated)\n", result.StepsTaken, exp.Simulator().Time())

	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(cfg, result)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}

	printFinal(exp.Simulator().Frame())
	fmt.Println("\nmetrics:")
	for _, name := range sortedKeys(result.Metrics) {
		fmt.Printf("  %s: %.6g\n", name, result.Metrics[name])
	}
	return nil
}

func printFinal(f sim.Frame) {
	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SHIP\tINTENT\tMODE\tPOSITION\tSPEED")
	for _, s := range f.Ships {
		p := s.State.Position
		fmt.Fprintf(w, "%s\t%s\t%s\t(%.1f, %.1f, %.1f)\t%.3f\n",
			s.Name, s.Intent, s.Mode, p.X, p.Y, p.Z, s.State.Velocity().Norm())
	}
	w.Flush()
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
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tDURATION\tDT\tINTEG\tSHIPS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%s\t%d\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Integrator,
			len(run.Ships),
		)
	}
	return w.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(cmd, args)
	if err != nil {
		return err
	}
	// the TUI owns the terminal; keep the log quiet unless asked
	if !cmd.Flags().Changed("log-level") {
		logLevel = "error"
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	exp, err := experiment.Build(cfg, experiment.NewRegistry(), logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Duration/speedup*float64(time.Second)))
	defer cancel()

	pacer := sim.NewPacer(exp.Simulator(), clock.New(), cfg.Dt, speedup)
	frames := pacer.Start(ctx)
	m := viz.NewModel(cfg.Name, frames, metrics.Standard(exp.Forces())...).WithTheme(theme)

	_, err = tea.NewProgram(m).Run()
	cancel()
	for range frames {
	}
	return err
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	names := args[1:]
	if len(names) == 0 {
		names = experiment.NewRegistry().ListIntegrators()
	}

	base, err := loadScenario(cmd, args[:1])
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := interruptContext()
	defer cancel()

	fmt.Printf("comparing integrators for %s (dt=%.4f, duration=%.1fs)\n\n", base.Name, base.Dt, base.Duration)
	fmt.Printf("%-14s  %-14s  %-12s  %-12s\n", "integrator", "energy_drift", "final_x0", "time_ms")
	fmt.Println(strings.Repeat("-", 58))

	var series [][]float64
	var legends []string
	for _, name := range names {
		cfg := *base
		cfg.Integrator = name
		exp, err := experiment.Build(&cfg, experiment.NewRegistry(), logger)
		if err != nil {
			fmt.Printf("%-14s  error: %v\n", name, err)
			continue
		}

		start := time.Now()
		result, err := exp.Run(ctx)
		elapsed := time.Since(start)
		if err != nil {
			fmt.Printf("%-14s  error: %v\n", name, err)
			continue
		}

		finalX0 := 0.0
		if last := result.Frames[len(result.Frames)-1]; len(last.Ships) > 0 {
			finalX0 = last.Ships[0].State.Position.X
		}
		fmt.Printf("%-14s  %14.3e  %12.4f  %12.2f\n",
			name, result.Metrics["energy_drift"], finalX0, float64(elapsed.Microseconds())/1000)

		series = append(series, energySeries(result.Frames, exp.Forces()))
		legends = append(legends, name)
	}

	if len(series) > 0 {
		fmt.Println()
		fmt.Println(asciigraph.PlotMany(series,
			asciigraph.Height(12),
			asciigraph.Width(80),
			asciigraph.SeriesLegends(legends...),
			asciigraph.SeriesColors(asciigraph.Green, asciigraph.Red, asciigraph.Blue),
			asciigraph.Caption("mechanical energy (J)"),
		))
	}
	return nil
}

func energySeries(frames []sim.Frame, sources []physics.ForceSource) []float64 {
	out := make([]float64, len(frames))
	for i, f := range frames {
		for _, s := range f.Ships {
			out[i] += s.State.KineticEnergy() + physics.TotalPotential(sources, s.State)
		}
	}
	return out
}
