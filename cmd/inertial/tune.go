package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"github.com/san-kum/inertial/internal/control"
	"github.com/san-kum/inertial/internal/experiment"
	"github.com/san-kum/inertial/internal/optim"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

var (
	tuneParams []string
	tuneMetric string
)

func tuneCommand() *cobra.Command {
	tuneCmd := &cobra.Command{
		Use:   "tune [scenario]",
		Short: "grid-search controller gains on a scenario",
		Long: "Runs the scenario once per gain combination and reports the best.\n" +
			"Tunable gains: " + strings.Join(control.Tunables(), ", "),
		Args: cobra.MaximumNArgs(1),
		RunE: tuneGains,
	}
	addScenarioFlags(tuneCmd)
	tuneCmd.Flags().StringArrayVar(&tuneParams, "param", nil, "gain grid as name=v1,v2,... (repeatable)")
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", optim.MetricTime, "metric to minimize")
	return tuneCmd
}

// parseGrid turns name=v1,v2 flags into search axes.
func parseGrid(specs []string) ([]string, [][]float64, error) {
	if len(specs) == 0 {
		return nil, nil, errors.New("at least one --param is required")
	}
	names := make([]string, 0, len(specs))
	ranges := make([][]float64, 0, len(specs))
	for _, spec := range specs {
		name, list, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, nil, errors.Errorf("bad --param %q, want name=v1,v2", spec)
		}
		var values []float64
		for _, field := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, nil, errors.Wrapf(err, "--param %s", name)
			}
			values = append(values, v)
		}
		names = append(names, strings.TrimSpace(name))
		ranges = append(ranges, values)
	}
	return names, ranges, nil
}

func tuneGains(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(cmd, args)
	if err != nil {
		return err
	}
	names, ranges, err := parseGrid(tuneParams)
	if err != nil {
		return err
	}
	grid, err := optim.NewGridSearch(names, ranges)
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

	fmt.Printf("tuning %s over %d combinations (minimizing %s)...\n", cfg.Name, grid.Size(), tuneMetric)
	start := time.Now()
	res, err := grid.Search(ctx, optim.ScenarioObjective(cfg, experiment.NewRegistry(), tuneMetric, logger))
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n\n", time.Since(start))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "GAIN\tBEST")
	for _, name := range names {
		fmt.Fprintf(w, "%s\t%g\n", name, res.Params[name])
	}
	fmt.Fprintf(w, "%s\t%.6g\n", tuneMetric, res.Value)
	if err := w.Flush(); err != nil {
		return err
	}
	if failed := multierr.Errors(res.Failed); len(failed) > 0 {
		fmt.Printf("\n%d of %d combinations failed; first: %v\n", len(failed), res.Evaluated, failed[0])
	}
	return nil
}
