package optim

import (
	"context"
	"math"

	"github.com/pkg/errors"
	"github.com/san-kum/inertial/internal/config"
	"github.com/san-kum/inertial/internal/control"
	"github.com/san-kum/inertial/internal/experiment"
	"github.com/san-kum/inertial/internal/sim"
	"go.uber.org/zap"
)

// MetricTime scores a run by the simulated time it took. With StopWhenIdle
// this is the time until every intent was satisfied.
const MetricTime = "time"

// ScenarioObjective runs base with the candidate gains applied to every ship
// and returns the named metric. A run that ends with a ship still tracking
// scores +Inf under MetricTime.
func ScenarioObjective(base *config.Config, reg *experiment.Registry, metric string, logger *zap.Logger) Objective {
	return func(ctx context.Context, params map[string]float64) (float64, error) {
		cfg, err := withGains(base, params)
		if err != nil {
			return 0, err
		}
		exp, err := experiment.Build(cfg, reg, logger)
		if err != nil {
			return 0, err
		}
		result, err := exp.Run(ctx)
		if err != nil {
			return 0, err
		}

		if metric == MetricTime {
			if tracking(exp.Simulator().Frame()) {
				return math.Inf(1), nil
			}
			return exp.Simulator().Time(), nil
		}
		val, ok := result.Metrics[metric]
		if !ok {
			return 0, errors.Errorf("run produced no metric %q", metric)
		}
		return val, nil
	}
}

func tracking(f sim.Frame) bool {
	for _, s := range f.Ships {
		if s.Mode == control.ModeTracking {
			return true
		}
	}
	return false
}

// withGains copies base with params applied on top of each ship's gains.
func withGains(base *config.Config, params map[string]float64) (*config.Config, error) {
	cfg := *base
	cfg.Ships = make([]config.Ship, len(base.Ships))
	for i, s := range base.Ships {
		g := control.DefaultGains()
		if s.Gains != nil {
			g = *s.Gains
		}
		for name, v := range params {
			if err := g.Set(name, v); err != nil {
				return nil, err
			}
		}
		s.Gains = &g
		cfg.Ships[i] = s
	}
	return &cfg, nil
}
