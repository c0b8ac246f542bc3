package experiment

import (
	"context"

	"github.com/pkg/errors"
	"github.com/san-kum/inertial/internal/config"
	"github.com/san-kum/inertial/internal/control"
	"github.com/san-kum/inertial/internal/dynamo"
	"github.com/san-kum/inertial/internal/physics"
	"github.com/san-kum/inertial/internal/sim"
	"go.uber.org/zap"
)

// Experiment is a scenario turned into a populated Simulator.
type Experiment struct {
	cfg       *config.Config
	simulator *sim.Simulator
	forces    []physics.ForceSource
	handles   map[string]sim.Handle
}

// Build validates cfg, creates every ship and issues the standing intents.
func Build(cfg *config.Config, reg *Registry, logger *zap.Logger) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	integ, err := reg.GetIntegrator(cfg.Integrator)
	if err != nil {
		return nil, err
	}
	forces := Forces(cfg.Gravity)

	e := &Experiment{
		cfg:     cfg,
		forces:  forces,
		handles: make(map[string]sim.Handle, len(cfg.Ships)),
		simulator: sim.New(sim.Config{
			Workers:    cfg.Workers,
			Integrator: integ,
			Forces:     forces,
			Logger:     logger,
		}),
	}

	for _, s := range cfg.Ships {
		sc, err := shipConfig(s, reg)
		if err != nil {
			return nil, errors.Wrapf(err, "ship %q", s.Name)
		}
		h, err := e.simulator.CreateShip(sc)
		if err != nil {
			return nil, err
		}
		e.handles[s.Name] = h
	}

	for _, s := range cfg.Ships {
		if err := e.issue(s); err != nil {
			return nil, errors.Wrapf(err, "ship %q", s.Name)
		}
	}

	for _, m := range reg.DefaultMetrics(forces) {
		e.simulator.AddMetric(m)
	}
	logger.Info("scenario built",
		zap.String("scenario", cfg.Name),
		zap.Int("ships", len(cfg.Ships)),
		zap.String("integrator", integ.Name()))
	return e, nil
}

func (e *Experiment) issue(s config.Ship) error {
	kind, err := s.Intent.ParseKind()
	if err != nil {
		return err
	}
	h := e.handles[s.Name]
	switch kind {
	case control.KindIdle:
		return nil
	case control.KindMatchVelocity:
		return e.simulator.SetIntent(h, control.MatchVelocity(s.Intent.Velocity.Vector()))
	case control.KindHoldAttitude:
		return e.simulator.SetIntent(h, control.HoldAttitude(s.Intent.Attitude.Quaternion()))
	}

	target := e.handles[s.Intent.Target]
	param := s.Intent.Standoff
	if kind == control.KindPointAt {
		param = s.Intent.Speed
	}
	return e.simulator.Follow(h, target, kind, param)
}

// shipConfig resolves the hull preset and applies explicit overrides.
func shipConfig(s config.Ship, reg *Registry) (sim.ShipConfig, error) {
	var hull physics.Hull
	if s.Hull != "" {
		h, err := reg.GetHull(s.Hull)
		if err != nil {
			return sim.ShipConfig{}, err
		}
		hull = h
	}
	if s.Mass != 0 {
		hull.Mass = s.Mass
	}
	if s.Inertia != nil {
		hull.Inertia = dynamo.Diag(s.Inertia[0], s.Inertia[1], s.Inertia[2])
	}
	if len(s.Thrusters) > 0 {
		hull.Thrusters = make([]physics.ThrusterSpec, len(s.Thrusters))
		for i, t := range s.Thrusters {
			hull.Thrusters[i] = physics.ThrusterSpec{
				Name:          t.Name,
				Mount:         t.Mount.Vector(),
				Direction:     t.Direction.Vector(),
				MaxForce:      t.MaxForce,
				Bidirectional: t.Bidirectional,
			}
		}
	}

	return sim.ShipConfig{
		Name:      s.Name,
		Mass:      hull.Mass,
		Inertia:   hull.Inertia,
		Thrusters: hull.Thrusters,
		Gains:     s.Gains,
		Initial: sim.Initial{
			Position:        s.Position.Vector(),
			Velocity:        s.Velocity.Vector(),
			Orientation:     s.Attitude.Quaternion(),
			AngularVelocity: s.AngularVelocity.Vector(),
		},
	}, nil
}

// Forces converts gravity entries into force sources.
func Forces(gravity []config.Gravity) []physics.ForceSource {
	forces := make([]physics.ForceSource, 0, len(gravity))
	for _, g := range gravity {
		switch g.Kind {
		case "uniform":
			forces = append(forces, physics.UniformField{Acceleration: g.Acceleration.Vector()})
		case "point":
			forces = append(forces, physics.PointGravity{Center: g.Center.Vector(), Mu: g.Mu, MinRadius: g.MinRadius})
		}
	}
	return forces
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	return e.simulator.Run(ctx, sim.RunConfig{
		Dt:           e.cfg.Dt,
		Duration:     e.cfg.Duration,
		StopWhenIdle: e.cfg.StopWhenIdle,
	})
}

// Simulator returns the underlying simulator for adding observers
func (e *Experiment) Simulator() *sim.Simulator { return e.simulator }

func (e *Experiment) Config() *config.Config { return e.cfg }

func (e *Experiment) Forces() []physics.ForceSource { return e.forces }

func (e *Experiment) Handle(name string) (sim.Handle, bool) {
	h, ok := e.handles[name]
	return h, ok
}
