package sim

import (
	"context"
	"math"

	"github.com/pkg/errors"
	"github.com/san-kum/inertial/internal/control"
	"github.com/san-kum/inertial/internal/dynamo"
	"github.com/san-kum/inertial/internal/integrators"
	"github.com/san-kum/inertial/internal/physics"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/num/quat"
)

type follow struct {
	target Handle
	kind   control.Kind
	param  float64
}

type ship struct {
	name  string
	gen   uint32
	alive bool

	state physics.State
	model *physics.ThrusterModel
	ctrl  *control.FlightController
	link  *follow

	out      control.Output
	thrust   dynamo.Wrench
	err      error
	fallback bool
	// settled is set while a follow intent keeps completing on re-issue.
	settled bool
}

// Simulator owns every ship and advances them in fixed steps.
// It is not safe for concurrent use.
type Simulator struct {
	integ     integrators.Integrator
	forces    []physics.ForceSource
	workers   int
	logger    *zap.Logger
	ships     []*ship
	free      []int
	time      float64
	step      int
	metrics   []Metric
	observers []Observer
}

func New(cfg Config) *Simulator {
	integ := cfg.Integrator
	if integ == nil {
		integ = integrators.NewSemiImplicitEuler()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Simulator{
		integ:     integ,
		forces:    cfg.Forces,
		workers:   max(cfg.Workers, 1),
		logger:    logger,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Time() float64 { return s.time }
func (s *Simulator) Steps() int    { return s.step }

// CreateShip validates cfg and adds a ship at its initial state.
func (s *Simulator) CreateShip(cfg ShipConfig) (Handle, error) {
	state, err := physics.NewState(cfg.Mass, cfg.Inertia)
	if err != nil {
		return Handle{}, errors.Wrapf(err, "ship %q", cfg.Name)
	}
	model, err := physics.NewThrusterModel(cfg.Thrusters)
	if err != nil {
		return Handle{}, errors.Wrapf(err, "ship %q", cfg.Name)
	}
	gains := control.DefaultGains()
	if cfg.Gains != nil {
		gains = *cfg.Gains
	}
	ctrl, err := control.NewFlightController(model, gains)
	if err != nil {
		return Handle{}, errors.Wrapf(err, "ship %q", cfg.Name)
	}

	init := cfg.Initial
	if init.Orientation == (quat.Number{}) {
		init.Orientation = dynamo.Identity
	}
	if !dynamo.IsFiniteVec(init.Position) || !dynamo.IsFiniteVec(init.Velocity) || !dynamo.IsFiniteVec(init.AngularVelocity) {
		return Handle{}, errors.Wrapf(dynamo.NewConfigError("initial", "must be finite"), "ship %q", cfg.Name)
	}
	state = state.WithPose(init.Position, init.Orientation).
		WithVelocity(init.Velocity).
		WithAngularVelocity(init.AngularVelocity)

	sh := &ship{name: cfg.Name, alive: true, state: state, model: model, ctrl: ctrl}
	var h Handle
	if n := len(s.free); n > 0 {
		slot := s.free[n-1]
		s.free = s.free[:n-1]
		sh.gen = s.ships[slot].gen + 1
		s.ships[slot] = sh
		h = Handle{slot: slot, gen: sh.gen}
	} else {
		s.ships = append(s.ships, sh)
		h = Handle{slot: len(s.ships) - 1}
	}

	s.logger.Debug("ship created",
		zap.String("ship", sh.name),
		zap.Stringer("handle", h),
		zap.Int("thrusters", model.Len()),
		zap.Float64("mass", cfg.Mass))
	return h, nil
}

func (s *Simulator) lookup(h Handle) (*ship, error) {
	if h.slot < 0 || h.slot >= len(s.ships) {
		return nil, errors.Wrapf(dynamo.ErrUnknownShip, "%s", h)
	}
	sh := s.ships[h.slot]
	if !sh.alive || sh.gen != h.gen {
		return nil, errors.Wrapf(dynamo.ErrUnknownShip, "%s", h)
	}
	return sh, nil
}

// RemoveShip tears a ship down. Ships following it stop at the next tick.
func (s *Simulator) RemoveShip(h Handle) error {
	sh, err := s.lookup(h)
	if err != nil {
		return err
	}
	sh.alive = false
	sh.link = nil
	s.free = append(s.free, h.slot)
	s.logger.Debug("ship removed", zap.String("ship", sh.name), zap.Stringer("handle", h))
	return nil
}

// SetIntent replaces the ship's intent and drops any follow link. A targeted
// intent's snapshot is advanced at its velocity while the intent is tracked.
func (s *Simulator) SetIntent(h Handle, in control.Intent) error {
	sh, err := s.lookup(h)
	if err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return err
	}
	sh.link = nil
	sh.settled = false
	sh.ctrl.SetIntent(in)
	s.logger.Debug("intent set", zap.String("ship", sh.name), zap.Stringer("intent", in.Kind))
	return nil
}

// Follow keeps a targeted intent pointed at another ship, refreshed from its
// start-of-tick state. param is the standoff for Approach and the projectile
// speed for PointAt.
func (s *Simulator) Follow(h, target Handle, kind control.Kind, param float64) error {
	sh, err := s.lookup(h)
	if err != nil {
		return err
	}
	tgt, err := s.lookup(target)
	if err != nil {
		return err
	}
	if !kind.Targeted() {
		return dynamo.NewConfigError("follow.kind", "%s does not take a target", kind)
	}
	if h == target {
		return dynamo.NewConfigError("follow.target", "ship cannot follow itself")
	}
	sh.link = &follow{target: target, kind: kind, param: param}
	sh.settled = false
	sh.ctrl.SetIntent(followIntent(kind, tgt.state, param))
	s.logger.Debug("follow set",
		zap.String("ship", sh.name),
		zap.String("target", tgt.name),
		zap.Stringer("intent", kind))
	return nil
}

func followIntent(kind control.Kind, target physics.State, param float64) control.Intent {
	switch kind {
	case control.KindApproach:
		return control.Approach(target, param)
	case control.KindPointAt:
		return control.PointAt(target, param)
	default:
		return control.Intercept(target)
	}
}

func (s *Simulator) QueryState(h Handle) (physics.State, error) {
	sh, err := s.lookup(h)
	if err != nil {
		return physics.State{}, err
	}
	return sh.state, nil
}

func (s *Simulator) Mode(h Handle) (control.Mode, error) {
	sh, err := s.lookup(h)
	if err != nil {
		return control.ModeIdle, err
	}
	return sh.ctrl.Mode(), nil
}

func (s *Simulator) Intent(h Handle) (control.Intent, error) {
	sh, err := s.lookup(h)
	if err != nil {
		return control.Intent{}, err
	}
	return sh.ctrl.Intent(), nil
}

// Ships returns live handles in slot order.
func (s *Simulator) Ships() []Handle {
	out := make([]Handle, 0, len(s.ships))
	for i, sh := range s.ships {
		if sh.alive {
			out = append(out, Handle{slot: i, gen: sh.gen})
		}
	}
	return out
}

// Tick advances every live ship by dt. Targets are read from the state at the
// start of the tick, so ship order and worker count do not affect the result.
func (s *Simulator) Tick(dt float64) (Frame, error) {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return Frame{}, dynamo.NewConfigError("dt", "must be positive and finite, got %g", dt)
	}

	s.refreshFollows()

	snapshot := make([]physics.State, len(s.ships))
	for i, sh := range s.ships {
		snapshot[i] = sh.state
	}
	t := s.time

	dynamo.ParallelFor(len(s.ships), s.workers, func(start, end int) {
		for i := start; i < end; i++ {
			if sh := s.ships[i]; sh.alive {
				s.advance(sh, snapshot[i], t, dt)
			}
		}
	})

	var firstErr error
	for i, sh := range s.ships {
		if !sh.alive {
			continue
		}
		s.report(sh)
		if sh.err != nil && firstErr == nil {
			firstErr = &dynamo.SimulationError{Step: s.step, Time: t, Ship: sh.name, Wrapped: sh.err}
			s.logger.Error("invalid state",
				zap.String("ship", sh.name),
				zap.Int("slot", i),
				zap.Int("step", s.step),
				zap.Error(sh.err))
		}
	}

	s.time += dt
	s.step++
	return s.frame(), firstErr
}

// refreshFollows re-issues follow intents from the current target states.
func (s *Simulator) refreshFollows() {
	for _, sh := range s.ships {
		if !sh.alive || sh.link == nil {
			continue
		}
		tgt, err := s.lookup(sh.link.target)
		if err != nil {
			s.logger.Warn("follow target gone", zap.String("ship", sh.name), zap.Stringer("target", sh.link.target))
			sh.link = nil
			sh.ctrl.Cancel()
			continue
		}
		if sh.ctrl.Intent().Kind == sh.link.kind && sh.ctrl.Retarget(tgt.state) {
			continue
		}
		sh.ctrl.SetIntent(followIntent(sh.link.kind, tgt.state, sh.link.param))
	}
}

// advance runs one ship's control and integration. It touches only sh.
func (s *Simulator) advance(sh *ship, state physics.State, t, dt float64) {
	ext := physics.SumWrench(s.forces, state)
	out := sh.ctrl.Update(control.Input{State: state, Time: t, Dt: dt, External: ext})
	sh.out = out
	sh.err = nil

	thrust, err := sh.model.ComputeWrench(state.Orientation, out.Command)
	if err != nil {
		sh.err = err
		return
	}
	sh.thrust = thrust

	next := s.integ.Step(state, thrust.Add(ext), dt)
	if !next.IsValid() {
		sh.err = dynamo.ErrInvalidState
		return
	}
	sh.state = next
}

// report logs controller transitions for one ship after a tick. A follow link
// re-issues a satisfied intent every tick; only the first completion is logged.
func (s *Simulator) report(sh *ship) {
	out := sh.out
	if out.Satisfied && !sh.settled {
		s.logger.Debug("intent satisfied",
			zap.String("ship", sh.name),
			zap.Stringer("intent", sh.ctrl.Intent().Kind),
			zap.Int("step", s.step))
	}
	if out.Fallback && !sh.fallback {
		s.logger.Warn("holding attitude",
			zap.String("ship", sh.name),
			zap.Stringer("intent", sh.ctrl.Intent().Kind),
			zap.Error(out.Err))
	}
	sh.fallback = out.Fallback
	sh.settled = out.Satisfied
}

func (s *Simulator) frame() Frame {
	f := Frame{Step: s.step, Time: s.time, Ships: make([]Snapshot, 0, len(s.ships))}
	for i, sh := range s.ships {
		if !sh.alive {
			continue
		}
		f.Ships = append(f.Ships, Snapshot{
			Handle:  Handle{slot: i, gen: sh.gen},
			Name:    sh.name,
			State:   sh.state,
			Mode:    sh.ctrl.Mode(),
			Intent:  sh.ctrl.Intent().Kind,
			Command: sh.out.Command,
			Thrust:  sh.thrust,
			Err:     sh.out.Err,
		})
	}
	return f
}

// Frame returns the current state of every live ship without advancing.
func (s *Simulator) Frame() Frame { return s.frame() }

func (s *Simulator) idle() bool {
	for _, sh := range s.ships {
		if sh.alive && sh.ctrl.Mode() == control.ModeTracking {
			return false
		}
	}
	return true
}

// Run ticks until Duration, feeding metrics and observers. The context is
// checked between ticks.
func (s *Simulator) Run(ctx context.Context, cfg RunConfig) (*Result, error) {
	if err := validateRun(cfg); err != nil {
		return nil, err
	}

	steps := int(math.Round(cfg.Duration / cfg.Dt))
	result := &Result{
		Frames:  make([]Frame, 0, steps+1),
		Metrics: make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	result.Frames = append(result.Frames, s.frame())

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		f, err := s.Tick(cfg.Dt)
		if err != nil {
			return result, err
		}
		result.StepsTaken++
		result.Frames = append(result.Frames, f)

		for _, m := range s.metrics {
			m.Observe(f)
		}
		for _, obs := range s.observers {
			obs.OnStep(f)
		}

		if cfg.StopWhenIdle && s.idle() {
			break
		}
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	s.logger.Debug("run finished",
		zap.Int("steps", result.StepsTaken),
		zap.Float64("time", s.time))
	return result, nil
}

func validateRun(cfg RunConfig) error {
	if !(cfg.Dt > 0) || math.IsInf(cfg.Dt, 0) {
		return dynamo.NewConfigError("dt", "must be positive, got %g", cfg.Dt)
	}
	if !(cfg.Duration > 0) {
		return dynamo.NewConfigError("duration", "must be positive, got %g", cfg.Duration)
	}
	return nil
}
