package sim

import (
	"context"
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/san-kum/inertial/internal/control"
	"github.com/san-kum/inertial/internal/dynamo"
	"github.com/san-kum/inertial/internal/logging"
	"github.com/san-kum/inertial/internal/physics"
	"go.uber.org/zap/zapcore"
)

func hullConfig(name string, h physics.Hull, init Initial) ShipConfig {
	return ShipConfig{Name: name, Mass: h.Mass, Inertia: h.Inertia, Thrusters: h.Thrusters, Initial: init}
}

func mustCreate(t *testing.T, s *Simulator, cfg ShipConfig) Handle {
	t.Helper()
	h, err := s.CreateShip(cfg)
	if err != nil {
		t.Fatalf("create %s: %v", cfg.Name, err)
	}
	return h
}

func TestCreateShipValidation(t *testing.T) {
	rcs := physics.NewRCS()
	tests := []struct {
		name   string
		mutate func(*ShipConfig)
	}{
		{"zero mass", func(c *ShipConfig) { c.Mass = 0 }},
		{"NaN mass", func(c *ShipConfig) { c.Mass = math.NaN() }},
		{"singular inertia", func(c *ShipConfig) { c.Inertia = dynamo.Diag(1, 1, 0) }},
		{"asymmetric inertia", func(c *ShipConfig) { c.Inertia[0][1] = 5 }},
		{"zero thruster direction", func(c *ShipConfig) { c.Thrusters[0].Direction = r3.Vector{} }},
		{"negative thrust", func(c *ShipConfig) { c.Thrusters[1].MaxForce = -1 }},
		{"bad gains", func(c *ShipConfig) { g := control.DefaultGains(); g.VelocityKp = -1; c.Gains = &g }},
		{"non-finite start", func(c *ShipConfig) { c.Initial.Position.X = math.Inf(1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := hullConfig("bad", rcs, Initial{})
			cfg.Thrusters = append([]physics.ThrusterSpec(nil), rcs.Thrusters...)
			tt.mutate(&cfg)

			_, err := New(Config{}).CreateShip(cfg)
			if !errors.Is(err, dynamo.ErrConfig) {
				t.Errorf("err = %v, want ErrConfig", err)
			}
		})
	}
}

func TestHandles(t *testing.T) {
	s := New(Config{})
	a := mustCreate(t, s, hullConfig("a", physics.NewProbe(), Initial{}))
	b := mustCreate(t, s, hullConfig("b", physics.NewProbe(), Initial{Position: r3.Vector{X: 10}}))

	if got := s.Ships(); len(got) != 2 || got[0] != a || got[1] != b {
		t.Fatalf("Ships() = %v", got)
	}
	if err := s.RemoveShip(a); err != nil {
		t.Fatal(err)
	}
	if err := s.RemoveShip(a); !errors.Is(err, dynamo.ErrUnknownShip) {
		t.Errorf("double remove err = %v", err)
	}
	if _, err := s.QueryState(a); !errors.Is(err, dynamo.ErrUnknownShip) {
		t.Errorf("stale query err = %v", err)
	}

	c := mustCreate(t, s, hullConfig("c", physics.NewProbe(), Initial{}))
	if c == a {
		t.Error("reused slot must not revive the stale handle")
	}
	if _, err := s.QueryState(a); !errors.Is(err, dynamo.ErrUnknownShip) {
		t.Errorf("stale handle after reuse err = %v", err)
	}
	if st, err := s.QueryState(b); err != nil || st.Position.X != 10 {
		t.Errorf("b = %v, %v", st.Position, err)
	}
	if err := s.SetIntent(Handle{slot: 9}, control.Idle()); !errors.Is(err, dynamo.ErrUnknownShip) {
		t.Errorf("unknown handle err = %v", err)
	}
}

func TestTickRejectsBadDt(t *testing.T) {
	s := New(Config{})
	for _, dt := range []float64{0, -0.1, math.NaN(), math.Inf(1)} {
		if _, err := s.Tick(dt); !errors.Is(err, dynamo.ErrConfig) {
			t.Errorf("Tick(%v) err = %v", dt, err)
		}
	}
	if s.Steps() != 0 {
		t.Errorf("rejected ticks advanced the clock")
	}
}

func TestTickCoastsIdleShips(t *testing.T) {
	s := New(Config{})
	h := mustCreate(t, s, hullConfig("drift", physics.NewRCS(), Initial{Velocity: r3.Vector{X: 2, Y: -1}}))

	for i := 0; i < 10; i++ {
		f, err := s.Tick(0.1)
		if err != nil {
			t.Fatal(err)
		}
		if len(f.Ships) != 1 || f.Ships[0].Handle != h {
			t.Fatalf("frame ships = %+v", f.Ships)
		}
	}
	st, _ := s.QueryState(h)
	want := r3.Vector{X: 2, Y: -1}
	if st.Position.Sub(want).Norm() > 1e-9 {
		t.Errorf("position = %v, want %v", st.Position, want)
	}
	if math.Abs(s.Time()-1) > 1e-12 {
		t.Errorf("time = %v", s.Time())
	}
}

func TestSingleThrusterScenario(t *testing.T) {
	// One +x 500 N thruster on 1000 kg, fully commanded for one 0.1 s tick.
	s := New(Config{})
	h := mustCreate(t, s, hullConfig("probe", physics.NewProbe(), Initial{}))
	if err := s.SetIntent(h, control.MatchVelocity(r3.Vector{X: 100})); err != nil {
		t.Fatal(err)
	}
	f, err := s.Tick(0.1)
	if err != nil {
		t.Fatal(err)
	}
	if f.Ships[0].Command[0] < 1-1e-12 {
		t.Fatalf("command = %v, want full thrust", f.Ships[0].Command)
	}
	st := f.Ships[0].State
	if math.Abs(st.Velocity().X-0.05) > 1e-9 {
		t.Errorf("vx = %v, want 0.05", st.Velocity().X)
	}
	if math.Abs(st.Position.X-0.005) > 1e-10 {
		t.Errorf("x = %v, want 0.005", st.Position.X)
	}
}

func buildFleet(t *testing.T, workers int) (*Simulator, []Handle) {
	s := New(Config{
		Workers: workers,
		Forces:  []physics.ForceSource{physics.PointGravity{Center: r3.Vector{Z: -5000}, Mu: 2e5, MinRadius: 100}},
	})
	hs := []Handle{
		mustCreate(t, s, hullConfig("lead", physics.NewRCS(), Initial{Velocity: r3.Vector{Y: 3}})),
		mustCreate(t, s, hullConfig("wing", physics.NewRCS(), Initial{Position: r3.Vector{X: -300, Y: 40}})),
		mustCreate(t, s, hullConfig("hunter", physics.NewShuttle(), Initial{Position: r3.Vector{X: 500, Z: 80}})),
		mustCreate(t, s, hullConfig("turret", physics.NewGimbal(), Initial{Position: r3.Vector{Y: -200}})),
		mustCreate(t, s, hullConfig("probe", physics.NewProbe(), Initial{AngularVelocity: r3.Vector{Z: 0.1}})),
	}
	if err := s.SetIntent(hs[0], control.MatchVelocity(r3.Vector{X: 4, Y: 3})); err != nil {
		t.Fatal(err)
	}
	if err := s.Follow(hs[1], hs[0], control.KindApproach, 25); err != nil {
		t.Fatal(err)
	}
	if err := s.Follow(hs[2], hs[0], control.KindIntercept, 0); err != nil {
		t.Fatal(err)
	}
	if err := s.Follow(hs[3], hs[0], control.KindPointAt, 400); err != nil {
		t.Fatal(err)
	}
	if err := s.SetIntent(hs[4], control.MatchVelocity(r3.Vector{X: 1})); err != nil {
		t.Fatal(err)
	}
	return s, hs
}

func TestParallelMatchesSequential(t *testing.T) {
	seq, hs := buildFleet(t, 1)
	par, _ := buildFleet(t, 4)

	for i := 0; i < 300; i++ {
		fs, err := seq.Tick(0.1)
		if err != nil {
			t.Fatal(err)
		}
		fp, err := par.Tick(0.1)
		if err != nil {
			t.Fatal(err)
		}
		for j := range fs.Ships {
			a, b := fs.Ships[j], fp.Ships[j]
			if a.State.Position != b.State.Position ||
				a.State.LinearMomentum != b.State.LinearMomentum ||
				a.State.AngularMomentum != b.State.AngularMomentum ||
				a.State.Orientation != b.State.Orientation ||
				a.Mode != b.Mode {
				t.Fatalf("tick %d ship %s diverged", i, a.Name)
			}
		}
	}
	if len(hs) != len(seq.Ships()) {
		t.Errorf("ships = %d", len(seq.Ships()))
	}
}

func TestSetIntentRejectsNonFiniteTarget(t *testing.T) {
	s := New(Config{})
	h := mustCreate(t, s, hullConfig("hunter", physics.NewRCS(), Initial{}))
	bad := physics.Snapshot(r3.Vector{X: math.NaN()}, r3.Vector{})
	if err := s.SetIntent(h, control.Intercept(bad)); !errors.Is(err, dynamo.ErrConfig) {
		t.Fatalf("err = %v, want ErrConfig", err)
	}
	if mode, _ := s.Mode(h); mode != control.ModeIdle {
		t.Errorf("mode = %v, want idle", mode)
	}
}

func TestInterceptMovingTargetSnapshot(t *testing.T) {
	s := New(Config{})
	h := mustCreate(t, s, hullConfig("hunter", physics.NewRCS(), Initial{}))
	start, velocity := r3.Vector{X: 200}, r3.Vector{Y: 10}
	if err := s.SetIntent(h, control.Intercept(physics.Snapshot(start, velocity))); err != nil {
		t.Fatal(err)
	}

	const dt = 0.05
	hit := math.Inf(1)
	for s.Time() < 120 {
		before, _ := s.QueryState(h)
		t0 := s.Time()
		if _, err := s.Tick(dt); err != nil {
			t.Fatal(err)
		}
		if mode, _ := s.Mode(h); mode == control.ModeIdle {
			hit = start.Add(velocity.Mul(t0)).Sub(before.Position).Norm()
			break
		}
	}
	if math.IsInf(hit, 1) {
		t.Fatal("intercept never completed")
	}
	if radius := control.DefaultGains().InterceptRadius; hit >= radius {
		t.Errorf("range to live target at completion = %.2f, want < %g", hit, radius)
	}
}

func TestFollowValidation(t *testing.T) {
	s := New(Config{})
	a := mustCreate(t, s, hullConfig("a", physics.NewRCS(), Initial{}))
	b := mustCreate(t, s, hullConfig("b", physics.NewRCS(), Initial{Position: r3.Vector{X: 100}}))

	if err := s.Follow(a, b, control.KindMatchVelocity, 0); !errors.Is(err, dynamo.ErrConfig) {
		t.Errorf("untargeted kind err = %v", err)
	}
	if err := s.Follow(a, a, control.KindApproach, 10); !errors.Is(err, dynamo.ErrConfig) {
		t.Errorf("self follow err = %v", err)
	}
	if err := s.Follow(a, Handle{slot: 7}, control.KindApproach, 10); !errors.Is(err, dynamo.ErrUnknownShip) {
		t.Errorf("unknown target err = %v", err)
	}
}

func TestFollowTargetRemoved(t *testing.T) {
	s := New(Config{})
	a := mustCreate(t, s, hullConfig("a", physics.NewRCS(), Initial{}))
	b := mustCreate(t, s, hullConfig("b", physics.NewRCS(), Initial{Position: r3.Vector{X: 100}}))
	if err := s.Follow(a, b, control.KindApproach, 10); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Tick(0.1); err != nil {
		t.Fatal(err)
	}
	if err := s.RemoveShip(b); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Tick(0.1); err != nil {
		t.Fatal(err)
	}
	if m, _ := s.Mode(a); m != control.ModeIdle {
		t.Errorf("mode = %v, want idle after target removal", m)
	}
}

func TestFollowStationKeepingLogsOnce(t *testing.T) {
	logger, logs := logging.NewObserved(zapcore.DebugLevel)
	s := New(Config{Logger: logger})
	hunter := mustCreate(t, s, hullConfig("hunter", physics.NewRCS(), Initial{}))
	target := mustCreate(t, s, hullConfig("target", physics.NewRCS(), Initial{Position: r3.Vector{X: 2}}))
	if err := s.Follow(hunter, target, control.KindIntercept, 0); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 5; i++ {
		f, err := s.Tick(0.1)
		if err != nil {
			t.Fatal(err)
		}
		if f.Ships[0].Mode != control.ModeIdle {
			t.Errorf("tick %d: mode = %v, want idle inside intercept radius", i, f.Ships[0].Mode)
		}
	}
	if got := logs.FilterMessage("intent satisfied").Len(); got != 1 {
		t.Errorf("satisfied logged %d times, want 1", got)
	}
	if in, _ := s.Intent(hunter); in.Kind != control.KindIntercept {
		t.Errorf("follow link should keep the intent, got %v", in.Kind)
	}
}

type nanField struct{}

func (nanField) Name() string { return "nan" }
func (nanField) Wrench(physics.State) dynamo.Wrench {
	return dynamo.Wrench{Force: r3.Vector{X: math.NaN()}}
}

func TestInvalidStateReported(t *testing.T) {
	s := New(Config{Forces: []physics.ForceSource{nanField{}}})
	h := mustCreate(t, s, hullConfig("doomed", physics.NewProbe(), Initial{Position: r3.Vector{Y: 3}}))

	_, err := s.Tick(0.1)
	var simErr *dynamo.SimulationError
	if !errors.As(err, &simErr) {
		t.Fatalf("err = %v, want SimulationError", err)
	}
	if simErr.Ship != "doomed" || simErr.Step != 0 {
		t.Errorf("context = %+v", simErr)
	}
	if !errors.Is(err, dynamo.ErrInvalidState) {
		t.Errorf("err should wrap ErrInvalidState")
	}
	st, _ := s.QueryState(h)
	if !st.IsValid() || st.Position.Y != 3 {
		t.Errorf("state should be left at its last valid value, got %v", st.Position)
	}
}

type countMetric struct{ n int }

func (m *countMetric) Name() string   { return "count" }
func (m *countMetric) Observe(Frame)  { m.n++ }
func (m *countMetric) Value() float64 { return float64(m.n) }
func (m *countMetric) Reset()         { m.n = 0 }

type recorder struct{ steps []int }

func (r *recorder) OnStep(f Frame) { r.steps = append(r.steps, f.Step) }

func TestRun(t *testing.T) {
	s := New(Config{})
	mustCreate(t, s, hullConfig("a", physics.NewRCS(), Initial{}))
	m := &countMetric{}
	rec := &recorder{}
	s.AddMetric(m)
	s.AddObserver(rec)

	result, err := s.Run(context.Background(), RunConfig{Dt: 0.1, Duration: 1.0})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Frames) != 11 {
		t.Errorf("frames = %d, want 11", len(result.Frames))
	}
	if result.StepsTaken != 10 || m.n != 10 || len(rec.steps) != 10 {
		t.Errorf("steps = %d, metric = %d, observer = %d", result.StepsTaken, m.n, len(rec.steps))
	}
	if result.Metrics["count"] != 10 {
		t.Errorf("metrics = %v", result.Metrics)
	}
	if got := result.Names(); len(got) != 1 || got[0] != "a" {
		t.Errorf("names = %v", got)
	}
}

func TestRunInvalidConfig(t *testing.T) {
	s := New(Config{})
	tests := []struct {
		name string
		cfg  RunConfig
	}{
		{"zero dt", RunConfig{Dt: 0, Duration: 1.0}},
		{"negative dt", RunConfig{Dt: -0.1, Duration: 1.0}},
		{"zero duration", RunConfig{Dt: 0.1, Duration: 0}},
		{"negative duration", RunConfig{Dt: 0.1, Duration: -1.0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Run(context.Background(), tt.cfg); !errors.Is(err, dynamo.ErrConfig) {
				t.Errorf("err = %v, want ErrConfig", err)
			}
		})
	}
}

func TestRunCancelled(t *testing.T) {
	s := New(Config{})
	mustCreate(t, s, hullConfig("a", physics.NewRCS(), Initial{}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := s.Run(ctx, RunConfig{Dt: 0.1, Duration: 10})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
	if result.StepsTaken != 0 {
		t.Errorf("steps = %d", result.StepsTaken)
	}
}

func TestRunStopWhenIdle(t *testing.T) {
	s := New(Config{})
	h := mustCreate(t, s, hullConfig("a", physics.NewRCS(), Initial{}))
	if err := s.SetIntent(h, control.MatchVelocity(r3.Vector{X: 1})); err != nil {
		t.Fatal(err)
	}
	result, err := s.Run(context.Background(), RunConfig{Dt: 0.1, Duration: 600, StopWhenIdle: true})
	if err != nil {
		t.Fatal(err)
	}
	if result.StepsTaken >= 6000 {
		t.Error("run did not stop when idle")
	}
	st, _ := s.QueryState(h)
	if math.Abs(st.Velocity().X-1) > 0.01 {
		t.Errorf("vx = %v", st.Velocity().X)
	}
}
