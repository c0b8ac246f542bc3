package config

import (
	"fmt"
	"math"
	"os"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/san-kum/inertial/internal/control"
	"github.com/san-kum/inertial/internal/dynamo"
	"github.com/san-kum/inertial/internal/integrators"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/num/quat"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDt         = 0.1
	DefaultDuration   = 120.0
	DefaultIntegrator = "semi_implicit"
)

// Vec3 is written as a flow sequence: [x, y, z].
type Vec3 [3]float64

func (v Vec3) Vector() r3.Vector { return r3.Vector{X: v[0], Y: v[1], Z: v[2]} }

func V(x, y, z float64) Vec3 { return Vec3{x, y, z} }

// IsZero lets yaml omit zero vectors.
func (v Vec3) IsZero() bool { return v == Vec3{} }

// Attitude is an axis-angle orientation in degrees. A zero axis is the identity.
type Attitude struct {
	Axis    Vec3    `yaml:"axis,flow"`
	Degrees float64 `yaml:"degrees"`
}

func (a Attitude) Quaternion() quat.Number {
	return dynamo.FromAxisAngle(a.Axis.Vector(), a.Degrees*math.Pi/180)
}

// Config is one scenario file.
type Config struct {
	Name         string    `yaml:"name"`
	Dt           float64   `yaml:"dt"`
	Duration     float64   `yaml:"duration"`
	Workers      int       `yaml:"workers"`
	Integrator   string    `yaml:"integrator"`
	StopWhenIdle bool      `yaml:"stop_when_idle"`
	Gravity      []Gravity `yaml:"gravity,omitempty"`
	Ships        []Ship    `yaml:"ships,omitempty"`
}

// Gravity is a uniform field or a point mass.
type Gravity struct {
	Kind         string  `yaml:"kind"`
	Acceleration Vec3    `yaml:"acceleration,flow,omitempty"`
	Center       Vec3    `yaml:"center,flow,omitempty"`
	Mu           float64 `yaml:"mu,omitempty"`
	MinRadius    float64 `yaml:"min_radius,omitempty"`
}

// Ship names a hull preset or spells out mass properties and thrusters.
// Explicit fields override the hull's.
type Ship struct {
	Name            string         `yaml:"name"`
	Hull            string         `yaml:"hull,omitempty"`
	Mass            float64        `yaml:"mass,omitempty"`
	Inertia         *Vec3          `yaml:"inertia,flow,omitempty"`
	Thrusters       []Thruster     `yaml:"thrusters,omitempty"`
	Position        Vec3           `yaml:"position,flow,omitempty"`
	Velocity        Vec3           `yaml:"velocity,flow,omitempty"`
	Attitude        Attitude       `yaml:"attitude,omitempty"`
	AngularVelocity Vec3           `yaml:"angular_velocity,flow,omitempty"`
	Gains           *control.Gains `yaml:"gains,omitempty"`
	Intent          Intent         `yaml:"intent,omitempty"`
}

type Thruster struct {
	Name          string  `yaml:"name,omitempty"`
	Mount         Vec3    `yaml:"mount,flow"`
	Direction     Vec3    `yaml:"direction,flow"`
	MaxForce      float64 `yaml:"max_force"`
	Bidirectional bool    `yaml:"bidirectional,omitempty"`
}

// Intent is the ship's standing order. Target names another ship; targeted
// intents follow it for the whole run.
type Intent struct {
	Kind     string   `yaml:"kind,omitempty"`
	Velocity Vec3     `yaml:"velocity,flow,omitempty"`
	Attitude Attitude `yaml:"attitude,omitempty"`
	Target   string   `yaml:"target,omitempty"`
	Standoff float64  `yaml:"standoff,omitempty"`
	Speed    float64  `yaml:"speed,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:       "scenario",
		Dt:         DefaultDt,
		Duration:   DefaultDuration,
		Workers:    1,
		Integrator: DefaultIntegrator,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read scenario")
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "encode scenario")
	}
	return errors.Wrap(os.WriteFile(path, data, 0644), "write scenario")
}

// Validate reports every problem in the scenario at once. Hull names are
// resolved later, when the scenario is built.
func (c *Config) Validate() error {
	var err error
	fail := func(field, format string, args ...any) {
		err = multierr.Append(err, dynamo.NewConfigError(field, format, args...))
	}

	if !(c.Dt > 0) {
		fail("dt", "must be positive, got %g", c.Dt)
	}
	if !(c.Duration > 0) {
		fail("duration", "must be positive, got %g", c.Duration)
	}
	if c.Workers < 0 {
		fail("workers", "must be >= 0, got %d", c.Workers)
	}
	if _, ok := integrators.ByName(c.Integrator); !ok {
		fail("integrator", "unknown integrator %q", c.Integrator)
	}

	for i, g := range c.Gravity {
		field := fmt.Sprintf("gravity[%d]", i)
		switch g.Kind {
		case "uniform":
		case "point":
			if !(g.Mu > 0) {
				fail(field+".mu", "must be positive, got %g", g.Mu)
			}
		default:
			fail(field+".kind", "unknown gravity %q", g.Kind)
		}
	}

	if len(c.Ships) == 0 {
		fail("ships", "at least one ship is required")
	}
	names := make(map[string]int, len(c.Ships))
	for i, s := range c.Ships {
		field := fmt.Sprintf("ships[%d]", i)
		if s.Name == "" {
			fail(field+".name", "must not be empty")
		} else if prev, dup := names[s.Name]; dup {
			fail(field+".name", "%q already used by ships[%d]", s.Name, prev)
		} else {
			names[s.Name] = i
		}
		if s.Hull == "" && (s.Mass == 0 || s.Inertia == nil || len(s.Thrusters) == 0) {
			fail(field, "needs a hull or explicit mass, inertia and thrusters")
		}
		if s.Gains != nil {
			err = multierr.Append(err, errors.Wrap(s.Gains.Validate(), field))
		}
	}

	for i, s := range c.Ships {
		field := fmt.Sprintf("ships[%d].intent", i)
		kind, kerr := s.Intent.ParseKind()
		if kerr != nil {
			err = multierr.Append(err, errors.Wrap(kerr, field))
			continue
		}
		if !kind.Targeted() {
			continue
		}
		if _, ok := names[s.Intent.Target]; !ok {
			fail(field+".target", "unknown ship %q", s.Intent.Target)
		} else if s.Intent.Target == s.Name {
			fail(field+".target", "ship cannot target itself")
		}
		if kind == control.KindApproach && s.Intent.Standoff < 0 {
			fail(field+".standoff", "must be >= 0, got %g", s.Intent.Standoff)
		}
	}
	return err
}

// ParseKind treats an empty kind as idle.
func (in Intent) ParseKind() (control.Kind, error) {
	if in.Kind == "" {
		return control.KindIdle, nil
	}
	return control.ParseKind(in.Kind)
}
