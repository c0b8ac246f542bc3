package physics

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/san-kum/inertial/internal/dynamo"
	"gonum.org/v1/gonum/num/quat"
)

// ThrusterSpec describes one thruster in the body frame.
type ThrusterSpec struct {
	Name          string
	Mount         r3.Vector
	Direction     r3.Vector
	MaxForce      float64
	Bidirectional bool
}

// Bounds returns the admissible command range.
func (t ThrusterSpec) Bounds() (lo, hi float64) {
	if t.Bidirectional {
		return -1, 1
	}
	return 0, 1
}

// ThrusterModel is the immutable thruster configuration of one ship.
type ThrusterModel struct {
	specs []ThrusterSpec
}

// NewThrusterModel validates specs and normalizes their directions.
func NewThrusterModel(specs []ThrusterSpec) (*ThrusterModel, error) {
	m := &ThrusterModel{specs: make([]ThrusterSpec, len(specs))}
	for i, spec := range specs {
		if !dynamo.IsFiniteVec(spec.Mount) {
			return nil, dynamo.NewConfigError(thrusterField(i, "mount"), "must be finite")
		}
		if !dynamo.IsFiniteVec(spec.Direction) || spec.Direction.Norm2() == 0 {
			return nil, dynamo.NewConfigError(thrusterField(i, "direction"), "must be a finite non-zero vector")
		}
		if !(spec.MaxForce >= 0) || math.IsInf(spec.MaxForce, 0) {
			return nil, dynamo.NewConfigError(thrusterField(i, "max_force"), "must be finite and >= 0, got %g", spec.MaxForce)
		}
		spec.Direction = spec.Direction.Normalize()
		m.specs[i] = spec
	}
	return m, nil
}

func thrusterField(i int, name string) string {
	return fmt.Sprintf("thrusters[%d].%s", i, name)
}

func (m *ThrusterModel) Len() int { return len(m.specs) }

// Specs returns a copy of the thruster configuration.
func (m *ThrusterModel) Specs() []ThrusterSpec {
	out := make([]ThrusterSpec, len(m.specs))
	copy(out, m.specs)
	return out
}

func (m *ThrusterModel) Spec(i int) ThrusterSpec { return m.specs[i] }

// BodyWrench sums the thruster outputs in the body frame. Commands outside a
// thruster's bounds are clamped.
func (m *ThrusterModel) BodyWrench(command []float64) (dynamo.Wrench, error) {
	if len(command) != len(m.specs) {
		return dynamo.Wrench{}, errors.Wrapf(
			&dynamo.ConfigError{Field: "command", Err: dynamo.ErrDimensionMismatch},
			"got %d commands for %d thrusters", len(command), len(m.specs))
	}

	var w dynamo.Wrench
	for i, spec := range m.specs {
		lo, hi := spec.Bounds()
		u := math.Max(lo, math.Min(hi, command[i]))
		if u == 0 || math.IsNaN(u) {
			continue
		}
		force := spec.Direction.Mul(u * spec.MaxForce)
		w.Force = w.Force.Add(force)
		w.Torque = w.Torque.Add(spec.Mount.Cross(force))
	}
	return w, nil
}

// ComputeWrench returns the world-frame wrench produced by command at the given orientation.
func (m *ThrusterModel) ComputeWrench(orientation quat.Number, command []float64) (dynamo.Wrench, error) {
	body, err := m.BodyWrench(command)
	if err != nil {
		return dynamo.Wrench{}, err
	}
	if body.IsZero() {
		return dynamo.Wrench{}, nil
	}
	return dynamo.Wrench{
		Force:  dynamo.Rotate(orientation, body.Force),
		Torque: dynamo.Rotate(orientation, body.Torque),
	}, nil
}

// Columns returns the body-frame wrench of each thruster at full command:
// [fx fy fz tx ty tz].
func (m *ThrusterModel) Columns() [][6]float64 {
	cols := make([][6]float64, len(m.specs))
	for i, spec := range m.specs {
		f := spec.Direction.Mul(spec.MaxForce)
		t := spec.Mount.Cross(f)
		cols[i] = [6]float64{f.X, f.Y, f.Z, t.X, t.Y, t.Z}
	}
	return cols
}

// MaxForceAlong is the thrust available along the body direction dir when every
// thruster with a positive projection fires fully. Torque side effects are ignored.
func (m *ThrusterModel) MaxForceAlong(dir r3.Vector) float64 {
	dir = dir.Normalize()
	total := 0.0
	for _, spec := range m.specs {
		p := spec.Direction.Dot(dir)
		if spec.Bidirectional {
			p = math.Abs(p)
		}
		if p > 0 {
			total += p * spec.MaxForce
		}
	}
	return total
}

// MaxTorqueAbout is the torque available about the body axis.
func (m *ThrusterModel) MaxTorqueAbout(axis r3.Vector) float64 {
	axis = axis.Normalize()
	total := 0.0
	for _, spec := range m.specs {
		p := spec.Mount.Cross(spec.Direction).Dot(axis)
		if spec.Bidirectional {
			p = math.Abs(p)
		}
		if p > 0 {
			total += p * spec.MaxForce
		}
	}
	return total
}
