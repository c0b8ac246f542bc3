package integrators

import (
	"github.com/golang/geo/r3"
	"github.com/san-kum/inertial/internal/dynamo"
	"github.com/san-kum/inertial/internal/physics"
	"gonum.org/v1/gonum/num/quat"
)

// SemiImplicitEuler updates momentum from the wrench first, then pose from the
// updated momentum. The orientation is renormalized every step.
type SemiImplicitEuler struct{}

func NewSemiImplicitEuler() *SemiImplicitEuler {
	return &SemiImplicitEuler{}
}

func (e *SemiImplicitEuler) Name() string { return "semi_implicit" }

func (e *SemiImplicitEuler) Step(s physics.State, w dynamo.Wrench, dt float64) physics.State {
	next := s
	next.LinearMomentum = s.LinearMomentum.Add(w.Force.Mul(dt))
	next.AngularMomentum = s.AngularMomentum.Add(w.Torque.Mul(dt))

	next.Position = s.Position.Add(next.Velocity().Mul(dt))
	next.Orientation = advanceOrientation(s.Orientation, next.AngularVelocity(), dt)
	return next
}

// advanceOrientation applies the rotation exp(½·w·dt) in the world frame.
func advanceOrientation(q quat.Number, w r3.Vector, dt float64) quat.Number {
	h := 0.5 * dt
	dq := quat.Exp(quat.Number{Imag: w.X * h, Jmag: w.Y * h, Kmag: w.Z * h})
	return dynamo.Normalize(quat.Mul(dq, q))
}
