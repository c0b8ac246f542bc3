package integrators

import (
	"github.com/san-kum/inertial/internal/dynamo"
	"github.com/san-kum/inertial/internal/physics"
)

// Euler is the explicit scheme: pose moves with the velocity from the start of the
// step. Kept for comparison runs; the simulator defaults to SemiImplicitEuler.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Name() string { return "euler" }

func (e *Euler) Step(s physics.State, w dynamo.Wrench, dt float64) physics.State {
	next := s
	next.Position = s.Position.Add(s.Velocity().Mul(dt))
	next.Orientation = advanceOrientation(s.Orientation, s.AngularVelocity(), dt)

	next.LinearMomentum = s.LinearMomentum.Add(w.Force.Mul(dt))
	next.AngularMomentum = s.AngularMomentum.Add(w.Torque.Mul(dt))
	return next
}
