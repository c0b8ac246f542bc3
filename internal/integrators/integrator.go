// Package integrators advances a rigid body by one fixed step under a wrench.
package integrators

import (
	"github.com/san-kum/inertial/internal/dynamo"
	"github.com/san-kum/inertial/internal/physics"
)

// Integrator advances s by dt under the net world-frame wrench w.
type Integrator interface {
	Name() string
	Step(s physics.State, w dynamo.Wrench, dt float64) physics.State
}

// ByName returns the integrator registered under name.
func ByName(name string) (Integrator, bool) {
	switch name {
	case "", "semi_implicit", "symplectic":
		return NewSemiImplicitEuler(), true
	case "euler", "explicit":
		return NewEuler(), true
	}
	return nil, false
}

// Names lists the accepted integrator names.
func Names() []string {
	return []string{"semi_implicit", "euler"}
}
