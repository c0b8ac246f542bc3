package maneuver

import (
	"github.com/golang/geo/r3"
	"github.com/san-kum/inertial/internal/physics"
)

// Kinematics is a read-only position and velocity snapshot.
type Kinematics struct {
	Position r3.Vector
	Velocity r3.Vector
}

func FromState(s physics.State) Kinematics {
	return Kinematics{Position: s.Position, Velocity: s.Velocity()}
}

// At extrapolates the snapshot t seconds ahead at constant velocity.
func (k Kinematics) At(t float64) r3.Vector {
	return k.Position.Add(k.Velocity.Mul(t))
}

// Relative returns target's position and velocity as seen from own.
func Relative(own, target Kinematics) (r, v r3.Vector) {
	return target.Position.Sub(own.Position), target.Velocity.Sub(own.Velocity)
}
