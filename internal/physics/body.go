package physics

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/san-kum/inertial/internal/dynamo"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
)

// Forward is the body-frame nose direction.
var Forward = r3.Vector{X: 1}

// maxInertiaCondition bounds the inertia tensor condition number; anything above is
// treated as singular.
const maxInertiaCondition = 1e12

// State is the Newtonian state of one rigid body.
// Mass and inertia are fixed at construction; use NewState to obtain a valid value.
type State struct {
	Position        r3.Vector
	Orientation     quat.Number
	LinearMomentum  r3.Vector
	AngularMomentum r3.Vector

	mass       float64
	inertia    dynamo.Mat3
	invInertia dynamo.Mat3
}

// NewState returns a body at rest at the origin with identity orientation.
// Non-positive mass and non symmetric positive-definite inertia are rejected.
func NewState(mass float64, inertia dynamo.Mat3) (State, error) {
	if !(mass > 0) || math.IsInf(mass, 0) {
		return State{}, dynamo.NewConfigError("mass", "must be positive and finite, got %g", mass)
	}
	inv, err := invertInertia(inertia)
	if err != nil {
		return State{}, err
	}
	return State{
		Orientation: dynamo.Identity,
		mass:        mass,
		inertia:     inertia,
		invInertia:  inv,
	}, nil
}

// Snapshot is a kinematic stand-in for a body the caller does not simulate, such
// as an externally tracked target. It carries unit mass and inertia so that
// Velocity returns velocity.
func Snapshot(position, velocity r3.Vector) State {
	return State{
		Position:       position,
		Orientation:    dynamo.Identity,
		LinearMomentum: velocity,
		mass:           1,
		inertia:        dynamo.Diag(1, 1, 1),
		invInertia:     dynamo.Diag(1, 1, 1),
	}
}

func invertInertia(inertia dynamo.Mat3) (dynamo.Mat3, error) {
	if !inertia.IsFinite() {
		return dynamo.Mat3{}, dynamo.NewConfigError("inertia", "contains NaN or Inf")
	}
	scale := math.Max(math.Abs(inertia[0][0]), math.Max(math.Abs(inertia[1][1]), math.Abs(inertia[2][2])))
	if !inertia.IsSymmetric(1e-9 * math.Max(scale, 1)) {
		return dynamo.Mat3{}, dynamo.NewConfigError("inertia", "must be symmetric")
	}

	sym := mat.NewSymDense(3, []float64{
		inertia[0][0], inertia[0][1], inertia[0][2],
		inertia[1][0], inertia[1][1], inertia[1][2],
		inertia[2][0], inertia[2][1], inertia[2][2],
	})
	var chol mat.Cholesky
	if ok := chol.Factorize(sym); !ok {
		return dynamo.Mat3{}, dynamo.NewConfigError("inertia", "must be positive definite")
	}
	if chol.Cond() > maxInertiaCondition {
		return dynamo.Mat3{}, dynamo.NewConfigError("inertia", "is singular (condition %g)", chol.Cond())
	}

	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return dynamo.Mat3{}, dynamo.NewConfigError("inertia", "cannot be inverted: %v", err)
	}

	var out dynamo.Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = inv.At(i, j)
		}
	}
	return out, nil
}

func (s State) Mass() float64                 { return s.mass }
func (s State) Inertia() dynamo.Mat3          { return s.inertia }
func (s State) InverseInertia() dynamo.Mat3   { return s.invInertia }
func (s State) ToWorld(v r3.Vector) r3.Vector { return dynamo.Rotate(s.Orientation, v) }
func (s State) ToBody(v r3.Vector) r3.Vector  { return dynamo.RotateInv(s.Orientation, v) }

// Velocity is zero for a zero-value State, which has no mass.
func (s State) Velocity() r3.Vector {
	if s.mass == 0 {
		return r3.Vector{}
	}
	return s.LinearMomentum.Mul(1 / s.mass)
}

// AngularVelocity returns the world-frame angular velocity R * I⁻¹ * Rᵀ * L.
func (s State) AngularVelocity() r3.Vector {
	return s.ToWorld(s.invInertia.MulVec(s.ToBody(s.AngularMomentum)))
}

// ApplyInertia maps a world-frame angular quantity through the world inertia R * I * Rᵀ.
func (s State) ApplyInertia(v r3.Vector) r3.Vector {
	return s.ToWorld(s.inertia.MulVec(s.ToBody(v)))
}

// Heading is the world direction of the body forward axis.
func (s State) Heading() r3.Vector {
	return s.ToWorld(Forward)
}

func (s State) KineticEnergy() float64 {
	if s.mass == 0 {
		return 0
	}
	translational := 0.5 * s.LinearMomentum.Norm2() / s.mass
	rotational := 0.5 * s.AngularVelocity().Dot(s.AngularMomentum)
	return translational + rotational
}

// WithPose returns a copy placed at position with the given orientation.
func (s State) WithPose(position r3.Vector, orientation quat.Number) State {
	s.Position = position
	s.Orientation = dynamo.Normalize(orientation)
	return s
}

// WithVelocity returns a copy whose linear momentum matches v.
// Only for building initial conditions; in flight momentum changes through wrenches.
func (s State) WithVelocity(v r3.Vector) State {
	s.LinearMomentum = v.Mul(s.mass)
	return s
}

// WithAngularVelocity returns a copy whose angular momentum matches the world-frame rate w.
func (s State) WithAngularVelocity(w r3.Vector) State {
	s.AngularMomentum = s.ApplyInertia(w)
	return s
}

// IsValid reports whether every component is finite.
func (s State) IsValid() bool {
	if !dynamo.IsFiniteVec(s.Position) || !dynamo.IsFiniteVec(s.LinearMomentum) || !dynamo.IsFiniteVec(s.AngularMomentum) {
		return false
	}
	return !quat.IsNaN(s.Orientation) && !quat.IsInf(s.Orientation)
}

// Vector flattens the state for recording:
// px py pz vx vy vz qw qx qy qz wx wy wz.
func (s State) Vector() []float64 {
	v := s.Velocity()
	w := s.AngularVelocity()
	q := s.Orientation
	return []float64{
		s.Position.X, s.Position.Y, s.Position.Z,
		v.X, v.Y, v.Z,
		q.Real, q.Imag, q.Jmag, q.Kmag,
		w.X, w.Y, w.Z,
	}
}

// VectorLabels names the columns produced by Vector.
var VectorLabels = []string{"px", "py", "pz", "vx", "vy", "vz", "qw", "qx", "qy", "qz", "wx", "wy", "wz"}
