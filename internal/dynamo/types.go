package dynamo

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Wrench is the combined force and torque applied to a body during one tick.
type Wrench struct {
	Force  r3.Vector
	Torque r3.Vector
}

func (w Wrench) Add(o Wrench) Wrench {
	return Wrench{Force: w.Force.Add(o.Force), Torque: w.Torque.Add(o.Torque)}
}

func (w Wrench) Scale(f float64) Wrench {
	return Wrench{Force: w.Force.Mul(f), Torque: w.Torque.Mul(f)}
}

func (w Wrench) IsZero() bool {
	return w.Force == (r3.Vector{}) && w.Torque == (r3.Vector{})
}

// Mat3 is a row-major 3x3 matrix.
type Mat3 [3][3]float64

// Diag returns a diagonal matrix, the usual form of a principal-axes inertia tensor.
func Diag(x, y, z float64) Mat3 {
	return Mat3{{x, 0, 0}, {0, y, 0}, {0, 0, z}}
}

func (m Mat3) MulVec(v r3.Vector) r3.Vector {
	return r3.Vector{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

func (m Mat3) IsSymmetric(tol float64) bool {
	for i := 0; i < 3; i++ {
		for j := i + 1; j < 3; j++ {
			if math.Abs(m[i][j]-m[j][i]) > tol {
				return false
			}
		}
	}
	return true
}

func (m Mat3) IsFinite() bool {
	for i := range m {
		for _, v := range m[i] {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

// Identity is the orientation with no rotation.
var Identity = quat.Number{Real: 1}

// Rotate applies the unit quaternion q to v.
func Rotate(q quat.Number, v r3.Vector) r3.Vector {
	p := quat.Mul(quat.Mul(q, quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}), quat.Conj(q))
	return r3.Vector{X: p.Imag, Y: p.Jmag, Z: p.Kmag}
}

// RotateInv applies the inverse of the unit quaternion q to v (world to body).
func RotateInv(q quat.Number, v r3.Vector) r3.Vector {
	return Rotate(quat.Conj(q), v)
}

// Normalize returns q scaled to unit length. The zero quaternion maps to Identity.
func Normalize(q quat.Number) quat.Number {
	n := quat.Abs(q)
	if n == 0 || math.IsNaN(n) {
		return Identity
	}
	return quat.Scale(1/n, q)
}

// FromAxisAngle builds a unit quaternion rotating by angle radians about axis.
func FromAxisAngle(axis r3.Vector, angle float64) quat.Number {
	axis = axis.Normalize()
	if axis == (r3.Vector{}) {
		return Identity
	}
	s, c := math.Sincos(angle / 2)
	return quat.Number{Real: c, Imag: axis.X * s, Jmag: axis.Y * s, Kmag: axis.Z * s}
}

// RotationVector converts a unit quaternion to axis*angle, taking the shortest path.
func RotationVector(q quat.Number) r3.Vector {
	if q.Real < 0 {
		q = quat.Scale(-1, q)
	}
	v := r3.Vector{X: q.Imag, Y: q.Jmag, Z: q.Kmag}
	s := v.Norm()
	if s < 1e-12 {
		return v.Mul(2)
	}
	angle := 2 * math.Atan2(s, q.Real)
	return v.Mul(angle / s)
}

// RotationBetween returns the rotation that takes orientation from onto orientation to,
// expressed in the world frame.
func RotationBetween(from, to quat.Number) quat.Number {
	return quat.Mul(to, quat.Conj(from))
}

// AngleBetween is the magnitude of the shortest rotation between two orientations.
func AngleBetween(a, b quat.Number) float64 {
	return RotationVector(RotationBetween(a, b)).Norm()
}

// IsFiniteVec reports whether every component of v is finite.
func IsFiniteVec(v r3.Vector) bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// ClampNorm scales v down so its length does not exceed limit. A non-positive limit disables clamping.
func ClampNorm(v r3.Vector, limit float64) r3.Vector {
	n := v.Norm()
	if limit <= 0 || n <= limit {
		return v
	}
	return v.Mul(limit / n)
}
