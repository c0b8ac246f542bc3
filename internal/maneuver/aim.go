package maneuver

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/san-kum/inertial/internal/dynamo"
	"github.com/san-kum/inertial/internal/physics"
	"gonum.org/v1/gonum/num/quat"
)

// LeadAim returns the vector from origin to where a projectile at projectileSpeed
// meets the target. When no exact solution exists it falls back to first-order lead
// (time of flight = current range / speed). A non-positive speed aims straight at
// the target.
func LeadAim(origin r3.Vector, target Kinematics, projectileSpeed float64) r3.Vector {
	direct := target.Position.Sub(origin)
	if !(projectileSpeed > 0) {
		return direct
	}
	if sol, err := Intercept(origin, target, projectileSpeed, 0); err == nil {
		return sol.Point.Sub(origin)
	}
	t := direct.Norm() / projectileSpeed
	return target.At(t).Sub(origin)
}

// Alignment returns the axis and angle of the shortest rotation turning forward
// onto direction. Opposite vectors rotate about an arbitrary perpendicular.
func Alignment(forward, direction r3.Vector) (axis r3.Vector, angle float64) {
	f, d := forward.Normalize(), direction.Normalize()
	if f == (r3.Vector{}) || d == (r3.Vector{}) {
		return r3.Vector{}, 0
	}
	cross := f.Cross(d)
	angle = math.Atan2(cross.Norm(), f.Dot(d))
	axis = cross.Normalize()
	if axis == (r3.Vector{}) && angle > 0 {
		axis = f.Ortho()
	}
	return axis, angle
}

// LookRotation turns current by the shortest arc that points the body forward
// axis along direction.
func LookRotation(current quat.Number, direction r3.Vector) quat.Number {
	heading := dynamo.Rotate(current, physics.Forward)
	axis, angle := Alignment(heading, direction)
	if angle == 0 {
		return current
	}
	return dynamo.Normalize(quat.Mul(dynamo.FromAxisAngle(axis, angle), current))
}

// SelectTarget picks the candidate whose lead-aim vector is best aligned with
// forward. Candidates at zero range are skipped; ties keep the lowest index.
func SelectTarget(origin, forward r3.Vector, candidates []Kinematics, projectileSpeed float64) (int, bool) {
	forward = forward.Normalize()
	best, bestScore := -1, math.Inf(-1)
	for i, c := range candidates {
		aim := LeadAim(origin, c, projectileSpeed)
		dist := aim.Norm()
		if dist == 0 {
			continue
		}
		score := aim.Dot(forward) / dist
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	return best, best >= 0
}
