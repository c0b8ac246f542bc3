package maneuver

import "github.com/golang/geo/r3"

// minRelativeSpeed2 below which two bodies are treated as co-moving.
const minRelativeSpeed2 = 1e-18

// Approach is the point of minimum separation between two bodies on straight paths.
type Approach struct {
	Time     float64
	Distance float64
	// Separation is the target's relative position at Time.
	Separation r3.Vector
}

// ClosestApproach minimizes |r + v·t|² over t >= 0. Co-moving or receding bodies
// report t = 0 and the current distance.
func ClosestApproach(own, target Kinematics) Approach {
	r, v := Relative(own, target)

	t := 0.0
	if vv := v.Norm2(); vv > minRelativeSpeed2 {
		t = -r.Dot(v) / vv
		if t < 0 {
			t = 0
		}
	}

	sep := r.Add(v.Mul(t))
	return Approach{Time: t, Distance: sep.Norm(), Separation: sep}
}

// TimeToRange returns the earliest t >= 0 at which the separation equals rng, or
// false if the bodies never come that close.
func TimeToRange(own, target Kinematics, rng float64) (float64, bool) {
	r, v := Relative(own, target)
	if r.Norm() <= rng {
		return 0, true
	}
	a := v.Norm2()
	if a <= minRelativeSpeed2 {
		return 0, false
	}
	t, ok := smallestPositiveRoot(a, 2*r.Dot(v), r.Norm2()-rng*rng)
	return t, ok
}
