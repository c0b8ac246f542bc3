package maneuver

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/san-kum/inertial/internal/dynamo"
)

// Solution is a straight-line intercept course.
type Solution struct {
	Time      float64
	Point     r3.Vector
	Direction r3.Vector
	Velocity  r3.Vector
}

// Intercept finds the earliest point where a body leaving origin at speed meets the
// target: |target(t) - origin| = speed·t. A non-positive horizon means unbounded.
// Returns dynamo.ErrUnreachable when no such point exists within the horizon.
func Intercept(origin r3.Vector, target Kinematics, speed, horizon float64) (Solution, error) {
	r := target.Position.Sub(origin)
	if r.Norm2() == 0 {
		return Solution{Point: origin}, nil
	}
	if !(speed > 0) {
		return Solution{}, errors.Wrapf(dynamo.ErrUnreachable, "closing speed %g", speed)
	}

	v := target.Velocity
	a := v.Norm2() - speed*speed
	b := 2 * r.Dot(v)
	c := r.Norm2()

	t, ok := smallestPositiveRoot(a, b, c)
	if !ok {
		return Solution{}, errors.Wrapf(dynamo.ErrUnreachable, "target outruns closing speed %g", speed)
	}
	if horizon > 0 && t > horizon {
		return Solution{}, errors.Wrapf(dynamo.ErrUnreachable, "intercept at %.1fs beyond horizon %.1fs", t, horizon)
	}

	point := target.At(t)
	dir := point.Sub(origin).Normalize()
	return Solution{
		Time:      t,
		Point:     point,
		Direction: dir,
		Velocity:  dir.Mul(speed),
	}, nil
}

// smallestPositiveRoot solves a·t² + b·t + c = 0 for the smallest t > 0.
func smallestPositiveRoot(a, b, c float64) (float64, bool) {
	const eps = 1e-12
	if math.Abs(a) < eps {
		if math.Abs(b) < eps {
			return 0, false
		}
		t := -c / b
		return t, t > 0
	}

	disc := b*b - 4*a*c
	if disc < 0 {
		return 0, false
	}
	sq := math.Sqrt(disc)
	q := -0.5 * (b + math.Copysign(sq, b))

	best, found := 0.0, false
	for _, t := range []float64{q / a, c / q} {
		if math.IsNaN(t) || math.IsInf(t, 0) || t <= 0 {
			continue
		}
		if !found || t < best {
			best, found = t, true
		}
	}
	return best, found
}
