package physics

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/san-kum/inertial/internal/dynamo"
)

// ForceSource contributes a wrench independent of the thrusters, such as gravity.
// Sources must be pure functions of the state.
type ForceSource interface {
	Name() string
	Wrench(s State) dynamo.Wrench
}

// Conservative sources expose the potential energy of a body in their field.
type Conservative interface {
	Potential(s State) float64
}

// UniformField applies the same acceleration to every body.
type UniformField struct {
	Acceleration r3.Vector
}

func (u UniformField) Name() string { return "uniform" }

func (u UniformField) Wrench(s State) dynamo.Wrench {
	return dynamo.Wrench{Force: u.Acceleration.Mul(s.Mass())}
}

func (u UniformField) Potential(s State) float64 {
	return -s.Mass() * u.Acceleration.Dot(s.Position)
}

// PointGravity pulls toward Center with standard gravitational parameter Mu.
// Inside MinRadius the field is held at its MinRadius strength.
type PointGravity struct {
	Center    r3.Vector
	Mu        float64
	MinRadius float64
}

func (p PointGravity) Name() string { return "point" }

func (p PointGravity) Wrench(s State) dynamo.Wrench {
	r := p.Center.Sub(s.Position)
	dist := r.Norm()
	if dist == 0 {
		return dynamo.Wrench{}
	}
	eff := math.Max(dist, p.MinRadius)
	return dynamo.Wrench{Force: r.Mul(p.Mu * s.Mass() / (eff * eff * dist))}
}

// Potential is exact outside MinRadius only.
func (p PointGravity) Potential(s State) float64 {
	dist := math.Max(p.Center.Sub(s.Position).Norm(), p.MinRadius)
	if dist == 0 {
		return 0
	}
	return -p.Mu * s.Mass() / dist
}

// TotalPotential sums the potential of every conservative source.
func TotalPotential(sources []ForceSource, s State) float64 {
	total := 0.0
	for _, src := range sources {
		if c, ok := src.(Conservative); ok {
			total += c.Potential(s)
		}
	}
	return total
}

// SumWrench adds the contribution of every source.
func SumWrench(sources []ForceSource, s State) dynamo.Wrench {
	var w dynamo.Wrench
	for _, src := range sources {
		w = w.Add(src.Wrench(s))
	}
	return w
}
