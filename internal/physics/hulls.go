package physics

import (
	"github.com/golang/geo/r3"
	"github.com/san-kum/inertial/internal/dynamo"
)

const (
	DefaultMass      = 1000.0
	DefaultThrust    = 500.0
	DefaultRCSArm    = 1.5
	DefaultRCSThrust = 200.0
)

// Hull is a ship type: mass properties plus a thruster layout.
type Hull struct {
	Name      string
	Mass      float64
	Inertia   dynamo.Mat3
	Thrusters []ThrusterSpec
}

// NewProbe is a single aft thruster pushing along +X through the centre of mass.
// It can accelerate forward only and never produces torque.
func NewProbe() Hull {
	return Hull{
		Name:    "probe",
		Mass:    DefaultMass,
		Inertia: dynamo.Diag(500, 500, 500),
		Thrusters: []ThrusterSpec{
			{Name: "main", Direction: r3.Vector{X: 1}, MaxForce: DefaultThrust},
		},
	}
}

// NewRCS is a cube-shaped craft with twelve unidirectional reaction-control
// thrusters. Paired thrusters give pure force; single ones give force plus torque,
// so every translational and rotational axis is controllable.
func NewRCS() Hull {
	return Hull{
		Name:      "rcs",
		Mass:      DefaultMass,
		Inertia:   dynamo.Diag(800, 800, 800),
		Thrusters: RCSCluster(DefaultRCSArm, DefaultRCSThrust),
	}
}

// NewShuttle adds a main engine to a lighter RCS cluster on a longer hull.
func NewShuttle() Hull {
	thrusters := []ThrusterSpec{
		{Name: "main", Mount: r3.Vector{X: -5}, Direction: r3.Vector{X: 1}, MaxForce: 20000},
	}
	thrusters = append(thrusters, RCSCluster(2.0, 500)...)
	return Hull{
		Name:      "shuttle",
		Mass:      20000,
		Inertia:   dynamo.Diag(40000, 120000, 120000),
		Thrusters: thrusters,
	}
}

// NewGimbal has six bidirectional thrusters, the minimum for full 6-DOF control.
func NewGimbal() Hull {
	const arm, force = 1.0, 300.0
	return Hull{
		Name:    "gimbal",
		Mass:    DefaultMass,
		Inertia: dynamo.Diag(600, 600, 600),
		Thrusters: []ThrusterSpec{
			{Name: "x+y", Mount: r3.Vector{Y: arm}, Direction: r3.Vector{X: 1}, MaxForce: force, Bidirectional: true},
			{Name: "x-y", Mount: r3.Vector{Y: -arm}, Direction: r3.Vector{X: 1}, MaxForce: force, Bidirectional: true},
			{Name: "y+z", Mount: r3.Vector{Z: arm}, Direction: r3.Vector{Y: 1}, MaxForce: force, Bidirectional: true},
			{Name: "y-z", Mount: r3.Vector{Z: -arm}, Direction: r3.Vector{Y: 1}, MaxForce: force, Bidirectional: true},
			{Name: "z+x", Mount: r3.Vector{X: arm}, Direction: r3.Vector{Z: 1}, MaxForce: force, Bidirectional: true},
			{Name: "z-x", Mount: r3.Vector{X: -arm}, Direction: r3.Vector{Z: 1}, MaxForce: force, Bidirectional: true},
		},
	}
}

// RCSCluster builds twelve unidirectional thrusters. Thrusters along X sit at ±arm on
// Y (torque about Z), along Y at ±arm on Z (torque about X), along Z at ±arm on X
// (torque about Y).
func RCSCluster(arm, force float64) []ThrusterSpec {
	type axis struct {
		name   string
		dir    r3.Vector
		offset r3.Vector
	}
	axes := []axis{
		{"x", r3.Vector{X: 1}, r3.Vector{Y: arm}},
		{"y", r3.Vector{Y: 1}, r3.Vector{Z: arm}},
		{"z", r3.Vector{Z: 1}, r3.Vector{X: arm}},
	}

	specs := make([]ThrusterSpec, 0, 12)
	for _, a := range axes {
		for _, sign := range []float64{1, -1} {
			for _, side := range []float64{1, -1} {
				specs = append(specs, ThrusterSpec{
					Name:      rcsName(a.name, sign, side),
					Mount:     a.offset.Mul(side),
					Direction: a.dir.Mul(sign),
					MaxForce:  force,
				})
			}
		}
	}
	return specs
}

func rcsName(axis string, sign, side float64) string {
	name := "rcs" + axis
	if sign > 0 {
		name += "+"
	} else {
		name += "-"
	}
	if side > 0 {
		return name + "a"
	}
	return name + "b"
}

// Build validates the hull and returns a resting state and its thruster model.
func (h Hull) Build() (State, *ThrusterModel, error) {
	state, err := NewState(h.Mass, h.Inertia)
	if err != nil {
		return State{}, nil, err
	}
	model, err := NewThrusterModel(h.Thrusters)
	if err != nil {
		return State{}, nil, err
	}
	return state, model, nil
}
