package config

import (
	"slices"

	"github.com/samber/lo"
)

// Presets are the built-in scenarios. Each call builds a fresh copy.
var Presets = map[string]func() *Config{
	"translate": func() *Config {
		return &Config{
			Name: "translate", Dt: 0.1, Duration: 60, Workers: 1, Integrator: DefaultIntegrator,
			Ships: []Ship{
				{Name: "probe", Hull: "probe", Intent: Intent{Kind: "match_velocity", Velocity: V(5, 0, 0)}},
			},
		}
	},
	"match-velocity": func() *Config {
		return &Config{
			Name: "match-velocity", Dt: 0.1, Duration: 120, Workers: 1, Integrator: DefaultIntegrator, StopWhenIdle: true,
			Ships: []Ship{
				{
					Name: "tug", Hull: "rcs", Velocity: V(3, -1, 0),
					Intent: Intent{Kind: "match_velocity", Velocity: V(-2, 1.5, 0.5)},
				},
			},
		}
	},
	"hold": func() *Config {
		return &Config{
			Name: "hold", Dt: 0.1, Duration: 60, Workers: 1, Integrator: DefaultIntegrator, StopWhenIdle: true,
			Ships: []Ship{
				{
					Name: "gimbal", Hull: "gimbal", AngularVelocity: V(0, 0, 0.3),
					Intent: Intent{Kind: "hold_attitude", Attitude: Attitude{Axis: V(1, 1, 0), Degrees: 120}},
				},
			},
		}
	},
	"dock": func() *Config {
		return &Config{
			Name: "dock", Dt: 0.1, Duration: 300, Workers: 1, Integrator: DefaultIntegrator,
			Ships: []Ship{
				{Name: "station", Hull: "rcs", Position: V(400, 50, 0), Velocity: V(0, 2, 0)},
				{Name: "shuttle", Hull: "shuttle", Intent: Intent{Kind: "approach", Target: "station", Standoff: 30}},
			},
		}
	},
	"intercept": func() *Config {
		return &Config{
			Name: "intercept", Dt: 0.1, Duration: 120, Workers: 2, Integrator: DefaultIntegrator,
			Ships: []Ship{
				{Name: "runner", Hull: "probe", Position: V(300, 200, 0), Velocity: V(0, -4, 0)},
				{Name: "hunter", Hull: "rcs", Intent: Intent{Kind: "intercept", Target: "runner"}},
				{Name: "turret", Hull: "gimbal", Position: V(0, -100, 0), Intent: Intent{Kind: "point_at", Target: "runner", Speed: 300}},
			},
		}
	},
	"head-on": func() *Config {
		return &Config{
			Name: "head-on", Dt: 0.1, Duration: 15, Workers: 1, Integrator: DefaultIntegrator,
			Ships: []Ship{
				{Name: "alpha", Hull: "probe"},
				{Name: "bravo", Hull: "probe", Position: V(1000, 0, 0), Velocity: V(-100, 0, 0), Attitude: Attitude{Axis: V(0, 0, 1), Degrees: 180}},
			},
		}
	},
	"orbit": func() *Config {
		return &Config{
			Name: "orbit", Dt: 1, Duration: 6000, Workers: 1, Integrator: DefaultIntegrator,
			Gravity: []Gravity{{Kind: "point", Mu: 4e5, MinRadius: 10}},
			Ships: []Ship{
				{Name: "sat", Hull: "probe", Position: V(1000, 0, 0), Velocity: V(0, 20, 0)},
			},
		}
	},
}

func GetPreset(name string) *Config {
	build, ok := Presets[name]
	if !ok {
		return nil
	}
	return build()
}

// ListPresets returns preset names in sorted order.
func ListPresets() []string {
	names := lo.Keys(Presets)
	slices.Sort(names)
	return names
}
