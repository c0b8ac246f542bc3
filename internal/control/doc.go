// Package control turns a ship's intent into thruster commands.
//
// A [FlightController] is owned by one ship. Each tick it re-plans against the
// live state through the maneuver solver, runs PD laws on the velocity and
// attitude errors, and hands the desired body wrench to an [Allocator]:
//
//   - [PD]: vector proportional-derivative law (translation)
//   - attitude: cascade of angle-to-rate and rate-to-acceleration gains
//   - [Allocator]: clamped least squares with rotation priority
//
// # Usage
//
//	fc, _ := control.NewFlightController(model, control.DefaultGains())
//	fc.SetIntent(control.MatchVelocity(r3.Vector{X: 5}))
//	out := fc.Update(control.Input{State: s, Dt: 0.1, Time: t})
//	// out.Command goes to ThrusterModel.ComputeWrench
package control
