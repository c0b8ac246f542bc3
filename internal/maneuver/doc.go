// Package maneuver solves the relative-motion problems a pilot needs under inertia:
// closest approach, intercept point, approach-to-standoff setpoints and aiming.
//
// Every function is pure; callers re-evaluate against live state each tick.
// Outputs that span time are returned as a [Plan]: a finite, lazily generated,
// restartable sequence of [Setpoint] values.
//
//	ca := maneuver.ClosestApproach(own, target)
//	sol, err := maneuver.Intercept(own.Position, target, 120, 600)
//	if errors.Is(err, dynamo.ErrUnreachable) { ... }
package maneuver
