// Package viz renders a live telemetry view of a running scenario in the
// terminal using Bubble Tea.
//
// The view consumes frames from a [sim.Pacer] and shows one row per ship with
// its intent, controller mode, speed and throttle, plus a speed history for the
// selected ship.
//
// # Key Bindings
//
//	Tab   - Select next ship
//	T     - Cycle color themes
//	?     - Toggle help
//	Q     - Quit
package viz
