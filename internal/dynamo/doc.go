// Package dynamo provides the shared primitives of the flight-dynamics core.
//
// Everything above this package (physics, integrators, control, maneuver, sim)
// speaks in these types:
//
//   - [Wrench]: net force and torque applied to a body for one tick
//   - [Mat3]: 3x3 matrix used for inertia tensors
//   - [Rotate], [RotateInv], [RotationVector]: quaternion helpers over gonum's quat.Number
//   - [ConfigError], [ControlError], [SimulationError]: the error taxonomy
//
// Vectors are github.com/golang/geo/r3 values and orientations are unit
// gonum quaternions with Real as the scalar part.
//
// # Thread Safety
//
// All helpers are pure. [ParallelFor] is the only function that starts goroutines.
package dynamo
