// Package physics holds the rigid-body state of a ship, its thruster model and the
// optional external force sources.
//
// A ship is a [State] plus a [ThrusterModel]. Ship types are not a hierarchy; they
// are different thruster layouts, see [Hull]. Velocity is never set directly during
// flight: it changes only through the wrench returned by [ThrusterModel.ComputeWrench]
// (plus any configured [ForceSource]) fed to an integrator.
//
// Frames: positions, momenta and wrenches are world frame; thruster mounts,
// directions and the inertia tensor are body frame. The body forward axis is +X.
package physics
