package control

import (
	"math"

	"github.com/golang/geo/r3"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"
	"github.com/san-kum/inertial/internal/dynamo"
	"github.com/san-kum/inertial/internal/integrators"
	"github.com/san-kum/inertial/internal/physics"
)

type rig struct {
	state physics.State
	model *physics.ThrusterModel
	fc    *FlightController
	integ integrators.Integrator
	t     float64
}

func newRig(h physics.Hull) *rig {
	s, m, err := h.Build()
	Expect(err).NotTo(HaveOccurred())
	fc, err := NewFlightController(m, DefaultGains())
	Expect(err).NotTo(HaveOccurred())
	return &rig{state: s, model: m, fc: fc, integ: integrators.NewSemiImplicitEuler()}
}

func (r *rig) step(dt float64) Output {
	out := r.fc.Update(Input{State: r.state, Time: r.t, Dt: dt})
	w, err := r.model.ComputeWrench(r.state.Orientation, out.Command)
	Expect(err).NotTo(HaveOccurred())
	r.state = r.integ.Step(r.state, w, dt)
	r.t += dt
	return out
}

// runUntilIdle steps until the controller leaves Tracking or the time limit passes.
func (r *rig) runUntilIdle(dt, limit float64, each func(Output)) {
	for r.t < limit && r.fc.Mode() == ModeTracking {
		out := r.step(dt)
		if each != nil {
			each(out)
		}
	}
}

var _ = Describe("FlightController", func() {
	const dt = 0.1

	Describe("intent lifecycle", func() {
		It("starts idle and issues zero commands", func() {
			r := newRig(physics.NewRCS())
			Expect(r.fc.Mode()).To(Equal(ModeIdle))
			out := r.step(dt)
			Expect(out.Command).To(HaveLen(12))
			Expect(out.Command).To(HaveEach(0.0))
		})

		It("supersedes the previous intent immediately", func() {
			r := newRig(physics.NewRCS())
			r.fc.SetIntent(MatchVelocity(r3.Vector{X: 3}))
			r.step(dt)
			r.fc.SetIntent(HoldAttitude(dynamo.FromAxisAngle(r3.Vector{Z: 1}, 1)))
			Expect(r.fc.Intent().Kind).To(Equal(KindHoldAttitude))
			Expect(r.fc.Mode()).To(Equal(ModeTracking))
		})

		It("cancels back to idle", func() {
			r := newRig(physics.NewRCS())
			r.fc.SetIntent(MatchVelocity(r3.Vector{X: 3}))
			r.fc.Cancel()
			Expect(r.fc.Mode()).To(Equal(ModeIdle))
			Expect(r.fc.Intent().Kind).To(Equal(KindIdle))
		})

		It("keeps velocity loop memory when the same kind is re-issued", func() {
			r := newRig(physics.NewRCS())
			r.fc.SetIntent(MatchVelocity(r3.Vector{X: 3}))
			r.step(dt)
			Expect(r.fc.velocity.first).To(BeFalse())

			r.fc.SetIntent(MatchVelocity(r3.Vector{X: 4}))
			Expect(r.fc.velocity.first).To(BeFalse())

			r.fc.SetIntent(HoldAttitude(dynamo.Identity))
			Expect(r.fc.velocity.first).To(BeTrue())
		})

		It("retargets only tracked targeted intents", func() {
			r := newRig(physics.NewRCS())
			target := r.state.WithPose(r3.Vector{X: 100}, dynamo.Identity)
			Expect(r.fc.Retarget(target)).To(BeFalse())

			r.fc.SetIntent(Approach(target, 10))
			moved := target.WithPose(r3.Vector{X: 150}, dynamo.Identity)
			Expect(r.fc.Retarget(moved)).To(BeTrue())
			Expect(r.fc.Intent().Target.Position.X).To(Equal(150.0))
		})
	})

	Describe("MatchVelocity", func() {
		It("converges on a single-thruster probe", func() {
			r := newRig(physics.NewProbe())
			target := r3.Vector{X: 5}
			r.fc.SetIntent(MatchVelocity(target))

			r.runUntilIdle(dt, 60, func(out Output) {
				Expect(out.Command[0]).To(BeNumerically("<=", 1.0))
			})

			Expect(r.fc.Mode()).To(Equal(ModeIdle))
			Expect(r.state.Velocity().Sub(target).Norm()).To(BeNumerically("<", DefaultGains().VelocityTolerance))
		})

		It("converges in three dimensions on an RCS hull", func() {
			r := newRig(physics.NewRCS())
			target := r3.Vector{X: -2, Y: 1.5, Z: 0.5}
			r.fc.SetIntent(MatchVelocity(target))

			r.runUntilIdle(dt, 120, nil)

			Expect(r.fc.Mode()).To(Equal(ModeIdle))
			Expect(r.state.Velocity().Sub(target).Norm()).To(BeNumerically("<", 0.01))
			Expect(r.state.AngularVelocity().Norm()).To(BeNumerically("<", 1e-6))
		})

		It("compensates a known external force", func() {
			r := newRig(physics.NewRCS())
			field := physics.UniformField{Acceleration: r3.Vector{Y: -0.1}}
			r.fc.SetIntent(MatchVelocity(r3.Vector{}))

			for i := 0; i < 50; i++ {
				ext := field.Wrench(r.state)
				out := r.fc.Update(Input{State: r.state, Time: r.t, Dt: dt, External: ext})
				w, err := r.model.ComputeWrench(r.state.Orientation, out.Command)
				Expect(err).NotTo(HaveOccurred())
				r.state = r.integ.Step(r.state, w.Add(ext), dt)
				r.t += dt
			}
			Expect(r.state.Velocity().Norm()).To(BeNumerically("<", 0.01))
		})
	})

	Describe("HoldAttitude", func() {
		It("turns an RCS hull a quarter turn and settles", func() {
			r := newRig(physics.NewRCS())
			goal := dynamo.FromAxisAngle(r3.Vector{Z: 1}, math.Pi/2)
			r.fc.SetIntent(HoldAttitude(goal))

			r.runUntilIdle(dt, 120, func(out Output) {
				Expect(out.Desired.Force.Norm()).To(BeNumerically("<", 1e-9))
			})

			Expect(r.fc.Mode()).To(Equal(ModeIdle))
			Expect(dynamo.AngleBetween(r.state.Orientation, goal)).To(BeNumerically("<", DefaultGains().AngleTolerance))
			Expect(r.state.Velocity().Norm()).To(BeNumerically("<", 1e-6))
		})

		It("never exceeds the turn rate cap by much", func() {
			r := newRig(physics.NewGimbal())
			r.fc.SetIntent(HoldAttitude(dynamo.FromAxisAngle(r3.Vector{X: 1, Y: 1}, 2.5)))
			limit := DefaultGains().MaxTurnRate
			r.runUntilIdle(dt, 120, func(Output) {
				Expect(r.state.AngularVelocity().Norm()).To(BeNumerically("<", limit*1.1))
			})
			Expect(r.fc.Mode()).To(Equal(ModeIdle))
		})
	})

	Describe("Approach", func() {
		It("stops at the standoff sphere without penetrating it", func() {
			r := newRig(physics.NewRCS())
			tgtState, _, err := physics.NewRCS().Build()
			Expect(err).NotTo(HaveOccurred())
			target := tgtState.WithPose(r3.Vector{X: 200, Y: 30}, dynamo.Identity)
			const standoff = 20.0
			r.fc.SetIntent(Approach(target, standoff))

			minRange := math.Inf(1)
			r.runUntilIdle(dt, 400, func(Output) {
				minRange = math.Min(minRange, target.Position.Sub(r.state.Position).Norm())
			})

			Expect(r.fc.Mode()).To(Equal(ModeIdle))
			Expect(minRange).To(BeNumerically(">", standoff-DefaultGains().PositionTolerance))
			rng := target.Position.Sub(r.state.Position).Norm()
			Expect(rng).To(BeNumerically("~", standoff, DefaultGains().PositionTolerance))
		})
	})

	Describe("Approach to a position-only target", func() {
		It("issues finite commands", func() {
			r := newRig(physics.NewRCS())
			r.fc.SetIntent(Approach(physics.State{Position: r3.Vector{X: 100}}, 10))

			out := r.step(dt)
			Expect(dynamo.IsFiniteVec(out.Setpoint.Velocity)).To(BeTrue())
			Expect(out.Setpoint.Velocity.X).To(BeNumerically(">", 0))
			for _, u := range out.Command {
				Expect(math.IsNaN(u)).To(BeFalse())
			}
			Expect(out.Achieved.Force.Norm()).To(BeNumerically(">", 0))
		})
	})

	Describe("Intercept", func() {
		It("reaches a stationary target", func() {
			r := newRig(physics.NewRCS())
			target := r.state.WithPose(r3.Vector{X: 60, Z: -20}, dynamo.Identity)
			r.fc.SetIntent(Intercept(target))

			r.runUntilIdle(dt, 120, func(out Output) {
				Expect(out.Err).NotTo(HaveOccurred())
			})

			Expect(r.fc.Mode()).To(Equal(ModeIdle))
			Expect(target.Position.Sub(r.state.Position).Norm()).To(BeNumerically("<", DefaultGains().InterceptRadius))
		})

		Context("with a target crossing the line of sight", func() {
			const fine = 0.05
			start := r3.Vector{X: 200}
			velocity := r3.Vector{Y: 10}
			live := func(t float64) r3.Vector { return start.Add(velocity.Mul(t)) }

			// fly steps until the intent completes and returns the range to the
			// live target on the completing tick.
			fly := func(r *rig, each func()) float64 {
				hit := math.Inf(1)
				for r.t < 120 && r.fc.Mode() == ModeTracking {
					if each != nil {
						each()
					}
					pos, t := r.state.Position, r.t
					if out := r.step(fine); out.Satisfied {
						hit = live(t).Sub(pos).Norm()
					}
				}
				return hit
			}

			It("closes on the live position from a single snapshot", func() {
				r := newRig(physics.NewRCS())
				r.fc.SetIntent(Intercept(physics.Snapshot(start, velocity)))

				hit := fly(r, nil)

				Expect(r.fc.Mode()).To(Equal(ModeIdle))
				Expect(hit).To(BeNumerically("<", DefaultGains().InterceptRadius))
			})

			It("closes when the snapshot is re-issued every tick", func() {
				r := newRig(physics.NewRCS())
				r.fc.SetIntent(Intercept(physics.Snapshot(start, velocity)))

				hit := fly(r, func() {
					r.fc.SetIntent(Intercept(physics.Snapshot(live(r.t), velocity)))
				})

				Expect(r.fc.Mode()).To(Equal(ModeIdle))
				Expect(hit).To(BeNumerically("<", DefaultGains().InterceptRadius))
			})
		})

		It("reaches a target given only a position", func() {
			r := newRig(physics.NewRCS())
			target := physics.State{Position: r3.Vector{X: 60}}
			r.fc.SetIntent(Intercept(target))

			r.runUntilIdle(0.05, 120, func(out Output) {
				Expect(out.Err).NotTo(HaveOccurred())
				Expect(out.Fallback).To(BeFalse())
			})

			Expect(r.fc.Mode()).To(Equal(ModeIdle))
		})

		It("falls back to holding attitude when unreachable", func() {
			r := newRig(physics.NewRCS())
			r.state = r.state.WithAngularVelocity(r3.Vector{Z: 0.2})
			start := r.state.Orientation
			fleeing := r.state.WithPose(r3.Vector{X: 100}, dynamo.Identity).WithVelocity(r3.Vector{X: 1000})
			r.fc.SetIntent(Intercept(fleeing))

			out := r.step(dt)
			Expect(errors.Is(out.Err, dynamo.ErrUnreachable)).To(BeTrue())
			Expect(errors.Is(out.Err, dynamo.ErrControl)).To(BeTrue())
			Expect(out.Fallback).To(BeTrue())
			Expect(out.Mode).To(Equal(ModeTracking))
			Expect(out.Desired.Force.Norm()).To(BeNumerically("<", 1e-9))
			Expect(out.Setpoint.Orientation).To(Equal(start))
			Expect(out.Desired.Torque.Z).To(BeNumerically("<", 0))

			for i := 0; i < 300; i++ {
				r.step(dt)
			}
			Expect(dynamo.AngleBetween(r.state.Orientation, start)).To(BeNumerically("<", 0.02))
			Expect(r.fc.Mode()).To(Equal(ModeTracking))
		})
	})

	Describe("PointAt", func() {
		It("aims the nose at a stationary target", func() {
			r := newRig(physics.NewRCS())
			target := r.state.WithPose(r3.Vector{Y: 500}, dynamo.Identity)
			r.fc.SetIntent(PointAt(target, 300))

			r.runUntilIdle(dt, 120, nil)

			Expect(r.fc.Mode()).To(Equal(ModeIdle))
			heading := r.state.Heading()
			Expect(heading.Y).To(BeNumerically(">", 0.999))
		})
	})
})
