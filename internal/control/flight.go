package control

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/san-kum/inertial/internal/dynamo"
	"github.com/san-kum/inertial/internal/maneuver"
	"github.com/san-kum/inertial/internal/physics"
	"gonum.org/v1/gonum/num/quat"
)

// Input is what the controller sees each tick.
type Input struct {
	State physics.State
	Time  float64
	Dt    float64
	// External is the known world-frame disturbance (gravity), compensated before allocation.
	External dynamo.Wrench
}

// Output is the controller's decision for one tick. Wrenches are body frame.
type Output struct {
	Command  []float64
	Desired  dynamo.Wrench
	Achieved dynamo.Wrench
	Setpoint maneuver.Setpoint
	Mode     Mode
	// Satisfied is set on the tick the intent completes.
	Satisfied bool
	// Fallback is set while the intent cannot be serviced; Err says why.
	Fallback bool
	Err      error
}

// FlightController tracks one intent for one ship. Not safe for concurrent use.
type FlightController struct {
	model *physics.ThrusterModel
	alloc *Allocator
	gains Gains

	intent   Intent
	mode     Mode
	velocity *PD
	plan     *maneuver.Plan

	fallback    quat.Number
	hasFallback bool

	// issued is the time the target snapshot was taken, stamped on the first
	// Update after it arrives.
	issued  float64
	stamped bool
}

func NewFlightController(model *physics.ThrusterModel, gains Gains) (*FlightController, error) {
	if err := gains.Validate(); err != nil {
		return nil, err
	}
	return &FlightController{
		model:    model,
		alloc:    NewAllocator(model),
		gains:    gains,
		intent:   Idle(),
		velocity: NewPD(gains.VelocityKp, gains.VelocityKd),
	}, nil
}

func (c *FlightController) Gains() Gains          { return c.gains }
func (c *FlightController) Intent() Intent        { return c.intent }
func (c *FlightController) Mode() Mode            { return c.mode }
func (c *FlightController) Plan() *maneuver.Plan  { return c.plan }
func (c *FlightController) Allocator() *Allocator { return c.alloc }

// SetIntent replaces the current intent immediately. Re-issuing the tracked
// kind with a new target or setpoint keeps the velocity loop's memory.
func (c *FlightController) SetIntent(in Intent) {
	same := c.mode == ModeTracking && in.Kind == c.intent.Kind
	c.intent = in
	c.plan = nil
	c.stamped = false
	if !same {
		c.hasFallback = false
		c.velocity.Reset()
	}
	if in.Kind == KindIdle {
		c.mode = ModeIdle
		return
	}
	c.mode = ModeTracking
}

// Cancel drops the current intent.
func (c *FlightController) Cancel() {
	c.SetIntent(Idle())
}

// Retarget refreshes the target snapshot of a tracked targeted intent without
// resetting controller memory. It reports false when there is nothing to refresh.
func (c *FlightController) Retarget(target physics.State) bool {
	if c.mode != ModeTracking || !c.intent.Kind.Targeted() {
		return false
	}
	c.intent.Target = target
	c.stamped = false
	return true
}

// target extrapolates the intent's target snapshot to time t at constant velocity.
func (c *FlightController) target(t float64) maneuver.Kinematics {
	k := maneuver.FromState(c.intent.Target)
	if !c.stamped {
		c.issued = t
		c.stamped = true
	}
	k.Position = k.At(t - c.issued)
	return k
}

// Update computes the thruster command for this tick.
func (c *FlightController) Update(in Input) Output {
	out := Output{Command: make([]float64, c.model.Len()), Mode: c.mode}
	if c.mode == ModeIdle {
		return out
	}
	s := in.State
	target := c.target(in.Time)

	sp, err := c.replan(s, target)
	if err != nil {
		if !c.hasFallback {
			c.fallback = s.Orientation
			c.hasFallback = true
		}
		sp = maneuver.Setpoint{Orientation: c.fallback, HasOrientation: true}
		out.Fallback = true
		out.Err = err
	} else {
		c.hasFallback = false
		if c.satisfied(s, sp, target) {
			c.mode = ModeIdle
			c.velocity.Reset()
			out.Mode = ModeIdle
			out.Satisfied = true
			out.Setpoint = sp
			return out
		}
	}
	out.Setpoint = sp

	forceWorld := c.translation(s, sp, in.Time).Sub(in.External.Force)
	torqueBody := c.rotation(s, sp).Sub(s.ToBody(in.External.Torque))

	out.Desired = dynamo.Wrench{Force: s.ToBody(forceWorld), Torque: torqueBody}
	out.Command = c.alloc.Allocate(out.Desired)
	out.Achieved = c.alloc.Achievable(out.Command)
	return out
}

// replan evaluates the intent against the live state and the extrapolated target.
func (c *FlightController) replan(s physics.State, target maneuver.Kinematics) (maneuver.Setpoint, error) {
	g := c.gains
	own := maneuver.FromState(s)

	switch c.intent.Kind {
	case KindMatchVelocity:
		c.plan = maneuver.Hold(maneuver.Setpoint{Velocity: c.intent.Velocity, HasVelocity: true})

	case KindHoldAttitude:
		c.plan = maneuver.Hold(maneuver.Setpoint{Orientation: c.intent.Orientation, HasOrientation: true})

	case KindApproach:
		los, _ := maneuver.LineOfSight(own, target)
		decel := c.model.MaxForceAlong(s.ToBody(los.Mul(-1))) / s.Mass()
		c.plan = maneuver.ApproachPlan(own, target, c.intent.Standoff, decel, g.Approach, g.PlanStep, g.InterceptHorizon)

	case KindIntercept:
		plan, err := maneuver.InterceptPlan(own.Position, target, g.InterceptSpeed, g.InterceptHorizon, g.PlanStep)
		if err != nil {
			c.plan = nil
			return maneuver.Setpoint{}, err
		}
		c.plan = plan

	case KindPointAt:
		relative := maneuver.Kinematics{Position: target.Position, Velocity: target.Velocity.Sub(own.Velocity)}
		c.plan = maneuver.AimPlan(own.Position, s.Orientation, relative, c.intent.Speed)
	}
	return c.plan.First(), nil
}

func (c *FlightController) satisfied(s physics.State, sp maneuver.Setpoint, target maneuver.Kinematics) bool {
	g := c.gains
	switch c.intent.Kind {
	case KindMatchVelocity:
		return s.Velocity().Sub(c.intent.Velocity).Norm() < g.VelocityTolerance
	case KindHoldAttitude, KindPointAt:
		return dynamo.AngleBetween(s.Orientation, sp.Orientation) < g.AngleTolerance &&
			s.AngularVelocity().Norm() < g.RateTolerance
	case KindApproach:
		rel := s.Velocity().Sub(target.Velocity)
		return math.Abs(sp.Range) < g.PositionTolerance && rel.Norm() < g.VelocityTolerance
	case KindIntercept:
		return target.Position.Sub(s.Position).Norm() < g.InterceptRadius
	}
	return false
}

// translation is the world-frame force that tracks the velocity setpoint.
func (c *FlightController) translation(s physics.State, sp maneuver.Setpoint, t float64) r3.Vector {
	if !sp.HasVelocity {
		c.velocity.Reset()
		return r3.Vector{}
	}
	a := c.velocity.Compute(sp.Velocity.Sub(s.Velocity()), t)
	return a.Add(c.planAcceleration()).Mul(s.Mass())
}

// planAcceleration is the feed-forward acceleration between the first two plan samples.
func (c *FlightController) planAcceleration() r3.Vector {
	if c.plan == nil {
		return r3.Vector{}
	}
	next, ok := c.plan.At(1)
	if !ok || !next.HasVelocity {
		return r3.Vector{}
	}
	first := c.plan.First()
	span := next.Time - first.Time
	if span <= 0 {
		return r3.Vector{}
	}
	return next.Velocity.Sub(first.Velocity).Mul(1 / span)
}

// rotation is the body-frame torque that tracks the orientation setpoint, or
// damps rotation when there is none.
func (c *FlightController) rotation(s physics.State, sp maneuver.Setpoint) r3.Vector {
	var rateWorld r3.Vector
	if sp.HasOrientation {
		rateWorld = c.turnRate(s, dynamo.RotationVector(dynamo.RotationBetween(s.Orientation, sp.Orientation)))
	}

	omega := s.ToBody(s.AngularVelocity())
	alpha := s.ToBody(rateWorld).Sub(omega).Mul(c.gains.AttitudeKd)

	inertia := s.Inertia()
	return inertia.MulVec(alpha).Add(omega.Cross(inertia.MulVec(omega)))
}

// turnRate shapes the commanded angular rate for a world-frame rotation error:
// linear near the goal, limited by the braking torque and the turn rate cap.
func (c *FlightController) turnRate(s physics.State, theta r3.Vector) r3.Vector {
	angle := theta.Norm()
	if angle == 0 {
		return r3.Vector{}
	}
	axis := theta.Mul(1 / angle)
	axisBody := s.ToBody(axis)

	rate := c.gains.AttitudeKp * angle
	if moment := axisBody.Dot(s.Inertia().MulVec(axisBody)); moment > 0 {
		brake := c.model.MaxTorqueAbout(axisBody.Mul(-1)) / moment * c.gains.Approach.BrakingMargin
		rate = math.Min(rate, math.Sqrt(2*brake*angle))
	}
	if c.gains.MaxTurnRate > 0 {
		rate = math.Min(rate, c.gains.MaxTurnRate)
	}
	return axis.Mul(rate)
}
