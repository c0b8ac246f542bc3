package control

import (
	"slices"

	"github.com/samber/lo"
	"github.com/san-kum/inertial/internal/dynamo"
	"github.com/san-kum/inertial/internal/maneuver"
	"go.uber.org/multierr"
)

// Gains holds the controller tuning and the tolerances that end an intent.
type Gains struct {
	VelocityKp float64 `yaml:"velocity_kp"`
	VelocityKd float64 `yaml:"velocity_kd"`
	AttitudeKp float64 `yaml:"attitude_kp"`
	AttitudeKd float64 `yaml:"attitude_kd"`
	// MaxTurnRate caps the commanded angular rate (rad/s). Zero disables the cap.
	MaxTurnRate float64 `yaml:"max_turn_rate"`

	Approach         maneuver.ApproachConfig `yaml:"approach"`
	InterceptSpeed   float64                 `yaml:"intercept_speed"`
	InterceptHorizon float64                 `yaml:"intercept_horizon"`
	PlanStep         float64                 `yaml:"plan_step"`

	VelocityTolerance float64 `yaml:"velocity_tolerance"`
	AngleTolerance    float64 `yaml:"angle_tolerance"`
	RateTolerance     float64 `yaml:"rate_tolerance"`
	PositionTolerance float64 `yaml:"position_tolerance"`
	InterceptRadius   float64 `yaml:"intercept_radius"`
}

func DefaultGains() Gains {
	return Gains{
		VelocityKp:  1.0,
		VelocityKd:  0.1,
		AttitudeKp:  2.0,
		AttitudeKd:  3.0,
		MaxTurnRate: 1.0,

		Approach:         maneuver.DefaultApproachConfig(),
		InterceptSpeed:   50,
		InterceptHorizon: 600,
		PlanStep:         maneuver.DefaultPlanStep,

		VelocityTolerance: 0.01,
		AngleTolerance:    0.01,
		RateTolerance:     0.01,
		PositionTolerance: 0.5,
		InterceptRadius:   5,
	}
}

// Validate reports every out-of-range field.
func (g Gains) Validate() error {
	var err error
	check := func(field string, v float64, positive bool) {
		switch {
		case positive && !(v > 0):
			err = multierr.Append(err, dynamo.NewConfigError("gains."+field, "must be > 0, got %g", v))
		case !(v >= 0):
			err = multierr.Append(err, dynamo.NewConfigError("gains."+field, "must be >= 0, got %g", v))
		}
	}
	check("velocity_kp", g.VelocityKp, true)
	check("velocity_kd", g.VelocityKd, false)
	check("attitude_kp", g.AttitudeKp, true)
	check("attitude_kd", g.AttitudeKd, true)
	check("max_turn_rate", g.MaxTurnRate, false)
	check("approach.max_speed", g.Approach.MaxSpeed, false)
	check("approach.final_gain", g.Approach.FinalGain, true)
	check("approach.braking_margin", g.Approach.BrakingMargin, true)
	check("intercept_speed", g.InterceptSpeed, true)
	check("intercept_horizon", g.InterceptHorizon, false)
	check("plan_step", g.PlanStep, true)
	check("velocity_tolerance", g.VelocityTolerance, true)
	check("angle_tolerance", g.AngleTolerance, true)
	check("rate_tolerance", g.RateTolerance, true)
	check("position_tolerance", g.PositionTolerance, true)
	check("intercept_radius", g.InterceptRadius, true)
	if g.Approach.BrakingMargin > 1 {
		err = multierr.Append(err, dynamo.NewConfigError("gains.approach.braking_margin", "must be <= 1, got %g", g.Approach.BrakingMargin))
	}
	return err
}

func (g *Gains) fields() map[string]*float64 {
	return map[string]*float64{
		"velocity_kp":             &g.VelocityKp,
		"velocity_kd":             &g.VelocityKd,
		"attitude_kp":             &g.AttitudeKp,
		"attitude_kd":             &g.AttitudeKd,
		"max_turn_rate":           &g.MaxTurnRate,
		"approach.max_speed":      &g.Approach.MaxSpeed,
		"approach.final_gain":     &g.Approach.FinalGain,
		"approach.braking_margin": &g.Approach.BrakingMargin,
		"intercept_speed":         &g.InterceptSpeed,
		"intercept_horizon":       &g.InterceptHorizon,
		"plan_step":               &g.PlanStep,
	}
}

// Set assigns a tuning field by its yaml name. Tolerances are not settable.
func (g *Gains) Set(name string, v float64) error {
	p, ok := g.fields()[name]
	if !ok {
		return dynamo.NewConfigError("gains", "unknown tunable %q", name)
	}
	*p = v
	return nil
}

// Tunables lists the names accepted by Set, sorted.
func Tunables() []string {
	var g Gains
	names := lo.Keys(g.fields())
	slices.Sort(names)
	return names
}
