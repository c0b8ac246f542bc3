package maneuver

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Setpoint is one sample of a maneuver profile. Unset components leave the
// corresponding axis of control free.
type Setpoint struct {
	Time           float64
	Velocity       r3.Vector
	HasVelocity    bool
	Orientation    quat.Number
	HasOrientation bool
	// Range is the remaining distance to the goal (standoff sphere, intercept point).
	Range float64
}

// ApproachConfig shapes the closing-speed profile.
type ApproachConfig struct {
	MaxSpeed float64 `yaml:"max_speed"`
	// FinalGain is the slope (1/s) of the linear zone near the standoff sphere.
	FinalGain float64 `yaml:"final_gain"`
	// BrakingMargin is the fraction of deceleration capability the profile may use.
	BrakingMargin float64 `yaml:"braking_margin"`
}

func DefaultApproachConfig() ApproachConfig {
	return ApproachConfig{MaxSpeed: 20, FinalGain: 0.5, BrakingMargin: 0.8}
}

// ClosingSpeed is the signed speed toward the goal for a given gap. Negative gaps
// (inside the standoff sphere) give a backing-off speed.
func ClosingSpeed(gap, maxDecel float64, cfg ApproachConfig) float64 {
	d := math.Abs(gap)
	a := math.Max(maxDecel*cfg.BrakingMargin, 0)
	speed := math.Min(math.Sqrt(2*a*d), cfg.FinalGain*d)
	if cfg.MaxSpeed > 0 {
		speed = math.Min(speed, cfg.MaxSpeed)
	}
	return math.Copysign(speed, gap)
}

// LineOfSight returns the unit vector from own to target. Coincident bodies use +X.
func LineOfSight(own, target Kinematics) (r3.Vector, float64) {
	r := target.Position.Sub(own.Position)
	dist := r.Norm()
	if dist == 0 {
		return r3.Vector{X: 1}, 0
	}
	return r.Mul(1 / dist), dist
}

// ApproachSetpoint returns the velocity that brings own to the standoff sphere around
// target and leaves it co-moving there. maxDecel is the braking acceleration own can
// produce along the line of sight.
func ApproachSetpoint(own, target Kinematics, standoff, maxDecel float64, cfg ApproachConfig) Setpoint {
	los, dist := LineOfSight(own, target)
	gap := dist - standoff
	return Setpoint{
		Velocity:    target.Velocity.Add(los.Mul(ClosingSpeed(gap, maxDecel, cfg))),
		HasVelocity: true,
		Range:       gap,
	}
}
