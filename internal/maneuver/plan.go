package maneuver

import (
	"iter"
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// DefaultPlanStep is the sampling interval of generated plans, in seconds.
const DefaultPlanStep = 0.5

// Plan is a finite, time-ordered setpoint sequence. Samples are generated on
// demand and cached; iterating again restarts from the first sample.
type Plan struct {
	limit int
	gen   func(i int, prev Setpoint) (Setpoint, bool)
	cache []Setpoint
	done  bool
}

func newPlan(limit int, gen func(i int, prev Setpoint) (Setpoint, bool)) *Plan {
	if limit < 1 {
		limit = 1
	}
	return &Plan{limit: limit, gen: gen}
}

// Hold is a single-sample plan.
func Hold(sp Setpoint) *Plan {
	return &Plan{limit: 1, cache: []Setpoint{sp}, done: true}
}

// At returns the i-th sample, generating up to it if needed.
func (p *Plan) At(i int) (Setpoint, bool) {
	if i < 0 {
		return Setpoint{}, false
	}
	for len(p.cache) <= i && !p.done {
		p.extend()
	}
	if i >= len(p.cache) {
		return Setpoint{}, false
	}
	return p.cache[i], true
}

func (p *Plan) extend() {
	n := len(p.cache)
	if n >= p.limit {
		p.done = true
		return
	}
	var prev Setpoint
	if n > 0 {
		prev = p.cache[n-1]
	}
	sp, more := p.gen(n, prev)
	p.cache = append(p.cache, sp)
	if !more || len(p.cache) >= p.limit {
		p.done = true
	}
}

// First is the setpoint to track now.
func (p *Plan) First() Setpoint {
	sp, _ := p.At(0)
	return sp
}

// Len generates the whole plan and returns its sample count.
func (p *Plan) Len() int {
	for !p.done {
		p.extend()
	}
	return len(p.cache)
}

// Duration is the time of the last sample.
func (p *Plan) Duration() float64 {
	n := p.Len()
	if n == 0 {
		return 0
	}
	return p.cache[n-1].Time
}

func (p *Plan) All() iter.Seq2[int, Setpoint] {
	return func(yield func(int, Setpoint) bool) {
		for i := 0; ; i++ {
			sp, ok := p.At(i)
			if !ok || !yield(i, sp) {
				return
			}
		}
	}
}

// ApproachPlan profiles the approach to the standoff sphere, assuming own tracks
// each setpoint exactly. It ends when the gap closes below tolerance or at horizon.
func ApproachPlan(own, target Kinematics, standoff, maxDecel float64, cfg ApproachConfig, step, horizon float64) *Plan {
	const tolerance = 1e-3
	if step <= 0 {
		step = DefaultPlanStep
	}
	los, dist := LineOfSight(own, target)
	gap0 := dist - standoff
	limit := int(math.Ceil(horizon/step)) + 1

	sample := func(t, gap float64) Setpoint {
		return Setpoint{
			Time:        t,
			Velocity:    target.Velocity.Add(los.Mul(ClosingSpeed(gap, maxDecel, cfg))),
			HasVelocity: true,
			Range:       gap,
		}
	}

	return newPlan(limit, func(i int, prev Setpoint) (Setpoint, bool) {
		if i == 0 {
			return sample(0, gap0), math.Abs(gap0) > tolerance
		}
		closing := ClosingSpeed(prev.Range, maxDecel, cfg)
		gap := prev.Range - closing*step
		if (prev.Range > 0) != (gap > 0) {
			gap = 0
		}
		return sample(prev.Time+step, gap), math.Abs(gap) > tolerance
	})
}

// InterceptPlan follows the straight intercept course until the meeting time.
func InterceptPlan(origin r3.Vector, target Kinematics, speed, horizon, step float64) (*Plan, error) {
	sol, err := Intercept(origin, target, speed, horizon)
	if err != nil {
		return nil, err
	}
	if step <= 0 {
		step = DefaultPlanStep
	}
	limit := int(math.Ceil(sol.Time/step)) + 1
	return newPlan(limit, func(i int, _ Setpoint) (Setpoint, bool) {
		t := math.Min(float64(i)*step, sol.Time)
		return Setpoint{
			Time:        t,
			Velocity:    sol.Velocity,
			HasVelocity: true,
			Range:       speed * (sol.Time - t),
		}, t < sol.Time
	}), nil
}

// AimPlan is a single orientation setpoint pointing the forward axis at the
// lead-aim point.
func AimPlan(origin r3.Vector, current quat.Number, target Kinematics, projectileSpeed float64) *Plan {
	aim := LeadAim(origin, target, projectileSpeed)
	return Hold(Setpoint{
		Orientation:    LookRotation(current, aim),
		HasOrientation: true,
		Range:          aim.Norm(),
	})
}
