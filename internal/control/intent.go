package control

import (
	"math"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/san-kum/inertial/internal/dynamo"
	"github.com/san-kum/inertial/internal/physics"
	"gonum.org/v1/gonum/num/quat"
)

// Kind tags the variant held by an Intent.
type Kind int

const (
	KindIdle Kind = iota
	KindMatchVelocity
	KindHoldAttitude
	KindApproach
	KindIntercept
	KindPointAt
)

var kindNames = [...]string{
	KindIdle:          "idle",
	KindMatchVelocity: "match_velocity",
	KindHoldAttitude:  "hold_attitude",
	KindApproach:      "approach",
	KindIntercept:     "intercept",
	KindPointAt:       "point_at",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// ParseKind accepts the names printed by Kind.String, case-insensitively.
func ParseKind(s string) (Kind, error) {
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for k, n := range kindNames {
		if n == name {
			return Kind(k), nil
		}
	}
	return KindIdle, dynamo.NewConfigError("intent.kind", "unknown intent %q", s)
}

// Targeted reports whether the intent refers to another body.
func (k Kind) Targeted() bool {
	return k == KindApproach || k == KindIntercept || k == KindPointAt
}

// Intent is a high-level goal. Only the fields of its Kind are meaningful.
// Target is a snapshot; the controller advances it at constant velocity from the
// first tick it sees it. Use physics.Snapshot for bodies outside the simulator.
type Intent struct {
	Kind        Kind
	Velocity    r3.Vector
	Orientation quat.Number
	Target      physics.State
	Standoff    float64
	// Speed is the projectile speed used for lead aiming by PointAt.
	Speed float64
}

func Idle() Intent { return Intent{Kind: KindIdle} }

// Validate rejects intents whose fields for their Kind are not finite.
func (in Intent) Validate() error {
	switch in.Kind {
	case KindMatchVelocity:
		if !dynamo.IsFiniteVec(in.Velocity) {
			return dynamo.NewConfigError("intent.velocity", "must be finite")
		}
	case KindHoldAttitude:
		if quat.IsNaN(in.Orientation) || quat.IsInf(in.Orientation) {
			return dynamo.NewConfigError("intent.orientation", "must be finite")
		}
	}
	if !in.Kind.Targeted() {
		return nil
	}
	if !in.Target.IsValid() {
		return dynamo.NewConfigError("intent.target", "state must be finite")
	}
	if in.Kind == KindApproach && (!(in.Standoff >= 0) || math.IsInf(in.Standoff, 0)) {
		return dynamo.NewConfigError("intent.standoff", "must be non-negative and finite, got %g", in.Standoff)
	}
	if in.Kind == KindPointAt && (!(in.Speed >= 0) || math.IsInf(in.Speed, 0)) {
		return dynamo.NewConfigError("intent.speed", "must be non-negative and finite, got %g", in.Speed)
	}
	return nil
}

func MatchVelocity(v r3.Vector) Intent {
	return Intent{Kind: KindMatchVelocity, Velocity: v}
}

func HoldAttitude(q quat.Number) Intent {
	return Intent{Kind: KindHoldAttitude, Orientation: dynamo.Normalize(q)}
}

// Approach brings the ship to rest relative to target at standoff distance.
func Approach(target physics.State, standoff float64) Intent {
	return Intent{Kind: KindApproach, Target: target, Standoff: standoff}
}

// Intercept steers onto a straight collision course with target.
func Intercept(target physics.State) Intent {
	return Intent{Kind: KindIntercept, Target: target}
}

// PointAt turns the nose to the lead-aim point for a projectile at speed.
func PointAt(target physics.State, speed float64) Intent {
	return Intent{Kind: KindPointAt, Target: target, Speed: speed}
}

// Mode is the controller state machine.
type Mode int

const (
	ModeIdle Mode = iota
	ModeTracking
)

func (m Mode) String() string {
	if m == ModeTracking {
		return "tracking"
	}
	return "idle"
}
