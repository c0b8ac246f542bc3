package sim

import (
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/san-kum/inertial/internal/control"
	"github.com/san-kum/inertial/internal/dynamo"
	"github.com/san-kum/inertial/internal/integrators"
	"github.com/san-kum/inertial/internal/physics"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/num/quat"
)

// Handle identifies a ship. A handle goes stale when its ship is removed, even
// if the slot is later reused.
type Handle struct {
	slot int
	gen  uint32
}

func (h Handle) String() string { return fmt.Sprintf("ship#%d.%d", h.slot, h.gen) }

// Initial is the starting kinematic state of a ship.
type Initial struct {
	Position        r3.Vector
	Velocity        r3.Vector
	Orientation     quat.Number
	AngularVelocity r3.Vector
}

type ShipConfig struct {
	Name      string
	Mass      float64
	Inertia   dynamo.Mat3
	Thrusters []physics.ThrusterSpec
	// Gains defaults to control.DefaultGains when nil.
	Gains   *control.Gains
	Initial Initial
}

// Snapshot is a ship's state after a tick.
type Snapshot struct {
	Handle  Handle
	Name    string
	State   physics.State
	Mode    control.Mode
	Intent  control.Kind
	Command []float64
	// Thrust is the world-frame wrench the thrusters produced this tick.
	Thrust dynamo.Wrench
	Err    error
}

// Frame is every live ship at one instant, in handle order.
type Frame struct {
	Step  int
	Time  float64
	Ships []Snapshot
}

type Metric interface {
	Name() string
	Observe(f Frame)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(f Frame)
}

// Config is fixed for the life of a Simulator.
type Config struct {
	// Workers > 1 evaluates ships in parallel within a tick.
	Workers    int
	Integrator integrators.Integrator
	Forces     []physics.ForceSource
	Logger     *zap.Logger
}

type RunConfig struct {
	Dt       float64
	Duration float64
	// StopWhenIdle ends the run once no ship is tracking an intent.
	StopWhenIdle bool
}

type Result struct {
	Frames     []Frame
	Metrics    map[string]float64
	StepsTaken int
}

// Names lists the ships present in the first frame.
func (r *Result) Names() []string {
	if len(r.Frames) == 0 {
		return nil
	}
	names := make([]string, len(r.Frames[0].Ships))
	for i, s := range r.Frames[0].Ships {
		names[i] = s.Name
	}
	return names
}
