package dynamo

import (
	"fmt"

	"github.com/pkg/errors"
)

// Domain errors for simulation operations.
var (
	// ErrConfig indicates an invalid ship or scenario definition. Fatal at construction.
	ErrConfig = errors.New("dynamo: invalid configuration")

	// ErrControl indicates an intent that cannot be serviced. Never fatal.
	ErrControl = errors.New("dynamo: control error")

	// ErrUnreachable indicates the target cannot be reached with the available closing speed.
	ErrUnreachable error = &ControlError{Reason: "target unreachable"}

	// ErrInvalidState indicates a state with NaN or Inf components.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrDimensionMismatch indicates a vector whose length differs from what the receiver expects.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between command and thrusters")

	// ErrUnknownShip indicates a handle that was never issued or has been removed.
	ErrUnknownShip = errors.New("dynamo: unknown ship handle")
)

// ConfigError describes which field of a ship or scenario definition was rejected.
type ConfigError struct {
	Field  string
	Reason string
	Err    error
}

func NewConfigError(field, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func (e *ConfigError) Error() string {
	reason := e.Reason
	if reason == "" && e.Err != nil {
		reason = e.Err.Error()
	}
	if e.Field == "" {
		return "config: " + reason
	}
	return fmt.Sprintf("config: %s: %s", e.Field, reason)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Is reports true for ErrConfig so callers can match the whole class.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

// ControlError is surfaced by the maneuver solver; the controller falls back instead of failing.
type ControlError struct {
	Reason string
}

func (e *ControlError) Error() string {
	return "control: " + e.Reason
}

func (e *ControlError) Is(target error) bool {
	return target == ErrControl
}

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	Ship    string
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f) ship %s: %v", e.Step, e.Time, e.Ship, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
