package sim

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// Pacer ticks a Simulator at wall-clock rate. Speed scales simulated time
// against wall time (2 runs twice as fast).
type Pacer struct {
	sim   *Simulator
	clock clock.Clock
	dt    float64
	speed float64
}

// Paced is one frame from a Pacer, or the error that stopped it.
type Paced struct {
	Frame Frame
	Err   error
}

func NewPacer(s *Simulator, clk clock.Clock, dt, speed float64) *Pacer {
	if clk == nil {
		clk = clock.New()
	}
	if speed <= 0 {
		speed = 1
	}
	return &Pacer{sim: s, clock: clk, dt: dt, speed: speed}
}

// Interval is the wall time between ticks.
func (p *Pacer) Interval() time.Duration {
	return time.Duration(p.dt / p.speed * float64(time.Second))
}

// Start begins ticking and returns the frame stream. The stream closes when ctx
// is done or a tick fails; the failing tick is delivered with its error. The
// caller must drain the stream and must not use the Simulator until it closes.
func (p *Pacer) Start(ctx context.Context) <-chan Paced {
	out := make(chan Paced, 1)
	ticker := p.clock.Ticker(p.Interval())

	go func() {
		defer close(out)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			f, err := p.sim.Tick(p.dt)
			select {
			case out <- Paced{Frame: f, Err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				p.sim.logger.Warn("pacer stopped", zap.Error(err))
				return
			}
		}
	}()
	return out
}
