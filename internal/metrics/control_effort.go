package metrics

import (
	"math"

	"github.com/san-kum/inertial/internal/sim"
)

// ControlEffort is the mean per-tick sum of |command| over the selected ships.
type ControlEffort struct {
	name    string
	ship    string
	sum     float64
	samples int
}

// NewControlEffort watches ship, or every ship when ship is empty.
func NewControlEffort(ship string) *ControlEffort {
	return &ControlEffort{
		name: qualify("control_effort", ship),
		ship: ship,
	}
}

func (c *ControlEffort) Name() string {
	return c.name
}

func (c *ControlEffort) Observe(f sim.Frame) {
	for _, s := range f.Ships {
		if !selected(c.ship, s.Name) {
			continue
		}
		for _, val := range s.Command {
			c.sum += math.Abs(val)
		}
	}
	c.samples++
}

func (c *ControlEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *ControlEffort) Reset() {
	c.sum = 0
	c.samples = 0
}

func qualify(name, ship string) string {
	if ship == "" {
		return name
	}
	return name + "." + ship
}

func selected(want, name string) bool {
	return want == "" || want == name
}
