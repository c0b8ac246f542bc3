package metrics

import (
	"math"

	"github.com/san-kum/inertial/internal/sim"
)

// MinSeparation is the closest distance observed between two named ships, or
// between any pair when both names are empty.
type MinSeparation struct {
	name string
	a, b string
	min  float64
}

func NewMinSeparation(a, b string) *MinSeparation {
	name := "min_separation"
	if a != "" || b != "" {
		name += "." + a + "-" + b
	}
	return &MinSeparation{name: name, a: a, b: b, min: math.Inf(1)}
}

func (m *MinSeparation) Name() string { return m.name }

func (m *MinSeparation) Observe(f sim.Frame) {
	for i := range f.Ships {
		for j := i + 1; j < len(f.Ships); j++ {
			if !m.pair(f.Ships[i].Name, f.Ships[j].Name) {
				continue
			}
			d := f.Ships[i].State.Position.Sub(f.Ships[j].State.Position).Norm()
			m.min = math.Min(m.min, d)
		}
	}
}

func (m *MinSeparation) pair(x, y string) bool {
	if m.a == "" && m.b == "" {
		return true
	}
	return (x == m.a && y == m.b) || (x == m.b && y == m.a)
}

// Value is +Inf until a matching pair has been observed.
func (m *MinSeparation) Value() float64 { return m.min }

func (m *MinSeparation) Reset() { m.min = math.Inf(1) }
