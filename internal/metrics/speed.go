package metrics

import (
	"fmt"

	"github.com/montanaflynn/stats"
	"github.com/san-kum/inertial/internal/sim"
)

// Speed is a percentile of the observed ship speeds.
type Speed struct {
	name       string
	ship       string
	percentile float64
	samples    stats.Float64Data
}

// NewSpeed watches ship (all ships when empty) and reports the given percentile.
func NewSpeed(ship string, percentile float64) *Speed {
	return &Speed{
		name:       qualify(fmt.Sprintf("speed_p%g", percentile), ship),
		ship:       ship,
		percentile: percentile,
	}
}

func (s *Speed) Name() string { return s.name }

func (s *Speed) Observe(f sim.Frame) {
	for _, snap := range f.Ships {
		if selected(s.ship, snap.Name) {
			s.samples = append(s.samples, snap.State.Velocity().Norm())
		}
	}
}

func (s *Speed) Value() float64 {
	if len(s.samples) == 0 {
		return 0
	}
	v, err := s.samples.Percentile(s.percentile)
	if err != nil {
		return 0
	}
	return v
}

func (s *Speed) Reset() { s.samples = s.samples[:0] }
