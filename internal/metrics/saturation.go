package metrics

import "github.com/san-kum/inertial/internal/sim"

// Saturation is the fraction of ticks in which any selected thruster ran at its limit.
type Saturation struct {
	name      string
	ship      string
	saturated int
	samples   int
}

func NewSaturation(ship string) *Saturation {
	return &Saturation{
		name: qualify("saturation", ship),
		ship: ship,
	}
}

func (s *Saturation) Name() string {
	return s.name
}

func (s *Saturation) Observe(f sim.Frame) {
	s.samples++
	for _, snap := range f.Ships {
		if !selected(s.ship, snap.Name) {
			continue
		}
		for _, u := range snap.Command {
			if u >= 1-1e-9 || u <= -1+1e-9 {
				s.saturated++
				return
			}
		}
	}
}

func (s *Saturation) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return float64(s.saturated) / float64(s.samples)
}

func (s *Saturation) Reset() {
	s.saturated = 0
	s.samples = 0
}
