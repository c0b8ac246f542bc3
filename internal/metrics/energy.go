package metrics

import (
	"math"

	"github.com/san-kum/inertial/internal/physics"
	"github.com/san-kum/inertial/internal/sim"
)

// Energy is the peak total kinetic energy of the fleet.
type Energy struct {
	name string
	peak float64
}

func NewEnergy() *Energy {
	return &Energy{name: "peak_kinetic_energy"}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(f sim.Frame) {
	e.peak = math.Max(e.peak, totalEnergy(f, nil))
}

func (e *Energy) Value() float64 { return e.peak }

func (e *Energy) Reset() { e.peak = 0 }

// EnergyDrift is the largest relative change of mechanical energy (kinetic plus
// the potential of conservative sources) from the first observed frame. It is
// only meaningful for coasting ships.
type EnergyDrift struct {
	name          string
	sources       []physics.ForceSource
	initialEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift(sources []physics.ForceSource) *EnergyDrift {
	return &EnergyDrift{
		name:    "energy_drift",
		sources: sources,
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(f sim.Frame) {
	energy := totalEnergy(f, e.sources)

	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}

func totalEnergy(f sim.Frame, sources []physics.ForceSource) float64 {
	total := 0.0
	for _, s := range f.Ships {
		total += s.State.KineticEnergy() + physics.TotalPotential(sources, s.State)
	}
	return total
}
