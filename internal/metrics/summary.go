package metrics

import (
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/san-kum/inertial/internal/physics"
	"github.com/san-kum/inertial/internal/sim"
)

// Summary describes a sampled series.
type Summary struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	P95    float64 `json:"p95"`
}

func Summarize(values []float64) (Summary, error) {
	data := stats.Float64Data(values)
	if data.Len() == 0 {
		return Summary{}, errors.New("summarize: no samples")
	}
	var s Summary
	var err error
	if s.Mean, err = data.Mean(); err != nil {
		return Summary{}, errors.Wrap(err, "mean")
	}
	if s.StdDev, err = data.StandardDeviation(); err != nil {
		return Summary{}, errors.Wrap(err, "stddev")
	}
	if s.Min, err = data.Min(); err != nil {
		return Summary{}, errors.Wrap(err, "min")
	}
	if s.Max, err = data.Max(); err != nil {
		return Summary{}, errors.Wrap(err, "max")
	}
	if s.P95, err = data.Percentile(95); err != nil {
		return Summary{}, errors.Wrap(err, "p95")
	}
	return s, nil
}

// Standard returns the metric set recorded for every run.
func Standard(sources []physics.ForceSource) []sim.Metric {
	return []sim.Metric{
		NewControlEffort(""),
		NewEnergy(),
		NewEnergyDrift(sources),
		NewSpeed("", 95),
		NewMinSeparation("", ""),
		NewSaturation(""),
	}
}
