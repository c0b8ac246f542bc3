package control

import "github.com/golang/geo/r3"

// PD is a vector proportional-derivative law. The derivative is taken from the
// previous call's error, so the first call after Reset is proportional only.
type PD struct {
	Kp float64
	Kd float64

	prevErr r3.Vector
	prevT   float64
	first   bool
}

func NewPD(kp, kd float64) *PD {
	return &PD{Kp: kp, Kd: kd, first: true}
}

func (p *PD) Compute(err r3.Vector, t float64) r3.Vector {
	if p.first {
		p.prevErr = err
		p.prevT = t
		p.first = false
		return err.Mul(p.Kp)
	}

	dt := t - p.prevT
	if dt > 0 {
		derivative := err.Sub(p.prevErr).Mul(1 / dt)
		u := err.Mul(p.Kp).Add(derivative.Mul(p.Kd))

		p.prevErr = err
		p.prevT = t

		return u
	}
	return err.Mul(p.Kp)
}

// Reset clears derivative state
func (p *PD) Reset() {
	p.prevErr = r3.Vector{}
	p.first = true
}
