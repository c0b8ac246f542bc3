package control

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/san-kum/inertial/internal/dynamo"
	"github.com/san-kum/inertial/internal/physics"
	"gonum.org/v1/gonum/mat"
)

const (
	// rankTol is relative to the largest singular value.
	rankTol = 1e-10
	// negTol below which a unidirectional solution is pinned to zero.
	negTol = 1e-12
)

// Allocator maps a desired body-frame wrench onto thruster commands.
//
// Torque and force are solved separately as clamped least-squares problems over
// the thruster columns. The torque solution is scaled into bounds first; the
// force solution is then added with the largest scale that keeps every command
// in bounds, so saturation sacrifices translation before rotation and never
// bends the direction of either.
type Allocator struct {
	cols [][6]float64
	lo   []float64
}

func NewAllocator(model *physics.ThrusterModel) *Allocator {
	a := &Allocator{
		cols: model.Columns(),
		lo:   make([]float64, model.Len()),
	}
	for i := range a.lo {
		a.lo[i], _ = model.Spec(i).Bounds()
	}
	return a
}

func (a *Allocator) Len() int { return len(a.cols) }

// Allocate returns commands within each thruster's bounds. A non-finite
// request yields all thrusters off.
func (a *Allocator) Allocate(desired dynamo.Wrench) []float64 {
	if !dynamo.IsFiniteVec(desired.Force) || !dynamo.IsFiniteVec(desired.Torque) {
		return make([]float64, len(a.cols))
	}
	rot := a.Solve(dynamo.Wrench{Torque: desired.Torque})
	a.scaleInto(rot)

	tr := a.Solve(dynamo.Wrench{Force: desired.Force})
	s := 1.0
	for i, u := range tr {
		switch {
		case u > 0:
			s = math.Min(s, (1-rot[i])/u)
		case u < 0:
			s = math.Min(s, (a.lo[i]-rot[i])/u)
		}
	}
	s = math.Max(s, 0)

	cmd := make([]float64, len(rot))
	for i := range cmd {
		cmd[i] = math.Max(a.lo[i], math.Min(1, rot[i]+s*tr[i]))
	}
	return cmd
}

// scaleInto shrinks u uniformly until every entry lies in its bounds.
func (a *Allocator) scaleInto(u []float64) {
	k := 1.0
	for i, v := range u {
		switch {
		case v > 1:
			k = math.Min(k, 1/v)
		case v < a.lo[i]:
			k = math.Min(k, a.lo[i]/v)
		}
	}
	if k < 1 {
		for i := range u {
			u[i] *= k
		}
	}
}

// Solve is the least-squares command for target, unbounded above but never
// negative on unidirectional thrusters. Columns pinned at zero are removed and
// the rest re-solved until the sign constraints hold.
func (a *Allocator) Solve(target dynamo.Wrench) []float64 {
	u := make([]float64, len(a.cols))
	if target.IsZero() {
		return u
	}
	b := mat.NewVecDense(6, wrenchVec(target))

	free := make([]int, 0, len(a.cols))
	for i, c := range a.cols {
		if c != ([6]float64{}) {
			free = append(free, i)
		}
	}

	for len(free) > 0 {
		x, ok := solveLeastSquares(a.cols, free, b)
		if !ok {
			break
		}

		next := make([]int, 0, len(free))
		for j, i := range free {
			if a.lo[i] >= 0 && x[j] < -negTol {
				continue
			}
			next = append(next, i)
		}
		if len(next) == len(free) {
			for j, i := range free {
				u[i] = x[j]
			}
			break
		}
		free = next
	}

	for i := range u {
		if a.lo[i] >= 0 && u[i] < 0 {
			u[i] = 0
		}
	}
	return u
}

// solveLeastSquares returns the minimum-norm solution over the given columns via SVD.
func solveLeastSquares(cols [][6]float64, free []int, b *mat.VecDense) ([]float64, bool) {
	A := mat.NewDense(6, len(free), nil)
	for j, i := range free {
		for r := 0; r < 6; r++ {
			A.Set(r, j, cols[i][r])
		}
	}

	var svd mat.SVD
	if !svd.Factorize(A, mat.SVDThin) {
		return nil, false
	}
	rank := svd.Rank(rankTol)
	if rank == 0 {
		return nil, false
	}

	var x mat.VecDense
	svd.SolveVecTo(&x, b, rank)
	return x.RawVector().Data, true
}

func wrenchVec(w dynamo.Wrench) []float64 {
	return []float64{w.Force.X, w.Force.Y, w.Force.Z, w.Torque.X, w.Torque.Y, w.Torque.Z}
}

// Achievable is the body wrench produced by cmd.
func (a *Allocator) Achievable(cmd []float64) dynamo.Wrench {
	var w [6]float64
	for i, u := range cmd {
		for r := 0; r < 6; r++ {
			w[r] += a.cols[i][r] * u
		}
	}
	return dynamo.Wrench{
		Force:  r3.Vector{X: w[0], Y: w[1], Z: w[2]},
		Torque: r3.Vector{X: w[3], Y: w[4], Z: w[5]},
	}
}
