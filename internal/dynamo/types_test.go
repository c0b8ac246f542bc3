package dynamo

import (
	"math"
	"sync/atomic"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"
)

func vecNear(a, b r3.Vector, tol float64) bool {
	return a.Sub(b).Norm() <= tol
}

func TestRotate(t *testing.T) {
	q := FromAxisAngle(r3.Vector{Z: 1}, math.Pi/2)

	got := Rotate(q, r3.Vector{X: 1})
	if !vecNear(got, r3.Vector{Y: 1}, 1e-12) {
		t.Errorf("expected +y, got %v", got)
	}

	back := RotateInv(q, got)
	if !vecNear(back, r3.Vector{X: 1}, 1e-12) {
		t.Errorf("inverse rotation should restore +x, got %v", back)
	}
}

func TestRotationVector(t *testing.T) {
	tests := []struct {
		name  string
		axis  r3.Vector
		angle float64
	}{
		{"zero", r3.Vector{X: 1}, 0},
		{"quarter z", r3.Vector{Z: 1}, math.Pi / 2},
		{"oblique", r3.Vector{X: 1, Y: 1, Z: 0}, 1.2},
		{"negative", r3.Vector{Y: 1}, -0.7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := FromAxisAngle(tt.axis, tt.angle)
			rv := RotationVector(q)
			want := tt.axis.Normalize().Mul(tt.angle)
			if !vecNear(rv, want, 1e-9) {
				t.Errorf("expected %v, got %v", want, rv)
			}
		})
	}
}

func TestRotationVectorShortestPath(t *testing.T) {
	q := FromAxisAngle(r3.Vector{Z: 1}, 1.5*math.Pi)
	rv := RotationVector(q)
	if math.Abs(rv.Norm()-0.5*math.Pi) > 1e-9 {
		t.Errorf("expected shortest rotation of pi/2, got %f", rv.Norm())
	}
	if rv.Z >= 0 {
		t.Errorf("shortest path should turn negatively about z, got %v", rv)
	}
}

func TestAngleBetween(t *testing.T) {
	a := Identity
	b := FromAxisAngle(r3.Vector{X: 1}, 0.3)
	if got := AngleBetween(a, b); math.Abs(got-0.3) > 1e-9 {
		t.Errorf("expected 0.3, got %f", got)
	}
}

func TestNormalize(t *testing.T) {
	q := Normalize(quat.Number{Real: 2, Imag: 2})
	if math.Abs(quat.Abs(q)-1) > 1e-12 {
		t.Errorf("expected unit quaternion, got norm %f", quat.Abs(q))
	}
	if Normalize(quat.Number{}) != Identity {
		t.Error("zero quaternion should normalize to identity")
	}
}

func TestWrench(t *testing.T) {
	w := Wrench{Force: r3.Vector{X: 1}, Torque: r3.Vector{Z: 2}}
	sum := w.Add(w).Scale(0.5)
	if sum != w {
		t.Errorf("expected %v, got %v", w, sum)
	}
	if w.IsZero() || !(Wrench{}).IsZero() {
		t.Error("IsZero mismatch")
	}
}

func TestMat3(t *testing.T) {
	m := Diag(1, 2, 3)
	got := m.MulVec(r3.Vector{X: 1, Y: 1, Z: 1})
	if got != (r3.Vector{X: 1, Y: 2, Z: 3}) {
		t.Errorf("unexpected product %v", got)
	}
	if !m.IsSymmetric(0) {
		t.Error("diagonal matrix should be symmetric")
	}
	m[0][1] = 1
	if m.IsSymmetric(1e-9) {
		t.Error("expected asymmetric matrix")
	}
}

func TestClampNorm(t *testing.T) {
	v := ClampNorm(r3.Vector{X: 3, Y: 4}, 1)
	if math.Abs(v.Norm()-1) > 1e-12 {
		t.Errorf("expected unit length, got %f", v.Norm())
	}
	if ClampNorm(r3.Vector{X: 0.5}, 1) != (r3.Vector{X: 0.5}) {
		t.Error("short vectors should pass through")
	}
}

func TestErrorTaxonomy(t *testing.T) {
	cfgErr := errors.Wrap(NewConfigError("mass", "must be positive, got %f", -1.0), "create ship")
	if !errors.Is(cfgErr, ErrConfig) {
		t.Error("config error should match ErrConfig")
	}
	if errors.Is(cfgErr, ErrControl) {
		t.Error("config error should not match ErrControl")
	}

	ctrlErr := errors.Wrap(ErrUnreachable, "intercept")
	if !errors.Is(ctrlErr, ErrControl) || !errors.Is(ctrlErr, ErrUnreachable) {
		t.Error("unreachable should match both ErrUnreachable and ErrControl")
	}

	simErr := &SimulationError{Step: 3, Time: 0.3, Ship: "a", Wrapped: ErrInvalidState}
	if !errors.Is(simErr, ErrInvalidState) {
		t.Error("simulation error should unwrap")
	}
}

func TestParallelFor(t *testing.T) {
	for _, workers := range []int{1, 2, 3, 8, 64} {
		var hits [37]int32
		ParallelFor(len(hits), workers, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&hits[i], 1)
			}
		})
		for i, h := range hits {
			if h != 1 {
				t.Fatalf("workers=%d: index %d visited %d times", workers, i, h)
			}
		}
	}

	called := false
	ParallelFor(0, 4, func(int, int) { called = true })
	if called {
		t.Error("empty range should not invoke fn")
	}
}

func TestConfigErrorUnwrap(t *testing.T) {
	err := errors.Wrap(&ConfigError{Field: "command", Err: ErrDimensionMismatch}, "compute wrench")
	if !errors.Is(err, ErrConfig) || !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected both ErrConfig and ErrDimensionMismatch, got %v", err)
	}
}
