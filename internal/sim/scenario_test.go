package sim

import (
	"context"
	"math"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r3"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/san-kum/inertial/internal/control"
	"github.com/san-kum/inertial/internal/logging"
	"github.com/san-kum/inertial/internal/physics"
	"go.uber.org/zap/zapcore"
)

func create(s *Simulator, name string, h physics.Hull, init Initial) Handle {
	handle, err := s.CreateShip(ShipConfig{Name: name, Mass: h.Mass, Inertia: h.Inertia, Thrusters: h.Thrusters, Initial: init})
	Expect(err).NotTo(HaveOccurred())
	return handle
}

var _ = Describe("Simulator", func() {
	const dt = 0.1

	It("docks a chaser at standoff behind a drifting target", func() {
		s := New(Config{})
		target := create(s, "station", physics.NewRCS(), Initial{Position: r3.Vector{X: 150}, Velocity: r3.Vector{Y: 1}})
		chaser := create(s, "chaser", physics.NewRCS(), Initial{})
		Expect(s.Follow(chaser, target, control.KindApproach, 15)).To(Succeed())

		minRange := math.Inf(1)
		for i := 0; i < 3000; i++ {
			f, err := s.Tick(dt)
			Expect(err).NotTo(HaveOccurred())
			rng := f.Ships[0].State.Position.Sub(f.Ships[1].State.Position).Norm()
			minRange = math.Min(minRange, rng)
		}

		Expect(minRange).To(BeNumerically(">", 15-control.DefaultGains().PositionTolerance))
		a, _ := s.QueryState(target)
		b, _ := s.QueryState(chaser)
		Expect(a.Position.Sub(b.Position).Norm()).To(BeNumerically("~", 15, 1))
		Expect(a.Velocity().Sub(b.Velocity()).Norm()).To(BeNumerically("<", 0.05))
	})

	It("logs intent satisfaction and fallbacks", func() {
		logger, logs := logging.NewObserved(zapcore.DebugLevel)
		s := New(Config{Logger: logger})
		runner := create(s, "runner", physics.NewRCS(), Initial{Position: r3.Vector{X: 100}, Velocity: r3.Vector{X: 500}})
		h := create(s, "slow", physics.NewRCS(), Initial{})
		Expect(s.Follow(h, runner, control.KindIntercept, 0)).To(Succeed())

		f, err := s.Tick(dt)
		Expect(err).NotTo(HaveOccurred())
		Expect(f.Ships[1].Err).To(HaveOccurred())
		Expect(logs.FilterMessage("holding attitude").Len()).To(Equal(1))

		_, err = s.Tick(dt)
		Expect(err).NotTo(HaveOccurred())
		Expect(logs.FilterMessage("holding attitude").Len()).To(Equal(1))

		Expect(s.SetIntent(h, control.MatchVelocity(r3.Vector{Z: 0.5}))).To(Succeed())
		for i := 0; i < 200; i++ {
			_, err := s.Tick(dt)
			Expect(err).NotTo(HaveOccurred())
		}
		Expect(logs.FilterMessage("intent satisfied").Len()).To(Equal(1))
		Expect(logs.FilterMessage("ship created").Len()).To(Equal(2))
	})

	It("paces ticks on the clock", func() {
		s := New(Config{})
		create(s, "a", physics.NewRCS(), Initial{Velocity: r3.Vector{X: 1}})
		mock := clock.NewMock()
		p := NewPacer(s, mock, dt, 2)
		Expect(p.Interval()).To(Equal(50 * time.Millisecond))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		frames := p.Start(ctx)

		for i := 1; i <= 3; i++ {
			mock.Add(p.Interval())
			var got Paced
			Eventually(frames).Should(Receive(&got))
			Expect(got.Err).NotTo(HaveOccurred())
			Expect(got.Frame.Step).To(Equal(i))
		}

		cancel()
		Eventually(frames).Should(BeClosed())
		Expect(s.Steps()).To(Equal(3))
	})
})
