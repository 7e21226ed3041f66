package loop_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ajmle/pidlab/internal/integrators"
	"github.com/ajmle/pidlab/internal/loop"
	"github.com/ajmle/pidlab/internal/metrics"
	"github.com/ajmle/pidlab/internal/plant"
	"github.com/ajmle/pidlab/pidctrl"
)

func bindController(cfg pidctrl.Config) *pidctrl.Controller {
	GinkgoHelper()
	ctl, err := pidctrl.Bind(pidctrl.NewStorage(), cfg)
	Expect(err).NotTo(HaveOccurred())
	return ctl
}

var _ = Describe("Runner", func() {
	var (
		heater *plant.Thermal
		ctl    *pidctrl.Controller
		cfg    loop.Config
	)

	BeforeEach(func() {
		heater = plant.NewThermal()
		ctl = bindController(pidctrl.Config{
			Kp: 5.0, Ki: 0.5, Kd: 0, Kaw: 0.2,
			UMin: 0, UMax: 100,
		})
		cfg = loop.Config{Period: 1.0, Duration: 600, SubSteps: 10}
	})

	It("regulates the thermal plant onto the setpoint", func() {
		r := loop.New(heater, integrators.NewRK4(), ctl, loop.Constant(60))

		result, err := r.Run(context.Background(), plant.State{heater.Ambient}, cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Ticks).To(Equal(600))

		final := result.Measurements[len(result.Measurements)-1]
		Expect(final).To(BeNumerically("~", 60, 0.5))

		for _, u := range result.Outputs {
			Expect(u).To(And(
				BeNumerically(">=", 0),
				BeNumerically("<=", 100),
			))
		}
	})

	It("collects metrics over the run", func() {
		r := loop.New(heater, integrators.NewRK4(), ctl, loop.Constant(60))
		r.AddMetric(metrics.NewControlEffort())
		r.AddMetric(metrics.NewSaturation(0, 100))

		result, err := r.Run(context.Background(), plant.State{heater.Ambient}, cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Metrics).To(HaveKey("control_effort"))
		Expect(result.Metrics["control_effort"]).To(BeNumerically(">", 0))
		Expect(result.Metrics).To(HaveKey("saturation"))
	})

	It("wraps controller rejections in a TickError", func() {
		poisoned := func(t float64) float64 {
			if t >= 5 {
				return math.NaN()
			}
			return 60
		}
		r := loop.New(heater, integrators.NewRK4(), ctl, poisoned)

		result, err := r.Run(context.Background(), plant.State{heater.Ambient}, cfg)
		Expect(err).To(HaveOccurred())
		Expect(err).To(MatchError(pidctrl.ErrInvalidArgument))

		var tickErr *loop.TickError
		Expect(err).To(BeAssignableToTypeOf(tickErr))
		Expect(result.Ticks).To(Equal(5))
	})

	It("stops when the context is canceled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		r := loop.New(heater, integrators.NewRK4(), ctl, loop.Constant(60))
		result, err := r.Run(ctx, plant.State{heater.Ambient}, cfg)
		Expect(err).To(MatchError(context.Canceled))
		Expect(result).NotTo(BeNil())
		Expect(result.Ticks).To(Equal(0))
	})

	It("runs the full tick count when duration/period is not exactly representable", func() {
		// 0.3/0.1 evaluates to 2.999...96 in binary; the run must still
		// cover three ticks, not two.
		r := loop.New(heater, integrators.NewRK4(), ctl, loop.Constant(60))

		result, err := r.Run(context.Background(), plant.State{heater.Ambient},
			loop.Config{Period: 0.1, Duration: 0.3, SubSteps: 1})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Ticks).To(Equal(3))

		result, err = r.Run(context.Background(), plant.State{heater.Ambient},
			loop.Config{Period: 1.0, Duration: 2.5, SubSteps: 1})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Ticks).To(Equal(2), "genuine fractional remainders still truncate")
	})

	It("rejects malformed loop configs", func() {
		r := loop.New(heater, integrators.NewRK4(), ctl, loop.Constant(60))
		x0 := plant.State{heater.Ambient}

		_, err := r.Run(context.Background(), x0, loop.Config{Period: 0, Duration: 10, SubSteps: 1})
		Expect(err).To(HaveOccurred())

		_, err = r.Run(context.Background(), x0, loop.Config{Period: 1, Duration: 0, SubSteps: 1})
		Expect(err).To(HaveOccurred())

		_, err = r.Run(context.Background(), x0, loop.Config{Period: 1, Duration: 10, SubSteps: 0})
		Expect(err).To(HaveOccurred())

		_, err = r.Run(context.Background(), plant.State{1, 2, 3}, loop.Config{Period: 1, Duration: 10, SubSteps: 1})
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Setpoint profiles", func() {
	It("steps at the configured time", func() {
		sp := loop.StepAt(50, 10)
		Expect(sp(0)).To(BeZero())
		Expect(sp(9.99)).To(BeZero())
		Expect(sp(10)).To(Equal(50.0))
		Expect(sp(1000)).To(Equal(50.0))
	})

	It("ramps and holds", func() {
		sp := loop.Ramp(2, 20)
		Expect(sp(0)).To(BeZero())
		Expect(sp(5)).To(Equal(10.0))
		Expect(sp(100)).To(Equal(20.0))
	})

	It("alternates square phases", func() {
		sp := loop.Square(8, 10)
		Expect(sp(1)).To(Equal(8.0))
		Expect(sp(6)).To(BeZero())
		Expect(sp(11)).To(Equal(8.0))
	})
})
