package loop

import (
	"context"
	"fmt"
	"math"

	"github.com/ajmle/pidlab/internal/integrators"
	"github.com/ajmle/pidlab/internal/plant"
	"github.com/ajmle/pidlab/pidctrl"
)

// Metric accumulates a response-quality figure over a run.
type Metric interface {
	Name() string
	Observe(t, setpoint, measurement, output float64)
	Value() float64
	Reset()
}

// Observer is notified once per controller tick.
type Observer interface {
	OnTick(t, setpoint, measurement, output float64)
}

// Config describes the cadence of the host loop. The controller is
// invoked once per Period; the plant is integrated across the tick in
// SubSteps pieces with the output held constant.
type Config struct {
	Period   float64
	Duration float64
	SubSteps int
}

// Result is the recorded closed-loop trace.
type Result struct {
	Times        []float64
	Setpoints    []float64
	Measurements []float64
	Outputs      []float64
	Metrics      map[string]float64
	Ticks        int
}

// TickError wraps a controller failure with loop context.
type TickError struct {
	Tick    int
	Time    float64
	Wrapped error
}

func (e *TickError) Error() string {
	return fmt.Sprintf("loop: tick %d (t=%.4f): %v", e.Tick, e.Time, e.Wrapped)
}

func (e *TickError) Unwrap() error {
	return e.Wrapped
}

// Runner closes the loop between a simulated plant and a bound controller.
// It owns the timing the engine deliberately does not: the controller sees
// one Update call per tick and nothing else.
type Runner struct {
	plant     plant.Plant
	integ     integrators.Integrator
	ctrl      *pidctrl.Controller
	setpoint  Setpoint
	metrics   []Metric
	observers []Observer
}

func New(p plant.Plant, integ integrators.Integrator, ctrl *pidctrl.Controller, sp Setpoint) *Runner {
	return &Runner{
		plant:    p,
		integ:    integ,
		ctrl:     ctrl,
		setpoint: sp,
	}
}

func (r *Runner) AddMetric(m Metric)     { r.metrics = append(r.metrics, m) }
func (r *Runner) AddObserver(o Observer) { r.observers = append(r.observers, o) }

// Run executes the loop from x0 until the configured duration elapses, the
// context is canceled, or the controller rejects an update. The partial
// result is returned alongside any error.
func (r *Runner) Run(ctx context.Context, x0 plant.State, cfg Config) (*Result, error) {
	if err := r.validate(x0, cfg); err != nil {
		return nil, err
	}

	// Plain truncation loses a tick when the ratio lands just under an
	// integer in binary (0.3/0.1 is 2.999...96); the epsilon absorbs that
	// without rounding genuine fractional remainders up.
	ticks := int(math.Floor(cfg.Duration/cfg.Period + 1e-9))
	result := &Result{
		Times:        make([]float64, 0, ticks),
		Setpoints:    make([]float64, 0, ticks),
		Measurements: make([]float64, 0, ticks),
		Outputs:      make([]float64, 0, ticks),
		Metrics:      make(map[string]float64),
	}

	for _, m := range r.metrics {
		m.Reset()
	}

	x := x0.Clone()
	t := 0.0
	subDt := cfg.Period / float64(cfg.SubSteps)

	for i := 0; i < ticks; i++ {
		select {
		case <-ctx.Done():
			r.finishMetrics(result)
			return result, ctx.Err()
		default:
		}

		y := r.plant.Output(x)
		sp := r.setpoint(t)

		u, err := r.ctrl.Update(sp, y)
		if err != nil {
			r.finishMetrics(result)
			return result, &TickError{Tick: i, Time: t, Wrapped: err}
		}

		for _, m := range r.metrics {
			m.Observe(t, sp, y, u)
		}
		for _, obs := range r.observers {
			obs.OnTick(t, sp, y, u)
		}

		result.Times = append(result.Times, t)
		result.Setpoints = append(result.Setpoints, sp)
		result.Measurements = append(result.Measurements, y)
		result.Outputs = append(result.Outputs, u)
		result.Ticks++

		for s := 0; s < cfg.SubSteps; s++ {
			x = r.integ.Step(r.plant, x, u, t+float64(s)*subDt, subDt)
		}
		t += cfg.Period

		if !x.IsValid() {
			r.finishMetrics(result)
			return result, fmt.Errorf("loop: plant state diverged at t=%.4f", t)
		}
	}

	r.finishMetrics(result)
	return result, nil
}

func (r *Runner) finishMetrics(result *Result) {
	for _, m := range r.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func (r *Runner) validate(x0 plant.State, cfg Config) error {
	if cfg.Period <= 0 {
		return fmt.Errorf("loop: period must be positive, got %f", cfg.Period)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("loop: duration must be positive, got %f", cfg.Duration)
	}
	if cfg.SubSteps < 1 {
		return fmt.Errorf("loop: sub-steps must be at least 1, got %d", cfg.SubSteps)
	}
	if len(x0) != r.plant.StateDim() {
		return fmt.Errorf("loop: initial state has %d components, plant %q needs %d",
			len(x0), r.plant.Name(), r.plant.StateDim())
	}
	return nil
}
