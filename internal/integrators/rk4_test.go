package integrators

import (
	"math"
	"testing"

	"github.com/ajmle/pidlab/internal/plant"
)

// oscillator is an undamped unit oscillator with a known analytic
// solution: x(t) = cos(t), v(t) = -sin(t) from x0 = {1, 0}.
type oscillator struct{}

func (o *oscillator) Derivative(x plant.State, u float64, t float64) plant.State {
	return plant.State{x[1], -x[0]}
}

func (o *oscillator) Output(x plant.State) float64 { return x[0] }
func (o *oscillator) StateDim() int                { return 2 }
func (o *oscillator) Name() string                 { return "oscillator" }

func TestRK4Accuracy(t *testing.T) {
	p := &oscillator{}
	integ := NewRK4()

	x := plant.State{1.0, 0.0}
	dt := 0.01
	steps := 100

	for i := 0; i < steps; i++ {
		x = integ.Step(p, x, 0, float64(i)*dt, dt)
	}

	expectedX := math.Cos(float64(steps) * dt)
	expectedV := -math.Sin(float64(steps) * dt)

	if math.Abs(x[0]-expectedX) > 1e-4 {
		t.Errorf("position error too large: got %.6f, expected %.6f", x[0], expectedX)
	}
	if math.Abs(x[1]-expectedV) > 1e-4 {
		t.Errorf("velocity error too large: got %.6f, expected %.6f", x[1], expectedV)
	}
}

func TestEulerConvergesWithSmallStep(t *testing.T) {
	p := &oscillator{}
	integ := NewEuler()

	x := plant.State{1.0, 0.0}
	dt := 0.0001
	steps := 10000

	for i := 0; i < steps; i++ {
		x = integ.Step(p, x, 0, float64(i)*dt, dt)
	}

	expectedX := math.Cos(float64(steps) * dt)
	if math.Abs(x[0]-expectedX) > 1e-3 {
		t.Errorf("position error too large: got %.6f, expected %.6f", x[0], expectedX)
	}
}

func TestNew(t *testing.T) {
	for _, name := range []string{"euler", "rk4"} {
		if _, err := New(name); err != nil {
			t.Errorf("New(%q) failed: %v", name, err)
		}
	}
	if _, err := New("leapfrog"); err == nil {
		t.Error("expected error for unknown integrator")
	}
}
