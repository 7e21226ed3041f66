package integrators

import (
	"fmt"

	"github.com/ajmle/pidlab/internal/plant"
)

// Integrator propagates a plant state over dt with the control input held
// constant.
type Integrator interface {
	Step(p plant.Plant, x plant.State, u float64, t, dt float64) plant.State
}

// New builds an integrator by name.
func New(name string) (Integrator, error) {
	switch name {
	case "euler":
		return NewEuler(), nil
	case "rk4", "":
		return NewRK4(), nil
	default:
		return nil, fmt.Errorf("integrators: unknown integrator %q (have euler, rk4)", name)
	}
}
