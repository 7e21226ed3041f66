package plant

import "math"

// State is a plant state vector.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

// IsValid reports whether every component is finite.
func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Plant is a single-input single-output process model. Derivative returns
// dx/dt for the held control input u; Output maps the state to the
// measured process variable.
type Plant interface {
	Derivative(x State, u float64, t float64) State
	Output(x State) float64
	StateDim() int
	Name() string
}
