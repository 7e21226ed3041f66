package metrics

import "math"

// SteadyStateError reports the absolute tracking error at the final
// observed tick.
type SteadyStateError struct {
	name string
	last float64
}

func NewSteadyStateError() *SteadyStateError {
	return &SteadyStateError{name: "steady_state_error"}
}

func (s *SteadyStateError) Name() string {
	return s.name
}

func (s *SteadyStateError) Observe(t, setpoint, measurement, output float64) {
	s.last = math.Abs(setpoint - measurement)
}

func (s *SteadyStateError) Value() float64 {
	return s.last
}

func (s *SteadyStateError) Reset() {
	s.last = 0
}
