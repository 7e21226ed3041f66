package metrics

import "math"

// SettlingTime reports the time of the last tick at which the measurement
// sat outside the tolerance band around the setpoint. If the response
// never left the band the value is zero.
type SettlingTime struct {
	name          string
	band          float64
	lastViolation float64
}

func NewSettlingTime(band float64) *SettlingTime {
	return &SettlingTime{name: "settling_time", band: band}
}

func (s *SettlingTime) Name() string {
	return s.name
}

func (s *SettlingTime) Observe(t, setpoint, measurement, output float64) {
	if math.Abs(measurement-setpoint) > s.band {
		s.lastViolation = t
	}
}

func (s *SettlingTime) Value() float64 {
	return s.lastViolation
}

func (s *SettlingTime) Reset() {
	s.lastViolation = 0
}
