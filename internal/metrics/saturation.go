package metrics

// Saturation reports the fraction of ticks the output spent pinned at
// either clamp bound.
type Saturation struct {
	name       string
	uMin, uMax float64
	pinned     int
	samples    int
}

func NewSaturation(uMin, uMax float64) *Saturation {
	return &Saturation{name: "saturation", uMin: uMin, uMax: uMax}
}

func (s *Saturation) Name() string {
	return s.name
}

func (s *Saturation) Observe(t, setpoint, measurement, output float64) {
	s.samples++
	if output <= s.uMin || output >= s.uMax {
		s.pinned++
	}
}

func (s *Saturation) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return float64(s.pinned) / float64(s.samples)
}

func (s *Saturation) Reset() {
	s.pinned = 0
	s.samples = 0
}
