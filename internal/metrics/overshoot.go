package metrics

// Overshoot tracks the largest excursion of the measurement past the
// setpoint, in measurement units. Zero means the response never crossed
// its reference.
type Overshoot struct {
	name string
	max  float64
}

func NewOvershoot() *Overshoot {
	return &Overshoot{name: "overshoot"}
}

func (o *Overshoot) Name() string {
	return o.name
}

func (o *Overshoot) Observe(t, setpoint, measurement, output float64) {
	if over := measurement - setpoint; over > o.max {
		o.max = over
	}
}

func (o *Overshoot) Value() float64 {
	return o.max
}

func (o *Overshoot) Reset() {
	o.max = 0
}
