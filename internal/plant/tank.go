package plant

const (
	DefaultInflowGain = 0.05
	DefaultOutflow    = 0.5
)

// Tank is an integrating level process with a constant drain:
//
//	dh/dt = inflow_gain*u - outflow
//
// State is [level]; the measurement is the level. Pure integration makes
// this the classic saturation/windup demonstrator: a level step far from
// the setpoint pins the valve at its limit for a long stretch.
type Tank struct {
	InflowGain float64
	Outflow    float64
}

func NewTank() *Tank {
	return &Tank{
		InflowGain: DefaultInflowGain,
		Outflow:    DefaultOutflow,
	}
}

func (p *Tank) StateDim() int { return 1 }
func (p *Tank) Name() string  { return "tank" }

func (p *Tank) Derivative(x State, u float64, t float64) State {
	return State{p.InflowGain*u - p.Outflow}
}

func (p *Tank) Output(x State) float64 { return x[0] }
