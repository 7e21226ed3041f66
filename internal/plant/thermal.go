package plant

// Thermal defaults give a sluggish heater: full drive moves the
// temperature about 60 degrees above ambient with a 40 s time constant.
const (
	DefaultThermalGain = 0.6
	DefaultThermalTau  = 40.0
	DefaultAmbient     = 20.0
)

// Thermal is a first-order RC heater:
//
//	tau * dT/dt = gain*u - (T - ambient)
//
// State is [temperature]; the measurement is the temperature.
type Thermal struct {
	Gain    float64 // degrees per unit drive at steady state
	Tau     float64 // time constant, seconds
	Ambient float64
}

func NewThermal() *Thermal {
	return &Thermal{
		Gain:    DefaultThermalGain,
		Tau:     DefaultThermalTau,
		Ambient: DefaultAmbient,
	}
}

func (p *Thermal) StateDim() int { return 1 }
func (p *Thermal) Name() string  { return "thermal" }

func (p *Thermal) Derivative(x State, u float64, t float64) State {
	return State{(p.Gain*u - (x[0] - p.Ambient)) / p.Tau}
}

func (p *Thermal) Output(x State) float64 { return x[0] }
