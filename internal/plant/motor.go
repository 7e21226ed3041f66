package plant

const (
	DefaultMass      = 1.0
	DefaultStiffness = 10.0
	DefaultDamping   = 0.5
)

// Motor is a second-order positioning servo modeled as a mass on a spring
// with viscous damping:
//
//	m*x'' = u - k*x - c*x'
//
// State is [position, velocity]; the measurement is the position. The weak
// default damping makes derivative action visibly useful.
type Motor struct {
	Mass      float64
	Stiffness float64
	Damping   float64
}

func NewMotor() *Motor {
	return &Motor{
		Mass:      DefaultMass,
		Stiffness: DefaultStiffness,
		Damping:   DefaultDamping,
	}
}

func (p *Motor) StateDim() int { return 2 }
func (p *Motor) Name() string  { return "motor" }

func (p *Motor) Derivative(x State, u float64, t float64) State {
	pos, vel := x[0], x[1]
	acc := (u - p.Stiffness*pos - p.Damping*vel) / p.Mass
	return State{vel, acc}
}

func (p *Motor) Output(x State) float64 { return x[0] }
