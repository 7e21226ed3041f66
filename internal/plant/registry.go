package plant

import "fmt"

// New builds a plant by name, applying any recognized parameter overrides.
// Unknown parameter keys are ignored so configs can carry parameters for
// several models.
func New(name string, params map[string]float64) (Plant, error) {
	get := func(key, alt string, def float64) float64 {
		if v, ok := params[key]; ok {
			return v
		}
		if alt != "" {
			if v, ok := params[alt]; ok {
				return v
			}
		}
		return def
	}

	switch name {
	case "thermal":
		return &Thermal{
			Gain:    get("gain", "", DefaultThermalGain),
			Tau:     get("tau", "time_constant", DefaultThermalTau),
			Ambient: get("ambient", "", DefaultAmbient),
		}, nil
	case "motor":
		return &Motor{
			Mass:      get("mass", "", DefaultMass),
			Stiffness: get("stiffness", "", DefaultStiffness),
			Damping:   get("damping", "", DefaultDamping),
		}, nil
	case "tank":
		return &Tank{
			InflowGain: get("inflow_gain", "", DefaultInflowGain),
			Outflow:    get("outflow", "", DefaultOutflow),
		}, nil
	default:
		return nil, fmt.Errorf("plant: unknown model %q (have thermal, motor, tank)", name)
	}
}

// Names lists the available plant models.
func Names() []string {
	return []string{"thermal", "motor", "tank"}
}
