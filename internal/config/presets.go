package config

import "sort"

// presets are ready-made lab setups covering the three plant models. The
// tank preset deliberately provokes saturation so the anti-windup gain
// has something to do.
var presets = map[string]func() *Config{
	"thermal-step": func() *Config {
		cfg := DefaultConfig()
		cfg.Setpoint = SetpointConfig{Profile: "step", Level: 60, At: 10}
		return cfg
	},
	"motor-step": func() *Config {
		cfg := DefaultConfig()
		cfg.Plant = PlantConfig{Name: "motor", Init: []float64{0, 0}}
		cfg.Controller = ControllerConfig{
			Kp: 40, Ki: 10, Kd: 15, Kaw: 0.1,
			UMin: -50, UMax: 50,
		}
		cfg.Loop = LoopConfig{Period: 0.05, Duration: 20, SubSteps: 5, Integrator: "rk4"}
		cfg.Setpoint = SetpointConfig{Profile: "step", Level: 1, At: 1}
		return cfg
	},
	"tank-windup": func() *Config {
		cfg := DefaultConfig()
		cfg.Plant = PlantConfig{Name: "tank", Init: []float64{0}}
		cfg.Controller = ControllerConfig{
			Kp: 30, Ki: 8, Kaw: 0.5,
			UMin: 0, UMax: 100,
		}
		cfg.Loop = LoopConfig{Period: 0.5, Duration: 240, SubSteps: 5, Integrator: "rk4"}
		cfg.Setpoint = SetpointConfig{Profile: "step", Level: 8, At: 10}
		return cfg
	},
}

// GetPreset returns a copy of the named preset, or nil if it does not
// exist.
func GetPreset(name string) *Config {
	build, ok := presets[name]
	if !ok {
		return nil
	}
	return build()
}

// ListPresets returns the preset names in sorted order.
func ListPresets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
