package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ajmle/pidlab/pidctrl"
)

const (
	DefaultPeriod   = 1.0
	DefaultDuration = 300.0
	DefaultSubSteps = 10
	DefaultKp       = 5.0
	DefaultKi       = 0.5
	DefaultKd       = 0.0
	DefaultKaw      = 0.2
	DefaultPort     = 9090
)

type Config struct {
	Plant      PlantConfig      `yaml:"plant"`
	Controller ControllerConfig `yaml:"controller"`
	Loop       LoopConfig       `yaml:"loop"`
	Setpoint   SetpointConfig   `yaml:"setpoint"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
}

type PlantConfig struct {
	Name   string             `yaml:"name"`
	Params map[string]float64 `yaml:"params"`
	Init   []float64          `yaml:"init"`
}

type ControllerConfig struct {
	Kp   float64 `yaml:"kp"`
	Ki   float64 `yaml:"ki"`
	Kd   float64 `yaml:"kd"`
	Kaw  float64 `yaml:"kaw"`
	UMin float64 `yaml:"u_min"`
	UMax float64 `yaml:"u_max"`
}

// Engine maps the config section onto the engine's configuration record.
func (c ControllerConfig) Engine() pidctrl.Config {
	return pidctrl.Config{
		Kp: c.Kp, Ki: c.Ki, Kd: c.Kd, Kaw: c.Kaw,
		UMin: c.UMin, UMax: c.UMax,
	}
}

type LoopConfig struct {
	Period     float64 `yaml:"period"`
	Duration   float64 `yaml:"duration"`
	SubSteps   int     `yaml:"sub_steps"`
	Integrator string  `yaml:"integrator"`
}

type SetpointConfig struct {
	Profile string  `yaml:"profile"` // constant, step, ramp, square
	Level   float64 `yaml:"level"`
	At      float64 `yaml:"at"`     // step time
	Rate    float64 `yaml:"rate"`   // ramp slope
	Max     float64 `yaml:"max"`    // ramp hold level
	Period  float64 `yaml:"period"` // square full period
}

type TelemetryConfig struct {
	Port int `yaml:"port"`
}

func DefaultConfig() *Config {
	return &Config{
		Plant: PlantConfig{
			Name: "thermal",
			Init: []float64{20},
		},
		Controller: ControllerConfig{
			Kp:   DefaultKp,
			Ki:   DefaultKi,
			Kd:   DefaultKd,
			Kaw:  DefaultKaw,
			UMin: 0,
			UMax: 100,
		},
		Loop: LoopConfig{
			Period:     DefaultPeriod,
			Duration:   DefaultDuration,
			SubSteps:   DefaultSubSteps,
			Integrator: "rk4",
		},
		Setpoint: SetpointConfig{
			Profile: "constant",
			Level:   60,
		},
		Telemetry: TelemetryConfig{
			Port: DefaultPort,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the lab-level settings for consistency. The engine
// re-validates its own configuration at bind time; the u_min/u_max check
// here just fails earlier with a friendlier message.
func (c *Config) Validate() error {
	if c.Plant.Name == "" {
		return fmt.Errorf("plant name must be set")
	}
	if c.Loop.Period <= 0 {
		return fmt.Errorf("loop period must be positive, got %g", c.Loop.Period)
	}
	if c.Loop.Duration <= 0 {
		return fmt.Errorf("loop duration must be positive, got %g", c.Loop.Duration)
	}
	if c.Loop.SubSteps < 1 {
		return fmt.Errorf("loop sub_steps must be at least 1, got %d", c.Loop.SubSteps)
	}
	if c.Controller.UMin >= c.Controller.UMax {
		return fmt.Errorf("controller u_min (%g) must be less than u_max (%g)",
			c.Controller.UMin, c.Controller.UMax)
	}
	switch c.Setpoint.Profile {
	case "constant", "step", "ramp", "square":
	default:
		return fmt.Errorf("setpoint profile must be one of: constant, step, ramp, square; got %q",
			c.Setpoint.Profile)
	}
	if c.Telemetry.Port < 0 || c.Telemetry.Port > 65535 {
		return fmt.Errorf("telemetry port must be between 0-65535, got %d", c.Telemetry.Port)
	}
	return nil
}
