package loop

import "math"

// Setpoint yields the reference value at loop time t. Profiles are plain
// functions: the stimulus belongs to the caller, not the controller.
type Setpoint func(t float64) float64

// Constant holds a fixed reference.
func Constant(level float64) Setpoint {
	return func(t float64) float64 { return level }
}

// StepAt is zero until at, then level. The standard step-response stimulus.
func StepAt(level, at float64) Setpoint {
	return func(t float64) float64 {
		if t < at {
			return 0
		}
		return level
	}
}

// Ramp rises at rate per second from zero and holds at max.
func Ramp(rate, max float64) Setpoint {
	return func(t float64) float64 {
		v := rate * t
		if v > max {
			return max
		}
		return v
	}
}

// Square alternates between 0 and level with the given full period.
func Square(level, period float64) Setpoint {
	return func(t float64) float64 {
		if math.Mod(t, period) < period/2 {
			return level
		}
		return 0
	}
}
