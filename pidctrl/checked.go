//go:build !pidctrl_unchecked

package pidctrl

// checkUpdateArgs gates finiteness validation of setpoint and measurement
// on the update path. The default build keeps it on.
const checkUpdateArgs = true
