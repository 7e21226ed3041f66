// Package pidctrl implements a single-loop incremental (velocity-form) PID
// controller with back-calculation anti-windup and output clamping.
//
// The controller is designed for fixed-cadence control loops that own their
// timing: Update takes no timestep, so gains must be tuned for the rate at
// which the caller invokes it. The velocity form accumulates changes in
// output rather than an explicit integral term, which makes retuning and
// state resets free of integral-discontinuity jumps.
//
// Instances are placed into caller-owned storage instead of being heap
// allocated. Regions must be StorageSize bytes on a StorageAlign boundary;
// NewStorage produces one, and arena owners can carve their own:
//
//	ctl, err := pidctrl.Bind(pidctrl.NewStorage(), pidctrl.Config{
//		Kp: 1.0, Ki: 0.1, Kd: 0.01,
//		UMin: -100, UMax: 100,
//	})
//	u, err := ctl.Update(setpoint, measurement)
//
// The package never allocates and never locks. A controller must be driven
// by one goroutine at a time; callers that share an instance across
// goroutines must provide their own mutual exclusion.
//
// Building with the pidctrl_unchecked tag removes finiteness validation from
// the update path. The caller then becomes fully responsible for argument
// validity; feeding NaN or Inf into an unchecked controller corrupts its
// history.
package pidctrl
