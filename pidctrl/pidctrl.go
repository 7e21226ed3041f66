package pidctrl

import (
	"fmt"
	"math"
	"unsafe"
)

// Config holds the full controller configuration. Gains have no sign
// restriction beyond finiteness; negative gains are valid for
// inverted-sense loops. Kaw set to 0 disables back-calculation.
// Output limits must satisfy UMin < UMax strictly.
type Config struct {
	Kp  float64 // proportional gain
	Ki  float64 // integral gain
	Kd  float64 // derivative gain
	Kaw float64 // anti-windup back-calculation gain

	UMin float64 // lower output clamp
	UMax float64 // upper output clamp
}

// Controller is a live PID instance placed into a caller-owned storage
// region by Bind. The internal layout is not part of the contract; only
// StorageSize and StorageAlign are externally observable.
type Controller struct {
	cfg Config

	// history: previous error, error two steps prior, and the previous
	// output before and after clamping (back-calculation needs both)
	e1       float64
	e2       float64
	uRaw     float64
	uClamped float64
}

// Storage contract for Bind. The state holds only float64 fields, so
// placing it into a byte region is safe for the garbage collector; the
// region must stay reserved while the handle is live.
const (
	// StorageSize is the minimum number of bytes a storage region must
	// provide to hold one controller instance.
	StorageSize = int(unsafe.Sizeof(Controller{}))

	// StorageAlign is the required alignment, in bytes, of the storage
	// region's first byte.
	StorageAlign = int(unsafe.Alignof(Controller{}))
)

// NewStorage allocates a storage region satisfying StorageSize and
// StorageAlign. make([]byte, n) guarantees byte alignment only — a
// non-escaping slice can land at any stack offset — so callers without
// their own arena should obtain regions here. The region holds exactly
// one instance.
func NewStorage() []byte {
	buf := make([]byte, StorageSize+StorageAlign)
	off := int(uintptr(unsafe.Pointer(unsafe.SliceData(buf))) % uintptr(StorageAlign))
	if off != 0 {
		off = StorageAlign - off
	}
	return buf[off : off+StorageSize]
}

// Bind validates the caller-supplied storage region and configuration and
// places an initialized controller into the region. The region must be at
// least StorageSize bytes and aligned to StorageAlign; it is owned by the
// caller and must not be reused while the returned handle is in use.
//
// Bind distinguishes two failures: ErrInvalidArgument for a nil or
// misaligned region or a malformed configuration, and ErrInsufficientSize
// for a region that is too small.
func Bind(storage []byte, cfg Config) (*Controller, error) {
	if storage == nil {
		return nil, fmt.Errorf("%w: nil storage region", ErrInvalidArgument)
	}
	if uintptr(unsafe.Pointer(unsafe.SliceData(storage)))%uintptr(StorageAlign) != 0 {
		return nil, fmt.Errorf("%w: storage region not aligned to %d bytes", ErrInvalidArgument, StorageAlign)
	}
	if len(storage) < StorageSize {
		return nil, fmt.Errorf("%w: need %d bytes, got %d", ErrInsufficientSize, StorageSize, len(storage))
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}

	c := (*Controller)(unsafe.Pointer(unsafe.SliceData(storage)))
	*c = Controller{cfg: cfg}
	return c, nil
}

// Update computes the next control output from a setpoint/measurement pair
// using the incremental control law
//
//	Δu = Kp*(e - e1) + Ki*e + Kd*(e - 2*e1 + e2)
//
// summed onto the previous clamped output, corrected by Kaw times the
// previous step's clamp gap, and clamped to [UMin, UMax]. The sample
// interval is implicit: the caller owns the cadence.
//
// Not reentrant. Callers must serialize access to a shared instance.
func (c *Controller) Update(setpoint, measurement float64) (float64, error) {
	if c == nil {
		return 0, fmt.Errorf("%w: nil controller handle", ErrInvalidArgument)
	}
	if checkUpdateArgs {
		if !finite(setpoint) || !finite(measurement) {
			return 0, fmt.Errorf("%w: setpoint or measurement not finite", ErrInvalidArgument)
		}
	}

	e := setpoint - measurement
	du := c.cfg.Kp*(e-c.e1) + c.cfg.Ki*e + c.cfg.Kd*(e-2*c.e1+c.e2)

	raw := c.uClamped + du + c.cfg.Kaw*(c.uClamped-c.uRaw)
	u := clamp(raw, c.cfg.UMin, c.cfg.UMax)

	c.e2 = c.e1
	c.e1 = e
	c.uRaw = raw
	c.uClamped = u

	return u, nil
}

// Reset zeroes the error and output history, leaving gains and limits
// untouched. Use it when resuming control after a pause so stale history
// cannot produce a derivative spike.
func (c *Controller) Reset() error {
	if c == nil {
		return fmt.Errorf("%w: nil controller handle", ErrInvalidArgument)
	}
	c.resetHistory()
	return nil
}

// SetGains replaces the proportional, integral, and derivative gains. With
// resetState true the history is also zeroed, which avoids a transient from
// combining new gains with old error history after a large retune.
func (c *Controller) SetGains(kp, ki, kd float64, resetState bool) error {
	if c == nil {
		return fmt.Errorf("%w: nil controller handle", ErrInvalidArgument)
	}
	next := c.cfg
	next.Kp, next.Ki, next.Kd = kp, ki, kd
	if err := validate(next); err != nil {
		return err
	}
	c.cfg = next
	if resetState {
		c.resetHistory()
	}
	return nil
}

// SetAntiWindup replaces the back-calculation gain. Zero disables
// anti-windup entirely.
func (c *Controller) SetAntiWindup(kaw float64) error {
	if c == nil {
		return fmt.Errorf("%w: nil controller handle", ErrInvalidArgument)
	}
	next := c.cfg
	next.Kaw = kaw
	if err := validate(next); err != nil {
		return err
	}
	c.cfg = next
	return nil
}

// SetOutputLimits replaces the clamp bounds, validated jointly
// (uMin < uMax). Stored output history is not re-clamped; the new bounds
// apply from the next Update on.
func (c *Controller) SetOutputLimits(uMin, uMax float64) error {
	if c == nil {
		return fmt.Errorf("%w: nil controller handle", ErrInvalidArgument)
	}
	next := c.cfg
	next.UMin, next.UMax = uMin, uMax
	if err := validate(next); err != nil {
		return err
	}
	c.cfg = next
	return nil
}

// Config returns a snapshot of the current configuration, for display and
// telemetry.
func (c *Controller) Config() Config {
	if c == nil {
		return Config{}
	}
	return c.cfg
}

func (c *Controller) resetHistory() {
	c.e1 = 0
	c.e2 = 0
	c.uRaw = 0
	c.uClamped = 0
}

// validate checks a full candidate configuration. Mutators build the
// resulting effective configuration and pass it here, so partial updates
// are always validated against the fields they leave in place.
func validate(cfg Config) error {
	fields := [...]struct {
		name string
		v    float64
	}{
		{"kp", cfg.Kp},
		{"ki", cfg.Ki},
		{"kd", cfg.Kd},
		{"kaw", cfg.Kaw},
		{"u_min", cfg.UMin},
		{"u_max", cfg.UMax},
	}
	for _, f := range fields {
		if !finite(f.v) {
			return fmt.Errorf("%w: %s not finite", ErrInvalidArgument, f.name)
		}
	}
	if cfg.UMin >= cfg.UMax {
		return fmt.Errorf("%w: u_min (%g) must be strictly less than u_max (%g)",
			ErrInvalidArgument, cfg.UMin, cfg.UMax)
	}
	return nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func clamp(x, min, max float64) float64 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
