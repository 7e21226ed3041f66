package pidctrl

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"unsafe"

	"github.com/onsi/gomega"
)

func validConfig() Config {
	return Config{Kp: 1.0, Ki: 0.1, Kd: 0.01, Kaw: 0, UMin: -100, UMax: 100}
}

func mustBind(t *testing.T, cfg Config) *Controller {
	t.Helper()
	c, err := Bind(NewStorage(), cfg)
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	return c
}

// alignedRegion returns n bytes starting on a StorageAlign boundary,
// regardless of where the runtime places the backing allocation.
func alignedRegion(n int) []byte {
	base := make([]byte, n+StorageAlign)
	off := int(uintptr(unsafe.Pointer(unsafe.SliceData(base))) % uintptr(StorageAlign))
	if off != 0 {
		off = StorageAlign - off
	}
	return base[off : off+n]
}

func TestStorageConstants(t *testing.T) {
	if StorageSize <= 0 {
		t.Fatalf("StorageSize should be positive, got %d", StorageSize)
	}
	if StorageAlign <= 0 || StorageAlign&(StorageAlign-1) != 0 {
		t.Fatalf("StorageAlign should be a positive power of two, got %d", StorageAlign)
	}
}

func TestNewStorage(t *testing.T) {
	// Bare make([]byte, n) only promises byte alignment, so NewStorage
	// must always hand back a region Bind accepts. Repeat to cover
	// varying allocation placement.
	for i := 0; i < 100; i++ {
		buf := NewStorage()
		if len(buf) != StorageSize {
			t.Fatalf("NewStorage returned %d bytes, want %d", len(buf), StorageSize)
		}
		addr := uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
		if addr%uintptr(StorageAlign) != 0 {
			t.Fatalf("NewStorage region at %#x not aligned to %d", addr, StorageAlign)
		}
		if _, err := Bind(buf, validConfig()); err != nil {
			t.Fatalf("Bind rejected NewStorage region: %v", err)
		}
	}
}

func TestBind_FirstOutput(t *testing.T) {
	// kp=1, ki=0.1, kd=0.01, e1=e2=0: first update with e=50 gives
	// 1*50 + 0.1*50 + 0.01*50 = 55.5, inside the limits.
	c := mustBind(t, validConfig())

	u, err := c.Update(50, 0)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if u != 55.5 {
		t.Errorf("first output = %v, want 55.5", u)
	}
}

func TestBind_StorageErrors(t *testing.T) {
	cfg := validConfig()

	if _, err := Bind(nil, cfg); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("nil storage: got %v, want ErrInvalidArgument", err)
	}

	// Undersized region built as an aligned prefix, so the size check is
	// what fires rather than the alignment gate ahead of it.
	if _, err := Bind(alignedRegion(StorageSize-1), cfg); !errors.Is(err, ErrInsufficientSize) {
		t.Errorf("undersized storage: got %v, want ErrInsufficientSize", err)
	}

	// Offsetting into an aligned region by one byte breaks alignment.
	if _, err := Bind(alignedRegion(StorageSize+1)[1:], cfg); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("misaligned storage: got %v, want ErrInvalidArgument", err)
	}
}

func TestBind_ConfigValidation(t *testing.T) {
	nan := math.NaN()
	inf := math.Inf(1)

	tests := []struct {
		name string
		cfg  Config
	}{
		{"nan kp", Config{Kp: nan, UMin: -1, UMax: 1}},
		{"nan ki", Config{Ki: nan, UMin: -1, UMax: 1}},
		{"nan kd", Config{Kd: nan, UMin: -1, UMax: 1}},
		{"nan kaw", Config{Kaw: nan, UMin: -1, UMax: 1}},
		{"inf u_min", Config{UMin: math.Inf(-1), UMax: 1}},
		{"inf u_max", Config{UMin: -1, UMax: inf}},
		{"limits inverted", Config{UMin: 10, UMax: 5}},
		{"limits equal", Config{UMin: 5, UMax: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Bind(NewStorage(), tt.cfg)
			if !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("got %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestBind_NegativeGainsAllowed(t *testing.T) {
	// Inverted-sense loops use negative gains; only finiteness is enforced.
	cfg := Config{Kp: -2.0, Ki: -0.1, Kd: -0.5, Kaw: -0.1, UMin: -1, UMax: 1}
	if _, err := Bind(NewStorage(), cfg); err != nil {
		t.Fatalf("Bind with negative gains failed: %v", err)
	}
}

func TestUpdate_ClampInvariant(t *testing.T) {
	g := gomega.NewWithT(t)

	// Absurd gains and adversarial inputs must never escape the limits.
	cfg := Config{Kp: 1e6, Ki: 1e5, Kd: 1e4, Kaw: 0.5, UMin: -3, UMax: 7}
	c := mustBind(t, cfg)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		sp := (rng.Float64() - 0.5) * 2e6
		y := (rng.Float64() - 0.5) * 2e6
		u, err := c.Update(sp, y)
		g.Expect(err).NotTo(gomega.HaveOccurred())
		g.Expect(u).To(gomega.BeNumerically(">=", cfg.UMin))
		g.Expect(u).To(gomega.BeNumerically("<=", cfg.UMax))
	}
}

func TestUpdate_ConstantErrorAdvancesByKiOnly(t *testing.T) {
	// With a constant, unchanging error the proportional and derivative
	// differences vanish; every step past the derivative transient moves
	// the output by exactly ki*e.
	cfg := Config{Kp: 2.0, Ki: 0.25, Kd: 1.5, UMin: -1000, UMax: 1000}
	c := mustBind(t, cfg)

	const e = 4.0
	var prev float64
	for i := 0; i < 10; i++ {
		u, err := c.Update(e, 0)
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if i >= 3 {
			if got := u - prev; got != cfg.Ki*e {
				t.Fatalf("step %d: delta = %v, want %v", i, got, cfg.Ki*e)
			}
		}
		prev = u
	}
}

func TestUpdate_NoAntiWindupCorrectionWhenDisabled(t *testing.T) {
	// kaw=0: after saturation, two zero-error updates flush the
	// proportional/derivative transients and the output must then hold
	// exactly, with no residual correction from the saturation episode.
	cfg := Config{Kp: 1.0, Ki: 1.0, Kd: 0, Kaw: 0, UMin: -10, UMax: 10}
	c := mustBind(t, cfg)

	for i := 0; i < 5; i++ {
		if _, err := c.Update(1000, 0); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
	}
	c.Update(0, 0)
	settled, _ := c.Update(0, 0)
	for i := 0; i < 20; i++ {
		u, err := c.Update(0, 0)
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if u != settled {
			t.Fatalf("step %d: output %v drifted from %v with kaw=0", i, u, settled)
		}
	}
}

// simulate closes the loop around a pure-integrator process
// (y += gain*u each tick) and returns the measurement trace.
func simulate(c *Controller, setpoint, gain float64, steps int) []float64 {
	ys := make([]float64, 0, steps)
	y := 0.0
	for i := 0; i < steps; i++ {
		u, _ := c.Update(setpoint, y)
		y += gain * u
		ys = append(ys, y)
	}
	return ys
}

func TestUpdate_BackCalculationReducesOvershoot(t *testing.T) {
	g := gomega.NewWithT(t)

	base := Config{Kp: 5.0, Ki: 1.0, Kd: 0, Kaw: 0, UMin: -1, UMax: 1}
	withAW := base
	withAW.Kaw = 0.5

	plain := mustBind(t, base)
	corrected := mustBind(t, withAW)

	const setpoint, gain, steps = 1.0, 0.02, 400
	ysPlain := simulate(plain, setpoint, gain, steps)
	ysAW := simulate(corrected, setpoint, gain, steps)

	over := func(ys []float64) float64 {
		max := 0.0
		for _, y := range ys {
			if y-setpoint > max {
				max = y - setpoint
			}
		}
		return max
	}

	g.Expect(over(ysPlain)).To(gomega.BeNumerically(">", 0), "plain controller should overshoot after saturation")
	g.Expect(over(ysAW)).To(gomega.BeNumerically("<", over(ysPlain)),
		"back-calculation should recover from saturation with less overshoot")

	// Both must still settle on the setpoint.
	g.Expect(ysPlain[steps-1]).To(gomega.BeNumerically("~", setpoint, 0.05))
	g.Expect(ysAW[steps-1]).To(gomega.BeNumerically("~", setpoint, 0.05))
}

func TestUpdate_NilHandle(t *testing.T) {
	var c *Controller
	if _, err := c.Update(1, 0); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("nil handle: got %v, want ErrInvalidArgument", err)
	}
}

func TestReset_MatchesFreshController(t *testing.T) {
	cfg := Config{Kp: 3.0, Ki: 0.2, Kd: 0.05, Kaw: 0.3, UMin: -50, UMax: 50}
	fresh := mustBind(t, cfg)
	used := mustBind(t, cfg)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		used.Update(rng.Float64()*100, rng.Float64()*100)
	}
	if err := used.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	for i := 0; i < 50; i++ {
		sp, y := rng.Float64()*100, rng.Float64()*100
		a, _ := fresh.Update(sp, y)
		b, _ := used.Update(sp, y)
		if a != b {
			t.Fatalf("step %d: reset controller output %v != fresh %v", i, b, a)
		}
	}
}

func TestSetGains(t *testing.T) {
	c := mustBind(t, validConfig())
	c.Update(10, 0)

	if err := c.SetGains(2, 0.5, 0.1, false); err != nil {
		t.Fatalf("SetGains failed: %v", err)
	}
	got := c.Config()
	if got.Kp != 2 || got.Ki != 0.5 || got.Kd != 0.1 {
		t.Errorf("gains not applied: %+v", got)
	}

	if err := c.SetGains(math.NaN(), 0.5, 0.1, false); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("NaN gain: got %v, want ErrInvalidArgument", err)
	}
	if c.Config().Kp != 2 {
		t.Error("failed SetGains modified stored gains")
	}
}

func TestSetGains_ResetOnChange(t *testing.T) {
	cfg := validConfig()
	used := mustBind(t, cfg)
	fresh := mustBind(t, cfg)

	for i := 0; i < 20; i++ {
		used.Update(float64(i), 0)
	}
	if err := used.SetGains(cfg.Kp, cfg.Ki, cfg.Kd, true); err != nil {
		t.Fatalf("SetGains failed: %v", err)
	}

	a, _ := fresh.Update(5, 1)
	b, _ := used.Update(5, 1)
	if a != b {
		t.Errorf("reset-on-change controller output %v != fresh %v", b, a)
	}
}

func TestSetAntiWindup(t *testing.T) {
	c := mustBind(t, validConfig())

	if err := c.SetAntiWindup(0.7); err != nil {
		t.Fatalf("SetAntiWindup failed: %v", err)
	}
	if c.Config().Kaw != 0.7 {
		t.Errorf("kaw = %v, want 0.7", c.Config().Kaw)
	}
	if err := c.SetAntiWindup(math.Inf(1)); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Inf kaw: got %v, want ErrInvalidArgument", err)
	}
	if c.Config().Kaw != 0.7 {
		t.Error("failed SetAntiWindup modified stored gain")
	}
}

func TestSetOutputLimits(t *testing.T) {
	c := mustBind(t, validConfig())

	// u_min >= u_max always fails and leaves the prior limits intact.
	if err := c.SetOutputLimits(10, 5); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("inverted limits: got %v, want ErrInvalidArgument", err)
	}
	got := c.Config()
	if got.UMin != -100 || got.UMax != 100 {
		t.Errorf("failed SetOutputLimits modified limits: %+v", got)
	}

	if err := c.SetOutputLimits(-5, 5); err != nil {
		t.Fatalf("SetOutputLimits failed: %v", err)
	}
	u, err := c.Update(1000, 0)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if u != 5 {
		t.Errorf("output %v not clamped to new limit 5", u)
	}
}

func TestMutators_NilHandle(t *testing.T) {
	var c *Controller

	if err := c.Reset(); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Reset on nil: got %v", err)
	}
	if err := c.SetGains(1, 1, 1, false); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("SetGains on nil: got %v", err)
	}
	if err := c.SetAntiWindup(0); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("SetAntiWindup on nil: got %v", err)
	}
	if err := c.SetOutputLimits(-1, 1); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("SetOutputLimits on nil: got %v", err)
	}
}
