// Package tui provides the interactive live view: the closed loop runs
// in real time while gains are retuned from the keyboard.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ajmle/pidlab/internal/config"
	"github.com/ajmle/pidlab/internal/integrators"
	"github.com/ajmle/pidlab/internal/loop"
	"github.com/ajmle/pidlab/internal/plant"
	"github.com/ajmle/pidlab/internal/viz"
	"github.com/ajmle/pidlab/pidctrl"
)

const historyCapacity = 600

var tunables = []string{"kp", "ki", "kd", "kaw"}

type TickMsg time.Time

// Model holds the running loop plus UI context. The controller is bound
// into storage owned by the model, so its lifetime matches the session.
type Model struct {
	cfg        *config.Config
	storage    []byte
	ctrl       *pidctrl.Controller
	sys        plant.Plant
	integrator integrators.Integrator
	setpoint   loop.Setpoint

	state   plant.State
	t       float64
	running bool
	ticks   int
	lastU   float64
	lastErr error

	selected     int
	measurements []float64
	outputs      []float64
}

func NewModel(cfg *config.Config) (*Model, error) {
	sys, err := plant.New(cfg.Plant.Name, cfg.Plant.Params)
	if err != nil {
		return nil, err
	}

	integ, err := integrators.New(cfg.Loop.Integrator)
	if err != nil {
		return nil, err
	}

	storage := pidctrl.NewStorage()
	ctrl, err := pidctrl.Bind(storage, cfg.Controller.Engine())
	if err != nil {
		return nil, err
	}

	init := cfg.Plant.Init
	if len(init) != sys.StateDim() {
		return nil, fmt.Errorf("tui: plant %s needs %d initial states, got %d",
			sys.Name(), sys.StateDim(), len(init))
	}

	return &Model{
		cfg:          cfg,
		storage:      storage,
		ctrl:         ctrl,
		sys:          sys,
		integrator:   integ,
		setpoint:     profileSetpoint(cfg.Setpoint),
		state:        plant.State(init).Clone(),
		running:      true,
		measurements: make([]float64, 0, historyCapacity),
		outputs:      make([]float64, 0, historyCapacity),
	}, nil
}

func profileSetpoint(sc config.SetpointConfig) loop.Setpoint {
	switch sc.Profile {
	case "step":
		return loop.StepAt(sc.Level, sc.At)
	case "ramp":
		return loop.Ramp(sc.Rate, sc.Max)
	case "square":
		return loop.Square(sc.Level, sc.Period)
	default:
		return loop.Constant(sc.Level)
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.restart()
		case "tab":
			m.selected = (m.selected + 1) % len(tunables)
		case "up", "k":
			m.adjustGain(1.05)
		case "down", "j":
			m.adjustGain(0.95)
		case "s":
			m.lastErr = m.ctrl.Reset()
		}
	case TickMsg:
		if m.running {
			m.step()
		}
		return m, tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
	}
	return m, nil
}

// step runs one control tick: sample, update, actuate, integrate.
func (m *Model) step() {
	y := m.sys.Output(m.state)
	sp := m.setpoint(m.t)

	u, err := m.ctrl.Update(sp, y)
	if err != nil {
		m.lastErr = err
		m.running = false
		return
	}
	m.lastU = u

	dt := m.cfg.Loop.Period / float64(m.cfg.Loop.SubSteps)
	for i := 0; i < m.cfg.Loop.SubSteps; i++ {
		m.state = m.integrator.Step(m.sys, m.state, u, m.t, dt)
		m.t += dt
	}
	m.ticks++

	m.measurements = append(m.measurements, y)
	m.outputs = append(m.outputs, u)
	if len(m.measurements) > historyCapacity {
		m.measurements = m.measurements[1:]
		m.outputs = m.outputs[1:]
	}
}

// adjustGain retunes the selected knob by a multiplicative factor. Gains
// change without a state reset so the output stays continuous.
func (m *Model) adjustGain(factor float64) {
	c := m.ctrl.Config()
	switch tunables[m.selected] {
	case "kp":
		m.lastErr = m.ctrl.SetGains(bump(c.Kp, factor), c.Ki, c.Kd, false)
	case "ki":
		m.lastErr = m.ctrl.SetGains(c.Kp, bump(c.Ki, factor), c.Kd, false)
	case "kd":
		m.lastErr = m.ctrl.SetGains(c.Kp, c.Ki, bump(c.Kd, factor), false)
	case "kaw":
		m.lastErr = m.ctrl.SetAntiWindup(bump(c.Kaw, factor))
	}
}

// bump scales a gain, nudging zero off the floor so tuning up from zero
// is possible.
func bump(v, factor float64) float64 {
	if v == 0 && factor > 1 {
		return 0.01
	}
	return v * factor
}

func (m *Model) restart() {
	m.t = 0
	m.ticks = 0
	m.lastU = 0
	m.lastErr = m.ctrl.Reset()
	m.state = plant.State(m.cfg.Plant.Init).Clone()
	m.measurements = m.measurements[:0]
	m.outputs = m.outputs[:0]
}

func (m *Model) View() string {
	var s strings.Builder

	s.WriteString(viz.Header(strings.ToUpper(m.sys.Name())) + "\n")
	status := "RUNNING"
	if !m.running {
		status = "PAUSED"
	}
	s.WriteString(status + "\n\n")

	y := m.sys.Output(m.state)
	sp := m.setpoint(m.t)
	s.WriteString(viz.Label("Time") + viz.Value(fmt.Sprintf("%.2fs", m.t)) + "\n")
	s.WriteString(viz.Label("Setpoint") + viz.Value(fmt.Sprintf("%.3f", sp)) + "\n")
	s.WriteString(viz.Label("Measurement") + viz.Value(fmt.Sprintf("%.3f", y)) + "\n")
	s.WriteString(viz.Label("Output") + viz.Value(fmt.Sprintf("%.3f", m.lastU)) + "\n")
	s.WriteString(viz.Label("Error") + viz.Value(fmt.Sprintf("%.3f", sp-y)) + "\n\n")

	s.WriteString("GAINS\n")
	c := m.ctrl.Config()
	vals := []float64{c.Kp, c.Ki, c.Kd, c.Kaw}
	for i, name := range tunables {
		line := fmt.Sprintf("%-5s %10.4f", name, vals[i])
		if i == m.selected {
			s.WriteString(viz.Active("> "+line) + "\n")
		} else {
			s.WriteString("  " + viz.Value(line) + "\n")
		}
	}
	s.WriteString(viz.Value(fmt.Sprintf("\nlimits  [%g, %g]\n", c.UMin, c.UMax)))

	if m.lastErr != nil {
		s.WriteString("\n" + viz.ErrorMsg(m.lastErr.Error()) + "\n")
	}

	s.WriteString(viz.Help("\nSP:Pause R:Restart S:Reset-Ctrl Q:Quit\nTab:Select ↑↓:Tune ±5%"))

	stats := viz.Stats(s.String())

	var charts strings.Builder
	if chart := viz.Sparkline(m.measurements, 10, "measurement"); chart != "" {
		charts.WriteString(viz.Graph(chart) + "\n")
	}
	if chart := viz.Sparkline(m.outputs, 5, "output"); chart != "" {
		charts.WriteString(viz.Graph(chart))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, charts.String(), stats)
}
