package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/ajmle/pidlab/internal/config"
	"github.com/ajmle/pidlab/internal/export"
	"github.com/ajmle/pidlab/internal/integrators"
	"github.com/ajmle/pidlab/internal/loop"
	"github.com/ajmle/pidlab/internal/metrics"
	"github.com/ajmle/pidlab/internal/plant"
	"github.com/ajmle/pidlab/internal/store"
	"github.com/ajmle/pidlab/internal/telemetry"
	"github.com/ajmle/pidlab/internal/tui"
	"github.com/ajmle/pidlab/internal/viz"
	"github.com/ajmle/pidlab/pidctrl"
)

var (
	dataDir    string
	configFile string
	preset     string
	kp         float64
	ki         float64
	kd         float64
	kaw        float64
	uMin       float64
	uMax       float64
	period     float64
	duration   float64
	target     float64
	serveTicks int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pidlab",
		Short: "incremental PID control lab",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".pidlab", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")

	runCmd := &cobra.Command{
		Use:   "run [plant]",
		Short: "run a closed-loop simulation and record it",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addTuningFlags(runCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list recorded runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run series to CSV on stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "render run response curves as SVG on stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}

	liveCmd := &cobra.Command{
		Use:   "live [plant]",
		Short: "run the loop interactively with live tuning",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addTuningFlags(liveCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				cfg := config.GetPreset(name)
				fmt.Printf("  %-14s plant=%s setpoint=%s/%g\n",
					name, cfg.Plant.Name, cfg.Setpoint.Profile, cfg.Setpoint.Level)
			}
			return nil
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve [plant]",
		Short: "run the loop in wall-clock time with Prometheus telemetry",
		Args:  cobra.MaximumNArgs(1),
		RunE:  serveLoop,
	}
	addTuningFlags(serveCmd)
	serveCmd.Flags().IntVar(&serveTicks, "ticks", 0, "stop after N ticks (0 = run until interrupted)")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, exportCSVCmd, exportSVGCmd, liveCmd, presetsCmd, serveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addTuningFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&kp, "kp", config.DefaultKp, "proportional gain")
	cmd.Flags().Float64Var(&ki, "ki", config.DefaultKi, "integral gain")
	cmd.Flags().Float64Var(&kd, "kd", config.DefaultKd, "derivative gain")
	cmd.Flags().Float64Var(&kaw, "kaw", config.DefaultKaw, "anti-windup gain")
	cmd.Flags().Float64Var(&uMin, "u-min", 0, "lower output limit")
	cmd.Flags().Float64Var(&uMax, "u-max", 100, "upper output limit")
	cmd.Flags().Float64Var(&period, "period", config.DefaultPeriod, "controller period (s)")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration (s)")
	cmd.Flags().Float64Var(&target, "target", 0, "constant setpoint override")
}

// resolveConfig layers preset, config file, positional plant, and changed
// CLI flags, in that order.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if len(args) > 0 {
		cfg.Plant.Name = args[0]
		cfg.Plant.Init = defaultInit(args[0])
	}

	flags := cmd.Flags()
	if flags.Changed("kp") {
		cfg.Controller.Kp = kp
	}
	if flags.Changed("ki") {
		cfg.Controller.Ki = ki
	}
	if flags.Changed("kd") {
		cfg.Controller.Kd = kd
	}
	if flags.Changed("kaw") {
		cfg.Controller.Kaw = kaw
	}
	if flags.Changed("u-min") {
		cfg.Controller.UMin = uMin
	}
	if flags.Changed("u-max") {
		cfg.Controller.UMax = uMax
	}
	if flags.Changed("period") {
		cfg.Loop.Period = period
	}
	if flags.Changed("time") {
		cfg.Loop.Duration = duration
	}
	if flags.Changed("target") {
		cfg.Setpoint = config.SetpointConfig{Profile: "constant", Level: target}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultInit(plantName string) []float64 {
	switch plantName {
	case "thermal":
		return []float64{20}
	case "motor":
		return []float64{0, 0}
	default:
		return []float64{0}
	}
}

func buildSetpoint(sc config.SetpointConfig) loop.Setpoint {
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

// buildLoop assembles plant, integrator, and a freshly bound controller
// from a resolved config.
func buildLoop(cfg *config.Config) (plant.Plant, integrators.Integrator, *pidctrl.Controller, error) {
	sys, err := plant.New(cfg.Plant.Name, cfg.Plant.Params)
	if err != nil {
		return nil, nil, nil, err
	}

	integ, err := integrators.New(cfg.Loop.Integrator)
	if err != nil {
		return nil, nil, nil, err
	}

	ctrl, err := pidctrl.Bind(pidctrl.NewStorage(), cfg.Controller.Engine())
	if err != nil {
		return nil, nil, nil, err
	}

	return sys, integ, ctrl, nil
}

func defaultMetrics(cfg *config.Config) []loop.Metric {
	return []loop.Metric{
		metrics.NewControlEffort(),
		metrics.NewSaturation(cfg.Controller.UMin, cfg.Controller.UMax),
		metrics.NewOvershoot(),
		metrics.NewSettlingTime(0.02 * (cfg.Controller.UMax - cfg.Controller.UMin)),
		metrics.NewSteadyStateError(),
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	sys, integ, ctrl, err := buildLoop(cfg)
	if err != nil {
		return err
	}

	st := store.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	runner := loop.New(sys, integ, ctrl, buildSetpoint(cfg.Setpoint))
	for _, m := range defaultMetrics(cfg) {
		runner.AddMetric(m)
	}

	fmt.Printf("running %s loop...\n", sys.Name())
	start := time.Now()

	result, err := runner.Run(context.Background(), plant.State(cfg.Plant.Init), loop.Config{
		Period:   cfg.Loop.Period,
		Duration: cfg.Loop.Duration,
		SubSteps: cfg.Loop.SubSteps,
	})
	if err != nil {
		return err
	}

	elapsed := time.Since(start)

	runID, err := st.Save(store.RunMetadata{
		Plant:      cfg.Plant.Name,
		Period:     cfg.Loop.Period,
		Duration:   cfg.Loop.Duration,
		Integrator: cfg.Loop.Integrator,
		Setpoint:   fmt.Sprintf("%s/%g", cfg.Setpoint.Profile, cfg.Setpoint.Level),
		Controller: ctrl.Config(),
	}, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("ticks: %d\n", result.Ticks)
	fmt.Println("\nmetrics:")

	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Print(viz.MetricsTable(names, result.Metrics))

	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPLANT\tTIME\tDURATION\tPERIOD\tSETPOINT\tKP\tKI\tKD\tKAW")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.1fs\t%.3fs\t%s\t%g\t%g\t%g\t%g\n",
			run.ID,
			run.Plant,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Period,
			run.Setpoint,
			run.Controller.Kp,
			run.Controller.Ki,
			run.Controller.Kd,
			run.Controller.Kaw,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := store.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	series, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}

	if len(series.Times) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("plant: %s\n", meta.Plant)
	fmt.Printf("samples: %d\n\n", len(series.Times))

	fmt.Println(viz.Response(&loop.Result{
		Times:        series.Times,
		Setpoints:    series.Setpoints,
		Measurements: series.Measurements,
		Outputs:      series.Outputs,
	}))

	if len(meta.Metrics) > 0 {
		names := make([]string, 0, len(meta.Metrics))
		for name := range meta.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Println("metrics:")
		fmt.Print(viz.MetricsTable(names, meta.Metrics))
	}

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	series, err := st.LoadSeries(args[0])
	if err != nil {
		return err
	}

	if len(series.Times) == 0 {
		return fmt.Errorf("no data to export")
	}

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	if err := w.Write([]string{"time", "setpoint", "measurement", "output"}); err != nil {
		return err
	}
	for i := range series.Times {
		row := []string{
			strconv.FormatFloat(series.Times[i], 'f', 6, 64),
			strconv.FormatFloat(series.Setpoints[i], 'f', 6, 64),
			strconv.FormatFloat(series.Measurements[i], 'f', 6, 64),
			strconv.FormatFloat(series.Outputs[i], 'f', 6, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	series, err := st.LoadSeries(args[0])
	if err != nil {
		return err
	}

	svg := export.ResponseSVG(&loop.Result{
		Times:        series.Times,
		Setpoints:    series.Setpoints,
		Measurements: series.Measurements,
		Outputs:      series.Outputs,
	})
	if svg == "" {
		return fmt.Errorf("no data to render")
	}

	fmt.Println(svg)
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	m, err := tui.NewModel(cfg)
	if err != nil {
		return err
	}

	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

// serveLoop runs the control loop against the wall clock, one tick per
// period, publishing signals over Prometheus until interrupted.
func serveLoop(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	sys, integ, ctrl, err := buildLoop(cfg)
	if err != nil {
		return err
	}

	tel := telemetry.New(cfg.Plant.Name)
	go func() {
		if err := tel.Serve(cfg.Telemetry.Port); err != nil {
			fmt.Fprintf(os.Stderr, "telemetry: %v\n", err)
		}
	}()
	fmt.Printf("serving %s loop, metrics on :%d/metrics\n", sys.Name(), cfg.Telemetry.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	setpoint := buildSetpoint(cfg.Setpoint)
	x := plant.State(cfg.Plant.Init).Clone()
	subDt := cfg.Loop.Period / float64(cfg.Loop.SubSteps)
	ticker := time.NewTicker(time.Duration(cfg.Loop.Period * float64(time.Second)))
	defer ticker.Stop()

	t := 0.0
	for tick := 0; serveTicks == 0 || tick < serveTicks; tick++ {
		select {
		case <-ctx.Done():
			fmt.Println("\nstopped")
			return nil
		case <-ticker.C:
		}

		tickStart := time.Now()

		y := sys.Output(x)
		sp := setpoint(t)
		u, err := ctrl.Update(sp, y)
		if err != nil {
			tel.RecordUpdateError()
			return &loop.TickError{Tick: tick, Time: t, Wrapped: err}
		}
		tel.OnTick(t, sp, y, u)

		for s := 0; s < cfg.Loop.SubSteps; s++ {
			x = integ.Step(sys, x, u, t+float64(s)*subDt, subDt)
		}
		t += cfg.Loop.Period

		if !x.IsValid() {
			return fmt.Errorf("plant state diverged at t=%.4f", t)
		}

		tel.ObserveTickDuration(time.Since(tickStart))
	}

	fmt.Println("done")
	return nil
}
