// Package viz renders closed-loop traces as terminal charts.
package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/ajmle/pidlab/internal/loop"
)

const (
	plotWidth  = 80
	plotHeight = 12
)

// Response renders setpoint and measurement on one chart, with the
// control effort below it.
func Response(result *loop.Result) string {
	if len(result.Times) == 0 {
		return "(empty run)"
	}

	var b strings.Builder

	tracking := asciigraph.PlotMany(
		[][]float64{result.Setpoints, result.Measurements},
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.SeriesColors(asciigraph.Gray, asciigraph.Green),
		asciigraph.Caption("setpoint (gray) / measurement (green)"),
	)
	b.WriteString(tracking)
	b.WriteString("\n\n")

	effort := asciigraph.Plot(
		result.Outputs,
		asciigraph.Height(plotHeight/2),
		asciigraph.Width(plotWidth),
		asciigraph.Caption("control output"),
	)
	b.WriteString(effort)
	b.WriteString("\n")

	return b.String()
}

// Sparkline renders a compact single-series chart for the live view.
func Sparkline(series []float64, height int, caption string) string {
	if len(series) < 2 {
		return ""
	}
	return asciigraph.Plot(series,
		asciigraph.Height(height),
		asciigraph.Width(plotWidth-20),
		asciigraph.Caption(caption),
	)
}

// MetricsTable formats run metrics one per line, sorted by the caller.
func MetricsTable(names []string, metrics map[string]float64) string {
	var b strings.Builder
	for _, name := range names {
		v, ok := metrics[name]
		if !ok {
			continue
		}
		b.WriteString(fmt.Sprintf("  %-20s %10.4f\n", name, v))
	}
	return b.String()
}
