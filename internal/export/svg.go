// Package export renders recorded response curves as standalone SVG
// documents.
package export

import (
	"fmt"
	"strings"

	"github.com/ajmle/pidlab/internal/loop"
)

const (
	svgWidth  = 800
	svgHeight = 400
)

// ResponseSVG draws setpoint, measurement, and output against time on a
// dark background. Output is scaled independently so heater-style loops
// (0-100 actuation, narrow process range) stay readable.
func ResponseSVG(result *loop.Result) string {
	if len(result.Times) < 2 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, svgWidth, svgHeight, svgWidth, svgHeight))

	lo, hi := bounds(result.Setpoints)
	mLo, mHi := bounds(result.Measurements)
	if mLo < lo {
		lo = mLo
	}
	if mHi > hi {
		hi = mHi
	}

	sb.WriteString(path(result.Times, result.Setpoints, lo, hi, "#888888"))
	sb.WriteString(path(result.Times, result.Measurements, lo, hi, "#00ff88"))

	uLo, uHi := bounds(result.Outputs)
	sb.WriteString(path(result.Times, result.Outputs, uLo, uHi, "#ff8800"))

	sb.WriteString(fmt.Sprintf(`<text x="10" y="20" fill="#888888" font-family="monospace" font-size="12">setpoint</text>
<text x="80" y="20" fill="#00ff88" font-family="monospace" font-size="12">measurement</text>
<text x="180" y="20" fill="#ff8800" font-family="monospace" font-size="12">output</text>
<text x="10" y="%d" fill="#555555" font-family="monospace" font-size="11">t: %.1fs .. %.1fs</text>
</svg>`, svgHeight-8, result.Times[0], result.Times[len(result.Times)-1]))

	return sb.String()
}

func bounds(series []float64) (lo, hi float64) {
	lo, hi = series[0], series[0]
	for _, v := range series {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi == lo {
		hi = lo + 1
	}
	// breathing room so traces stay off the frame edges
	pad := (hi - lo) * 0.1
	return lo - pad, hi + pad
}

func path(times, series []float64, lo, hi float64, stroke string) string {
	t0, t1 := times[0], times[len(times)-1]
	span := t1 - t0
	if span == 0 {
		span = 1
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, stroke))
	for i := range times {
		x := (times[i] - t0) / span * float64(svgWidth)
		y := float64(svgHeight) - (series[i]-lo)/(hi-lo)*float64(svgHeight)
		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}
	sb.WriteString("\"/>\n")
	return sb.String()
}
