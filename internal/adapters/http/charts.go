package web

import (
	"fmt"
	"math"
	"strings"

	"achievements/internal/application/projections"
)

// Chart geometry, in SVG user units.
const (
	pieRadius   = 80.0
	pieCenter   = 100.0
	barWidth    = 480.0
	barHeight   = 200.0
	barGap      = 12.0
	chartMargin = 24.0
)

// pieSlice is one drawable wedge of a pie chart.
type pieSlice struct {
	projections.ChartSlice
	Path string // SVG path; empty when the slice is the whole circle
}

// pieChart lays out slices clockwise from 12 o'clock.
// POST: A lone slice has an empty Path and is drawn as a full circle
func pieChart(slices []projections.ChartSlice) []pieSlice {
	total := 0
	for _, s := range slices {
		total += s.Value
	}
	out := make([]pieSlice, 0, len(slices))
	if total == 0 {
		return out
	}

	angle := -math.Pi / 2
	for _, s := range slices {
		sweep := 2 * math.Pi * float64(s.Value) / float64(total)
		ps := pieSlice{ChartSlice: s}
		if s.Value < total {
			ps.Path = wedgePath(angle, angle+sweep)
		}
		out = append(out, ps)
		angle += sweep
	}
	return out
}

func wedgePath(from, to float64) string {
	x1, y1 := pieCenter+pieRadius*math.Cos(from), pieCenter+pieRadius*math.Sin(from)
	x2, y2 := pieCenter+pieRadius*math.Cos(to), pieCenter+pieRadius*math.Sin(to)
	large := 0
	if to-from > math.Pi {
		large = 1
	}
	return fmt.Sprintf("M%.2f %.2f L%.2f %.2f A%.0f %.0f 0 %d 1 %.2f %.2f Z",
		pieCenter, pieCenter, x1, y1, pieRadius, pieRadius, large, x2, y2)
}

// bar is one drawable column of a bar chart.
type bar struct {
	projections.ChartSlice
	X, Y, W, H float64
	LabelX     float64
}

// barChart scales values so the tallest bar fills the plot height.
func barChart(slices []projections.ChartSlice) []bar {
	out := make([]bar, 0, len(slices))
	if len(slices) == 0 {
		return out
	}
	peak := 0
	for _, s := range slices {
		peak = max(peak, s.Value)
	}
	plot := barHeight - chartMargin
	slot := barWidth / float64(len(slices))
	w := slot - barGap
	for i, s := range slices {
		h := 0.0
		if peak > 0 {
			h = plot * float64(s.Value) / float64(peak)
		}
		x := float64(i)*slot + barGap/2
		out = append(out, bar{ChartSlice: s, X: x, Y: plot - h, W: w, H: h, LabelX: x + w/2})
	}
	return out
}

// trendPoints renders the polyline points through the bar tops.
func trendPoints(bars []bar) string {
	pts := make([]string, 0, len(bars))
	for _, b := range bars {
		pts = append(pts, fmt.Sprintf("%.2f,%.2f", b.LabelX, b.Y))
	}
	return strings.Join(pts, " ")
}
