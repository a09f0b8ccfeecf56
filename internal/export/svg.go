// Package export renders stored series as standalone SVG charts.
package export

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/san-kum/bdsim/internal/sim"
)

type Point struct {
	X, Y float64
}

// ChartOptions sets the size of each panel and the axis scaling.
type ChartOptions struct {
	Width  int
	Height int
	LogLog bool
}

func DefaultChartOptions() ChartOptions {
	return ChartOptions{Width: 640, Height: 240}
}

const (
	background  = "#0a0a0a"
	widthColor  = "#00ff87"
	meanColor   = "#5fafff"
	labelColor  = "#a8a8a8"
	panelMargin = 24
)

// Bounds returns the padded extent of points.
func Bounds(points []Point) (minX, maxX, minY, maxY float64) {
	minX, maxX = points[0].X, points[0].X
	minY, maxY = points[0].Y, points[0].Y
	for _, p := range points {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	return minX - rangeX*0.05, maxX + rangeX*0.05, minY - rangeY*0.1, maxY + rangeY*0.1
}

// Path writes an SVG path of points scaled into a width x height box whose
// top edge sits at offsetY.
func Path(points []Point, width, height, offsetY int, stroke string) string {
	if len(points) < 2 {
		return ""
	}
	minX, maxX, minY, maxY := Bounds(points)
	rangeX := maxX - minX
	rangeY := maxY - minY

	var sb strings.Builder
	fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, stroke)
	for i, p := range points {
		x := (p.X - minX) / rangeX * float64(width)
		y := float64(offsetY) + float64(height) - (p.Y-minY)/rangeY*float64(height)
		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}
	sb.WriteString(`"/>`)
	return sb.String()
}

func seriesPoints(times, values []float64, logLog bool) []Point {
	points := make([]Point, 0, len(values))
	for i, v := range values {
		x := times[i]
		if logLog {
			if x <= 0 || v <= 0 {
				continue
			}
			x, v = math.Log10(x), math.Log10(v)
		}
		points = append(points, Point{X: x, Y: v})
	}
	return points
}

// Chart renders interface width and mean height against time as two stacked
// panels.
func Chart(series *sim.Series, title string, opts ChartOptions) string {
	panels := []struct {
		caption string
		color   string
		values  []float64
	}{
		{"interface width", widthColor, series.Width},
		{"mean height", meanColor, series.MeanHeight},
	}

	total := len(panels)*(opts.Height+panelMargin) + panelMargin
	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
<text x="4" y="16" fill="%s" font-family="monospace" font-size="12">%s</text>
`, opts.Width, total, opts.Width, total, background, labelColor, escape(title))

	for i, p := range panels {
		top := panelMargin + i*(opts.Height+panelMargin)
		caption := p.caption
		if opts.LogLog {
			caption = "log10 " + caption + " vs log10 time"
		}
		fmt.Fprintf(&sb, `<text x="4" y="%d" fill="%s" font-family="monospace" font-size="11">%s</text>
`, top+12, p.color, caption)
		if path := Path(seriesPoints(series.Time, p.values, opts.LogLog), opts.Width, opts.Height, top, p.color); path != "" {
			sb.WriteString(path)
			sb.WriteString("\n")
		}
	}

	sb.WriteString("</svg>\n")
	return sb.String()
}

// WriteChart writes Chart output to w.
func WriteChart(w io.Writer, series *sim.Series, title string, opts ChartOptions) error {
	_, err := io.WriteString(w, Chart(series, title, opts))
	return err
}

func escape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}
