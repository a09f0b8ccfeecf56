package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/bdsim/internal/analysis"
	"github.com/san-kum/bdsim/internal/sim"
)

// PlotOptions controls the size of terminal plots.
type PlotOptions struct {
	Width  int
	Height int
	Skip   int
	LogLog bool
}

func DefaultPlotOptions() PlotOptions {
	return PlotOptions{Width: 80, Height: 12, Skip: 1}
}

// Thin keeps every skip-th value, always including the last one.
func Thin(values []float64, skip int) []float64 {
	if skip <= 1 || len(values) == 0 {
		return values
	}
	out := make([]float64, 0, len(values)/skip+1)
	for i := 0; i < len(values); i += skip {
		out = append(out, values[i])
	}
	if (len(values)-1)%skip != 0 {
		out = append(out, values[len(values)-1])
	}
	return out
}

// Log10 maps values through log10, replacing non-positive entries with the
// smallest positive log in the slice.
func Log10(values []float64) []float64 {
	out := make([]float64, len(values))
	floor := math.Inf(1)
	for i, v := range values {
		if v > 0 {
			out[i] = math.Log10(v)
			floor = math.Min(floor, out[i])
		} else {
			out[i] = math.NaN()
		}
	}
	if math.IsInf(floor, 1) {
		floor = 0
	}
	for i := range out {
		if math.IsNaN(out[i]) {
			out[i] = floor
		}
	}
	return out
}

// PlotSeries renders interface width and mean height against sample index.
func PlotSeries(series *sim.Series, opts PlotOptions) string {
	if series.Len() == 0 {
		return Subtle.Render("no samples")
	}

	width := Thin(series.Width, opts.Skip)
	mean := Thin(series.MeanHeight, opts.Skip)
	widthCaption := "interface width"
	meanCaption := "mean height"
	if opts.LogLog {
		width = Log10(width)
		mean = Log10(mean)
		widthCaption = "log10 interface width"
		meanCaption = "log10 mean height"
	}

	var b strings.Builder
	for _, p := range []struct {
		data    []float64
		caption string
	}{
		{width, widthCaption},
		{mean, meanCaption},
	} {
		b.WriteString(asciigraph.Plot(p.data,
			asciigraph.Height(opts.Height),
			asciigraph.Width(opts.Width),
			asciigraph.Caption(p.caption),
		))
		b.WriteString("\n\n")
	}

	last := series.Len() - 1
	b.WriteString(Row("samples", fmt.Sprintf("%d", series.Len())) + "\n")
	b.WriteString(Row("final time", fmt.Sprintf("%.2f", series.Time[last])) + "\n")
	b.WriteString(Row("final width", fmt.Sprintf("%.4f", series.Width[last])) + "\n")
	b.WriteString(Row("final mean", fmt.Sprintf("%.4f", series.MeanHeight[last])) + "\n")
	if beta, ok := analysis.GrowthExponent(series); ok {
		b.WriteString(Row("beta (early)", fmt.Sprintf("%.3f", beta)) + "\n")
	}

	return b.String()
}
