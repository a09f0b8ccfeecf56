package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/san-kum/bdsim/internal/sim"
)

func TestPath(t *testing.T) {
	if got := Path([]Point{{1, 1}}, 100, 50, 0, "#fff"); got != "" {
		t.Errorf("single point should not draw, got %q", got)
	}

	got := Path([]Point{{0, 0}, {1, 1}, {2, 0}}, 100, 50, 10, "#fff")
	if !strings.HasPrefix(got, `<path fill="none" stroke="#fff"`) {
		t.Errorf("unexpected path %q", got)
	}
	if strings.Count(got, " L") != 2 {
		t.Errorf("expected two line segments in %q", got)
	}
}

func TestBoundsFlat(t *testing.T) {
	minX, maxX, minY, maxY := Bounds([]Point{{2, 3}, {2, 3}})
	if !(minX < 2 && maxX > 2 && minY < 3 && maxY > 3) {
		t.Errorf("flat bounds not padded: %v %v %v %v", minX, maxX, minY, maxY)
	}
}

func TestChart(t *testing.T) {
	series := &sim.Series{
		Width:      []float64{1.5, 2.25, 3},
		MeanHeight: []float64{1, 4.875, 9},
		Time:       []float64{1, 2, 3},
	}

	var buf bytes.Buffer
	if err := WriteChart(&buf, series, "L8 <k1>", ChartOptions{Width: 200, Height: 80, LogLog: true}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	out := buf.String()

	if !strings.HasPrefix(out, "<?xml") || !strings.HasSuffix(out, "</svg>\n") {
		t.Error("chart is not a complete svg document")
	}
	if strings.Count(out, "<path") != 2 {
		t.Errorf("expected two paths, got %d", strings.Count(out, "<path"))
	}
	if !strings.Contains(out, "L8 &lt;k1&gt;") {
		t.Error("title should be escaped")
	}
	if !strings.Contains(out, "log10 interface width") {
		t.Error("log-log caption missing")
	}
}
