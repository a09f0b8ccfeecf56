package analysis

import (
	"math"
	"sort"

	"github.com/san-kum/bdsim/internal/sim"
)

const (
	// growthFraction is the share of samples used to fit beta.
	growthFraction = 3
	// plateauFraction is the share of samples averaged for W_sat.
	plateauFraction = 5
	// crossoverLevel is the fraction of W_sat that marks the crossover.
	crossoverLevel = 0.9
)

// Point is one (x, y) pair of a fit.
type Point struct {
	X, Y float64
}

// FitLogLog returns the least squares slope and intercept of log(y) against
// log(x). Points with a non-positive coordinate are ignored.
func FitLogLog(points []Point) (slope, intercept float64, ok bool) {
	var sx, sy, sxx, sxy float64
	n := 0
	for _, p := range points {
		if p.X <= 0 || p.Y <= 0 {
			continue
		}
		x, y := math.Log(p.X), math.Log(p.Y)
		sx += x
		sy += y
		sxx += x * x
		sxy += x * y
		n++
	}
	if n < 2 {
		return 0, 0, false
	}

	m := float64(n)
	den := m*sxx - sx*sx
	if den == 0 {
		return 0, 0, false
	}
	slope = (m*sxy - sx*sy) / den
	intercept = (sy - slope*sx) / m
	return slope, intercept, true
}

// GrowthExponent fits log(width) against log(time) over the first third of
// the samples, where the width still grows as t^beta before saturating.
func GrowthExponent(series *sim.Series) (float64, bool) {
	n := series.Len() / growthFraction
	if n < 2 {
		return 0, false
	}
	points := make([]Point, n)
	for i := range points {
		points[i] = Point{X: series.Time[i], Y: series.Width[i]}
	}
	beta, _, ok := FitLogLog(points)
	return beta, ok
}

// SaturationWidth averages the width over the last fifth of the samples.
func SaturationWidth(series *sim.Series) (float64, bool) {
	n := series.Len()
	if n == 0 {
		return 0, false
	}
	tail := max(n/plateauFraction, 1)
	sum := 0.0
	for _, w := range series.Width[n-tail:] {
		sum += w
	}
	return sum / float64(tail), true
}

// CrossoverTime returns the first sample time at which the width reaches 90%
// of wsat.
func CrossoverTime(series *sim.Series, wsat float64) (float64, bool) {
	if wsat <= 0 {
		return 0, false
	}
	for i, w := range series.Width {
		if w >= crossoverLevel*wsat {
			return series.Time[i], true
		}
	}
	return 0, false
}

// Summary collects the single-series scaling quantities.
type Summary struct {
	Beta         float64
	HasBeta      bool
	WSat         float64
	HasWSat      bool
	Crossover    float64
	HasCrossover bool
}

func Summarize(series *sim.Series) Summary {
	var s Summary
	s.Beta, s.HasBeta = GrowthExponent(series)
	s.WSat, s.HasWSat = SaturationWidth(series)
	if s.HasWSat {
		s.Crossover, s.HasCrossover = CrossoverTime(series, s.WSat)
	}
	return s
}

// SizePoint is the saturation width measured at one substrate length.
type SizePoint struct {
	Length uint32
	WSat   float64
}

// RoughnessExponent fits W_sat ~ L^alpha across substrate lengths.
func RoughnessExponent(sizes []SizePoint) (float64, bool) {
	sorted := make([]SizePoint, len(sizes))
	copy(sorted, sizes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Length < sorted[j].Length })

	points := make([]Point, 0, len(sorted))
	for _, s := range sorted {
		points = append(points, Point{X: float64(s.Length), Y: s.WSat})
	}
	alpha, _, ok := FitLogLog(points)
	return alpha, ok
}

// DynamicExponent returns z = alpha / beta.
func DynamicExponent(alpha, beta float64) (float64, bool) {
	if beta == 0 {
		return 0, false
	}
	return alpha / beta, true
}
