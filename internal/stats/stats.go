// Package stats holds the pure reductions used on surfaces and run series.
package stats

import (
	"errors"
	"fmt"
	"math"
)

// ErrRagged is returned when rows handed to AverageColumns differ in length.
var ErrRagged = errors.New("stats: rows have different lengths")

// Mean returns the arithmetic mean. ok is false for an empty slice.
func Mean(values []float64) (mean float64, ok bool) {
	if len(values) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), true
}

// Variance returns the population variance (divides by n).
func Variance(values []float64) (float64, bool) {
	mean, ok := Mean(values)
	if !ok {
		return 0, false
	}
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return sum / float64(len(values)), true
}

// StdDev returns the population standard deviation.
func StdDev(values []float64) (float64, bool) {
	v, ok := Variance(values)
	if !ok {
		return 0, false
	}
	return math.Sqrt(v), true
}

// HeightStats returns the mean and population standard deviation of integer
// column heights in a single pass over a float copy.
func HeightStats(heights []uint32) (mean, width float64, ok bool) {
	if len(heights) == 0 {
		return 0, 0, false
	}
	n := float64(len(heights))
	sum := 0.0
	for _, h := range heights {
		sum += float64(h)
	}
	mean = sum / n

	sq := 0.0
	for _, h := range heights {
		d := float64(h) - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / n), true
}

// AverageColumns averages rows element-wise. All rows must have the same
// length; zero rows yields nil.
func AverageColumns(rows [][]float64) ([]float64, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	width := len(rows[0])
	out := make([]float64, width)
	for i, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrRagged, i, len(row), width)
		}
		for j, v := range row {
			out[j] += v
		}
	}
	n := float64(len(rows))
	for j := range out {
		out[j] /= n
	}
	return out, nil
}
