package sim

import "math"

// BatchSize is the number of particles deposited at elapsed time t on a
// substrate of length l. A batch of one is widened to a full monolayer.
func BatchSize(t float64, l int) int {
	n := int(math.Floor(t*float64(l)/100 + 1))
	if n == 1 {
		n = l
	}
	return n
}

// Schedule is the logarithmic sampling schedule: batches grow with elapsed
// time, so early times are sampled densely and late times sparsely.
type Schedule struct {
	Length  int
	MaxTime float64
}

// Advance returns the batch size for t and the time after depositing it.
func (s Schedule) Advance(t float64) (int, float64) {
	n := BatchSize(t, s.Length)
	return n, t + float64(n)/float64(s.Length)
}

// Steps dry-runs the schedule and returns the number of samples a run
// records.
func (s Schedule) Steps() int {
	steps := 0
	for t := 0.0; t < s.MaxTime; steps++ {
		_, t = s.Advance(t)
	}
	return steps
}

// Times returns the elapsed time of every sample.
func (s Schedule) Times() []float64 {
	times := make([]float64, 0, s.Steps())
	for t := 0.0; t < s.MaxTime; {
		_, t = s.Advance(t)
		times = append(times, t)
	}
	return times
}
