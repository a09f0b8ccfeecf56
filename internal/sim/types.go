package sim

import (
	"fmt"

	"github.com/san-kum/bdsim/internal/surface"
)

// Config describes one ensemble: a substrate length, sticking range and the
// number of independent realizations to average.
type Config struct {
	Length     uint32
	MaxTime    uint32
	KNeighbour uint32
	SeedCount  uint32
	Periodic   bool
	BaseSeed   uint32
}

// Validate checks the invariants every simulation relies on.
func (c Config) Validate() error {
	if c.Length == 0 {
		return fmt.Errorf("%w: length must be positive", ErrInvalidConfig)
	}
	if c.KNeighbour >= c.Length {
		return fmt.Errorf("%w: k_neighbour %d must be below length %d", ErrInvalidConfig, c.KNeighbour, c.Length)
	}
	if c.SeedCount == 0 {
		return fmt.Errorf("%w: seed count must be positive", ErrInvalidConfig)
	}
	if c.MaxTime == 0 {
		return fmt.Errorf("%w: max time must be positive", ErrInvalidConfig)
	}
	return nil
}

func (c Config) Boundary() surface.Boundary { return surface.BoundaryOf(c.Periodic) }

// RealizationSeed is the generator seed for realization idx. It is negative
// so the generator initialises its shuffle table on first use.
func (c Config) RealizationSeed(idx int) int32 {
	return -int32(c.Length + c.BaseSeed + uint32(idx))
}

// Schedule returns the logarithmic sampling schedule of this config.
func (c Config) Schedule() Schedule {
	return Schedule{Length: int(c.Length), MaxTime: float64(c.MaxTime)}
}

func (c Config) String() string {
	return fmt.Sprintf("L=%d k=%d seeds=%d %s iseed=%d tmax=%d",
		c.Length, c.KNeighbour, c.SeedCount, c.Boundary(), c.BaseSeed, c.MaxTime)
}

// Series holds the per-sample observables of one realization or of an
// ensemble average. All three slices have the same length.
type Series struct {
	Width      []float64
	MeanHeight []float64
	Time       []float64
}

func newSeries(capacity int) *Series {
	return &Series{
		Width:      make([]float64, 0, capacity),
		MeanHeight: make([]float64, 0, capacity),
		Time:       make([]float64, 0, capacity),
	}
}

func (s *Series) Len() int { return len(s.Time) }

func (s *Series) record(width, mean, t float64) {
	s.Width = append(s.Width, width)
	s.MeanHeight = append(s.MeanHeight, mean)
	s.Time = append(s.Time, t)
}

// EnsembleResult is the averaged series of an ensemble together with the
// config that produced it.
type EnsembleResult struct {
	Config       Config
	Series       Series
	Realizations int
}

// Observer is notified as realizations finish. Calls may come from several
// goroutines at once.
type Observer interface {
	OnRealization(cfg Config, idx, done, total int)
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(cfg Config, idx, done, total int)

func (f ObserverFunc) OnRealization(cfg Config, idx, done, total int) { f(cfg, idx, done, total) }
