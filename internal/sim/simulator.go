package sim

import (
	"context"

	"github.com/san-kum/bdsim/internal/rng"
	"github.com/san-kum/bdsim/internal/stats"
	"github.com/san-kum/bdsim/internal/surface"
)

// Simulator runs a single realization of the deposition process.
type Simulator struct {
	cfg      Config
	surf     *surface.Surface
	rng      surface.Stream
	schedule Schedule
	k        int
	t        float64
}

// New builds a simulator for realization idx of cfg with its own generator
// and a fresh surface.
func New(cfg Config, idx int) *Simulator {
	return NewWithSurface(cfg, idx, surface.New(int(cfg.Length), cfg.Boundary()))
}

// NewWithSurface is New with a caller supplied, flat surface.
func NewWithSurface(cfg Config, idx int, surf *surface.Surface) *Simulator {
	return &Simulator{
		cfg:      cfg,
		surf:     surf,
		rng:      rng.New(cfg.RealizationSeed(idx)),
		schedule: cfg.Schedule(),
		k:        int(cfg.KNeighbour),
	}
}

func (s *Simulator) Surface() *surface.Surface { return s.surf }
func (s *Simulator) Time() float64             { return s.t }
func (s *Simulator) Done() bool                { return s.t >= s.schedule.MaxTime }

// Step deposits the next batch of the schedule and returns the resulting
// interface width and mean height.
func (s *Simulator) Step() (width, mean float64) {
	var n int
	n, s.t = s.schedule.Advance(s.t)
	s.surf.Deposit(n, s.k, s.rng)

	mean, width, _ = stats.HeightStats(s.surf.Heights())
	return width, mean
}

// Run advances the surface through the whole schedule, recording width, mean
// height and elapsed time after every batch.
func (s *Simulator) Run(ctx context.Context) (*Series, error) {
	return s.RunWithCallback(ctx, nil)
}

// RunWithCallback is Run with a hook invoked after every recorded sample.
// Returning false from the hook stops the run early.
func (s *Simulator) RunWithCallback(ctx context.Context, callback func(h []uint32, t float64) bool) (*Series, error) {
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}

	result := newSeries(s.schedule.Steps())

	for !s.Done() {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		width, mean := s.Step()
		result.record(width, mean, s.t)

		if callback != nil && !callback(s.surf.Heights(), s.t) {
			break
		}
	}

	return result, nil
}
