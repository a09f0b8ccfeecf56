// Package sweep runs one ensemble per combination of substrate length,
// sticking range and seed count and hands each average to a sink.
package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/bdsim/internal/config"
	"github.com/san-kum/bdsim/internal/sim"
)

// Sink persists an ensemble result and reports where it went.
type Sink interface {
	Save(res *sim.EnsembleResult) (string, error)
}

// Combination is one point of the parameter grid.
type Combination struct {
	Length     uint32
	KNeighbour uint32
	SeedCount  uint32
}

// Outcome summarises a finished ensemble.
type Outcome struct {
	Config  sim.Config
	Path    string
	Samples int
	Elapsed time.Duration
}

// Progress receives combination level events. Calls happen on the goroutine
// running the sweep.
type Progress interface {
	OnStart(idx, total int, cfg sim.Config)
	OnFinish(idx, total int, out Outcome)
}

type Sweep struct {
	params    *config.Params
	horizons  config.Horizons
	sink      Sink
	workers   int
	logger    *slog.Logger
	observers []sim.Observer
	progress  []Progress
}

type Option func(*Sweep)

func WithWorkers(n int) Option { return func(s *Sweep) { s.workers = n } }

func WithLogger(l *slog.Logger) Option { return func(s *Sweep) { s.logger = l } }

func WithObserver(o sim.Observer) Option {
	return func(s *Sweep) { s.observers = append(s.observers, o) }
}

func WithProgress(p Progress) Option {
	return func(s *Sweep) { s.progress = append(s.progress, p) }
}

// New builds a sweep over params. horizons supplies the time horizon of each
// substrate length unless params sets max_time explicitly.
func New(params *config.Params, horizons config.Horizons, sink Sink, opts ...Option) *Sweep {
	s := &Sweep{
		params:   params,
		horizons: horizons,
		sink:     sink,
		workers:  params.Options.Workers,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Combinations returns the Cartesian product of lengths, k values and seed
// counts, lengths varying slowest.
func (s *Sweep) Combinations() []Combination {
	sp := s.params.Simulation
	out := make([]Combination, 0, len(sp.SubstrateLengths)*len(sp.KNeighbours)*len(sp.Seeds))
	for _, l := range sp.SubstrateLengths {
		for _, k := range sp.KNeighbours {
			for _, n := range sp.Seeds {
				out = append(out, Combination{Length: l, KNeighbour: k, SeedCount: n})
			}
		}
	}
	return out
}

// Config builds and validates the simulation config of one combination.
func (s *Sweep) Config(c Combination) (sim.Config, error) {
	maxTime, err := s.params.MaxTimeFor(s.horizons, c.Length)
	if err != nil {
		return sim.Config{}, err
	}
	cfg := sim.Config{
		Length:     c.Length,
		MaxTime:    maxTime,
		KNeighbour: c.KNeighbour,
		SeedCount:  c.SeedCount,
		Periodic:   bool(s.params.Options.PeriodicBC),
		BaseSeed:   s.params.Options.InitSeed,
	}
	if err := cfg.Validate(); err != nil {
		return sim.Config{}, fmt.Errorf("%w: %w", config.ErrConfig, err)
	}
	return cfg, nil
}

// Configs builds every config up front so a bad combination fails before any
// simulation starts.
func (s *Sweep) Configs() ([]sim.Config, error) {
	combos := s.Combinations()
	cfgs := make([]sim.Config, 0, len(combos))
	for _, c := range combos {
		cfg, err := s.Config(c)
		if err != nil {
			return nil, err
		}
		cfgs = append(cfgs, cfg)
	}
	return cfgs, nil
}

// Run simulates every combination in order and saves each result.
func (s *Sweep) Run(ctx context.Context) ([]Outcome, error) {
	cfgs, err := s.Configs()
	if err != nil {
		return nil, err
	}

	outcomes := make([]Outcome, 0, len(cfgs))
	for i, cfg := range cfgs {
		for _, p := range s.progress {
			p.OnStart(i, len(cfgs), cfg)
		}
		s.logger.Info("running ensemble",
			"length", cfg.Length,
			"k", cfg.KNeighbour,
			"seeds", cfg.SeedCount,
			"periodic", cfg.Periodic,
			"init_seed", cfg.BaseSeed,
			"max_time", cfg.MaxTime,
		)

		out, err := s.runOne(ctx, cfg)
		if err != nil {
			return outcomes, fmt.Errorf("%s: %w", cfg, err)
		}
		outcomes = append(outcomes, out)

		s.logger.Info("ensemble complete", "file", out.Path, "samples", out.Samples, "elapsed", out.Elapsed)
		for _, p := range s.progress {
			p.OnFinish(i, len(cfgs), out)
		}
	}

	return outcomes, nil
}

func (s *Sweep) runOne(ctx context.Context, cfg sim.Config) (Outcome, error) {
	opts := []sim.EnsembleOption{sim.WithWorkers(s.workers)}
	for _, o := range s.observers {
		opts = append(opts, sim.WithObserver(o))
	}
	opts = append(opts, sim.WithObserver(sim.ObserverFunc(func(_ sim.Config, idx, done, total int) {
		s.logger.Debug("realization complete", "realization", idx, "done", done, "total", total)
	})))

	start := time.Now()
	res, err := sim.NewEnsemble(cfg, opts...).Run(ctx)
	if err != nil {
		return Outcome{}, err
	}
	elapsed := time.Since(start)

	path, err := s.sink.Save(res)
	if err != nil {
		return Outcome{}, err
	}

	return Outcome{Config: cfg, Path: path, Samples: res.Series.Len(), Elapsed: elapsed}, nil
}
