package sim

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/san-kum/bdsim/internal/stats"
	"github.com/san-kum/bdsim/internal/surface"
	"golang.org/x/sync/errgroup"
)

// Ensemble runs every realization of a Config and averages them.
type Ensemble struct {
	cfg       Config
	workers   int
	observers []Observer
}

type EnsembleOption func(*Ensemble)

// WithWorkers bounds the number of realizations simulated at once. Values
// below one select runtime.NumCPU().
func WithWorkers(n int) EnsembleOption {
	return func(e *Ensemble) { e.workers = n }
}

func WithObserver(o Observer) EnsembleOption {
	return func(e *Ensemble) { e.observers = append(e.observers, o) }
}

func NewEnsemble(cfg Config, opts ...EnsembleOption) *Ensemble {
	e := &Ensemble{cfg: cfg}
	for _, opt := range opts {
		opt(e)
	}
	if e.workers < 1 {
		e.workers = runtime.NumCPU()
	}
	return e
}

func (e *Ensemble) Config() Config { return e.cfg }

// Run simulates all realizations and reduces them into one averaged series.
func (e *Ensemble) Run(ctx context.Context) (*EnsembleResult, error) {
	runs, err := e.Realizations(ctx)
	if err != nil {
		return nil, err
	}

	series, err := Reduce(runs, e.cfg.Schedule().Steps())
	if err != nil {
		return nil, err
	}

	return &EnsembleResult{Config: e.cfg, Series: *series, Realizations: len(runs)}, nil
}

// Realizations simulates every realization and returns their series in
// realization order.
func (e *Ensemble) Realizations(ctx context.Context) ([]*Series, error) {
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}

	total := int(e.cfg.SeedCount)
	results := make([]*Series, total)
	pool := surface.NewPool(int(e.cfg.Length), e.cfg.Boundary())

	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i := 0; i < total; i++ {
		idx := i
		g.Go(func() error {
			surf := pool.Get()
			defer pool.Put(surf)

			series, err := NewWithSurface(e.cfg, idx, surf).Run(gctx)
			if err != nil {
				return fmt.Errorf("realization %d: %w", idx, err)
			}
			results[idx] = series

			n := int(done.Add(1))
			for _, o := range e.observers {
				o.OnRealization(e.cfg, idx, n, total)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// Reduce averages width and mean height across runs sample by sample. The
// time axis is taken from run 0 after checking every run shares it.
func Reduce(runs []*Series, steps int) (*Series, error) {
	if len(runs) == 0 {
		return nil, fmt.Errorf("%w: no realizations to reduce", ErrInvalidConfig)
	}
	if err := checkConsistency(runs, steps); err != nil {
		return nil, err
	}

	widths := make([][]float64, len(runs))
	means := make([][]float64, len(runs))
	for i, r := range runs {
		widths[i] = r.Width
		means[i] = r.MeanHeight
	}

	avgWidth, err := stats.AverageColumns(widths)
	if err != nil {
		return nil, err
	}
	avgMean, err := stats.AverageColumns(means)
	if err != nil {
		return nil, err
	}

	times := make([]float64, steps)
	copy(times, runs[0].Time)

	return &Series{Width: avgWidth, MeanHeight: avgMean, Time: times}, nil
}

func checkConsistency(runs []*Series, steps int) error {
	ref := runs[0]
	for i, r := range runs {
		if r == nil {
			return &ConsistencyError{Realization: i, Got: 0, Want: steps, Reason: "missing series"}
		}
		if len(r.Width) != steps || len(r.MeanHeight) != steps || len(r.Time) != steps {
			return &ConsistencyError{Realization: i, Got: r.Len(), Want: steps, Reason: "series length mismatch"}
		}
		for j := range r.Time {
			if r.Time[j] != ref.Time[j] {
				return &ConsistencyError{Realization: i, Got: j, Want: j, Reason: "time axis differs from realization 0"}
			}
		}
	}
	return nil
}
