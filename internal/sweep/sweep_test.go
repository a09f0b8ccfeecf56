package sweep_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/bdsim/internal/config"
	"github.com/san-kum/bdsim/internal/sim"
	"github.com/san-kum/bdsim/internal/storage"
	"github.com/san-kum/bdsim/internal/sweep"
)

type failingSink struct{}

func (failingSink) Save(*sim.EnsembleResult) (string, error) {
	return "", storage.ErrIO
}

type recorder struct {
	started  []sim.Config
	finished []sweep.Outcome
}

func (r *recorder) OnStart(_, _ int, cfg sim.Config)     { r.started = append(r.started, cfg) }
func (r *recorder) OnFinish(_, _ int, out sweep.Outcome) { r.finished = append(r.finished, out) }

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func params(lengths, ks, seeds config.List) *config.Params {
	p := config.DefaultParams()
	p.Simulation.SubstrateLengths = lengths
	p.Simulation.KNeighbours = ks
	p.Simulation.Seeds = seeds
	p.Options.PeriodicBC = true
	p.Options.InitSeed = 0
	return p
}

var _ = Describe("Sweep", func() {
	var dir string

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "bdsim-sweep")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(os.RemoveAll, dir)
	})

	Describe("Combinations", func() {
		It("walks the Cartesian product with lengths varying slowest", func() {
			s := sweep.New(params(config.List{8, 16}, config.List{0, 1}, config.List{2}), config.DefaultHorizons, storage.New(dir))

			Expect(s.Combinations()).To(Equal([]sweep.Combination{
				{Length: 8, KNeighbour: 0, SeedCount: 2},
				{Length: 8, KNeighbour: 1, SeedCount: 2},
				{Length: 16, KNeighbour: 0, SeedCount: 2},
				{Length: 16, KNeighbour: 1, SeedCount: 2},
			}))
		})

		It("takes max time from the horizon table", func() {
			s := sweep.New(params(config.List{1024}, config.List{1}, config.List{1}), config.DefaultHorizons, storage.New(dir))

			cfgs, err := s.Configs()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfgs).To(HaveLen(1))
			Expect(cfgs[0].MaxTime).To(BeEquivalentTo(100_000))
			Expect(cfgs[0].Periodic).To(BeTrue())
		})

		It("rejects lengths without a horizon", func() {
			s := sweep.New(params(config.List{24}, config.List{1}, config.List{1}), config.DefaultHorizons, storage.New(dir))

			_, err := s.Configs()
			Expect(err).To(MatchError(config.ErrConfig))
		})

		It("rejects k not below the length", func() {
			s := sweep.New(params(config.List{8}, config.List{8}, config.List{1}), config.DefaultHorizons, storage.New(dir))

			_, err := s.Configs()
			Expect(errors.Is(err, config.ErrConfig)).To(BeTrue())
			Expect(errors.Is(err, sim.ErrInvalidConfig)).To(BeTrue())
		})

		It("rejects zero seed counts from malformed list entries", func() {
			s := sweep.New(params(config.List{8}, config.List{1}, config.ParseList("four")), config.DefaultHorizons, storage.New(dir))

			_, err := s.Configs()
			Expect(err).To(MatchError(sim.ErrInvalidConfig))
		})
	})

	Describe("Run", func() {
		It("writes one averaged file per combination", func() {
			p := params(config.List{8}, config.List{1}, config.List{4})
			rec := &recorder{}
			st := storage.New(filepath.Join(dir, "data"))

			outcomes, err := sweep.New(p, config.DefaultHorizons, st,
				sweep.WithLogger(quiet),
				sweep.WithWorkers(2),
				sweep.WithProgress(rec),
			).Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(outcomes).To(HaveLen(1))
			Expect(rec.started).To(HaveLen(1))
			Expect(rec.finished).To(HaveLen(1))

			Expect(filepath.Base(outcomes[0].Path)).To(Equal("L8_k1_seeds4_pbc1_iseed0.csv"))

			steps := sim.Schedule{Length: 8, MaxTime: 10_000}.Steps()
			Expect(outcomes[0].Samples).To(Equal(steps))

			series, err := st.Load("L8_k1_seeds4_pbc1_iseed0.csv")
			Expect(err).NotTo(HaveOccurred())
			Expect(series.Len()).To(Equal(steps))

			for i := 0; i < series.Len(); i++ {
				for _, v := range []float64{series.Width[i], series.MeanHeight[i], series.Time[i]} {
					Expect(math.IsInf(v, 0) || math.IsNaN(v)).To(BeFalse())
					Expect(v).To(BeNumerically(">=", 0))
				}
				if i > 0 {
					Expect(series.Time[i]).To(BeNumerically(">", series.Time[i-1]))
				}
			}
		})

		It("counts every realization through the observer", func() {
			p := params(config.List{8}, config.List{0}, config.List{3})
			p.Options.MaxTime = 20
			done := 0

			_, err := sweep.New(p, config.DefaultHorizons, storage.New(dir),
				sweep.WithLogger(quiet),
				sweep.WithWorkers(1),
				sweep.WithObserver(sim.ObserverFunc(func(_ sim.Config, _, _, _ int) { done++ })),
			).Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(done).To(Equal(3))
		})

		It("stops at the first sink failure", func() {
			p := params(config.List{8, 16}, config.List{1}, config.List{1})
			p.Options.MaxTime = 5

			outcomes, err := sweep.New(p, config.DefaultHorizons, failingSink{}, sweep.WithLogger(quiet)).Run(context.Background())
			Expect(err).To(MatchError(storage.ErrIO))
			Expect(outcomes).To(BeEmpty())
		})
	})
})
