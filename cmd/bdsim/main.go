package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/bdsim/internal/analysis"
	"github.com/san-kum/bdsim/internal/config"
	"github.com/san-kum/bdsim/internal/export"
	"github.com/san-kum/bdsim/internal/sim"
	"github.com/san-kum/bdsim/internal/stats"
	"github.com/san-kum/bdsim/internal/storage"
	"github.com/san-kum/bdsim/internal/sweep"
	"github.com/san-kum/bdsim/internal/tui"
	"github.com/san-kum/bdsim/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir string
	verbose bool
	// run
	workers int
	useTUI  bool
	// schedule / watch
	maxTime uint32
	// plot
	skip    int
	logLog  bool
	svgPath string
	// watch
	kNeighbour uint32
	periodic   bool
	initSeed   uint32
	frameRate  int
)

// main registers the bdsim commands and exits with status 2 on an ensemble
// consistency failure and 1 on any other error.
func main() {
	rootCmd := &cobra.Command{
		Use:           "bdsim",
		Short:         "ballistic deposition ensemble simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(verbose)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "output directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run [config]",
		Short: "run every parameter combination of a config file",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	runCmd.Flags().IntVar(&workers, "workers", 0, "concurrent realizations (0 = all cpus)")
	runCmd.Flags().BoolVar(&useTUI, "tui", false, "show a progress view")

	scheduleCmd := &cobra.Command{
		Use:   "schedule [length]",
		Short: "print the sampling schedule of a substrate length",
		Args:  cobra.ExactArgs(1),
		RunE:  printSchedule,
	}
	scheduleCmd.Flags().Uint32Var(&maxTime, "time", 0, "time horizon (default from horizon table)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list result files",
		RunE:  listResults,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [file]",
		Short: "plot a result file",
		Args:  cobra.ExactArgs(1),
		RunE:  plotResult,
	}
	plotCmd.Flags().IntVar(&skip, "skip", 0, "row stride (default from horizon table)")
	plotCmd.Flags().BoolVar(&logLog, "loglog", false, "log-log axes")
	plotCmd.Flags().StringVar(&svgPath, "svg", "", "also write an svg chart to this path")

	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "estimate scaling exponents from stored results",
		RunE:  analyzeResults,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [file]",
		Short: "export a result file to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	watchCmd := &cobra.Command{
		Use:   "watch [length]",
		Short: "watch a single realization grow",
		Args:  cobra.ExactArgs(1),
		RunE:  watchRealization,
	}
	watchCmd.Flags().Uint32VarP(&kNeighbour, "k", "k", 1, "neighbours on each side")
	watchCmd.Flags().BoolVar(&periodic, "pbc", true, "periodic boundary")
	watchCmd.Flags().Uint32Var(&maxTime, "time", 0, "time horizon (default from horizon table)")
	watchCmd.Flags().Uint32Var(&initSeed, "seed", 0, "base seed")
	watchCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write a template config (.ini or .yaml)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  writeTemplate,
	}

	rootCmd.AddCommand(runCmd, scheduleCmd, listCmd, plotCmd, analyzeCmd, exportJSONCmd, watchCmd, initCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, viz.Bad.Render("error: ")+err.Error())
		if errors.Is(err, sim.ErrConsistency) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func runSweep(cmd *cobra.Command, args []string) error {
	path := config.DefaultPath
	if len(args) > 0 {
		path = args[0]
	}

	params, err := config.Load(path)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("workers") {
		params.Options.Workers = workers
	}
	dir := params.Options.DataDir
	if cmd.Flags().Changed("data") || dir == "" {
		dir = dataDir
	}

	st := storage.New(dir)
	if err := st.Init(); err != nil {
		return err
	}

	slog.Info("loaded config",
		"path", path,
		"lengths", params.Simulation.SubstrateLengths.String(),
		"k", params.Simulation.KNeighbours.String(),
		"seeds", params.Simulation.Seeds.String(),
		"periodic", bool(params.Options.PeriodicBC),
		"data", st.Dir(),
	)

	horizons := params.HorizonTable()

	var outcomes []sweep.Outcome
	if useTUI {
		quiet := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
		outcomes, err = tui.Run(cmd.Context(), params, horizons, st, sweep.WithLogger(quiet))
	} else {
		outcomes, err = sweep.New(params, horizons, st).Run(cmd.Context())
	}
	if err != nil {
		return err
	}

	for _, out := range outcomes {
		fmt.Println(out.Path)
	}
	return nil
}

func parseLength(s string) (uint32, error) {
	l, err := strconv.ParseUint(s, 10, 32)
	if err != nil || l == 0 {
		return 0, fmt.Errorf("invalid substrate length %q", s)
	}
	return uint32(l), nil
}

func horizonFor(cmd *cobra.Command, length uint32) (uint32, error) {
	if cmd.Flags().Changed("time") {
		return maxTime, nil
	}
	p := config.DefaultParams()
	return p.MaxTimeFor(config.DefaultHorizons, length)
}

func printSchedule(cmd *cobra.Command, args []string) error {
	length, err := parseLength(args[0])
	if err != nil {
		return err
	}
	horizon, err := horizonFor(cmd, length)
	if err != nil {
		return err
	}

	s := sim.Schedule{Length: int(length), MaxTime: float64(horizon)}
	times := s.Times()

	fmt.Println(viz.Row("length", strconv.FormatUint(uint64(length), 10)))
	fmt.Println(viz.Row("max time", strconv.FormatUint(uint64(horizon), 10)))
	fmt.Println(viz.Row("samples", strconv.Itoa(len(times))))
	if len(times) > 0 {
		fmt.Println(viz.Row("first", strconv.FormatFloat(times[0], 'f', -1, 64)))
		fmt.Println(viz.Row("last", strconv.FormatFloat(times[len(times)-1], 'f', -1, 64)))
	}
	if h, ok := config.DefaultHorizons.Lookup(length); ok {
		fmt.Println(viz.Row("skip", strconv.FormatUint(uint64(h.Skip), 10)))
	}
	return nil
}

func listResults(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	entries, err := st.List()
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Println("no results found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FILE\tL\tK\tSEEDS\tPBC\tISEED\tMODIFIED\tSIZE")

	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%t\t%d\t%s\t%d\n",
			e.Name,
			e.Key.Length,
			e.Key.KNeighbour,
			e.Key.SeedCount,
			e.Key.Periodic,
			e.Key.InitSeed,
			e.ModTime.Format("2006-01-02 15:04:05"),
			e.Size,
		)
	}

	return w.Flush()
}

func loadResult(name string) (storage.Key, *sim.Series, error) {
	key, ok := storage.ParseFileName(filepath.Base(name))
	if !ok {
		return storage.Key{}, nil, fmt.Errorf("%w: unrecognised result file name %q", storage.ErrIO, name)
	}
	series, err := storage.New(dataDir).Load(name)
	if err != nil {
		return storage.Key{}, nil, err
	}
	return key, series, nil
}

func plotResult(cmd *cobra.Command, args []string) error {
	key, series, err := loadResult(args[0])
	if err != nil {
		return err
	}

	opts := viz.DefaultPlotOptions()
	opts.LogLog = logLog
	opts.Skip = skip
	if !cmd.Flags().Changed("skip") {
		if h, ok := config.DefaultHorizons.Lookup(key.Length); ok {
			opts.Skip = int(h.Skip)
		}
		// the horizon strides count raw rows of long runs; fall back to
		// every row when that would leave too few points.
		if series.Len()/max(opts.Skip, 1) < 16 {
			opts.Skip = 1
		}
	}

	fmt.Println(viz.Title.Render(key.FileName()))
	fmt.Println()
	fmt.Print(viz.PlotSeries(series, opts))

	if svgPath != "" {
		f, err := os.Create(svgPath)
		if err != nil {
			return fmt.Errorf("%w: %w", storage.ErrIO, err)
		}
		defer f.Close()
		chart := export.DefaultChartOptions()
		chart.LogLog = logLog
		if err := export.WriteChart(f, series, key.FileName(), chart); err != nil {
			return fmt.Errorf("%w: %w", storage.ErrIO, err)
		}
		fmt.Println("wrote", svgPath)
	}
	return nil
}

// ensembleGroup identifies results that differ only in substrate length.
type ensembleGroup struct {
	k, seeds, initSeed uint32
	periodic           bool
}

func analyzeResults(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	entries, err := st.List()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("no results found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FILE\tBETA\tW_SAT\tT_X")

	var order []ensembleGroup
	groups := map[ensembleGroup][]analysis.SizePoint{}
	betas := map[ensembleGroup][]float64{}

	for _, e := range entries {
		series, err := st.Load(e.Name)
		if err != nil {
			return err
		}
		s := analysis.Summarize(series)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Name,
			optional(s.Beta, s.HasBeta, 3),
			optional(s.WSat, s.HasWSat, 4),
			optional(s.Crossover, s.HasCrossover, 1),
		)

		g := ensembleGroup{k: e.Key.KNeighbour, seeds: e.Key.SeedCount, initSeed: e.Key.InitSeed, periodic: e.Key.Periodic}
		if _, seen := groups[g]; !seen {
			order = append(order, g)
		}
		if s.HasWSat {
			groups[g] = append(groups[g], analysis.SizePoint{Length: e.Key.Length, WSat: s.WSat})
		}
		if s.HasBeta {
			betas[g] = append(betas[g], s.Beta)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println()
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "K\tSEEDS\tPBC\tISEED\tLENGTHS\tALPHA\tBETA\tZ")
	for _, g := range order {
		alpha, hasAlpha := analysis.RoughnessExponent(groups[g])
		beta, hasBeta := stats.Mean(betas[g])
		z, hasZ := 0.0, false
		if hasAlpha && hasBeta {
			z, hasZ = analysis.DynamicExponent(alpha, beta)
		}
		fmt.Fprintf(w, "%d\t%d\t%t\t%d\t%d\t%s\t%s\t%s\n",
			g.k, g.seeds, g.periodic, g.initSeed, len(groups[g]),
			optional(alpha, hasAlpha, 3),
			optional(beta, hasBeta, 3),
			optional(z, hasZ, 3),
		)
	}
	return w.Flush()
}

func optional(v float64, ok bool, prec int) string {
	if !ok {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', prec, 64)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	key, series, err := loadResult(args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSONStdout(key, series)
}

func watchRealization(cmd *cobra.Command, args []string) error {
	length, err := parseLength(args[0])
	if err != nil {
		return err
	}
	horizon, err := horizonFor(cmd, length)
	if err != nil {
		return err
	}

	cfg := sim.Config{
		Length:     length,
		MaxTime:    horizon,
		KNeighbour: kNeighbour,
		SeedCount:  1,
		Periodic:   periodic,
		BaseSeed:   initSeed,
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	p := tea.NewProgram(viz.NewModel(cfg, 0, frameRate), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

func writeTemplate(cmd *cobra.Command, args []string) error {
	path := config.DefaultPath
	if len(args) > 0 {
		path = args[0]
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	p := config.DefaultParams()
	if err := config.Save(path, p); err != nil {
		return err
	}
	fmt.Println("wrote", path)
	return nil
}
