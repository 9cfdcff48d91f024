package cmd

import (
	"fmt"
	"strings"
	"time"

	"microbench/bench"
	"microbench/config"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type runOptions struct {
	name          string
	workloads     []string
	size          int
	times         int
	warmup        int
	order         string
	unit          string
	format        string
	seed          int64
	runs          int
	cooldown      time.Duration
	store         string
	storeFile     string
	save          bool
	compare       bool
	threshold     float64
	failThreshold float64
}

// loadConfig allows mocking in tests.
var loadConfig = config.LoadEnv

func newRunCmd() *cobra.Command {
	defaults := bench.DefaultParams()
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run [suite.yaml]",
		Short: "Run a benchmark suite and print summary statistics",
		Long: `Runs every candidate of a suite the requested number of times and prints
min, lq, mean, median, uq and max per candidate.

Candidates come from a YAML suite file or from --workload flags naming
built-in workloads ("group" or "group/label", see 'microbench list').`,
		Example: `  microbench run --workload square --workload call --times 200 --unit us
  microbench run suites/sql.yaml --save --compare --store postgres`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuite(cmd, args, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.name, "name", "", "Suite name used when saving results (defaults to the file or workload names)")
	f.StringSliceVarP(&opts.workloads, "workload", "w", nil, "Built-in workload to run, repeatable")
	f.IntVar(&opts.size, "size", 0, "Input size for built-in workloads")
	f.IntVarP(&opts.times, "times", "n", defaults.Times, "Measured executions per candidate")
	f.IntVar(&opts.warmup, "warmup", defaults.Warmup, "Unmeasured executions per candidate")
	f.StringVar(&opts.order, "order", string(defaults.Order), "Execution order: random, inorder or block")
	f.StringVarP(&opts.unit, "unit", "u", "", "Display unit: ns, us, ms, s, eps, relative or auto")
	f.StringVarP(&opts.format, "format", "o", string(bench.FormatTable), "Output format: table, json or csv")
	f.Int64Var(&opts.seed, "seed", 0, "Seed for random order (0 = random seed)")
	f.IntVar(&opts.runs, "runs", 1, "Repeat the whole benchmark and report the median run")
	f.DurationVar(&opts.cooldown, "cooldown", defaults.Cooldown, "Pause between repeated runs")
	f.StringVar(&opts.store, "store", storeFile, "Result store: file, postgres or mysql")
	f.StringVar(&opts.storeFile, "store-file", "", "Path of the file store (overrides MICROBENCH_STORE_FILE)")
	f.BoolVar(&opts.save, "save", false, "Save results to the store")
	f.BoolVar(&opts.compare, "compare", false, "Compare with the latest saved run of the same suite")
	f.Float64Var(&opts.threshold, "threshold", 10.0, "Percentage change highlighted in comparisons")
	f.Float64Var(&opts.failThreshold, "fail-threshold", 0, "Fail when a median slows down by more than this percentage (0 = never)")

	return cmd
}

func runSuite(cmd *cobra.Command, args []string, opts *runOptions) error {
	ctx := cmd.Context()
	log := Logger.WithField("command", "run")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if opts.storeFile != "" {
		cfg.StoreFile = opts.storeFile
	}

	suite, err := buildSuite(args, opts)
	if err != nil {
		return err
	}
	params, unit, format, err := resolveSettings(cmd, suite, opts)
	if err != nil {
		return err
	}

	res := newResolver(ctx, cfg, Logger, params.Seed)
	defer res.Close()

	candidates, err := res.resolve(suite)
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"suite":      suite.Name,
		"candidates": len(candidates),
		"times":      params.Times,
		"order":      params.Order,
	}).Info("Running benchmark")

	runner := bench.NewRunner(Logger)
	result, err := runner.RunMultiple(candidates, params)
	if err != nil {
		return fmt.Errorf("benchmark aborted: %w", err)
	}

	run := bench.NewRun(suite.Name, params, result)
	report := bench.Report{Title: suite.Name, Summaries: run.Summaries, Unit: unit, Threshold: opts.threshold}
	printer := bench.NewPrinter(cmd.OutOrStdout(), format)

	// Status lines stay out of machine-readable output.
	notice := func(msg string) {
		if format == bench.FormatTable {
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return
		}
		log.Info(msg)
	}

	if !opts.save && !opts.compare {
		return printer.PrintReport(report)
	}

	store, err := newStoreFunc(ctx, opts.store, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	var (
		regressions []bench.Comparison
		noPrevious  bool
	)
	if opts.compare {
		prev, err := store.LoadLatest(ctx, suite.Name)
		if err != nil {
			log.WithError(err).Warn("Failed to load previous run")
		} else if prev == nil {
			noPrevious = true
		} else {
			report.Comparison = bench.Compare(*prev, run)
			if opts.failThreshold > 0 {
				regressions = bench.Regressions(report.Comparison, opts.failThreshold)
			}
		}
	}

	if err := printer.PrintReport(report); err != nil {
		return err
	}
	if noPrevious {
		notice("No previous run to compare with.")
	}

	if opts.save {
		if err := store.Save(ctx, run); err != nil {
			return fmt.Errorf("failed to save results: %w", err)
		}
		notice(fmt.Sprintf("Results saved to %s store", opts.store))
	}

	if len(regressions) > 0 {
		msgs := make([]string, len(regressions))
		for i, r := range regressions {
			msgs[i] = fmt.Sprintf("%s %.2f%% slower", r.Label, r.MedianDiff)
		}
		return fmt.Errorf("performance regression detected: %s", strings.Join(msgs, ", "))
	}
	return nil
}

func buildSuite(args []string, opts *runOptions) (*config.Suite, error) {
	var suite *config.Suite
	switch {
	case len(args) == 1:
		s, err := config.LoadSuite(args[0])
		if err != nil {
			return nil, err
		}
		suite = s
	case len(opts.workloads) > 0:
		suite = &config.Suite{Name: strings.Join(opts.workloads, "+")}
		for _, w := range opts.workloads {
			suite.Candidates = append(suite.Candidates, config.CandidateSpec{Workload: w})
		}
	default:
		return nil, fmt.Errorf("nothing to run: pass a suite file or at least one --workload")
	}

	if opts.name != "" {
		suite.Name = opts.name
	}
	if opts.size > 0 {
		suite.Size = opts.size
	}
	return suite, nil
}

// resolveSettings merges defaults, suite values and explicitly set flags, in
// that order of precedence.
func resolveSettings(cmd *cobra.Command, suite *config.Suite, opts *runOptions) (bench.BenchParams, bench.Unit, bench.Format, error) {
	params := suite.Params(bench.DefaultParams())
	flags := cmd.Flags()
	if flags.Changed("times") {
		params.Times = opts.times
	}
	if flags.Changed("warmup") {
		params.Warmup = opts.warmup
	}
	if flags.Changed("order") {
		params.Order = bench.Order(opts.order)
	}
	if flags.Changed("seed") {
		params.Seed = opts.seed
	}
	if flags.Changed("runs") {
		params.Runs = opts.runs
	}
	params.Cooldown = opts.cooldown

	order, err := bench.ParseOrder(string(params.Order))
	if err != nil {
		return params, "", "", err
	}
	params.Order = order

	unitName := suite.Unit
	if flags.Changed("unit") {
		unitName = opts.unit
	}
	unit, err := bench.ParseUnit(unitName)
	if err != nil {
		return params, "", "", err
	}

	format, err := bench.ParseFormat(opts.format)
	if err != nil {
		return params, "", "", err
	}
	return params, unit, format, nil
}
