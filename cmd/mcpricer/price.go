package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wyfcoding/mcpricer/config"
	"github.com/wyfcoding/mcpricer/logging"
	"github.com/wyfcoding/mcpricer/metrics"
	"github.com/wyfcoding/mcpricer/pricing"
	"github.com/wyfcoding/mcpricer/tracing"
)

type priceFlags struct {
	variants     []string
	seed         uint64
	paths        int
	steps        int
	workers      int
	callStrike   float64
	putStrike    float64
	histogramDir string
	truncate     bool
	verbose      bool
	jsonOut      bool
}

func newPriceCmd(confPath *string) *cobra.Command {
	f := &priceFlags{}
	cmd := &cobra.Command{
		Use:   "price",
		Short: "Run one simulation and price the selected option variants",
		Example: `  mcpricer price
  mcpricer price --variants lookback_call,lookback_put --paths 50000 --histogram-dir ./out
  mcpricer price --variants european_call --call-strike 105 --truncate`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var cfg config.Config
			if err := config.Load(*confPath, &cfg); err != nil {
				return err
			}
			f.apply(cmd, &cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runPrice(ctx, cmd, &cfg, f)
		},
	}

	fl := cmd.Flags()
	fl.StringSliceVar(&f.variants, "variants", nil, "comma separated option variants (see `mcpricer variants`)")
	fl.Uint64Var(&f.seed, "seed", 0, "random seed (default from config, 42)")
	fl.IntVar(&f.paths, "paths", 0, "number of simulated paths")
	fl.IntVar(&f.steps, "steps", 0, "number of time steps per path")
	fl.IntVar(&f.workers, "workers", 0, "parallel simulation workers (0 = GOMAXPROCS)")
	fl.Float64Var(&f.callStrike, "call-strike", 0, "strike of the european call")
	fl.Float64Var(&f.putStrike, "put-strike", 0, "strike of the european put")
	fl.StringVar(&f.histogramDir, "histogram-dir", "", "write payoff histogram PNGs into this directory")
	fl.BoolVar(&f.truncate, "truncate", false, "truncate prices to engine.truncate_places decimals")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "print standard error and confidence interval per variant")
	fl.BoolVar(&f.jsonOut, "json", false, "print the full result as JSON instead of price lines")
	return cmd
}

// apply 只覆盖显式传入的命令行参数。
func (f *priceFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("variants") {
		cfg.Options.Variants = f.variants
	}
	if changed("seed") {
		cfg.Engine.Seed = f.seed
	}
	if changed("paths") {
		cfg.Simulation.Paths = f.paths
	}
	if changed("steps") {
		cfg.Simulation.Steps = f.steps
	}
	if changed("workers") {
		cfg.Engine.Workers = f.workers
	}
	if changed("call-strike") {
		cfg.Options.CallStrike = f.callStrike
	}
	if changed("put-strike") {
		cfg.Options.PutStrike = f.putStrike
	}
	if changed("histogram-dir") {
		cfg.Report.HistogramDir = f.histogramDir
	}
	if changed("truncate") {
		cfg.Engine.Truncate = f.truncate
	}
	if f.jsonOut {
		cfg.Report.Text = false
	}
}

func runPrice(ctx context.Context, cmd *cobra.Command, cfg *config.Config, f *priceFlags) (err error) {
	logger := logging.NewFromConfig(logging.Config{
		Service: serviceName,
		Module:  "cli",
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		File:    cfg.Log.File,
		Output:  cmd.ErrOrStderr(),
	}).Logger
	slog.SetDefault(logger)

	shutdown, err := tracing.InitTracer(cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() { _ = shutdown(context.WithoutCancel(ctx)) }()

	specs, err := cfg.Options.Specs()
	if err != nil {
		return err
	}

	m := metrics.NewMetrics(serviceName)
	sinks, err := buildSinks(cfg, cmd.OutOrStdout(), f.verbose, m, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sinks.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if err := sinks.ensureBucket(ctx); err != nil {
		return err
	}

	engine := newEngine(cfg, sinks.multi, m, logger)
	res, err := engine.Run(ctx, pricing.Request{
		Config: cfg.Simulation.ToSimulationConfig(),
		Seed:   cfg.Engine.Seed,
		Specs:  specs,
	})
	if err != nil {
		return err
	}

	if f.jsonOut {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	if f.verbose {
		st := res.Statistics
		fmt.Fprintf(cmd.OutOrStdout(), "Terminal price: mean=%.4f sd=%.4f min=%.4f max=%.4f (paths=%d, seed=%d, %s)\n",
			st.Mean, st.StdDev, st.Min, st.Max, st.Count, res.Seed, res.Duration)
	}
	return nil
}
