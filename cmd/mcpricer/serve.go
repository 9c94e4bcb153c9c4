package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/wyfcoding/mcpricer/api"
	"github.com/wyfcoding/mcpricer/app"
	"github.com/wyfcoding/mcpricer/cache"
	"github.com/wyfcoding/mcpricer/config"
	"github.com/wyfcoding/mcpricer/limiter"
	"github.com/wyfcoding/mcpricer/metrics"
	"github.com/wyfcoding/mcpricer/storage"
)

func newServeCmd(confPath *string) *cobra.Command {
	var metricsPort string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP pricing service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var cfg config.Config
			if err := config.Load(*confPath, &cfg); err != nil {
				return err
			}

			svc := &pricingService{}
			b := app.NewBuilder(serviceName).
				WithConfig(&cfg).
				WithConfigPath(*confPath).
				WithService(svc.init).
				WithGin(registerGin).
				WithHealthChecker(svc.health).
				WithOption(app.WithHook(app.Hook{
					Name:    "report-sinks",
					OnStart: func(ctx context.Context) error { return svc.sinks.ensureBucket(ctx) },
					OnStop:  func(context.Context) error { return svc.sinks.Close() },
				}))
			if metricsPort != "" {
				b.WithMetrics(metricsPort)
			}

			a, err := b.Build()
			if err != nil {
				return err
			}
			return a.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&metricsPort, "metrics-port", "", "expose /metrics on a dedicated port instead of the API listener")
	return cmd
}

// pricingService 定价服务运行期依赖。
type pricingService struct {
	handler *api.Handler
	sinks   *sinkSet
	results *cache.BigCache
}

func (s *pricingService) init(cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) (any, func(), error) {
	defaults, err := api.DefaultsFromConfig(cfg)
	if err != nil {
		return nil, nil, err
	}

	// 服务端不输出文本报告
	s.sinks, err = buildSinks(cfg, nil, false, m, logger)
	if err != nil {
		return nil, nil, err
	}
	storage.RegisterReloadHook(s.sinks.minio)

	opts := []api.Option{
		api.WithLogger(logger),
		api.WithConcurrencyLimiter(limiter.NewSemaphoreLimiter(cfg.RateLimit.MaxConcurrent), cfg.RateLimit.WaitTimeout),
	}
	if cfg.Cache.Enabled {
		s.results, err = cache.NewBigCache(cfg.Cache)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, api.WithResultCache(cache.NewResultCache(s.results, m, logger)))
	}

	s.handler = api.NewHandler(newEngine(cfg, s.sinks.multi, m, logger), defaults, opts...)

	config.RegisterReloadHook(func(updated *config.Config) {
		d, err := api.DefaultsFromConfig(updated)
		if err != nil {
			logger.Error("reloaded pricing defaults rejected", "error", err)
			return
		}
		s.handler.SetDefaults(d)
		logger.Info("pricing defaults reloaded", "paths", d.Simulation.Paths, "variants", len(d.Specs))
	})

	cleanup := func() {
		if s.results != nil {
			_ = s.results.Close()
		}
	}
	return s.handler, cleanup, nil
}

func (s *pricingService) health() error {
	if s.handler == nil {
		return errors.New("pricing handler not initialized")
	}
	return nil
}

func registerGin(e *gin.Engine, svc any) {
	h := svc.(*api.Handler)
	h.Register(e)
	e.NoRoute(api.NotFound)
	slog.Default().Info("HTTP routes registered", "service", serviceName)
}
