package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/mcpricer/config"
	"github.com/wyfcoding/mcpricer/logging"
	"github.com/wyfcoding/mcpricer/metrics"
	"github.com/wyfcoding/mcpricer/middleware"
	"github.com/wyfcoding/mcpricer/response"
	"github.com/wyfcoding/mcpricer/server"
	"github.com/wyfcoding/mcpricer/tracing"
)

const (
	defaultMetricsPath = "/metrics"
	healthPath         = "/sys/health"
)

// ServiceFactory 根据配置组装业务服务，返回服务实例与清理函数.
type ServiceFactory func(cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) (svc any, cleanup func(), err error)

// RouteRegistrar 在 Gin 引擎上注册业务路由.
type RouteRegistrar func(engine *gin.Engine, svc any)

// Builder 提供了构建 App 的灵活方式.
type Builder struct {
	serviceName    string
	configPath     string
	conf           *config.Config
	initService    ServiceFactory
	registerGin    RouteRegistrar
	metricsPort    string
	watchConfig    bool
	appOpts        []Option
	healthCheckers []func() error
	ginMiddleware  []gin.HandlerFunc

	metrics *metrics.Metrics
	engine  *gin.Engine
}

// NewBuilder 创建一个新的应用构建器.
func NewBuilder(serviceName string) *Builder {
	return &Builder{serviceName: serviceName}
}

// WithConfigPath 设置 TOML 配置文件路径，Build 时加载并监听变更.
func (b *Builder) WithConfigPath(path string) *Builder {
	b.configPath = path
	b.watchConfig = path != ""
	return b
}

// WithConfig 使用已经加载好的配置，Build 不再读取文件.
func (b *Builder) WithConfig(conf *config.Config) *Builder {
	b.conf = conf
	return b
}

// WithService 注册核心业务初始化逻辑.
func (b *Builder) WithService(init ServiceFactory) *Builder {
	b.initService = init
	return b
}

// WithGin 注册 Gin 路由注册钩子.
func (b *Builder) WithGin(register RouteRegistrar) *Builder {
	b.registerGin = register
	return b
}

// WithMetrics 在独立端口暴露指标.
func (b *Builder) WithMetrics(port string) *Builder {
	b.metricsPort = port
	return b
}

// WithHealthChecker 添加自定义健康检查.
func (b *Builder) WithHealthChecker(checker func() error) *Builder {
	b.healthCheckers = append(b.healthCheckers, checker)
	return b
}

// WithGinMiddleware 追加业务中间件，位于内置治理中间件之后.
func (b *Builder) WithGinMiddleware(mw ...gin.HandlerFunc) *Builder {
	b.ginMiddleware = append(b.ginMiddleware, mw...)
	return b
}

// WithOption 透传 App 选项，例如生命周期钩子.
func (b *Builder) WithOption(opts ...Option) *Builder {
	b.appOpts = append(b.appOpts, opts...)
	return b
}

// Engine 返回 Build 组装的 Gin 引擎，主要用于测试.
func (b *Builder) Engine() *gin.Engine { return b.engine }

// Metrics 返回 Build 创建的指标采集器.
func (b *Builder) Metrics() *metrics.Metrics { return b.metrics }

// Build 构建并组装完整的 App 实例.
func (b *Builder) Build() (*App, error) {
	if b.initService == nil || b.registerGin == nil {
		return nil, errors.New("app: service factory and gin registrar are required")
	}

	cfg, err := b.loadConfig()
	if err != nil {
		return nil, err
	}
	logger := b.initLogger(cfg)
	config.PrintWithMask(cfg)

	if err := b.initTracing(cfg, logger); err != nil {
		return nil, err
	}

	b.metrics = b.initMetrics(cfg)

	svc, cleanup, err := b.initService(cfg, b.metrics, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize service: %w", err)
	}
	b.appOpts = append(b.appOpts, WithCleanup(cleanup))

	b.engine = server.NewDefaultGinEngine(b.middlewareChain(cfg, logger)...)
	b.registerGin(b.engine, svc)

	srv := server.NewGinServerFromConfig(b.engine, cfg.Server.HTTP, logger)
	b.appOpts = append(b.appOpts, WithServer(srv))
	for _, checker := range b.healthCheckers {
		b.appOpts = append(b.appOpts, WithHealthChecker(checker))
	}

	if b.watchConfig {
		config.WatchConfig(cfg)
	}

	a := New(b.serviceName, logger, b.appOpts...)
	b.registerAdminRoutes(cfg, a)
	return a, nil
}

func (b *Builder) loadConfig() (*config.Config, error) {
	if b.conf != nil {
		return b.conf, nil
	}
	cfg := &config.Config{}
	if err := config.Load(b.configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	b.conf = cfg
	return cfg, nil
}

func (b *Builder) initLogger(cfg *config.Config) *slog.Logger {
	l := logging.NewFromConfig(logging.Config{
		Service:    b.serviceName,
		Module:     "app",
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})
	slog.SetDefault(l.Logger)
	return l.Logger
}

func (b *Builder) initTracing(cfg *config.Config, logger *slog.Logger) error {
	tcfg := cfg.Tracing
	if tcfg.ServiceName == "" {
		tcfg.ServiceName = b.serviceName
	}
	shutdown, err := tracing.InitTracer(tcfg)
	if err != nil {
		return err
	}
	b.appOpts = append(b.appOpts, WithCleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(ctx); err != nil {
			logger.Error("failed to shutdown tracer", "error", err)
		}
	}))
	return nil
}

func (b *Builder) initMetrics(cfg *config.Config) *metrics.Metrics {
	m := metrics.NewMetrics(b.serviceName)
	m.RegisterBuildInfo(b.serviceName, cfg.Version)

	if b.metricsPort != "" {
		b.appOpts = append(b.appOpts, WithCleanup(m.ExposeHTTP(b.metricsPort)))
	}
	return m
}

// middlewareChain 顺序: 恢复、请求 ID、追踪、访问日志、指标、请求体上限、超时、限流，最后是业务中间件.
func (b *Builder) middlewareChain(cfg *config.Config, logger *slog.Logger) []gin.HandlerFunc {
	metricsPath := cfg.Metrics.Path
	if metricsPath == "" {
		metricsPath = defaultMetricsPath
	}

	chain := []gin.HandlerFunc{
		middleware.Recovery(logger),
		middleware.RequestID(),
	}
	if cfg.Tracing.Enabled {
		chain = append(chain, middleware.TracingMiddleware(b.serviceName))
	}
	chain = append(chain,
		middleware.Logger(logger, healthPath, metricsPath),
		middleware.HTTPMetricsMiddlewareWithOptions(b.metrics, middleware.MetricsOptions{SkipPaths: []string{healthPath, metricsPath}}),
		middleware.MaxBodyBytes(cfg.Server.HTTP.MaxBodyBytes),
		middleware.TimeoutMiddleware(cfg.Server.HTTP.Timeout),
	)
	if rl := cfg.RateLimit; rl.Enabled && rl.Rate > 0 {
		chain = append(chain, middleware.NewClientRateLimitMiddleware(float64(rl.Rate), rl.Burst, 10*time.Minute))
	}
	return append(chain, b.ginMiddleware...)
}

func (b *Builder) registerAdminRoutes(cfg *config.Config, a *App) {
	b.engine.GET(healthPath, func(c *gin.Context) {
		if err := a.Health(); err != nil {
			response.ErrorWithStatus(c, http.StatusServiceUnavailable, "DOWN", err.Error())
			return
		}
		response.Success(c, gin.H{
			"status":    "UP",
			"service":   b.serviceName,
			"version":   cfg.Version,
			"timestamp": time.Now().Unix(),
		})
	})

	// 配置了独立端口时指标只在该端口暴露
	if cfg.Metrics.Enabled && b.metricsPort == "" {
		path := cfg.Metrics.Path
		if path == "" {
			path = defaultMetricsPath
		}
		b.engine.GET(path, gin.WrapH(b.metrics.Handler()))
	}
}
