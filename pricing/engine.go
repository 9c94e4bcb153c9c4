package pricing

import (
	"context"
	"log/slog"
	"time"

	"github.com/wyfcoding/mcpricer/logging"
	"github.com/wyfcoding/mcpricer/metrics"
	"github.com/wyfcoding/mcpricer/montecarlo"
	"github.com/wyfcoding/mcpricer/payoff"
	"github.com/wyfcoding/mcpricer/tracing"
	"github.com/wyfcoding/mcpricer/xerrors"
)

// Sink 接收一个变体的收益分布与价格估计，负责展示或投递。
type Sink interface {
	Report(ctx context.Context, dist payoff.Distribution, label string, est Estimate) error
}

// Request 一次定价请求。
type Request struct {
	Config montecarlo.SimulationConfig `json:"simulation"`
	Seed   uint64                      `json:"seed"`
	Specs  []payoff.Spec               `json:"options"`
}

// Validate 在任何模拟开始前校验参数与变体选择。
func (r Request) Validate() error {
	if err := r.Config.Validate(); err != nil {
		return err
	}
	if len(r.Specs) == 0 {
		return xerrors.InvalidInput(xerrors.ErrNoVariants, "at least one option variant is required")
	}
	for _, s := range r.Specs {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Result 一次运行的全部估计，顺序与请求中的 Specs 一致。
type Result struct {
	Estimates  []Estimate                  `json:"estimates"`
	Statistics montecarlo.Statistics       `json:"terminal_statistics"`
	Config     montecarlo.SimulationConfig `json:"simulation"`
	Seed       uint64                      `json:"seed"`
	Duration   time.Duration               `json:"duration_ns"`
}

type engineOptions struct {
	logger    *slog.Logger
	metrics   *metrics.Metrics
	priceOpts []PriceOption
}

// EngineOption 引擎配置选项。
type EngineOption func(*engineOptions)

// WithEngineLogger 注入日志记录器。
func WithEngineLogger(l *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithEngineMetrics 注入指标采集器。
func WithEngineMetrics(m *metrics.Metrics) EngineOption {
	return func(o *engineOptions) { o.metrics = m }
}

// WithPriceOptions 为每次 Price 调用附加选项，例如截断。
func WithPriceOptions(opts ...PriceOption) EngineOption {
	return func(o *engineOptions) { o.priceOpts = append(o.priceOpts, opts...) }
}

// Engine 每次请求只模拟一个路径批次，所有变体都在同一批路径上定价。
// 日志、指标、追踪与 Sink 调用只发生在引擎中，计算组件保持无副作用。
type Engine struct {
	sim  *montecarlo.Simulator
	sink Sink
	opts engineOptions
}

// NewEngine 创建定价引擎，sink 为 nil 时不做任何投递。
func NewEngine(sim *montecarlo.Simulator, sink Sink, opts ...EngineOption) *Engine {
	o := engineOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if sim == nil {
		sim = montecarlo.NewSimulator(montecarlo.WithLogger(o.logger), montecarlo.WithMetrics(o.metrics))
	}
	o.logger = logging.Component(o.logger, "pricing.engine")
	return &Engine{sim: sim, sink: sink, opts: o}
}

// Run 执行一次定价：校验、模拟一次、逐变体求收益并定价、交给 Sink。
func (e *Engine) Run(ctx context.Context, req Request) (result *Result, err error) {
	start := time.Now()
	defer func() { e.recordRun(err) }()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	simCtx, span := tracing.StartSpan(ctx, "mc.simulate")
	tracing.AddTag(simCtx, "mc.paths", req.Config.Paths)
	tracing.AddTag(simCtx, "mc.steps", req.Config.Steps)
	batch, err := e.sim.Simulate(simCtx, req.Config, req.Seed)
	if err != nil {
		tracing.SetError(simCtx, err)
		span.End()
		return nil, err
	}
	span.End()

	stats, err := montecarlo.TerminalStatistics(batch)
	if err != nil {
		return nil, err
	}

	df := req.Config.DiscountFactor()
	estimates := make([]Estimate, 0, len(req.Specs))
	for _, spec := range req.Specs {
		est, err := e.priceOne(ctx, batch, spec, df)
		if err != nil {
			return nil, err
		}
		estimates = append(estimates, est)
	}

	result = &Result{
		Estimates:  estimates,
		Statistics: stats,
		Config:     req.Config,
		Seed:       req.Seed,
		Duration:   time.Since(start),
	}
	e.opts.logger.InfoContext(ctx, "pricing run finished",
		"variants", len(estimates), "paths", req.Config.Paths, "seed", req.Seed, "duration", result.Duration)
	return result, nil
}

func (e *Engine) priceOne(ctx context.Context, batch *montecarlo.PathBatch, spec payoff.Spec, df float64) (Estimate, error) {
	ctx, span := tracing.StartSpan(ctx, "mc.price")
	defer span.End()
	tracing.AddTag(ctx, "mc.variant", string(spec.Variant))

	dist, err := payoff.Evaluate(batch, spec)
	if err != nil {
		tracing.SetError(ctx, err)
		return Estimate{}, err
	}
	est, err := Price(dist, df, e.opts.priceOpts...)
	if err != nil {
		tracing.SetError(ctx, err)
		return Estimate{}, err
	}
	tracing.AddTag(ctx, "mc.price", est.Value)

	if m := e.opts.metrics; m != nil {
		m.PayoffEvaluations.WithLabelValues(string(spec.Variant)).Add(float64(dist.Len()))
		m.PriceEstimate.WithLabelValues(string(spec.Variant)).Set(est.Value)
	}
	e.opts.logger.DebugContext(ctx, "variant priced",
		"variant", spec.Variant, "price", est.Value, "std_err", est.StdErr)

	if e.sink != nil {
		if err := e.sink.Report(ctx, dist, dist.Label, est); err != nil {
			tracing.SetError(ctx, err)
			return Estimate{}, xerrors.Wrap(err, xerrors.ErrUnavailable, "report delivery failed")
		}
	}
	return est, nil
}

func (e *Engine) recordRun(err error) {
	m := e.opts.metrics
	if m == nil {
		return
	}
	status := "ok"
	switch {
	case err == nil:
	case xerrors.IsType(err, xerrors.ErrInvalidConfiguration), xerrors.IsType(err, xerrors.ErrInvalidInput):
		status = "invalid"
	case xerrors.IsType(err, xerrors.ErrCanceled):
		status = "canceled"
	case xerrors.IsType(err, xerrors.ErrTimeout):
		status = "timeout"
	default:
		status = "error"
	}
	m.PricingRuns.WithLabelValues(status).Inc()
}
