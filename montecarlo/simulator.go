package montecarlo

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/sourcegraph/conc/pool"
	"github.com/wyfcoding/mcpricer/metrics"
	"github.com/wyfcoding/mcpricer/xerrors"
)

const defaultChunkSize = 256

type simulatorOptions struct {
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Workers   int
	ChunkSize int
}

// Option 定义模拟器配置选项。
type Option func(*simulatorOptions)

// WithWorkers 设置并行协程上限，默认 GOMAXPROCS。
func WithWorkers(n int) Option {
	return func(o *simulatorOptions) {
		if n > 0 {
			o.Workers = n
		}
	}
}

// WithChunkSize 设置每个任务负责的路径数。
func WithChunkSize(n int) Option {
	return func(o *simulatorOptions) {
		if n > 0 {
			o.ChunkSize = n
		}
	}
}

// WithLogger 注入日志记录器。
func WithLogger(l *slog.Logger) Option {
	return func(o *simulatorOptions) {
		if l != nil {
			o.Logger = l
		}
	}
}

// WithMetrics 注入指标采集器.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *simulatorOptions) {
		o.Metrics = m
	}
}

// Simulator 批量并行生成路径。
// 路径 i 始终使用 NewStream(seed, i)，因此结果与并发度和调度顺序无关。
type Simulator struct {
	options *simulatorOptions
}

// NewSimulator 创建批量模拟器。
func NewSimulator(opts ...Option) *Simulator {
	options := &simulatorOptions{
		Workers:   runtime.GOMAXPROCS(0),
		ChunkSize: defaultChunkSize,
		Logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	return &Simulator{options: options}
}

// Workers 返回并行协程上限。
func (s *Simulator) Workers() int { return s.options.Workers }

// Simulate 生成 cfg.Paths 条路径。
// 参数非法时立即返回 InvalidConfiguration；上下文取消返回 Canceled，截止时间到期返回 Timeout，均不返回部分结果。
func (s *Simulator) Simulate(ctx context.Context, cfg SimulationConfig, seed uint64) (*PathBatch, error) {
	g, err := NewGenerator(cfg)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, xerrors.FromContext(err)
	}

	start := time.Now()
	width := cfg.Steps + 1
	// 所有路径共享一块连续内存，每条路径是其中互不重叠的切片
	backing := make([]float64, cfg.Paths*width)
	paths := make([]Path, cfg.Paths)

	p := pool.New().WithContext(ctx).WithMaxGoroutines(s.options.Workers).WithCancelOnError().WithFirstError()
	for lo := 0; lo < cfg.Paths; lo += s.options.ChunkSize {
		hi := min(lo+s.options.ChunkSize, cfg.Paths)
		p.Go(func(ctx context.Context) error {
			for i := lo; i < hi; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				path := Path(backing[i*width : (i+1)*width : (i+1)*width])
				g.fill(path, NewStream(seed, i))
				paths[i] = path
			}
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		// 分块只会因上下文结束而失败，以父上下文的错误为准
		if cerr := ctx.Err(); cerr != nil {
			err = cerr
		}
		s.options.Logger.DebugContext(ctx, "simulation aborted", "paths", cfg.Paths, "error", err)
		return nil, xerrors.FromContext(err)
	}

	elapsed := time.Since(start)
	if m := s.options.Metrics; m != nil {
		m.PathsSimulated.Add(float64(cfg.Paths))
		m.SimulationDuration.Observe(elapsed.Seconds())
	}
	s.options.Logger.DebugContext(ctx, "path batch simulated",
		"paths", cfg.Paths, "steps", cfg.Steps, "workers", s.options.Workers, "duration", elapsed)

	return &PathBatch{Config: cfg, Seed: seed, Paths: paths}, nil
}
