// Package report 提供定价结果的输出实现：控制台文本、直方图图片、Kafka 事件以及扇出组合。
package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/wyfcoding/mcpricer/metrics"
	"github.com/wyfcoding/mcpricer/money"
	"github.com/wyfcoding/mcpricer/payoff"
	"github.com/wyfcoding/mcpricer/pricing"
)

var (
	_ pricing.Sink = (*TextSink)(nil)
	_ pricing.Sink = (*HistogramSink)(nil)
	_ pricing.Sink = (*KafkaSink)(nil)
	_ pricing.Sink = (*MultiSink)(nil)
	_ pricing.Sink = NopSink{}
)

// sinkName 返回用于指标与日志的名称。
func sinkName(s pricing.Sink) string {
	if n, ok := s.(interface{ Name() string }); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", s)
}

// TextSink 以 "Price of <label>: $x.xx" 的形式写出价格。
type TextSink struct {
	mu      sync.Mutex
	w       io.Writer
	verbose bool
}

// NewTextSink 创建文本输出，verbose 时追加平均收益、标准误与置信区间。
func NewTextSink(w io.Writer, verbose bool) *TextSink {
	return &TextSink{w: w, verbose: verbose}
}

func (s *TextSink) Name() string { return "text" }

// Report 写出一个变体的价格行。
func (s *TextSink) Report(_ context.Context, dist payoff.Distribution, label string, est pricing.Estimate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := fmt.Fprintf(s.w, "Price of %s: %s\n", label, money.New(est.Value).Dollars()); err != nil {
		return err
	}
	if !s.verbose {
		return nil
	}
	_, err := fmt.Fprintf(s.w, "  average payoff: %s  std err: %s  95%% CI: [%s, %s]  paths: %d\n",
		money.FormatPrice(dist.Mean()),
		money.New(est.StdErr).Format(4),
		money.FormatPrice(est.ConfidenceLow),
		money.FormatPrice(est.ConfidenceHigh),
		dist.Len(),
	)
	return err
}

// NopSink 丢弃所有结果。
type NopSink struct{}

func (NopSink) Name() string { return "nop" }

func (NopSink) Report(context.Context, payoff.Distribution, string, pricing.Estimate) error {
	return nil
}

// MultiSink 依次调用所有下游 Sink，单个失败不影响其余，错误合并后返回。
type MultiSink struct {
	sinks   []pricing.Sink
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewMultiSink 创建扇出 Sink，nil 元素会被忽略。
func NewMultiSink(m *metrics.Metrics, logger *slog.Logger, sinks ...pricing.Sink) *MultiSink {
	if logger == nil {
		logger = slog.Default()
	}
	ms := &MultiSink{metrics: m, logger: logger}
	for _, s := range sinks {
		if s != nil {
			ms.sinks = append(ms.sinks, s)
		}
	}
	return ms
}

func (m *MultiSink) Name() string { return "multi" }

// Len 返回下游 Sink 数量。
func (m *MultiSink) Len() int { return len(m.sinks) }

// Report 扇出到全部下游。
func (m *MultiSink) Report(ctx context.Context, dist payoff.Distribution, label string, est pricing.Estimate) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Report(ctx, dist, label, est); err != nil {
			name := sinkName(s)
			m.logger.ErrorContext(ctx, "report sink failed", "sink", name, "variant", dist.Variant, "error", err)
			if m.metrics != nil {
				m.metrics.SinkErrors.WithLabelValues(name).Inc()
			}
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Close 关闭实现了 io.Closer 的下游。
func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if c, ok := s.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}
