package report

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"path"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/wyfcoding/mcpricer/money"
	"github.com/wyfcoding/mcpricer/payoff"
	"github.com/wyfcoding/mcpricer/pricing"
	"github.com/wyfcoding/mcpricer/storage"
)

const (
	defaultBins       = 50
	defaultLinkExpiry = 24 * time.Hour
)

// HistogramSink 把收益分布绘制为 PNG 直方图并写入对象存储。
type HistogramSink struct {
	store  storage.Storage
	prefix string
	bins   int
	width  vg.Length
	height vg.Length
	expiry time.Duration
	logger *slog.Logger
}

// HistogramOption 直方图配置选项。
type HistogramOption func(*HistogramSink)

// WithBins 设置分箱数量。
func WithBins(n int) HistogramOption {
	return func(s *HistogramSink) {
		if n > 0 {
			s.bins = n
		}
	}
}

// WithPrefix 设置对象名前缀。
func WithPrefix(prefix string) HistogramOption {
	return func(s *HistogramSink) { s.prefix = prefix }
}

// WithSize 设置图片尺寸。
func WithSize(width, height vg.Length) HistogramOption {
	return func(s *HistogramSink) {
		s.width, s.height = width, height
	}
}

// WithLinkExpiry 设置日志中临时访问地址的有效期。
func WithLinkExpiry(d time.Duration) HistogramOption {
	return func(s *HistogramSink) {
		if d > 0 {
			s.expiry = d
		}
	}
}

// WithHistogramLogger 注入日志记录器。
func WithHistogramLogger(l *slog.Logger) HistogramOption {
	return func(s *HistogramSink) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewHistogramSink 创建直方图输出。
func NewHistogramSink(store storage.Storage, opts ...HistogramOption) *HistogramSink {
	s := &HistogramSink{
		store:  store,
		bins:   defaultBins,
		width:  8 * vg.Inch,
		height: 5 * vg.Inch,
		expiry: defaultLinkExpiry,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *HistogramSink) Name() string { return "histogram" }

// ObjectName 返回变体对应的对象名。
func (s *HistogramSink) ObjectName(v payoff.Variant) string {
	return path.Join(s.prefix, string(v)+".png")
}

// Render 绘制直方图：红色虚线标出平均收益。
func (s *HistogramSink) Render(dist payoff.Distribution, label string) ([]byte, error) {
	if dist.Len() == 0 {
		return nil, fmt.Errorf("cannot plot empty distribution for %s", label)
	}

	p := plot.New()
	p.Title.Text = "Payoff Histogram: " + label
	p.X.Label.Text = "Payoff"
	p.Y.Label.Text = "Frequency"
	p.Add(plotter.NewGrid())

	h, err := plotter.NewHist(plotter.Values(dist.Values), s.bins)
	if err != nil {
		return nil, fmt.Errorf("failed to build histogram: %w", err)
	}
	h.FillColor = color.RGBA{R: 70, G: 130, B: 180, A: 200}
	h.LineStyle.Width = vg.Points(0.5)
	p.Add(h)

	var peak float64
	for _, b := range h.Bins {
		peak = max(peak, b.Weight)
	}
	avg := dist.Mean()
	marker, err := plotter.NewLine(plotter.XYs{{X: avg, Y: 0}, {X: avg, Y: peak}})
	if err != nil {
		return nil, fmt.Errorf("failed to build average marker: %w", err)
	}
	marker.LineStyle.Color = color.RGBA{R: 220, A: 255}
	marker.LineStyle.Width = vg.Points(1.5)
	marker.LineStyle.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
	p.Add(marker)

	p.Legend.Add("Average Payoff = "+money.FormatPrice(avg), marker)
	p.Legend.Top = true

	wt, err := p.WriterTo(s.width, s.height, "png")
	if err != nil {
		return nil, fmt.Errorf("failed to render histogram: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Report 绘制并写入存储。
func (s *HistogramSink) Report(ctx context.Context, dist payoff.Distribution, label string, _ pricing.Estimate) error {
	start := time.Now()
	img, err := s.Render(dist, label)
	if err != nil {
		return err
	}

	name := s.ObjectName(dist.Variant)
	if err := s.store.Upload(ctx, name, bytes.NewReader(img), int64(len(img)), "image/png"); err != nil {
		return fmt.Errorf("failed to store histogram %s: %w", name, err)
	}
	// 签名失败不影响已写入的图片
	link, err := s.store.GetPresignedURL(ctx, name, s.expiry)
	if err != nil {
		s.logger.WarnContext(ctx, "histogram link unavailable", "object", name, "error", err)
	}
	s.logger.InfoContext(ctx, "histogram written", "object", name, "url", link, "bytes", len(img), "duration", time.Since(start))
	return nil
}
