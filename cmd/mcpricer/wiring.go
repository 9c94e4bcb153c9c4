package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/wyfcoding/mcpricer/config"
	"github.com/wyfcoding/mcpricer/metrics"
	"github.com/wyfcoding/mcpricer/montecarlo"
	"github.com/wyfcoding/mcpricer/pricing"
	"github.com/wyfcoding/mcpricer/report"
	"github.com/wyfcoding/mcpricer/storage"
)

// sinkSet 按配置组装的报告输出。
type sinkSet struct {
	multi *report.MultiSink
	minio *storage.MinIOClient
}

// buildSinks 组装文本、直方图与 Kafka 输出，text 为 nil 时不输出文本。
// report.upload 为真时直方图上传到 MinIO，否则写入 report.histogram_dir。
func buildSinks(cfg *config.Config, text io.Writer, verbose bool, m *metrics.Metrics, logger *slog.Logger) (*sinkSet, error) {
	set := &sinkSet{}
	var sinks []pricing.Sink

	if text != nil && cfg.Report.Text {
		sinks = append(sinks, report.NewTextSink(text, verbose))
	}

	var store storage.Storage
	prefix := ""
	switch {
	case cfg.Report.Upload:
		client, err := storage.NewMinIOClient(cfg.Minio)
		if err != nil {
			return nil, err
		}
		set.minio = client
		store = client
		prefix = cfg.Report.UploadPrefix
	case cfg.Report.HistogramDir != "":
		local, err := storage.NewLocalStorage(cfg.Report.HistogramDir)
		if err != nil {
			return nil, err
		}
		store = local
	}
	if store != nil {
		sinks = append(sinks, report.NewHistogramSink(store,
			report.WithBins(cfg.Report.Bins),
			report.WithPrefix(prefix),
			report.WithHistogramLogger(logger),
		))
	}

	if cfg.Kafka.Enabled {
		sinks = append(sinks, report.NewKafkaSink(cfg.Kafka, logger))
	}

	set.multi = report.NewMultiSink(m, logger, sinks...)
	return set, nil
}

// ensureBucket 在首次上传前创建存储桶。
func (s *sinkSet) ensureBucket(ctx context.Context) error {
	if s == nil || s.minio == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.minio.EnsureBucket(ctx); err != nil {
		return fmt.Errorf("ensure histogram bucket: %w", err)
	}
	return nil
}

func (s *sinkSet) Close() error {
	if s == nil || s.multi == nil {
		return nil
	}
	return s.multi.Close()
}

// newEngine 按 engine 配置创建模拟器与定价引擎。
func newEngine(cfg *config.Config, sink pricing.Sink, m *metrics.Metrics, logger *slog.Logger) *pricing.Engine {
	sim := montecarlo.NewSimulator(
		montecarlo.WithWorkers(cfg.Engine.Workers),
		montecarlo.WithChunkSize(cfg.Engine.ChunkSize),
		montecarlo.WithLogger(logger),
		montecarlo.WithMetrics(m),
	)
	opts := []pricing.EngineOption{
		pricing.WithEngineLogger(logger),
		pricing.WithEngineMetrics(m),
	}
	if cfg.Engine.Truncate {
		opts = append(opts, pricing.WithPriceOptions(pricing.WithTruncation(cfg.Engine.TruncatePlaces)))
	}
	return pricing.NewEngine(sim, sink, opts...)
}
