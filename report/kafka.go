package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/wyfcoding/mcpricer/config"
	"github.com/wyfcoding/mcpricer/payoff"
	"github.com/wyfcoding/mcpricer/pricing"
	"github.com/wyfcoding/mcpricer/tracing"
)

// MessageWriter 抽象 kafka-go 的 Writer，便于替换。
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// PayoffSummary 收益分布摘要。
type PayoffSummary struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Count  int     `json:"count"`
}

// PriceReport 发布到 Kafka 的价格事件。
type PriceReport struct {
	Label          string         `json:"label"`
	Variant        payoff.Variant `json:"variant"`
	Price          float64        `json:"price"`
	StdErr         float64        `json:"std_err"`
	ConfidenceLow  float64        `json:"confidence_low"`
	ConfidenceHigh float64        `json:"confidence_high"`
	DiscountFactor float64        `json:"discount_factor"`
	Payoffs        PayoffSummary  `json:"payoffs"`
	TraceID        string         `json:"trace_id,omitempty"`
	Timestamp      time.Time      `json:"timestamp"`
}

// KafkaSink 把每个变体的价格作为 JSON 事件发布，消息键为变体名。
type KafkaSink struct {
	writer MessageWriter
	topic  string
	logger *slog.Logger
	now    func() time.Time
}

// NewKafkaSink 根据配置创建 kafka-go Writer。
func NewKafkaSink(cfg config.KafkaConfig, logger *slog.Logger) *KafkaSink {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafkago.Hash{},
		WriteTimeout: cfg.WriteTimeout,
		MaxAttempts:  cfg.MaxAttempts,
		RequiredAcks: kafkago.RequiredAcks(cfg.RequiredAcks),
		Async:        cfg.Async,
	}
	return NewKafkaSinkWithWriter(w, cfg.Topic, logger)
}

// NewKafkaSinkWithWriter 使用已有的 Writer 创建 Sink。
func NewKafkaSinkWithWriter(w MessageWriter, topic string, logger *slog.Logger) *KafkaSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaSink{writer: w, topic: topic, logger: logger, now: time.Now}
}

func (s *KafkaSink) Name() string { return "kafka" }

// Report 发布价格事件，追踪上下文写入消息头。
func (s *KafkaSink) Report(ctx context.Context, dist payoff.Distribution, label string, est pricing.Estimate) error {
	ctx, span := tracing.StartSpan(ctx, "mc.report.kafka")
	defer span.End()

	msg := PriceReport{
		Label:          label,
		Variant:        dist.Variant,
		Price:          est.Value,
		StdErr:         est.StdErr,
		ConfidenceLow:  est.ConfidenceLow,
		ConfidenceHigh: est.ConfidenceHigh,
		DiscountFactor: est.DiscountFactor,
		Payoffs:        summarize(dist.Values),
		TraceID:        tracing.GetTraceID(ctx),
		Timestamp:      s.now().UTC(),
	}
	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode price report: %w", err)
	}

	carrier := tracing.InjectContext(ctx)
	headers := make([]kafkago.Header, 0, len(carrier))
	for k, v := range carrier {
		headers = append(headers, kafkago.Header{Key: k, Value: []byte(v)})
	}

	err = s.writer.WriteMessages(ctx, kafkago.Message{
		Key:     []byte(dist.Variant),
		Value:   value,
		Headers: headers,
		Time:    msg.Timestamp,
	})
	if err != nil {
		tracing.SetError(ctx, err)
		s.logger.ErrorContext(ctx, "failed to publish price report", "topic", s.topic, "variant", dist.Variant, "error", err)
		return err
	}
	return nil
}

// Close 关闭底层 Writer。
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}

func summarize(values []float64) PayoffSummary {
	if len(values) == 0 {
		return PayoffSummary{}
	}
	sum := PayoffSummary{
		Mean:  stat.Mean(values, nil),
		Min:   floats.Min(values),
		Max:   floats.Max(values),
		Count: len(values),
	}
	if len(values) > 1 {
		sum.StdDev = stat.StdDev(values, nil)
	}
	return sum
}
