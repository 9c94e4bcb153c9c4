package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/wyfcoding/mcpricer/metrics"
	"github.com/wyfcoding/mcpricer/payoff"
	"github.com/wyfcoding/mcpricer/pricing"
	"github.com/wyfcoding/mcpricer/storage"
)

func sampleResult(t *testing.T) (payoff.Distribution, pricing.Estimate) {
	t.Helper()
	dist := payoff.Distribution{
		Variant: payoff.AverageStrikeCall,
		Label:   payoff.AverageStrikeCall.Label(),
		Values:  []float64{0, 1.5, 3, 4.5, 6, 7.5, 9, 0, 2, 12.25},
	}
	est, err := pricing.Price(dist, 0.963)
	if err != nil {
		t.Fatalf("Price: %v", err)
	}
	return dist, est
}

func TestTextSink(t *testing.T) {
	dist, est := sampleResult(t)
	var buf bytes.Buffer
	if err := NewTextSink(&buf, false).Report(context.Background(), dist, dist.Label, est); err != nil {
		t.Fatalf("Report: %v", err)
	}
	// 平均收益 4.575，折现 4.405725
	if got, want := buf.String(), "Price of Average Strike Call Option: $4.41\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	buf.Reset()
	if err := NewTextSink(&buf, true).Report(context.Background(), dist, dist.Label, est); err != nil {
		t.Fatalf("Report: %v", err)
	}
	if !strings.Contains(buf.String(), "average payoff: 4.58") || !strings.Contains(buf.String(), "paths: 10") {
		t.Errorf("verbose output missing details: %q", buf.String())
	}
}

func TestHistogramSinkWritesPNG(t *testing.T) {
	dist, est := sampleResult(t)
	root := t.TempDir()
	store, err := storage.NewLocalStorage(root)
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}

	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	sink := NewHistogramSink(store, WithBins(5), WithPrefix("run-1"), WithLinkExpiry(time.Hour), WithHistogramLogger(logger))
	if err := sink.Report(context.Background(), dist, dist.Label, est); err != nil {
		t.Fatalf("Report: %v", err)
	}
	if !strings.Contains(logs.String(), `"url":"file://`) || !strings.Contains(logs.String(), "run-1/average_strike_call.png") {
		t.Errorf("histogram log must carry the object link, got %s", logs.String())
	}

	data, err := os.ReadFile(filepath.Join(root, "run-1", "average_strike_call.png"))
	if err != nil {
		t.Fatalf("read histogram: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")) {
		t.Errorf("output is not a PNG image")
	}
}

func TestHistogramSinkEmptyDistribution(t *testing.T) {
	sink := NewHistogramSink(nil)
	if _, err := sink.Render(payoff.Distribution{}, "empty"); err == nil {
		t.Errorf("expected error for empty distribution")
	}
}

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaSinkPublishesJSON(t *testing.T) {
	dist, est := sampleResult(t)
	w := &fakeWriter{}
	sink := NewKafkaSinkWithWriter(w, "mcpricer.prices", nil)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	sink.now = func() time.Time { return fixed }

	if err := sink.Report(context.Background(), dist, dist.Label, est); err != nil {
		t.Fatalf("Report: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("messages = %d, want 1", len(w.msgs))
	}
	msg := w.msgs[0]
	if string(msg.Key) != "average_strike_call" {
		t.Errorf("key = %q", msg.Key)
	}

	var rep PriceReport
	if err := json.Unmarshal(msg.Value, &rep); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rep.Label != dist.Label || rep.Price != est.Value || !rep.Timestamp.Equal(fixed) {
		t.Errorf("unexpected report %+v", rep)
	}
	if rep.Payoffs.Count != 10 || rep.Payoffs.Max != 12.25 || rep.Payoffs.Min != 0 {
		t.Errorf("unexpected payoff summary %+v", rep.Payoffs)
	}

	if err := sink.Close(); err != nil || !w.closed {
		t.Errorf("Close must close the writer")
	}
}

func TestMultiSinkJoinsErrors(t *testing.T) {
	dist, est := sampleResult(t)
	m := metrics.NewMetrics("report-test")
	var buf bytes.Buffer
	failing := NewKafkaSinkWithWriter(&fakeWriter{err: errors.New("broker down")}, "t", nil)

	multi := NewMultiSink(m, nil, NewTextSink(&buf, false), nil, failing, NopSink{})
	if multi.Len() != 3 {
		t.Fatalf("nil sinks must be skipped, got %d", multi.Len())
	}
	err := multi.Report(context.Background(), dist, dist.Label, est)
	if err == nil || !strings.Contains(err.Error(), "kafka: broker down") {
		t.Fatalf("expected joined kafka error, got %v", err)
	}
	if buf.Len() == 0 {
		t.Errorf("text sink must still run when another sink fails")
	}
	if got := testutil.ToFloat64(m.SinkErrors.WithLabelValues("kafka")); got != 1 {
		t.Errorf("sink error metric = %v", got)
	}
}
