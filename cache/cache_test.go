package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/wyfcoding/mcpricer/config"
	"github.com/wyfcoding/mcpricer/metrics"
	"github.com/wyfcoding/mcpricer/montecarlo"
	"github.com/wyfcoding/mcpricer/payoff"
	"github.com/wyfcoding/mcpricer/pricing"
)

func newTestCache(t *testing.T) *BigCache {
	t.Helper()
	c, err := NewBigCache(config.CacheConfig{
		LifeWindow:       time.Minute,
		CleanWindow:      time.Minute,
		Shards:           16,
		MaxEntrySize:     512,
		HardMaxCacheSize: 8,
	})
	if err != nil {
		t.Fatalf("NewBigCache: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestBigCacheGetSet(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	var out map[string]float64
	if err := c.Get(ctx, "k", &out); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss, got %v", err)
	}
	if err := c.Set(ctx, "k", map[string]float64{"price": 8.5}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Get(ctx, "k", &out); err != nil || out["price"] != 8.5 {
		t.Fatalf("Get = %v, %v", out, err)
	}
	if ok, _ := c.Exists(ctx, "k"); !ok {
		t.Errorf("Exists = false")
	}
	if err := c.Delete(ctx, "k", "missing"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if ok, _ := c.Exists(ctx, "k"); ok {
		t.Errorf("key must be gone after Delete")
	}
}

func testRequest(seed uint64) pricing.Request {
	cfg := montecarlo.DefaultSimulationConfig()
	cfg.Paths = 10
	return pricing.Request{Config: cfg, Seed: seed, Specs: []payoff.Spec{{Variant: payoff.LookbackCall}}}
}

func TestKeyIsStable(t *testing.T) {
	a, err := Key(testRequest(1))
	if err != nil {
		t.Fatalf("Key: %v", err)
	}
	b, _ := Key(testRequest(1))
	c, _ := Key(testRequest(2))
	if a != b {
		t.Errorf("identical requests must share a key")
	}
	if a == c {
		t.Errorf("different seeds must produce different keys")
	}
}

func TestResultCache(t *testing.T) {
	m := metrics.NewMetrics("cache-test")
	rc := NewResultCache(newTestCache(t), m, nil)
	ctx := context.Background()
	req := testRequest(42)

	if _, ok := rc.Get(ctx, req); ok {
		t.Fatalf("expected miss on empty cache")
	}
	want := &pricing.Result{
		Estimates: []pricing.Estimate{{Variant: payoff.LookbackCall, Label: "Lookback Call Option", Value: 17.25, Paths: 10}},
		Seed:      42,
		Config:    req.Config,
	}
	rc.Put(ctx, req, want)

	got, ok := rc.Get(ctx, req)
	if !ok {
		t.Fatalf("expected hit")
	}
	if got.Estimates[0].Value != 17.25 || got.Config != req.Config {
		t.Errorf("cached result mismatch: %+v", got)
	}
	if testutil.ToFloat64(m.CacheRequests.WithLabelValues("hit")) != 1 ||
		testutil.ToFloat64(m.CacheRequests.WithLabelValues("miss")) != 1 {
		t.Errorf("unexpected cache metrics")
	}
}
