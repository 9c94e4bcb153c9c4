package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/mcpricer/config"
	"github.com/wyfcoding/mcpricer/metrics"
)

type fakeServer struct {
	started chan struct{}
	err     error
}

func (s *fakeServer) Start(ctx context.Context) error {
	close(s.started)
	if s.err != nil {
		return s.err
	}
	<-ctx.Done()
	return nil
}

func (s *fakeServer) Stop(context.Context) error { return nil }

func TestLifecycleStopsInReverseOrder(t *testing.T) {
	var mu sync.Mutex
	var calls []string
	record := func(name string) func(context.Context) error {
		return func(context.Context) error {
			mu.Lock()
			calls = append(calls, name)
			mu.Unlock()
			return nil
		}
	}

	lc := NewLifecycle(slog.Default())
	lc.Append(Hook{Name: "a", OnStart: record("start a"), OnStop: record("stop a")})
	lc.Append(Hook{Name: "b", OnStart: record("start b"), OnStop: record("stop b")})

	if err := lc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := lc.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	want := "start a,start b,stop b,stop a"
	if got := strings.Join(calls, ","); got != want {
		t.Errorf("calls = %s, want %s", got, want)
	}
}

func TestLifecycleSkipsHooksThatNeverStarted(t *testing.T) {
	var stopped []string
	lc := NewLifecycle(nil)
	lc.Append(Hook{Name: "ok", OnStop: func(context.Context) error { stopped = append(stopped, "ok"); return nil }})
	lc.Append(Hook{
		Name:    "broken",
		OnStart: func(context.Context) error { return errors.New("boom") },
		OnStop:  func(context.Context) error { stopped = append(stopped, "broken"); return nil },
	})

	if err := lc.Start(context.Background()); err == nil {
		t.Fatal("expected start error")
	}
	_ = lc.Stop(context.Background())
	if len(stopped) != 1 || stopped[0] != "ok" {
		t.Errorf("stopped = %v, want [ok]", stopped)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	srv := &fakeServer{started: make(chan struct{})}
	cleaned := false
	a := New("test", nil, WithServer(srv), WithCleanup(func() { cleaned = true }))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	<-srv.started
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if !cleaned {
		t.Error("cleanup was not executed")
	}
}

func TestRunReturnsServerError(t *testing.T) {
	boom := errors.New("listen failed")
	a := New("test", nil, WithServer(&fakeServer{started: make(chan struct{}), err: boom}))
	if err := a.Run(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Run error = %v, want %v", err, boom)
	}
}

func TestBuilderHealthAndMetricsRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var cfg config.Config
	if err := config.Load("", &cfg); err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	cfg.Metrics.Enabled = true
	cfg.RateLimit.Enabled = false

	healthy := true
	b := NewBuilder("mcpricer-test").
		WithConfig(&cfg).
		WithHealthChecker(func() error {
			if !healthy {
				return errors.New("engine unavailable")
			}
			return nil
		}).
		WithService(func(*config.Config, *metrics.Metrics, *slog.Logger) (any, func(), error) {
			return "svc", func() {}, nil
		}).
		WithGin(func(e *gin.Engine, svc any) {
			e.GET("/svc", func(c *gin.Context) { c.String(http.StatusOK, svc.(string)) })
		})

	if _, err := b.Build(); err != nil {
		t.Fatalf("Build: %v", err)
	}

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		b.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	if w := get("/svc"); w.Code != http.StatusOK || w.Body.String() != "svc" {
		t.Errorf("service route: %d %q", w.Code, w.Body.String())
	}
	if w := get(healthPath); w.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", w.Code)
	}
	healthy = false
	if w := get(healthPath); w.Code != http.StatusServiceUnavailable {
		t.Errorf("health status = %d, want 503", w.Code)
	}
	if w := get("/metrics"); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "build_info") {
		t.Errorf("metrics route missing build_info: %d", w.Code)
	}
}

func TestBuilderRequiresServiceAndRoutes(t *testing.T) {
	if _, err := NewBuilder("x").Build(); err == nil {
		t.Error("expected error without service factory")
	}
}
