package montecarlo

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/wyfcoding/mcpricer/xerrors"
)

func smallConfig() SimulationConfig {
	cfg := DefaultSimulationConfig()
	cfg.Steps = 50
	cfg.Paths = 300
	return cfg
}

func TestGeneratePathLengthAndPositivity(t *testing.T) {
	cfg := smallConfig()
	for i := range 20 {
		p, err := GeneratePath(cfg, NewStream(7, i))
		if err != nil {
			t.Fatalf("GeneratePath: %v", err)
		}
		if p.Len() != cfg.Steps+1 {
			t.Fatalf("path length = %d, want %d", p.Len(), cfg.Steps+1)
		}
		if p[0] != cfg.InitialPrice {
			t.Errorf("p[0] = %v, want %v", p[0], cfg.InitialPrice)
		}
		for j, v := range p {
			if !(v > 0) || math.IsInf(v, 0) {
				t.Fatalf("path %d index %d not strictly positive: %v", i, j, v)
			}
		}
	}
}

func TestGeneratePathInvalidConfig(t *testing.T) {
	cfg := smallConfig()
	cfg.Steps = 0
	if _, err := GeneratePath(cfg, NewStream(1, 0)); !errors.Is(err, xerrors.ErrInvalidConfig) {
		t.Errorf("expected InvalidConfiguration, got %v", err)
	}
}

func TestZeroVolatilityIsDeterministic(t *testing.T) {
	cfg := smallConfig()
	cfg.Volatility = 0

	batch, err := NewSimulator(WithWorkers(3)).Simulate(context.Background(), cfg, 99)
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	dt := cfg.StepSize()
	for _, p := range batch.Paths {
		for step, v := range p {
			want := cfg.InitialPrice * math.Exp(cfg.Drift()*float64(step)*dt)
			if math.Abs(v-want) > 1e-9*want {
				t.Fatalf("step %d = %v, want %v", step, v, want)
			}
		}
	}
	st, err := TerminalStatistics(batch)
	if err != nil {
		t.Fatalf("TerminalStatistics: %v", err)
	}
	if st.StdDev > 1e-9 {
		t.Errorf("terminal std dev = %v, want 0", st.StdDev)
	}
}

func TestSimulateDeterministicAcrossWorkers(t *testing.T) {
	cfg := smallConfig()
	ctx := context.Background()

	sequential, err := NewSimulator(WithWorkers(1), WithChunkSize(cfg.Paths)).Simulate(ctx, cfg, 42)
	if err != nil {
		t.Fatalf("sequential: %v", err)
	}
	for _, workers := range []int{2, 5, 16} {
		parallel, err := NewSimulator(WithWorkers(workers), WithChunkSize(7)).Simulate(ctx, cfg, 42)
		if err != nil {
			t.Fatalf("workers=%d: %v", workers, err)
		}
		if parallel.Len() != sequential.Len() {
			t.Fatalf("batch length mismatch")
		}
		for i := range sequential.Paths {
			for j := range sequential.Paths[i] {
				if sequential.Paths[i][j] != parallel.Paths[i][j] {
					t.Fatalf("workers=%d path %d step %d differs", workers, i, j)
				}
			}
		}
	}

	other, err := NewSimulator().Simulate(ctx, cfg, 43)
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if other.Paths[0].Final() == sequential.Paths[0].Final() {
		t.Errorf("different seeds should produce different paths")
	}
}

func TestSimulateSinglePath(t *testing.T) {
	cfg := smallConfig()
	cfg.Paths = 1
	batch, err := NewSimulator().Simulate(context.Background(), cfg, 1)
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if batch.Len() != 1 || batch.Paths[0].Len() != cfg.Steps+1 {
		t.Errorf("unexpected batch shape: %d paths", batch.Len())
	}
}

func TestSimulateRejectsInvalidConfig(t *testing.T) {
	cfg := smallConfig()
	cfg.Paths = 0
	batch, err := NewSimulator().Simulate(context.Background(), cfg, 1)
	if batch != nil || !xerrors.IsType(err, xerrors.ErrInvalidConfiguration) {
		t.Errorf("expected InvalidConfiguration and no batch, got %v, %v", batch, err)
	}
}

func TestSimulateCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	batch, err := NewSimulator().Simulate(ctx, smallConfig(), 1)
	if batch != nil {
		t.Errorf("canceled run must not return a partial batch")
	}
	if !xerrors.IsType(err, xerrors.ErrCanceled) || !errors.Is(err, context.Canceled) {
		t.Errorf("expected Canceled wrapping context.Canceled, got %v", err)
	}
}

func TestSimulateDeadlineWrapsSingleContextError(t *testing.T) {
	cfg := smallConfig()
	cfg.Paths = 200_000
	cfg.Steps = 49
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	batch, err := NewSimulator(WithWorkers(2), WithChunkSize(1)).Simulate(ctx, cfg, 1)
	if batch != nil {
		t.Fatalf("expired run must not return a batch")
	}
	if !xerrors.IsType(err, xerrors.ErrTimeout) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected Timeout wrapping context.DeadlineExceeded, got %v", err)
	}
	e, _ := xerrors.FromError(err)
	if e.Cause != context.DeadlineExceeded {
		t.Errorf("cause must be the bare context error, got %q", e.Cause)
	}
	if n := strings.Count(err.Error(), "deadline exceeded"); n != 1 {
		t.Errorf("error mentions the deadline %d times: %d bytes", n, len(err.Error()))
	}
}

func TestPathAccessors(t *testing.T) {
	p := Path{100, 90, 120, 110}
	if p.Final() != 110 || p.Min() != 90 || p.Max() != 120 {
		t.Errorf("unexpected accessors: final=%v min=%v max=%v", p.Final(), p.Min(), p.Max())
	}
	if got := p.AverageExcludingFinal(); math.Abs(got-310.0/3) > 1e-12 {
		t.Errorf("AverageExcludingFinal() = %v", got)
	}
}

func TestStreamSeedIndependentOfOrder(t *testing.T) {
	a := StreamSeed(42, 10)
	_ = StreamSeed(42, 3)
	if b := StreamSeed(42, 10); a != b {
		t.Errorf("StreamSeed must be a pure function")
	}
	if StreamSeed(42, 0) == StreamSeed(42, 1) {
		t.Errorf("adjacent streams must differ")
	}
}

func TestTerminalStatisticsEmpty(t *testing.T) {
	if _, err := TerminalStatistics(&PathBatch{}); !errors.Is(err, xerrors.ErrEmptyBatch) {
		t.Errorf("expected ErrEmptyBatch, got %v", err)
	}
}
