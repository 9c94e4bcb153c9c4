package montecarlo

import (
	"errors"
	"math"
	"testing"

	"github.com/wyfcoding/mcpricer/xerrors"
)

func TestSimulationConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SimulationConfig)
		field  string
	}{
		{"zero initial price", func(c *SimulationConfig) { c.InitialPrice = 0 }, "initial_price"},
		{"negative volatility", func(c *SimulationConfig) { c.Volatility = -0.1 }, "volatility"},
		{"zero maturity", func(c *SimulationConfig) { c.Maturity = 0 }, "maturity"},
		{"zero steps", func(c *SimulationConfig) { c.Steps = 0 }, "steps"},
		{"zero paths", func(c *SimulationConfig) { c.Paths = 0 }, "paths"},
		{"nan rate", func(c *SimulationConfig) { c.RiskFreeRate = math.NaN() }, "risk_free_rate"},
		{"infinite price", func(c *SimulationConfig) { c.InitialPrice = math.Inf(1) }, "initial_price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultSimulationConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected error")
			}
			if !errors.Is(err, xerrors.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
			e, _ := xerrors.FromError(err)
			if e.Context["field"] != tt.field {
				t.Errorf("field = %v, want %s", e.Context["field"], tt.field)
			}
		})
	}
}

func TestSimulationConfigDerived(t *testing.T) {
	cfg := DefaultSimulationConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must be valid: %v", err)
	}
	cfg.Volatility = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("zero volatility must be accepted: %v", err)
	}
	if got := cfg.StepSize(); math.Abs(got-0.003) > 1e-15 {
		t.Errorf("StepSize() = %v, want 0.003", got)
	}
	if got := cfg.Drift(); math.Abs(got-0.03) > 1e-15 {
		t.Errorf("Drift() = %v, want 0.03", got)
	}
	if got, want := cfg.DiscountFactor(), math.Exp(-0.0375); got != want {
		t.Errorf("DiscountFactor() = %v, want %v", got, want)
	}
}
