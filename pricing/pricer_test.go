package pricing

import (
	"errors"
	"math"
	"testing"

	"github.com/wyfcoding/mcpricer/payoff"
	"github.com/wyfcoding/mcpricer/xerrors"
)

func TestPriceAllZeros(t *testing.T) {
	dist := payoff.Distribution{Variant: payoff.EuropeanCall, Values: make([]float64, 100)}
	est, err := Price(dist, 0.96)
	if err != nil {
		t.Fatalf("Price: %v", err)
	}
	if est.Value != 0 || est.StdErr != 0 {
		t.Errorf("all-zero payoffs must price to exactly 0, got %+v", est)
	}
}

func TestPriceLinearScaling(t *testing.T) {
	dist := payoff.Distribution{Variant: payoff.LookbackCall, Values: []float64{1.5, 0, 7.25, 3, 12}}
	df := math.Exp(-0.05 * 0.75)
	base, err := Price(dist, df)
	if err != nil {
		t.Fatalf("Price: %v", err)
	}
	for _, k := range []float64{0, 0.5, 2, 10} {
		scaled, err := Price(dist.Scale(k), df)
		if err != nil {
			t.Fatalf("Price(k=%v): %v", k, err)
		}
		if math.Abs(scaled.Value-k*base.Value) > 1e-12 {
			t.Errorf("k=%v: got %v, want %v", k, scaled.Value, k*base.Value)
		}
	}
}

func TestPriceSinglePayoff(t *testing.T) {
	dist := payoff.Distribution{Variant: payoff.AverageStrikePut, Values: []float64{4}}
	est, err := Price(dist, 0.9)
	if err != nil {
		t.Fatalf("Price: %v", err)
	}
	if math.Abs(est.Value-3.6) > 1e-12 {
		t.Errorf("Value = %v, want 3.6", est.Value)
	}
	if est.StdErr != 0 || est.Paths != 1 {
		t.Errorf("single payoff must have zero std err, got %+v", est)
	}
}

func TestPriceEmptyDistribution(t *testing.T) {
	_, err := Price(payoff.Distribution{Variant: payoff.LookbackPut}, 0.9)
	if !errors.Is(err, xerrors.ErrEmptyDistribution) {
		t.Fatalf("expected ErrEmptyDistribution, got %v", err)
	}
	if !xerrors.IsType(err, xerrors.ErrInvalidInput) {
		t.Errorf("expected InvalidInput type")
	}
}

func TestPriceInvalidDiscount(t *testing.T) {
	dist := payoff.Distribution{Values: []float64{1}}
	for _, df := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if _, err := Price(dist, df); !errors.Is(err, xerrors.ErrInvalidDiscount) {
			t.Errorf("df=%v: expected ErrInvalidDiscount, got %v", df, err)
		}
	}
}

func TestPriceTruncation(t *testing.T) {
	dist := payoff.Distribution{Values: []float64{12.345678}}
	full, _ := Price(dist, 1)
	if full.Value != 12.345678 {
		t.Errorf("full precision expected by default, got %v", full.Value)
	}
	trunc, err := Price(dist, 1, WithTruncation(4))
	if err != nil {
		t.Fatalf("Price: %v", err)
	}
	if trunc.Value != 12.3456 {
		t.Errorf("truncated = %v, want 12.3456", trunc.Value)
	}
}

func TestPriceConfidenceInterval(t *testing.T) {
	dist := payoff.Distribution{Values: []float64{0, 2, 4, 6, 8}}
	est, err := Price(dist, 1)
	if err != nil {
		t.Fatalf("Price: %v", err)
	}
	if est.Value != 4 {
		t.Fatalf("Value = %v", est.Value)
	}
	// 样本标准差 sqrt(10)，标准误 sqrt(10)/sqrt(5) = sqrt(2)
	if math.Abs(est.StdErr-math.Sqrt2) > 1e-12 {
		t.Errorf("StdErr = %v, want %v", est.StdErr, math.Sqrt2)
	}
	half := est.ConfidenceHigh - est.Value
	if math.Abs(half-1.959963984540054*math.Sqrt2) > 1e-9 {
		t.Errorf("half width = %v", half)
	}
	if math.Abs((est.Value-est.ConfidenceLow)-half) > 1e-12 {
		t.Errorf("interval must be symmetric")
	}
}
