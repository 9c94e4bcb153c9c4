package payoff

import (
	"math"

	"github.com/wyfcoding/mcpricer/montecarlo"
	"github.com/wyfcoding/mcpricer/xerrors"
)

// Spec 一次定价选择：变体以及欧式变体所需的行权价。
type Spec struct {
	Variant Variant `json:"variant"`
	Strike  float64 `json:"strike,omitempty"`
}

// Validate 校验变体合法，欧式变体要求正的有限行权价。
func (s Spec) Validate() error {
	if _, ok := labels[s.Variant]; !ok {
		return xerrors.InvalidInput(xerrors.ErrUnknownVariant, "unknown option variant %q", s.Variant)
	}
	if s.Variant.IsEuropean() && (!(s.Strike > 0) || math.IsInf(s.Strike, 0)) {
		return xerrors.InvalidInput(xerrors.ErrMissingStrike, "%s requires a positive strike, got %v", s.Variant, s.Strike)
	}
	return nil
}

// Label 返回展示名称。
func (s Spec) Label() string { return s.Variant.Label() }

// Func 把一条路径映射为非负收益，无副作用。
type Func func(montecarlo.Path) float64

// For 返回 spec 对应的收益函数。
func For(spec Spec) (Func, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	switch spec.Variant {
	case AverageStrikeCall:
		return func(p montecarlo.Path) float64 {
			return math.Max(p.Final()-p.AverageExcludingFinal(), 0)
		}, nil
	case AverageStrikePut:
		return func(p montecarlo.Path) float64 {
			return math.Max(p.AverageExcludingFinal()-p.Final(), 0)
		}, nil
	case LookbackCall:
		// 最小值不超过终值，差值天然非负
		return func(p montecarlo.Path) float64 {
			return p.Final() - p.Min()
		}, nil
	case LookbackPut:
		return func(p montecarlo.Path) float64 {
			return p.Max() - p.Final()
		}, nil
	case EuropeanCall:
		strike := spec.Strike
		return func(p montecarlo.Path) float64 {
			return math.Max(p.Final()-strike, 0)
		}, nil
	default:
		strike := spec.Strike
		return func(p montecarlo.Path) float64 {
			return math.Max(strike-p.Final(), 0)
		}, nil
	}
}
