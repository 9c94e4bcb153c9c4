// Package pricing 把收益分布折现为价格估计，并编排一次完整的模拟定价运行。
package pricing

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/wyfcoding/mcpricer/money"
	"github.com/wyfcoding/mcpricer/payoff"
	"github.com/wyfcoding/mcpricer/xerrors"
)

// confidenceLevel 置信区间的双侧水平。
const confidenceLevel = 0.95

// Estimate 一个变体的价格估计。
type Estimate struct {
	Variant        payoff.Variant `json:"variant"`
	Label          string         `json:"label"`
	Value          float64        `json:"price"`           // df * mean
	MeanPayoff     float64        `json:"mean_payoff"`     // 未折现平均收益
	StdErr         float64        `json:"std_err"`         // df * sd / sqrt(n)
	ConfidenceLow  float64        `json:"confidence_low"`  // 95% 区间下界
	ConfidenceHigh float64        `json:"confidence_high"` // 95% 区间上界
	DiscountFactor float64        `json:"discount_factor"`
	Paths          int            `json:"paths"`
}

type priceOptions struct {
	truncate bool
	places   int32
}

// PriceOption 定价选项。
type PriceOption func(*priceOptions)

// WithTruncation 把折现价格向零截断到 places 位小数。默认保留完整精度。
func WithTruncation(places int32) PriceOption {
	return func(o *priceOptions) {
		o.truncate = true
		o.places = places
	}
}

// Price 计算 discountFactor * mean(dist)。
// 空分布返回 InvalidInput，从不返回 0 或 NaN 作为替代。
func Price(dist payoff.Distribution, discountFactor float64, opts ...PriceOption) (Estimate, error) {
	var o priceOptions
	for _, opt := range opts {
		opt(&o)
	}

	n := dist.Len()
	if n == 0 {
		return Estimate{}, xerrors.InvalidInput(xerrors.ErrEmptyDistribution, "cannot price %s: no payoffs", dist.Variant)
	}
	if !(discountFactor > 0) || math.IsInf(discountFactor, 0) {
		return Estimate{}, xerrors.InvalidInput(xerrors.ErrInvalidDiscount, "discount factor %v", discountFactor)
	}

	var mean, sd float64
	if n == 1 {
		mean = dist.Values[0]
	} else {
		mean, sd = stat.MeanStdDev(dist.Values, nil)
	}

	value := discountFactor * mean
	stdErr := discountFactor * sd / math.Sqrt(float64(n))
	half := distuv.UnitNormal.Quantile(0.5+confidenceLevel/2) * stdErr
	if o.truncate {
		value = money.Truncate(value, o.places)
	}

	return Estimate{
		Variant:        dist.Variant,
		Label:          dist.Label,
		Value:          value,
		MeanPayoff:     mean,
		StdErr:         stdErr,
		ConfidenceLow:  value - half,
		ConfidenceHigh: value + half,
		DiscountFactor: discountFactor,
		Paths:          n,
	}, nil
}
