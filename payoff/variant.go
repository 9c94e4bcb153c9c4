// Package payoff 定义期权变体及其逐路径收益函数。
package payoff

import (
	"strings"

	"github.com/wyfcoding/mcpricer/xerrors"
)

// Variant 期权变体。
type Variant string

const (
	AverageStrikeCall Variant = "average_strike_call"
	AverageStrikePut  Variant = "average_strike_put"
	LookbackCall      Variant = "lookback_call"
	LookbackPut       Variant = "lookback_put"
	EuropeanCall      Variant = "european_call"
	EuropeanPut       Variant = "european_put"
)

const (
	// DefaultCallStrike 欧式看涨默认行权价。
	DefaultCallStrike = 110.0
	// DefaultPutStrike 欧式看跌默认行权价。
	DefaultPutStrike = 90.0
)

var labels = map[Variant]string{
	AverageStrikeCall: "Average Strike Call Option",
	AverageStrikePut:  "Average Strike Put Option",
	LookbackCall:      "Lookback Call Option",
	LookbackPut:       "Lookback Put Option",
	EuropeanCall:      "European Call Option",
	EuropeanPut:       "European Put Option",
}

// AllVariants 按固定顺序返回全部支持的变体。
func AllVariants() []Variant {
	return []Variant{
		AverageStrikeCall, AverageStrikePut,
		LookbackCall, LookbackPut,
		EuropeanCall, EuropeanPut,
	}
}

// ParseVariant 解析变体名称，忽略大小写并接受 "-" 作为分隔符。
func ParseVariant(s string) (Variant, error) {
	v := Variant(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if _, ok := labels[v]; !ok {
		return "", xerrors.InvalidInput(xerrors.ErrUnknownVariant, "unknown option variant %q", s)
	}
	return v, nil
}

// Label 返回报告使用的展示名称。
func (v Variant) Label() string {
	if l, ok := labels[v]; ok {
		return l
	}
	return string(v)
}

// IsEuropean 是否为固定行权价变体。
func (v Variant) IsEuropean() bool {
	return v == EuropeanCall || v == EuropeanPut
}

// DefaultStrike 返回欧式变体的默认行权价，其余变体返回 0。
func (v Variant) DefaultStrike() float64 {
	switch v {
	case EuropeanCall:
		return DefaultCallStrike
	case EuropeanPut:
		return DefaultPutStrike
	default:
		return 0
	}
}

func (v Variant) String() string { return string(v) }
