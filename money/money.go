// Package money 提供了基于 shopspring/decimal 的价格格式化与截断能力.
package money

import (
	"math"

	"github.com/shopspring/decimal"
)

// Money 封装了高精度的金额处理.
type Money struct {
	value decimal.Decimal
}

// New 从 float64 创建 Money.
func New(val float64) Money {
	return Money{value: decimal.NewFromFloat(val)}
}

// NewFromString 从字符串解析金额.
func NewFromString(val string) (Money, error) {
	d, err := decimal.NewFromString(val)
	if err != nil {
		return Money{}, err
	}
	return Money{value: d}, nil
}

// ToFloat 转换为 float64.
func (m Money) ToFloat() float64 {
	f, _ := m.value.Float64()
	return f
}

// Decimal 返回底层 decimal 值.
func (m Money) Decimal() decimal.Decimal {
	return m.value
}

// String 返回格式化后的字符串 (默认 2 位小数，四舍五入).
func (m Money) String() string {
	return m.value.StringFixed(2)
}

// Dollars 以 "$12.34" 形式输出.
func (m Money) Dollars() string {
	return "$" + m.String()
}

// Format 格式化为指定位数的字符串.
func (m Money) Format(places int32) string {
	return m.value.StringFixed(places)
}

// Truncate 向零截断到指定小数位.
func (m Money) Truncate(places int32) Money {
	return Money{value: m.value.Truncate(places)}
}

// Truncate 对浮点价格做小数位截断，等价于 int(v*10^p)/10^p。
// 非有限值原样返回.
func Truncate(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return New(v).Truncate(places).ToFloat()
}

// FormatPrice 以两位小数格式化价格.
func FormatPrice(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return New(v).String()
}
