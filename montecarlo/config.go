// Package montecarlo 实现了几何布朗运动 (GBM) 价格路径的生成与批量并行模拟。
//
// 所有随机数均来自按路径下标派生的独立子流，同一种子在任意并发度下得到逐位一致的路径批次。
package montecarlo

import (
	"math"

	"github.com/wyfcoding/mcpricer/xerrors"
)

// SimulationConfig 定义一次定价运行的模拟参数，构造后只读。
type SimulationConfig struct {
	InitialPrice  float64 `json:"initial_price"`  // 初始价格 S0
	RiskFreeRate  float64 `json:"risk_free_rate"` // 无风险利率 r
	DividendYield float64 `json:"dividend_yield"` // 股息率 q
	Volatility    float64 `json:"volatility"`     // 波动率 sigma
	Maturity      float64 `json:"maturity"`       // 到期时间 (年)
	Steps         int     `json:"steps"`          // 时间步数
	Paths         int     `json:"paths"`          // 路径数量
}

// DefaultSimulationConfig 返回参考场景的参数。
func DefaultSimulationConfig() SimulationConfig {
	return SimulationConfig{
		InitialPrice:  100,
		RiskFreeRate:  0.05,
		DividendYield: 0.02,
		Volatility:    0.4,
		Maturity:      0.75,
		Steps:         250,
		Paths:         10000,
	}
}

// StepSize 返回时间步长 dt = T / N。
func (c SimulationConfig) StepSize() float64 {
	return c.Maturity / float64(c.Steps)
}

// Drift 返回风险中性漂移 r - q。
func (c SimulationConfig) Drift() float64 {
	return c.RiskFreeRate - c.DividendYield
}

// DiscountFactor 返回贴现因子 exp(-rT)。
func (c SimulationConfig) DiscountFactor() float64 {
	return math.Exp(-c.RiskFreeRate * c.Maturity)
}

// Validate 校验参数，任何违规都返回带字段名的 InvalidConfiguration 错误。
// 波动率允许为 0，此时路径退化为确定性曲线。
func (c SimulationConfig) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"initial_price", c.InitialPrice},
		{"risk_free_rate", c.RiskFreeRate},
		{"dividend_yield", c.DividendYield},
		{"volatility", c.Volatility},
		{"maturity", c.Maturity},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return xerrors.InvalidConfiguration(f.name, "%s must be finite, got %v", f.name, f.value)
		}
	}

	switch {
	case c.InitialPrice <= 0:
		return xerrors.InvalidConfiguration("initial_price", "initial price must be positive, got %v", c.InitialPrice)
	case c.Volatility < 0:
		return xerrors.InvalidConfiguration("volatility", "volatility must be non-negative, got %v", c.Volatility)
	case c.Maturity <= 0:
		return xerrors.InvalidConfiguration("maturity", "maturity must be positive, got %v", c.Maturity)
	case c.Steps <= 0:
		return xerrors.InvalidConfiguration("steps", "step count must be positive, got %d", c.Steps)
	case c.Paths <= 0:
		return xerrors.InvalidConfiguration("paths", "path count must be positive, got %d", c.Paths)
	}

	if dt := c.StepSize(); !(dt > 0) || math.IsInf(dt, 0) {
		return xerrors.InvalidConfiguration("steps", "step size must be positive, got %v", dt)
	}
	return nil
}
