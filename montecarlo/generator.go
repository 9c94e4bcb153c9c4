package montecarlo

import "math"

// Generator 预先计算 GBM 递推的对数增量系数，对同一组参数反复生成路径。
type Generator struct {
	cfg       SimulationConfig
	drift     float64 // (r - q - sigma^2/2) * dt
	diffusion float64 // sigma * sqrt(dt)
}

// NewGenerator 校验参数并构造生成器。
func NewGenerator(cfg SimulationConfig) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dt := cfg.StepSize()
	return &Generator{
		cfg:       cfg,
		drift:     (cfg.Drift() - 0.5*cfg.Volatility*cfg.Volatility) * dt,
		diffusion: cfg.Volatility * math.Sqrt(dt),
	}, nil
}

// Generate 从 src 每步抽取一个标准正态数，生成长度为 steps+1 的路径：
// S(t) = S(t-1) * exp((r - q - sigma^2/2)dt + sigma*sqrt(dt)*Z)
func (g *Generator) Generate(src NormalSource) Path {
	p := make(Path, g.cfg.Steps+1)
	g.fill(p, src)
	return p
}

func (g *Generator) fill(p Path, src NormalSource) {
	p[0] = g.cfg.InitialPrice
	for t := 1; t < len(p); t++ {
		z := src.NormFloat64()
		p[t] = p[t-1] * math.Exp(g.drift+g.diffusion*z)
	}
}

// GeneratePath 校验参数后生成单条路径，参数非法时不做任何模拟。
func GeneratePath(cfg SimulationConfig, src NormalSource) (Path, error) {
	g, err := NewGenerator(cfg)
	if err != nil {
		return nil, err
	}
	return g.Generate(src), nil
}
