package montecarlo

// Path 是一条模拟价格轨迹，下标 0 为初始价格，生成后不再修改。
type Path []float64

// Len 返回观测点数量 (steps + 1)。
func (p Path) Len() int { return len(p) }

// Final 返回到期价格 S_T。
func (p Path) Final() float64 {
	return p[len(p)-1]
}

// Min 返回路径最小值。
func (p Path) Min() float64 {
	m := p[0]
	for _, v := range p[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// Max 返回路径最大值。
func (p Path) Max() float64 {
	m := p[0]
	for _, v := range p[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// AverageExcludingFinal 返回不含最后一个观测点的算术平均，即平均执行价的参考值。
// 只有一个观测点时退化为该点本身。
func (p Path) AverageExcludingFinal() float64 {
	n := len(p) - 1
	if n <= 0 {
		return p[0]
	}
	var sum float64
	for _, v := range p[:n] {
		sum += v
	}
	return sum / float64(n)
}

// PathBatch 是同一组参数下生成的路径集合。
type PathBatch struct {
	Config SimulationConfig
	Seed   uint64
	Paths  []Path
}

// Len 返回路径数量。
func (b *PathBatch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Paths)
}
