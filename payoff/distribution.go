package payoff

import (
	"github.com/sourcegraph/conc/iter"
	"gonum.org/v1/gonum/stat"

	"github.com/wyfcoding/mcpricer/montecarlo"
	"github.com/wyfcoding/mcpricer/xerrors"
)

// Distribution 同一变体在一个路径批次上的收益序列，顺序与路径一致。
type Distribution struct {
	Variant Variant   `json:"variant"`
	Label   string    `json:"label"`
	Values  []float64 `json:"values"`
}

// Len 返回收益个数。
func (d Distribution) Len() int { return len(d.Values) }

// Mean 返回平均收益，空分布返回 NaN。
func (d Distribution) Mean() float64 {
	return stat.Mean(d.Values, nil)
}

// Scale 返回每个收益乘以 k 后的新分布，原分布不变。
func (d Distribution) Scale(k float64) Distribution {
	scaled := make([]float64, len(d.Values))
	for i, v := range d.Values {
		scaled[i] = k * v
	}
	return Distribution{Variant: d.Variant, Label: d.Label, Values: scaled}
}

// Evaluate 把 spec 对应的收益函数并行作用于批次中的每条路径。
func Evaluate(batch *montecarlo.PathBatch, spec Spec) (Distribution, error) {
	fn, err := For(spec)
	if err != nil {
		return Distribution{}, err
	}
	if batch.Len() == 0 {
		return Distribution{}, xerrors.InvalidInput(xerrors.ErrEmptyBatch, "cannot evaluate %s on an empty batch", spec.Variant)
	}

	values := iter.Map(batch.Paths, func(p *montecarlo.Path) float64 {
		return fn(*p)
	})
	return Distribution{Variant: spec.Variant, Label: spec.Label(), Values: values}, nil
}
