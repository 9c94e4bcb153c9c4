package montecarlo

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/wyfcoding/mcpricer/xerrors"
)

// Statistics 汇总批次中到期价格的分布。
type Statistics struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Count  int     `json:"count"`
}

// TerminalStatistics 计算批次到期价格的均值、标准差与极值。
func TerminalStatistics(batch *PathBatch) (Statistics, error) {
	if batch.Len() == 0 {
		return Statistics{}, xerrors.InvalidInput(xerrors.ErrEmptyBatch, "path batch is empty")
	}

	finals := make([]float64, batch.Len())
	for i, p := range batch.Paths {
		finals[i] = p.Final()
	}

	st := Statistics{
		Mean:  stat.Mean(finals, nil),
		Min:   floats.Min(finals),
		Max:   floats.Max(finals),
		Count: len(finals),
	}
	if len(finals) > 1 {
		st.StdDev = stat.StdDev(finals, nil)
	}
	return st, nil
}
