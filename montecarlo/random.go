package montecarlo

import (
	"golang.org/x/exp/rand"
)

// NormalSource 是路径生成所需的标准正态随机源。
type NormalSource interface {
	NormFloat64() float64
}

// StreamSeed 由全局种子与路径下标派生子流种子 (splitmix64)。
// 结果只取决于 (seed, pathIndex)，与工作协程数量无关。
func StreamSeed(seed uint64, pathIndex int) uint64 {
	z := seed + uint64(pathIndex+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// NewStream 返回第 pathIndex 条路径专属的 PCG 随机流，游标只前进不回退。
func NewStream(seed uint64, pathIndex int) NormalSource {
	return rand.New(rand.NewSource(StreamSeed(seed, pathIndex)))
}
