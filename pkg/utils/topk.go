package utils

import (
	"math"
	"sort"
)

// TopIndices 返回分数最高的前 k 个下标，降序排列。
// 同分时保持原始下标顺序（稳定并列规则）；-Inf 哨兵（已读标记）直接排除。
// k < 0 由调用方做前置校验；k 超过候选数时返回全部。
func TopIndices(scores []float64, k int) []int {
	idx := make([]int, 0, len(scores))
	for i, s := range scores {
		if math.IsInf(s, -1) {
			continue
		}
		idx = append(idx, i)
	}
	sort.Slice(idx, func(a, b int) bool {
		if scores[idx[a]] != scores[idx[b]] {
			return scores[idx[a]] > scores[idx[b]]
		}
		return idx[a] < idx[b]
	})
	if k >= 0 && len(idx) > k {
		idx = idx[:k]
	}
	return idx
}
