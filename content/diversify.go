package content

import "github.com/rushteam/newsrec/vectorize"

// Diversify 对已排序的推荐列表做贪心多样性重排：
// 保留榜首，之后每轮从剩余项中选出
//
//	(1-λ)*position_score + λ*(1-avg_similarity_to_selected)
//
// 最大的一项。position_score 奖励原列表中靠前的位置，第二项奖励与已选
// 集合的不相似度。λ ∈ [0,1]，0 时退化为原始顺序。
// 结果与输入是同一个 ID 集合（只换序，不增删）。
//
// 复杂度 O(n²·选中数)，n 是单页候选（几十条），可接受。
func Diversify(rankedIDs []string, matrix *vectorize.Matrix, diversityWeight float64) []string {
	if len(rankedIDs) <= 1 || matrix == nil {
		return rankedIDs
	}
	if diversityWeight < 0 {
		diversityWeight = 0
	}
	if diversityWeight > 1 {
		diversityWeight = 1
	}

	selected := make([]string, 0, len(rankedIDs))
	selected = append(selected, rankedIDs[0])
	remaining := make([]string, len(rankedIDs)-1)
	copy(remaining, rankedIDs[1:])

	for len(remaining) > 0 {
		bestPos := -1
		bestScore := -1.0

		for pos, id := range remaining {
			idx, ok := matrix.IndexOf(id)
			if !ok {
				// 不在矩阵中的 ID 无相似度可言，按原位次顺延
				continue
			}
			candidate := matrix.Row(idx)

			var simSum float64
			var simCount int
			for _, sel := range selected {
				selIdx, ok := matrix.IndexOf(sel)
				if !ok {
					continue
				}
				simSum += vectorize.Cosine(candidate, matrix.Row(selIdx))
				simCount++
			}
			avgSim := 0.0
			if simCount > 0 {
				avgSim = simSum / float64(simCount)
			}

			positionScore := 1.0 - float64(pos)/float64(len(remaining))
			score := (1-diversityWeight)*positionScore + diversityWeight*(1-avgSim)
			if score > bestScore {
				bestScore = score
				bestPos = pos
			}
		}

		if bestPos < 0 {
			// 剩余项全部不在矩阵中：按原顺序补齐
			selected = append(selected, remaining...)
			break
		}
		selected = append(selected, remaining[bestPos])
		remaining = append(remaining[:bestPos], remaining[bestPos+1:]...)
	}
	return selected
}
