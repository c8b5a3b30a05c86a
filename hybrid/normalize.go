// Package hybrid 把内容分（TF-IDF 余弦）与协同分（SVD 预测）按可配置策略
// 融合为最终排序分。
//
// 所有策略都消费 Normalize 之后的分数向量；策略输出再经已读掩码与 TopK
// 选择（与 content/svd 一致的收尾路径）。
package hybrid

// NeutralScore 是退化情形的中性分：全体分数相同（无区分信号）时
// 归一化返回常数 0.5，保持相对中立而不是产生 NaN。
const NeutralScore = 0.5

// Normalize 用 min-max 缩放把分数映射到 [0,1]。
// 空输入原样返回；全体相同时返回常数 NeutralScore 向量。
func Normalize(scores []float64) []float64 {
	if len(scores) == 0 {
		return scores
	}

	min, max := scores[0], scores[0]
	for _, s := range scores[1:] {
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}

	out := make([]float64, len(scores))
	if max == min {
		for i := range out {
			out[i] = NeutralScore
		}
		return out
	}
	span := max - min
	for i, s := range scores {
		out[i] = (s - min) / span
	}
	return out
}
