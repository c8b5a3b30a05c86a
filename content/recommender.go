// Package content 实现基于内容的推荐（Content-Based Recommendation）。
//
// 核心思想："用户喜欢某些特征的文章，就推荐特征相似的其他文章"——
// 用户偏好向量与每篇文章的 TF-IDF 向量做余弦相似度。
// 已读文章以 -Inf 哨兵（core.ScoreSeen）标记，排序时必然沉底并被 TopK 排除。
package content

import (
	"fmt"

	"github.com/rushteam/newsrec/core"
	"github.com/rushteam/newsrec/pkg/utils"
	"github.com/rushteam/newsrec/profile"
	"github.com/rushteam/newsrec/vectorize"
)

// Score 计算偏好向量与矩阵每行的余弦相似度。
// 偏好向量与矩阵必须来自同一拟合代数，否则列对齐已失效，返回 NOT_FITTED。
func Score(userProfile profile.Vector, matrix *vectorize.Matrix) ([]float64, error) {
	if matrix == nil {
		return nil, vectorize.ErrNotFitted
	}
	if userProfile.Gen != matrix.Gen {
		return nil, vectorize.ErrNotFitted
	}

	scores := make([]float64, matrix.Len())
	for i := range scores {
		scores[i] = vectorize.CosineDense(matrix.Row(i), userProfile.Values)
	}
	return scores, nil
}

// ScoreBatch 为多个用户批量打分，返回 用户×文章 分数矩阵。
func ScoreBatch(profiles []profile.Vector, matrix *vectorize.Matrix) ([][]float64, error) {
	out := make([][]float64, len(profiles))
	for i, p := range profiles {
		scores, err := Score(p, matrix)
		if err != nil {
			return nil, err
		}
		out[i] = scores
	}
	return out, nil
}

// MaskSeen 把 seen 集合中文章对应的分数置为 core.ScoreSeen。
// 返回的是同一底层切片（原地修改）。
func MaskSeen(scores []float64, matrix *vectorize.Matrix, seenIDs []string) []float64 {
	for _, id := range seenIDs {
		if idx, ok := matrix.IndexOf(id); ok && idx < len(scores) {
			scores[idx] = core.ScoreSeen
		}
	}
	return scores
}

// Recommend 基于偏好向量返回前 topK 篇文章的 ID，按相似度降序。
// 同分按矩阵原始顺序；seen 中的文章绝不出现在结果中。
// topK < 0 视为配置错误，立即失败。
func Recommend(userProfile profile.Vector, matrix *vectorize.Matrix, seenIDs []string, topK int) ([]string, error) {
	if topK < 0 {
		return nil, core.NewDomainError(core.ModuleContent, core.ErrorCodeInvalidInput,
			fmt.Sprintf("content: negative topK %d", topK))
	}
	scores, err := Score(userProfile, matrix)
	if err != nil {
		return nil, err
	}
	MaskSeen(scores, matrix, seenIDs)

	indices := utils.TopIndices(scores, topK)
	out := make([]string, len(indices))
	for i, idx := range indices {
		out[i] = matrix.IDs[idx]
	}
	return out, nil
}

// Similar 返回与给定文章最相似的前 topK 篇（排除其自身）。
// 未知文章 ID 返回 NOT_FOUND。
func Similar(articleID string, matrix *vectorize.Matrix, topK int) ([]string, error) {
	if matrix == nil {
		return nil, vectorize.ErrNotFitted
	}
	if topK < 0 {
		return nil, core.NewDomainError(core.ModuleContent, core.ErrorCodeInvalidInput,
			fmt.Sprintf("content: negative topK %d", topK))
	}
	selfIdx, ok := matrix.IndexOf(articleID)
	if !ok {
		return nil, core.NewDomainError(core.ModuleContent, core.ErrorCodeNotFound,
			fmt.Sprintf("content: article %s not found in fitted corpus", articleID))
	}

	query := matrix.Row(selfIdx)
	scores := make([]float64, matrix.Len())
	for i := range scores {
		scores[i] = vectorize.Cosine(query, matrix.Row(i))
	}
	scores[selfIdx] = core.ScoreSeen

	indices := utils.TopIndices(scores, topK)
	out := make([]string, len(indices))
	for i, idx := range indices {
		out[i] = matrix.IDs[idx]
	}
	return out, nil
}
