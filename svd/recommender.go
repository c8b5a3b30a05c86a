package svd

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/rushteam/newsrec/core"
	"github.com/rushteam/newsrec/pkg/utils"
)

// PredictScores 预测某个用户对矩阵中每篇文章的分数：
// 把用户交互行投影到隐空间，再与文章因子矩阵点积。
func PredictScores(model *Model, m *Matrix, userIdx int) ([]float64, error) {
	if model == nil {
		return nil, core.NewDomainError(core.ModuleSVD, core.ErrorCodeNotFitted, "svd: nil model")
	}
	if err := m.checkUser(userIdx); err != nil {
		return nil, err
	}

	latent := model.Transform(m.Row(userIdx))
	nItems := m.NItems()
	scores := make([]float64, nItems)
	for c, comp := range model.Components {
		w := latent[c]
		if w == 0 {
			continue
		}
		n := nItems
		if len(comp) < n {
			n = len(comp)
		}
		for j := 0; j < n; j++ {
			scores[j] += w * comp[j]
		}
	}
	return scores, nil
}

// PredictPair 预测单个 (用户,文章) 对的分数。
func PredictPair(model *Model, m *Matrix, userIdx, articleIdx int) (float64, error) {
	scores, err := PredictScores(model, m, userIdx)
	if err != nil {
		return 0, err
	}
	if articleIdx < 0 || articleIdx >= len(scores) {
		return 0, core.NewDomainError(core.ModuleSVD, core.ErrorCodeNotFound,
			fmt.Sprintf("svd: article index %d out of range [0,%d)", articleIdx, len(scores)))
	}
	return scores[articleIdx], nil
}

// Recommend 返回预测分前 topK 篇文章的 ID。
// excludeSeen 为 true 时，用户交互过的文章以 -Inf 哨兵沉底并被排除。
// 同分按列号（矩阵原始顺序）并列。topK < 0 视为配置错误。
func Recommend(model *Model, m *Matrix, userIdx, topK int, excludeSeen bool) ([]string, error) {
	if topK < 0 {
		return nil, core.NewDomainError(core.ModuleSVD, core.ErrorCodeInvalidInput,
			fmt.Sprintf("svd: negative topK %d", topK))
	}
	scores, err := PredictScores(model, m, userIdx)
	if err != nil {
		return nil, err
	}
	if excludeSeen {
		for _, col := range m.SeenColumns(userIdx) {
			scores[col] = core.ScoreSeen
		}
	}

	indices := utils.TopIndices(scores, topK)
	m.rebuildArticles()
	out := make([]string, len(indices))
	for i, col := range indices {
		out[i] = m.Articles[col]
	}
	return out, nil
}

// SimilarUsers 在隐空间按余弦相似度返回与目标用户最相似的前 topK 个用户 ID
// （排除其自身）。
func SimilarUsers(model *Model, m *Matrix, userIdx, topK int) ([]string, error) {
	if model == nil {
		return nil, core.NewDomainError(core.ModuleSVD, core.ErrorCodeNotFitted, "svd: nil model")
	}
	if err := m.checkUser(userIdx); err != nil {
		return nil, err
	}
	if topK < 0 {
		return nil, core.NewDomainError(core.ModuleSVD, core.ErrorCodeInvalidInput,
			fmt.Sprintf("svd: negative topK %d", topK))
	}

	factors := make([][]float64, m.NUsers())
	for u := range factors {
		factors[u] = model.Transform(m.Row(u))
	}
	target := factors[userIdx]

	scores := make([]float64, len(factors))
	for u, f := range factors {
		scores[u] = cosineDense(target, f)
	}
	scores[userIdx] = core.ScoreSeen

	indices := utils.TopIndices(scores, topK)
	out := make([]string, len(indices))
	for i, u := range indices {
		out[i] = m.Users[u]
	}
	return out, nil
}

// SimilarArticles 在隐空间按余弦相似度返回与目标文章最相似的前 topK 篇
// 文章 ID（排除其自身）。
func SimilarArticles(model *Model, articleID string, topK int) ([]string, error) {
	if model == nil {
		return nil, core.NewDomainError(core.ModuleSVD, core.ErrorCodeNotFitted, "svd: nil model")
	}
	if topK < 0 {
		return nil, core.NewDomainError(core.ModuleSVD, core.ErrorCodeInvalidInput,
			fmt.Sprintf("svd: negative topK %d", topK))
	}
	target := -1
	for col, id := range model.Articles {
		if id == articleID {
			target = col
			break
		}
	}
	if target < 0 {
		return nil, core.NewDomainError(core.ModuleSVD, core.ErrorCodeNotFound,
			fmt.Sprintf("svd: article %s not in model", articleID))
	}

	targetFactor := model.ArticleFactor(target)
	scores := make([]float64, len(model.Articles))
	for col := range model.Articles {
		scores[col] = cosineDense(targetFactor, model.ArticleFactor(col))
	}
	scores[target] = core.ScoreSeen

	indices := utils.TopIndices(scores, topK)
	out := make([]string, len(indices))
	for i, col := range indices {
		out[i] = model.Articles[col]
	}
	return out, nil
}

// cosineDense 计算两个稠密向量的余弦相似度，零向量相似度为 0。
func cosineDense(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return 0
	}
	dot := floats.Dot(a[:n], b[:n])
	na := math.Sqrt(floats.Dot(a[:n], a[:n]))
	nb := math.Sqrt(floats.Dot(b[:n], b[:n]))
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (na * nb)
}
