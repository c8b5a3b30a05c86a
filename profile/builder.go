// Package profile 从交互历史构建用户偏好向量。
//
// 偏好向量与文章特征向量同维（特征空间由 vectorize 的词表决定），
// 是用户读过文章向量的加权平均。冷启动（没有任何交互能解析到已拟合
// 文章）时返回零向量——调用方应把零向量理解为"无个性化信号"，而不是错误。
package profile

import (
	"fmt"

	"github.com/rushteam/newsrec/core"
	"github.com/rushteam/newsrec/vectorize"
)

// WeightEpsilon 是归一化分母的下限，避免除零。
const WeightEpsilon = 1e-6

// ArticleVectors 是画像构建对文章向量的最小依赖。
// *vectorize.TfidfVectorizer 实现此接口。
type ArticleVectors interface {
	VectorFor(articleID string) (vectorize.SparseVec, error)
	Matrix() *vectorize.Matrix
	Generation() uint64
}

// Vector 是用户偏好向量，维度与文章特征矩阵一致。
// Gen 标记其来源的拟合代数，跨代与特征矩阵混用会被打分侧拒绝。
type Vector struct {
	Values []float64
	Gen    uint64
}

// IsZero 判断是否为"无个性化信号"的零向量。
func (v Vector) IsZero() bool {
	for _, x := range v.Values {
		if x != 0 {
			return false
		}
	}
	return true
}

// BuildFromInteractions 按点击加权平均交互文章的特征向量。
// 无法解析到已拟合文章的交互被跳过；全部跳过时返回零向量（冷启动）。
func BuildFromInteractions(interactions []*core.Interaction, vectors ArticleVectors) (Vector, error) {
	matrix := vectors.Matrix()
	if matrix == nil {
		return Vector{}, vectorize.ErrNotFitted
	}

	acc := make([]float64, matrix.Dim)
	var totalWeight float64

	for _, inter := range interactions {
		row, err := vectors.VectorFor(inter.ArticleID)
		if err != nil {
			// 交互指向本批语料之外的文章：跳过，不视为错误
			continue
		}
		weight := float64(inter.Clicks)
		if weight <= 0 {
			weight = 1.0
		}
		for i, col := range row.Indices {
			acc[col] += row.Values[i] * weight
		}
		totalWeight += weight
	}

	if totalWeight > 0 {
		denom := totalWeight
		if denom < WeightEpsilon {
			denom = WeightEpsilon
		}
		for i := range acc {
			acc[i] /= denom
		}
	}
	return Vector{Values: acc, Gen: matrix.Gen}, nil
}

// BuildFromInterests 按兴趣标签构建画像（没有交互历史时的替代入口）：
// 平均所有类别命中任一标签的文章向量。categories 与矩阵行对齐。
// 没有命中时同样返回零向量。
func BuildFromInterests(interestTags []string, articleCategories []string, vectors ArticleVectors) (Vector, error) {
	matrix := vectors.Matrix()
	if matrix == nil {
		return Vector{}, vectorize.ErrNotFitted
	}
	if len(articleCategories) != matrix.Len() {
		return Vector{}, core.NewDomainError(core.ModuleProfile, core.ErrorCodeInvalidInput,
			fmt.Sprintf("profile: categories/matrix length mismatch: %d != %d", len(articleCategories), matrix.Len()))
	}

	tagSet := make(map[string]bool, len(interestTags))
	for _, tag := range interestTags {
		tagSet[tag] = true
	}

	acc := make([]float64, matrix.Dim)
	count := 0
	for i, category := range articleCategories {
		if !tagSet[category] {
			continue
		}
		row := matrix.Row(i)
		for j, col := range row.Indices {
			acc[col] += row.Values[j]
		}
		count++
	}

	if count > 0 {
		for i := range acc {
			acc[i] /= float64(count)
		}
	}
	return Vector{Values: acc, Gen: matrix.Gen}, nil
}

// UpdateIncremental 用指数滑动平均把一条新交互融入既有画像：
//
//	profile' = (1-lr)*profile + lr*weight*vec
//
// lr 必须在 (0,1]。新交互指向未知文章时画像原样返回。
func UpdateIncremental(current Vector, inter *core.Interaction, vectors ArticleVectors, learningRate float64) (Vector, error) {
	if learningRate <= 0 || learningRate > 1 {
		return Vector{}, core.NewDomainError(core.ModuleProfile, core.ErrorCodeInvalidInput,
			fmt.Sprintf("profile: learning rate %v out of (0,1]", learningRate))
	}
	if current.Gen != vectors.Generation() {
		return Vector{}, vectorize.ErrNotFitted
	}

	row, err := vectors.VectorFor(inter.ArticleID)
	if err != nil {
		if core.IsNotFound(err) {
			return current, nil
		}
		return Vector{}, err
	}

	weight := float64(inter.Clicks)
	if weight <= 0 {
		weight = 1.0
	}

	updated := make([]float64, len(current.Values))
	for i, x := range current.Values {
		updated[i] = (1 - learningRate) * x
	}
	for i, col := range row.Indices {
		if col < len(updated) {
			updated[col] += learningRate * weight * row.Values[i]
		}
	}
	return Vector{Values: updated, Gen: current.Gen}, nil
}
