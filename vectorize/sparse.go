package vectorize

import "math"

// SparseVec 是一行稀疏特征向量（索引递增）。
// Gen 标记其来源的拟合代数：重新 Fit 之后特征列对齐即失效，
// 跨代混用由调用方通过 Gen 检查拒绝。
type SparseVec struct {
	Indices []int
	Values  []float64
	Dim     int
	Gen     uint64
}

// Dot 计算两个稀疏向量的点积（双指针归并）。
func (v SparseVec) Dot(o SparseVec) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(v.Indices) && j < len(o.Indices) {
		switch {
		case v.Indices[i] == o.Indices[j]:
			sum += v.Values[i] * o.Values[j]
			i++
			j++
		case v.Indices[i] < o.Indices[j]:
			i++
		default:
			j++
		}
	}
	return sum
}

// DotDense 计算稀疏向量与稠密向量的点积。
func (v SparseVec) DotDense(dense []float64) float64 {
	var sum float64
	for i, idx := range v.Indices {
		if idx < len(dense) {
			sum += v.Values[i] * dense[idx]
		}
	}
	return sum
}

// Norm 返回 L2 范数。
func (v SparseVec) Norm() float64 {
	var sum float64
	for _, val := range v.Values {
		sum += val * val
	}
	return math.Sqrt(sum)
}

// Dense 展开为稠密向量。
func (v SparseVec) Dense() []float64 {
	out := make([]float64, v.Dim)
	for i, idx := range v.Indices {
		out[idx] = v.Values[i]
	}
	return out
}

// Cosine 计算两个稀疏向量的余弦相似度，零向量相似度为 0。
func Cosine(a, b SparseVec) float64 {
	na, nb := a.Norm(), b.Norm()
	if na == 0 || nb == 0 {
		return 0
	}
	return a.Dot(b) / (na * nb)
}

// CosineDense 计算稀疏向量与稠密向量的余弦相似度。
func CosineDense(a SparseVec, dense []float64) float64 {
	na := a.Norm()
	var nb float64
	for _, x := range dense {
		nb += x * x
	}
	nb = math.Sqrt(nb)
	if na == 0 || nb == 0 {
		return 0
	}
	return a.DotDense(dense) / (na * nb)
}

// Matrix 是文章×特征矩阵：每行一篇文章的 TF-IDF 向量，按拟合时的顺序排列。
type Matrix struct {
	Rows []SparseVec
	IDs  []string // 与 Rows 对齐的文章 ID
	Dim  int
	Gen  uint64

	index map[string]int
}

// NewMatrix 构建矩阵并建立 ID -> 行号索引。
func NewMatrix(ids []string, rows []SparseVec, dim int, gen uint64) *Matrix {
	index := make(map[string]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}
	return &Matrix{Rows: rows, IDs: ids, Dim: dim, Gen: gen, index: index}
}

// Len 返回行数（文章数）。
func (m *Matrix) Len() int {
	return len(m.Rows)
}

// IndexOf 返回文章所在行号。
func (m *Matrix) IndexOf(id string) (int, bool) {
	idx, ok := m.index[id]
	return idx, ok
}

// Row 返回第 i 行向量。
func (m *Matrix) Row(i int) SparseVec {
	return m.Rows[i]
}
