package svd

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/newsrec/core"
)

// oversampling 是随机化 SVD 的过采样维数（Halko et al. 推荐 5~10）。
const oversampling = 10

// Train 在交互矩阵上训练截断 SVD。
// 隐因子个数被钳制到 min(nComponents, nUsers-1, nItems-1)；
// 钳制结果 ≤ 0 时返回 INSUFFICIENT_DATA。
// 小矩阵（k+过采样 ≥ min(m,n)）走精确薄 SVD；大矩阵走以 seed
// 为随机源的随机化投影算法，结果可复现。
func Train(m *Matrix, nComponents int, seed int64) (*Model, error) {
	nUsers, nItems := m.NUsers(), m.NItems()

	maxComponents := nUsers - 1
	if nItems-1 < maxComponents {
		maxComponents = nItems - 1
	}
	if maxComponents <= 0 {
		return nil, core.NewDomainError(core.ModuleSVD, core.ErrorCodeInsufficientData,
			fmt.Sprintf("svd: not enough data to train, matrix shape %dx%d", nUsers, nItems))
	}
	k := nComponents
	if k > maxComponents {
		k = maxComponents
	}
	if k <= 0 {
		return nil, core.NewDomainError(core.ModuleSVD, core.ErrorCodeInvalidInput,
			fmt.Sprintf("svd: non-positive component count %d", nComponents))
	}

	a := mat.NewDense(nUsers, nItems, nil)
	for u, row := range m.Dense() {
		a.SetRow(u, row)
	}

	var u, v *mat.Dense
	var sigma []float64
	var err error
	minDim := nUsers
	if nItems < minDim {
		minDim = nItems
	}
	if k+oversampling >= minDim {
		u, sigma, v, err = thinSVD(a)
	} else {
		u, sigma, v, err = randomizedSVD(a, k+oversampling, seed)
	}
	if err != nil {
		return nil, err
	}

	// 截断到 k 个因子；components = Vᵀ 的前 k 行（k×nItems）
	components := make([][]float64, k)
	for c := 0; c < k; c++ {
		components[c] = make([]float64, nItems)
		for j := 0; j < nItems; j++ {
			components[c][j] = v.At(j, c)
		}
	}
	singular := make([]float64, k)
	copy(singular, sigma[:k])

	m.rebuildArticles()
	articles := make([]string, len(m.Articles))
	copy(articles, m.Articles)

	model := &Model{
		K:          k,
		NItems:     nItems,
		Components: components,
		Singular:   singular,
		Articles:   articles,
	}
	model.ExplainedVariance = explainedVariance(a, u, sigma, k)
	return model, nil
}

// thinSVD 计算精确薄 SVD。
func thinSVD(a *mat.Dense) (*mat.Dense, []float64, *mat.Dense, error) {
	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, nil, nil, core.NewDomainError(core.ModuleSVD, core.ErrorCodeInternalError, "svd: factorization failed to converge")
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	return &u, svd.Values(nil), &v, nil
}

// randomizedSVD 用随机投影（Halko/Martinsson/Tropp）近似前 p 个奇异方向：
// Y = A·Ω → QR(Y) = Q → B = Qᵀ·A → 薄 SVD(B)，再把左奇异向量映回 U = Q·Ũ。
func randomizedSVD(a *mat.Dense, p int, seed int64) (*mat.Dense, []float64, *mat.Dense, error) {
	_, cols := a.Dims()
	rng := rand.New(rand.NewSource(seed))

	omega := mat.NewDense(cols, p, nil)
	for i := 0; i < cols; i++ {
		for j := 0; j < p; j++ {
			omega.Set(i, j, rng.NormFloat64())
		}
	}

	var y mat.Dense
	y.Mul(a, omega) // rows×p

	var qr mat.QR
	qr.Factorize(&y)
	var q mat.Dense
	qr.QTo(&q) // rows×p 正交基

	var b mat.Dense
	b.Mul(q.T(), a) // p×cols

	uSmall, sigma, v, err := thinSVD(&b)
	if err != nil {
		return nil, nil, nil, err
	}

	var u mat.Dense
	u.Mul(&q, uSmall)
	return &u, sigma, v, nil
}

// explainedVariance 计算前 k 个因子解释的方差占比。
// 隐空间坐标为 U·Σ，各维方差之和与原矩阵各列方差之和的比值。
func explainedVariance(a, u *mat.Dense, sigma []float64, k int) float64 {
	rows, cols := a.Dims()
	if rows < 2 {
		return 1.0
	}

	var total float64
	for j := 0; j < cols; j++ {
		total += columnVariance(mat.Col(nil, j, a))
	}
	if total == 0 {
		return 0
	}

	var explained float64
	for c := 0; c < k && c < len(sigma); c++ {
		col := make([]float64, rows)
		for i := 0; i < rows; i++ {
			col[i] = u.At(i, c) * sigma[c]
		}
		explained += columnVariance(col)
	}

	ratio := explained / total
	if ratio > 1 {
		ratio = 1
	}
	return ratio
}

func columnVariance(col []float64) float64 {
	n := float64(len(col))
	if n == 0 {
		return 0
	}
	var mean float64
	for _, x := range col {
		mean += x
	}
	mean /= n
	var variance float64
	for _, x := range col {
		d := x - mean
		variance += d * d
	}
	return variance / n
}
