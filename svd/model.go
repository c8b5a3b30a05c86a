package svd

import (
	"encoding/json"
	"fmt"
	"os"

	"gonum.org/v1/gonum/floats"

	"github.com/rushteam/newsrec/core"
)

// Model 是隐因子模型（截断 SVD 的结果），推理时只读。
// Components 等价于 sklearn TruncatedSVD 的 components_（k×nItems 的文章
// 因子矩阵）；Transform 把交互行投影到隐空间，预测分 = 隐向量 · 文章因子。
type Model struct {
	K      int `json:"k"`
	NItems int `json:"n_items"`

	// Components 是文章因子矩阵，K 行，每行 NItems 列
	Components [][]float64 `json:"components"`

	// Singular 是各因子对应的奇异值（降序）
	Singular []float64 `json:"singular"`

	// Articles 是列号对应的文章 ID（与训练矩阵的列序一致）
	Articles []string `json:"articles"`

	// ExplainedVariance 是前 K 个因子解释的方差占比 [0,1]
	ExplainedVariance float64 `json:"explained_variance"`
}

// Transform 把一条交互行投影到隐空间（K 维隐向量）。
func (m *Model) Transform(row []float64) []float64 {
	latent := make([]float64, m.K)
	for c, comp := range m.Components {
		n := len(row)
		if len(comp) < n {
			n = len(comp)
		}
		latent[c] = floats.Dot(row[:n], comp[:n])
	}
	return latent
}

// ArticleFactor 返回某篇文章的隐因子列（K 维）。
func (m *Model) ArticleFactor(col int) []float64 {
	out := make([]float64, m.K)
	for c := range m.Components {
		out[c] = m.Components[c][col]
	}
	return out
}

// Save 把模型序列化为 JSON 写入文件（离线训练路径使用）。
func (m *Model) Save(path string) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("svd: marshal model: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("svd: write model: %w", err)
	}
	return nil
}

// Load 从文件加载模型；文件缺失或损坏时返回错误，由调用方决定降级。
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("svd: read model: %w", err)
	}
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("svd: unmarshal model: %w", err)
	}
	if m.K <= 0 || len(m.Components) != m.K {
		return nil, core.NewDomainError(core.ModuleSVD, core.ErrorCodeInvalidInput,
			fmt.Sprintf("svd: malformed model file %s", path))
	}
	return &m, nil
}
