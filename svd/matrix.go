// Package svd 实现基于矩阵分解的协同过滤。
//
// 用户×文章交互矩阵被分解为低秩隐因子：SVD 对稀疏、嘈杂的交互信号给出
// 稠密的低秩近似，在用户有了一定历史之后，比单靠内容相似更能体现
// "读过 A 的人也在读 B"的协同信号。
// 隐因子模型离线训练、推理时只读加载；替换模型引用必须整体原子交换。
package svd

import (
	"fmt"
	"sort"

	"github.com/rushteam/newsrec/core"
)

// Matrix 是稀疏的用户×文章交互矩阵。
// 不变式：每个单元格是非负的累积权重；没有交互的用户/文章整行/整列为零。
type Matrix struct {
	Users    []string
	Articles []string

	userIdx    map[string]int
	articleIdx map[string]int
	cells      []map[int]float64 // 每个用户一行：列号 -> 权重
}

// NewMatrix 创建空矩阵。
func NewMatrix() *Matrix {
	return &Matrix{
		userIdx:    make(map[string]int),
		articleIdx: make(map[string]int),
	}
}

// BuildMatrix 从一批交互构建矩阵，权重为 Interaction.Weight()
// （点击数 + 阅读分钟数）。同一 (用户,文章) 的多条交互权重累加。
func BuildMatrix(interactions []*core.Interaction) *Matrix {
	m := NewMatrix()
	for _, inter := range interactions {
		m.Add(inter.UserID, inter.ArticleID, inter.Weight())
	}
	return m
}

// BuildMatrixFromHistories 从按用户分组的交互历史构建矩阵
// （InteractionStore 逐用户取回时的批量导入口）。
func BuildMatrixFromHistories(histories map[string][]*core.Interaction) *Matrix {
	users := make([]string, 0, len(histories))
	for userID := range histories {
		users = append(users, userID)
	}
	sort.Strings(users)

	m := NewMatrix()
	for _, userID := range users {
		for _, inter := range histories[userID] {
			m.Add(userID, inter.ArticleID, inter.Weight())
		}
	}
	return m
}

// Add 为 (用户,文章) 累加权重；非正权重被忽略以维持非负不变式。
// 首次出现的用户/文章自动分配行/列号。
func (m *Matrix) Add(userID, articleID string, weight float64) {
	if weight <= 0 {
		return
	}
	u, ok := m.userIdx[userID]
	if !ok {
		u = len(m.Users)
		m.userIdx[userID] = u
		m.Users = append(m.Users, userID)
		m.cells = append(m.cells, make(map[int]float64))
	}
	a, ok := m.articleIdx[articleID]
	if !ok {
		a = len(m.articleIdx)
		m.articleIdx[articleID] = a
	}
	m.cells[u][a] += weight
}

// NUsers 返回用户数（行数）。
func (m *Matrix) NUsers() int { return len(m.Users) }

// NItems 返回文章数（列数）。
func (m *Matrix) NItems() int { return len(m.articleIdx) }

// UserIndex 返回用户的行号。
func (m *Matrix) UserIndex(userID string) (int, bool) {
	u, ok := m.userIdx[userID]
	return u, ok
}

// ArticleIndex 返回文章的列号。
func (m *Matrix) ArticleIndex(articleID string) (int, bool) {
	a, ok := m.articleIdx[articleID]
	return a, ok
}

// rebuildArticles 懒构建列号 -> 文章 ID 的反查表。
func (m *Matrix) rebuildArticles() {
	if len(m.Articles) == m.NItems() {
		return
	}
	m.Articles = make([]string, m.NItems())
	for id, a := range m.articleIdx {
		m.Articles[a] = id
	}
}

// ArticleAt 返回列号对应的文章 ID。
func (m *Matrix) ArticleAt(col int) string {
	m.rebuildArticles()
	return m.Articles[col]
}

// Row 返回某个用户的稠密交互行。
func (m *Matrix) Row(userIdx int) []float64 {
	out := make([]float64, m.NItems())
	if userIdx < 0 || userIdx >= len(m.cells) {
		return out
	}
	for col, w := range m.cells[userIdx] {
		out[col] = w
	}
	return out
}

// Col 返回某篇文章的稠密交互列。
func (m *Matrix) Col(articleIdx int) []float64 {
	out := make([]float64, m.NUsers())
	for u, row := range m.cells {
		if w, ok := row[articleIdx]; ok {
			out[u] = w
		}
	}
	return out
}

// SeenColumns 返回用户有过交互（权重 > 0）的列号，升序。
func (m *Matrix) SeenColumns(userIdx int) []int {
	if userIdx < 0 || userIdx >= len(m.cells) {
		return nil
	}
	out := make([]int, 0, len(m.cells[userIdx]))
	for col, w := range m.cells[userIdx] {
		if w > 0 {
			out = append(out, col)
		}
	}
	sort.Ints(out)
	return out
}

// Dense 展开为稠密的 行×列 二维切片（训练用）。
func (m *Matrix) Dense() [][]float64 {
	out := make([][]float64, m.NUsers())
	for u := range out {
		out[u] = m.Row(u)
	}
	return out
}

// NormalizeRows 按行归一化（每个用户的权重之和为 1）。全零行保持不变。
func (m *Matrix) NormalizeRows() {
	for _, row := range m.cells {
		var sum float64
		for _, w := range row {
			sum += w
		}
		if sum == 0 {
			continue
		}
		for col := range row {
			row[col] /= sum
		}
	}
}

// NormalizeCols 按列归一化（每篇文章的权重之和为 1）。全零列保持不变。
func (m *Matrix) NormalizeCols() {
	sums := make([]float64, m.NItems())
	for _, row := range m.cells {
		for col, w := range row {
			sums[col] += w
		}
	}
	for _, row := range m.cells {
		for col := range row {
			if sums[col] > 0 {
				row[col] /= sums[col]
			}
		}
	}
}

// checkUser 校验行号合法性。
func (m *Matrix) checkUser(userIdx int) error {
	if userIdx < 0 || userIdx >= m.NUsers() {
		return core.NewDomainError(core.ModuleSVD, core.ErrorCodeNotFound,
			fmt.Sprintf("svd: user index %d out of range [0,%d)", userIdx, m.NUsers()))
	}
	return nil
}
