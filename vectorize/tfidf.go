// Package vectorize 实现 TF-IDF 文章向量化。
//
// 行为对齐 sklearn 的 TfidfVectorizer(ngram_range=(1,2), stop_words="english",
// lowercase=True)：unigram+bigram 词表、按语料频次截断 MaxFeatures、
// 平滑 idf（ln((1+n)/(1+df))+1）、按行 L2 归一化。
//
// 词表（FeatureVocabulary）归一个向量器实例独占；重新 Fit 会整体替换词表
// 并使此前返回向量的列对齐失效，代数计数器（Generation）用于让调用方
// 检测到这种陈旧引用。
package vectorize

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/rushteam/newsrec/core"
)

const (
	// DefaultMaxFeatures 是默认的最大特征数
	DefaultMaxFeatures = 15000
	// DefaultMinDF 是默认的最小文档频次
	DefaultMinDF = 1
)

// TfidfVectorizer 把文章文本转为固定维度的 TF-IDF 特征向量。
//
// 状态机：{未拟合} --Fit--> {已拟合} --Fit--> {已拟合}（允许重拟合，代数 +1）。
// 并发：Fit 为独占写；Transform/VectorFor 为共享读。懒拟合的
// check-then-fit 守护在 engine 层实现（单写方模式）。
type TfidfVectorizer struct {
	MaxFeatures int              // 0 时取 DefaultMaxFeatures
	MinDF       int              // 0 时取 DefaultMinDF
	Cleaner     core.TextCleaner // nil 时使用 BasicCleaner

	mu     sync.RWMutex
	vocab  map[string]int // term -> 特征列号
	terms  []string       // 特征列号 -> term
	idf    []float64
	nDocs  int
	matrix *Matrix
	gen    uint64
}

// ErrNotFitted 表示向量器尚未拟合
var ErrNotFitted = core.NewDomainError(core.ModuleVectorize, core.ErrorCodeNotFitted, "vectorize: vectorizer not fitted, call Fit first")

// Fit 在一批文章上建立词表并计算文章×特征矩阵。
// ids 与 texts 必须等长；texts 为空返回 INSUFFICIENT_DATA。
// 拟合是语料快照级的一次性全局操作；重复 Fit 整体替换旧状态。
func (v *TfidfVectorizer) Fit(ids []string, texts []string) error {
	if len(texts) == 0 {
		return core.NewDomainError(core.ModuleVectorize, core.ErrorCodeInsufficientData, "vectorize: empty corpus")
	}
	if len(ids) != len(texts) {
		return core.NewDomainError(core.ModuleVectorize, core.ErrorCodeInvalidInput,
			fmt.Sprintf("vectorize: ids/texts length mismatch: %d != %d", len(ids), len(texts)))
	}

	cleaner := v.Cleaner
	if cleaner == nil {
		cleaner = BasicCleaner{}
	}

	// 1. 分词（unigram + bigram）
	docs := make([][]string, len(texts))
	for i, text := range texts {
		docs[i] = WithBigrams(Tokenize(cleaner, text))
	}

	// 2. 统计语料频次与文档频次
	termCount := make(map[string]int)
	docFreq := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]bool, len(doc))
		for _, term := range doc {
			termCount[term]++
			if !seen[term] {
				docFreq[term]++
				seen[term] = true
			}
		}
	}

	// 3. 选词表：df >= MinDF，按语料频次降序截断 MaxFeatures，
	//    同频按字典序保证确定性
	minDF := v.MinDF
	if minDF <= 0 {
		minDF = DefaultMinDF
	}
	maxFeatures := v.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = DefaultMaxFeatures
	}

	candidates := make([]string, 0, len(termCount))
	for term, df := range docFreq {
		if df >= minDF {
			candidates = append(candidates, term)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		ci, cj := termCount[candidates[i]], termCount[candidates[j]]
		if ci != cj {
			return ci > cj
		}
		return candidates[i] < candidates[j]
	})
	if len(candidates) > maxFeatures {
		candidates = candidates[:maxFeatures]
	}
	// 词表内部按字典序编号，与 sklearn 的列顺序一致
	sort.Strings(candidates)

	vocab := make(map[string]int, len(candidates))
	for i, term := range candidates {
		vocab[term] = i
	}

	// 4. 平滑 idf
	n := len(docs)
	idf := make([]float64, len(candidates))
	for term, col := range vocab {
		idf[col] = math.Log(float64(1+n)/float64(1+docFreq[term])) + 1
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.gen++
	v.vocab = vocab
	v.terms = candidates
	v.idf = idf
	v.nDocs = n

	// 5. 计算各行向量并建立 ID 索引
	rows := make([]SparseVec, len(docs))
	for i, doc := range docs {
		rows[i] = v.vectorizeLocked(doc)
	}
	v.matrix = NewMatrix(ids, rows, len(candidates), v.gen)
	return nil
}

// vectorizeLocked 把一篇分词后的文档转为 L2 归一化的 TF-IDF 行。
// 调用方须持有 v.mu。
func (v *TfidfVectorizer) vectorizeLocked(doc []string) SparseVec {
	tf := make(map[int]float64)
	for _, term := range doc {
		if col, ok := v.vocab[term]; ok {
			tf[col]++
		}
	}

	indices := make([]int, 0, len(tf))
	for col := range tf {
		indices = append(indices, col)
	}
	sort.Ints(indices)

	values := make([]float64, len(indices))
	var norm float64
	for i, col := range indices {
		val := tf[col] * v.idf[col]
		values[i] = val
		norm += val * val
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range values {
			values[i] /= norm
		}
	}
	return SparseVec{Indices: indices, Values: values, Dim: len(v.terms), Gen: v.gen}
}

// Transform 用已拟合的词表向量化新文本；未拟合返回 NOT_FITTED。
func (v *TfidfVectorizer) Transform(texts []string) ([]SparseVec, error) {
	cleaner := v.Cleaner
	if cleaner == nil {
		cleaner = BasicCleaner{}
	}

	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.vocab == nil {
		return nil, ErrNotFitted
	}

	out := make([]SparseVec, len(texts))
	for i, text := range texts {
		out[i] = v.vectorizeLocked(WithBigrams(Tokenize(cleaner, text)))
	}
	return out, nil
}

// VectorFor 返回拟合语料中某篇文章的特征向量；
// 文章不在拟合语料中返回 NOT_FOUND（调用方的 bug，不应吞掉）。
func (v *TfidfVectorizer) VectorFor(articleID string) (SparseVec, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.matrix == nil {
		return SparseVec{}, ErrNotFitted
	}
	idx, ok := v.matrix.IndexOf(articleID)
	if !ok {
		return SparseVec{}, core.NewDomainError(core.ModuleVectorize, core.ErrorCodeNotFound,
			fmt.Sprintf("vectorize: article %s not found in fitted corpus", articleID))
	}
	return v.matrix.Row(idx), nil
}

// Matrix 返回当前拟合的文章×特征矩阵（未拟合时为 nil）。
// 返回值对应单一拟合代数，重新 Fit 后不可与新向量混用。
func (v *TfidfVectorizer) Matrix() *Matrix {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.matrix
}

// Fitted 返回向量器是否已拟合。
func (v *TfidfVectorizer) Fitted() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.vocab != nil
}

// Generation 返回当前拟合代数（未拟合为 0，每次 Fit 递增）。
func (v *TfidfVectorizer) Generation() uint64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.gen
}

// Features 返回词表（按特征列号排列）。
func (v *TfidfVectorizer) Features() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]string, len(v.terms))
	copy(out, v.terms)
	return out
}

// TermScore 是 (词项, 权重) 对。
type TermScore struct {
	Term  string
	Score float64
}

// TopTerms 返回某篇文章权重最高的前 n 个词项（解释用）。
func (v *TfidfVectorizer) TopTerms(articleID string, n int) ([]TermScore, error) {
	row, err := v.VectorFor(articleID)
	if err != nil {
		return nil, err
	}

	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]TermScore, 0, len(row.Indices))
	for i, col := range row.Indices {
		out = append(out, TermScore{Term: v.terms[col], Score: row.Values[i]})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Term < out[j].Term
	})
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}
