package hybrid

import (
	"fmt"

	"github.com/rushteam/newsrec/core"
)

// 自适应混合的常量：新用户从 0.8（内容主导）线性衰减到 0.5（均衡）。
const (
	adaptiveAlphaMax   = 0.8
	adaptiveAlphaMin   = 0.5
	adaptiveAlphaSpan  = adaptiveAlphaMax - adaptiveAlphaMin
	cascadeTieBreaker  = 0.1 // 次级信号只配 0.1 的权重：够破并列，不够翻盘
	DefaultAlpha       = 0.6
	DefaultExperienceN = 5
)

// Input 是一次混合打分的全部输入。TFIDF 与 SVD 为主信号；
// Extra 携带额外具名信号（如热度分），供多路加权策略使用。
type Input struct {
	TFIDF []float64
	SVD   []float64
	Extra map[string][]float64

	// InteractionCount 是用户历史交互条数（自适应策略用）
	InteractionCount int

	// TFIDFConfidence / SVDConfidence 是两路信号的置信度（切换策略用）
	TFIDFConfidence float64
	SVDConfidence   float64
}

func (in *Input) validate() error {
	if len(in.TFIDF) != len(in.SVD) {
		return core.NewDomainError(core.ModuleHybrid, core.ErrorCodeInvalidInput,
			fmt.Sprintf("hybrid: score length mismatch: tfidf=%d svd=%d", len(in.TFIDF), len(in.SVD)))
	}
	return nil
}

// Strategy 是混合策略的统一接口：五种策略互为可替换的实现，
// 运行时经配置选择（见 config/builders）。
type Strategy interface {
	Name() string
	Combine(in *Input) ([]float64, error)
}

// Weighted 是固定权重的加权平均：combined = α·tfidf + (1-α)·svd。
// α=1 退化为纯内容，α=0 退化为纯协同。
type Weighted struct {
	Alpha float64
}

func (s *Weighted) Name() string { return "weighted" }

func (s *Weighted) Combine(in *Input) ([]float64, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	return WeightedScore(in.TFIDF, in.SVD, s.Alpha), nil
}

// WeightedScore 归一化两路分数后按 α 加权平均。
func WeightedScore(tfidf, svd []float64, alpha float64) []float64 {
	tn := Normalize(tfidf)
	sn := Normalize(svd)
	out := make([]float64, len(tn))
	for i := range out {
		out[i] = alpha*tn[i] + (1-alpha)*sn[i]
	}
	return out
}

// Adaptive 按用户历史深度自适应调权：
// 新用户缺乏协同信号，内容相似必须主导；老用户两路均衡。
type Adaptive struct {
	// ExperienceThreshold 是"老用户"的交互条数阈值，<=0 时取 DefaultExperienceN
	ExperienceThreshold int
}

func (s *Adaptive) Name() string { return "adaptive" }

func (s *Adaptive) Combine(in *Input) ([]float64, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	threshold := s.ExperienceThreshold
	if threshold <= 0 {
		threshold = DefaultExperienceN
	}
	alpha := AdaptiveAlpha(in.InteractionCount, threshold)
	return WeightedScore(in.TFIDF, in.SVD, alpha), nil
}

// AdaptiveAlpha 计算自适应内容权重：
//
//	count < threshold: α = 0.8 - min(count/threshold, 1)·0.3
//	否则:              α = 0.5
//
// 单调不增，值域 [0.5, 0.8]。
func AdaptiveAlpha(interactionCount, threshold int) float64 {
	if threshold <= 0 {
		threshold = DefaultExperienceN
	}
	if interactionCount >= threshold {
		return adaptiveAlphaMin
	}
	if interactionCount < 0 {
		interactionCount = 0
	}
	ratio := float64(interactionCount) / float64(threshold)
	if ratio > 1 {
		ratio = 1
	}
	return adaptiveAlphaMax - ratio*adaptiveAlphaSpan
}

// WeightedMulti 按调用方给定的权重融合任意多路具名信号。
// 权重会被重新归一化到和为 1；未给权重时各路均分。
type WeightedMulti struct {
	Weights map[string]float64
}

func (s *WeightedMulti) Name() string { return "multi" }

func (s *WeightedMulti) Combine(in *Input) ([]float64, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	signals := make(map[string][]float64, 2+len(in.Extra))
	if in.TFIDF != nil {
		signals["tfidf"] = in.TFIDF
	}
	if in.SVD != nil {
		signals["svd"] = in.SVD
	}
	for name, scores := range in.Extra {
		signals[name] = scores
	}
	return WeightedMultiScore(signals, s.Weights)
}

// WeightedMultiScore 融合多路具名信号。
func WeightedMultiScore(signals map[string][]float64, weights map[string]float64) ([]float64, error) {
	if len(signals) == 0 {
		return nil, core.NewDomainError(core.ModuleHybrid, core.ErrorCodeInvalidInput, "hybrid: no signals to combine")
	}

	n := -1
	for name, scores := range signals {
		if n < 0 {
			n = len(scores)
		} else if len(scores) != n {
			return nil, core.NewDomainError(core.ModuleHybrid, core.ErrorCodeInvalidInput,
				fmt.Sprintf("hybrid: signal %s length %d != %d", name, len(scores), n))
		}
	}

	if len(weights) == 0 {
		weights = make(map[string]float64, len(signals))
		for name := range signals {
			weights[name] = 1.0 / float64(len(signals))
		}
	}
	var total float64
	for name := range signals {
		total += weights[name]
	}
	if total <= 0 {
		return nil, core.NewDomainError(core.ModuleHybrid, core.ErrorCodeInvalidInput, "hybrid: non-positive weight sum")
	}

	combined := make([]float64, n)
	for name, scores := range signals {
		w := weights[name] / total
		if w == 0 {
			continue
		}
		for i, s := range Normalize(scores) {
			combined[i] += w * s
		}
	}
	return combined, nil
}

// Cascading 是级联策略：次级信号只用来破主信号的并列，
// 永远不会以超过小幅度的方式推翻主排序。主信号取 TFIDF，次级取 SVD。
type Cascading struct{}

func (s *Cascading) Name() string { return "cascading" }

func (s *Cascading) Combine(in *Input) ([]float64, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	return CascadingScore(in.TFIDF, in.SVD), nil
}

// CascadingScore = normalize(primary) + 0.1·normalize(secondary)。
func CascadingScore(primary, secondary []float64) []float64 {
	pn := Normalize(primary)
	sn := Normalize(secondary)
	out := make([]float64, len(pn))
	for i := range out {
		out[i] = pn[i] + cascadeTieBreaker*sn[i]
	}
	return out
}

// Switching 是切换策略：选置信度更高的一路，完全忽略另一路。
type Switching struct{}

func (s *Switching) Name() string { return "switching" }

func (s *Switching) Combine(in *Input) ([]float64, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if in.TFIDFConfidence > in.SVDConfidence {
		return Normalize(in.TFIDF), nil
	}
	return Normalize(in.SVD), nil
}
