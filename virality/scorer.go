package virality

import (
	"context"
	"math"

	"github.com/rushteam/newsrec/core"
)

// NeutralScore 是降级时的中性分。
const NeutralScore = 0.5

// Scorer 实现 core.ViralityService：优先走外部模型，
// 模型缺席时用启发式公式兜底。
type Scorer struct {
	// Service 为空时直接使用启发式打分。
	Service   core.MLService
	ModelName string
}

// NewScorer ..
func NewScorer(svc core.MLService, modelName string) *Scorer {
	return &Scorer{Service: svc, ModelName: modelName}
}

var _ core.ViralityService = (*Scorer)(nil)

// PredictVirality 返回单篇文章的爆款概率。
// 模型调用失败返回错误，由调用方降级为 NeutralScore。
func (s *Scorer) PredictVirality(ctx context.Context, stats *core.ViralityStats) (float64, error) {
	if s.Service == nil {
		return Heuristic(stats), nil
	}
	resp, err := s.Service.Predict(ctx, &core.MLPredictRequest{
		Instances: [][]float64{Features(stats)},
		ModelName: s.ModelName,
	})
	if err != nil {
		return 0, err
	}
	if len(resp.Predictions) == 0 {
		return 0, core.NewDomainError(core.ModuleService, core.ErrorCodeInternalError, "virality: empty prediction")
	}
	return clamp01(resp.Predictions[0]), nil
}

// PredictBatch 批量打分，一次请求携带全部实例。
// 整批失败时返回错误，调用方对每篇降级。
func (s *Scorer) PredictBatch(ctx context.Context, batch []*core.ViralityStats) ([]float64, error) {
	if len(batch) == 0 {
		return nil, nil
	}
	if s.Service == nil {
		out := make([]float64, len(batch))
		for i, st := range batch {
			out[i] = Heuristic(st)
		}
		return out, nil
	}
	instances := make([][]float64, len(batch))
	for i, st := range batch {
		instances[i] = Features(st)
	}
	resp, err := s.Service.Predict(ctx, &core.MLPredictRequest{
		Instances: instances,
		ModelName: s.ModelName,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Predictions) != len(batch) {
		return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeInternalError, "virality: prediction count mismatch")
	}
	out := make([]float64, len(batch))
	for i, p := range resp.Predictions {
		out[i] = clamp01(p)
	}
	return out, nil
}

// Heuristic 是无模型时的线性兜底：
// ctr 权重 0.5、曝光量权重 0.3、新鲜度权重 0.2。
func Heuristic(stats *core.ViralityStats) float64 {
	ctr := CTR(stats.Clicks, stats.Impressions)
	ctrPart := math.Min(ctr*2, 1)
	volumePart := math.Min(float64(stats.Impressions)/10000, 1)
	freshness := 1 / (1 + stats.TimeSincePublished)
	return clamp01(ctrPart*0.5 + volumePart*0.3 + freshness*0.2)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
