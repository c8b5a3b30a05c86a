package hybrid

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/newsrec/core"
	"github.com/rushteam/newsrec/pkg/utils"
)

// ScorerFunc 是一路打分信号：对当前候选批返回逐文章分数。
type ScorerFunc func(ctx context.Context) ([]float64, error)

// ScoreParallel 并发执行多路打分并按名字收集结果。
// 单路失败不会中断其他路（该路缺席，由上层策略决定降级），
// 只有 ctx 取消会整体终止。
func ScoreParallel(ctx context.Context, scorers map[string]ScorerFunc) map[string][]float64 {
	var (
		mu    sync.Mutex
		out   = make(map[string][]float64, len(scorers))
		eg, _ = errgroup.WithContext(ctx)
	)

	for name, scorer := range scorers {
		name, scorer := name, scorer
		eg.Go(func() error {
			scores, err := scorer(ctx)
			if err != nil {
				// 失败的一路静默缺席；排序是增强而非硬依赖
				return nil
			}
			mu.Lock()
			out[name] = scores
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait()
	return out
}

// Combiner 把一个策略的输出接上统一的收尾路径（已读掩码 + TopK）。
type Combiner struct {
	Strategy Strategy
}

// Recommend 融合打分并返回前 topK 个候选下标。
// ids 与分数向量按下标对齐；seen 中的 ID 以 -Inf 哨兵沉底并被排除。
func (c *Combiner) Recommend(in *Input, ids []string, seen map[string]bool, topK int) ([]int, error) {
	if topK < 0 {
		return nil, core.NewDomainError(core.ModuleHybrid, core.ErrorCodeInvalidInput,
			fmt.Sprintf("hybrid: negative topK %d", topK))
	}
	strategy := c.Strategy
	if strategy == nil {
		strategy = &Weighted{Alpha: DefaultAlpha}
	}

	combined, err := strategy.Combine(in)
	if err != nil {
		return nil, err
	}
	if len(combined) != len(ids) {
		return nil, core.NewDomainError(core.ModuleHybrid, core.ErrorCodeInvalidInput,
			fmt.Sprintf("hybrid: combined length %d != candidates %d", len(combined), len(ids)))
	}

	for i, id := range ids {
		if seen[id] {
			combined[i] = core.ScoreSeen
		}
	}
	return utils.TopIndices(combined, topK), nil
}
