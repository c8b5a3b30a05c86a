package engine

import (
	"context"

	"github.com/rushteam/newsrec/core"
	"github.com/rushteam/newsrec/pipeline"
)

// RankNode 把 Engine 接入 Pipeline 的 Rank 阶段，
// 便于与过滤/重排节点经配置组合。
type RankNode struct {
	Engine *Engine
}

func (n *RankNode) Name() string {
	return "rank.hybrid"
}

func (n *RankNode) Kind() pipeline.Kind {
	return pipeline.KindRank
}

func (n *RankNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	articles []*core.Article,
) ([]*core.Article, error) {
	if n.Engine == nil {
		return articles, nil
	}
	return n.Engine.RankWithContext(ctx, rctx, articles), nil
}

// ViralityNode 是后处理节点：只做爆款分注入，不改变顺序。
// 用于 Rank 阶段之外单独补爆款分的场景（如热榜页）。
type ViralityNode struct {
	Engine *Engine
}

func (n *ViralityNode) Name() string {
	return "postprocess.virality"
}

func (n *ViralityNode) Kind() pipeline.Kind {
	return pipeline.KindPostProcess
}

func (n *ViralityNode) Process(
	ctx context.Context,
	_ *core.RecommendContext,
	articles []*core.Article,
) ([]*core.Article, error) {
	if n.Engine == nil {
		return articles, nil
	}
	n.Engine.annotateEngagement(ctx, articles)
	n.Engine.annotateVirality(ctx, articles)
	return articles, nil
}
