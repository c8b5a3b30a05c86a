package pipeline

import (
	"context"

	"github.com/rushteam/newsrec/core"
)

// Kind 用于标记 Node 类型，方便观测/治理/编排（例如按阶段打点）。
type Kind string

const (
	KindFilter      Kind = "filter"      // 过滤阶段：剔除已读/命中规则的候选
	KindRank        Kind = "rank"        // 排序阶段：对候选打分并排序（混合打分在此）
	KindReRank      Kind = "rerank"      // 重排阶段：在排序结果上做多样性/截断
	KindPostProcess Kind = "postprocess" // 后处理阶段：补充爆款分等最终修饰
)

// Node 是 Pipeline 的最小可扩展单元。
// 统一采用"输入 articles -> 输出 articles"的形态，方便 Filter 截断、
// Rank 重排、PostProcess 注入字段等操作。
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		rctx *core.RecommendContext,
		articles []*core.Article,
	) ([]*core.Article, error)
}
