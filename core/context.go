package core

import "github.com/rushteam/newsrec/pkg/utils"

// RecommendContext 承载用户/场景/实时信息，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	UserID string // 使用 string 类型（通用，支持所有 ID 格式）
	Scene  string // 场景标识，如 "feed" / "search" / "push"

	// Interactions 是本次请求已取回的交互历史（由编排层注入，
	// 避免各 Node 重复读取存储）
	Interactions []*Interaction

	// SeenIDs 是本次请求要排除的已读文章集合
	SeenIDs map[string]bool

	// InterestTags 是冷启动时的静态兴趣标签（注册时选择的栏目）
	InterestTags []string

	// Labels 是用户级标签，可驱动整个 Pipeline 行为
	// 例如：新用户、重度用户、偏好多样性等
	Labels map[string]utils.Label

	// Params 请求级上下文参数，包含：
	// - 请求参数：country, category, page 等
	// - 实时特征：realtime_ctr 等（建议加 realtime_ 前缀区分）
	Params map[string]any
}

// InteractionCount 返回交互历史条数，用于自适应混合权重。
func (rctx *RecommendContext) InteractionCount() int {
	return len(rctx.Interactions)
}

// Seen 判断文章是否已读。
func (rctx *RecommendContext) Seen(articleID string) bool {
	if rctx.SeenIDs != nil && rctx.SeenIDs[articleID] {
		return true
	}
	for _, inter := range rctx.Interactions {
		if inter.ArticleID == articleID {
			return true
		}
	}
	return false
}

// PutLabel 写入用户级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取用户级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
