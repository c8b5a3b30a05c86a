package filter

import (
	"context"

	"github.com/rushteam/newsrec/core"
)

// SeenFilter 过滤用户已经读过的文章。
// 已读集合优先取请求上下文携带的 SeenIDs；配置了 Store 时
// 再叠加存储中的互动历史（近期数据）。
type SeenFilter struct {
	// Store 互动历史存储（可选）
	Store core.InteractionStore
}

// NewSeenFilter ..
func NewSeenFilter(store core.InteractionStore) *SeenFilter {
	return &SeenFilter{Store: store}
}

func (f *SeenFilter) Name() string {
	return "filter.seen"
}

func (f *SeenFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	article *core.Article,
) (bool, error) {
	if article == nil || rctx == nil {
		return false, nil
	}

	if rctx.Seen(article.ID) {
		return true, nil
	}

	if f.Store == nil || rctx.UserID == "" {
		return false, nil
	}
	inters, err := f.Store.GetInteractions(ctx, rctx.UserID)
	if err != nil {
		// 存储不可用时不拦截文章
		return false, nil
	}
	for _, in := range inters {
		if in.ArticleID == article.ID {
			return true, nil
		}
	}
	return false, nil
}
