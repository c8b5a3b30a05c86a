package pipeline

import (
	"context"

	"github.com/rushteam/newsrec/core"
)

// Pipeline 是 newsrec 的核心抽象：把排序逻辑拆成可组合的 Node 链。
type Pipeline struct {
	Nodes []Node
}

func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	articles []*core.Article,
) ([]*core.Article, error) {
	cur := articles
	for _, node := range p.Nodes {
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}
