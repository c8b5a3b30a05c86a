// Package rerank 提供排序之后的重排节点：多样性打散与 Top-N 截断。
package rerank

import (
	"context"

	"github.com/rushteam/newsrec/core"
	"github.com/rushteam/newsrec/pipeline"
)

// TopNNode 是 Top-N 截断节点，在排序后截取前 N 篇文章。
// 通常放在 Rank / Diversity 节点之后，控制最终返回数量。
type TopNNode struct {
	// N 要保留的文章数量。N <= 0 时不截断。
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	articles []*core.Article,
) ([]*core.Article, error) {
	if n.N <= 0 || len(articles) <= n.N {
		return articles, nil
	}
	return articles[:n.N], nil
}
