package rerank

import (
	"context"

	"github.com/rushteam/newsrec/content"
	"github.com/rushteam/newsrec/core"
	"github.com/rushteam/newsrec/pipeline"
	"github.com/rushteam/newsrec/vectorize"
)

// MatrixProvider 提供文章向量矩阵，*vectorize.TfidfVectorizer 天然满足。
type MatrixProvider interface {
	Matrix() *vectorize.Matrix
}

// DiversityNode 是多样性重排节点：在保持相关性的前提下打散相似文章。
// 底层使用 content.Diversify 的贪心 MMR 策略。
type DiversityNode struct {
	// Vectors 提供文章向量；为空或未拟合时节点原样放行。
	Vectors MatrixProvider

	// Lambda 多样性权重，[0,1]。0 表示只看原序，1 表示只看多样性。
	Lambda float64
}

func (n *DiversityNode) Name() string {
	return "rerank.diversity"
}

func (n *DiversityNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *DiversityNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	articles []*core.Article,
) ([]*core.Article, error) {
	if n.Vectors == nil || len(articles) < 3 {
		return articles, nil
	}
	m := n.Vectors.Matrix()
	if m == nil {
		return articles, nil
	}

	ids := make([]string, len(articles))
	byID := make(map[string]*core.Article, len(articles))
	for i, a := range articles {
		ids[i] = a.ID
		byID[a.ID] = a
	}

	reordered := content.Diversify(ids, m, n.Lambda)
	out := make([]*core.Article, 0, len(articles))
	for _, id := range reordered {
		if a, ok := byID[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}
