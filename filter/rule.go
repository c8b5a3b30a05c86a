package filter

import (
	"context"

	"github.com/rushteam/newsrec/core"
	"github.com/rushteam/newsrec/pkg/dsl"
)

// RuleFilter 是基于 CEL 表达式的规则过滤器。
// 表达式命中（求值为 true）的文章会被过滤掉。
//
// 示例：
//   - `article.source == "spamwire"` → 屏蔽某个来源
//   - `article.virality < 0.1 && article.impressions > 10000` → 过滤高曝光低转化
type RuleFilter struct {
	Expr string
	eval *dsl.Eval
}

// NewRuleFilter 编译表达式，表达式非法时返回错误。
func NewRuleFilter(expr string) (*RuleFilter, error) {
	eval, err := dsl.NewEval(expr)
	if err != nil {
		return nil, core.NewDomainError("filter", core.ErrorCodeInvalidInput, err.Error())
	}
	return &RuleFilter{Expr: expr, eval: eval}, nil
}

func (f *RuleFilter) Name() string {
	return "filter.rule"
}

func (f *RuleFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	article *core.Article,
) (bool, error) {
	// 空表达式对过滤器是 no-op（dsl 的空表达式语义是"匹配一切"）
	if f.eval == nil || f.Expr == "" {
		return false, nil
	}
	return f.eval.Evaluate(article, rctx)
}
