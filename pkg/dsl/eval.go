// Package dsl 提供基于 CEL (Common Expression Language) 的规则表达式解释器，
// 用于按文章字段与标签做声明式过滤。
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/newsrec/core"
)

var (
	// celEnv 是全局 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
)

func getCELEnv() (*cel.Env, error) {
	var err error
	celEnvOnce.Do(func() {
		celEnv, err = cel.NewEnv(
			cel.Variable("article", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("rctx", cel.DynType),
		)
	})
	return celEnv, err
}

// Eval 是规则表达式解释器。表达式在构造时编译一次，
// Evaluate 可以对不同文章重复执行。
//
// 表达式语法（CEL 标准语法）：
//   - 基础：article.category == "technology" / article.source != "spamwire"
//   - 数值：article.score > 0.7 / article.virality >= 0.5
//   - 逻辑：article.category == "business" && article.score > 0.8
//   - 标签：label.recall_source == "content" （访问不存在的 key 用 label.key != null 判空）
//   - 包含：article.title.contains("AI")
type Eval struct {
	expr string
	prg  cel.Program
}

// NewEval 编译表达式。空表达式恒为 true。
func NewEval(expr string) (*Eval, error) {
	e := &Eval{expr: expr}
	if expr == "" {
		return e, nil
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %v", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %v", err)
	}
	e.prg = prg
	return e, nil
}

// Evaluate 对单篇文章执行表达式，返回布尔结果。
func (e *Eval) Evaluate(article *core.Article, rctx *core.RecommendContext) (bool, error) {
	if e.expr == "" {
		return true, nil
	}
	out, _, err := e.prg.Eval(buildInput(article, rctx))
	if err != nil {
		return false, fmt.Errorf("eval error: %v", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// buildInput 把文章与上下文铺平成 CEL 可访问的 map。
func buildInput(article *core.Article, rctx *core.RecommendContext) map[string]any {
	labels := make(map[string]any)
	if article != nil {
		for k, v := range article.Labels {
			labels[k] = v.Value
		}
	}

	art := map[string]any{}
	if article != nil {
		art = map[string]any{
			"id":          article.ID,
			"title":       article.Title,
			"category":    article.Category,
			"source":      article.Source,
			"score":       article.Score,
			"virality":    article.ViralityScore,
			"clicks":      article.Engagement.Clicks,
			"impressions": article.Engagement.Impressions,
			"labels":      labels,
		}
	}

	ctx := map[string]any{}
	if rctx != nil {
		ctx = map[string]any{
			"user_id":           rctx.UserID,
			"scene":             rctx.Scene,
			"interaction_count": rctx.InteractionCount(),
			"params":            rctx.Params,
		}
	}

	return map[string]any{
		"article": art,
		"label":   labels,
		"rctx":    ctx,
	}
}
