// Package builders 注册内置 Node 的配置构建器。
//
// 过滤/排序/重排节点依赖运行期对象（排序引擎、交互历史），
// 这些对象无法从纯配置构建，须在加载配置前通过 UseEngine / UseHistory 注入。
package builders

import (
	"fmt"
	"sync"

	"github.com/rushteam/newsrec/config"
	"github.com/rushteam/newsrec/core"
	"github.com/rushteam/newsrec/engine"
	"github.com/rushteam/newsrec/filter"
	"github.com/rushteam/newsrec/hybrid"
	"github.com/rushteam/newsrec/pipeline"
	"github.com/rushteam/newsrec/pkg/conv"
	"github.com/rushteam/newsrec/rerank"
)

func init() {
	config.Register("filter.node", BuildFilterNode)
	config.Register("rank.hybrid", BuildRankNode)
	config.Register("rerank.diversity", BuildDiversityNode)
	config.Register("rerank.topn", BuildTopNNode)
	config.Register("postprocess.virality", BuildViralityNode)
}

var (
	depsMu       sync.RWMutex
	boundEngine  *engine.Engine
	boundHistory core.InteractionStore
)

// UseEngine 注入排序引擎，rank.hybrid / rerank.diversity / postprocess.virality 需要。
func UseEngine(e *engine.Engine) {
	depsMu.Lock()
	boundEngine = e
	depsMu.Unlock()
}

// UseHistory 注入交互历史存储，filter.node 的 seen 过滤需要。
func UseHistory(h core.InteractionStore) {
	depsMu.Lock()
	boundHistory = h
	depsMu.Unlock()
}

func currentEngine() *engine.Engine {
	depsMu.RLock()
	defer depsMu.RUnlock()
	return boundEngine
}

func currentHistory() core.InteractionStore {
	depsMu.RLock()
	defer depsMu.RUnlock()
	return boundHistory
}

// BuildFilterNode 构建过滤节点。
//
// 配置：
//
//	type: filter.node
//	config:
//	  seen: true                       # 过滤已读（默认 true）
//	  rules:                           # CEL 规则，命中即过滤
//	    - article.source == "spamwire"
func BuildFilterNode(cfg map[string]any) (pipeline.Node, error) {
	node := &filter.Node{}
	if conv.ConfigGet(cfg, "seen", true) {
		node.Filters = append(node.Filters, filter.NewSeenFilter(currentHistory()))
	}
	for _, expr := range conv.SliceAnyToString(cfg["rules"]) {
		rule, err := filter.NewRuleFilter(expr)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", expr, err)
		}
		node.Filters = append(node.Filters, rule)
	}
	return node, nil
}

// BuildRankNode 构建混合排序节点（需先 UseEngine 注入引擎）。
//
// 配置：
//
//	type: rank.hybrid
//	config:
//	  strategy: adaptive               # weighted / adaptive / multi / cascading / switching
//	  alpha: 0.6                       # weighted 的内容权重
//	  experience_threshold: 5          # adaptive 的老用户阈值
//	  weights: {tfidf: 0.5, svd: 0.3}  # multi 的权重表
func BuildRankNode(cfg map[string]any) (pipeline.Node, error) {
	eng := currentEngine()
	if eng == nil {
		return nil, fmt.Errorf("rank.hybrid: engine not bound, call builders.UseEngine first")
	}
	if _, ok := cfg["strategy"]; ok {
		eng.SetStrategy(BuildStrategy(cfg))
	}
	return &engine.RankNode{Engine: eng}, nil
}

// BuildStrategy 从配置构建混合策略，未知策略名回落到自适应。
func BuildStrategy(cfg map[string]any) hybrid.Strategy {
	switch conv.ConfigGet(cfg, "strategy", "adaptive") {
	case "weighted":
		return &hybrid.Weighted{Alpha: conv.ConfigGetFloat64(cfg, "alpha", hybrid.DefaultAlpha)}
	case "multi":
		weights := conv.MapToFloat64(conv.ConfigGet[map[string]any](cfg, "weights", nil))
		return &hybrid.WeightedMulti{Weights: weights}
	case "cascading":
		return &hybrid.Cascading{}
	case "switching":
		return &hybrid.Switching{}
	default:
		return &hybrid.Adaptive{
			ExperienceThreshold: int(conv.ConfigGetInt64(cfg, "experience_threshold", 0)),
		}
	}
}

// BuildDiversityNode 构建多样性重排节点（需先 UseEngine 注入引擎）。
//
// 配置：
//
//	type: rerank.diversity
//	config:
//	  lambda: 0.3
func BuildDiversityNode(cfg map[string]any) (pipeline.Node, error) {
	eng := currentEngine()
	if eng == nil {
		return nil, fmt.Errorf("rerank.diversity: engine not bound, call builders.UseEngine first")
	}
	return &rerank.DiversityNode{
		Vectors: eng.Vectorizer(),
		Lambda:  conv.ConfigGetFloat64(cfg, "lambda", 0.3),
	}, nil
}

// BuildTopNNode 构建 Top-N 截断节点。
//
// 配置：
//
//	type: rerank.topn
//	config:
//	  n: 10
func BuildTopNNode(cfg map[string]any) (pipeline.Node, error) {
	return &rerank.TopNNode{N: int(conv.ConfigGetInt64(cfg, "n", 0))}, nil
}

// BuildViralityNode 构建爆款分后处理节点（需先 UseEngine 注入引擎）。
func BuildViralityNode(_ map[string]any) (pipeline.Node, error) {
	eng := currentEngine()
	if eng == nil {
		return nil, fmt.Errorf("postprocess.virality: engine not bound, call builders.UseEngine first")
	}
	return &engine.ViralityNode{Engine: eng}, nil
}
