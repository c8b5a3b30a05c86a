package builders

import (
	"testing"

	"github.com/rushteam/newsrec/config"
	"github.com/rushteam/newsrec/engine"
	"github.com/rushteam/newsrec/filter"
	"github.com/rushteam/newsrec/hybrid"
	"github.com/rushteam/newsrec/pipeline"
	"github.com/rushteam/newsrec/rerank"
)

func TestInitRegistersBuiltins(t *testing.T) {
	want := []string{
		"filter.node",
		"postprocess.virality",
		"rank.hybrid",
		"rerank.diversity",
		"rerank.topn",
	}
	supported := map[string]bool{}
	for _, typ := range config.SupportedTypes() {
		supported[typ] = true
	}
	for _, typ := range want {
		if !supported[typ] {
			t.Errorf("type %s not registered", typ)
		}
	}
}

func TestBuildFilterNode(t *testing.T) {
	node, err := BuildFilterNode(map[string]any{
		"seen":  true,
		"rules": []any{`article.source == "spamwire"`},
	})
	if err != nil {
		t.Fatalf("BuildFilterNode: %v", err)
	}
	fn := node.(*filter.Node)
	if len(fn.Filters) != 2 {
		t.Errorf("got %d filters, want seen + 1 rule", len(fn.Filters))
	}

	// seen: false 时只剩规则
	node, err = BuildFilterNode(map[string]any{"seen": false})
	if err != nil {
		t.Fatalf("BuildFilterNode: %v", err)
	}
	if len(node.(*filter.Node).Filters) != 0 {
		t.Errorf("seen=false without rules should build an empty node")
	}

	if _, err := BuildFilterNode(map[string]any{"rules": []any{`article.source ==`}}); err == nil {
		t.Error("bad rule expression should fail")
	}
}

func TestBuildStrategy(t *testing.T) {
	tests := []struct {
		name string
		cfg  map[string]any
		want string
	}{
		{"weighted", map[string]any{"strategy": "weighted", "alpha": 0.7}, "weighted"},
		{"multi", map[string]any{"strategy": "multi", "weights": map[string]any{"tfidf": 0.5}}, "multi"},
		{"cascading", map[string]any{"strategy": "cascading"}, "cascading"},
		{"switching", map[string]any{"strategy": "switching"}, "switching"},
		{"adaptive default", map[string]any{}, "adaptive"},
		{"unknown falls back", map[string]any{"strategy": "quantum"}, "adaptive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildStrategy(tt.cfg)
			if got.Name() != tt.want {
				t.Errorf("BuildStrategy = %s, want %s", got.Name(), tt.want)
			}
		})
	}

	w := BuildStrategy(map[string]any{"strategy": "weighted", "alpha": 0.7}).(*hybrid.Weighted)
	if w.Alpha != 0.7 {
		t.Errorf("alpha = %v, want 0.7", w.Alpha)
	}
}

func TestBuildTopNNode(t *testing.T) {
	node, err := BuildTopNNode(map[string]any{"n": 10})
	if err != nil {
		t.Fatalf("BuildTopNNode: %v", err)
	}
	if n := node.(*rerank.TopNNode).N; n != 10 {
		t.Errorf("N = %d, want 10", n)
	}
}

func TestEngineBoundBuilders(t *testing.T) {
	UseEngine(nil)
	for name, build := range map[string]pipeline.NodeBuilder{
		"rank.hybrid":          BuildRankNode,
		"rerank.diversity":     BuildDiversityNode,
		"postprocess.virality": BuildViralityNode,
	} {
		if _, err := build(nil); err == nil {
			t.Errorf("%s without a bound engine should fail", name)
		}
	}

	eng := engine.New(nil)
	UseEngine(eng)
	defer UseEngine(nil)

	node, err := BuildRankNode(map[string]any{"strategy": "cascading"})
	if err != nil {
		t.Fatalf("BuildRankNode: %v", err)
	}
	if node.(*engine.RankNode).Engine != eng {
		t.Error("rank node should wrap the bound engine")
	}

	dn, err := BuildDiversityNode(map[string]any{"lambda": 0.5})
	if err != nil {
		t.Fatalf("BuildDiversityNode: %v", err)
	}
	if dn.(*rerank.DiversityNode).Lambda != 0.5 {
		t.Errorf("lambda = %v", dn.(*rerank.DiversityNode).Lambda)
	}

	if _, err := BuildViralityNode(nil); err != nil {
		t.Errorf("BuildViralityNode: %v", err)
	}
}
