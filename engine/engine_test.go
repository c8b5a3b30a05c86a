package engine

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rushteam/newsrec/core"
	"github.com/rushteam/newsrec/hybrid"
	"github.com/rushteam/newsrec/store"
	"github.com/rushteam/newsrec/svd"
)

func corpusArticles() []*core.Article {
	return []*core.Article{
		{ID: "a1", Title: "stock market rally as earnings impress investors", Category: "business"},
		{ID: "a2", Title: "investors react to strong stock market earnings", Category: "business"},
		{ID: "a3", Title: "championship final ends with dramatic overtime goal", Category: "sports"},
		{ID: "a4", Title: "gallery opens new modern art exhibition downtown", Category: "culture"},
	}
}

func pick(articles []*core.Article, ids ...string) []*core.Article {
	byID := map[string]*core.Article{}
	for _, a := range articles {
		byID[a.ID] = a
	}
	out := make([]*core.Article, len(ids))
	for i, id := range ids {
		out[i] = byID[id]
	}
	return out
}

func idsOf(articles []*core.Article) []string {
	out := make([]string, len(articles))
	for i, a := range articles {
		out[i] = a.ID
	}
	return out
}

func TestRankContentPersonalization(t *testing.T) {
	ctx := context.Background()
	corpus := corpusArticles()
	eng := New(nil, WithSeed(42))
	if err := eng.RefreshCorpus(corpus); err != nil {
		t.Fatalf("RefreshCorpus: %v", err)
	}

	// 用户读过 a1（股市）：a2 应排到体育/文化之前
	rctx := &core.RecommendContext{
		UserID: "u1",
		Interactions: []*core.Interaction{
			{UserID: "u1", ArticleID: "a1", Clicks: 3, Duration: 120},
		},
	}
	got := eng.RankWithContext(ctx, rctx, pick(corpus, "a3", "a2", "a4"))
	if len(got) != 3 {
		t.Fatalf("ranked %d articles, want 3", len(got))
	}
	if got[0].ID != "a2" {
		t.Errorf("order = %v, want a2 first", idsOf(got))
	}
	for _, a := range got {
		if !a.MLProcessed {
			t.Errorf("article %s should be marked ml-processed", a.ID)
		}
		lbl, ok := a.Labels["rank_model"]
		if !ok || lbl.Source != "engine" {
			t.Errorf("article %s missing rank_model label: %+v", a.ID, lbl)
		}
		if a.ViralityScore < 0 || a.ViralityScore > 1 {
			t.Errorf("virality %v out of [0,1]", a.ViralityScore)
		}
	}
}

func TestRankAutoLoadsHistory(t *testing.T) {
	ctx := context.Background()
	corpus := corpusArticles()
	kv := store.NewMemoryStore()
	defer kv.Close()
	eng := New(nil, WithHistory(store.NewInteractionHistory(kv)), WithSeed(42))
	if err := eng.RefreshCorpus(corpus); err != nil {
		t.Fatalf("RefreshCorpus: %v", err)
	}

	if err := eng.TrackInteraction(ctx, &core.Interaction{UserID: "u1", ArticleID: "a1", Clicks: 2, Duration: 180}); err != nil {
		t.Fatalf("TrackInteraction: %v", err)
	}

	// Rank 自动取回历史，与显式携带交互的结果一致
	got := eng.Rank(ctx, pick(corpus, "a3", "a2", "a4"), "u1")
	if got[0].ID != "a2" {
		t.Errorf("order = %v, want a2 first", idsOf(got))
	}
}

func TestRankLazyCorpusFit(t *testing.T) {
	eng := New(nil)
	corpus := corpusArticles()

	got := eng.Rank(context.Background(), corpus, "anon")
	if !eng.Vectorizer().Fitted() {
		t.Fatal("first rank should lazily fit the corpus")
	}
	if len(got) != len(corpus) {
		t.Fatalf("ranked %d, want %d", len(got), len(corpus))
	}
	// 匿名冷启动无信号：原始顺序保持
	for i, a := range got {
		if a.ID != corpus[i].ID {
			t.Errorf("cold start must keep original order: %v", idsOf(got))
			break
		}
		if !a.MLProcessed {
			t.Errorf("article %s should still go through the ml path", a.ID)
		}
	}
}

func TestRankConcurrentLazyFit(t *testing.T) {
	eng := New(nil)

	// 并发首排：惰性拟合只能发生一次，否则特征空间换代会打翻在途画像
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			corpus := corpusArticles()
			got := eng.Rank(context.Background(), corpus, "anon")
			if len(got) != len(corpus) {
				t.Errorf("ranked %d, want %d", len(got), len(corpus))
			}
		}()
	}
	wg.Wait()

	if !eng.Vectorizer().Fitted() {
		t.Fatal("corpus should be fitted after concurrent first ranks")
	}
	if gen := eng.Vectorizer().Generation(); gen != 1 {
		t.Errorf("generation = %d, want 1 (concurrent ranks must fit exactly once)", gen)
	}
}

func TestRankFallbackOnUnknownCandidates(t *testing.T) {
	eng := New(nil)
	if err := eng.RefreshCorpus(corpusArticles()); err != nil {
		t.Fatalf("RefreshCorpus: %v", err)
	}

	strangers := []*core.Article{
		{ID: "x1", Title: "completely new article"},
		{ID: "x2", Title: "another new article"},
	}
	got := eng.Rank(context.Background(), strangers, "u1")
	if len(got) != 2 || got[0].ID != "x1" || got[1].ID != "x2" {
		t.Fatalf("fallback must keep original order: %v", idsOf(got))
	}
	for _, a := range got {
		if a.MLProcessed {
			t.Errorf("fallback article %s must not be marked ml-processed", a.ID)
		}
		if a.ViralityScore != hybrid.NeutralScore {
			t.Errorf("fallback virality = %v, want %v", a.ViralityScore, hybrid.NeutralScore)
		}
	}
}

func TestRankSeenSinksToTail(t *testing.T) {
	eng := New(nil)
	corpus := corpusArticles()
	if err := eng.RefreshCorpus(corpus); err != nil {
		t.Fatalf("RefreshCorpus: %v", err)
	}

	rctx := &core.RecommendContext{UserID: "u1", SeenIDs: map[string]bool{"a2": true}}
	got := eng.RankWithContext(context.Background(), rctx, pick(corpus, "a2", "a1", "a3"))
	if len(got) != 3 {
		t.Fatalf("ranked %d, want 3", len(got))
	}
	if got[2].ID != "a2" {
		t.Errorf("seen article should sink to the tail: %v", idsOf(got))
	}
}

func TestRankCollaborativeSignal(t *testing.T) {
	ctx := context.Background()
	corpus := corpusArticles()
	// α=0 纯协同：验证 SVD 路真正参与排序
	eng := New(nil, WithStrategy(&hybrid.Weighted{Alpha: 0}), WithSeed(7))
	if err := eng.RefreshCorpus(corpus); err != nil {
		t.Fatalf("RefreshCorpus: %v", err)
	}

	// u1/u2 偏商业，u3 偏体育文化
	eng.FitCollaborative([]*core.Interaction{
		{UserID: "u1", ArticleID: "a1", Clicks: 5},
		{UserID: "u1", ArticleID: "a2", Clicks: 4},
		{UserID: "u2", ArticleID: "a1", Clicks: 5},
		{UserID: "u2", ArticleID: "a2", Clicks: 5},
		{UserID: "u3", ArticleID: "a3", Clicks: 5},
		{UserID: "u3", ArticleID: "a4", Clicks: 4},
	})

	got := eng.RankWithContext(ctx, &core.RecommendContext{UserID: "u1"}, pick(corpus, "a3", "a2"))
	if got[0].ID != "a2" {
		t.Errorf("collaborative signal should rank a2 over a3 for u1: %v", idsOf(got))
	}
}

func TestRankWithOfflineModel(t *testing.T) {
	ctx := context.Background()
	corpus := corpusArticles()

	// 离线侧：训练 → 落盘 → 加载
	matrix := svd.BuildMatrix([]*core.Interaction{
		{UserID: "u1", ArticleID: "a1", Clicks: 5},
		{UserID: "u1", ArticleID: "a2", Clicks: 4},
		{UserID: "u2", ArticleID: "a1", Clicks: 5},
		{UserID: "u2", ArticleID: "a2", Clicks: 5},
		{UserID: "u3", ArticleID: "a3", Clicks: 5},
		{UserID: "u3", ArticleID: "a4", Clicks: 4},
	})
	trained, err := svd.Train(matrix, 2, 7)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	path := filepath.Join(t.TempDir(), "svd.json")
	if err := trained.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := svd.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	// 在线侧：注入只读模型，不经过进程内重训即可出协同信号
	eng := New(nil, WithModel(loaded, matrix), WithStrategy(&hybrid.Weighted{Alpha: 0}))
	if err := eng.RefreshCorpus(corpus); err != nil {
		t.Fatalf("RefreshCorpus: %v", err)
	}
	got := eng.RankWithContext(ctx, &core.RecommendContext{UserID: "u1"}, pick(corpus, "a3", "a2"))
	if got[0].ID != "a2" {
		t.Errorf("offline model should rank a2 over a3 for u1: %v", idsOf(got))
	}
	if !got[0].MLProcessed {
		t.Error("offline model path should still mark ml-processed")
	}
}

func TestTrackInteractionValidation(t *testing.T) {
	eng := New(nil)
	tests := []struct {
		name  string
		inter *core.Interaction
	}{
		{"nil", nil},
		{"missing user", &core.Interaction{ArticleID: "a1"}},
		{"missing article", &core.Interaction{UserID: "u1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := eng.TrackInteraction(context.Background(), tt.inter)
			de := core.GetDomainError(err)
			if de == nil || de.Code != core.ErrorCodeInvalidInput {
				t.Errorf("TrackInteraction = %v, want invalid input", err)
			}
		})
	}
}

func TestRankEmptyCandidates(t *testing.T) {
	eng := New(nil)
	if got := eng.Rank(context.Background(), nil, "u1"); len(got) != 0 {
		t.Errorf("empty candidates = %v, want empty", got)
	}
}

// fakeEngagement 用固定计数应答 GetEngagement。
type fakeEngagement struct {
	counts map[string]core.Engagement
}

func (f *fakeEngagement) GetEngagement(_ context.Context, ids []string) (map[string]core.Engagement, error) {
	return f.counts, nil
}

func TestRankAnnotatesEngagement(t *testing.T) {
	corpus := corpusArticles()
	eng := New(nil, WithEngagement(&fakeEngagement{counts: map[string]core.Engagement{
		"a1": {Clicks: 500, Impressions: 5000},
	}}))
	if err := eng.RefreshCorpus(corpus); err != nil {
		t.Fatalf("RefreshCorpus: %v", err)
	}

	got := eng.Rank(context.Background(), pick(corpus, "a1", "a3"), "anon")
	byID := map[string]*core.Article{}
	for _, a := range got {
		byID[a.ID] = a
	}
	if a1 := byID["a1"]; a1.Engagement.Clicks != 500 || a1.Engagement.Impressions != 5000 {
		t.Errorf("a1 engagement = %+v, want filled from source", a1.Engagement)
	}
	// 高互动 + 可观转化：爆款分应高于零互动文章
	if byID["a1"].ViralityScore <= byID["a3"].ViralityScore {
		t.Errorf("hot article should out-score the cold one: a1=%v a3=%v",
			byID["a1"].ViralityScore, byID["a3"].ViralityScore)
	}
}

func TestViralityNode(t *testing.T) {
	eng := New(nil, WithEngagement(&fakeEngagement{counts: map[string]core.Engagement{
		"a1": {Clicks: 100, Impressions: 1000},
	}}))
	node := &ViralityNode{Engine: eng}

	articles := []*core.Article{{ID: "a1"}, {ID: "a2"}}
	got, err := node.Process(context.Background(), nil, articles)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	// 顺序不变，只补分
	if got[0].ID != "a1" || got[1].ID != "a2" {
		t.Errorf("virality node must not reorder: %v", idsOf(got))
	}
	for _, a := range got {
		if a.ViralityScore < 0 || a.ViralityScore > 1 {
			t.Errorf("virality %v out of [0,1]", a.ViralityScore)
		}
	}
	if got[0].Engagement.Clicks != 100 {
		t.Errorf("engagement not annotated: %+v", got[0].Engagement)
	}
}

func TestRankNodeNilEngine(t *testing.T) {
	node := &RankNode{}
	in := []*core.Article{{ID: "a1"}}
	got, err := node.Process(context.Background(), &core.RecommendContext{}, in)
	if err != nil || len(got) != 1 {
		t.Errorf("nil engine should pass through: (%v, %v)", idsOf(got), err)
	}
}
