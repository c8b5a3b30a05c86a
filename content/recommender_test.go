package content

import (
	"math"
	"testing"

	"github.com/rushteam/newsrec/core"
	"github.com/rushteam/newsrec/profile"
	"github.com/rushteam/newsrec/vectorize"
)

func fitCorpus(t *testing.T) *vectorize.TfidfVectorizer {
	t.Helper()
	v := &vectorize.TfidfVectorizer{}
	ids := []string{"a", "b", "c", "d"}
	texts := []string{
		"stock market rally continues",
		"stocks rally as market gains",
		"championship final penalty shootout",
		"new art exhibition opens downtown",
	}
	if err := v.Fit(ids, texts); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	return v
}

func stockProfile(t *testing.T, v *vectorize.TfidfVectorizer) profile.Vector {
	t.Helper()
	prof, err := profile.BuildFromInteractions([]*core.Interaction{
		{UserID: "u", ArticleID: "a", Clicks: 3},
	}, v)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	return prof
}

func TestScoreGenerationMismatch(t *testing.T) {
	v := fitCorpus(t)
	prof := stockProfile(t, v)
	stale := profile.Vector{Values: prof.Values, Gen: prof.Gen + 1}
	if _, err := Score(stale, v.Matrix()); !core.IsNotFitted(err) {
		t.Errorf("cross-generation scoring: got %v, want NOT_FITTED", err)
	}
}

func TestRecommendRanksSimilarFirst(t *testing.T) {
	v := fitCorpus(t)
	prof := stockProfile(t, v)

	got, err := Recommend(prof, v.Matrix(), []string{"a"}, 3)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(got) == 0 || got[0] != "b" {
		t.Errorf("Recommend = %v, want b first (most similar unseen)", got)
	}
	for _, id := range got {
		if id == "a" {
			t.Error("seen article leaked into recommendations")
		}
	}
}

func TestRecommendNegativeTopK(t *testing.T) {
	v := fitCorpus(t)
	prof := stockProfile(t, v)
	if _, err := Recommend(prof, v.Matrix(), nil, -1); err == nil {
		t.Error("negative topK should fail fast")
	}
}

func TestRecommendZeroProfile(t *testing.T) {
	v := fitCorpus(t)
	zero := profile.Vector{Values: make([]float64, v.Matrix().Dim), Gen: v.Generation()}
	got, err := Recommend(zero, v.Matrix(), nil, 2)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	// 零画像没有个性化信号，但依然按确定性顺序返回
	if len(got) != 2 {
		t.Errorf("Recommend len = %d, want 2", len(got))
	}
}

func TestMaskSeen(t *testing.T) {
	v := fitCorpus(t)
	prof := stockProfile(t, v)
	scores, err := Score(prof, v.Matrix())
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	MaskSeen(scores, v.Matrix(), []string{"a", "c"})

	idxA, _ := v.Matrix().IndexOf("a")
	idxC, _ := v.Matrix().IndexOf("c")
	if !math.IsInf(scores[idxA], -1) || !math.IsInf(scores[idxC], -1) {
		t.Error("seen scores must be -Inf sentinels")
	}
}

func TestSimilar(t *testing.T) {
	v := fitCorpus(t)

	got, err := Similar("a", v.Matrix(), 2)
	if err != nil {
		t.Fatalf("Similar: %v", err)
	}
	if len(got) == 0 || got[0] != "b" {
		t.Errorf("Similar(a) = %v, want b first", got)
	}
	for _, id := range got {
		if id == "a" {
			t.Error("article similar to itself must be excluded")
		}
	}

	if _, err := Similar("unknown", v.Matrix(), 2); !core.IsNotFound(err) {
		t.Errorf("unknown article: got %v, want NOT_FOUND", err)
	}
}

func TestDiversifyPreservesSet(t *testing.T) {
	v := fitCorpus(t)
	ranked := []string{"a", "b", "c", "d"}

	got := Diversify(ranked, v.Matrix(), 0.5)
	if len(got) != len(ranked) {
		t.Fatalf("Diversify changed length: %d != %d", len(got), len(ranked))
	}
	seen := make(map[string]bool, len(got))
	for _, id := range got {
		seen[id] = true
	}
	for _, id := range ranked {
		if !seen[id] {
			t.Errorf("Diversify dropped %s", id)
		}
	}
	if got[0] != "a" {
		t.Errorf("Diversify must keep the top item first, got %s", got[0])
	}
}

func TestDiversifyPushesNearDuplicatesDown(t *testing.T) {
	v := fitCorpus(t)
	// a 与 b 高度相似：强多样性权重下 b 不应紧跟 a
	got := Diversify([]string{"a", "b", "c", "d"}, v.Matrix(), 1.0)
	if got[1] == "b" {
		t.Errorf("with full diversity weight, near-duplicate b should not rank second: %v", got)
	}
}

func TestDiversifyUnknownIDsAppended(t *testing.T) {
	v := fitCorpus(t)
	got := Diversify([]string{"a", "zz", "b"}, v.Matrix(), 0.3)
	if len(got) != 3 {
		t.Fatalf("Diversify length = %d, want 3", len(got))
	}
	if got[len(got)-1] != "zz" {
		t.Errorf("unknown id should be appended at the tail: %v", got)
	}
}
