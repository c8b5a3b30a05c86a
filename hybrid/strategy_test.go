package hybrid

import (
	"context"
	"errors"
	"math"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		scores []float64
		want   []float64
	}{
		{"spread to unit range", []float64{1, 2, 3}, []float64{0, 0.5, 1}},
		{"constant collapses to neutral", []float64{7, 7, 7}, []float64{0.5, 0.5, 0.5}},
		{"single value", []float64{42}, []float64{0.5}},
		{"empty passthrough", []float64{}, []float64{}},
		{"negative range", []float64{-4, -2, 0}, []float64{0, 0.5, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.scores)
			if len(got) != len(tt.want) {
				t.Fatalf("length = %d, want %d", len(got), len(tt.want))
			}
			for i := range tt.want {
				if math.Abs(got[i]-tt.want[i]) > 1e-12 {
					t.Errorf("Normalize[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
			for _, s := range got {
				if s < 0 || s > 1 {
					t.Errorf("normalized score %v out of [0,1]", s)
				}
			}
		})
	}
}

func TestWeightedScoreExtremes(t *testing.T) {
	tfidf := []float64{0.9, 0.1, 0.5}
	svd := []float64{0.2, 0.8, 0.5}

	// α=1 纯内容：结果等于归一化后的 tfidf
	pureContent := WeightedScore(tfidf, svd, 1.0)
	wantContent := Normalize(tfidf)
	for i := range pureContent {
		if math.Abs(pureContent[i]-wantContent[i]) > 1e-12 {
			t.Errorf("alpha=1: [%d] = %v, want %v", i, pureContent[i], wantContent[i])
		}
	}

	// α=0 纯协同
	pureCollab := WeightedScore(tfidf, svd, 0.0)
	wantCollab := Normalize(svd)
	for i := range pureCollab {
		if math.Abs(pureCollab[i]-wantCollab[i]) > 1e-12 {
			t.Errorf("alpha=0: [%d] = %v, want %v", i, pureCollab[i], wantCollab[i])
		}
	}
}

func TestWeightedCombineLengthMismatch(t *testing.T) {
	s := &Weighted{Alpha: 0.5}
	_, err := s.Combine(&Input{TFIDF: []float64{1, 2}, SVD: []float64{1}})
	if err == nil {
		t.Error("length mismatch should fail")
	}
}

func TestAdaptiveAlpha(t *testing.T) {
	tests := []struct {
		name      string
		count     int
		threshold int
		want      float64
	}{
		{"brand new user", 0, 5, 0.8},
		{"one interaction", 1, 5, 0.74},
		{"half way", 2, 5, 0.68},
		{"at threshold", 5, 5, 0.5},
		{"beyond threshold", 100, 5, 0.5},
		{"negative count treated as zero", -3, 5, 0.8},
		{"zero threshold uses default", 0, 0, 0.8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AdaptiveAlpha(tt.count, tt.threshold)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("AdaptiveAlpha(%d,%d) = %v, want %v", tt.count, tt.threshold, got, tt.want)
			}
		})
	}
}

func TestAdaptiveAlphaMonotonic(t *testing.T) {
	prev := math.Inf(1)
	for count := 0; count <= 10; count++ {
		alpha := AdaptiveAlpha(count, 5)
		if alpha < 0.5 || alpha > 0.8 {
			t.Fatalf("alpha %v out of [0.5, 0.8] at count=%d", alpha, count)
		}
		if alpha > prev {
			t.Fatalf("alpha must be non-increasing, went %v -> %v at count=%d", prev, alpha, count)
		}
		prev = alpha
	}
}

func TestWeightedMultiScore(t *testing.T) {
	signals := map[string][]float64{
		"tfidf": {0, 1},
		"svd":   {1, 0},
	}

	// 权重被重新归一化：2:2 等价于 0.5:0.5
	got, err := WeightedMultiScore(signals, map[string]float64{"tfidf": 2, "svd": 2})
	if err != nil {
		t.Fatalf("WeightedMultiScore: %v", err)
	}
	for i, s := range got {
		if math.Abs(s-0.5) > 1e-12 {
			t.Errorf("[%d] = %v, want 0.5", i, s)
		}
	}

	// 未给权重：各路均分
	even, err := WeightedMultiScore(signals, nil)
	if err != nil {
		t.Fatalf("WeightedMultiScore: %v", err)
	}
	for i := range got {
		if math.Abs(even[i]-got[i]) > 1e-12 {
			t.Errorf("default weights should equal even split at %d", i)
		}
	}
}

func TestWeightedMultiScoreErrors(t *testing.T) {
	if _, err := WeightedMultiScore(nil, nil); err == nil {
		t.Error("no signals should fail")
	}
	if _, err := WeightedMultiScore(map[string][]float64{"a": {1}, "b": {1, 2}}, nil); err == nil {
		t.Error("length mismatch should fail")
	}
	if _, err := WeightedMultiScore(map[string][]float64{"a": {1, 2}}, map[string]float64{"a": 0}); err == nil {
		t.Error("zero weight sum should fail")
	}
}

func TestCascadingScoreTieBreak(t *testing.T) {
	// 主信号并列，次级信号决定顺序，但权重只有 0.1
	primary := []float64{1, 1, 0}
	secondary := []float64{0, 1, 1}
	got := CascadingScore(primary, secondary)

	if !(got[1] > got[0]) {
		t.Errorf("secondary should break the tie: got %v", got)
	}
	if !(got[0] > got[2]) {
		t.Errorf("secondary must not overturn primary: got %v", got)
	}
}

func TestSwitching(t *testing.T) {
	in := &Input{
		TFIDF:           []float64{3, 1, 2},
		SVD:             []float64{1, 3, 2},
		TFIDFConfidence: 0.9,
		SVDConfidence:   0.1,
	}
	s := &Switching{}
	got, err := s.Combine(in)
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	want := Normalize(in.TFIDF)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("high tfidf confidence should pick the tfidf side: %v", got)
		}
	}

	// 置信度并列时偏向协同路（严格大于才切内容）
	in.SVDConfidence = 0.9
	got, _ = s.Combine(in)
	wantSVD := Normalize(in.SVD)
	for i := range wantSVD {
		if got[i] != wantSVD[i] {
			t.Fatalf("tie should pick the svd side: %v", got)
		}
	}
}

func TestScoreParallel(t *testing.T) {
	got := ScoreParallel(context.Background(), map[string]ScorerFunc{
		"ok": func(context.Context) ([]float64, error) {
			return []float64{1, 2}, nil
		},
		"broken": func(context.Context) ([]float64, error) {
			return nil, errors.New("backend down")
		},
	})
	if _, ok := got["ok"]; !ok {
		t.Error("healthy scorer missing from results")
	}
	if _, ok := got["broken"]; ok {
		t.Error("failed scorer should be absent, not present with junk")
	}
}

func TestCombinerRecommend(t *testing.T) {
	c := &Combiner{Strategy: &Weighted{Alpha: 1.0}}
	in := &Input{
		TFIDF: []float64{0.9, 0.5, 0.7},
		SVD:   []float64{0, 0, 0},
	}
	ids := []string{"a", "b", "c"}

	got, err := c.Recommend(in, ids, map[string]bool{"a": true}, 2)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	// a 被已读掩码剔除，剩余按分数降序：c, b
	if len(got) != 2 || ids[got[0]] != "c" || ids[got[1]] != "b" {
		t.Errorf("Recommend indices = %v, want [c b]", got)
	}

	if _, err := c.Recommend(in, ids, nil, -1); err == nil {
		t.Error("negative topK should fail")
	}
	if _, err := c.Recommend(in, []string{"a"}, nil, 1); err == nil {
		t.Error("ids/scores length mismatch should fail")
	}
}
