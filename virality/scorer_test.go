package virality

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/rushteam/newsrec/core"
)

func TestCTR(t *testing.T) {
	tests := []struct {
		name        string
		clicks      int64
		impressions int64
		want        float64
	}{
		{"normal", 50, 1000, 0.05},
		{"zero impressions", 10, 0, 0},
		{"zero clicks", 0, 500, 0},
		{"all clicked", 7, 7, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CTR(tt.clicks, tt.impressions); got != tt.want {
				t.Errorf("CTR(%d, %d) = %v, want %v", tt.clicks, tt.impressions, got, tt.want)
			}
		})
	}
}

func TestFeatures(t *testing.T) {
	stats := &core.ViralityStats{Clicks: 100, Impressions: 1000, TimeSincePublished: 4}
	got := Features(stats)
	if len(got) != len(FeatureNames) {
		t.Fatalf("Features length = %d, want %d", len(got), len(FeatureNames))
	}
	want := []float64{
		0.1,
		math.Log1p(1000),
		math.Log1p(100),
		0.2, // 1/(1+4)
		20,  // 100/(4+1)
		200, // 1000/(4+1)
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("feature %s = %v, want %v", FeatureNames[i], got[i], want[i])
		}
	}
}

func TestSimpleFeatures(t *testing.T) {
	got := SimpleFeatures(&core.ViralityStats{Clicks: 10, Impressions: 100, TimeSincePublished: 1})
	if len(got) != 3 {
		t.Fatalf("SimpleFeatures length = %d, want 3", len(got))
	}
	if got[0] != 0.1 || got[2] != 0.5 {
		t.Errorf("SimpleFeatures = %v", got)
	}
}

func TestHeuristic(t *testing.T) {
	tests := []struct {
		name  string
		stats *core.ViralityStats
		want  float64
	}{
		{
			// ctr=0.1 → 0.2·0.5 + 1000/10000·0.3 + 1/(1+1)·0.2
			"moderate article",
			&core.ViralityStats{Clicks: 100, Impressions: 1000, TimeSincePublished: 1},
			0.2*0.5 + 0.1*0.3 + 0.5*0.2,
		},
		{
			// 全部分量饱和也不超过 1
			"saturated stays clamped",
			&core.ViralityStats{Clicks: 100000, Impressions: 100000, TimeSincePublished: 0},
			1*0.5 + 1*0.3 + 1*0.2,
		},
		{
			"cold dead article",
			&core.ViralityStats{Clicks: 0, Impressions: 0, TimeSincePublished: 99},
			0.2 / 100,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Heuristic(tt.stats)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Heuristic = %v, want %v", got, tt.want)
			}
			if got < 0 || got > 1 {
				t.Errorf("Heuristic %v out of [0,1]", got)
			}
		})
	}
}

// stubMLService 用固定结果或固定错误应答 Predict。
type stubMLService struct {
	predictions  []float64
	err          error
	gotInstances [][]float64
}

func (s *stubMLService) Predict(_ context.Context, req *core.MLPredictRequest) (*core.MLPredictResponse, error) {
	s.gotInstances = req.Instances
	if s.err != nil {
		return nil, s.err
	}
	return &core.MLPredictResponse{Predictions: s.predictions}, nil
}

func (s *stubMLService) Health(context.Context) error { return nil }
func (s *stubMLService) Close(context.Context) error  { return nil }

func TestPredictViralityWithoutService(t *testing.T) {
	s := NewScorer(nil, "")
	stats := &core.ViralityStats{Clicks: 100, Impressions: 1000, TimeSincePublished: 1}
	got, err := s.PredictVirality(context.Background(), stats)
	if err != nil {
		t.Fatalf("PredictVirality: %v", err)
	}
	if want := Heuristic(stats); got != want {
		t.Errorf("nil service should fall back to heuristic: got %v, want %v", got, want)
	}
}

func TestPredictViralityWithService(t *testing.T) {
	svc := &stubMLService{predictions: []float64{1.7}}
	s := NewScorer(svc, "virality")
	got, err := s.PredictVirality(context.Background(), &core.ViralityStats{Clicks: 1, Impressions: 10})
	if err != nil {
		t.Fatalf("PredictVirality: %v", err)
	}
	if got != 1.0 {
		t.Errorf("prediction should be clamped to 1, got %v", got)
	}
	if len(svc.gotInstances) != 1 || len(svc.gotInstances[0]) != len(FeatureNames) {
		t.Errorf("service should receive one full feature vector, got %v", svc.gotInstances)
	}
}

func TestPredictViralityServiceFailure(t *testing.T) {
	s := NewScorer(&stubMLService{err: errors.New("connection refused")}, "virality")
	_, err := s.PredictVirality(context.Background(), &core.ViralityStats{})
	if err == nil {
		t.Fatal("service error must propagate so the caller can degrade")
	}
}

func TestPredictViralityEmptyPrediction(t *testing.T) {
	s := NewScorer(&stubMLService{predictions: nil}, "virality")
	_, err := s.PredictVirality(context.Background(), &core.ViralityStats{})
	de := core.GetDomainError(err)
	if de == nil || de.Code != core.ErrorCodeInternalError {
		t.Errorf("empty prediction should be an internal error, got %v", err)
	}
}

func TestPredictBatch(t *testing.T) {
	batch := []*core.ViralityStats{
		{Clicks: 1, Impressions: 10},
		{Clicks: 5, Impressions: 10},
	}

	t.Run("heuristic fallback", func(t *testing.T) {
		s := NewScorer(nil, "")
		got, err := s.PredictBatch(context.Background(), batch)
		if err != nil {
			t.Fatalf("PredictBatch: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("got %d scores, want 2", len(got))
		}
		for i, st := range batch {
			if got[i] != Heuristic(st) {
				t.Errorf("[%d] = %v, want heuristic %v", i, got[i], Heuristic(st))
			}
		}
	})

	t.Run("count mismatch fails", func(t *testing.T) {
		s := NewScorer(&stubMLService{predictions: []float64{0.5}}, "virality")
		if _, err := s.PredictBatch(context.Background(), batch); err == nil {
			t.Error("prediction count mismatch should fail")
		}
	})

	t.Run("empty batch", func(t *testing.T) {
		s := NewScorer(nil, "")
		got, err := s.PredictBatch(context.Background(), nil)
		if err != nil || got != nil {
			t.Errorf("empty batch = (%v, %v), want (nil, nil)", got, err)
		}
	})
}
