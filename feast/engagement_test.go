package feast

import (
	"context"
	"errors"
	"testing"

	"github.com/rushteam/newsrec/core"
)

type fakeClient struct {
	resp   *GetOnlineFeaturesResponse
	err    error
	got    *GetOnlineFeaturesRequest
	called int
}

func (f *fakeClient) GetOnlineFeatures(_ context.Context, req *GetOnlineFeaturesRequest) (*GetOnlineFeaturesResponse, error) {
	f.called++
	f.got = req
	return f.resp, f.err
}

func (f *fakeClient) Close() error { return nil }

func TestEngagementAdapter(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{
		resp: &GetOnlineFeaturesResponse{
			FeatureVectors: []FeatureVector{
				{Values: map[string]any{
					DefaultClicksFeature:      int64(500),
					DefaultImpressionsFeature: float64(5000),
				}},
				{Values: map[string]any{}}, // 特征缺失的文章
			},
		},
	}
	adapter := NewEngagementAdapter(client)

	got, err := adapter.GetEngagement(ctx, []string{"a1", "a2"})
	if err != nil {
		t.Fatalf("GetEngagement: %v", err)
	}
	if got["a1"] != (core.Engagement{Clicks: 500, Impressions: 5000}) {
		t.Errorf("a1 = %+v, want clicks 500 impressions 5000", got["a1"])
	}
	if got["a2"] != (core.Engagement{}) {
		t.Errorf("a2 = %+v, want zero counts", got["a2"])
	}

	// 请求按默认特征视图与实体键构造
	req := client.got
	if len(req.Features) != 2 || req.Features[0] != DefaultClicksFeature || req.Features[1] != DefaultImpressionsFeature {
		t.Errorf("features = %v", req.Features)
	}
	if len(req.EntityRows) != 2 || req.EntityRows[0][DefaultEntityKey] != "a1" {
		t.Errorf("entity rows = %v", req.EntityRows)
	}
}

func TestEngagementAdapterCustomFeatures(t *testing.T) {
	client := &fakeClient{
		resp: &GetOnlineFeaturesResponse{
			FeatureVectors: []FeatureVector{
				{Values: map[string]any{"news_stats:c": int64(3), "news_stats:i": int64(30)}},
			},
		},
	}
	adapter := &EngagementAdapter{
		Client:             client,
		EntityKey:          "news_id",
		ClicksFeature:      "news_stats:c",
		ImpressionsFeature: "news_stats:i",
	}

	got, err := adapter.GetEngagement(context.Background(), []string{"n1"})
	if err != nil {
		t.Fatalf("GetEngagement: %v", err)
	}
	if got["n1"] != (core.Engagement{Clicks: 3, Impressions: 30}) {
		t.Errorf("n1 = %+v", got["n1"])
	}
	if client.got.EntityRows[0]["news_id"] != "n1" {
		t.Errorf("entity rows = %v", client.got.EntityRows)
	}
}

func TestEngagementAdapterEdgeCases(t *testing.T) {
	t.Run("empty ids skip the client", func(t *testing.T) {
		client := &fakeClient{}
		adapter := NewEngagementAdapter(client)
		got, err := adapter.GetEngagement(context.Background(), nil)
		if err != nil || len(got) != 0 {
			t.Fatalf("GetEngagement = %v, %v, want empty map", got, err)
		}
		if client.called != 0 {
			t.Error("client should not be called for empty ids")
		}
	})

	t.Run("client error propagates", func(t *testing.T) {
		boom := errors.New("feature server down")
		adapter := NewEngagementAdapter(&fakeClient{err: boom})
		if _, err := adapter.GetEngagement(context.Background(), []string{"a1"}); !errors.Is(err, boom) {
			t.Errorf("GetEngagement error = %v, want wrapped %v", err, boom)
		}
	})

	t.Run("short response pads zero counts", func(t *testing.T) {
		adapter := NewEngagementAdapter(&fakeClient{
			resp: &GetOnlineFeaturesResponse{FeatureVectors: []FeatureVector{
				{Values: map[string]any{DefaultClicksFeature: int64(1)}},
			}},
		})
		got, err := adapter.GetEngagement(context.Background(), []string{"a1", "a2"})
		if err != nil {
			t.Fatalf("GetEngagement: %v", err)
		}
		if got["a2"] != (core.Engagement{}) {
			t.Errorf("a2 = %+v, want zero counts", got["a2"])
		}
	})
}
