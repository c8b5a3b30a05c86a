package feast

import (
	"context"
	"fmt"

	"github.com/rushteam/newsrec/core"
	"github.com/rushteam/newsrec/pkg/conv"
)

// 默认的特征视图与实体配置，与离线物化管道保持一致。
const (
	DefaultEntityKey          = "article_id"
	DefaultClicksFeature      = "article_stats:clicks"
	DefaultImpressionsFeature = "article_stats:impressions"
)

// EngagementAdapter 把 Feast 在线特征适配成 core.EngagementSource：
// 按文章 ID 取点击/曝光计数，供爆款打分使用。
type EngagementAdapter struct {
	Client Client

	// EntityKey / ClicksFeature / ImpressionsFeature 为空时使用默认值。
	EntityKey          string
	ClicksFeature      string
	ImpressionsFeature string
}

// NewEngagementAdapter ..
func NewEngagementAdapter(client Client) *EngagementAdapter {
	return &EngagementAdapter{Client: client}
}

var _ core.EngagementSource = (*EngagementAdapter)(nil)

// GetEngagement 实现 core.EngagementSource。
// 特征缺失的文章返回零值计数。
func (a *EngagementAdapter) GetEngagement(ctx context.Context, articleIDs []string) (map[string]core.Engagement, error) {
	if len(articleIDs) == 0 {
		return map[string]core.Engagement{}, nil
	}

	entityKey := a.EntityKey
	if entityKey == "" {
		entityKey = DefaultEntityKey
	}
	clicksFeature := a.ClicksFeature
	if clicksFeature == "" {
		clicksFeature = DefaultClicksFeature
	}
	impressionsFeature := a.ImpressionsFeature
	if impressionsFeature == "" {
		impressionsFeature = DefaultImpressionsFeature
	}

	entityRows := make([]map[string]any, len(articleIDs))
	for i, id := range articleIDs {
		entityRows[i] = map[string]any{entityKey: id}
	}

	resp, err := a.Client.GetOnlineFeatures(ctx, &GetOnlineFeaturesRequest{
		Features:   []string{clicksFeature, impressionsFeature},
		EntityRows: entityRows,
	})
	if err != nil {
		return nil, fmt.Errorf("feast engagement: %w", err)
	}

	out := make(map[string]core.Engagement, len(articleIDs))
	for i, id := range articleIDs {
		var eng core.Engagement
		if i < len(resp.FeatureVectors) {
			values := resp.FeatureVectors[i].Values
			if f, ok := conv.ToFloat64(values[clicksFeature]); ok {
				eng.Clicks = int64(f)
			}
			if f, ok := conv.ToFloat64(values[impressionsFeature]); ok {
				eng.Impressions = int64(f)
			}
		}
		out[id] = eng
	}
	return out, nil
}
