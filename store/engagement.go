package store

import (
	"context"
	"strconv"

	"github.com/rushteam/newsrec/core"
)

const (
	// engagementKeyPrefix 互动计数的 Hash key 前缀，
	// 实际 key 为 {prefix}:{articleID}，field 为 clicks/impressions。
	engagementKeyPrefix = "article:engagement"

	// hotRankKey 全站热度榜（按点击加权的有序集合）。
	hotRankKey = "articles:hot"

	fieldClicks      = "clicks"
	fieldImpressions = "impressions"
)

// EngagementCounters 把文章的点击/曝光计数落在 KeyValueStore 上，
// 实现 core.EngagementSource，同时维护一份热度榜。
type EngagementCounters struct {
	KV core.KeyValueStore

	// KeyPrefix 为空时使用 engagementKeyPrefix。
	KeyPrefix string
}

// NewEngagementCounters ..
func NewEngagementCounters(kv core.KeyValueStore) *EngagementCounters {
	return &EngagementCounters{KV: kv}
}

var _ core.EngagementSource = (*EngagementCounters)(nil)

func (c *EngagementCounters) key(articleID string) string {
	prefix := c.KeyPrefix
	if prefix == "" {
		prefix = engagementKeyPrefix
	}
	return prefix + ":" + articleID
}

// RecordClick 点击计数 +n，并同步累加热度榜。
func (c *EngagementCounters) RecordClick(ctx context.Context, articleID string, n int64) error {
	if _, err := c.KV.HIncrBy(ctx, c.key(articleID), fieldClicks, n); err != nil {
		return err
	}
	_, err := c.KV.ZIncrBy(ctx, hotRankKey, float64(n), articleID)
	return err
}

// RecordImpression 曝光计数 +n。
func (c *EngagementCounters) RecordImpression(ctx context.Context, articleID string, n int64) error {
	_, err := c.KV.HIncrBy(ctx, c.key(articleID), fieldImpressions, n)
	return err
}

// GetEngagement 实现 core.EngagementSource。
// 没有计数的文章返回零值而非缺席，方便调用方直接取用。
func (c *EngagementCounters) GetEngagement(ctx context.Context, articleIDs []string) (map[string]core.Engagement, error) {
	out := make(map[string]core.Engagement, len(articleIDs))
	for _, id := range articleIDs {
		fields, err := c.KV.HGetAll(ctx, c.key(id))
		if err != nil && !core.IsNotFound(err) {
			return nil, err
		}
		var eng core.Engagement
		if v, ok := fields[fieldClicks]; ok {
			eng.Clicks, _ = strconv.ParseInt(string(v), 10, 64)
		}
		if v, ok := fields[fieldImpressions]; ok {
			eng.Impressions, _ = strconv.ParseInt(string(v), 10, 64)
		}
		out[id] = eng
	}
	return out, nil
}

// Hottest 返回热度榜前 n 篇文章的 ID。
func (c *EngagementCounters) Hottest(ctx context.Context, n int64) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	return c.KV.ZRange(ctx, hotRankKey, 0, n-1)
}
