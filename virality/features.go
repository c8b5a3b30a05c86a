// Package virality 实现文章爆款信号：从互动统计构造特征，
// 经外部分类器（core.MLService）或启发式兜底得到 [0,1] 的爆款概率。
package virality

import (
	"math"

	"github.com/rushteam/newsrec/core"
)

// FeatureNames 是完整特征的列顺序（必须与离线训练一致）。
var FeatureNames = []string{
	"ctr",
	"log_impressions",
	"log_clicks",
	"freshness",
	"engagement_rate",
	"impression_velocity",
}

// CTR 安全计算点击率：零曝光时为 0。
func CTR(clicks, impressions int64) float64 {
	if impressions == 0 {
		return 0
	}
	return float64(clicks) / float64(impressions)
}

// Features 构造全部 6 个特征，顺序与 FeatureNames 一致：
//   - ctr：点击率
//   - log_impressions / log_clicks：log1p 压缩量级
//   - freshness：1/(1+发布小时数)，越新越高
//   - engagement_rate：每小时点击
//   - impression_velocity：每小时曝光
func Features(stats *core.ViralityStats) []float64 {
	hours := stats.TimeSincePublished
	return []float64{
		CTR(stats.Clicks, stats.Impressions),
		math.Log1p(float64(stats.Impressions)),
		math.Log1p(float64(stats.Clicks)),
		1 / (1 + hours),
		float64(stats.Clicks) / (hours + 1),
		float64(stats.Impressions) / (hours + 1),
	}
}

// SimpleFeatures 构造 3 特征的精简版（数据量不足时的训练配置）。
func SimpleFeatures(stats *core.ViralityStats) []float64 {
	return []float64{
		CTR(stats.Clicks, stats.Impressions),
		math.Log1p(float64(stats.Impressions)),
		1 / (1 + stats.TimeSincePublished),
	}
}
