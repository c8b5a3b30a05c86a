// Package feast 提供 Feast Feature Store 的客户端与适配器。
//
// Feast 是开源的 Feature Store，这里只用它的在线特征读取能力：
// 离线管道把文章的互动统计物化到在线存储，推荐侧按文章 ID 实时取数。
//
// 参考：https://github.com/feast-dev/feast
package feast

import "context"

// Client 是 Feast 客户端的领域接口，实现见 GrpcClient。
type Client interface {
	// GetOnlineFeatures 获取在线特征（用于实时预测）
	GetOnlineFeatures(ctx context.Context, req *GetOnlineFeaturesRequest) (*GetOnlineFeaturesResponse, error)

	// Close 关闭客户端连接
	Close() error
}

// GetOnlineFeaturesRequest 获取在线特征请求。
type GetOnlineFeaturesRequest struct {
	// Features 特征名称列表，例如 ["article_stats:clicks", "article_stats:impressions"]
	Features []string

	// EntityRows 实体行，例如 [{"article_id": "a1"}]
	EntityRows []map[string]any

	// Project 项目名称（可选，缺省用客户端配置）
	Project string
}

// FeatureVector 单个实体的特征向量。
type FeatureVector struct {
	// Values key 为特征名称
	Values map[string]any

	// EntityRow 对应的实体行
	EntityRow map[string]any
}

// GetOnlineFeaturesResponse 获取在线特征响应，行序与请求实体行一致。
type GetOnlineFeaturesResponse struct {
	FeatureVectors []FeatureVector
}
