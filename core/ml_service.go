package core

import "context"

// MLService 是机器学习服务的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（service）实现
//   - 遵循依赖倒置原则：领域层定义接口，基础设施层实现接口
//   - 避免循环依赖：领域层不依赖基础设施层
//
// 使用场景：
//   - 爆款分类器：离线训练的 XGBoost 模型经模型服务在线推理
//   - 其他外部模型服务：TensorFlow Serving、TorchServe、ONNX Runtime 等
//
// 实现：
//   - service.HTTPClient 实现此接口
type MLService interface {
	// Predict 批量预测
	Predict(ctx context.Context, req *MLPredictRequest) (*MLPredictResponse, error)

	// Health 健康检查
	Health(ctx context.Context) error

	// Close 关闭连接
	Close(ctx context.Context) error
}

// MLPredictRequest 预测请求
type MLPredictRequest struct {
	// Instances 特征实例列表（每个实例是一个特征向量）
	// 格式：[[f1, f2, f3, ...], [f1, f2, f3, ...], ...]
	Instances [][]float64

	// ModelName 模型名称（可选，如果服务支持多模型）
	ModelName string

	// ModelVersion 模型版本（可选）
	ModelVersion string
}

// MLPredictResponse 预测响应
type MLPredictResponse struct {
	// Predictions 预测结果列表（与请求实例一一对应）
	Predictions []float64
}

// ViralityService 是爆款打分的领域接口。
// 打分失败时实现方应返回错误，由编排层降级为中性分 0.5。
type ViralityService interface {
	// PredictVirality 根据互动统计预测文章的爆款概率 [0,1]
	PredictVirality(ctx context.Context, stats *ViralityStats) (float64, error)
}

// ViralityStats 是爆款打分的输入统计。
type ViralityStats struct {
	Clicks             int64
	Impressions        int64
	TimeSincePublished float64 // 发布至今的小时数
}

// EngagementSource 是文章互动统计的来源接口。
// 本地实现基于 KeyValueStore 计数；也可接特征仓库（见 feast 包）。
type EngagementSource interface {
	// GetEngagement 批量获取文章的互动计数
	GetEngagement(ctx context.Context, articleIDs []string) (map[string]Engagement, error)
}

// TextCleaner 是文本清洗的外部协作接口。
// 向量化之前所有文本都会经过 Clean；默认实现见 vectorize.BasicCleaner。
type TextCleaner interface {
	Clean(text string) string
}
