package core

import "time"

// RankerConfig 是排序相关的配置接口，用于提供默认值。
type RankerConfig interface {
	// DefaultTopK 返回默认的 TopK 推荐条数
	DefaultTopK() int

	// DefaultAlpha 返回内容分与协同分的默认混合权重（内容侧）
	DefaultAlpha() float64

	// ExperienceThreshold 返回自适应混合的"老用户"交互条数阈值
	ExperienceThreshold() int

	// DefaultComponents 返回 SVD 默认隐因子个数
	DefaultComponents() int

	// DefaultDiversityWeight 返回多样性重排的默认权重
	DefaultDiversityWeight() float64

	// DefaultTimeout 返回外部依赖（存储/特征服务）的默认超时时间
	DefaultTimeout() time.Duration
}

// DefaultRankerConfig 是默认的排序配置实现。
type DefaultRankerConfig struct{}

func (c *DefaultRankerConfig) DefaultTopK() int {
	return 10
}

func (c *DefaultRankerConfig) DefaultAlpha() float64 {
	return 0.6
}

func (c *DefaultRankerConfig) ExperienceThreshold() int {
	return 5
}

func (c *DefaultRankerConfig) DefaultComponents() int {
	return 50
}

func (c *DefaultRankerConfig) DefaultDiversityWeight() float64 {
	return 0.3
}

func (c *DefaultRankerConfig) DefaultTimeout() time.Duration {
	return 2 * time.Second
}
