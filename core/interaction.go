package core

import "context"

// Interaction 是用户与文章互动的原子单元。
// 既是用户画像（profile）的输入，也是交互矩阵（svd）的输入。
type Interaction struct {
	UserID    string
	ArticleID string

	// Clicks 点击次数；Duration 阅读时长（秒）
	Clicks   int64
	Duration int64
}

// Weight 返回交互权重：点击数 + 阅读分钟数。
// 两者皆缺省时权重为 1（一次曝光级别的弱信号）。
func (i *Interaction) Weight() float64 {
	w := float64(i.Clicks) + float64(i.Duration)/60.0
	if w <= 0 {
		return 1.0
	}
	return w
}

// InteractionStore 是交互历史的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store）实现
//   - 遵循依赖倒置原则：领域层定义接口，基础设施层实现接口
//
// 实现：
//   - store.InteractionHistory（基于 KeyValueStore）实现此接口
type InteractionStore interface {
	// GetInteractions 获取某个用户的全部交互记录
	GetInteractions(ctx context.Context, userID string) ([]*Interaction, error)

	// Track 记录一次交互（点击/阅读）
	Track(ctx context.Context, inter *Interaction) error
}
