// Package store 提供存储后端实现。
//
// 注意：此包只包含实现，接口定义在 core 包
// （core.Store / core.KeyValueStore / core.InteractionStore / core.EngagementSource）。
//
// 示例：
//
//	var kv core.KeyValueStore = store.NewMemoryStore()
//	history := store.NewInteractionHistory(kv)
//	counters := store.NewEngagementCounters(kv)
package store
