// Package newsrec 是一个新闻推荐排序工具包。
//
// 设计要点：
// - Pipeline-first: 推荐逻辑通过 Node 串联（Filter → Rank → ReRank → PostProcess）
// - Labels-first: labels 全链路透传与标准化 merge，支持 explain / 观测 / 策略驱动
// - 排序永不拦截文章: ML 链路任何失败都降级为原始顺序，而不是报错
package newsrec

import "github.com/rushteam/newsrec/pipeline"

// 轻量 facade：便于用户直接 import "newsrec" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)
