package utils

// Label 是推荐链路中的一等公民：可解释、可追踪、可透传。
// 在新闻排序链路中用于标记打分来源（score_source）、命中的混合策略
// （rank_strategy）、过滤原因（filtered_by）等。
// Value 与 Source 的语义由业务自定义；这里只提供标准化的合并规则。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"` // vectorize / rank / rerank / filter / postprocess ...
}

// MergeLabel 用于合并同名 Label，遵循"保留历史、可追踪"的默认策略。
// - Value: 以 '|' 累积
// - Source: 以 ',' 累积
//
// 如果你需要更复杂的优先级/覆盖规则，可以在上层封装自己的 merge 策略。
func MergeLabel(existing Label, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}

	merged := existing
	merged.Value = existing.Value + "|" + incoming.Value
	switch {
	case existing.Source == "":
		merged.Source = incoming.Source
	case incoming.Source == "":
		merged.Source = existing.Source
	default:
		merged.Source = existing.Source + "," + incoming.Source
	}
	return merged
}

// MergeLabelMaps 把 src 中的所有 Label 按 MergeLabel 规则并入 dst 并返回 dst。
// dst 为 nil 时会新建。多路打分合并结果时使用。
func MergeLabelMaps(dst, src map[string]Label) map[string]Label {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]Label, len(src))
	}
	for k, v := range src {
		if old, ok := dst[k]; ok {
			dst[k] = MergeLabel(old, v)
			continue
		}
		dst[k] = v
	}
	return dst
}
