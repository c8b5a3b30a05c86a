package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rushteam/newsrec/core"
)

// interactionKeyPrefix 交互历史的 Hash key 前缀，
// 实际 key 为 {prefix}:{userID}，field 为文章 ID。
const interactionKeyPrefix = "user:interactions"

// InteractionHistory 把用户交互历史落在 KeyValueStore 的 Hash 上，
// 实现 core.InteractionStore。同一用户对同一文章的多次交互会累加。
type InteractionHistory struct {
	KV core.KeyValueStore

	// KeyPrefix 为空时使用 interactionKeyPrefix。
	KeyPrefix string
}

// NewInteractionHistory ..
func NewInteractionHistory(kv core.KeyValueStore) *InteractionHistory {
	return &InteractionHistory{KV: kv}
}

var _ core.InteractionStore = (*InteractionHistory)(nil)

// interactionRecord 是 Hash field 的存储形态。
type interactionRecord struct {
	Clicks   int64 `json:"clicks"`
	Duration int64 `json:"duration"`
}

func (h *InteractionHistory) key(userID string) string {
	prefix := h.KeyPrefix
	if prefix == "" {
		prefix = interactionKeyPrefix
	}
	return prefix + ":" + userID
}

// GetInteractions 实现 core.InteractionStore。
// 用户不存在时返回空列表而非错误。
func (h *InteractionHistory) GetInteractions(ctx context.Context, userID string) ([]*core.Interaction, error) {
	fields, err := h.KV.HGetAll(ctx, h.key(userID))
	if err != nil {
		if core.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("load interactions: %w", err)
	}

	out := make([]*core.Interaction, 0, len(fields))
	for articleID, raw := range fields {
		var rec interactionRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			// 脏数据跳过，不拖垮整份历史
			continue
		}
		out = append(out, &core.Interaction{
			UserID:    userID,
			ArticleID: articleID,
			Clicks:    rec.Clicks,
			Duration:  rec.Duration,
		})
	}
	return out, nil
}

// Track 实现 core.InteractionStore：读改写合并同一文章的交互。
func (h *InteractionHistory) Track(ctx context.Context, inter *core.Interaction) error {
	if inter == nil || inter.UserID == "" || inter.ArticleID == "" {
		return core.NewDomainError(core.ModuleStore, core.ErrorCodeInvalidInput,
			"store: interaction requires user_id and article_id")
	}

	key := h.key(inter.UserID)
	rec := interactionRecord{Clicks: inter.Clicks, Duration: inter.Duration}
	if raw, err := h.KV.HGet(ctx, key, inter.ArticleID); err == nil {
		var prev interactionRecord
		if json.Unmarshal(raw, &prev) == nil {
			rec.Clicks += prev.Clicks
			rec.Duration += prev.Duration
		}
	}

	buf, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal interaction: %w", err)
	}
	return h.KV.HSet(ctx, key, inter.ArticleID, buf)
}
