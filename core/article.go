package core

import (
	"math"
	"time"

	"github.com/rushteam/newsrec/pkg/utils"
)

// ScoreSeen 是"已读"哨兵分（-Inf）：已读文章排在一切有效分之后，
// 并被 TopK 选择排除。全链路共用这一个哨兵。
var ScoreSeen = math.Inf(-1)

// Article 是推荐链路中文章的统一承载结构。
// 上游抓取到的原始记录（字段名因新闻源而异）必须先经过 NormalizeArticle
// 归一化，内部组件只接触归一化后的 Article。
type Article struct {
	ID          string // 稳定标识，取文章 URL
	Title       string
	Description string
	Content     string
	Category    string
	Source      string
	ImageURL    string
	PublishedAt time.Time

	// Engagement 是文章的互动统计，用于爆款信号
	Engagement Engagement

	// ViralityScore 是爆款概率 [0,1]，由排序编排在返回前写入
	ViralityScore float64

	// MLProcessed 表示该文章是否经过 ML 打分链路
	// （false 表示降级路径：原始顺序 + 中性分）
	MLProcessed bool

	// Score 用于排序决策；Labels 用于解释与策略驱动
	Score  float64
	Labels map[string]utils.Label
}

// Engagement 是文章的互动计数。
type Engagement struct {
	Clicks      int64
	Impressions int64
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (a *Article) PutLabel(key string, lbl utils.Label) {
	if a.Labels == nil {
		a.Labels = make(map[string]utils.Label)
	}
	if old, ok := a.Labels[key]; ok {
		a.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	a.Labels[key] = lbl
}

// Text 返回用于向量化的全文（标题 + 描述 + 正文）。
func (a *Article) Text() string {
	out := a.Title
	if a.Description != "" {
		if out != "" {
			out += " "
		}
		out += a.Description
	}
	if a.Content != "" {
		if out != "" {
			out += " "
		}
		out += a.Content
	}
	return out
}

// HoursSincePublished 返回发布至今的小时数。
// 发布时间缺失时返回 24（视为"一天前"的中性默认值）。
func (a *Article) HoursSincePublished(now time.Time) float64 {
	if a.PublishedAt.IsZero() {
		return 24.0
	}
	h := now.Sub(a.PublishedAt).Hours()
	if h < 0 {
		return 0
	}
	return h
}

// RawArticle 是系统边界上的原始文章记录。
// 不同新闻源的字段名不一致（如 NewsData 用 link/pubDate/image_url，
// NewsAPI 用 url/publishedAt/urlToImage），统一在这里兜底互转。
type RawArticle struct {
	URL         string         `json:"url"`
	Link        string         `json:"link"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Content     string         `json:"content"`
	Category    string         `json:"category"`
	Source      map[string]any `json:"source"`
	SourceID    string         `json:"source_id"`
	ImageURL    string         `json:"image_url"`
	URLToImage  string         `json:"urlToImage"`
	PublishedAt string         `json:"publishedAt"`
	PubDate     string         `json:"pubDate"`
	Engagement  *Engagement    `json:"engagement"`
}

// NormalizeArticle 把原始记录映射为规范的 Article。
// ID 取 url，缺失时回落到 link；两者都缺失时返回 nil（无法稳定标识的文章不进入链路）。
func NormalizeArticle(raw *RawArticle) *Article {
	if raw == nil {
		return nil
	}
	id := raw.URL
	if id == "" {
		id = raw.Link
	}
	if id == "" {
		return nil
	}

	a := &Article{
		ID:          id,
		Title:       raw.Title,
		Description: raw.Description,
		Content:     raw.Content,
		Category:    raw.Category,
	}

	if name, ok := raw.Source["name"].(string); ok && name != "" {
		a.Source = name
	} else if raw.SourceID != "" {
		a.Source = raw.SourceID
	} else {
		a.Source = "Unknown"
	}

	a.ImageURL = raw.URLToImage
	if a.ImageURL == "" {
		a.ImageURL = raw.ImageURL
	}

	ts := raw.PublishedAt
	if ts == "" {
		ts = raw.PubDate
	}
	a.PublishedAt = parsePublishedAt(ts)

	if raw.Engagement != nil {
		a.Engagement = *raw.Engagement
	}
	return a
}

// NormalizeArticles 批量归一化，无法标识的记录被跳过。
func NormalizeArticles(raws []*RawArticle) []*Article {
	out := make([]*Article, 0, len(raws))
	for _, raw := range raws {
		if a := NormalizeArticle(raw); a != nil {
			out = append(out, a)
		}
	}
	return out
}

// parsePublishedAt 解析新闻源常见的几种时间格式，失败返回零值。
func parsePublishedAt(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
