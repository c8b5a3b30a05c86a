// Package engine 是排序编排层：把向量化、用户画像、内容召回、
// 协同过滤、混合打分与爆款信号串成一条对外的排序链路。
//
// 编排层的第一原则是"排序永不拦截文章"：任何一步失败都会降级
// （原始顺序 + 中性爆款分 + ml_processed=false），而不是把错误抛给上游。
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/rushteam/newsrec/core"
	"github.com/rushteam/newsrec/hybrid"
	"github.com/rushteam/newsrec/pkg/utils"
	"github.com/rushteam/newsrec/profile"
	"github.com/rushteam/newsrec/svd"
	"github.com/rushteam/newsrec/vectorize"
	"github.com/rushteam/newsrec/virality"
)

// Engine 是推荐排序的有状态编排器。
//
// 状态分三块：
//   - 向量器：首次排序时对候选语料惰性拟合，RefreshCorpus 可显式重拟合
//   - 交互矩阵：TrackInteraction / FitCollaborative 喂入，SVD 模型按需重训
//   - 外部依赖：交互历史、互动计数、爆款打分，全部可缺省
type Engine struct {
	vectorizer *vectorize.TfidfVectorizer

	history    core.InteractionStore
	engagement core.EngagementSource
	virality   core.ViralityService
	strategy   hybrid.Strategy
	config     core.RankerConfig

	fitMu sync.Mutex

	mu     sync.Mutex
	matrix *svd.Matrix
	model  *svd.Model
	dirty  bool

	seed int64
	now  func() time.Time
}

// Option 配置 Engine。
type Option func(*Engine)

// WithHistory 接入交互历史存储（排序时自动取回用户历史）。
func WithHistory(h core.InteractionStore) Option {
	return func(e *Engine) { e.history = h }
}

// WithEngagement 接入互动计数来源（本地计数或 Feast 特征仓库）。
func WithEngagement(s core.EngagementSource) Option {
	return func(e *Engine) { e.engagement = s }
}

// WithVirality 接入爆款打分服务；缺省时使用启发式打分。
func WithVirality(v core.ViralityService) Option {
	return func(e *Engine) { e.virality = v }
}

// WithStrategy 指定混合策略；缺省为自适应加权。
func WithStrategy(s hybrid.Strategy) Option {
	return func(e *Engine) { e.strategy = s }
}

// WithConfig 指定排序配置；缺省为 core.DefaultRankerConfig。
func WithConfig(c core.RankerConfig) Option {
	return func(e *Engine) { e.config = c }
}

// WithModel 注入离线训练好的隐因子模型及其训练矩阵（svd.Load 的产物），
// 推理时只读。之后一旦有新交互（TrackInteraction / FitCollaborative），
// 下次排序会按脏标记重训并覆盖注入的模型。
func WithModel(model *svd.Model, matrix *svd.Matrix) Option {
	return func(e *Engine) {
		if matrix != nil {
			e.matrix = matrix
		}
		e.model = model
		e.dirty = false
	}
}

// WithSeed 指定 SVD 随机投影的种子（保证重训可复现）。
func WithSeed(seed int64) Option {
	return func(e *Engine) { e.seed = seed }
}

// WithClock 注入时钟（测试用）。
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New 创建排序引擎。vectorizer 为空时使用默认配置的向量器。
func New(vectorizer *vectorize.TfidfVectorizer, opts ...Option) *Engine {
	if vectorizer == nil {
		vectorizer = &vectorize.TfidfVectorizer{}
	}
	e := &Engine{
		vectorizer: vectorizer,
		matrix:     svd.NewMatrix(),
		seed:       1,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.config == nil {
		e.config = &core.DefaultRankerConfig{}
	}
	if e.virality == nil {
		e.virality = virality.NewScorer(nil, "")
	}
	return e
}

// Vectorizer 暴露底层向量器（多样性重排节点等需要特征矩阵）。
func (e *Engine) Vectorizer() *vectorize.TfidfVectorizer {
	return e.vectorizer
}

// SetStrategy 运行时切换混合策略（配置驱动的 rank.hybrid 节点使用）。
func (e *Engine) SetStrategy(s hybrid.Strategy) {
	e.mu.Lock()
	e.strategy = s
	e.mu.Unlock()
}

func (e *Engine) currentStrategy() hybrid.Strategy {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.strategy != nil {
		return e.strategy
	}
	return &hybrid.Adaptive{ExperienceThreshold: e.config.ExperienceThreshold()}
}

// TrackInteraction 记录一次用户交互：写入历史存储（若有），
// 并喂入协同过滤的交互矩阵，SVD 模型延迟到下次排序时重训。
func (e *Engine) TrackInteraction(ctx context.Context, inter *core.Interaction) error {
	if inter == nil || inter.UserID == "" || inter.ArticleID == "" {
		return core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput,
			"engine: interaction requires user_id and article_id")
	}
	if e.history != nil {
		if err := e.history.Track(ctx, inter); err != nil {
			return err
		}
	}
	e.mu.Lock()
	e.matrix.Add(inter.UserID, inter.ArticleID, inter.Weight())
	e.dirty = true
	e.mu.Unlock()
	return nil
}

// FitCollaborative 用一批交互整体重建交互矩阵（离线历史的批量导入口）。
func (e *Engine) FitCollaborative(interactions []*core.Interaction) {
	m := svd.BuildMatrix(interactions)
	e.mu.Lock()
	e.matrix = m
	e.model = nil
	e.dirty = true
	e.mu.Unlock()
}

// RefreshCorpus 对指定文章集重新拟合向量器（特征空间换代，
// 旧画像/旧分数自动失效）。
func (e *Engine) RefreshCorpus(articles []*core.Article) error {
	ids := make([]string, len(articles))
	texts := make([]string, len(articles))
	for i, a := range articles {
		ids[i] = a.ID
		texts[i] = a.Text()
	}
	return e.vectorizer.Fit(ids, texts)
}

// ensureCorpus 惰性拟合：向量器未拟合时用当前候选批建特征空间。
// 双检锁保证并发首排只拟合一次（重复拟合会推进代数，打翻在途画像）。
func (e *Engine) ensureCorpus(articles []*core.Article) error {
	if e.vectorizer.Fitted() {
		return nil
	}
	e.fitMu.Lock()
	defer e.fitMu.Unlock()
	if e.vectorizer.Fitted() {
		return nil
	}
	return e.RefreshCorpus(articles)
}

// RankRaw 归一化原始记录后排序。无法稳定标识的记录被丢弃。
func (e *Engine) RankRaw(ctx context.Context, raws []*core.RawArticle, userID string) []*core.Article {
	return e.Rank(ctx, core.NormalizeArticles(raws), userID)
}

// Rank 对候选文章排序。构建最小请求上下文后委托 RankWithContext。
func (e *Engine) Rank(ctx context.Context, articles []*core.Article, userID string) []*core.Article {
	rctx := &core.RecommendContext{UserID: userID, Scene: "feed"}
	return e.RankWithContext(ctx, rctx, articles)
}

// RankWithContext 是排序主入口。rctx 未携带交互历史时自动从存储取回。
// 任何一步失败都降级为原始顺序，绝不丢文章。
func (e *Engine) RankWithContext(ctx context.Context, rctx *core.RecommendContext, articles []*core.Article) []*core.Article {
	if len(articles) == 0 {
		return articles
	}
	if rctx == nil {
		rctx = &core.RecommendContext{}
	}
	if len(rctx.Interactions) == 0 && e.history != nil && rctx.UserID != "" {
		tctx, cancel := context.WithTimeout(ctx, e.config.DefaultTimeout())
		if inters, err := e.history.GetInteractions(tctx, rctx.UserID); err == nil {
			rctx.Interactions = inters
		}
		cancel()
	}

	out, err := e.rank(ctx, rctx, articles)
	if err != nil {
		return Fallback(articles)
	}
	e.annotateVirality(ctx, out)
	return out
}

// Fallback 是降级路径：原始顺序 + 中性爆款分 + 未过 ML 链路标记。
func Fallback(articles []*core.Article) []*core.Article {
	for _, a := range articles {
		a.ViralityScore = hybrid.NeutralScore
		a.MLProcessed = false
	}
	return articles
}

func (e *Engine) rank(ctx context.Context, rctx *core.RecommendContext, articles []*core.Article) ([]*core.Article, error) {
	if err := e.ensureCorpus(articles); err != nil {
		return nil, err
	}
	e.annotateEngagement(ctx, articles)

	prof, err := e.buildProfile(rctx, articles)
	if err != nil {
		return nil, err
	}

	// known 是能解析到特征向量的候选下标；其余候选没有打分信号，
	// 保持原始相对顺序追加在已排序部分之后。
	known := make([]int, 0, len(articles))
	for i, a := range articles {
		if _, err := e.vectorizer.VectorFor(a.ID); err == nil {
			known = append(known, i)
		}
	}
	if len(known) == 0 {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInsufficientData,
			"engine: no candidate resolves to the fitted corpus")
	}

	// 内容路与协同路并发打分；协同路缺席时退化为纯内容排序。
	signals := hybrid.ScoreParallel(ctx, map[string]hybrid.ScorerFunc{
		"tfidf": func(context.Context) ([]float64, error) {
			return e.contentScores(prof, articles, known)
		},
		"svd": func(context.Context) ([]float64, error) {
			return e.collaborativeScores(rctx.UserID, articles, known)
		},
	})
	tfidfScores, ok := signals["tfidf"]
	if !ok {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInternalError,
			"engine: content scoring failed")
	}
	svdScores, svdOK := signals["svd"]
	if !svdOK {
		svdScores = make([]float64, len(known))
	}

	strategy := e.currentStrategy()
	in := &hybrid.Input{
		TFIDF:            tfidfScores,
		SVD:              svdScores,
		InteractionCount: rctx.InteractionCount(),
		TFIDFConfidence:  contentConfidence(prof),
		SVDConfidence:    svdConfidence(svdOK, svdScores),
	}
	combined, err := strategy.Combine(in)
	if err != nil {
		return nil, err
	}

	// 已读文章沉底：从已排序部分剔除，由追加逻辑按原始顺序收尾。
	for j, idx := range known {
		if rctx.Seen(articles[idx].ID) {
			combined[j] = core.ScoreSeen
		}
	}

	order := utils.TopIndices(combined, len(combined))
	ranked := make([]*core.Article, 0, len(articles))
	picked := make(map[int]bool, len(order))
	for _, j := range order {
		idx := known[j]
		a := articles[idx]
		a.Score = combined[j]
		a.PutLabel("rank_model", utils.Label{Value: strategy.Name(), Source: "engine"})
		ranked = append(ranked, a)
		picked[idx] = true
	}
	for i, a := range articles {
		if !picked[i] {
			ranked = append(ranked, a)
		}
	}
	for _, a := range ranked {
		a.MLProcessed = true
	}
	return ranked, nil
}

// buildProfile 构建用户画像：优先交互历史，其次兴趣标签，兜底零向量。
func (e *Engine) buildProfile(rctx *core.RecommendContext, articles []*core.Article) (profile.Vector, error) {
	if len(rctx.Interactions) > 0 {
		return profile.BuildFromInteractions(rctx.Interactions, e.vectorizer)
	}
	if len(rctx.InterestTags) > 0 {
		matrix := e.vectorizer.Matrix()
		categories := make([]string, matrix.Len())
		byID := make(map[string]string, len(articles))
		for _, a := range articles {
			byID[a.ID] = a.Category
		}
		for i, id := range matrix.IDs {
			categories[i] = byID[id]
		}
		return profile.BuildFromInterests(rctx.InterestTags, categories, e.vectorizer)
	}
	matrix := e.vectorizer.Matrix()
	if matrix == nil {
		return profile.Vector{}, vectorize.ErrNotFitted
	}
	return profile.Vector{Values: make([]float64, matrix.Dim), Gen: matrix.Gen}, nil
}

// contentScores 计算 known 候选与画像的余弦相似度。
func (e *Engine) contentScores(prof profile.Vector, articles []*core.Article, known []int) ([]float64, error) {
	if prof.Gen != e.vectorizer.Generation() {
		return nil, vectorize.ErrNotFitted
	}
	out := make([]float64, len(known))
	for j, idx := range known {
		vec, err := e.vectorizer.VectorFor(articles[idx].ID)
		if err != nil {
			return nil, err
		}
		out[j] = vectorize.CosineDense(vec, prof.Values)
	}
	return out, nil
}

// collaborativeScores 计算 known 候选的 SVD 还原分。
// 模型缺席/用户不在矩阵中/数据不足都返回错误（该路缺席，不拦排序）。
func (e *Engine) collaborativeScores(userID string, articles []*core.Article, known []int) ([]float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.dirty {
		e.dirty = false
		e.model = nil
		if model, err := svd.Train(e.matrix, e.config.DefaultComponents(), e.seed); err == nil {
			e.model = model
		}
	}
	if e.model == nil {
		return nil, core.NewDomainError(core.ModuleSVD, core.ErrorCodeNotFitted, "engine: no collaborative model")
	}
	userIdx, ok := e.matrix.UserIndex(userID)
	if !ok {
		return nil, core.NewDomainError(core.ModuleSVD, core.ErrorCodeNotFound, "engine: user not in interaction matrix")
	}

	latent := e.model.Transform(e.matrix.Row(userIdx))
	cols := make(map[string]int, len(e.model.Articles))
	for col, id := range e.model.Articles {
		cols[id] = col
	}

	out := make([]float64, len(known))
	for j, idx := range known {
		col, ok := cols[articles[idx].ID]
		if !ok {
			continue
		}
		factor := e.model.ArticleFactor(col)
		var s float64
		for i := range latent {
			s += latent[i] * factor[i]
		}
		out[j] = s
	}
	return out, nil
}

// annotateEngagement 用计数来源回填候选的互动统计（尽力而为）。
func (e *Engine) annotateEngagement(ctx context.Context, articles []*core.Article) {
	if e.engagement == nil {
		return
	}
	ids := make([]string, len(articles))
	for i, a := range articles {
		ids[i] = a.ID
	}
	tctx, cancel := context.WithTimeout(ctx, e.config.DefaultTimeout())
	defer cancel()
	counts, err := e.engagement.GetEngagement(tctx, ids)
	if err != nil {
		return
	}
	for _, a := range articles {
		if eng, ok := counts[a.ID]; ok && (eng.Clicks > 0 || eng.Impressions > 0) {
			a.Engagement = eng
		}
	}
}

// annotateVirality 为每篇文章写入爆款分，单篇失败降级为中性分。
func (e *Engine) annotateVirality(ctx context.Context, articles []*core.Article) {
	now := e.now()
	for _, a := range articles {
		stats := &core.ViralityStats{
			Clicks:             a.Engagement.Clicks,
			Impressions:        a.Engagement.Impressions,
			TimeSincePublished: a.HoursSincePublished(now),
		}
		score, err := e.virality.PredictVirality(ctx, stats)
		if err != nil {
			score = hybrid.NeutralScore
		}
		a.ViralityScore = score
	}
}

// contentConfidence 内容路置信度：有个性化信号记满分。
func contentConfidence(prof profile.Vector) float64 {
	if prof.IsZero() {
		return 0
	}
	return 1
}

// svdConfidence 协同路置信度：该路缺席或全零时为 0。
func svdConfidence(ok bool, scores []float64) float64 {
	if !ok {
		return 0
	}
	for _, s := range scores {
		if s != 0 {
			return 1
		}
	}
	return 0
}
