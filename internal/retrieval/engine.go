package retrieval

import (
	"context"
	"encoding/json"
	"time"

	apperrors "github.com/supporthub/backend-go/internal/errors"
	"github.com/supporthub/backend-go/internal/logger"
	"github.com/supporthub/backend-go/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 检索结果来源
const (
	SourceVector  = "vector"
	SourceKeyword = "keyword"
)

// RetrievedArticle 单条检索结果
// Source标记命中路径，降级对调用方透明，只能通过该字段观测
type RetrievedArticle struct {
	ArticleID  uint    `json:"article_id"`
	Title      string  `json:"title"`
	Similarity float64 `json:"similarity"`
	Source     string  `json:"source"`
}

// Engine 检索引擎，组合Embedder与VectorStore，失败时降级到关键词检索
type Engine struct {
	db          *gorm.DB
	embedder    Embedder
	vectorStore VectorStore
	topK        int
	timeout     time.Duration
}

// NewEngine 创建检索引擎
func NewEngine(db *gorm.DB, embedder Embedder, vectorStore VectorStore, topK int, timeout time.Duration) *Engine {
	if topK <= 0 {
		topK = 3
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Engine{
		db:          db,
		embedder:    embedder,
		vectorStore: vectorStore,
		topK:        topK,
		timeout:     timeout,
	}
}

// Search 语义检索，任何失败（嵌入异常、索引不可用、零命中、超时）都走关键词降级
// 对调用方永不返回错误，最坏情况返回空结果
func (e *Engine) Search(ctx context.Context, query string, topK int) []RetrievedArticle {
	if topK <= 0 {
		topK = e.topK
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	if e.embedder == nil || !e.embedder.Ready() || e.vectorStore == nil || !e.vectorStore.Ready() {
		return e.keywordFallback(ctx, query, topK)
	}

	queryEmbedding, err := e.embedder.Embed(ctx, query)
	if err != nil {
		logger.Warn("Query embedding failed, falling back to keyword search",
			zap.String("query", query), zap.Error(err))
		return e.keywordFallback(ctx, query, topK)
	}

	matches, err := e.vectorStore.Search(ctx, VectorSearchRequest{
		QueryEmbedding: queryEmbedding,
		Limit:          topK,
	})
	if err != nil {
		logger.Warn("Vector search failed, falling back to keyword search", zap.Error(err))
		return e.keywordFallback(ctx, query, topK)
	}
	if len(matches) == 0 {
		// 索引为空或尚未构建
		return e.keywordFallback(ctx, query, topK)
	}

	results := make([]RetrievedArticle, 0, len(matches))
	for _, match := range matches {
		var article models.Article
		if err := e.db.WithContext(ctx).Select("id, title").First(&article, match.ArticleID).Error; err != nil {
			continue
		}
		results = append(results, RetrievedArticle{
			ArticleID:  match.ArticleID,
			Title:      article.Title,
			Similarity: clamp01(match.Similarity),
			Source:     SourceVector,
		})
	}
	if len(results) == 0 {
		return e.keywordFallback(ctx, query, topK)
	}
	return results
}

// keywordFallback 关键词降级检索，数据库也不可用时返回空结果
func (e *Engine) keywordFallback(ctx context.Context, query string, topK int) []RetrievedArticle {
	// 降级路径不受嵌入超时影响
	ctx = context.WithoutCancel(ctx)

	var articles []models.Article
	if err := e.db.WithContext(ctx).Select("id, title, content, tags").Find(&articles).Error; err != nil {
		logger.Error("Keyword fallback failed to load articles", zap.Error(err))
		return []RetrievedArticle{}
	}
	return RankByKeyword(query, articles, topK)
}

// Index 为文章建立向量索引
// 嵌入 title + " " + content，按id幂等写入向量库，同时把向量双写回文章行便于恢复
func (e *Engine) Index(ctx context.Context, article *models.Article) error {
	if e.embedder == nil || !e.embedder.Ready() {
		return apperrors.NewExternalError(apperrors.ErrCodeIndexUnavailable, "embedding provider unavailable")
	}
	if e.vectorStore == nil || !e.vectorStore.Ready() {
		return apperrors.NewExternalError(apperrors.ErrCodeIndexUnavailable, "vector store unavailable")
	}

	embedding, err := e.embedder.Embed(ctx, article.Title+" "+article.Content)
	if err != nil {
		return apperrors.NewExternalError(apperrors.ErrCodeIndexUnavailable, "failed to embed article").WithCause(err)
	}

	if err := e.vectorStore.Upsert(ctx, ArticleVector{
		ArticleID: article.ID,
		Embedding: embedding,
	}); err != nil {
		return apperrors.NewExternalError(apperrors.ErrCodeIndexUnavailable, "failed to upsert article vector").WithCause(err)
	}

	// 双写：向量副本落到文章行，updated_at同步刷新
	embeddingJSON, err := json.Marshal(embedding)
	if err != nil {
		return apperrors.NewSystemError(apperrors.ErrCodeInternalServer, "failed to marshal embedding").WithCause(err)
	}
	if err := e.db.WithContext(ctx).Model(&models.Article{}).
		Where("id = ?", article.ID).
		Updates(map[string]interface{}{
			"embedding":  string(embeddingJSON),
			"updated_at": time.Now(),
		}).Error; err != nil {
		return apperrors.NewSystemError(apperrors.ErrCodeDatabaseError, "failed to persist article embedding").WithCause(err)
	}

	logger.Info("Article indexed", zap.Uint("article_id", article.ID), zap.Int("dims", len(embedding)))
	return nil
}

// Embedder 暴露底层嵌入句柄，供意图分类等复用同一模型
func (e *Engine) Embedder() Embedder {
	return e.embedder
}

// VectorStore 暴露底层向量存储，供文章删除等维护操作复用
func (e *Engine) VectorStore() VectorStore {
	return e.vectorStore
}

// TopK 返回默认top_k
func (e *Engine) TopK() int {
	return e.topK
}
