package services

import (
	"context"
	"time"

	"github.com/supporthub/backend-go/internal/database"
	"github.com/supporthub/backend-go/internal/errors"
	"github.com/supporthub/backend-go/internal/logger"
	"github.com/supporthub/backend-go/internal/metrics"
	"github.com/supporthub/backend-go/internal/models"
	"github.com/supporthub/backend-go/internal/retrieval"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ArticleService 知识库文章服务
// 文章创建/更新后同步重建向量索引；文档上传解析由外部采集方完成
type ArticleService struct {
	db     *gorm.DB
	engine *retrieval.Engine
}

// CreateArticleRequest 创建文章请求
type CreateArticleRequest struct {
	Title    string `json:"title" validate:"required,max=255"`
	Content  string `json:"content" validate:"required"`
	Category string `json:"category" validate:"max=100"`
	Tags     string `json:"tags" validate:"max=500"`
}

// UpdateArticleRequest 更新文章请求
type UpdateArticleRequest struct {
	Title    *string `json:"title,omitempty" validate:"omitempty,max=255"`
	Content  *string `json:"content,omitempty"`
	Category *string `json:"category,omitempty" validate:"omitempty,max=100"`
	Tags     *string `json:"tags,omitempty" validate:"omitempty,max=500"`
}

// NewArticleService 创建文章服务实例
func NewArticleService() *ArticleService {
	return &ArticleService{
		db:     database.DB,
		engine: GetRetrievalEngine(),
	}
}

// CreateArticle 创建文章并同步建立向量索引
// 索引失败不阻塞创建，文章落库后检索走关键词路径，待再处理或重建补齐
func (s *ArticleService) CreateArticle(ctx context.Context, req CreateArticleRequest) (*models.Article, error) {
	if verr := errors.ValidateStruct(req); verr != nil {
		return nil, verr
	}

	article := &models.Article{
		Title:     req.Title,
		Content:   req.Content,
		Category:  req.Category,
		Tags:      req.Tags,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := s.db.WithContext(ctx).Create(article).Error; err != nil {
		logger.Error("Failed to create article", zap.Error(err), zap.String("title", req.Title))
		return nil, errors.NewSystemError(errors.ErrCodeDatabaseError, "Failed to create article").WithCause(err)
	}

	if err := s.engine.Index(ctx, article); err != nil {
		logger.Warn("Article created but indexing failed",
			zap.Uint("article_id", article.ID), zap.Error(err))
	}

	logger.Info("Article created", zap.Uint("article_id", article.ID), zap.String("title", article.Title))
	return article, nil
}

// UpdateArticle 更新文章并同步重建索引
func (s *ArticleService) UpdateArticle(ctx context.Context, id uint, req UpdateArticleRequest) (*models.Article, error) {
	if verr := errors.ValidateStruct(req); verr != nil {
		return nil, verr
	}

	var article models.Article
	if err := s.db.WithContext(ctx).First(&article, id).Error; err != nil {
		return nil, errors.NewNotFoundError("article")
	}

	if req.Title != nil {
		article.Title = *req.Title
	}
	if req.Content != nil {
		article.Content = *req.Content
	}
	if req.Category != nil {
		article.Category = *req.Category
	}
	if req.Tags != nil {
		article.Tags = *req.Tags
	}
	article.UpdatedAt = time.Now()

	if err := s.db.WithContext(ctx).Save(&article).Error; err != nil {
		logger.Error("Failed to update article", zap.Error(err), zap.Uint("article_id", id))
		return nil, errors.NewSystemError(errors.ErrCodeDatabaseError, "Failed to update article").WithCause(err)
	}

	if err := s.engine.Index(ctx, &article); err != nil {
		logger.Warn("Article updated but re-indexing failed",
			zap.Uint("article_id", article.ID), zap.Error(err))
	}

	return &article, nil
}

// GetArticle 获取单篇文章
func (s *ArticleService) GetArticle(ctx context.Context, id uint) (*models.Article, error) {
	var article models.Article
	if err := s.db.WithContext(ctx).First(&article, id).Error; err != nil {
		return nil, errors.NewNotFoundError("article")
	}
	return &article, nil
}

// ListArticles 分页获取文章列表
func (s *ArticleService) ListArticles(ctx context.Context, page, limit int, category string) ([]models.Article, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := s.db.WithContext(ctx).Model(&models.Article{})
	if category != "" {
		query = query.Where("category = ?", category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errors.NewSystemError(errors.ErrCodeDatabaseError, "Failed to count articles").WithCause(err)
	}

	var articles []models.Article
	offset := (page - 1) * limit
	if err := query.Order("id ASC").Offset(offset).Limit(limit).Find(&articles).Error; err != nil {
		return nil, 0, errors.NewSystemError(errors.ErrCodeDatabaseError, "Failed to list articles").WithCause(err)
	}

	return articles, total, nil
}

// DeleteArticle 删除文章并清理向量索引
func (s *ArticleService) DeleteArticle(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&models.Article{}, id)
	if result.Error != nil {
		return errors.NewSystemError(errors.ErrCodeDatabaseError, "Failed to delete article").WithCause(result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFoundError("article")
	}

	if store := s.engineVectorStore(); store != nil {
		if err := store.Delete(ctx, id); err != nil {
			logger.Warn("Failed to remove article vector", zap.Uint("article_id", id), zap.Error(err))
		}
	}

	logger.Info("Article deleted", zap.Uint("article_id", id))
	return nil
}

// Search 检索知识库
func (s *ArticleService) Search(ctx context.Context, query string, topK int) []retrieval.RetrievedArticle {
	results := s.engine.Search(ctx, query, topK)
	for _, r := range results {
		metrics.RetrievalResults.WithLabelValues(r.Source).Inc()
	}
	return results
}

// ReindexAll 全量重建索引（运维入口）
func (s *ArticleService) ReindexAll(ctx context.Context) (int, error) {
	var articles []models.Article
	if err := s.db.WithContext(ctx).Find(&articles).Error; err != nil {
		return 0, errors.NewSystemError(errors.ErrCodeDatabaseError, "Failed to load articles").WithCause(err)
	}

	indexed := 0
	for i := range articles {
		if err := s.engine.Index(ctx, &articles[i]); err != nil {
			logger.Warn("Reindex skipped article", zap.Uint("article_id", articles[i].ID), zap.Error(err))
			continue
		}
		indexed++
	}

	logger.Info("Knowledge base reindexed", zap.Int("indexed", indexed), zap.Int("total", len(articles)))
	return indexed, nil
}

func (s *ArticleService) engineVectorStore() retrieval.VectorStore {
	return s.engine.VectorStore()
}
