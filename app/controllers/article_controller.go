package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/supporthub/backend-go/internal/services"
)

// ArticleController 知识库文章接口
type ArticleController struct {
	BaseController
	articleService *services.ArticleService
}

func (c *ArticleController) Prepare() {
	if c.articleService == nil {
		c.articleService = services.NewArticleService()
	}
}

// GET /api/articles
func (c *ArticleController) List() {
	page, _ := strconv.Atoi(c.GetString("page", "1"))
	limit, _ := strconv.Atoi(c.GetString("limit", "20"))
	category := c.GetString("category")

	articles, total, err := c.articleService.ListArticles(c.Ctx.Request.Context(), page, limit, category)
	if err != nil {
		c.handleServiceError(err)
		return
	}

	c.JSONSuccess(map[string]interface{}{
		"articles": articles,
		"total":    total,
		"page":     page,
		"limit":    limit,
	})
}

// GET /api/articles/:id
func (c *ArticleController) Get() {
	id, ok := c.mustParseUintParam(":id")
	if !ok {
		return
	}

	article, err := c.articleService.GetArticle(c.Ctx.Request.Context(), id)
	if err != nil {
		c.handleServiceError(err)
		return
	}
	c.JSONSuccess(article)
}

// POST /api/articles
func (c *ArticleController) Create() {
	var req services.CreateArticleRequest
	if err := json.Unmarshal(c.Ctx.Input.RequestBody, &req); err != nil {
		c.JSONError(http.StatusBadRequest, "invalid request body")
		return
	}

	article, err := c.articleService.CreateArticle(c.Ctx.Request.Context(), req)
	if err != nil {
		c.handleServiceError(err)
		return
	}
	c.JSONSuccess(article)
}

// PUT /api/articles/:id
func (c *ArticleController) Update() {
	id, ok := c.mustParseUintParam(":id")
	if !ok {
		return
	}

	var req services.UpdateArticleRequest
	if err := json.Unmarshal(c.Ctx.Input.RequestBody, &req); err != nil {
		c.JSONError(http.StatusBadRequest, "invalid request body")
		return
	}

	article, err := c.articleService.UpdateArticle(c.Ctx.Request.Context(), id, req)
	if err != nil {
		c.handleServiceError(err)
		return
	}
	c.JSONSuccess(article)
}

// DELETE /api/articles/:id
func (c *ArticleController) Delete() {
	id, ok := c.mustParseUintParam(":id")
	if !ok {
		return
	}

	if err := c.articleService.DeleteArticle(c.Ctx.Request.Context(), id); err != nil {
		c.handleServiceError(err)
		return
	}
	c.JSONSuccess(map[string]interface{}{"deleted": id})
}

// GET /api/articles/search?query=...&top_k=3
func (c *ArticleController) Search() {
	query := c.GetString("query")
	if query == "" {
		c.JSONError(http.StatusBadRequest, "query parameter is required")
		return
	}
	topK, _ := strconv.Atoi(c.GetString("top_k", "0"))

	// 检索永不失败，最坏情况返回空列表
	results := c.articleService.Search(c.Ctx.Request.Context(), query, topK)
	c.JSONSuccess(map[string]interface{}{
		"query":   query,
		"results": results,
	})
}

// POST /api/articles/reindex
func (c *ArticleController) Reindex() {
	count, err := c.articleService.ReindexAll(c.Ctx.Request.Context())
	if err != nil {
		c.handleServiceError(err)
		return
	}
	c.JSONSuccess(map[string]interface{}{"indexed": count})
}
