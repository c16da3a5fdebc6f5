package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/supporthub/backend-go/internal/services"
)

// AnalyticsController 看板数据接口
type AnalyticsController struct {
	BaseController
	analyticsService *services.AnalyticsService
}

func (c *AnalyticsController) Prepare() {
	if c.analyticsService == nil {
		c.analyticsService = services.NewAnalyticsService()
	}
}

// GET /api/analytics/summary
func (c *AnalyticsController) Summary() {
	summary, err := c.analyticsService.GetSummary(c.Ctx.Request.Context())
	if err != nil {
		c.handleServiceError(err)
		return
	}
	c.JSONSuccess(summary)
}

// GET /api/analytics/daily?days=30
func (c *AnalyticsController) Daily() {
	days, _ := strconv.Atoi(c.GetString("days", "30"))

	rows, err := c.analyticsService.ListDaily(c.Ctx.Request.Context(), days)
	if err != nil {
		c.handleServiceError(err)
		return
	}
	c.JSONSuccess(map[string]interface{}{"daily_metrics": rows})
}

// POST /api/analytics/rollup?date=2026-08-30
// 缺省聚合昨天
func (c *AnalyticsController) Rollup() {
	day := time.Now().AddDate(0, 0, -1)
	if raw := c.GetString("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSONError(http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}

	rollup, err := c.analyticsService.RollupDaily(c.Ctx.Request.Context(), day)
	if err != nil {
		c.handleServiceError(err)
		return
	}
	c.JSONSuccess(rollup)
}
