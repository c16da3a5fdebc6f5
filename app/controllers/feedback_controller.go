package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/supporthub/backend-go/internal/services"
)

// FeedbackController 坐席反馈接口
type FeedbackController struct {
	BaseController
	feedbackService *services.FeedbackService
}

func (c *FeedbackController) Prepare() {
	if c.feedbackService == nil {
		c.feedbackService = services.NewFeedbackService()
	}
}

// POST /api/feedback
func (c *FeedbackController) Create() {
	var req services.RecordFeedbackRequest
	if err := json.Unmarshal(c.Ctx.Input.RequestBody, &req); err != nil {
		c.JSONError(http.StatusBadRequest, "invalid request body")
		return
	}
	if req.AgentID == "" {
		req.AgentID = c.getAgentID()
	}

	record, err := c.feedbackService.Record(c.Ctx.Request.Context(), &req)
	if err != nil {
		c.handleServiceError(err)
		return
	}
	c.JSONSuccess(record)
}

// GET /api/feedback?processed=false
func (c *FeedbackController) List() {
	page, _ := strconv.Atoi(c.GetString("page", "1"))
	limit, _ := strconv.Atoi(c.GetString("limit", "20"))

	var processed *bool
	if raw := c.GetString("processed"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSONError(http.StatusBadRequest, "processed must be true or false")
			return
		}
		processed = &v
	}

	records, total, err := c.feedbackService.List(c.Ctx.Request.Context(), processed, page, limit)
	if err != nil {
		c.handleServiceError(err)
		return
	}

	c.JSONSuccess(map[string]interface{}{
		"records": records,
		"total":   total,
		"page":    page,
		"limit":   limit,
	})
}
