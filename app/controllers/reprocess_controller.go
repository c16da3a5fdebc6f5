package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/supporthub/backend-go/internal/services"
)

// ReprocessController 反馈批处理接口
type ReprocessController struct {
	BaseController
	reprocessService *services.ReprocessService
}

func (c *ReprocessController) Prepare() {
	if c.reprocessService == nil {
		c.reprocessService = services.NewReprocessService()
	}
}

// runBatchRequest 批处理触发请求
type runBatchRequest struct {
	Partition string `json:"partition,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

// POST /api/reprocess/run
func (c *ReprocessController) Run() {
	var req runBatchRequest
	if len(c.Ctx.Input.RequestBody) > 0 {
		if err := json.Unmarshal(c.Ctx.Input.RequestBody, &req); err != nil {
			c.JSONError(http.StatusBadRequest, "invalid request body")
			return
		}
	}

	report, err := c.reprocessService.RunBatch(c.Ctx.Request.Context(), req.Partition, req.Limit)
	if err != nil {
		c.handleServiceError(err)
		return
	}
	c.JSONSuccess(report)
}

// GET /api/reprocess/export
// 以JSONL流式导出已处理的训练记录
func (c *ReprocessController) Export() {
	c.Ctx.Output.Header("Content-Type", "application/x-ndjson")
	c.Ctx.Output.Header("Content-Disposition", `attachment; filename="training_records.jsonl"`)

	if _, err := c.reprocessService.ExportProcessed(c.Ctx.Request.Context(), c.Ctx.ResponseWriter); err != nil {
		c.handleServiceError(err)
		return
	}
}
