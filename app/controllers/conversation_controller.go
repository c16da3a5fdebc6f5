package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/supporthub/backend-go/internal/services"
)

// ConversationController 会话与消息接口
type ConversationController struct {
	BaseController
	conversationService *services.ConversationService
	generationService   *services.GenerationService
}

func (c *ConversationController) Prepare() {
	if c.conversationService == nil {
		c.conversationService = services.NewConversationService()
	}
	if c.generationService == nil {
		c.generationService = services.NewGenerationService()
	}
}

// POST /api/conversations
func (c *ConversationController) Create() {
	var req services.CreateConversationRequest
	if err := json.Unmarshal(c.Ctx.Input.RequestBody, &req); err != nil {
		c.JSONError(http.StatusBadRequest, "invalid request body")
		return
	}
	conversation, err := c.conversationService.CreateConversation(c.Ctx.Request.Context(), &req)
	if err != nil {
		c.handleServiceError(err)
		return
	}
	c.JSONSuccess(conversation)
}

// GET /api/conversations
func (c *ConversationController) List() {
	page, _ := strconv.Atoi(c.GetString("page", "1"))
	limit, _ := strconv.Atoi(c.GetString("limit", "20"))
	status := c.GetString("status")

	conversations, total, err := c.conversationService.ListConversations(c.Ctx.Request.Context(), status, page, limit)
	if err != nil {
		c.handleServiceError(err)
		return
	}

	c.JSONSuccess(map[string]interface{}{
		"conversations": conversations,
		"total":         total,
		"page":          page,
		"limit":         limit,
	})
}

// GET /api/conversations/:id
func (c *ConversationController) Get() {
	id, ok := c.mustParseUintParam(":id")
	if !ok {
		return
	}

	conversation, err := c.conversationService.GetConversation(c.Ctx.Request.Context(), id)
	if err != nil {
		c.handleServiceError(err)
		return
	}
	c.JSONSuccess(conversation)
}

// messageRequest 客户/坐席消息体
type messageRequest struct {
	Content string `json:"content"`
}

// POST /api/conversations/:id/messages
// 客户消息落库后同步生成AI草稿并仲裁
func (c *ConversationController) PostMessage() {
	id, ok := c.mustParseUintParam(":id")
	if !ok {
		return
	}

	var req messageRequest
	if err := json.Unmarshal(c.Ctx.Input.RequestBody, &req); err != nil {
		c.JSONError(http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := c.generationService.GenerateDraft(c.Ctx.Request.Context(), id, req.Content)
	if err != nil {
		c.handleServiceError(err)
		return
	}
	c.JSONSuccess(result)
}

// POST /api/conversations/:id/agent-messages
func (c *ConversationController) PostAgentMessage() {
	id, ok := c.mustParseUintParam(":id")
	if !ok {
		return
	}

	var req messageRequest
	if err := json.Unmarshal(c.Ctx.Input.RequestBody, &req); err != nil {
		c.JSONError(http.StatusBadRequest, "invalid request body")
		return
	}

	message, err := c.conversationService.AddAgentMessage(c.Ctx.Request.Context(), id, req.Content)
	if err != nil {
		c.handleServiceError(err)
		return
	}
	c.JSONSuccess(message)
}

// POST /api/drafts/:id/review
// 坐席审核待复核草稿：approve或edit
func (c *ConversationController) ReviewDraft() {
	id, ok := c.mustParseUintParam(":id")
	if !ok {
		return
	}

	var req services.ReviewDraftRequest
	if err := json.Unmarshal(c.Ctx.Input.RequestBody, &req); err != nil {
		c.JSONError(http.StatusBadRequest, "invalid request body")
		return
	}

	message, err := c.conversationService.ReviewDraft(c.Ctx.Request.Context(), id, c.getAgentID(), &req)
	if err != nil {
		c.handleServiceError(err)
		return
	}
	c.JSONSuccess(message)
}

// POST /api/conversations/:id/resolve
func (c *ConversationController) Resolve() {
	id, ok := c.mustParseUintParam(":id")
	if !ok {
		return
	}

	conversation, err := c.conversationService.ResolveConversation(c.Ctx.Request.Context(), id)
	if err != nil {
		c.handleServiceError(err)
		return
	}
	c.JSONSuccess(conversation)
}

// escalateRequest 升级请求
type escalateRequest struct {
	Reason string `json:"reason"`
}

// POST /api/conversations/:id/escalate
func (c *ConversationController) Escalate() {
	id, ok := c.mustParseUintParam(":id")
	if !ok {
		return
	}

	var req escalateRequest
	if len(c.Ctx.Input.RequestBody) > 0 {
		if err := json.Unmarshal(c.Ctx.Input.RequestBody, &req); err != nil {
			c.JSONError(http.StatusBadRequest, "invalid request body")
			return
		}
	}

	conversation, err := c.conversationService.EscalateConversation(c.Ctx.Request.Context(), id, c.getAgentID(), req.Reason)
	if err != nil {
		c.handleServiceError(err)
		return
	}
	c.JSONSuccess(conversation)
}
