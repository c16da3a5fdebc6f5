package controllers

import (
	"net/http"
	"strconv"

	"github.com/beego/beego/v2/server/web"
	"github.com/supporthub/backend-go/internal/errors"
)

// BaseController provides helpers for consistent JSON responses.
type BaseController struct {
	web.Controller
}

// JSON writes a JSON response with the supplied HTTP status code.
func (c *BaseController) JSON(status int, payload interface{}) {
	c.Ctx.Output.SetStatus(status)
	c.Data["json"] = payload
	c.ServeJSON()
}

// JSONSuccess writes a standard success envelope.
func (c *BaseController) JSONSuccess(data interface{}) {
	c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    data,
	})
}

// JSONError writes an error envelope with message.
func (c *BaseController) JSONError(status int, message string) {
	c.JSON(status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

// handleServiceError 业务错误带自己的HTTP状态码和错误码，其余按500处理
func (c *BaseController) handleServiceError(err error) {
	if appErr, ok := err.(*errors.AppError); ok {
		c.JSON(appErr.HTTPCode, map[string]interface{}{
			"success": false,
			"code":    appErr.Code,
			"error":   appErr.Message,
		})
		return
	}
	c.JSONError(http.StatusInternalServerError, "internal server error")
}

// mustParseUintParam 解析路径参数，失败时直接写400响应
func (c *BaseController) mustParseUintParam(name string) (uint, bool) {
	raw := c.Ctx.Input.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		c.JSONError(http.StatusBadRequest, "invalid id parameter")
		return 0, false
	}
	return uint(id), true
}

// getAgentID 从请求头取坐席标识，网关负责认证，这里只透传
func (c *BaseController) getAgentID() string {
	if id := c.Ctx.Input.Header("X-Agent-Id"); id != "" {
		return id
	}
	return c.GetString("agent_id")
}
