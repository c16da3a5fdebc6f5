package controllers

import (
	"net/http"

	"github.com/supporthub/backend-go/internal/database"
)

// RootController 根控制器
type RootController struct {
	BaseController
}

func (c *RootController) Index() {
	c.JSONSuccess(map[string]string{"message": "Support Hub API"})
}

// HealthController 健康检查控制器
type HealthController struct {
	BaseController
}

func (c *HealthController) Health() {
	status := map[string]string{"status": "healthy", "database": "up"}

	if database.DB == nil {
		status["status"] = "degraded"
		status["database"] = "down"
		c.JSON(http.StatusServiceUnavailable, status)
		return
	}
	if sqlDB, err := database.DB.DB(); err != nil || sqlDB.Ping() != nil {
		status["status"] = "degraded"
		status["database"] = "down"
		c.JSON(http.StatusServiceUnavailable, status)
		return
	}

	c.JSONSuccess(status)
}
