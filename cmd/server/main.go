package main

import (
	"log"
	"os"
	"strconv"

	"github.com/beego/beego/v2/server/web"
	"github.com/supporthub/backend-go/app/bootstrap"
	"github.com/supporthub/backend-go/app/router"
	"github.com/supporthub/backend-go/internal/config"
	"github.com/supporthub/backend-go/internal/logger"
	"go.uber.org/zap"
)

func main() {
	app, err := bootstrap.Init()
	if err != nil {
		log.Fatalf("failed to bootstrap application: %v", err)
	}
	defer app.Cleanup()
	bootstrap.SetGlobalApp(app)

	router.Init()

	// 配置Beego全局设置
	web.BConfig.AppName = "Support Hub"
	web.BConfig.CopyRequestBody = true

	port := config.AppConfig.Server.Port
	if env := os.Getenv("SERVER_PORT"); env != "" {
		port = env
	}
	if p, err := strconv.Atoi(port); err == nil {
		web.BConfig.Listen.HTTPPort = p
	}

	logger.Info("🚀 Starting Support Hub", zap.Int("port", web.BConfig.Listen.HTTPPort))
	web.Run()
}
