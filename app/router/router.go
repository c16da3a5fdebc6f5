package router

import (
	"github.com/beego/beego/v2/server/web"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/supporthub/backend-go/app/controllers"
)

// Init registers all routes. Must be called after config is loaded.
func Init() {
	web.Router("/", &controllers.RootController{}, "get:Index")
	web.Router("/health", &controllers.HealthController{}, "get:Health")

	// Prometheus指标
	web.Handler("/metrics", promhttp.Handler())

	// 知识库文章路由
	articleController := &controllers.ArticleController{}
	web.Router("/api/articles", articleController, "get:List;post:Create")
	// 注意：具体路由必须在参数路由之前，否则/search会被:id匹配
	web.Router("/api/articles/search", articleController, "get:Search")
	web.Router("/api/articles/reindex", articleController, "post:Reindex")
	web.Router("/api/articles/:id", articleController, "get:Get;put:Update;delete:Delete")

	// 会话路由
	conversationController := &controllers.ConversationController{}
	web.Router("/api/conversations", conversationController, "get:List;post:Create")
	web.Router("/api/conversations/:id", conversationController, "get:Get")
	web.Router("/api/conversations/:id/messages", conversationController, "post:PostMessage")
	web.Router("/api/conversations/:id/agent-messages", conversationController, "post:PostAgentMessage")
	web.Router("/api/conversations/:id/resolve", conversationController, "post:Resolve")
	web.Router("/api/conversations/:id/escalate", conversationController, "post:Escalate")
	web.Router("/api/drafts/:id/review", conversationController, "post:ReviewDraft")

	// 反馈路由
	feedbackController := &controllers.FeedbackController{}
	web.Router("/api/feedback", feedbackController, "get:List;post:Create")

	// 反馈批处理路由
	reprocessController := &controllers.ReprocessController{}
	web.Router("/api/reprocess/run", reprocessController, "post:Run")
	web.Router("/api/reprocess/export", reprocessController, "get:Export")

	// 看板路由
	analyticsController := &controllers.AnalyticsController{}
	web.Router("/api/analytics/summary", analyticsController, "get:Summary")
	web.Router("/api/analytics/daily", analyticsController, "get:Daily")
	web.Router("/api/analytics/rollup", analyticsController, "post:Rollup")
}
