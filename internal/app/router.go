package app

import (
	"career_advisor_backend/docs"
	"career_advisor_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	api := router.Group("/api")
	{
		api.GET("/health", c.health.HealthCheck)

		// 用户档案
		api.POST("/users", c.user.CreateUser)
		api.GET("/users/:id", c.user.GetUser)
		api.PATCH("/users/:id", c.user.UpdateUser)
		api.GET("/users/:id/roadmap", c.roadmap.GetUserRoadmap)
		api.GET("/users/:id/progress/summary", c.progress.GetSummary)
		api.GET("/users/:id/chat-sessions", c.chat.ListSessions)

		// 路线图
		api.POST("/roadmaps", c.roadmap.GetOrCreateRoadmap)
		api.GET("/roadmaps/:id", c.roadmap.GetRoadmap)

		// 学习进度
		api.POST("/progress", c.progress.CompleteTopic)
		api.GET("/progress", c.progress.GetProgress)
		api.GET("/progress/metrics", c.progress.GetMetrics)

		// AI 能力
		api.POST("/recommend", c.career.Recommend)
		api.POST("/analyze", c.career.Analyze)
		api.POST("/chat", c.chat.Chat)
	}
}
