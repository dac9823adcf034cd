package app

import (
	"tiku_backend/docs"
	"tiku_backend/internal/config"
	"tiku_backend/internal/middleware"
	"tiku_backend/internal/model"
	"tiku_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公共路由(无需登录)
	router.GET("/api/health", c.health.HealthCheck)

	// 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		// 内容只读
		authGroup.GET("/subjects", c.content.Subjects)
		authGroup.GET("/subjects/:id/chapters", c.content.Chapters)
		authGroup.GET("/questions/:id", c.content.Question)

		// 刷题会话
		practice := authGroup.Group("/practice")
		{
			practice.POST("/start", c.practice.Start)
			practice.GET("/sessions", c.practice.List)
			practice.GET("/sessions/:id", c.practice.Get)
			practice.POST("/sessions/:id/answers", c.practice.Submit)
			practice.POST("/sessions/:id/answers/batch", c.practice.SubmitBatch)
			practice.POST("/sessions/:id/end", c.practice.End)
		}

		// 判题记录
		grading := authGroup.Group("/grading")
		{
			grading.GET("/records", c.grading.Records)
			grading.GET("/records/:id", c.grading.Result)
		}

		// 错题本
		wrong := authGroup.Group("/wrong-questions")
		{
			wrong.GET("", c.wrongQuestion.List)
			wrong.GET("/stats", c.wrongQuestion.Stats)
			wrong.POST("/:questionId/master", c.wrongQuestion.MarkMastered)
			wrong.POST("/:questionId/restore", c.wrongQuestion.Restore)
			wrong.DELETE("/:questionId", c.wrongQuestion.Remove)
		}

		// 收藏
		favorites := authGroup.Group("/favorites")
		{
			favorites.GET("", c.favorite.List)
			favorites.POST("", c.favorite.Add)
			favorites.GET("/:questionId/check", c.favorite.Check)
			favorites.DELETE("/:questionId", c.favorite.Remove)
		}

		// 统计
		statistics := authGroup.Group("/statistics")
		{
			statistics.GET("/user", c.statistics.User)
			statistics.GET("/subjects/:id", c.statistics.Subject)
			statistics.GET("/subjects/:id/chapters", c.statistics.Chapters)
			statistics.GET("/trend", c.statistics.Trend)
			statistics.GET("/calendar", c.statistics.Calendar)
		}

		// 排行榜
		authGroup.GET("/rankings", c.ranking.Board)

		// 人工复核，仅教师/管理员
		review := authGroup.Group("/review")
		review.Use(middleware.RoleMiddleware(model.Teacher))
		{
			review.GET("/pending", c.review.ListPending)
			review.GET("/stats", c.review.Stats)
			review.POST("/:id/confirm", c.review.Confirm)
			review.POST("/batch-approve", c.review.BatchApprove)
		}
	}
}
