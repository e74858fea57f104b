package app

import (
	"classpulse_backend/internal/config"
	"classpulse_backend/internal/middleware"
	"classpulse_backend/internal/model"

	"classpulse_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		authGroup.GET("/profile", c.auth.GetProfile)

		// 教师相关接口
		a.registerTeacherRoutes(authGroup, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}
}

func (a *App) registerTeacherRoutes(rg *gin.RouterGroup, c *controllers) {
	teacher := rg.Group("/teacher")
	teacher.Use(middleware.RoleMiddleware(model.Teacher))
	{
		insights := teacher.Group("/insights")
		{
			insights.POST("/generate", c.insight.Generate)
			insights.GET("", c.insight.List)
			insights.POST("/:id/review", c.insight.Review)
			insights.POST("/:id/dismiss", c.insight.Dismiss)
			insights.POST("/:id/reactivate", c.insight.Reactivate)
			insights.POST("/:id/checklist", c.insight.SubmitChecklist)
			insights.POST("/:id/feedback", c.insight.Feedback)
		}

		assignments := teacher.Group("/assignments")
		{
			assignments.POST("/:assignmentId/students/:studentId/review", c.insight.MarkAssignmentReviewed)
			assignments.DELETE("/:assignmentId/students/:studentId/review", c.insight.ReopenAssignmentReview)
		}

		todos := teacher.Group("/todos")
		{
			todos.GET("", c.todo.List)
			todos.POST("/:id/complete", c.todo.Complete)
			todos.POST("/:id/reopen", c.todo.Reopen)
			todos.DELETE("/:id", c.todo.Delete)
		}

		attention := teacher.Group("/attention")
		{
			attention.GET("", c.attention.GetState)
			attention.GET("/students", c.attention.ListEntries)
		}

		settings := teacher.Group("/settings")
		{
			settings.GET("/thresholds", c.settings.Get)
			settings.PUT("/thresholds", c.settings.Update)
		}
	}
}
