package app

import (
	"music_academy_backend/docs"
	"music_academy_backend/internal/config"
	"music_academy_backend/internal/middleware"
	"music_academy_backend/internal/model"
	"music_academy_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公共路由（无需登录）
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/auth/register", c.auth.Register)
		public.POST("/auth/login", c.auth.Login)
		public.POST("/auth/forgot-password", c.auth.ForgotPassword)
		public.POST("/auth/reset-password", c.auth.ResetPassword)

		// 课程目录对游客开放
		public.GET("/modules", c.catalog.ListModules)
		public.GET("/courses", c.catalog.ListCourses)
		public.GET("/courses/:id", c.catalog.GetCourse)
		public.GET("/stats", c.catalog.GetStats)
	}

	// 学生接口（需登录）
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		authGroup.GET("/auth/verify", c.auth.Verify)

		students := authGroup.Group("/students")
		{
			students.GET("/progress", c.enrollment.GetProgress)
			students.GET("/available-courses", c.enrollment.GetAvailableCourses)
			students.POST("/enroll/:courseId", c.enrollment.Enroll)
			students.DELETE("/enroll/:courseId", c.enrollment.Unenroll)
			students.PUT("/progress/:courseId", c.enrollment.UpdateProgress)
		}
	}

	// 管理员接口
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(model.Admin))
	{
		admin.GET("/students", c.admin.ListStudents)
		admin.POST("/courses", c.admin.CreateCourse)
		admin.PUT("/courses/:id", c.admin.UpdateCourse)
		admin.POST("/courses/upload-video", c.admin.UploadCourseVideo)
	}
}
