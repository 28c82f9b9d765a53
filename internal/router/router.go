package router

import (
	"github.com/connectly/internal/config"
	"github.com/connectly/internal/handler"
	"github.com/connectly/internal/metrics"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(gdb *gorm.DB, cfg config.AppConfig) *gin.Engine {
	r := gin.Default()

	collector := metrics.NewCollector()
	r.Use(collector.Middleware())

	// 配置会话中间件
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	r.Use(sessions.Sessions("connectly_session", store))

	api := handler.NewAPI(gdb, cfg).WithMetrics(collector)
	publicLimiter := handler.NewRateLimiter(120, collector)

	// 静态文件服务（头像等上传产物）
	r.Static(cfg.UploadURLPath, cfg.UploadDir)

	r.GET("/ping", api.Ping)
	r.GET("/metrics", collector.Handler())

	// 身份提供方委托登录
	auth := r.Group("/auth")
	{
		auth.GET("/login", api.Login)
		auth.GET("/callback", api.Callback)
		auth.POST("/logout", api.Logout)
	}

	// 公开页面，无会话，按 IP 限流
	public := r.Group("", publicLimiter.Middleware())
	{
		public.GET("/p/:slug", api.ShowPublicPage)
		public.GET("/r/:id", api.RedirectLink)
	}

	// 需要认证的 API 路由
	authed := r.Group("/api")
	authed.Use(handler.AuthRequired())
	{
		authed.GET("/me", api.GetMe)
		authed.PATCH("/me", api.UpdateMe)
		authed.DELETE("/me", api.DeleteMe)
		authed.POST("/me/avatar", api.UploadAvatar)

		authed.GET("/dashboard", api.Dashboard)
		authed.GET("/themes", api.GetThemes)

		authed.GET("/pages", api.GetPages)
		authed.POST("/pages", api.CreatePage)
		authed.GET("/pages/:id", api.GetPage)
		authed.PATCH("/pages/:id", api.UpdatePage)
		authed.DELETE("/pages/:id", api.DeletePage)
		authed.GET("/pages/:id/design", api.GetPageDesign)
		authed.PUT("/pages/:id/design", api.SavePageDesign)
		authed.GET("/pages/:id/analytics", api.GetPageAnalytics)

		authed.GET("/links", api.GetLinks)
		authed.POST("/links", api.CreateLink)
		authed.PATCH("/links/reorder", api.ReorderLinks)
		authed.PATCH("/links/:id", api.UpdateLink)
		authed.DELETE("/links/:id", api.DeleteLink)
	}

	return r
}
