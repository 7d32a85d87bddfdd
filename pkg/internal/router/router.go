// Package router 管理路由配置，把中间件与处理器绑定到 gin 引擎.
package router

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/yeisme/soundvault/pkg/configs"
	"github.com/yeisme/soundvault/pkg/internal/handle"
	"github.com/yeisme/soundvault/pkg/internal/storage"
	"github.com/yeisme/soundvault/pkg/metrics"
	"github.com/yeisme/soundvault/pkg/middleware"
	"github.com/yeisme/soundvault/pkg/scheduler"
)

// Deps 路由注册所需的依赖. Scheduler 可为空（例如 worker 未启动定时任务时）.
type Deps struct {
	Config    *configs.AppConfig
	Handlers  *handle.Handlers
	Manager   *storage.Manager
	Scheduler *scheduler.Scheduler
}

// Register 绑定全局中间件与全部路由:
//
//	<user>.<domain>/<slug>[/download]  -> 音频流（在 gzip 之前处理）
//	POST   /login, /logout
//	/api/users, /api/users/me, /api/audios[/:id]
//	/api/v1/health/*, /api/v1/scheduler/*
//	/metrics, /swagger/*any（仅调试模式）
func Register(engine *gin.Engine, d Deps) {
	cfg := d.Config
	h := d.Handlers

	engine.Use(
		gin.Recovery(),
		middleware.GinLoggerMiddleware(),
		middleware.CORSMiddleware(cfg.Server),
		middleware.TracingMiddleware(),
		middleware.PrometheusMiddleware(),
		middleware.StorageMiddleware(d.Manager),
		middleware.SchedulerMiddleware(d.Scheduler),
		middleware.SessionMiddleware(h.Sessions, h.Auth, cfg.Server.SessionCookie),
		h.Stream(),
	)

	guard := []gin.HandlerFunc{
		middleware.RateLimitMiddleware(cfg.RateLimit),
		middleware.CircuitBreakerMiddleware(cfg.CircuitBreaker),
	}

	session := engine.Group("/", guard...)
	{
		session.POST("/login", h.Login)
		session.POST("/logout", h.Logout)
	}

	api := engine.Group("/api", append(guard, gzip.Gzip(gzip.DefaultCompression), middleware.ETagMiddleware())...)
	RegisterUserRoutes(api, h)
	RegisterAudioRoutes(api, h)

	v1 := engine.Group("/api/v1")
	RegisterHealthCheckRoute(v1)
	RegisterSchedulerRoutes(v1)

	RegisterSwaggerRoute(engine, cfg.Server)
	_ = metrics.StartMetricsServer(cfg.Metrics, engine)
}

// RegisterUserRoutes 注册用户相关路由.
func RegisterUserRoutes(g *gin.RouterGroup, h *handle.Handlers) {
	g.POST("/users", h.CreateUser)

	me := g.Group("/users/me", middleware.RequireUser())
	{
		me.GET("", h.Me)
		me.PUT("", h.UpdateMe)
	}
}

// RegisterAudioRoutes 注册音频管理路由，全部需要登录.
func RegisterAudioRoutes(g *gin.RouterGroup, h *handle.Handlers) {
	audios := g.Group("/audios", middleware.RequireUser())
	{
		audios.GET("", h.ListAudios)
		audios.POST("", h.CreateAudio)
		audios.PUT("/:id", h.UpdateAudio)
		audios.DELETE("/:id", h.DeleteAudio)
	}
}
