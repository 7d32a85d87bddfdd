package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/soundvault/pkg/internal/handle"
	"github.com/yeisme/soundvault/pkg/middleware"
)

// RegisterSchedulerRoutes 注册调度器相关路由，需要登录.
func RegisterSchedulerRoutes(g *gin.RouterGroup) {
	g.GET("/scheduler/jobs", middleware.RequireUser(), handle.SchedulerJobs)
	g.POST("/scheduler/jobs/:name/run", middleware.RequireUser(), handle.SchedulerRunJob)
}
