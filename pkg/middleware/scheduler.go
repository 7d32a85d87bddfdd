// Package middleware 提供中间件功能.
package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/soundvault/pkg/scheduler"
)

type schedulerKey struct{}

// SchedulerMiddleware 将维护任务调度器注入到 context 中，供 /api/v1/scheduler 路由使用.
// 未启用调度器时 sched 为 nil，此时不注入，GetScheduler 返回 nil.
func SchedulerMiddleware(sched *scheduler.Scheduler) gin.HandlerFunc {
	if sched == nil {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), schedulerKey{}, sched))
		c.Next()
	}
}

// GetScheduler 从context中获取scheduler.
func GetScheduler(c *gin.Context) *scheduler.Scheduler {
	sched, _ := c.Request.Context().Value(schedulerKey{}).(*scheduler.Scheduler)

	return sched
}
