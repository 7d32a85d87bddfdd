package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/soundvault/pkg/metrics"
)

// PrometheusMiddleware Prometheus监控中间件. endpoint 使用路由模板，子域名流式请求统一记为 stream.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method

		// 执行下一个中间件/处理器
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "stream"
			if c.Writer.Status() == 404 {
				endpoint = "not_found"
			}
		}

		metrics.RequestCounter.WithLabelValues(method, endpoint, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.RequestDuration.WithLabelValues(method, endpoint).Observe(time.Since(start).Seconds())
	}
}
