package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	ctxPkg "github.com/yeisme/soundvault/pkg/context"
	"github.com/yeisme/soundvault/pkg/tracing"
)

// streamSpanName 音频流请求不走路由表，FullPath 为空.
const streamSpanName = "audio.stream"

// TracingMiddleware 创建Gin的分布式追踪中间件.
// span 名称在请求结束后取路由模板（如 "GET /api/audios/:id"），避免按音频 ID 拆出大量 span 名.
func TracingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartSpan(c.Request.Context(), "http.request",
			trace.WithAttributes(
				attribute.String("http.method", c.Request.Method),
				attribute.String("http.scheme", c.Request.URL.Scheme),
				attribute.String("http.host", c.Request.Host),
				attribute.String("http.path", c.Request.URL.Path),
				attribute.String("http.user_agent", c.Request.UserAgent()),
				attribute.String("http.remote_addr", c.ClientIP()),
			),
		)
		defer span.End()

		c.Request = c.Request.WithContext(ctx)

		c.Next()

		span.SetName(SpanName(c))
		span.SetAttributes(attribute.Int("http.status_code", c.Writer.Status()))

		// 会话中间件在后面执行，此时才能拿到用户
		if u := ctxPkg.GetUser(c.Request.Context()); u != nil {
			span.SetAttributes(attribute.Int64("soundvault.user_id", int64(u.ID)))
		}

		switch {
		case len(c.Errors) > 0:
			span.SetStatus(codes.Error, c.Errors.String())
		case c.Writer.Status() >= 500:
			span.SetStatus(codes.Error, "")
		default:
			span.SetStatus(codes.Ok, "")
		}
	}
}

// SpanName 返回请求对应的 span 名称.
func SpanName(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return c.Request.Method + " " + route
	}

	return c.Request.Method + " " + streamSpanName
}
