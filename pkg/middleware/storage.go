package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/soundvault/pkg/context"
	"github.com/yeisme/soundvault/pkg/internal/storage"
)

// StorageMiddleware 把数据库、队列与音频存储的 Manager 放进请求上下文.
// manager 为 nil 时（例如只挂载了 handler 的测试路由）不做注入.
func StorageMiddleware(manager *storage.Manager) gin.HandlerFunc {
	if manager == nil {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(context.WithStorageManager(c.Request.Context(), manager))
		c.Next()
	}
}
