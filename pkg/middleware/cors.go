package middleware

import (
	"net/url"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yeisme/soundvault/pkg/configs"
)

// CORSMiddleware CORS中间件. 会话依赖 cookie，因此只允许主域名及其子域名，调试模式允许任意来源.
func CORSMiddleware(cfg configs.ServerConfig) gin.HandlerFunc {
	config := cors.DefaultConfig()
	config.AllowCredentials = true
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "HEAD", "OPTIONS"}
	config.ExposeHeaders = []string{"Content-Length", "Content-Disposition", "ETag"}
	config.MaxAge = 12 * time.Hour

	domain := strings.ToLower(cfg.Domain)
	config.AllowOriginFunc = func(origin string) bool {
		if cfg.Debug {
			return true
		}

		u, err := url.Parse(origin)
		if err != nil {
			return false
		}

		host := strings.ToLower(u.Hostname())

		return host == domain || strings.HasSuffix(host, "."+domain)
	}

	return cors.New(config)
}
