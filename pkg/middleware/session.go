package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/soundvault/pkg/context"
	"github.com/yeisme/soundvault/pkg/internal/auth"
	"github.com/yeisme/soundvault/pkg/log"
)

// SessionMiddleware 根据会话 cookie 加载当前用户并注入 request.Context.
// 没有会话或会话失效时继续处理，由 RequireUser 决定是否拒绝.
func SessionMiddleware(sessions *auth.Sessions, svc *auth.Service, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookieName)
		if err != nil || token == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		l := log.Component("session")

		identity, err := sessions.Lookup(ctx, token)
		if err != nil {
			if !errors.Is(err, auth.ErrNoSession) {
				l.Error().Err(err).Msg("load session failed")
			}

			c.Next()

			return
		}

		u, err := svc.DeserializeIdentity(ctx, identity)
		if err != nil {
			if !errors.Is(err, auth.ErrUnknownIdentity) {
				l.Error().Err(err).Str("identity", identity).Msg("deserialize identity failed")
			}

			c.Next()

			return
		}

		c.Request = c.Request.WithContext(ctxPkg.WithUser(ctx, u))
		c.Next()
	}
}

// RequireUser 未登录时返回 403 {ok:false}.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if ctxPkg.GetUser(c.Request.Context()) == nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"ok": false})
			return
		}

		c.Next()
	}
}
