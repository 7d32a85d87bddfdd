// Package handle 提供 HTTP 请求处理器的实现.
package handle

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	ctxPkg "github.com/yeisme/soundvault/pkg/context"
	"github.com/yeisme/soundvault/pkg/internal/audio"
	"github.com/yeisme/soundvault/pkg/internal/auth"
	"github.com/yeisme/soundvault/pkg/internal/model"
	"github.com/yeisme/soundvault/pkg/internal/users"
	"github.com/yeisme/soundvault/pkg/log"
)

// CookieConfig 会话 cookie 设置.
type CookieConfig struct {
	Name   string
	Domain string
	Secure bool
	TTL    time.Duration
}

// Handlers 聚合处理器依赖，由 app 构建一次.
type Handlers struct {
	Auth     *auth.Service
	Sessions *auth.Sessions
	Users    *users.Service
	Audios   *audio.Service
	Ingestor *audio.Ingestor

	// Fs 与 UploadDir 用于保存 multipart 上传的临时文件.
	Fs        afero.Fs
	UploadDir string
	// Domain 用户子域名挂载的主域名.
	Domain string
	Cookie CookieConfig
}

// currentUser 返回会话中间件加载的用户.
func currentUser(c *gin.Context) *model.User {
	return ctxPkg.GetUser(c.Request.Context())
}

func logger(c *gin.Context, component string) zerolog.Logger {
	return ctxPkg.WithTraceContext(c.Request.Context(), log.Component(component))
}

// fail 系统错误统一返回 500 {ok:false}.
func fail(c *gin.Context, l *zerolog.Logger, err error, msg string) {
	l.Error().Err(err).Msg(msg)
	c.JSON(http.StatusInternalServerError, gin.H{"ok": false})
}

// cookieDomain 子域名需要共享会话时才设置 Domain，localhost 之类的单标签域名不设置.
func (h *Handlers) cookieDomain() string {
	if h.Cookie.Domain != "" {
		return h.Cookie.Domain
	}

	if strings.Contains(h.Domain, ".") {
		return h.Domain
	}

	return ""
}

// signIn 建立会话并写入 cookie.
func (h *Handlers) signIn(c *gin.Context, u *model.User) error {
	token, err := h.Sessions.Create(c.Request.Context(), h.Auth.SerializeIdentity(u))
	if err != nil {
		return err
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.Cookie.Name, token, int(h.Cookie.TTL.Seconds()), "/", h.cookieDomain(), h.Cookie.Secure, true)

	return nil
}
