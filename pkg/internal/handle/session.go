package handle

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/soundvault/pkg/internal/auth"
)

// loginRequest 登录参数，支持表单与 JSON.
type loginRequest struct {
	Username string `json:"username" form:"username" rule:"required"`
	Password string `json:"password" form:"password" rule:"required"`
}

// Login 校验用户名密码并建立会话.
//
//	@Summary		登录
//	@Description	校验用户名密码，成功后通过 Set-Cookie 下发会话
//	@Tags			会话
//	@Accept			json,x-www-form-urlencoded
//	@Produce		json
//	@Param			credentials	body		handle.loginRequest	true	"用户名与密码"
//	@Success		200			{object}	map[string]any		"ok 与当前用户"
//	@Failure		401			{object}	map[string]any		"用户名或密码错误"
//	@Failure		500			{object}	map[string]any		"服务器内部错误"
//	@Router			/login [post]
func (h *Handlers) Login(c *gin.Context) {
	l := logger(c, "session")

	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false})
		return
	}

	u, err := h.Auth.VerifyCredentials(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			l.Warn().Str("username", req.Username).Msg("login rejected")
			c.JSON(http.StatusUnauthorized, gin.H{"ok": false})

			return
		}

		fail(c, &l, err, "verify credentials failed")

		return
	}

	if err := h.signIn(c, u); err != nil {
		fail(c, &l, err, "create session failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "user": u})
}

// Logout 删除会话并清除 cookie.
//
//	@Summary	退出登录
//	@Tags		会话
//	@Produce	json
//	@Success	200	{object}	map[string]any	"ok"
//	@Router		/logout [post]
func (h *Handlers) Logout(c *gin.Context) {
	l := logger(c, "session")

	if token, err := c.Cookie(h.Cookie.Name); err == nil {
		if err := h.Sessions.Destroy(c.Request.Context(), token); err != nil {
			l.Warn().Err(err).Msg("destroy session failed")
		}
	}

	c.SetCookie(h.Cookie.Name, "", -1, "/", h.cookieDomain(), h.Cookie.Secure, true)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
