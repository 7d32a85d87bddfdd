package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/soundvault/pkg/internal/users"
)

// CreateUser 注册并直接登录.
//
//	@Summary		注册
//	@Description	创建用户并建立会话，校验失败时返回全部错误码
//	@Tags			用户
//	@Accept			json,x-www-form-urlencoded
//	@Produce		json
//	@Param			user	body		users.CreateInput	true	"注册信息"
//	@Success		200		{object}	map[string]any		"ok 与新用户"
//	@Failure		422		{object}	map[string]any		"errors 为 users.FieldError 列表"
//	@Failure		500		{object}	map[string]any		"服务器内部错误"
//	@Router			/api/users [post]
func (h *Handlers) CreateUser(c *gin.Context) {
	l := logger(c, "users")

	var in users.CreateInput
	if err := c.ShouldBind(&in); err != nil {
		l.Warn().Err(err).Msg("bind create user request failed")
	}

	u, err := h.Users.Create(c.Request.Context(), in)
	if err != nil {
		if ve, ok := users.AsValidation(err); ok {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"ok": false, "errors": ve.Errors})
			return
		}

		fail(c, &l, err, "create user failed")

		return
	}

	if err := h.signIn(c, u); err != nil {
		fail(c, &l, err, "create session failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "user": u})
}

// Me 返回当前用户.
//
//	@Summary	当前用户
//	@Tags		用户
//	@Produce	json
//	@Success	200	{object}	map[string]any	"ok 与当前用户"
//	@Failure	403	{object}	map[string]any	"未登录"
//	@Router		/api/users/me [get]
func (h *Handlers) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": currentUser(c)})
}

// UpdateMe 修改当前用户的用户名、邮箱或密码.
//
//	@Summary	修改资料
//	@Tags		用户
//	@Accept		json
//	@Produce	json
//	@Param		user	body		users.UpdateInput	true	"需要修改的字段"
//	@Success	200		{object}	map[string]any		"ok 与修改后的用户"
//	@Failure	400		{object}	map[string]any		"请求体不是合法 JSON"
//	@Failure	403		{object}	map[string]any		"未登录"
//	@Failure	422		{object}	map[string]any		"errors 为 users.FieldError 列表"
//	@Router		/api/users/me [put]
func (h *Handlers) UpdateMe(c *gin.Context) {
	l := logger(c, "users")

	var in users.UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false})
		return
	}

	u, err := h.Users.Update(c.Request.Context(), currentUser(c), in)
	if err != nil {
		if ve, ok := users.AsValidation(err); ok {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"ok": false, "errors": ve.Errors})
			return
		}

		fail(c, &l, err, "update user failed")

		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "user": u})
}
