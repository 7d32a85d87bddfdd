package handle

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yeisme/soundvault/pkg/internal/audio"
	"github.com/yeisme/soundvault/pkg/internal/ids"
)

// ListAudios 列出当前用户的音频.
//
//	@Summary	音频列表
//	@Tags		音频
//	@Produce	json
//	@Success	200	{object}	map[string]any	"records 为 model.Audio 列表"
//	@Failure	403	{object}	map[string]any	"未登录"
//	@Router		/api/audios [get]
func (h *Handlers) ListAudios(c *gin.Context) {
	l := logger(c, "audios")

	records, err := h.Audios.List(c.Request.Context(), currentUser(c))
	if err != nil {
		fail(c, &l, err, "list audios failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "records": records})
}

// CreateAudio 接收 multipart 字段 file 并交给入库流程.
//
//	@Summary		上传音频
//	@Description	保存文件、按内容哈希写入存储并建立记录，时长由后台任务回填
//	@Tags			音频
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file			true	"音频文件"
//	@Success		201		{object}	map[string]any	"ok 与新记录"
//	@Failure		403		{object}	map[string]any	"未登录"
//	@Failure		422		{object}	map[string]any	"errors 为 audio.Error 列表"
//	@Failure		500		{object}	map[string]any	"服务器内部错误"
//	@Router			/api/audios [post]
func (h *Handlers) CreateAudio(c *gin.Context) {
	l := logger(c, "audios")

	up, err := h.saveUpload(c)
	if err != nil {
		fail(c, &l, err, "save upload failed")
		return
	}

	a, err := h.Ingestor.Ingest(c.Request.Context(), currentUser(c), up)
	if err != nil {
		h.audioError(c, &l, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "audio": a})
}

// saveUpload 把上传文件保存到 UploadDir/<ulid>. 没有文件时返回 nil，由校验给出 NO_FILE.
// 保存中断时删除已写入的部分文件.
func (h *Handlers) saveUpload(c *gin.Context) (*audio.Upload, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}

		return nil, fmt.Errorf("read multipart form: %w", err)
	}

	if err := h.Fs.MkdirAll(h.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	up := &audio.Upload{
		Path:         filepath.Join(h.UploadDir, ids.NewULID()),
		OriginalName: fh.Filename,
		Mimetype:     fh.Header.Get("Content-Type"),
		Size:         fh.Size,
	}

	if err := h.copyUpload(fh, up.Path); err != nil {
		h.Ingestor.Discard(up)

		return nil, err
	}

	return up, nil
}

func (h *Handlers) copyUpload(fh *multipart.FileHeader, path string) error {
	src, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open multipart file: %w", err)
	}
	defer src.Close()

	dst, err := h.Fs.Create(path)
	if err != nil {
		return fmt.Errorf("create temp upload: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()

		return fmt.Errorf("write temp upload: %w", err)
	}

	return dst.Close()
}

// UpdateAudio 修改地址、可见性或显示名称，仅所有者可操作.
//
//	@Summary	修改音频
//	@Tags		音频
//	@Accept		json
//	@Produce	json
//	@Param		id		path		int					true	"音频 ID"
//	@Param		audio	body		audio.UpdateInput	true	"需要修改的字段"
//	@Success	202		{object}	map[string]any		"ok 与修改后的记录"
//	@Failure	404		{object}	map[string]any		"记录不存在"
//	@Failure	422		{object}	map[string]any		"errors 为 audio.Error 列表"
//	@Router		/api/audios/{id} [put]
func (h *Handlers) UpdateAudio(c *gin.Context) {
	l := logger(c, "audios")

	id, ok := audioID(c)
	if !ok {
		return
	}

	var in audio.UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false})
		return
	}

	a, err := h.Audios.Update(c.Request.Context(), currentUser(c), id, in)
	if err != nil {
		h.audioError(c, &l, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"ok": true, "audio": a})
}

// DeleteAudio 软删除，仅所有者可操作.
//
//	@Summary	删除音频
//	@Tags		音频
//	@Produce	json
//	@Param		id	path		int				true	"音频 ID"
//	@Success	202	{object}	map[string]any	"ok"
//	@Failure	404	{object}	map[string]any	"记录不存在"
//	@Failure	422	{object}	map[string]any	"NOT_OWNER"
//	@Router		/api/audios/{id} [delete]
func (h *Handlers) DeleteAudio(c *gin.Context) {
	l := logger(c, "audios")

	id, ok := audioID(c)
	if !ok {
		return
	}

	if err := h.Audios.Delete(c.Request.Context(), currentUser(c), id); err != nil {
		h.audioError(c, &l, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"ok": true})
}

func audioID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusNotFound, gin.H{"ok": false})

		return 0, false
	}

	return uint(id), true
}

// audioError 校验错误 422，记录不存在 404，其余 500.
func (h *Handlers) audioError(c *gin.Context, l *zerolog.Logger, err error) {
	if errors.Is(err, audio.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false})
		return
	}

	if e, ok := audio.AsError(err); ok && e.IsValidation() {
		l.Warn().Str("code", e.Code()).Msg("audio request rejected")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"ok": false, "errors": []*audio.Error{e}})

		return
	}

	fail(c, l, err, "audio request failed")
}
