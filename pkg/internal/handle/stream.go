package handle

import (
	"errors"
	"io"
	"mime"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/soundvault/pkg/internal/audio"
	"github.com/yeisme/soundvault/pkg/metrics"
)

// SubdomainUser 从 Host 中取出用户名：去掉端口与主域名后必须恰好剩一个标签.
func SubdomainUser(host, domain string) (string, bool) {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}

	host = strings.ToLower(strings.TrimSuffix(host, "."))
	suffix := "." + strings.ToLower(domain)

	if !strings.HasSuffix(host, suffix) {
		return "", false
	}

	label := strings.TrimSuffix(host, suffix)
	if label == "" || strings.Contains(label, ".") {
		return "", false
	}

	return label, true
}

// Stream 处理 <user>.<domain>/<slug>[/download] 请求. 非用户子域名的请求交给后续路由.
func (h *Handlers) Stream() gin.HandlerFunc {
	return func(c *gin.Context) {
		username, ok := SubdomainUser(c.Request.Host, h.Domain)
		if !ok {
			c.Next()
			return
		}

		c.Abort()

		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.Status(http.StatusMethodNotAllowed)
			return
		}

		slug, download, ok := parseStreamPath(c.Request.URL.Path)
		if !ok {
			c.Status(http.StatusNotFound)
			return
		}

		h.stream(c, username, slug, download)
	}
}

// parseStreamPath 接受 /<slug> 与 /<slug>/download.
func parseStreamPath(p string) (slug string, download, ok bool) {
	parts := strings.Split(strings.Trim(p, "/"), "/")

	switch {
	case len(parts) == 1 && parts[0] != "":
		return parts[0], false, true
	case len(parts) == 2 && parts[0] != "" && parts[1] == "download":
		return parts[0], true, true
	default:
		return "", false, false
	}
}

func (h *Handlers) stream(c *gin.Context, username, slug string, download bool) {
	l := logger(c, "stream")
	ctx := c.Request.Context()

	a, err := h.Audios.Find(ctx, currentUser(c), username, slug)
	if err != nil {
		if errors.Is(err, audio.ErrNotFound) {
			c.Status(http.StatusNotFound)
			return
		}

		l.Error().Err(err).Str("user", username).Str("url", slug).Msg("find audio failed")
		c.Status(http.StatusInternalServerError)

		return
	}

	rc, err := h.Audios.OpenStream(ctx, a, download)
	if err != nil {
		if errors.Is(err, audio.ErrNotFound) {
			l.Error().Uint("audio_id", a.ID).Str("hash", a.Hash).Msg("stored object missing")
			c.Status(http.StatusNotFound)

			return
		}

		l.Error().Err(err).Uint("audio_id", a.ID).Msg("open audio stream failed")
		c.Status(http.StatusInternalServerError)

		return
	}
	defer rc.Close()

	c.Header("Content-Type", a.Mimetype)
	c.Header("Content-Length", strconv.FormatInt(a.Size, 10))

	if download {
		c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": a.OriginalName}))
	}

	c.Status(http.StatusOK)

	if c.Request.Method == http.MethodHead {
		return
	}

	n, err := io.Copy(c.Writer, rc)
	metrics.StreamedBytes.Add(float64(n))

	if err != nil {
		l.Warn().Err(err).Uint("audio_id", a.ID).Int64("written", n).Msg("stream aborted")
	}
}
