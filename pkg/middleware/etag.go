package middleware

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/cespare/xxhash/v2"
	"github.com/gin-gonic/gin"
)

// DefaultMaxBodyBytes 超过该大小的响应不计算 ETag，直接输出.
const DefaultMaxBodyBytes = 1 << 20 // 1MB

// bufferedWriter 缓存响应体，由 ETagMiddleware 决定最终输出.
type bufferedWriter struct {
	gin.ResponseWriter

	buf      bytes.Buffer
	max      int
	status   int
	overflow bool
}

func (w *bufferedWriter) WriteHeader(code int) { w.status = code }

func (w *bufferedWriter) WriteHeaderNow() {}

func (w *bufferedWriter) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}

	return w.status
}

func (w *bufferedWriter) Written() bool { return w.buf.Len() > 0 || w.status != 0 }

func (w *bufferedWriter) Size() int { return w.buf.Len() }

// Write 超过上限后把已缓存内容与后续内容直接写出.
func (w *bufferedWriter) Write(b []byte) (int, error) {
	if w.overflow {
		return w.ResponseWriter.Write(b)
	}

	if w.buf.Len()+len(b) > w.max {
		w.overflow = true
		w.ResponseWriter.WriteHeader(w.Status())

		if _, err := w.ResponseWriter.Write(w.buf.Bytes()); err != nil {
			return 0, err
		}

		w.buf.Reset()

		return w.ResponseWriter.Write(b)
	}

	return w.buf.Write(b)
}

func (w *bufferedWriter) WriteString(s string) (int, error) { return w.Write([]byte(s)) }

// ETagMiddleware 为 GET 的 200 响应计算 xxhash ETag，If-None-Match 命中时返回 304.
// 列表与个人资料都是按用户的私有数据，这里只做条件请求，不做服务端缓存.
func ETagMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		orig := c.Writer
		bw := &bufferedWriter{ResponseWriter: orig, max: DefaultMaxBodyBytes}
		c.Writer = bw

		c.Next()

		c.Writer = orig

		if bw.overflow {
			return
		}

		status := bw.Status()
		body := bw.buf.Bytes()

		if status == http.StatusOK {
			etag := fmt.Sprintf("W/\"%x\"", xxhash.Sum64(body))
			orig.Header().Set("ETag", etag)
			orig.Header().Set("Cache-Control", "private, no-cache")

			if c.GetHeader("If-None-Match") == etag {
				orig.WriteHeader(http.StatusNotModified)
				orig.WriteHeaderNow()

				return
			}
		}

		orig.WriteHeader(status)
		_, _ = orig.Write(body)
	}
}
