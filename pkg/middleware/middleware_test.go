package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/soundvault/pkg/configs"
	ctxPkg "github.com/yeisme/soundvault/pkg/context"
	"github.com/yeisme/soundvault/pkg/internal/auth"
	"github.com/yeisme/soundvault/pkg/internal/model"
	"github.com/yeisme/soundvault/pkg/internal/storage/db/dbtest"
	"github.com/yeisme/soundvault/pkg/internal/storage/kv"
	"github.com/yeisme/soundvault/pkg/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestETagMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(middleware.ETagMiddleware())
	r.GET("/list", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/list", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())

	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, "/list", nil)
	req.Header.Set("If-None-Match", etag)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotModified, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestRequireUser(t *testing.T) {
	r := gin.New()
	r.GET("/me", middleware.RequireUser(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"ok":false}`, w.Body.String())
}

func TestSessionMiddlewareLoadsUser(t *testing.T) {
	client := dbtest.New(t)
	u := &model.User{Username: "sasquatch", Email: "austin@baustin.com", PasswordHash: "x"}
	require.NoError(t, client.Create(u).Error)

	store, err := kv.NewMemoryKV(context.Background(), nil)
	require.NoError(t, err)

	svc := auth.NewService(client.DB, &auth.Hasher{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32}, store, time.Minute)
	sessions := auth.NewSessions(store, time.Hour)

	token, err := sessions.Create(context.Background(), svc.SerializeIdentity(u))
	require.NoError(t, err)

	r := gin.New()
	r.Use(middleware.SessionMiddleware(sessions, svc, configs.DefaultSessionCookie))
	r.GET("/me", middleware.RequireUser(), func(c *gin.Context) {
		c.String(http.StatusOK, ctxPkg.GetUser(c.Request.Context()).Username)
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: configs.DefaultSessionCookie, Value: token})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sasquatch", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: configs.DefaultSessionCookie, Value: "stale"})

	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRateLimitByUser(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RateLimitMiddleware(configs.RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 1, Key: "user"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 2)
	for range 2 {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
}
