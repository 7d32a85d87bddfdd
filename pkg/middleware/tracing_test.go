package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	ctxPkg "github.com/yeisme/soundvault/pkg/context"
	"github.com/yeisme/soundvault/pkg/internal/model"
	"github.com/yeisme/soundvault/pkg/middleware"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	rec := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	return rec
}

func TestTracingNamesSpanByRoute(t *testing.T) {
	rec := recordSpans(t)

	r := gin.New()
	r.Use(middleware.TracingMiddleware(), func(c *gin.Context) {
		c.Request = c.Request.WithContext(ctxPkg.WithUser(c.Request.Context(), &model.User{ID: 7}))
		c.Next()
	})
	r.GET("/api/audios/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/audios/42", nil))

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /api/audios/:id", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.Int64("soundvault.user_id", 7))
	assert.Contains(t, spans[0].Attributes(), attribute.Int("http.status_code", http.StatusOK))
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
}

func TestTracingUnroutedRequestIsStreamSpan(t *testing.T) {
	rec := recordSpans(t)

	r := gin.New()
	r.Use(middleware.TracingMiddleware(), func(c *gin.Context) {
		c.AbortWithStatus(http.StatusInternalServerError)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/track", nil))

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET audio.stream", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)

	for _, kv := range spans[0].Attributes() {
		assert.NotEqual(t, attribute.Key("soundvault.user_id"), kv.Key)
	}
}

func TestNilSchedulerAndStorageAreNotInjected(t *testing.T) {
	r := gin.New()
	r.Use(middleware.StorageMiddleware(nil), middleware.SchedulerMiddleware(nil))
	r.GET("/jobs", func(c *gin.Context) {
		assert.Nil(t, middleware.GetScheduler(c))
		assert.Nil(t, ctxPkg.GetManager(c.Request.Context()))
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/jobs", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}
