package router_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/soundvault/pkg/configs"
	"github.com/yeisme/soundvault/pkg/internal/router"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestSwaggerServedInDebug(t *testing.T) {
	r := gin.New()
	router.RegisterSwaggerRoute(r, configs.ServerConfig{Debug: true, Host: "127.0.0.1", Port: 8080})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"/api/audios"`)
	assert.Contains(t, w.Body.String(), `"/api/audios/{id}"`)
	assert.Contains(t, w.Body.String(), `"host": "127.0.0.1:8080"`)
	assert.Contains(t, w.Body.String(), "SoundVault API")
}

func TestSwaggerHiddenOutsideDebug(t *testing.T) {
	r := gin.New()
	router.RegisterSwaggerRoute(r, configs.ServerConfig{Port: 8080})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}
