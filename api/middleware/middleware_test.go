package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newTestRouter(log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID(), Logger(log), Recovery(log))
	router.GET("/ok", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})
	router.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})
	return router
}

func TestRequestID_GeneratesAndEchoes(t *testing.T) {
	router := newTestRouter(zap.NewNop())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))

	id := w.Header().Get(RequestIDHeader)
	assert.Len(t, id, 36)
	assert.Equal(t, id, w.Body.String())
}

func TestRequestID_ReusesUpstream(t *testing.T) {
	router := newTestRouter(zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(RequestIDHeader, "upstream-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "upstream-1", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "upstream-1", w.Body.String())
}

func TestRecovery_LogsPanic(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	router := newTestRouter(zap.New(core))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 1, logs.FilterMessage("Panic recovered").Len())

	access := logs.FilterMessage("HTTP request").All()
	if assert.Len(t, access, 1) {
		assert.Equal(t, zap.ErrorLevel, access[0].Level)
		assert.Equal(t, int64(500), access[0].ContextMap()["status"])
	}
}
