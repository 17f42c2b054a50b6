package main

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmoreiras/mediadex/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	Logger = logger.New()
}

func TestGzipMiddlewareCompresses(t *testing.T) {
	r := gin.New()
	r.Use(GzipMiddleware())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "hello world hello world hello world")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))

	reader, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	defer reader.Close()

	body, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "hello world hello world hello world", string(body))
}

func TestGzipMiddlewareSkipsWithoutAcceptEncoding(t *testing.T) {
	r := gin.New()
	r.Use(GzipMiddleware())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "plain")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, "plain", w.Body.String())
}

func TestGzipMiddlewareSkipsWebsocketUpgrade(t *testing.T) {
	r := gin.New()
	r.Use(GzipMiddleware())
	r.GET("/ws", func(c *gin.Context) {
		c.String(http.StatusOK, "upgrade path")
	})

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("Upgrade", "websocket")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, "upgrade path", w.Body.String())
}
