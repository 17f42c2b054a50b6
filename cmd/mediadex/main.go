package main

import (
	"compress/gzip"
	"context"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jmoreiras/mediadex/internal/constants"
)

// GzipResponseWriter wraps gin.ResponseWriter to provide gzip compression
type GzipResponseWriter struct {
	gin.ResponseWriter
	gzipWriter *gzip.Writer
}

func (w *GzipResponseWriter) Write(data []byte) (int, error) {
	return w.gzipWriter.Write(data)
}

func (w *GzipResponseWriter) WriteString(s string) (int, error) {
	return w.gzipWriter.Write([]byte(s))
}

// GzipMiddleware provides gzip compression for responses
func GzipMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.Contains(c.GetHeader("Accept-Encoding"), "gzip") {
			c.Next()
			return
		}

		// Websocket upgrades must not be wrapped.
		if strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
			c.Next()
			return
		}

		c.Header("Content-Encoding", "gzip")
		c.Header("Vary", "Accept-Encoding")

		gzipWriter := gzip.NewWriter(c.Writer)
		defer func() {
			if err := gzipWriter.Close(); err != nil {
				Logger.Errorf("[App] failed to close gzip writer: %v", err)
			}
		}()

		c.Writer = &GzipResponseWriter{
			ResponseWriter: c.Writer,
			gzipWriter:     gzipWriter,
		}

		c.Next()
	}
}

func main() {
	InitializeLogger()
	InitializeConfig()
	InitializeDatabase()
	InitializeServices()

	r := gin.Default()

	r.Use(GzipMiddleware())

	// CORS middleware
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "Content-Type, X-User-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Background maintenance: expired cache eviction and remote favorites
	// refresh for subscribed users.
	providerCache.StartCleanup(ctx)
	favoritesStore.StartPolling(ctx, constants.FavoritesPollInterval*time.Second)

	handler.RegisterRoutes(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = constants.DefaultPort
	}

	Logger.Infof("[App] starting HTTP server on port %s", port)
	log.Fatal(http.ListenAndServe(":"+port, r))
}
