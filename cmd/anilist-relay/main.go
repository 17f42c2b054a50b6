// Command anilist-relay forwards the /api path prefix to the AniList
// GraphQL endpoint, adding permissive CORS headers so browser clients can
// query it directly. It listens on PORT (default 3001) and exits with code
// 1 when the port cannot be bound.
package main

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jmoreiras/mediadex/internal/constants"
	"github.com/jmoreiras/mediadex/pkg/logger"
)

func newRelayProxy(target *url.URL, log logger.Logger) *httputil.ReverseProxy {
	proxy := httputil.NewSingleHostReverseProxy(target)

	baseDirector := proxy.Director
	proxy.Director = func(req *http.Request) {
		baseDirector(req)
		req.URL.Path = strings.TrimPrefix(req.URL.Path, "/api")
		if req.URL.Path == "" {
			req.URL.Path = "/"
		}
		req.Host = target.Host
	}

	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Errorf("[Relay] proxy error: %v", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Proxy Error","details":"` + err.Error() + `"}`))
	}

	return proxy
}

func main() {
	log := logger.New()

	targetURL := os.Getenv("ANILIST_URL")
	if targetURL == "" {
		targetURL = constants.AniListGraphQLURL
	}
	target, err := url.Parse(targetURL)
	if err != nil {
		log.Errorf("[Relay] invalid target URL %q: %v", targetURL, err)
		os.Exit(1)
	}

	proxy := newRelayProxy(target, log)

	r := gin.Default()

	// Permissive CORS, preflight answered locally.
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Accept")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	r.Any("/api/*path", func(c *gin.Context) {
		proxy.ServeHTTP(c.Writer, c.Request)
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = constants.DefaultRelayPort
	}

	log.Infof("[Relay] proxy server running on port %s", port)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Errorf("[Relay] server error: %v", err)
		os.Exit(1)
	}
}
