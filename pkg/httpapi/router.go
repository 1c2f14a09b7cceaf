// Package httpapi exposes the relay over HTTP.
package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tweetrelay/internal/web"
	"tweetrelay/pkg/config"
	"tweetrelay/pkg/logger"
	"tweetrelay/pkg/observability"
	"tweetrelay/pkg/relay"
)

const requestIDHeader = "X-Request-ID"

// Deps are the collaborators of the router. Metrics and Reporter may be nil.
type Deps struct {
	Config   *config.Config
	Relay    *relay.Relay
	Logger   logger.Logger
	Metrics  *observability.Metrics
	Reporter relay.Reporter
	// Ready reports readiness for /readyz; nil means always ready
	Ready func() bool
}

// NewRouter builds the gin engine with every route and middleware installed
func NewRouter(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = logger.GetLogger()
	}
	if d.Config == nil {
		d.Config = config.DefaultConfig()
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true

	r.Use(requestContext(d.Logger))
	r.Use(accessLog(d.Metrics))
	r.Use(gin.CustomRecovery(recovery(d.Reporter)))
	r.Use(corsMiddleware(d.Config.Server.AllowedOrigins))

	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
	})
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	h := &handler{relay: d.Relay, maxBody: d.Config.Server.MaxBodyBytes}
	api := r.Group("/api")
	api.POST("/fetch-tweets", h.stream(relay.SourceTweets))
	api.POST("/fetch-liked", h.stream(relay.SourceLiked))
	api.POST("/search-tweets", h.stream(relay.SourceSearch))

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/readyz", func(c *gin.Context) {
		if d.Ready != nil && !d.Ready() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "shutting down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	if d.Metrics != nil && d.Config.Metrics.Enabled {
		r.GET(d.Config.Metrics.Path, gin.WrapH(d.Metrics.Handler()))
	}
	if d.Config.Server.ServeUI {
		ui := gin.WrapH(web.Handler())
		r.GET("/", ui)
		r.HEAD("/", ui)
	}

	return r
}

// requestContext tags each request with an id and stores a request scoped
// logger in its context
func requestContext(base logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		c.Set("request_id", id)

		l := base.WithField("request_id", id)
		c.Request = c.Request.WithContext(logger.IntoContext(c.Request.Context(), l))
		c.Next()
	}
}

func accessLog(m *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		status := c.Writer.Status()
		logger.LogHTTPRequest(logger.FromContext(c.Request.Context()), c.Request.Method, c.Request.URL.Path, status, time.Since(start))
		if m != nil {
			m.RequestServed(c.Request.Method, route, status)
		}
	}
}

func recovery(rep relay.Reporter) gin.RecoveryFunc {
	return func(c *gin.Context, recovered any) {
		err := fmt.Errorf("panic: %v", recovered)
		logger.FromContext(c.Request.Context()).WithError(err).Error("Recovered from panic")
		if rep != nil {
			rep.Report(c.Request.Context(), err, map[string]string{"route": c.FullPath()})
		}
		if !c.Writer.Written() {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		c.Abort()
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Length", "Content-Type", requestIDHeader},
		ExposeHeaders: []string{requestIDHeader},
		MaxAge:        12 * time.Hour,
	}

	all := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			all = true
		}
	}
	if all {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}

	return cors.New(cfg)
}
