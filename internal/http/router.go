// Package httpapi wires the relay's operational HTTP surface (Gin): liveness
// for the hosting platform, Prometheus metrics, and today's usage stats.
//
// Middleware order: tracing → request ID → logging → recovery → metrics →
// rate limiting → gzip → CORS. The surface is read-only; anything stronger
// (idempotency keys, security header posture) belongs to write APIs this
// process does not have.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/raphiebot/go-discord-relay/internal/config"
	"github.com/raphiebot/go-discord-relay/internal/domain"
	"github.com/raphiebot/go-discord-relay/internal/http/handlers"
	"github.com/raphiebot/go-discord-relay/internal/http/middleware"
)

// RegisterRoutes attaches all middleware and endpoints to the given engine.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, tiers []domain.ModelTier, cfg config.Config) {
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.Metrics())

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst)
	r.Use(rl.Handler())

	r.Use(gzip.Gzip(gzip.DefaultCompression))
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "HEAD", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:   []string{"X-Request-ID", "Content-Length"},
		MaxAge:          12 * time.Hour,
	}))

	// Liveness on both paths the platform probes, GET and HEAD alike.
	for _, path := range []string{"/", "/health"} {
		r.GET(path, handlers.Health)
		r.HEAD(path, handlers.Health)
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/stats", handlers.Stats(db, tiers))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
}

// NewServer builds the http.Server for the operational surface with sane
// timeouts.
func NewServer(handler http.Handler, port string) *http.Server {
	return &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
