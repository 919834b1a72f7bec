package router

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/serenemind/clinic-api/internal/config"
	"github.com/serenemind/clinic-api/internal/handler"
	"github.com/serenemind/clinic-api/internal/handler/health"
	"github.com/serenemind/clinic-api/internal/middleware"
	"github.com/serenemind/clinic-api/pkg/auth"
	"github.com/serenemind/clinic-api/pkg/metrics"
)

// Handlers collects everything the router mounts.
type Handlers struct {
	Health     *health.Handler
	Registrars []handler.Registrar
}

// New builds the gin engine: ambient middleware, public health and
// metrics endpoints, static file serving for stored blobs, and the
// bearer-protected /api/v1 surface.
func New(cfg *config.Config, tokenValidator auth.TokenValidator, handlers Handlers) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Logger())
	engine.Use(middleware.CORS(middleware.DefaultCORSConfig()))

	if cfg.Monitoring.PrometheusEnabled {
		engine.Use(metrics.Middleware())
		engine.GET(cfg.Monitoring.MetricsPath, metrics.Handler())
	}

	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  rate.Limit(cfg.RateLimit.RequestsPerSecond),
			Burst: cfg.RateLimit.Burst,
		})
		engine.Use(limiter.RateLimit())
	}

	handlers.Health.RegisterRoutes(&engine.RouterGroup)
	engine.Static(cfg.Storage.BaseURL, cfg.Storage.Root)

	api := engine.Group("/api/v1")
	api.Use(middleware.Auth(tokenValidator))
	for _, registrar := range handlers.Registrars {
		registrar.RegisterRoutes(api)
	}

	return engine
}
