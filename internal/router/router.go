package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	promhandler "github.com/jwalitptl/citizen-api/internal/handler/prometheus"
	"github.com/jwalitptl/citizen-api/internal/middleware"
	"github.com/jwalitptl/citizen-api/pkg/metrics"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Router struct {
	engine    *gin.Engine
	auth      *middleware.AuthMiddleware
	health    Handler
	protected []Handler
	gatherer  prometheus.Gatherer
}

type RouterConfig struct {
	RateLimitEnabled bool
	RateLimit        rate.Limit
	RateBurst        int
	CORSConfig       middleware.CORSConfig
	Timeout          time.Duration
	MaxBodySize      int64
}

func NewRouter(
	config RouterConfig,
	auth *middleware.AuthMiddleware,
	m *metrics.Metrics,
	gatherer prometheus.Gatherer,
	health Handler,
	protected ...Handler,
) *Router {
	engine := gin.New()

	r := &Router{
		engine:    engine,
		auth:      auth,
		health:    health,
		protected: protected,
		gatherer:  gatherer,
	}

	maxBody := config.MaxBodySize
	if maxBody <= 0 {
		maxBody = middleware.DefaultMaxBodySize
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Recovery(),
		middleware.ErrorHandler(),
		middleware.Metrics(m),
		middleware.SecurityHeaders(),
		middleware.CORS(config.CORSConfig),
		middleware.Timeout(config.Timeout),
		middleware.SizeLimit(maxBody),
	)

	if config.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		})
		engine.Use(rateLimiter.RateLimit())
	}

	return r
}

// Setup mounts health and metrics unauthenticated and everything else behind
// the bearer token check.
func (r *Router) Setup() {
	r.engine.GET("/metrics", promhandler.Handler(r.gatherer))

	api := r.engine.Group("/api/v1")
	r.health.RegisterRoutes(api)

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	for _, h := range r.protected {
		h.RegisterRoutes(protected)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
