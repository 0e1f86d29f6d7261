package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/medrecords-api/internal/handler"
	"github.com/jwalitptl/medrecords-api/internal/middleware"
)

// Handler registers routes that may require an authenticated caller.
type Handler interface {
	RegisterRoutes(r *gin.RouterGroup, requireAuth gin.HandlerFunc)
}

// PublicHandler registers routes that never require authentication.
type PublicHandler interface {
	RegisterRoutes(r *gin.RouterGroup)
}

type Handlers struct {
	Base     *handler.Handler
	Users    PublicHandler
	Patients Handler
	Records  Handler
	RAG      Handler
	Audit    Handler
	// Token is mounted behind Basic-only authentication.
	Token Handler
}

type RouterConfig struct {
	RateLimitEnabled bool
	RateLimit        rate.Limit
	RateBurst        int
	CORSConfig       middleware.CORSConfig
	RequestTimeout   time.Duration
	MaxBodyBytes     int64
	MetricsPrefix    string
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	handlers Handlers
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	handlers Handlers,
	config RouterConfig,
	reg prometheus.Registerer,
	logger zerolog.Logger,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	handler.UseJSONFieldNames()

	engine := gin.New()
	engine.HandleMethodNotAllowed = true

	r := &Router{
		engine:   engine,
		auth:     auth,
		handlers: handlers,
	}

	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = middleware.DefaultSizeLimitConfig().MaxBodySize
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(logger),
		middleware.Logger(logger),
		middleware.NewHTTPMetrics(config.MetricsPrefix, reg).Middleware(),
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig()),
		middleware.CORS(config.CORSConfig),
		middleware.SizeLimit(middleware.SizeLimitConfig{MaxBodySize: config.MaxBodyBytes}),
	)

	if config.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		})
		engine.Use(rateLimiter.RateLimit())
	}

	engine.Use(
		middleware.Timeout(middleware.TimeoutConfig{Duration: config.RequestTimeout}),
		middleware.ErrorHandler(),
	)

	return r
}

func (r *Router) Setup() {
	root := &r.engine.RouterGroup

	r.setupHealthCheck(root)

	requireAuth := r.auth.Authenticate()

	r.handlers.Users.RegisterRoutes(root)
	r.handlers.Patients.RegisterRoutes(root, requireAuth)
	r.handlers.Records.RegisterRoutes(root, requireAuth)
	r.handlers.RAG.RegisterRoutes(root, requireAuth)
	r.handlers.Audit.RegisterRoutes(root, requireAuth)
	r.handlers.Token.RegisterRoutes(root, r.auth.RequireBasic())
}

func (r *Router) setupHealthCheck(rg *gin.RouterGroup) {
	rg.GET("/", r.handlers.Base.Home)
	rg.GET("/metrics", r.handlers.Base.MetricsHandler())

	health := rg.Group("/health")
	{
		health.GET("/live", r.handlers.Base.LivenessCheck)
		health.GET("/ready", r.handlers.Base.ReadinessCheck)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
