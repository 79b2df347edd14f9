package router

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"

	"github.com/lmezzz/hms-api/internal/middleware"
	"github.com/lmezzz/hms-api/internal/model"
)

// Handler registers its routes on a group.
type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Handlers struct {
	Auth         Handler
	Health       Handler
	User         Handler
	Patient      Handler
	Schedule     Handler
	Visit        Handler
	Prescription Handler
	Pharmacy     Handler
	Lab          Handler
	Billing      Handler
}

type Config struct {
	RateLimitEnabled bool
	RateLimit        rate.Limit
	RateBurst        int
	RequestTimeout   time.Duration
	CORSConfig       middleware.CORSConfig
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	handlers Handlers
	metrics  *routerMetrics
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
}

func NewRouter(auth *middleware.AuthMiddleware, handlers Handlers, config Config) *Router {
	gin.SetMode(gin.ReleaseMode)
	registerValidations()
	engine := gin.New()

	r := &Router{
		engine:   engine,
		auth:     auth,
		handlers: handlers,
		metrics:  initRouterMetrics(),
	}

	engine.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		r.metricsMiddleware(),
		middleware.CORS(config.CORSConfig),
	)

	if config.RequestTimeout > 0 {
		engine.Use(middleware.Timeout(config.RequestTimeout))
	}

	if config.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		})
		engine.Use(limiter.RateLimit())
	}

	return r
}

func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")

	r.handlers.Health.RegisterRoutes(api)
	r.handlers.Auth.RegisterRoutes(api)

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())

	// Admin manages accounts; every other group is scoped to the roles
	// that work that part of the hospital. Admin passes every check.
	admin := protected.Group("")
	admin.Use(r.auth.RequireRoles())
	r.handlers.User.RegisterRoutes(admin)

	frontDesk := protected.Group("")
	frontDesk.Use(r.auth.RequireRoles(model.RoleReceptionist, model.RoleDoctor, model.RolePatient, model.RoleBilling))
	r.handlers.Patient.RegisterRoutes(frontDesk)
	r.handlers.Schedule.RegisterRoutes(frontDesk)

	clinical := protected.Group("")
	clinical.Use(r.auth.RequireRoles(model.RoleDoctor))
	r.handlers.Visit.RegisterRoutes(clinical)

	pharmacy := protected.Group("")
	pharmacy.Use(r.auth.RequireRoles(model.RoleDoctor, model.RolePharmacist))
	r.handlers.Prescription.RegisterRoutes(pharmacy)
	r.handlers.Pharmacy.RegisterRoutes(pharmacy)

	laboratory := protected.Group("")
	laboratory.Use(r.auth.RequireRoles(model.RoleDoctor, model.RoleLabTech))
	r.handlers.Lab.RegisterRoutes(laboratory)

	billing := protected.Group("")
	billing.Use(r.auth.RequireRoles(model.RoleBilling, model.RoleReceptionist))
	r.handlers.Billing.RegisterRoutes(billing)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func initRouterMetrics() *routerMetrics {
	return &routerMetrics{
		requestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "hms_request_duration_seconds",
				Help: "Duration of HTTP requests in seconds",
			},
			[]string{"method", "path", "status"},
		),
		requestTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hms_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
	}
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		duration := time.Since(start).Seconds()

		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}
