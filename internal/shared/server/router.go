package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"report-backend/internal/reports"
	"report-backend/internal/services/health"
	"report-backend/internal/shared/auth"
	"report-backend/internal/shared/config"
	"report-backend/internal/shared/metrics"
	"report-backend/internal/shared/server/middleware"
	"report-backend/internal/shared/server/respond"
)

// inferenceGroup is the rate limit bucket shared by upload and feedback.
const inferenceGroup = "inference"

// RouterDeps carries the handlers and shared services the router mounts.
type RouterDeps struct {
	Config        config.Config
	Verifier      *auth.Verifier
	Limiter       *middleware.RateLimiter
	Health        *health.Service
	ReportHandler *reports.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	healthSvc := deps.Health
	if healthSvc == nil {
		healthSvc = health.NewService(nil)
	}
	r.GET("/api/health", func(c *gin.Context) {
		body, ok := healthSvc.Status(c.Request.Context())
		status := http.StatusOK
		if !ok {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, body)
	})
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api", middleware.Auth(deps.Verifier, config.IsDevLike(deps.Config.Env)))
	registerMeRoutes(api)
	if deps.ReportHandler != nil {
		rule := middleware.PerMinute(deps.Config.InferenceRatePerMinute, deps.Config.InferenceBurst)
		deps.ReportHandler.RegisterRoutes(api, middleware.RateLimit(deps.Limiter, inferenceGroup, rule))
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
