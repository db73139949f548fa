package server

import (
	"github.com/gin-gonic/gin"

	"coa-backend/internal/accounts"
	googleauth "coa-backend/internal/auth"
	"coa-backend/internal/certificates"
	"coa-backend/internal/extraction"
	"coa-backend/internal/profiles"
	"coa-backend/internal/reviews"
	"coa-backend/internal/services/health"
	"coa-backend/internal/shared/config"
	"coa-backend/internal/shared/metrics"
	"coa-backend/internal/shared/server/middleware"
)

// RouterDeps carries the handlers mounted on the API. Nil handlers are skipped.
type RouterDeps struct {
	Config              config.Config
	HealthService       *health.Service
	GoogleAuth          *googleauth.GoogleService
	Accounts            *accounts.Service
	AccountHandler      *accounts.Handler
	ProfileHandler      *profiles.Handler
	ExtractionHandler   *extraction.Handler
	CertificatesHandler *certificates.Handler
	ReviewHandler       *reviews.Handler
	RateLimiter         *middleware.RateLimiter
}

// Rate limit groups keyed by "METHOD route".
var rateLimitRoutes = map[string]string{
	"POST /api/v1/certificates/extract":              "EXTRACT",
	"POST /api/v1/certificates/extract-and-generate": "EXTRACT",
	"POST /api/v1/certificates/render":               "RENDER",
	"POST /api/v1/certificates/preview":              "RENDER",
	"POST /api/v1/reviews":                           "REVIEW",
}

var rateLimitRules = map[string]middleware.RateLimitRule{
	"DEFAULT": {Rate: 5, Burst: 20},
	"EXTRACT": {Rate: 0.2, Burst: 3},
	"RENDER":  {Rate: 1, Burst: 5},
	"REVIEW":  {Rate: 0.05, Burst: 2},
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
		middleware.Auth(),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules:    rateLimitRules,
			GroupFor: middleware.GroupByRoute(rateLimitRoutes),
			Limiter:  deps.RateLimiter,
		}),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	healthSvc := deps.HealthService
	if healthSvc == nil {
		healthSvc = health.NewService(nil)
	}
	healthSvc.RegisterRoutes(api)
	var decider entitlementDecider
	if deps.Accounts != nil {
		decider = deps.Accounts
	}
	registerMeRoutes(api, decider)

	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	if deps.AccountHandler != nil {
		deps.AccountHandler.RegisterRoutes(api)
	}
	if deps.ProfileHandler != nil {
		deps.ProfileHandler.RegisterRoutes(api)
	}
	if deps.ExtractionHandler != nil {
		deps.ExtractionHandler.RegisterRoutes(api)
	}
	if deps.CertificatesHandler != nil {
		deps.CertificatesHandler.RegisterRoutes(api)
	}
	if deps.ReviewHandler != nil {
		deps.ReviewHandler.RegisterRoutes(api)
	}

	if deps.Config.Env == "dev" && deps.AccountHandler != nil {
		dev := api.Group("/dev")
		deps.AccountHandler.RegisterDevRoutes(dev)
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
