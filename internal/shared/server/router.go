package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"window-backend/internal/analysis"
	"window-backend/internal/config"
	"window-backend/internal/leads"
	"window-backend/internal/pricing"
	"window-backend/internal/shared/server/middleware"
	"window-backend/internal/shared/server/respond"
	"window-backend/internal/uploads"
)

// RouterDeps carries the handlers the router mounts.
type RouterDeps struct {
	Config          config.Config
	AnalysisHandler *analysis.Handler
	PricingHandler  *pricing.Handler
	LeadsHandler    *leads.Handler
	UploadsHandler  *uploads.Handler
	HTTPLimiter     *middleware.RateLimiter
	HTTPLimit       middleware.RateLimitRule
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
	if deps.HTTPLimiter != nil {
		r.Use(middleware.RateLimit(deps.HTTPLimiter, deps.HTTPLimit))
	}

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})

	if deps.AnalysisHandler != nil {
		deps.AnalysisHandler.RegisterRoutes(api)
	}
	if deps.PricingHandler != nil {
		deps.PricingHandler.RegisterRoutes(api)
	}
	if deps.LeadsHandler != nil {
		deps.LeadsHandler.RegisterRoutes(api)
	}
	if deps.UploadsHandler != nil {
		deps.UploadsHandler.RegisterRoutes(api)
	}

	return r
}

// Addr returns a normalized listen address for the given port.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return fmt.Sprintf(":%s", port)
}
