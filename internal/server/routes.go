package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// RegisterRoutes configures all API routes, middleware, and error handlers
func RegisterRoutes(e *echo.Echo, h *Handlers, cfg ServerConfig) {
	// Set custom error handler for consistent JSON responses
	e.HTTPErrorHandler = NotFoundJSON()

	// Apply global middleware
	e.Use(SetJSONContentType) // Ensure all responses are JSON
	e.Use(SetNoCacheHeaders)  // Prevent caching of API responses

	// Optional API key authentication
	if cfg.APIKey != "" {
		e.Use(middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
			KeyLookup: "header:X-API-Key",
			Skipper: func(c echo.Context) bool {
				return c.Path() == "/metrics"
			},
			Validator: func(key string, c echo.Context) (bool, error) {
				return key == cfg.APIKey, nil
			},
		}))
	}

	if cfg.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	v1 := e.Group("/v1")
	v1.GET("/health", h.Health)
	v1.GET("/pools", h.Pools)

	ixGroup := v1.Group("/instructions")
	ixGroup.POST("/decode", h.DecodeInstruction)
	ixGroup.POST("/encode", h.EncodeInstruction)

	feeGroup := v1.Group("/fees")
	feeGroup.GET("/quote", h.FeeQuote)
	feeGroup.POST("/validate", h.FeeValidate)

	// Fee config CRUD endpoints
	cfgGroup := v1.Group("/feeconfig")
	cfgGroup.GET("", h.FeeConfigList)
	cfgGroup.GET("/:pool", h.FeeConfigGet)
	cfgGroup.PUT("/:pool", h.FeeConfigUpsert)
	cfgGroup.DELETE("/:pool", h.FeeConfigDelete)

	// Plan endpoints with rate limiting
	planGroup := v1.Group("/plan")
	planGroup.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(cfg.planRate()),
		Burst:     cfg.planBurst(),
		ExpiresIn: 2 * time.Minute,
	})))
	planGroup.POST("/swap", h.PlanSwap)
	planGroup.POST("/deposit", h.PlanDeposit)

	// Catch-all route for 404 responses
	e.RouteNotFound("/*", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found", Code: http.StatusNotFound})
	})
}
