// Package http assembles the gin route tree and the HTTP server of the
// SymbioLink API.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/SymbioLink/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SymbioLink/internal/interfaces/http/handlers"
	"github.com/turtacn/SymbioLink/internal/interfaces/http/middleware"
	"github.com/turtacn/SymbioLink/pkg/errors"
)

// DefaultMetricsPath is where the Prometheus handler is mounted.
const DefaultMetricsPath = "/metrics"

// RouterConfig aggregates handler and middleware dependencies.
type RouterConfig struct {
	// Handlers
	AnalysisHandler *handlers.AnalysisHandler
	HealthHandler   *handlers.HealthHandler

	// Middleware
	Logging     middleware.LoggingConfig
	Recorder    middleware.HTTPRecorder
	MaxBodySize int64

	// Infrastructure
	Logger         logging.Logger
	MetricsHandler http.Handler
	MetricsPath    string
	// Mode is a gin mode. Empty keeps the current process-wide mode.
	Mode string
}

// NewRouter builds the route tree: probes and metrics at the root, the
// analysis API under /api/v1.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	r := gin.New()
	r.HandleMethodNotAllowed = true

	// --- Global middleware ---
	r.Use(
		middleware.RequestID(),
		middleware.Recovery(cfg.Logger),
		middleware.RequestLogging(cfg.Logger, cfg.Logging),
		middleware.Metrics(cfg.Recorder),
	)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handlers.ErrorResponse{
			Code:      errors.ErrCodeNotFound,
			Message:   "route not found",
			RequestID: middleware.GetRequestID(c),
		})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, handlers.ErrorResponse{
			Code:      errors.ErrCodeBadRequest,
			Message:   "method not allowed",
			RequestID: middleware.GetRequestID(c),
		})
	})

	// --- Probes ---
	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterRoutes(r)
	}

	// --- Metrics ---
	if cfg.MetricsHandler != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = DefaultMetricsPath
		}
		r.GET(path, gin.WrapH(cfg.MetricsHandler))
	}

	// --- API v1 ---
	api := r.Group("/api/v1", middleware.BodyLimit(cfg.MaxBodySize))
	if cfg.AnalysisHandler != nil {
		cfg.AnalysisHandler.RegisterRoutes(api)
	}

	return r
}
