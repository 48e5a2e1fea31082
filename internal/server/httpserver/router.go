package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/yndnr/aerosense-go/internal/server/httpserver/handler"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	Handler handler.Config

	// Logger for request logging.
	Logger *slog.Logger

	// RateLimit is the per-client limit in requests/second; 0 disables it.
	RateLimit int
}

// DefaultRouterConfig returns default router configuration.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		RateLimit: 50,
	}
}

// NewRouter builds the monitoring handler with its middleware chain.
func NewRouter(cfg *RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	hc := cfg.Handler
	if hc.Logger == nil {
		hc.Logger = logger
	}

	// Order: RequestID -> Recover -> AccessLog -> RateLimit -> Handler
	middlewares := []Middleware{
		RequestID(),
		Recover(logger),
		AccessLog(logger),
	}
	if cfg.RateLimit > 0 {
		middlewares = append(middlewares, RateLimit(cfg.RateLimit))
	}
	return Chain(handler.New(hc), middlewares...)
}
