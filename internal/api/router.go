package api

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"

	"qrforge/internal/api/handlers"
	"qrforge/internal/api/middleware"
	"qrforge/internal/pkg/metrics"
)

type Dependencies struct {
	QRHandler     *handlers.QRHandler
	HealthHandler *handlers.HealthHandler
	WriteLimiter  *middleware.RateLimiter
	Log           zerolog.Logger
}

func NewRouter(deps *Dependencies) *httprouter.Router {
	router := httprouter.New()
	logged := middleware.Logger(deps.Log)
	limited := func(h httprouter.Handle) httprouter.Handle { return h }
	if deps.WriteLimiter != nil {
		limited = middleware.RateLimit(deps.WriteLimiter)
	}

	// Generation
	router.POST("/api/v1/qr", logged(limited(deps.QRHandler.Generate)))
	router.POST("/api/v1/qr/batch", logged(limited(deps.QRHandler.GenerateBatch)))

	// Metadata
	router.GET("/api/v1/qr", logged(deps.QRHandler.List))
	router.GET("/api/v1/qr/:id", logged(deps.QRHandler.Get))

	// Stored images
	router.GET("/api/qr/image/:file", logged(deps.QRHandler.Image))

	// Operational
	router.GET("/health", logged(deps.HealthHandler.Check))
	router.Handler(http.MethodGet, "/metrics", metrics.Handler())

	return router
}
