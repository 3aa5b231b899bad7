package api

import (
	"errors"

	"OptWatch/internal/domain/models"
	"OptWatch/internal/usecase"
	"OptWatch/pkg/cache"
	xhttp "OptWatch/pkg/http"
	"OptWatch/pkg/logger"

	"github.com/labstack/echo/v4"
)

// StatusHandler exposes the read-only status API: liveness, the latest
// monitoring record and the configured watch list.
type StatusHandler struct {
	instruments []string
	cache       cache.Service
	log         *logger.Logger
}

func NewStatusHandler(instruments []string, cacheSvc cache.Service, log *logger.Logger) *StatusHandler {
	return &StatusHandler{instruments: instruments, cache: cacheSvc, log: log}
}

// RegisterRoutes registers the status endpoints.
func (h *StatusHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api")
	g.GET("/latest", h.Latest)
	g.GET("/instruments", h.Instruments)
}

// Health reports liveness.
func (h *StatusHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

// Latest returns the most recent monitoring record, or 404 before the
// first cycle completes.
func (h *StatusHandler) Latest(c echo.Context) error {
	var rec models.MonitoringRecord
	err := h.cache.Get(c.Request().Context(), usecase.LatestRecordKey, &rec)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return xhttp.NotFoundResponse(c, "no record yet")
		}
		h.log.Error("latest record lookup failed", logger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	return xhttp.SuccessResponse(c, rec)
}

// Instruments returns the configured watch list.
func (h *StatusHandler) Instruments(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.instruments)
}
