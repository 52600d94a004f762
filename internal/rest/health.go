package rest

import (
	"context"
	"net/http"
	"time"

	"myLearnCore/pkg/kvstore"

	"github.com/labstack/echo/v4"
)

const healthProbeKey = "healthz_probe"

type HealthHandler struct {
	store   kvstore.Store
	backend string
	version string
	timeout time.Duration
}

func NewHealthHandler(store kvstore.Store, backend, version string) *HealthHandler {
	return &HealthHandler{
		store:   store,
		backend: backend,
		version: version,
		timeout: 3 * time.Second,
	}
}

// Healthz reports 503 when the storage backend cannot be read.
func (h *HealthHandler) Healthz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	body := map[string]string{
		"status":  "ok",
		"storage": h.backend,
		"version": h.version,
	}
	if _, _, err := h.store.Get(ctx, healthProbeKey); err != nil {
		body["status"] = "degraded"
		body["error"] = err.Error()
		return c.JSON(http.StatusServiceUnavailable, body)
	}
	return c.JSON(http.StatusOK, body)
}
