package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/eats-backend/internal/observability"
)

// MetricsHandler exposes the in-memory request counters.
type MetricsHandler struct {
	metrics *observability.Metrics
}

func NewMetricsHandler(metrics *observability.Metrics) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

func (h *MetricsHandler) Get(c *fiber.Ctx) error {
	return c.JSON(h.metrics.Snapshot())
}
