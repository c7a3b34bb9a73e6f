package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-monitor/internal/service"
	apperrors "github.com/spec-kit/sla-monitor/pkg/util/errorutil"
)

// MetricsHandler exposes compliance reporting.
type MetricsHandler struct {
	metrics *service.MetricsService
}

// NewMetricsHandler returns a new handler instance.
func NewMetricsHandler(metrics *service.MetricsService) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

// Compliance handles GET /api/v1/applications/:id/compliance.
func (h *MetricsHandler) Compliance(c *fiber.Ctx) error {
	applicationID := c.Params("id")
	if applicationID == "" {
		return apperrors.NewValidationError("application id is required", nil)
	}

	from, err := parseTimeParam(c.Query("from"), time.Now().AddDate(0, -1, 0))
	if err != nil {
		return apperrors.NewValidationError("from must be RFC3339", map[string]any{"from": c.Query("from")})
	}
	to, err := parseTimeParam(c.Query("to"), time.Now())
	if err != nil {
		return apperrors.NewValidationError("to must be RFC3339", map[string]any{"to": c.Query("to")})
	}

	report, err := h.metrics.GetComplianceMetrics(c.UserContext(), applicationID, from, to)
	if err != nil {
		return err
	}

	return c.JSON(report)
}

func parseTimeParam(raw string, fallback time.Time) (time.Time, error) {
	if raw == "" {
		return fallback, nil
	}
	return time.Parse(time.RFC3339, raw)
}
