package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-monitor/internal/api/dto"
	"github.com/spec-kit/sla-monitor/internal/repository"
	"github.com/spec-kit/sla-monitor/internal/service"
	apperrors "github.com/spec-kit/sla-monitor/pkg/util/errorutil"
)

// ViolationsHandler exposes the operator violation listing.
type ViolationsHandler struct {
	metrics *service.MetricsService
}

// NewViolationsHandler returns a new handler instance.
func NewViolationsHandler(metrics *service.MetricsService) *ViolationsHandler {
	return &ViolationsHandler{metrics: metrics}
}

// List handles GET /api/v1/violations.
func (h *ViolationsHandler) List(c *fiber.Ctx) error {
	filter := repository.ViolationFilter{
		Limit:  c.QueryInt("limit", 50),
		Offset: c.QueryInt("offset", 0),
	}

	if appID := c.Query("application_id"); appID != "" {
		filter.ApplicationID = &appID
	}
	if raw := c.Query("escalated"); raw != "" {
		escalated, err := strconv.ParseBool(raw)
		if err != nil {
			return apperrors.NewValidationError("escalated must be a boolean", map[string]any{"escalated": raw})
		}
		filter.Escalated = &escalated
	}

	violations, err := h.metrics.ListViolations(c.UserContext(), filter)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"violations": dto.FromViolations(violations)})
}
