package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-monitor/internal/api/dto"
	"github.com/spec-kit/sla-monitor/internal/auth"
	"github.com/spec-kit/sla-monitor/internal/service"
	apperrors "github.com/spec-kit/sla-monitor/pkg/util/errorutil"
)

// EscalationsHandler exposes the manual escalation path and history reads.
type EscalationsHandler struct {
	escalator *service.EscalationService
	metrics   *service.MetricsService
}

// NewEscalationsHandler returns a new handler instance.
func NewEscalationsHandler(escalator *service.EscalationService, metrics *service.MetricsService) *EscalationsHandler {
	return &EscalationsHandler{escalator: escalator, metrics: metrics}
}

// Trigger handles POST /api/v1/escalations.
func (h *EscalationsHandler) Trigger(c *fiber.Ctx) error {
	var req dto.ManualEscalationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	if strings.TrimSpace(req.ViolationID) == "" {
		return apperrors.NewValidationError("violation_id is required", nil)
	}
	if strings.TrimSpace(req.Reason) == "" {
		return apperrors.NewValidationError("reason is required", nil)
	}

	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	violation, err := h.escalator.EscalateManually(c.UserContext(), service.ManualEscalationInput{
		ViolationID:  req.ViolationID,
		TargetUserID: req.TargetUserID,
		Reason:       req.Reason,
		Notes:        req.Notes,
		EscalatedBy:  principal.UserID,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(dto.FromViolation(*violation))
}

// History handles GET /api/v1/work-items/:id/escalations.
func (h *EscalationsHandler) History(c *fiber.Ctx) error {
	workItemID := c.Params("id")
	if workItemID == "" {
		return apperrors.NewValidationError("work item id is required", nil)
	}

	history, err := h.metrics.GetEscalationHistory(c.UserContext(), workItemID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"escalations": dto.FromViolations(history)})
}
