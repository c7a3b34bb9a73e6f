package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-monitor/internal/service"
)

// SweepsHandler lets operators trigger an out-of-band detection sweep.
// Idempotency guards in the detector make this safe to run alongside the
// scheduled sweep.
type SweepsHandler struct {
	detector *service.DetectorService
}

// NewSweepsHandler returns a new handler instance.
func NewSweepsHandler(detector *service.DetectorService) *SweepsHandler {
	return &SweepsHandler{detector: detector}
}

// Trigger handles POST /api/v1/sweeps.
func (h *SweepsHandler) Trigger(c *fiber.Ctx) error {
	report, err := h.detector.RunSweep(c.UserContext())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(report)
}
