package dto

import (
	"time"

	"github.com/spec-kit/sla-monitor/internal/domain"
)

// ViolationResponse is the wire shape for SLA violations.
type ViolationResponse struct {
	ID                string               `json:"id"`
	WorkItemID        string               `json:"work_item_id"`
	SlaConfigID       string               `json:"sla_config_id"`
	ViolationType     domain.ViolationType `json:"violation_type"`
	ExpectedTime      time.Time            `json:"expected_time"`
	DetectedAt        time.Time            `json:"detected_at"`
	DelayHours        float64              `json:"delay_hours"`
	Severity          domain.Severity      `json:"severity"`
	IsEscalated       bool                 `json:"is_escalated"`
	EscalatedToUserID *string              `json:"escalated_to_user_id,omitempty"`
	EscalatedAt       *time.Time           `json:"escalated_at,omitempty"`
	IsResolved        bool                 `json:"is_resolved"`
	ResolvedAt        *time.Time           `json:"resolved_at,omitempty"`
}

// FromViolation maps a domain violation onto the response shape.
func FromViolation(v domain.SlaViolation) ViolationResponse {
	return ViolationResponse{
		ID:                v.ID,
		WorkItemID:        v.WorkItemID,
		SlaConfigID:       v.SlaConfigID,
		ViolationType:     v.ViolationType,
		ExpectedTime:      v.ExpectedTime,
		DetectedAt:        v.DetectedAt,
		DelayHours:        v.DelayHours,
		Severity:          v.Severity,
		IsEscalated:       v.IsEscalated,
		EscalatedToUserID: v.EscalatedToUserID,
		EscalatedAt:       v.EscalatedAt,
		IsResolved:        v.IsResolved,
		ResolvedAt:        v.ResolvedAt,
	}
}

// FromViolations maps a slice of domain violations.
func FromViolations(violations []domain.SlaViolation) []ViolationResponse {
	result := make([]ViolationResponse, 0, len(violations))
	for _, v := range violations {
		result = append(result, FromViolation(v))
	}
	return result
}
