package events

import (
	"time"

	"github.com/spec-kit/sla-monitor/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventViolationDetected  EventType = "violation_detected"
	EventViolationEscalated EventType = "violation_escalated"
	EventSweepCompleted     EventType = "sweep_completed"
)

// Event represents a domain event emitted by the engine.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	WorkItemID string      `json:"work_item_id"`
	Timestamp  time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload"`
}

// ViolationDetectedPayload payload.
type ViolationDetectedPayload struct {
	ViolationID   string               `json:"violation_id"`
	SlaConfigID   string               `json:"sla_config_id"`
	ViolationType domain.ViolationType `json:"violation_type"`
	Severity      domain.Severity      `json:"severity"`
	DelayHours    float64              `json:"delay_hours"`
	ExpectedTime  time.Time            `json:"expected_time"`
}

// ViolationEscalatedPayload payload.
type ViolationEscalatedPayload struct {
	ViolationID   string               `json:"violation_id"`
	ViolationType domain.ViolationType `json:"violation_type"`
	Severity      domain.Severity      `json:"severity"`
	DelayHours    float64              `json:"delay_hours"`
	FromUserID    *string              `json:"from_user_id,omitempty"`
	ToUserID      string               `json:"to_user_id"`
	Reason        string               `json:"reason"`
	EscalatedBy   *string              `json:"escalated_by,omitempty"`
	NewPriority   domain.Priority      `json:"new_priority"`
}

// SweepCompletedPayload payload.
type SweepCompletedPayload struct {
	ConfigsChecked    int `json:"configs_checked"`
	ItemsScanned      int `json:"items_scanned"`
	ViolationsCreated int `json:"violations_created"`
	Escalations       int `json:"escalations"`
	Errors            int `json:"errors"`
}
