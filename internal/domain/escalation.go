package domain

import "time"

// ReasonAutoEscalation is stamped on escalations triggered by the sweep.
const ReasonAutoEscalation = "auto_escalation"

// EscalationRecord is the audit entry written when a violation is escalated.
// EscalatedBy is nil for automatic escalations.
type EscalationRecord struct {
	ID          string
	ViolationID string
	WorkItemID  string
	FromUserID  *string
	ToUserID    string
	Reason      string
	Notes       string
	EscalatedBy *string
	CreatedAt   time.Time
}
