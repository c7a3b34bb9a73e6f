package domain

import "time"

// WorkItemStatus enumerates lifecycle states for tracked inquiries.
type WorkItemStatus string

const (
	WorkItemStatusOpen     WorkItemStatus = "OPEN"
	WorkItemStatusResolved WorkItemStatus = "RESOLVED"
	WorkItemStatusClosed   WorkItemStatus = "CLOSED"
)

// Priority enumerates SLA urgency tiers in ascending order.
type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

// Promote returns the next priority tier; CRITICAL stays CRITICAL.
func (p Priority) Promote() Priority {
	switch p {
	case PriorityLow:
		return PriorityMedium
	case PriorityMedium:
		return PriorityHigh
	case PriorityHigh:
		return PriorityCritical
	default:
		return PriorityCritical
	}
}

// WorkItem is the engine's read view of an inquiry. The ticketing subsystem
// owns it; the engine only reassigns and promotes priority during escalation.
type WorkItem struct {
	ID               string
	ApplicationID    string
	Priority         Priority
	Status           WorkItemStatus
	AssignedUserID   *string
	HasAnyResponse   bool
	FirstRespondedAt *time.Time
	ResolvedAt       *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsOpen reports whether the item is still subject to SLA checks.
func (w *WorkItem) IsOpen() bool {
	return w.Status == WorkItemStatusOpen
}
