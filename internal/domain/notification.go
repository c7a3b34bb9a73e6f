package domain

// NotificationRequest is the outbound handoff to the external notifier.
// Delivery transport is not this service's concern; the request is queued
// fire-and-forget.
type NotificationRequest struct {
	From       string               `json:"from"`
	Recipients []string             `json:"recipients"`
	Subject    string               `json:"subject"`
	Body       string               `json:"body"`
	Priority   Priority             `json:"priority"`
	Metadata   NotificationMetadata `json:"metadata"`
}

// NotificationMetadata carries the structured context consumers key on.
type NotificationMetadata struct {
	ViolationID   string        `json:"violation_id"`
	WorkItemID    string        `json:"work_item_id"`
	ViolationType ViolationType `json:"violation_type"`
	Severity      Severity      `json:"severity"`
	DelayHours    float64       `json:"delay_hours"`
}
