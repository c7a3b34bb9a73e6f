package domain

import "time"

// ViolationType identifies which deadline was breached.
type ViolationType string

const (
	ViolationTypeResponse   ViolationType = "response_time"
	ViolationTypeResolution ViolationType = "resolution_time"
	ViolationTypeEscalation ViolationType = "escalation_time"
)

// Severity buckets how far past deadline a violation is.
type Severity string

const (
	SeverityMinor    Severity = "MINOR"
	SeverityMajor    Severity = "MAJOR"
	SeverityCritical Severity = "CRITICAL"
)

// ClassifySeverity maps delay magnitude to a severity tier.
func ClassifySeverity(delayHours float64) Severity {
	switch {
	case delayHours <= 2:
		return SeverityMinor
	case delayHours <= 8:
		return SeverityMajor
	default:
		return SeverityCritical
	}
}

// SlaViolation records one deadline breach for one work item. At most one
// violation exists per (WorkItemID, ViolationType); the store enforces it.
type SlaViolation struct {
	ID                string
	WorkItemID        string
	SlaConfigID       string
	ViolationType     ViolationType
	ExpectedTime      time.Time
	DetectedAt        time.Time
	DelayHours        float64
	Severity          Severity
	IsEscalated       bool
	EscalatedToUserID *string
	EscalatedAt       *time.Time
	IsResolved        bool
	ResolvedAt        *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
