package domain

import "time"

// SlaConfig is a per-application, per-priority deadline policy. Configuration
// management owns these rows; the engine treats them as read-only.
type SlaConfig struct {
	ID                  string
	ApplicationID       string
	PriorityLevel       Priority
	ResponseTimeHours   float64
	ResolutionTimeHours float64
	EscalationTimeHours float64
	BusinessHoursOnly   bool
	BusinessStartHour   int
	BusinessEndHour     int
	BusinessDays        []int
	IsActive            bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
