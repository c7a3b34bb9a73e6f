package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/sla-monitor/internal/domain"
	"github.com/spec-kit/sla-monitor/internal/repository"
	apperrors "github.com/spec-kit/sla-monitor/pkg/util/errorutil"
)

// PriorityBreakdown is the per-priority slice of the compliance report.
type PriorityBreakdown struct {
	Priority       domain.Priority `json:"priority"`
	TotalItems     int             `json:"total_items"`
	Violations     int             `json:"violations"`
	ComplianceRate float64         `json:"compliance_rate"`
}

// ComplianceMetrics aggregates SLA adherence for one application and window.
type ComplianceMetrics struct {
	ApplicationID        string              `json:"application_id"`
	From                 time.Time           `json:"from"`
	To                   time.Time           `json:"to"`
	TotalItems           int                 `json:"total_items"`
	Compliant            int                 `json:"compliant"`
	Violations           int                 `json:"violations"`
	ComplianceRate       float64             `json:"compliance_rate"`
	AverageResponseHours *float64            `json:"average_response_hours"`
	AverageResolveHours  *float64            `json:"average_resolution_hours"`
	PerPriority          []PriorityBreakdown `json:"per_priority_breakdown"`
}

// MetricsService is the engine's read path: compliance statistics and
// escalation history.
type MetricsService struct {
	items      repository.WorkItemRepository
	violations repository.ViolationRepository
	logger     *zap.Logger
}

// NewMetricsService creates the service.
func NewMetricsService(items repository.WorkItemRepository, violations repository.ViolationRepository, logger *zap.Logger) *MetricsService {
	return &MetricsService{items: items, violations: violations, logger: logger}
}

// GetComplianceMetrics computes compliance over work items created in the window.
func (s *MetricsService) GetComplianceMetrics(ctx context.Context, applicationID string, from, to time.Time) (*ComplianceMetrics, error) {
	if !to.After(from) {
		return nil, apperrors.NewValidationError("date range end must be after start", map[string]any{
			"from": from, "to": to,
		})
	}

	stats, err := s.items.Stats(ctx, applicationID, from, to)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	violated, err := s.violations.CountViolatedItems(ctx, applicationID, from, to)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	metrics := &ComplianceMetrics{
		ApplicationID:        applicationID,
		From:                 from,
		To:                   to,
		TotalItems:           stats.TotalItems,
		Violations:           violated,
		Compliant:            stats.TotalItems - violated,
		ComplianceRate:       complianceRate(stats.TotalItems, violated),
		AverageResponseHours: stats.AvgResponseHours,
		AverageResolveHours:  stats.AvgResolutionHours,
	}

	itemsByPriority, err := s.items.CountByPriority(ctx, applicationID, from, to)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	violatedByPriority, err := s.violations.CountViolatedItemsByPriority(ctx, applicationID, from, to)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	violatedIndex := make(map[domain.Priority]int, len(violatedByPriority))
	for _, pc := range violatedByPriority {
		violatedIndex[pc.Priority] = pc.Items
	}
	for _, pc := range itemsByPriority {
		metrics.PerPriority = append(metrics.PerPriority, PriorityBreakdown{
			Priority:       pc.Priority,
			TotalItems:     pc.Items,
			Violations:     violatedIndex[pc.Priority],
			ComplianceRate: complianceRate(pc.Items, violatedIndex[pc.Priority]),
		})
	}

	return metrics, nil
}

// GetEscalationHistory returns the escalated violations for a work item,
// most recent first.
func (s *MetricsService) GetEscalationHistory(ctx context.Context, workItemID string) ([]domain.SlaViolation, error) {
	history, err := s.violations.ListEscalatedByWorkItem(ctx, workItemID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return history, nil
}

// ListViolations exposes the operator listing.
func (s *MetricsService) ListViolations(ctx context.Context, filter repository.ViolationFilter) ([]domain.SlaViolation, error) {
	violations, err := s.violations.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return violations, nil
}

func complianceRate(total, violated int) float64 {
	if total <= 0 {
		return 1.0
	}
	return float64(total-violated) / float64(total)
}
