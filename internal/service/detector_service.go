package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-monitor/internal/calendar"
	"github.com/spec-kit/sla-monitor/internal/domain"
	"github.com/spec-kit/sla-monitor/internal/events"
	"github.com/spec-kit/sla-monitor/internal/repository"
)

// SweepReport summarizes one detection pass.
type SweepReport struct {
	ConfigsChecked    int       `json:"configs_checked"`
	ItemsScanned      int       `json:"items_scanned"`
	ViolationsCreated int       `json:"violations_created"`
	Escalations       int       `json:"escalations"`
	Errors            int       `json:"errors"`
	StartedAt         time.Time `json:"started_at"`
	FinishedAt        time.Time `json:"finished_at"`
}

// DetectorService runs the periodic violation sweep over open work items.
// Sweeps are idempotent: existence checks plus the store's unique constraint
// make re-running a sweep produce the same violation set.
type DetectorService struct {
	configs      repository.SlaConfigRepository
	items        repository.WorkItemRepository
	violations   repository.ViolationRepository
	escalator    *EscalationService
	dispatcher   events.Dispatcher
	logger       *zap.Logger
	autoEscalate bool
	now          func() time.Time
}

// DetectorDependencies bundles collaborators.
type DetectorDependencies struct {
	SlaConfigRepo repository.SlaConfigRepository
	WorkItemRepo  repository.WorkItemRepository
	ViolationRepo repository.ViolationRepository
	Escalator     *EscalationService
	Dispatcher    events.Dispatcher
	Logger        *zap.Logger
	AutoEscalate  bool
}

// NewDetectorService creates the service.
func NewDetectorService(deps DetectorDependencies) *DetectorService {
	return &DetectorService{
		configs:      deps.SlaConfigRepo,
		items:        deps.WorkItemRepo,
		violations:   deps.ViolationRepo,
		escalator:    deps.Escalator,
		dispatcher:   deps.Dispatcher,
		logger:       deps.Logger,
		autoEscalate: deps.AutoEscalate,
		now:          time.Now,
	}
}

// deadlineCheck is one of the up-to-three evaluations per item.
type deadlineCheck struct {
	violationType domain.ViolationType
	hours         float64
	applies       bool
}

// RunSweep evaluates every active config against its application's open work
// items. Errors on a single config or item are logged and counted but never
// abort the sweep.
func (s *DetectorService) RunSweep(ctx context.Context) (*SweepReport, error) {
	report := &SweepReport{StartedAt: s.now()}

	configs, err := s.configs.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	for i := range configs {
		cfg := configs[i]
		report.ConfigsChecked++
		if err := s.sweepConfig(ctx, cfg, report); err != nil {
			report.Errors++
			s.logger.Error("sweep failed for config",
				zap.String("sla_config_id", cfg.ID),
				zap.String("application_id", cfg.ApplicationID),
				zap.Error(err))
		}
	}

	report.FinishedAt = s.now()
	s.publishSweepCompleted(ctx, report)
	s.logger.Info("violation sweep completed",
		zap.Int("configs_checked", report.ConfigsChecked),
		zap.Int("items_scanned", report.ItemsScanned),
		zap.Int("violations_created", report.ViolationsCreated),
		zap.Int("escalations", report.Escalations),
		zap.Int("errors", report.Errors))
	return report, nil
}

func (s *DetectorService) sweepConfig(ctx context.Context, cfg domain.SlaConfig, report *SweepReport) error {
	policy := businessPolicy(cfg)
	if err := policy.Validate(); err != nil {
		return err
	}

	items, err := s.items.ListOpenByApplication(ctx, cfg.ApplicationID)
	if err != nil {
		return err
	}

	for i := range items {
		item := items[i]
		if item.Priority != cfg.PriorityLevel {
			continue
		}
		report.ItemsScanned++
		if err := s.checkItem(ctx, cfg, policy, &item, report); err != nil {
			report.Errors++
			s.logger.Error("sweep failed for work item",
				zap.String("work_item_id", item.ID),
				zap.String("sla_config_id", cfg.ID),
				zap.Error(err))
		}
	}
	return nil
}

func (s *DetectorService) checkItem(ctx context.Context, cfg domain.SlaConfig, policy calendar.BusinessPolicy, item *domain.WorkItem, report *SweepReport) error {
	checks := []deadlineCheck{
		{domain.ViolationTypeResponse, cfg.ResponseTimeHours, !item.HasAnyResponse},
		{domain.ViolationTypeResolution, cfg.ResolutionTimeHours, item.IsOpen()},
		{domain.ViolationTypeEscalation, cfg.EscalationTimeHours, true},
	}

	now := s.now()
	for _, check := range checks {
		if !check.applies {
			continue
		}
		expected, err := calendar.ComputeDeadline(item.CreatedAt, check.hours, policy)
		if err != nil {
			return err
		}
		if !now.After(expected) {
			continue
		}

		exists, err := s.violations.Exists(ctx, item.ID, check.violationType)
		if err != nil {
			return err
		}
		if exists {
			continue
		}

		delay := now.Sub(expected).Hours()
		violation := &domain.SlaViolation{
			WorkItemID:    item.ID,
			SlaConfigID:   cfg.ID,
			ViolationType: check.violationType,
			ExpectedTime:  expected,
			DetectedAt:    now,
			DelayHours:    delay,
			Severity:      domain.ClassifySeverity(delay),
		}
		created, err := s.violations.Create(ctx, violation)
		if err != nil {
			return err
		}
		if !created {
			// Lost a race with a concurrent sweep; the other writer owns it.
			continue
		}
		report.ViolationsCreated++
		s.logger.Info("sla violation detected",
			zap.String("violation_id", violation.ID),
			zap.String("work_item_id", item.ID),
			zap.String("violation_type", string(check.violationType)),
			zap.String("severity", string(violation.Severity)),
			zap.Float64("delay_hours", delay))

		s.publishDetectedEvent(ctx, violation)

		if s.autoEscalate && s.escalator != nil {
			escalated, err := s.escalator.EscalateAutomatically(ctx, violation, item)
			if err != nil {
				report.Errors++
				s.logger.Error("automatic escalation failed",
					zap.String("violation_id", violation.ID),
					zap.Error(err))
			} else if escalated {
				report.Escalations++
			}
		}
	}
	return nil
}

func (s *DetectorService) publishDetectedEvent(ctx context.Context, violation *domain.SlaViolation) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:         uuid.NewString(),
		Type:       events.EventViolationDetected,
		WorkItemID: violation.WorkItemID,
		Timestamp:  s.now(),
		Payload: events.ViolationDetectedPayload{
			ViolationID:   violation.ID,
			SlaConfigID:   violation.SlaConfigID,
			ViolationType: violation.ViolationType,
			Severity:      violation.Severity,
			DelayHours:    violation.DelayHours,
			ExpectedTime:  violation.ExpectedTime,
		},
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func (s *DetectorService) publishSweepCompleted(ctx context.Context, report *SweepReport) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventSweepCompleted,
		Timestamp: s.now(),
		Payload: events.SweepCompletedPayload{
			ConfigsChecked:    report.ConfigsChecked,
			ItemsScanned:      report.ItemsScanned,
			ViolationsCreated: report.ViolationsCreated,
			Escalations:       report.Escalations,
			Errors:            report.Errors,
		},
	}
	_ = s.dispatcher.Publish(ctx, event)
}

// businessPolicy converts a config row into calendar terms.
func businessPolicy(cfg domain.SlaConfig) calendar.BusinessPolicy {
	if !cfg.BusinessHoursOnly {
		return calendar.AlwaysOn()
	}
	return calendar.NewBusinessPolicy(cfg.BusinessStartHour, cfg.BusinessEndHour, cfg.BusinessDays)
}
