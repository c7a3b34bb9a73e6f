package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-monitor/internal/domain"
	"github.com/spec-kit/sla-monitor/internal/events"
	"github.com/spec-kit/sla-monitor/internal/repository"
	apperrors "github.com/spec-kit/sla-monitor/pkg/util/errorutil"
)

// ManualEscalationInput carries an operator escalation request. A nil
// TargetUserID delegates target selection to the resolver chain.
type ManualEscalationInput struct {
	ViolationID  string
	TargetUserID *string
	Reason       string
	Notes        string
	EscalatedBy  string
}

// EscalationService executes the escalation state transition: violation flip,
// work-item reassignment, priority bump and audit record in one transaction,
// followed by a best-effort notification event.
type EscalationService struct {
	violations repository.ViolationRepository
	items      repository.WorkItemRepository
	users      repository.UserRepository
	resolver   *ResolverService
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// EscalationDependencies bundles collaborators.
type EscalationDependencies struct {
	ViolationRepo repository.ViolationRepository
	WorkItemRepo  repository.WorkItemRepository
	UserRepo      repository.UserRepository
	Resolver      *ResolverService
	Dispatcher    events.Dispatcher
	Logger        *zap.Logger
}

// NewEscalationService creates the service.
func NewEscalationService(deps EscalationDependencies) *EscalationService {
	return &EscalationService{
		violations: deps.ViolationRepo,
		items:      deps.WorkItemRepo,
		users:      deps.UserRepo,
		resolver:   deps.Resolver,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// EscalateManually handles the operator path. Terminal conditions surface as
// typed errors so callers can tell a safe retry from a dead end.
func (s *EscalationService) EscalateManually(ctx context.Context, input ManualEscalationInput) (*domain.SlaViolation, error) {
	violation, err := s.violations.GetByID(ctx, input.ViolationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewViolationNotFound(input.ViolationID)
		}
		return nil, apperrors.MapError(err)
	}
	if violation.IsEscalated {
		return nil, apperrors.NewAlreadyEscalated(violation.ID)
	}

	item, err := s.items.GetByID(ctx, violation.WorkItemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("work item", map[string]any{"work_item_id": violation.WorkItemID})
		}
		return nil, apperrors.MapError(err)
	}

	var target *domain.User
	if input.TargetUserID != nil {
		target, err = s.users.GetByID(ctx, *input.TargetUserID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewTargetNotFound(item.ID)
			}
			return nil, apperrors.MapError(err)
		}
		if !target.IsActive {
			return nil, apperrors.NewTargetNotFound(item.ID)
		}
	} else {
		target, err = s.resolver.ResolveTarget(ctx, item)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
	}
	if target == nil {
		return nil, apperrors.NewTargetNotFound(item.ID)
	}

	escalatedBy := input.EscalatedBy
	if err := s.escalate(ctx, violation, item, target, input.Reason, input.Notes, &escalatedBy); err != nil {
		return nil, err
	}
	return s.violations.GetByID(ctx, violation.ID)
}

// EscalateAutomatically handles the sweep path. A missing target or an
// already-escalated violation is a skip, not an error.
func (s *EscalationService) EscalateAutomatically(ctx context.Context, violation *domain.SlaViolation, item *domain.WorkItem) (bool, error) {
	target, err := s.resolver.ResolveTarget(ctx, item)
	if err != nil {
		return false, err
	}
	if target == nil {
		s.logger.Info("skipping automatic escalation, no target",
			zap.String("violation_id", violation.ID),
			zap.String("work_item_id", item.ID))
		return false, nil
	}

	err = s.escalate(ctx, violation, item, target, domain.ReasonAutoEscalation, "", nil)
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeAlreadyEscalated) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *EscalationService) escalate(ctx context.Context, violation *domain.SlaViolation, item *domain.WorkItem, target *domain.User, reason, notes string, escalatedBy *string) error {
	newPriority := item.Priority.Promote()
	params := repository.EscalationParams{
		ViolationID: violation.ID,
		WorkItemID:  item.ID,
		FromUserID:  item.AssignedUserID,
		ToUserID:    target.ID,
		NewPriority: newPriority,
		Reason:      reason,
		Notes:       notes,
		EscalatedBy: escalatedBy,
	}
	if err := s.violations.Escalate(ctx, params); err != nil {
		return err
	}

	s.logger.Info("violation escalated",
		zap.String("violation_id", violation.ID),
		zap.String("work_item_id", item.ID),
		zap.String("target_user_id", target.ID),
		zap.String("reason", reason))

	s.publishEscalatedEvent(ctx, violation, item, target, reason, escalatedBy, newPriority)

	// Apply the transaction's result to the in-memory item. One sweep can
	// escalate several violations of the same item; each must bump from the
	// priority the previous escalation left and record its target as the
	// handover source.
	item.AssignedUserID = &target.ID
	item.Priority = newPriority
	return nil
}

// Notification handoff is outside the escalation transaction. Publish never
// returns an error from the engine's point of view.
func (s *EscalationService) publishEscalatedEvent(ctx context.Context, violation *domain.SlaViolation, item *domain.WorkItem, target *domain.User, reason string, escalatedBy *string, newPriority domain.Priority) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:         uuid.NewString(),
		Type:       events.EventViolationEscalated,
		WorkItemID: item.ID,
		Timestamp:  time.Now(),
		Payload: events.ViolationEscalatedPayload{
			ViolationID:   violation.ID,
			ViolationType: violation.ViolationType,
			Severity:      violation.Severity,
			DelayHours:    violation.DelayHours,
			FromUserID:    item.AssignedUserID,
			ToUserID:      target.ID,
			Reason:        reason,
			EscalatedBy:   escalatedBy,
			NewPriority:   newPriority,
		},
	}
	_ = s.dispatcher.Publish(ctx, event)
}
