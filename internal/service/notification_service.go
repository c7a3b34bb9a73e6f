package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/sla-monitor/internal/config"
	"github.com/spec-kit/sla-monitor/internal/domain"
	"github.com/spec-kit/sla-monitor/internal/events"
	"github.com/spec-kit/sla-monitor/internal/observability"
	"github.com/spec-kit/sla-monitor/internal/repository"
)

// NotificationQueue is the fire-and-forget handoff to the external notifier.
type NotificationQueue interface {
	Enqueue(ctx context.Context, req domain.NotificationRequest) error
}

// NotificationService turns engine events into outbound notification
// requests. Enqueue failures are logged and swallowed here; they never reach
// the detection or escalation paths.
type NotificationService struct {
	dispatcher events.Dispatcher
	queue      NotificationQueue
	items      repository.WorkItemRepository
	users      repository.UserRepository
	metrics    *observability.Metrics
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NotificationDependencies bundles collaborators.
type NotificationDependencies struct {
	Dispatcher events.Dispatcher
	Queue      NotificationQueue
	ItemRepo   repository.WorkItemRepository
	UserRepo   repository.UserRepository
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Config     config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	return &NotificationService{
		dispatcher: deps.Dispatcher,
		queue:      deps.Queue,
		items:      deps.ItemRepo,
		users:      deps.UserRepo,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		cfg:        deps.Config,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventViolationDetected, n.handleViolationDetected)
	n.dispatcher.Subscribe(events.EventViolationEscalated, n.handleViolationEscalated)
}

func (n *NotificationService) handleViolationDetected(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ViolationDetectedPayload)
	if !ok {
		return nil
	}

	recipients := n.assigneeRecipients(ctx, event.WorkItemID)
	req := domain.NotificationRequest{
		Recipients: recipients,
		Subject: fmt.Sprintf("[SLA %s] %s breached on inquiry %s",
			payload.Severity, payload.ViolationType, event.WorkItemID),
		Body: fmt.Sprintf(
			"Inquiry %s missed its %s deadline (%s). Expected by %s, now %.1f hours late.",
			event.WorkItemID, payload.ViolationType, payload.Severity,
			payload.ExpectedTime.Format("2006-01-02 15:04 MST"), payload.DelayHours),
		Priority: severityToPriority(payload.Severity),
		Metadata: domain.NotificationMetadata{
			ViolationID:   payload.ViolationID,
			WorkItemID:    event.WorkItemID,
			ViolationType: payload.ViolationType,
			Severity:      payload.Severity,
			DelayHours:    payload.DelayHours,
		},
	}
	n.enqueue(ctx, req)
	return nil
}

func (n *NotificationService) handleViolationEscalated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ViolationEscalatedPayload)
	if !ok {
		return nil
	}

	recipients := n.userRecipients(ctx, payload.ToUserID)
	req := domain.NotificationRequest{
		Recipients: recipients,
		Subject: fmt.Sprintf("[SLA ESCALATION] inquiry %s assigned to you (%s)",
			event.WorkItemID, payload.ViolationType),
		Body: fmt.Sprintf(
			"Inquiry %s was escalated to you. Violation: %s (%s), %.1f hours past deadline. Reason: %s. New priority: %s.",
			event.WorkItemID, payload.ViolationType, payload.Severity,
			payload.DelayHours, payload.Reason, payload.NewPriority),
		Priority: payload.NewPriority,
		Metadata: domain.NotificationMetadata{
			ViolationID:   payload.ViolationID,
			WorkItemID:    event.WorkItemID,
			ViolationType: payload.ViolationType,
			Severity:      payload.Severity,
			DelayHours:    payload.DelayHours,
		},
	}
	n.enqueue(ctx, req)
	return nil
}

func (n *NotificationService) enqueue(ctx context.Context, req domain.NotificationRequest) {
	if n.queue == nil {
		return
	}
	req.From = n.cfg.EmailFrom
	if err := n.queue.Enqueue(ctx, req); err != nil {
		n.metrics.RecordNotificationFailure()
		n.logger.Error("notification dispatch failed",
			zap.String("work_item_id", req.Metadata.WorkItemID),
			zap.String("violation_id", req.Metadata.ViolationID),
			zap.Error(err))
	}
}

func (n *NotificationService) assigneeRecipients(ctx context.Context, workItemID string) []string {
	item, err := n.items.GetByID(ctx, workItemID)
	if err != nil || item.AssignedUserID == nil {
		return nil
	}
	return n.userRecipients(ctx, *item.AssignedUserID)
}

func (n *NotificationService) userRecipients(ctx context.Context, userID string) []string {
	user, err := n.users.GetByID(ctx, userID)
	if err != nil {
		n.logger.Warn("recipient lookup failed", zap.String("user_id", userID), zap.Error(err))
		return nil
	}
	return []string{user.Email}
}

func severityToPriority(severity domain.Severity) domain.Priority {
	switch severity {
	case domain.SeverityCritical:
		return domain.PriorityCritical
	case domain.SeverityMajor:
		return domain.PriorityHigh
	default:
		return domain.PriorityMedium
	}
}
