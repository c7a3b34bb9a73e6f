package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-monitor/internal/config"
	"github.com/spec-kit/sla-monitor/internal/domain"
	"github.com/spec-kit/sla-monitor/internal/events"
	"github.com/spec-kit/sla-monitor/internal/observability"
)

func newNotificationFixture(queue NotificationQueue, itemRepo *fakeItemRepo, userRepo *fakeUserRepo) (*NotificationService, events.Dispatcher, *observability.Metrics) {
	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()
	svc := NewNotificationService(NotificationDependencies{
		Dispatcher: dispatcher,
		Queue:      queue,
		ItemRepo:   itemRepo,
		UserRepo:   userRepo,
		Metrics:    metrics,
		Logger:     zap.NewNop(),
		Config:     config.NotificationConfig{QueueKey: "sla:notifications:outbound", EmailFrom: "sla-engine@example.com"},
	})
	svc.RegisterHandlers()
	return svc, dispatcher, metrics
}

func TestViolationDetectedNotifiesAssignee(t *testing.T) {
	assignee := domain.User{ID: "user-1", Email: "assignee@example.com", Role: domain.RoleContributor, IsActive: true}
	item := openItem("item-1", time.Now().Add(-6*time.Hour))
	item.AssignedUserID = &assignee.ID

	queue := &fakeQueue{}
	_, dispatcher, _ := newNotificationFixture(queue, newFakeItemRepo(item), &fakeUserRepo{users: []domain.User{assignee}})

	err := dispatcher.Publish(context.Background(), events.Event{
		Type:       events.EventViolationDetected,
		WorkItemID: item.ID,
		Timestamp:  time.Now(),
		Payload: events.ViolationDetectedPayload{
			ViolationID:   "violation-1",
			SlaConfigID:   "cfg-1",
			ViolationType: domain.ViolationTypeResponse,
			Severity:      domain.SeverityMajor,
			DelayHours:    4.2,
			ExpectedTime:  time.Now().Add(-4 * time.Hour),
		},
	})
	require.NoError(t, err)

	require.Len(t, queue.requests, 1)
	req := queue.requests[0]
	assert.Equal(t, "sla-engine@example.com", req.From)
	assert.Equal(t, []string{"assignee@example.com"}, req.Recipients)
	assert.Equal(t, domain.PriorityHigh, req.Priority)
	assert.Equal(t, "violation-1", req.Metadata.ViolationID)
	assert.Equal(t, item.ID, req.Metadata.WorkItemID)
	assert.Contains(t, req.Subject, "response_time")
}

func TestViolationEscalatedNotifiesTarget(t *testing.T) {
	target := domain.User{ID: "admin-1", Email: "admin@example.com", Role: domain.RoleAdmin, IsActive: true}
	item := openItem("item-1", time.Now().Add(-12*time.Hour))

	queue := &fakeQueue{}
	_, dispatcher, _ := newNotificationFixture(queue, newFakeItemRepo(item), &fakeUserRepo{users: []domain.User{target}})

	err := dispatcher.Publish(context.Background(), events.Event{
		Type:       events.EventViolationEscalated,
		WorkItemID: item.ID,
		Timestamp:  time.Now(),
		Payload: events.ViolationEscalatedPayload{
			ViolationID:   "violation-1",
			ViolationType: domain.ViolationTypeResolution,
			Severity:      domain.SeverityCritical,
			DelayHours:    10,
			ToUserID:      target.ID,
			Reason:        domain.ReasonAutoEscalation,
			NewPriority:   domain.PriorityCritical,
		},
	})
	require.NoError(t, err)

	require.Len(t, queue.requests, 1)
	req := queue.requests[0]
	assert.Equal(t, []string{"admin@example.com"}, req.Recipients)
	assert.Equal(t, domain.PriorityCritical, req.Priority)
	assert.Contains(t, req.Body, domain.ReasonAutoEscalation)
}

func TestEnqueueFailureIsSwallowedAndCounted(t *testing.T) {
	item := openItem("item-1", time.Now().Add(-6*time.Hour))

	queue := &fakeQueue{fail: true}
	_, dispatcher, metrics := newNotificationFixture(queue, newFakeItemRepo(item), &fakeUserRepo{})

	err := dispatcher.Publish(context.Background(), events.Event{
		Type:       events.EventViolationDetected,
		WorkItemID: item.ID,
		Timestamp:  time.Now(),
		Payload: events.ViolationDetectedPayload{
			ViolationID:   "violation-1",
			ViolationType: domain.ViolationTypeEscalation,
			Severity:      domain.SeverityMinor,
			DelayHours:    1,
			ExpectedTime:  time.Now().Add(-time.Hour),
		},
	})
	require.NoError(t, err)

	_, _, _, failures := metrics.EngineSnapshot()
	assert.Equal(t, int64(1), failures)
	assert.Empty(t, queue.requests)
}

func TestSeverityToPriorityMapping(t *testing.T) {
	assert.Equal(t, domain.PriorityCritical, severityToPriority(domain.SeverityCritical))
	assert.Equal(t, domain.PriorityHigh, severityToPriority(domain.SeverityMajor))
	assert.Equal(t, domain.PriorityMedium, severityToPriority(domain.SeverityMinor))
}
