package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-monitor/internal/domain"
)

func newDetectorFixture(configs []domain.SlaConfig, items []*domain.WorkItem, users []domain.User, autoEscalate bool) (*DetectorService, *fakeViolationRepo, *fakeItemRepo) {
	logger := zap.NewNop()
	itemRepo := newFakeItemRepo(items...)
	violationRepo := newFakeViolationRepo(itemRepo)
	userRepo := &fakeUserRepo{users: users}

	escalator := NewEscalationService(EscalationDependencies{
		ViolationRepo: violationRepo,
		WorkItemRepo:  itemRepo,
		UserRepo:      userRepo,
		Resolver:      NewResolverService(userRepo, logger),
		Logger:        logger,
	})
	detector := NewDetectorService(DetectorDependencies{
		SlaConfigRepo: &fakeConfigRepo{configs: configs},
		WorkItemRepo:  itemRepo,
		ViolationRepo: violationRepo,
		Escalator:     escalator,
		Logger:        logger,
		AutoEscalate:  autoEscalate,
	})
	return detector, violationRepo, itemRepo
}

func wallClockConfig(responseHours, resolutionHours, escalationHours float64) domain.SlaConfig {
	return domain.SlaConfig{
		ID:                  "cfg-1",
		ApplicationID:       "app-1",
		PriorityLevel:       domain.PriorityMedium,
		ResponseTimeHours:   responseHours,
		ResolutionTimeHours: resolutionHours,
		EscalationTimeHours: escalationHours,
		IsActive:            true,
	}
}

func openItem(id string, createdAt time.Time) *domain.WorkItem {
	return &domain.WorkItem{
		ID:            id,
		ApplicationID: "app-1",
		Priority:      domain.PriorityMedium,
		Status:        domain.WorkItemStatusOpen,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
}

func TestRunSweepDetectsResponseViolation(t *testing.T) {
	now := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	item := openItem("item-1", now.Add(-5*time.Hour))

	detector, violations, _ := newDetectorFixture(
		[]domain.SlaConfig{wallClockConfig(4, 100, 100)},
		[]*domain.WorkItem{item}, nil, false)
	detector.now = func() time.Time { return now }

	report, err := detector.RunSweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.ViolationsCreated)
	assert.Equal(t, 1, report.ItemsScanned)
	assert.Zero(t, report.Errors)

	require.Len(t, violations.violations, 1)
	for _, v := range violations.violations {
		assert.Equal(t, domain.ViolationTypeResponse, v.ViolationType)
		assert.InDelta(t, 1.0, v.DelayHours, 0.001)
		assert.Equal(t, domain.SeverityMinor, v.Severity)
		assert.Equal(t, item.ID, v.WorkItemID)
		assert.False(t, v.IsEscalated)
	}
}

func TestRunSweepIsIdempotent(t *testing.T) {
	now := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	item := openItem("item-1", now.Add(-72*time.Hour))

	// All three deadline types are well past due.
	detector, violations, _ := newDetectorFixture(
		[]domain.SlaConfig{wallClockConfig(4, 24, 48)},
		[]*domain.WorkItem{item}, nil, false)
	detector.now = func() time.Time { return now }

	first, err := detector.RunSweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, first.ViolationsCreated)
	assert.Len(t, violations.violations, 3)

	for i := 0; i < 3; i++ {
		report, err := detector.RunSweep(context.Background())
		require.NoError(t, err)
		assert.Zero(t, report.ViolationsCreated)
	}
	assert.Len(t, violations.violations, 3)
}

func TestRunSweepSkipsRespondedItems(t *testing.T) {
	now := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	item := openItem("item-1", now.Add(-5*time.Hour))
	item.HasAnyResponse = true

	detector, violations, _ := newDetectorFixture(
		[]domain.SlaConfig{wallClockConfig(4, 100, 100)},
		[]*domain.WorkItem{item}, nil, false)
	detector.now = func() time.Time { return now }

	report, err := detector.RunSweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.ViolationsCreated)
	assert.Empty(t, violations.violations)
}

func TestRunSweepHonorsDeadlineNotYetPassed(t *testing.T) {
	now := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	item := openItem("item-1", now.Add(-2*time.Hour))

	detector, violations, _ := newDetectorFixture(
		[]domain.SlaConfig{wallClockConfig(4, 24, 48)},
		[]*domain.WorkItem{item}, nil, false)
	detector.now = func() time.Time { return now }

	report, err := detector.RunSweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.ViolationsCreated)
	assert.Empty(t, violations.violations)
}

func TestRunSweepAutoEscalates(t *testing.T) {
	now := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	item := openItem("item-1", now.Add(-5*time.Hour))
	appID := "app-1"
	admin := domain.User{
		ID:            "admin-1",
		ApplicationID: &appID,
		Role:          domain.RoleAdmin,
		IsActive:      true,
		CreatedAt:     now.Add(-24 * time.Hour * 365),
	}

	detector, violations, items := newDetectorFixture(
		[]domain.SlaConfig{wallClockConfig(4, 100, 100)},
		[]*domain.WorkItem{item}, []domain.User{admin}, true)
	detector.now = func() time.Time { return now }

	report, err := detector.RunSweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.ViolationsCreated)
	assert.Equal(t, 1, report.Escalations)

	for _, v := range violations.violations {
		assert.True(t, v.IsEscalated)
		require.NotNil(t, v.EscalatedToUserID)
		assert.Equal(t, admin.ID, *v.EscalatedToUserID)
	}
	updated := items.items[item.ID]
	require.NotNil(t, updated.AssignedUserID)
	assert.Equal(t, admin.ID, *updated.AssignedUserID)
	assert.Equal(t, domain.PriorityHigh, updated.Priority)

	require.Len(t, violations.records, 1)
	assert.Equal(t, domain.ReasonAutoEscalation, violations.records[0].Reason)
	assert.Nil(t, violations.records[0].EscalatedBy)
}

func TestRunSweepBumpsPriorityPerEscalation(t *testing.T) {
	now := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	// Aged backlog: all three deadline types are past due in the same sweep.
	item := openItem("item-1", now.Add(-72*time.Hour))
	appID := "app-1"
	admins := []domain.User{
		{ID: "admin-1", ApplicationID: &appID, Role: domain.RoleAdmin, IsActive: true, CreatedAt: now.AddDate(-2, 0, 0)},
		{ID: "admin-2", ApplicationID: &appID, Role: domain.RoleAdmin, IsActive: true, CreatedAt: now.AddDate(-1, 0, 0)},
	}

	detector, violations, items := newDetectorFixture(
		[]domain.SlaConfig{wallClockConfig(4, 24, 48)},
		[]*domain.WorkItem{item}, admins, true)
	detector.now = func() time.Time { return now }

	report, err := detector.RunSweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, report.ViolationsCreated)
	assert.Equal(t, 3, report.Escalations)
	assert.Zero(t, report.Errors)

	// Each escalation bumps from the priority the previous one left behind:
	// MEDIUM -> HIGH -> CRITICAL -> CRITICAL (capped).
	require.Len(t, violations.records, 3)
	assert.Equal(t, domain.PriorityHigh, violations.records[0].NewPriority)
	assert.Equal(t, domain.PriorityCritical, violations.records[1].NewPriority)
	assert.Equal(t, domain.PriorityCritical, violations.records[2].NewPriority)
	assert.Equal(t, domain.PriorityCritical, items.items[item.ID].Priority)

	// The audit trail hands over from the previous escalation's target, not
	// from the item's original assignee.
	assert.Nil(t, violations.records[0].FromUserID)
	assert.Equal(t, "admin-1", violations.records[0].ToUserID)
	require.NotNil(t, violations.records[1].FromUserID)
	assert.Equal(t, "admin-1", *violations.records[1].FromUserID)
	assert.Equal(t, "admin-2", violations.records[1].ToUserID)
	require.NotNil(t, violations.records[2].FromUserID)
	assert.Equal(t, "admin-2", *violations.records[2].FromUserID)
	assert.Equal(t, "admin-1", violations.records[2].ToUserID)
}

func TestRunSweepSkipsAutoEscalationWithoutTarget(t *testing.T) {
	now := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	item := openItem("item-1", now.Add(-5*time.Hour))

	detector, violations, _ := newDetectorFixture(
		[]domain.SlaConfig{wallClockConfig(4, 100, 100)},
		[]*domain.WorkItem{item}, nil, true)
	detector.now = func() time.Time { return now }

	report, err := detector.RunSweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.ViolationsCreated)
	assert.Zero(t, report.Escalations)
	assert.Zero(t, report.Errors)

	for _, v := range violations.violations {
		assert.False(t, v.IsEscalated)
	}
}

func TestRunSweepIsolatesBadConfig(t *testing.T) {
	now := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	item := openItem("item-1", now.Add(-5*time.Hour))

	broken := wallClockConfig(4, 100, 100)
	broken.ID = "cfg-broken"
	broken.BusinessHoursOnly = true
	broken.BusinessStartHour = 18
	broken.BusinessEndHour = 9
	broken.BusinessDays = []int{1, 2, 3, 4, 5}

	detector, violations, _ := newDetectorFixture(
		[]domain.SlaConfig{broken, wallClockConfig(4, 100, 100)},
		[]*domain.WorkItem{item}, nil, false)
	detector.now = func() time.Time { return now }

	report, err := detector.RunSweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.ConfigsChecked)
	assert.Equal(t, 1, report.Errors)
	assert.Equal(t, 1, report.ViolationsCreated)
	assert.Len(t, violations.violations, 1)
}

func TestRunSweepMatchesConfigPriority(t *testing.T) {
	now := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	item := openItem("item-1", now.Add(-5*time.Hour))
	item.Priority = domain.PriorityCritical

	detector, violations, _ := newDetectorFixture(
		[]domain.SlaConfig{wallClockConfig(4, 100, 100)}, // MEDIUM config
		[]*domain.WorkItem{item}, nil, false)
	detector.now = func() time.Time { return now }

	report, err := detector.RunSweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.ItemsScanned)
	assert.Empty(t, violations.violations)
}
