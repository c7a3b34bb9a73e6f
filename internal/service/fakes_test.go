package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/sla-monitor/internal/domain"
	"github.com/spec-kit/sla-monitor/internal/repository"
	apperrors "github.com/spec-kit/sla-monitor/pkg/util/errorutil"
)

type fakeConfigRepo struct {
	configs []domain.SlaConfig
}

func (f *fakeConfigRepo) ListActive(_ context.Context) ([]domain.SlaConfig, error) {
	var active []domain.SlaConfig
	for _, cfg := range f.configs {
		if cfg.IsActive {
			active = append(active, cfg)
		}
	}
	return active, nil
}

func (f *fakeConfigRepo) GetByID(_ context.Context, id string) (*domain.SlaConfig, error) {
	for i := range f.configs {
		if f.configs[i].ID == id {
			return &f.configs[i], nil
		}
	}
	return nil, pgx.ErrNoRows
}

type fakeItemRepo struct {
	items map[string]*domain.WorkItem
}

func newFakeItemRepo(items ...*domain.WorkItem) *fakeItemRepo {
	repo := &fakeItemRepo{items: make(map[string]*domain.WorkItem)}
	for _, item := range items {
		repo.items[item.ID] = item
	}
	return repo
}

func (f *fakeItemRepo) GetByID(_ context.Context, id string) (*domain.WorkItem, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *item
	return &copied, nil
}

func (f *fakeItemRepo) ListOpenByApplication(_ context.Context, applicationID string) ([]domain.WorkItem, error) {
	var result []domain.WorkItem
	for _, item := range f.items {
		if item.ApplicationID == applicationID && item.Status == domain.WorkItemStatusOpen {
			result = append(result, *item)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (f *fakeItemRepo) Stats(_ context.Context, applicationID string, from, to time.Time) (*repository.ItemStats, error) {
	stats := &repository.ItemStats{}
	var responseSum, resolveSum float64
	var responseN, resolveN int
	for _, item := range f.items {
		if item.ApplicationID != applicationID || item.CreatedAt.Before(from) || item.CreatedAt.After(to) {
			continue
		}
		stats.TotalItems++
		if item.FirstRespondedAt != nil {
			responseSum += item.FirstRespondedAt.Sub(item.CreatedAt).Hours()
			responseN++
		}
		if item.ResolvedAt != nil {
			resolveSum += item.ResolvedAt.Sub(item.CreatedAt).Hours()
			resolveN++
		}
	}
	if responseN > 0 {
		avg := responseSum / float64(responseN)
		stats.AvgResponseHours = &avg
	}
	if resolveN > 0 {
		avg := resolveSum / float64(resolveN)
		stats.AvgResolutionHours = &avg
	}
	return stats, nil
}

func (f *fakeItemRepo) CountByPriority(_ context.Context, applicationID string, from, to time.Time) ([]repository.PriorityCount, error) {
	counts := make(map[domain.Priority]int)
	for _, item := range f.items {
		if item.ApplicationID != applicationID || item.CreatedAt.Before(from) || item.CreatedAt.After(to) {
			continue
		}
		counts[item.Priority]++
	}
	var result []repository.PriorityCount
	for priority, n := range counts {
		result = append(result, repository.PriorityCount{Priority: priority, Items: n})
	}
	return result, nil
}

type fakeViolationRepo struct {
	violations map[string]*domain.SlaViolation
	items      *fakeItemRepo
	records    []repository.EscalationParams
	nextID     int
}

func newFakeViolationRepo(items *fakeItemRepo) *fakeViolationRepo {
	return &fakeViolationRepo{
		violations: make(map[string]*domain.SlaViolation),
		items:      items,
	}
}

func (f *fakeViolationRepo) Create(_ context.Context, violation *domain.SlaViolation) (bool, error) {
	for _, existing := range f.violations {
		if existing.WorkItemID == violation.WorkItemID && existing.ViolationType == violation.ViolationType {
			return false, nil
		}
	}
	f.nextID++
	violation.ID = fmt.Sprintf("violation-%d", f.nextID)
	violation.CreatedAt = time.Now()
	violation.UpdatedAt = violation.CreatedAt
	copied := *violation
	f.violations[violation.ID] = &copied
	return true, nil
}

func (f *fakeViolationRepo) GetByID(_ context.Context, id string) (*domain.SlaViolation, error) {
	violation, ok := f.violations[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *violation
	return &copied, nil
}

func (f *fakeViolationRepo) Exists(_ context.Context, workItemID string, violationType domain.ViolationType) (bool, error) {
	for _, v := range f.violations {
		if v.WorkItemID == workItemID && v.ViolationType == violationType {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeViolationRepo) List(_ context.Context, filter repository.ViolationFilter) ([]domain.SlaViolation, error) {
	var result []domain.SlaViolation
	for _, v := range f.violations {
		if filter.Escalated != nil && v.IsEscalated != *filter.Escalated {
			continue
		}
		result = append(result, *v)
	}
	return result, nil
}

func (f *fakeViolationRepo) ListEscalatedByWorkItem(_ context.Context, workItemID string) ([]domain.SlaViolation, error) {
	var result []domain.SlaViolation
	for _, v := range f.violations {
		if v.WorkItemID == workItemID && v.IsEscalated {
			result = append(result, *v)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].EscalatedAt.After(*result[j].EscalatedAt)
	})
	return result, nil
}

func (f *fakeViolationRepo) Escalate(_ context.Context, params repository.EscalationParams) error {
	violation, ok := f.violations[params.ViolationID]
	if !ok {
		return apperrors.NewViolationNotFound(params.ViolationID)
	}
	if violation.IsEscalated {
		return apperrors.NewAlreadyEscalated(params.ViolationID)
	}
	now := time.Now()
	violation.IsEscalated = true
	violation.EscalatedToUserID = &params.ToUserID
	violation.EscalatedAt = &now
	if item, exists := f.items.items[params.WorkItemID]; exists {
		item.AssignedUserID = &params.ToUserID
		item.Priority = params.NewPriority
	}
	f.records = append(f.records, params)
	return nil
}

func (f *fakeViolationRepo) CountViolatedItems(_ context.Context, applicationID string, from, to time.Time) (int, error) {
	seen := make(map[string]bool)
	for _, v := range f.violations {
		item, ok := f.items.items[v.WorkItemID]
		if !ok || item.ApplicationID != applicationID || item.CreatedAt.Before(from) || item.CreatedAt.After(to) {
			continue
		}
		seen[v.WorkItemID] = true
	}
	return len(seen), nil
}

func (f *fakeViolationRepo) CountViolatedItemsByPriority(_ context.Context, applicationID string, from, to time.Time) ([]repository.PriorityCount, error) {
	seen := make(map[string]domain.Priority)
	for _, v := range f.violations {
		item, ok := f.items.items[v.WorkItemID]
		if !ok || item.ApplicationID != applicationID || item.CreatedAt.Before(from) || item.CreatedAt.After(to) {
			continue
		}
		seen[v.WorkItemID] = item.Priority
	}
	counts := make(map[domain.Priority]int)
	for _, priority := range seen {
		counts[priority]++
	}
	var result []repository.PriorityCount
	for priority, n := range counts {
		result = append(result, repository.PriorityCount{Priority: priority, Items: n})
	}
	return result, nil
}

type fakeUserRepo struct {
	users []domain.User
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	for i := range f.users {
		if f.users[i].ID == id {
			return &f.users[i], nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) ListActiveByRole(_ context.Context, applicationID *string, role domain.Role) ([]domain.User, error) {
	var result []domain.User
	for _, user := range f.users {
		if user.Role != role || !user.IsActive {
			continue
		}
		if applicationID == nil {
			if user.ApplicationID != nil {
				continue
			}
		} else if user.ApplicationID == nil || *user.ApplicationID != *applicationID {
			continue
		}
		result = append(result, user)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

type fakeQueue struct {
	requests []domain.NotificationRequest
	fail     bool
}

func (f *fakeQueue) Enqueue(_ context.Context, req domain.NotificationRequest) error {
	if f.fail {
		return apperrors.NewNotificationDispatchError(nil)
	}
	f.requests = append(f.requests, req)
	return nil
}

func strPtr(s string) *string {
	return &s
}
