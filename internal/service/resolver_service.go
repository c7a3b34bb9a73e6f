package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/sla-monitor/internal/domain"
	"github.com/spec-kit/sla-monitor/internal/repository"
)

// ResolverService determines who an escalation should land on. The fallback
// chain is ordered; the first tier producing a user wins. Exhausting the
// chain is not an error here: ResolveTarget returns nil and callers decide
// whether that is fatal.
type ResolverService struct {
	users  repository.UserRepository
	logger *zap.Logger
}

// NewResolverService creates the service.
func NewResolverService(users repository.UserRepository, logger *zap.Logger) *ResolverService {
	return &ResolverService{users: users, logger: logger}
}

// ResolveTarget walks the fallback chain:
//  1. item has an assignee: an elevated user in the item's application,
//     excluding the assignee themselves
//  2. the most senior active admin of the item's application, again
//     excluding the assignee (an item held by the only admin never
//     escalates back to the same person)
//  3. the most senior active system-level admin
//  4. nothing: nil
//
// Seniority is earliest account creation; repositories return users in that
// order.
func (s *ResolverService) ResolveTarget(ctx context.Context, item *domain.WorkItem) (*domain.User, error) {
	if item.AssignedUserID != nil {
		elevated, err := s.users.ListActiveByRole(ctx, &item.ApplicationID, domain.RoleAdmin)
		if err != nil {
			return nil, err
		}
		for i := range elevated {
			if elevated[i].ID == *item.AssignedUserID {
				continue
			}
			if elevated[i].Role.Above(domain.RoleContributor) {
				return &elevated[i], nil
			}
		}
	}

	appAdmins, err := s.users.ListActiveByRole(ctx, &item.ApplicationID, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	for i := range appAdmins {
		if item.AssignedUserID != nil && appAdmins[i].ID == *item.AssignedUserID {
			continue
		}
		return &appAdmins[i], nil
	}

	sysAdmins, err := s.users.ListActiveByRole(ctx, nil, domain.RoleSystemAdmin)
	if err != nil {
		return nil, err
	}
	if len(sysAdmins) > 0 {
		return &sysAdmins[0], nil
	}

	s.logger.Warn("escalation target chain exhausted",
		zap.String("work_item_id", item.ID),
		zap.String("application_id", item.ApplicationID))
	return nil, nil
}
