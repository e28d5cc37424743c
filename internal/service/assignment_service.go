package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/helpdesk-kit/tickets/internal/config"
	"github.com/helpdesk-kit/tickets/internal/domain"
	"github.com/helpdesk-kit/tickets/internal/repository"
)

// AssignmentPolicy picks the regular user that receives a new ticket. It runs
// once, when the ticket is created, and returns nil when no regular user
// exists yet.
type AssignmentPolicy interface {
	Name() string
	SelectAssignee(ctx context.Context, users repository.UserRepository) (*int64, error)
}

// FirstRegularUserPolicy always picks the earliest-registered regular user.
type FirstRegularUserPolicy struct{}

func (FirstRegularUserPolicy) Name() string { return config.AssignmentFirst }

func (FirstRegularUserPolicy) SelectAssignee(ctx context.Context, users repository.UserRepository) (*int64, error) {
	return assigneeID(users.FirstByRole(ctx, domain.RoleRegularUser))
}

// RandomRegularUserPolicy picks a regular user uniformly at random.
type RandomRegularUserPolicy struct{}

func (RandomRegularUserPolicy) Name() string { return config.AssignmentRandom }

func (RandomRegularUserPolicy) SelectAssignee(ctx context.Context, users repository.UserRepository) (*int64, error) {
	return assigneeID(users.RandomByRole(ctx, domain.RoleRegularUser))
}

// NewAssignmentPolicy resolves a configured policy name.
func NewAssignmentPolicy(name string) (AssignmentPolicy, error) {
	switch name {
	case config.AssignmentRandom, "":
		return RandomRegularUserPolicy{}, nil
	case config.AssignmentFirst:
		return FirstRegularUserPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown assignment policy %q", name)
	}
}

func assigneeID(user *domain.User, err error) (*int64, error) {
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	id := user.ID
	return &id, nil
}
