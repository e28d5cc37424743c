package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/helpdesk-kit/tickets/internal/auth"
	"github.com/helpdesk-kit/tickets/internal/config"
	"github.com/helpdesk-kit/tickets/internal/domain"
	"github.com/helpdesk-kit/tickets/internal/events"
	"github.com/helpdesk-kit/tickets/internal/persistence"
	"github.com/helpdesk-kit/tickets/internal/repository"
	apperrors "github.com/helpdesk-kit/tickets/pkg/util"
)

// allowedTransitions is the lifecycle enforced in strict mode.
var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusPending:    {domain.TicketStatusInProgress},
	domain.TicketStatusInProgress: {domain.TicketStatusResolved},
}

// TicketService coordinates ticket workflows.
type TicketService struct {
	db         *persistence.Database
	tickets    repository.TicketRepository
	users      repository.UserRepository
	policy     AssignmentPolicy
	dispatcher events.Dispatcher
	strict     bool
	logger     *zap.Logger
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	DB         *persistence.Database
	TicketRepo repository.TicketRepository
	UserRepo   repository.UserRepository
	Policy     AssignmentPolicy
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string                `json:"title" form:"title" validate:"required,min=3"`
	Description string                `json:"description" form:"description" validate:"required,min=5"`
	Priority    domain.TicketPriority `json:"priority" form:"priority" validate:"required,oneof=High Medium Low"`
}

// NewTicketService constructs the service.
func NewTicketService(cfg config.TicketsConfig, deps TicketDependencies) *TicketService {
	policy := deps.Policy
	if policy == nil {
		policy = RandomRegularUserPolicy{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		db:         deps.DB,
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		policy:     policy,
		dispatcher: deps.Dispatcher,
		strict:     cfg.StrictTransitions,
		logger:     logger,
		now:        time.Now,
	}
}

// Create validates input and stores a new Pending ticket assigned by the
// configured policy. Picking the assignee and inserting the row share one
// transaction.
func (s *TicketService) Create(ctx context.Context, principal *domain.Principal, input TicketCreateInput) (*domain.Ticket, error) {
	if err := auth.Authorize(principal, domain.RoleCompany); err != nil {
		return nil, err
	}

	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	if input.Priority == "" {
		input.Priority = domain.TicketPriorityMedium
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	ticket := &domain.Ticket{
		Title:       input.Title,
		Description: input.Description,
		Priority:    input.Priority,
		Status:      domain.TicketStatusPending,
		CreatedAt:   s.now(),
	}

	err := s.db.WithinTx(ctx, func(tx *sqlx.Tx) error {
		assignee, err := s.policy.SelectAssignee(ctx, s.users.WithTx(tx))
		if err != nil {
			return err
		}
		ticket.AssignedUserID = assignee
		return s.tickets.WithTx(tx).Create(ctx, ticket)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	actor := events.ActorFromPrincipal(principal)
	s.publishEvent(ctx, events.NewEvent(events.EventTicketCreated, ticket.ID, actor, events.TicketCreatedPayload{
		Title:          ticket.Title,
		Priority:       ticket.Priority,
		Status:         ticket.Status,
		AssignedUserID: ticket.AssignedUserID,
	}))
	if ticket.AssignedUserID != nil {
		s.publishEvent(ctx, events.NewEvent(events.EventTicketAssigned, ticket.ID, actor, events.TicketAssignedPayload{
			AssignedUserID: *ticket.AssignedUserID,
			Policy:         s.policy.Name(),
		}))
	} else {
		s.logger.Warn("ticket created without assignee", zap.Int64("ticket_id", ticket.ID))
	}
	return ticket, nil
}

// ListAll returns every ticket, newest first, to any signed-in principal.
func (s *TicketService) ListAll(ctx context.Context, principal *domain.Principal) ([]domain.Ticket, error) {
	if err := auth.Authorize(principal); err != nil {
		return nil, err
	}
	tickets, err := s.tickets.List(ctx, repository.TicketFilter{})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// ListAssigned returns the tickets assigned to a regular user, newest first.
func (s *TicketService) ListAssigned(ctx context.Context, principal *domain.Principal) ([]domain.Ticket, error) {
	if err := auth.Authorize(principal, domain.RoleRegularUser); err != nil {
		return nil, err
	}
	userID := principal.UserID
	tickets, err := s.tickets.List(ctx, repository.TicketFilter{AssignedUserID: &userID})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// Get fetches a single ticket.
func (s *TicketService) Get(ctx context.Context, principal *domain.Principal, id int64) (*domain.Ticket, error) {
	if err := auth.Authorize(principal); err != nil {
		return nil, err
	}
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// AdvanceToInProgress sets the ticket to In-Progress.
func (s *TicketService) AdvanceToInProgress(ctx context.Context, principal *domain.Principal, id int64) (*domain.Ticket, error) {
	return s.SetStatus(ctx, principal, id, domain.TicketStatusInProgress)
}

// MarkResolved sets the ticket to Resolved.
func (s *TicketService) MarkResolved(ctx context.Context, principal *domain.Principal, id int64) (*domain.Ticket, error) {
	return s.SetStatus(ctx, principal, id, domain.TicketStatusResolved)
}

// SetStatus overwrites the ticket status. In strict mode only the
// Pending -> In-Progress -> Resolved edges are accepted; setting the current
// status again is always a no-op.
func (s *TicketService) SetStatus(ctx context.Context, principal *domain.Principal, id int64, status domain.TicketStatus) (*domain.Ticket, error) {
	if err := auth.Authorize(principal, domain.RoleCompany); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, apperrors.NewValidationError("validation failed",
			map[string]any{"status": "Status must be one of: Pending, In-Progress, Resolved."})
	}

	var (
		ticket    *domain.Ticket
		oldStatus domain.TicketStatus
	)
	err := s.db.WithinTx(ctx, func(tx *sqlx.Tx) error {
		repo := s.tickets.WithTx(tx)
		current, err := repo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
			}
			return err
		}
		oldStatus = current.Status
		if current.Status == status {
			ticket = current
			return nil
		}
		if s.strict && !canTransition(current.Status, status) {
			return apperrors.NewConflict(apperrors.CodeInvalidTransition,
				"ticket cannot move from "+string(current.Status)+" to "+string(status),
				map[string]any{"from": current.Status, "to": status})
		}
		if err := repo.UpdateStatus(ctx, id, status); err != nil {
			return err
		}
		current.Status = status
		ticket = current
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	if oldStatus != status {
		s.publishEvent(ctx, events.NewEvent(events.EventTicketStatusChanged, id, events.ActorFromPrincipal(principal),
			events.TicketStatusChangedPayload{OldStatus: oldStatus, NewStatus: status}))
	}
	return ticket, nil
}

// Delete removes a ticket. Deleting a ticket that no longer exists succeeds.
func (s *TicketService) Delete(ctx context.Context, principal *domain.Principal, id int64) error {
	if err := auth.Authorize(principal, domain.RoleCompany); err != nil {
		return err
	}

	var deleted *domain.Ticket
	err := s.db.WithinTx(ctx, func(tx *sqlx.Tx) error {
		repo := s.tickets.WithTx(tx)
		existing, err := repo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil
			}
			return err
		}
		deleted = existing
		return repo.Delete(ctx, id)
	})
	if err != nil {
		return apperrors.MapError(err)
	}

	if deleted != nil {
		s.publishEvent(ctx, events.NewEvent(events.EventTicketDeleted, id, events.ActorFromPrincipal(principal),
			events.TicketDeletedPayload{Title: deleted.Title, Status: deleted.Status}))
	}
	return nil
}

func canTransition(from, to domain.TicketStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handlers failed",
			zap.String("event_type", string(event.Type)),
			zap.Int64("ticket_id", event.TicketID),
			zap.Error(err))
	}
}
