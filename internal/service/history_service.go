package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/helpdesk-kit/tickets/internal/auth"
	"github.com/helpdesk-kit/tickets/internal/domain"
	"github.com/helpdesk-kit/tickets/internal/events"
	"github.com/helpdesk-kit/tickets/internal/repository"
	apperrors "github.com/helpdesk-kit/tickets/pkg/util"
)

// HistoryService keeps the ticket audit trail. Entries are written from
// dispatcher events, after the change that caused them has committed.
type HistoryService struct {
	repo   repository.TicketHistoryRepository
	logger *zap.Logger
}

// NewHistoryService builds the service.
func NewHistoryService(repo repository.TicketHistoryRepository, logger *zap.Logger) *HistoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryService{repo: repo, logger: logger}
}

// RegisterHandlers subscribes the recorder to every ticket event.
func (s *HistoryService) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	for _, eventType := range events.AllEventTypes {
		dispatcher.Subscribe(eventType, s.Record)
	}
}

// Record stores the history entry describing event.
func (s *HistoryService) Record(ctx context.Context, event events.Event) error {
	entry, ok := historyFromEvent(event)
	if !ok {
		s.logger.Debug("event has no history mapping", zap.String("event_type", string(event.Type)))
		return nil
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// ListForTicket returns the audit trail of a ticket, oldest first. It works
// for deleted tickets too.
func (s *HistoryService) ListForTicket(ctx context.Context, principal *domain.Principal, ticketID int64) ([]domain.TicketHistory, error) {
	if err := auth.Authorize(principal, domain.RoleCompany); err != nil {
		return nil, err
	}
	entries, err := s.repo.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if len(entries) == 0 {
		return nil, apperrors.NewNotFound("ticket history", map[string]any{"ticket_id": ticketID})
	}
	return entries, nil
}

func historyFromEvent(event events.Event) (*domain.TicketHistory, bool) {
	entry := &domain.TicketHistory{
		TicketID:      event.TicketID,
		ChangedByName: event.Actor.Username,
		CreatedAt:     event.Timestamp,
	}
	if event.Actor.UserID != 0 {
		id := event.Actor.UserID
		entry.ChangedByID = &id
	}

	switch payload := event.Payload.(type) {
	case events.TicketCreatedPayload:
		entry.ChangeType = domain.ChangeTypeCreated
		entry.NewValue = map[string]any{
			"title":    payload.Title,
			"priority": string(payload.Priority),
			"status":   string(payload.Status),
		}
		if payload.AssignedUserID != nil {
			entry.NewValue["assigned_user_id"] = *payload.AssignedUserID
		}
	case events.TicketAssignedPayload:
		entry.ChangeType = domain.ChangeTypeAssignee
		entry.NewValue = map[string]any{
			"assigned_user_id": payload.AssignedUserID,
			"policy":           payload.Policy,
		}
	case events.TicketStatusChangedPayload:
		entry.ChangeType = domain.ChangeTypeStatus
		entry.OldValue = map[string]any{"status": string(payload.OldStatus)}
		entry.NewValue = map[string]any{"status": string(payload.NewStatus)}
	case events.TicketDeletedPayload:
		entry.ChangeType = domain.ChangeTypeDeleted
		entry.OldValue = map[string]any{
			"title":  payload.Title,
			"status": string(payload.Status),
		}
	default:
		return nil, false
	}
	return entry, true
}
