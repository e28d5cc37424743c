package dto

import (
	"time"

	"github.com/helpdesk-kit/tickets/internal/domain"
)

// CreateTicketRequest payload, from a form or JSON body.
type CreateTicketRequest struct {
	Title       string `json:"title" form:"title"`
	Description string `json:"description" form:"description"`
	Priority    string `json:"priority" form:"priority"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// LogUserRequest is the payload posted by the browser extension.
type LogUserRequest struct {
	Descripcion string `json:"descripcion"`
	Problema    string `json:"problema"`
}

// TicketResponse represents a ticket in API responses.
type TicketResponse struct {
	ID             int64                 `json:"id"`
	Title          string                `json:"title"`
	Description    string                `json:"description"`
	Priority       domain.TicketPriority `json:"priority"`
	Status         domain.TicketStatus   `json:"status"`
	CreatedAt      time.Time             `json:"created_at"`
	AssignedUserID *int64                `json:"assigned_user_id"`
}

// NewTicketResponse converts a stored ticket.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:             t.ID,
		Title:          t.Title,
		Description:    t.Description,
		Priority:       t.Priority,
		Status:         t.Status,
		CreatedAt:      t.CreatedAt,
		AssignedUserID: t.AssignedUserID,
	}
}

// NewTicketResponses converts a ticket listing.
func NewTicketResponses(tickets []domain.Ticket) []TicketResponse {
	items := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, NewTicketResponse(&tickets[i]))
	}
	return items
}

// TicketHistoryResponse is one audit trail entry.
type TicketHistoryResponse struct {
	ID            int64          `json:"id"`
	TicketID      int64          `json:"ticket_id"`
	ChangeType    string         `json:"change_type"`
	ChangedByID   *int64         `json:"changed_by_id"`
	ChangedByName string         `json:"changed_by_name"`
	OldValue      map[string]any `json:"old_value,omitempty"`
	NewValue      map[string]any `json:"new_value,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// NewTicketHistoryResponses maps audit entries.
func NewTicketHistoryResponses(entries []domain.TicketHistory) []TicketHistoryResponse {
	out := make([]TicketHistoryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, TicketHistoryResponse{
			ID:            e.ID,
			TicketID:      e.TicketID,
			ChangeType:    string(e.ChangeType),
			ChangedByID:   e.ChangedByID,
			ChangedByName: e.ChangedByName,
			OldValue:      e.OldValue,
			NewValue:      e.NewValue,
			CreatedAt:     e.CreatedAt,
		})
	}
	return out
}
