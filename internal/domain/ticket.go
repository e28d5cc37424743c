package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusPending    TicketStatus = "Pending"
	TicketStatusInProgress TicketStatus = "In-Progress"
	TicketStatusResolved   TicketStatus = "Resolved"
)

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusPending, TicketStatusInProgress, TicketStatusResolved:
		return true
	}
	return false
}

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityHigh   TicketPriority = "High"
	TicketPriorityMedium TicketPriority = "Medium"
	TicketPriorityLow    TicketPriority = "Low"
)

// TicketPriorities lists priorities in display order.
var TicketPriorities = []TicketPriority{TicketPriorityHigh, TicketPriorityMedium, TicketPriorityLow}

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityHigh, TicketPriorityMedium, TicketPriorityLow:
		return true
	}
	return false
}

// Ticket is a unit of work created by a company and assigned to a regular user.
// AssignedUserID is a weak reference: the user row may no longer exist.
type Ticket struct {
	ID             int64          `db:"id"`
	Title          string         `db:"title"`
	Description    string         `db:"description"`
	Priority       TicketPriority `db:"priority"`
	Status         TicketStatus   `db:"status"`
	CreatedAt      time.Time      `db:"created_at"`
	AssignedUserID *int64         `db:"assigned_user_id"`
}

// IsAssigned reports whether the ticket has an assignee.
func (t *Ticket) IsAssigned() bool {
	return t.AssignedUserID != nil
}
