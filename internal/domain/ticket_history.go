package domain

import "time"

// TicketChangeType captures what changed in a history entry.
type TicketChangeType string

const (
	ChangeTypeCreated  TicketChangeType = "CREATED"
	ChangeTypeAssignee TicketChangeType = "ASSIGNEE_CHANGE"
	ChangeTypeStatus   TicketChangeType = "STATUS_CHANGE"
	ChangeTypeDeleted  TicketChangeType = "DELETED"
)

// TicketHistory is an immutable audit trail entry. Entries outlive the ticket
// they describe, so TicketID is not a foreign key.
type TicketHistory struct {
	ID            int64
	TicketID      int64
	ChangedByID   *int64
	ChangedByName string
	ChangeType    TicketChangeType
	OldValue      map[string]any
	NewValue      map[string]any
	CreatedAt     time.Time
}
