package repository

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/helpdesk-kit/tickets/internal/domain"
)

// TicketFilter narrows ticket listings.
type TicketFilter struct {
	AssignedUserID *int64
	Statuses       []domain.TicketStatus
	Limit          int
	Offset         int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	UpdateStatus(ctx context.Context, id int64, status domain.TicketStatus) error
	Delete(ctx context.Context, id int64) error
	WithTx(tx *sqlx.Tx) TicketRepository
}

type ticketRepository struct {
	db sqlx.ExtContext
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db sqlx.ExtContext) TicketRepository {
	return &ticketRepository{db: db}
}

func (r *ticketRepository) WithTx(tx *sqlx.Tx) TicketRepository {
	return &ticketRepository{db: tx}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, priority, status, created_at, assigned_user_id)
        VALUES (?,?,?,?,?,?)
        RETURNING id`
	return sqlx.GetContext(ctx, r.db, &ticket.ID, r.db.Rebind(query),
		ticket.Title,
		ticket.Description,
		ticket.Priority,
		ticket.Status,
		ticket.CreatedAt.UTC(),
		ticket.AssignedUserID,
	)
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	const query = `
        SELECT id, title, description, priority, status, created_at, assigned_user_id
        FROM tickets WHERE id=?`
	var ticket domain.Ticket
	if err := sqlx.GetContext(ctx, r.db, &ticket, r.db.Rebind(query), id); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT id, title, description, priority, status, created_at, assigned_user_id
             FROM tickets WHERE 1=1`)
	args := []any{}

	if filter.AssignedUserID != nil {
		sb.WriteString(" AND assigned_user_id=?")
		args = append(args, *filter.AssignedUserID)
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			placeholders[i] = "?"
			args = append(args, status)
		}
		sb.WriteString(" AND status IN (" + strings.Join(placeholders, ",") + ")")
	}

	// id breaks ties between tickets created within the same clock tick
	sb.WriteString(" ORDER BY created_at DESC, id DESC")

	if filter.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			sb.WriteString(" OFFSET ?")
			args = append(args, filter.Offset)
		}
	}

	tickets := []domain.Ticket{}
	if err := sqlx.SelectContext(ctx, r.db, &tickets, r.db.Rebind(sb.String()), args...); err != nil {
		return nil, err
	}
	return tickets, nil
}

func (r *ticketRepository) UpdateStatus(ctx context.Context, id int64, status domain.TicketStatus) error {
	const query = `UPDATE tickets SET status=? WHERE id=?`
	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), status, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the ticket. Deleting an id that does not exist succeeds.
func (r *ticketRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM tickets WHERE id=?`
	_, err := r.db.ExecContext(ctx, r.db.Rebind(query), id)
	return err
}
