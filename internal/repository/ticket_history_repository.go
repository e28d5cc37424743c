package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/helpdesk-kit/tickets/internal/domain"
)

// TicketHistoryRepository stores audit entries.
type TicketHistoryRepository interface {
	Create(ctx context.Context, history *domain.TicketHistory) error
	ListByTicket(ctx context.Context, ticketID int64) ([]domain.TicketHistory, error)
}

type ticketHistoryRepository struct {
	db sqlx.ExtContext
}

// NewTicketHistoryRepository builds repository.
func NewTicketHistoryRepository(db sqlx.ExtContext) TicketHistoryRepository {
	return &ticketHistoryRepository{db: db}
}

type ticketHistoryRow struct {
	ID            int64                   `db:"id"`
	TicketID      int64                   `db:"ticket_id"`
	ChangedByID   *int64                  `db:"changed_by_id"`
	ChangedByName string                  `db:"changed_by_name"`
	ChangeType    domain.TicketChangeType `db:"change_type"`
	OldValue      sql.NullString          `db:"old_value"`
	NewValue      sql.NullString          `db:"new_value"`
	CreatedAt     time.Time               `db:"created_at"`
}

func (r *ticketHistoryRepository) Create(ctx context.Context, history *domain.TicketHistory) error {
	oldValue, err := encodeValue(history.OldValue)
	if err != nil {
		return err
	}
	newValue, err := encodeValue(history.NewValue)
	if err != nil {
		return err
	}
	if history.CreatedAt.IsZero() {
		history.CreatedAt = time.Now()
	}

	const query = `
        INSERT INTO ticket_history (ticket_id, changed_by_id, changed_by_name, change_type, old_value, new_value, created_at)
        VALUES (?,?,?,?,?,?,?)
        RETURNING id`
	return sqlx.GetContext(ctx, r.db, &history.ID, r.db.Rebind(query),
		history.TicketID,
		history.ChangedByID,
		history.ChangedByName,
		history.ChangeType,
		oldValue,
		newValue,
		history.CreatedAt.UTC(),
	)
}

func (r *ticketHistoryRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.TicketHistory, error) {
	const query = `
        SELECT id, ticket_id, changed_by_id, changed_by_name, change_type, old_value, new_value, created_at
        FROM ticket_history WHERE ticket_id=? ORDER BY created_at ASC, id ASC`
	var rows []ticketHistoryRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, r.db.Rebind(query), ticketID); err != nil {
		return nil, err
	}

	result := make([]domain.TicketHistory, 0, len(rows))
	for _, row := range rows {
		history := domain.TicketHistory{
			ID:            row.ID,
			TicketID:      row.TicketID,
			ChangedByID:   row.ChangedByID,
			ChangedByName: row.ChangedByName,
			ChangeType:    row.ChangeType,
			CreatedAt:     row.CreatedAt,
		}
		var err error
		if history.OldValue, err = decodeValue(row.OldValue); err != nil {
			return nil, fmt.Errorf("history %d old_value: %w", row.ID, err)
		}
		if history.NewValue, err = decodeValue(row.NewValue); err != nil {
			return nil, fmt.Errorf("history %d new_value: %w", row.ID, err)
		}
		result = append(result, history)
	}
	return result, nil
}

func encodeValue(value map[string]any) (sql.NullString, error) {
	if len(value) == 0 {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

func decodeValue(raw sql.NullString) (map[string]any, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var value map[string]any
	if err := json.Unmarshal([]byte(raw.String), &value); err != nil {
		return nil, err
	}
	return value, nil
}
