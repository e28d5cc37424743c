package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-kit/tickets/internal/domain"
	"github.com/helpdesk-kit/tickets/internal/repository"
	"github.com/helpdesk-kit/tickets/internal/testutil"
)

func TestTicketHistoryRepositoryRoundTrip(t *testing.T) {
	db := testutil.NewDatabase(t)
	repo := repository.NewTicketHistoryRepository(db.DB)
	ctx := context.Background()

	actor := int64(7)
	base := time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, &domain.TicketHistory{
		TicketID:   42,
		ChangeType: domain.ChangeTypeCreated,
		NewValue:   map[string]any{"title": "Printer broken", "status": "Pending"},
		CreatedAt:  base,
	}))
	status := &domain.TicketHistory{
		TicketID:      42,
		ChangedByID:   &actor,
		ChangedByName: "acme",
		ChangeType:    domain.ChangeTypeStatus,
		OldValue:      map[string]any{"status": "Pending"},
		NewValue:      map[string]any{"status": "Resolved"},
		CreatedAt:     base.Add(time.Minute),
	}
	require.NoError(t, repo.Create(ctx, status))
	assert.NotZero(t, status.ID)
	require.NoError(t, repo.Create(ctx, &domain.TicketHistory{
		TicketID:   43,
		ChangeType: domain.ChangeTypeDeleted,
		CreatedAt:  base,
	}))

	entries, err := repo.ListByTicket(ctx, 42)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, domain.ChangeTypeCreated, entries[0].ChangeType)
	assert.Nil(t, entries[0].ChangedByID)
	assert.Nil(t, entries[0].OldValue)
	assert.Equal(t, "Printer broken", entries[0].NewValue["title"])

	assert.Equal(t, domain.ChangeTypeStatus, entries[1].ChangeType)
	require.NotNil(t, entries[1].ChangedByID)
	assert.Equal(t, actor, *entries[1].ChangedByID)
	assert.Equal(t, "acme", entries[1].ChangedByName)
	assert.Equal(t, "Pending", entries[1].OldValue["status"])
	assert.Equal(t, "Resolved", entries[1].NewValue["status"])
	assert.True(t, entries[1].CreatedAt.Equal(base.Add(time.Minute)))

	none, err := repo.ListByTicket(ctx, 99)
	require.NoError(t, err)
	assert.Empty(t, none)
}
