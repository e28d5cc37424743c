package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-kit/tickets/internal/domain"
	"github.com/helpdesk-kit/tickets/internal/events"
	apperrors "github.com/helpdesk-kit/tickets/pkg/util"
)

func printerTicket() TicketCreateInput {
	return TicketCreateInput{Title: "Printer broken", Description: "Won't turn on", Priority: domain.TicketPriorityHigh}
}

func TestScenarioCreateAndListForAssignee(t *testing.T) {
	f := newFixture(t, RandomRegularUserPolicy{}, false)
	ctx := context.Background()

	alice := f.register(t, "alice", "secret1", domain.RoleRegularUser)
	f.register(t, "bob1", "secret2", domain.RoleCompany)

	bob := f.principal(t, "bob1", "secret2")
	created, err := f.tickets.Create(ctx, bob, printerTicket())
	require.NoError(t, err)

	all, err := f.tickets.ListAll(ctx, bob)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, created.ID, all[0].ID)
	assert.Equal(t, domain.TicketStatusPending, all[0].Status)
	assert.Equal(t, domain.TicketPriorityHigh, all[0].Priority)
	require.NotNil(t, all[0].AssignedUserID)
	assert.Equal(t, alice.ID, *all[0].AssignedUserID)

	alicePrincipal := f.principal(t, "alice", "secret1")
	mine, err := f.tickets.ListAssigned(ctx, alicePrincipal)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, created.ID, mine[0].ID)

	assert.Equal(t, []events.EventType{events.EventTicketCreated, events.EventTicketAssigned}, f.events.types())
}

func TestScenarioStatusChangesWithoutTransitionGuard(t *testing.T) {
	f := newFixture(t, nil, false)
	ctx := context.Background()
	f.register(t, "alice", "secret1", domain.RoleRegularUser)
	f.register(t, "bob1", "secret2", domain.RoleCompany)
	bob := f.principal(t, "bob1", "secret2")

	ticket, err := f.tickets.Create(ctx, bob, printerTicket())
	require.NoError(t, err)

	updated, err := f.tickets.AdvanceToInProgress(ctx, bob, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, updated.Status)

	updated, err = f.tickets.MarkResolved(ctx, bob, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusResolved, updated.Status)

	// loose mode allows moving back and skipping states
	_, err = f.tickets.AdvanceToInProgress(ctx, bob, ticket.ID)
	require.NoError(t, err)
	other, err := f.tickets.Create(ctx, bob, printerTicket())
	require.NoError(t, err)
	resolved, err := f.tickets.MarkResolved(ctx, bob, other.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusResolved, resolved.Status)

	stored, err := f.ticketR.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, stored.Status)
}

func TestStrictTransitions(t *testing.T) {
	f := newFixture(t, nil, true)
	ctx := context.Background()
	f.register(t, "bob1", "secret2", domain.RoleCompany)
	bob := f.principal(t, "bob1", "secret2")

	ticket, err := f.tickets.Create(ctx, bob, printerTicket())
	require.NoError(t, err)

	_, err = f.tickets.MarkResolved(ctx, bob, ticket.ID)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidTransition))

	stored, err := f.ticketR.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusPending, stored.Status)

	_, err = f.tickets.AdvanceToInProgress(ctx, bob, ticket.ID)
	require.NoError(t, err)
	_, err = f.tickets.AdvanceToInProgress(ctx, bob, ticket.ID)
	require.NoError(t, err, "repeating the current status is a no-op")
	_, err = f.tickets.MarkResolved(ctx, bob, ticket.ID)
	require.NoError(t, err)

	_, err = f.tickets.AdvanceToInProgress(ctx, bob, ticket.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidTransition))
}

func TestCreateRequiresCompany(t *testing.T) {
	f := newFixture(t, nil, false)
	ctx := context.Background()
	f.register(t, "alice", "secret1", domain.RoleRegularUser)
	alice := f.principal(t, "alice", "secret1")

	_, err := f.tickets.Create(ctx, alice, printerTicket())
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	_, err = f.tickets.Create(ctx, nil, printerTicket())
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))

	all, err := f.tickets.ListAll(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Empty(t, f.events.types())
}

func TestMutationsRequireCompany(t *testing.T) {
	f := newFixture(t, nil, false)
	ctx := context.Background()
	f.register(t, "alice", "secret1", domain.RoleRegularUser)
	f.register(t, "bob1", "secret2", domain.RoleCompany)
	alice := f.principal(t, "alice", "secret1")
	bob := f.principal(t, "bob1", "secret2")

	ticket, err := f.tickets.Create(ctx, bob, printerTicket())
	require.NoError(t, err)

	_, err = f.tickets.AdvanceToInProgress(ctx, alice, ticket.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
	_, err = f.tickets.MarkResolved(ctx, alice, ticket.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
	assert.True(t, apperrors.HasCode(f.tickets.Delete(ctx, alice, ticket.ID), apperrors.CodeForbidden))

	stored, err := f.ticketR.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusPending, stored.Status)

	_, err = f.tickets.ListAssigned(ctx, bob)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
	_, err = f.tickets.ListAll(ctx, nil)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
}

func TestCreateAssignsARegularUser(t *testing.T) {
	f := newFixture(t, RandomRegularUserPolicy{}, false)
	ctx := context.Background()

	regular := map[int64]bool{}
	for _, name := range []string{"alice", "carol", "dave1"} {
		regular[f.register(t, name, "secret1", domain.RoleRegularUser).ID] = true
	}
	f.register(t, "bob1", "secret2", domain.RoleCompany)
	f.register(t, "acme", "secret2", domain.RoleCompany)
	bob := f.principal(t, "bob1", "secret2")

	for i := 0; i < 20; i++ {
		ticket, err := f.tickets.Create(ctx, bob, printerTicket())
		require.NoError(t, err)
		require.NotNil(t, ticket.AssignedUserID)
		assert.True(t, regular[*ticket.AssignedUserID], "assignee %d is not a regular user", *ticket.AssignedUserID)
	}
}

func TestFirstPolicyPicksEarliestRegularUser(t *testing.T) {
	f := newFixture(t, FirstRegularUserPolicy{}, false)
	ctx := context.Background()

	f.register(t, "bob1", "secret2", domain.RoleCompany)
	first := f.register(t, "alice", "secret1", domain.RoleRegularUser)
	f.register(t, "carol", "secret1", domain.RoleRegularUser)
	bob := f.principal(t, "bob1", "secret2")

	for i := 0; i < 3; i++ {
		ticket, err := f.tickets.Create(ctx, bob, printerTicket())
		require.NoError(t, err)
		require.NotNil(t, ticket.AssignedUserID)
		assert.Equal(t, first.ID, *ticket.AssignedUserID)
	}
}

func TestCreateWithoutRegularUsersLeavesTicketUnassigned(t *testing.T) {
	f := newFixture(t, nil, false)
	ctx := context.Background()
	f.register(t, "bob1", "secret2", domain.RoleCompany)
	bob := f.principal(t, "bob1", "secret2")

	ticket, err := f.tickets.Create(ctx, bob, printerTicket())
	require.NoError(t, err)
	assert.Nil(t, ticket.AssignedUserID)
	assert.Equal(t, []events.EventType{events.EventTicketCreated}, f.events.types())
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t, nil, false)
	ctx := context.Background()
	f.register(t, "bob1", "secret2", domain.RoleCompany)
	bob := f.principal(t, "bob1", "secret2")

	cases := map[string]struct {
		input TicketCreateInput
		field string
	}{
		"short title":       {TicketCreateInput{Title: "ab", Description: "Won't turn on"}, "title"},
		"blank title":       {TicketCreateInput{Title: "     ", Description: "Won't turn on"}, "title"},
		"short description": {TicketCreateInput{Title: "Printer", Description: "abcd"}, "description"},
		"unknown priority":  {TicketCreateInput{Title: "Printer", Description: "Won't turn on", Priority: "Urgent"}, "priority"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.tickets.Create(ctx, bob, tc.input)
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))
			assert.Contains(t, apperrors.ToDomainError(err).Details, tc.field)
		})
	}

	all, err := f.tickets.ListAll(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreateDefaultsPriorityAndTrims(t *testing.T) {
	f := newFixture(t, nil, false)
	ctx := context.Background()
	f.register(t, "bob1", "secret2", domain.RoleCompany)
	bob := f.principal(t, "bob1", "secret2")

	ticket, err := f.tickets.Create(ctx, bob, TicketCreateInput{Title: "  VPN down ", Description: " cannot connect  "})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketPriorityMedium, ticket.Priority)
	assert.Equal(t, "VPN down", ticket.Title)
	assert.Equal(t, "cannot connect", ticket.Description)
}

func TestDeleteIsIdempotent(t *testing.T) {
	f := newFixture(t, nil, false)
	ctx := context.Background()
	f.register(t, "bob1", "secret2", domain.RoleCompany)
	bob := f.principal(t, "bob1", "secret2")

	keep, err := f.tickets.Create(ctx, bob, printerTicket())
	require.NoError(t, err)
	gone, err := f.tickets.Create(ctx, bob, printerTicket())
	require.NoError(t, err)

	require.NoError(t, f.tickets.Delete(ctx, bob, gone.ID))
	all, err := f.tickets.ListAll(ctx, bob)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, keep.ID, all[0].ID)

	require.NoError(t, f.tickets.Delete(ctx, bob, gone.ID))
	all, err = f.tickets.ListAll(ctx, bob)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	deletes := 0
	for _, et := range f.events.types() {
		if et == events.EventTicketDeleted {
			deletes++
		}
	}
	assert.Equal(t, 1, deletes)
}

func TestSetStatusOnMissingTicket(t *testing.T) {
	f := newFixture(t, nil, false)
	ctx := context.Background()
	f.register(t, "bob1", "secret2", domain.RoleCompany)
	bob := f.principal(t, "bob1", "secret2")

	_, err := f.tickets.AdvanceToInProgress(ctx, bob, 999)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	_, err = f.tickets.SetStatus(ctx, bob, 999, "Closed")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))
}

func TestListingsAreNewestFirst(t *testing.T) {
	f := newFixture(t, FirstRegularUserPolicy{}, false)
	ctx := context.Background()
	f.register(t, "alice", "secret1", domain.RoleRegularUser)
	f.register(t, "bob1", "secret2", domain.RoleCompany)
	bob := f.principal(t, "bob1", "secret2")
	alice := f.principal(t, "alice", "secret1")

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	offsets := []time.Duration{2 * time.Hour, 0, time.Hour, time.Hour, 3 * time.Hour}
	for _, off := range offsets {
		at := base.Add(off)
		f.tickets.now = func() time.Time { return at }
		_, err := f.tickets.Create(ctx, bob, printerTicket())
		require.NoError(t, err)
	}

	all, err := f.tickets.ListAll(ctx, bob)
	require.NoError(t, err)
	mine, err := f.tickets.ListAssigned(ctx, alice)
	require.NoError(t, err)

	for _, list := range [][]domain.Ticket{all, mine} {
		require.Len(t, list, len(offsets))
		for i := 1; i < len(list); i++ {
			assert.False(t, list[i].CreatedAt.After(list[i-1].CreatedAt),
				"ticket %d created after its predecessor", list[i].ID)
		}
	}
}

func TestNewAssignmentPolicy(t *testing.T) {
	p, err := NewAssignmentPolicy("random")
	require.NoError(t, err)
	assert.Equal(t, "random", p.Name())

	p, err = NewAssignmentPolicy("first")
	require.NoError(t, err)
	assert.IsType(t, FirstRegularUserPolicy{}, p)

	_, err = NewAssignmentPolicy("round-robin")
	assert.Error(t, err)
}
