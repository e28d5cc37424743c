package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/helpdesk-kit/tickets/internal/auth"
	"github.com/helpdesk-kit/tickets/internal/config"
	"github.com/helpdesk-kit/tickets/internal/domain"
	"github.com/helpdesk-kit/tickets/internal/events"
	"github.com/helpdesk-kit/tickets/internal/repository"
	"github.com/helpdesk-kit/tickets/internal/testutil"
)

type fixture struct {
	auth    *AuthService
	tickets *TicketService
	history *HistoryService
	users   repository.UserRepository
	ticketR repository.TicketRepository
	events  *eventLog
}

type eventLog struct {
	mu     sync.Mutex
	events []events.Event
}

func (l *eventLog) handle(_ context.Context, e events.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
	return nil
}

func (l *eventLog) types() []events.EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]events.EventType, 0, len(l.events))
	for _, e := range l.events {
		out = append(out, e.Type)
	}
	return out
}

func newFixture(t *testing.T, policy AssignmentPolicy, strict bool) *fixture {
	t.Helper()
	db := testutil.NewDatabase(t)
	users := repository.NewUserRepository(db.DB)
	tickets := repository.NewTicketRepository(db.DB)

	dispatcher := events.NewInMemoryDispatcher()
	log := &eventLog{}
	for _, et := range events.AllEventTypes {
		dispatcher.Subscribe(et, log.handle)
	}
	history := NewHistoryService(repository.NewTicketHistoryRepository(db.DB), zap.NewNop())
	history.RegisterHandlers(dispatcher)

	return &fixture{
		auth: NewAuthService(config.AuthConfig{SecretKey: "test-secret", BcryptCost: bcrypt.MinCost}, AuthDependencies{
			UserRepo:     users,
			TokenManager: auth.NewTokenManager("test-secret", 15),
			Logger:       zap.NewNop(),
		}),
		tickets: NewTicketService(config.TicketsConfig{StrictTransitions: strict}, TicketDependencies{
			DB:         db,
			TicketRepo: tickets,
			UserRepo:   users,
			Policy:     policy,
			Dispatcher: dispatcher,
			Logger:     zap.NewNop(),
		}),
		history: history,
		users:   users,
		ticketR: tickets,
		events:  log,
	}
}

func (f *fixture) register(t *testing.T, username, password string, role domain.Role) *domain.User {
	t.Helper()
	user, err := f.auth.Register(context.Background(), RegisterInput{Username: username, Password: password, Role: role})
	require.NoError(t, err)
	return user
}

func (f *fixture) principal(t *testing.T, username, password string) *domain.Principal {
	t.Helper()
	user, err := f.auth.Authenticate(context.Background(), username, password)
	require.NoError(t, err)
	return domain.NewPrincipal(user, domain.AuthMethodSession, "")
}
