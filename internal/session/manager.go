package session

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/helpdesk-kit/tickets/internal/auth"
	"github.com/helpdesk-kit/tickets/internal/config"
	"github.com/helpdesk-kit/tickets/internal/domain"
	"github.com/helpdesk-kit/tickets/internal/repository"
)

// Manager logs clients in and out and resolves the current principal.
type Manager struct {
	store  Store
	tokens *auth.TokenManager
	users  auth.UserLookup
	cfg    config.SessionConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewManager builds a session manager.
func NewManager(store Store, tokens *auth.TokenManager, users auth.UserLookup, cfg config.SessionConfig, logger *zap.Logger) *Manager {
	if cfg.CookieName == "" {
		cfg.CookieName = "session"
	}
	return &Manager{
		store:  store,
		tokens: tokens,
		users:  users,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Login binds the client to user. With remember set the cookie outlives the
// browser session; otherwise it is dropped when the browser closes.
func (m *Manager) Login(c *fiber.Ctx, user *domain.User, remember bool) (*Session, error) {
	ttl := m.cfg.TTL()
	if remember {
		ttl = m.cfg.RememberTTL()
	}

	if old := m.cookieSessionID(c); old != "" {
		_ = m.store.Delete(c.UserContext(), old)
	}

	now := m.now()
	sess := &Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Remember:  remember,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := m.store.Create(c.UserContext(), sess); err != nil {
		return nil, err
	}

	token, expiresAt, err := m.tokens.GenerateSessionToken(user, sess.ID, ttl)
	if err != nil {
		_ = m.store.Delete(c.UserContext(), sess.ID)
		return nil, err
	}

	cookie := &fiber.Cookie{
		Name:     m.cfg.CookieName,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		Secure:   m.cfg.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
	if remember {
		cookie.Expires = expiresAt
	} else {
		cookie.SessionOnly = true
	}
	c.Cookie(cookie)

	m.logger.Debug("session created",
		zap.Int64("user_id", user.ID),
		zap.Bool("remember", remember))
	return sess, nil
}

// Logout unbinds the client.
func (m *Manager) Logout(c *fiber.Ctx) error {
	if id := m.cookieSessionID(c); id != "" {
		if err := m.store.Delete(c.UserContext(), id); err != nil {
			return err
		}
	}
	c.Cookie(&fiber.Cookie{
		Name:     m.cfg.CookieName,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		Secure:   m.cfg.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Unix(0, 0),
	})
	return nil
}

// Current resolves the session cookie to a principal. A missing, forged,
// expired or revoked session and a deleted user all yield a nil principal.
// Storage failures are returned.
func (m *Manager) Current(c *fiber.Ctx) (*domain.Principal, error) {
	raw := c.Cookies(m.cfg.CookieName)
	if raw == "" {
		return nil, nil
	}
	claims, err := m.tokens.ParseToken(raw, auth.TokenKindSession)
	if err != nil {
		return nil, nil
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, nil
	}

	sess, err := m.store.Get(c.UserContext(), claims.SessionID())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if sess.UserID != userID || sess.Expired(m.now()) {
		return nil, nil
	}

	user, err := m.users.GetByID(c.UserContext(), sess.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			m.logger.Info("session references missing user", zap.Int64("user_id", sess.UserID))
			_ = m.store.Delete(c.UserContext(), sess.ID)
			return nil, nil
		}
		return nil, err
	}
	return domain.NewPrincipal(user, domain.AuthMethodSession, sess.ID), nil
}

func (m *Manager) cookieSessionID(c *fiber.Ctx) string {
	raw := c.Cookies(m.cfg.CookieName)
	if raw == "" {
		return ""
	}
	claims, err := m.tokens.ParseToken(raw, auth.TokenKindSession)
	if err != nil {
		return ""
	}
	return claims.SessionID()
}

// NewStore builds the store named in cfg. client may be nil when the memory
// store is selected.
func NewStore(cfg config.SessionConfig, client *redis.Client) (Store, error) {
	switch cfg.Store {
	case config.SessionStoreRedis:
		if client == nil {
			return nil, errors.New("redis session store requires a redis client")
		}
		return NewRedisStore(client), nil
	case config.SessionStoreMemory, "":
		return NewMemoryStore(), nil
	default:
		return nil, errors.New("unknown session store " + cfg.Store)
	}
}
