package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-kit/tickets/internal/domain"
	"github.com/helpdesk-kit/tickets/internal/repository"
	apperrors "github.com/helpdesk-kit/tickets/pkg/util"
)

const principalKey = "auth_principal"

// UserLookup resolves stored users by id.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// SessionResolver resolves the browser session attached to a request. It
// returns a nil principal when there is no valid session.
type SessionResolver interface {
	Current(c *fiber.Ctx) (*domain.Principal, error)
}

// DeniedHandler responds to a request refused by a guard.
type DeniedHandler func(c *fiber.Ctx, err error) error

// AuthMiddleware loads principals from bearer tokens or browser sessions.
type AuthMiddleware struct {
	tokens   *TokenManager
	users    UserLookup
	sessions SessionResolver
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, users UserLookup, sessions SessionResolver) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users, sessions: sessions}
}

// Bearer enforces bearer-token authentication for API routes.
func (m *AuthMiddleware) Bearer(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1], TokenKindAccess)
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}
	userID, err := claims.UserID()
	if err != nil {
		return apperrors.NewUnauthorized("invalid token subject")
	}

	user, err := m.users.GetByID(c.UserContext(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewUnauthorized("user not found")
		}
		return apperrors.MapError(err)
	}

	SetPrincipal(c, domain.NewPrincipal(user, domain.AuthMethodBearer, ""))
	return c.Next()
}

// Session attaches the browser-session principal when one exists. It never
// rejects a request; pair it with RequireSession on guarded routes.
func (m *AuthMiddleware) Session(c *fiber.Ctx) error {
	if m.sessions != nil {
		principal, err := m.sessions.Current(c)
		if err != nil {
			return err
		}
		if principal != nil {
			SetPrincipal(c, principal)
		}
	}
	return c.Next()
}

// RequireSession lets authenticated requests through and hands everything else
// to denied.
func RequireSession(denied DeniedHandler) fiber.Handler {
	return RequireRole(denied)
}

// RequireRole runs Authorize against the request principal.
func RequireRole(denied DeniedHandler, allowed ...domain.Role) fiber.Handler {
	if denied == nil {
		denied = func(_ *fiber.Ctx, err error) error { return err }
	}
	return func(c *fiber.Ctx) error {
		principal, _ := PrincipalFromContext(c)
		if err := Authorize(principal, allowed...); err != nil {
			return denied(c, err)
		}
		return c.Next()
	}
}

// SetPrincipal stores the authenticated entity on the request.
func SetPrincipal(c *fiber.Ctx, principal *domain.Principal) {
	c.Locals(principalKey, principal)
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*domain.Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*domain.Principal)
	return principal, ok && principal != nil
}
