package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-kit/tickets/internal/domain"
	"github.com/helpdesk-kit/tickets/internal/repository"
	apperrors "github.com/helpdesk-kit/tickets/pkg/util"
)

type stubUsers map[int64]*domain.User

func (s stubUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	if user, ok := s[id]; ok {
		return user, nil
	}
	return nil, repository.ErrNotFound
}

func newTestApp(m *AuthMiddleware, guards ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(apperrors.ToDomainError(err).HTTPStatus).SendString(err.Error())
		},
	})
	handlers := append([]fiber.Handler{m.Bearer}, guards...)
	handlers = append(handlers, func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return errors.New("principal missing")
		}
		return c.SendString(principal.Username)
	})
	app.Get("/whoami", handlers...)
	return app
}

func TestBearerMiddleware(t *testing.T) {
	tm := NewTokenManager("test-secret", 15)
	users := stubUsers{42: bob}
	app := newTestApp(NewAuthMiddleware(tm, users, nil))

	token, _, err := tm.GenerateAccessToken(bob)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	for name, header := range map[string]string{
		"missing":   "",
		"malformed": "Token " + token,
		"garbage":   "Bearer garbage",
	} {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, name)
	}
}

func TestBearerMiddlewareFailsClosedForDeletedUser(t *testing.T) {
	tm := NewTokenManager("test-secret", 15)
	app := newTestApp(NewAuthMiddleware(tm, stubUsers{}, nil))

	token, _, err := tm.GenerateAccessToken(bob)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRequireRoleUsesDeniedHandler(t *testing.T) {
	tm := NewTokenManager("test-secret", 15)
	alice := &domain.User{ID: 7, Username: "alice", Role: domain.RoleRegularUser}
	denied := func(c *fiber.Ctx, err error) error {
		return c.Redirect("/", fiber.StatusFound)
	}
	app := newTestApp(NewAuthMiddleware(tm, stubUsers{7: alice}, nil), RequireRole(denied, domain.RoleCompany))

	token, _, err := tm.GenerateAccessToken(alice)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
}
