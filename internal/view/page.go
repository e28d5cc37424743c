package view

import (
	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-kit/tickets/internal/auth"
	"github.com/helpdesk-kit/tickets/internal/domain"
)

// CSRFContextKey is where the csrf middleware stores the request token.
const CSRFContextKey = "csrf"

// CSRFFormField is the form field carrying the token.
const CSRFFormField = "_csrf"

// UserView is the signed-in user as seen by templates.
type UserView struct {
	ID        int64
	Username  string
	Role      string
	RoleLabel string
	IsCompany bool
}

// Render writes a full page. It adds the signed-in user, pending flash
// messages and the CSRF token to data.
func Render(c *fiber.Ctx, status int, name string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if principal, ok := auth.PrincipalFromContext(c); ok {
		data["current_user"] = NewUserView(principal)
	}
	data["flashes"] = ConsumeFlashes(c)
	data["csrf_field"] = CSRFFormField
	if token, ok := c.Locals(CSRFContextKey).(string); ok {
		data["csrf_token"] = token
	}
	data["path"] = c.Path()
	c.Status(status)
	return c.Render(name, data)
}

// NewUserView converts a principal for templates.
func NewUserView(p *domain.Principal) *UserView {
	if p == nil {
		return nil
	}
	return &UserView{
		ID:        p.UserID,
		Username:  p.Username,
		Role:      string(p.Role),
		RoleLabel: p.Role.Label(),
		IsCompany: p.Role == domain.RoleCompany,
	}
}
