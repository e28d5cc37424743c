package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/helpdesk-kit/tickets/internal/api/dto"
	"github.com/helpdesk-kit/tickets/internal/domain"
	"github.com/helpdesk-kit/tickets/internal/service"
	"github.com/helpdesk-kit/tickets/internal/session"
	"github.com/helpdesk-kit/tickets/internal/view"
	apperrors "github.com/helpdesk-kit/tickets/pkg/util"
)

type roleOption struct {
	Value string
	Label string
}

type registerForm struct {
	Username string
	Role     string
}

type loginForm struct {
	Username string
	Remember bool
}

// WebAuthHandler serves the register, login and logout pages.
type WebAuthHandler struct {
	auth     *service.AuthService
	sessions *session.Manager
	logger   *zap.Logger
}

// NewWebAuthHandler constructs handler.
func NewWebAuthHandler(authService *service.AuthService, sessions *session.Manager, logger *zap.Logger) *WebAuthHandler {
	return &WebAuthHandler{auth: authService, sessions: sessions, logger: logger}
}

// RegisterForm GET /register.
func (h *WebAuthHandler) RegisterForm(c *fiber.Ctx) error {
	return h.renderRegister(c, fiber.StatusOK, registerForm{Role: string(domain.RoleRegularUser)}, nil)
}

// Register POST /register.
func (h *WebAuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid form", nil)
	}
	form := registerForm{Username: req.Username, Role: req.Role}

	_, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		if errs := formErrors(err); errs != nil {
			return h.renderRegister(c, apperrors.ToDomainError(err).HTTPStatus, form, errs)
		}
		return err
	}

	view.AddFlash(c, view.FlashSuccess, "Registration successful. You can log in now.")
	return c.Redirect("/login")
}

// LoginForm GET /login.
func (h *WebAuthHandler) LoginForm(c *fiber.Ctx) error {
	return view.Render(c, fiber.StatusOK, "login.html", fiber.Map{"form": loginForm{Remember: true}})
}

// Login POST /login.
func (h *WebAuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid form", nil)
	}
	form := loginForm{Username: req.Username, Remember: req.Remember != ""}

	user, err := h.auth.Authenticate(c.UserContext(), req.Username, req.Password)
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeUnauthorized) {
			return view.Render(c, fiber.StatusUnauthorized, "login.html", fiber.Map{
				"form":  form,
				"error": "Invalid username or password.",
			})
		}
		return err
	}

	if _, err := h.sessions.Login(c, user, form.Remember); err != nil {
		return err
	}
	h.logger.Info("user logged in", zap.Int64("user_id", user.ID), zap.Bool("remember", form.Remember))
	view.AddFlash(c, view.FlashSuccess, "Logged in successfully.")
	return c.Redirect("/")
}

// Logout GET /logout.
func (h *WebAuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.sessions.Logout(c); err != nil {
		return err
	}
	view.AddFlash(c, view.FlashInfo, "You have been logged out.")
	return c.Redirect("/login")
}

func (h *WebAuthHandler) renderRegister(c *fiber.Ctx, status int, form registerForm, errs map[string]any) error {
	roles := make([]roleOption, 0, len(domain.Roles))
	for _, role := range domain.Roles {
		roles = append(roles, roleOption{Value: string(role), Label: role.Label()})
	}
	return view.Render(c, status, "register.html", fiber.Map{
		"form":   form,
		"roles":  roles,
		"errors": errs,
	})
}
