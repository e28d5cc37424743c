package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-kit/tickets/internal/view"
	apperrors "github.com/helpdesk-kit/tickets/pkg/util"
)

// PageDenied answers a refused page request: unauthenticated clients are sent
// to the login page without a notice, everything else gets a flash message
// and a redirect to the ticket list.
func PageDenied(c *fiber.Ctx, err error) error {
	domainErr := apperrors.ToDomainError(err)
	switch domainErr.Code {
	case apperrors.CodeUnauthorized:
		return c.Redirect("/login")
	case apperrors.CodeInternal:
		return err
	}
	view.AddFlash(c, view.FlashDanger, pageMessage(domainErr))
	return c.Redirect("/")
}

func pageMessage(err *apperrors.DomainError) string {
	switch err.Code {
	case apperrors.CodeNotFound:
		return "That ticket no longer exists."
	case apperrors.CodeInvalidTransition:
		return "That status change is not allowed."
	default:
		return err.Message
	}
}

// formErrors returns the field messages carried by validation and conflict
// errors, or nil when err is of another kind.
func formErrors(err error) map[string]any {
	domainErr := apperrors.ToDomainError(err)
	switch domainErr.HTTPStatus {
	case fiber.StatusBadRequest, fiber.StatusConflict:
		if len(domainErr.Details) > 0 {
			return domainErr.Details
		}
		return map[string]any{"form": domainErr.Message}
	}
	return nil
}
