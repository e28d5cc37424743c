package auth

import (
	"github.com/helpdesk-kit/tickets/internal/domain"
	apperrors "github.com/helpdesk-kit/tickets/pkg/util"
)

// Authorize is the single role check applied before every guarded action.
// A nil principal is unauthenticated; a principal without one of the allowed
// roles is forbidden. With no roles given any authenticated principal passes.
func Authorize(principal *domain.Principal, allowed ...domain.Role) error {
	if principal == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if len(allowed) == 0 || principal.HasRole(allowed...) {
		return nil
	}
	return apperrors.NewForbidden(deniedMessage(allowed))
}

func deniedMessage(allowed []domain.Role) string {
	if len(allowed) == 1 {
		switch allowed[0] {
		case domain.RoleCompany:
			return "You do not have permission to perform this action."
		case domain.RoleRegularUser:
			return "Only available to regular users."
		}
	}
	return "You do not have permission to perform this action."
}
