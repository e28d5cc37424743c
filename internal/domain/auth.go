package domain

// AuthMethod records how a principal was authenticated.
type AuthMethod string

const (
	AuthMethodSession AuthMethod = "session"
	AuthMethodBearer  AuthMethod = "bearer"
)

// Principal is the authenticated identity associated with a request.
type Principal struct {
	UserID    int64
	Username  string
	Role      Role
	Method    AuthMethod
	SessionID string
}

// NewPrincipal builds a principal from a stored user.
func NewPrincipal(user *User, method AuthMethod, sessionID string) *Principal {
	return &Principal{
		UserID:    user.ID,
		Username:  user.Username,
		Role:      user.Role,
		Method:    method,
		SessionID: sessionID,
	}
}

// HasRole reports whether the principal holds one of the given roles.
func (p *Principal) HasRole(roles ...Role) bool {
	if p == nil {
		return false
	}
	for _, role := range roles {
		if p.Role == role {
			return true
		}
	}
	return false
}
