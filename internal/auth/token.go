package auth

import (
	"errors"
	"strconv"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/helpdesk-kit/tickets/internal/domain"
)

// TokenKind separates browser-session cookies from API bearer tokens.
type TokenKind string

const (
	TokenKindSession TokenKind = "session"
	TokenKindAccess  TokenKind = "access"
)

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager builds a new manager. ttlMinutes is the default lifetime of
// access tokens.
func NewTokenManager(secret string, ttlMinutes int) *TokenManager {
	if ttlMinutes <= 0 {
		ttlMinutes = 60
	}
	return &TokenManager{secret: []byte(secret), ttl: time.Duration(ttlMinutes) * time.Minute}
}

// Claims describes JWT payload. Subject carries the user id and ID the
// session id for session tokens.
type Claims struct {
	Kind TokenKind   `json:"kind"`
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// UserID parses the numeric user id from the subject claim.
func (c *Claims) UserID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

// SessionID returns the session id bound to a session token.
func (c *Claims) SessionID() string {
	return c.ID
}

// GenerateAccessToken signs an API bearer token for the user.
func (tm *TokenManager) GenerateAccessToken(user *domain.User) (string, time.Time, error) {
	return tm.sign(TokenKindAccess, user, "", tm.ttl)
}

// GenerateSessionToken signs a cookie token referencing a stored session.
func (tm *TokenManager) GenerateSessionToken(user *domain.User, sessionID string, ttl time.Duration) (string, time.Time, error) {
	if sessionID == "" {
		return "", time.Time{}, errors.New("session id required")
	}
	return tm.sign(TokenKindSession, user, sessionID, ttl)
}

func (tm *TokenManager) sign(kind TokenKind, user *domain.User, sessionID string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := &Claims{
		Kind: kind,
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   strconv.FormatInt(user.ID, 10),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseToken validates signature, expiry and kind, and returns claims.
func (tm *TokenManager) ParseToken(tokenStr string, kind TokenKind) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.Kind != kind {
		return nil, errors.New("unexpected token kind")
	}
	return claims, nil
}
