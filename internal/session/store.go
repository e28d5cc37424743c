// Package session binds browser clients to authenticated users.
//
// A login creates a Session in a Store and hands the client a signed cookie
// that references it. Every request resolves the cookie back to the stored
// session and then to the user row, failing closed at each step. Logging out
// deletes the stored session, which invalidates the cookie even before it
// expires.
package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a session does not exist or has expired.
var ErrNotFound = errors.New("session not found")

// Session is the server-side record of a login.
type Session struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	Remember  bool      `json:"remember"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Store persists sessions.
type Store interface {
	Create(ctx context.Context, sess *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}
