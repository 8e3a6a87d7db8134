package ports

import (
	"context"
	"errors"
	"time"

	"github.com/hamrobooks/bookstore-api/internal/domains/users/domain"
)

// ErrSessionNotFound covers both unknown and expired tokens.
var ErrSessionNotFound = errors.New("session not found")

// Session binds an opaque token to an authenticated account.
type Session struct {
	Token     string
	UserID    int64
	Role      domain.Role
	ExpiresAt time.Time
}

// Expired reports whether the session is past its lifetime at the given instant.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// SessionStore abstracts session/token persistence.
type SessionStore interface {
	Save(ctx context.Context, session Session) error
	// Get resolves a token; expired sessions are reported as not found.
	Get(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
	// PurgeExpired removes dead sessions, returning how many were dropped.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}
