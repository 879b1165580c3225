package session

import (
	"context"
	"time"
)

// Repository persists sessions.
type Repository interface {
	// Create stores a new session.
	Create(ctx context.Context, s Session) error

	// GetByTokenHash returns the session for a token hash, or ErrInvalidToken.
	GetByTokenHash(ctx context.Context, hash string) (*Session, error)

	// DeleteExpired removes sessions that expired before the given time.
	DeleteExpired(ctx context.Context, before time.Time) error
}
