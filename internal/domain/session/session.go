package session

import (
	"errors"
	"time"
)

// TTL is how long an issued token stays valid.
const TTL = 24 * time.Hour

// Session ties a token hash to an account. Only the SHA-256 hash of the
// token is stored; the plaintext is handed to the client once.
type Session struct {
	TokenHash string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

var (
	// ErrInvalidToken is returned when a token is unknown or expired.
	ErrInvalidToken = errors.New("invalid or expired token")
)
