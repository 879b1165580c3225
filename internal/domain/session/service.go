package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/exp/slog"
)

// Servicer issues and validates bearer tokens.
type Servicer interface {
	// Issue creates a session for the user and returns the plaintext token.
	Issue(ctx context.Context, userID string) (string, error)

	// Resolve maps a plaintext token to the owning user id.
	Resolve(ctx context.Context, token string) (string, error)
}

// Service implements Servicer with random 32-byte tokens stored hashed.
type Service struct {
	repo Repository
	log  *slog.Logger
}

// NewService creates the session service.
func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Issue creates a session for the user and returns the plaintext token.
func (s *Service) Issue(ctx context.Context, userID string) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	token := hex.EncodeToString(raw)

	now := time.Now().UTC()
	sess := Session{
		TokenHash: hashToken(token),
		UserID:    userID,
		ExpiresAt: now.Add(TTL),
		CreatedAt: now,
	}
	if err := s.repo.Create(ctx, sess); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}

	// Opportunistic cleanup keeps the table from growing unbounded.
	if err := s.repo.DeleteExpired(ctx, now); err != nil {
		s.log.Warn("failed to prune expired sessions", "error", err)
	}
	return token, nil
}

// Resolve maps a plaintext token to the owning user id.
func (s *Service) Resolve(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}

	sess, err := s.repo.GetByTokenHash(ctx, hashToken(token))
	if err != nil {
		return "", err
	}
	if time.Now().UTC().After(sess.ExpiresAt) {
		return "", ErrInvalidToken
	}
	return sess.UserID, nil
}
