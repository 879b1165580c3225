package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"habitkeeper/internal/domain/session"
)

// SessionRepository persists bearer sessions in PostgreSQL.
type SessionRepository struct {
	db *Storage
}

func NewSessionRepository(db *Storage) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, s session.Session) error {
	_, err := r.db.Pool().Exec(ctx,
		`INSERT INTO sessions (token_hash, user_id, expires_at, created_at) VALUES ($1, $2, $3, $4)`,
		s.TokenHash, s.UserID, s.ExpiresAt, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *SessionRepository) GetByTokenHash(ctx context.Context, hash string) (*session.Session, error) {
	row := r.db.Pool().QueryRow(ctx,
		`SELECT token_hash, user_id, expires_at, created_at FROM sessions WHERE token_hash = $1`, hash)

	var s session.Session
	if err := row.Scan(&s.TokenHash, &s.UserID, &s.ExpiresAt, &s.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, session.ErrInvalidToken
		}
		return nil, fmt.Errorf("select session: %w", err)
	}
	return &s, nil
}

func (r *SessionRepository) DeleteExpired(ctx context.Context, before time.Time) error {
	_, err := r.db.Pool().Exec(ctx, `DELETE FROM sessions WHERE expires_at < $1`, before)
	if err != nil {
		return fmt.Errorf("delete expired sessions: %w", err)
	}
	return nil
}
