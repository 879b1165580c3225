package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slog"
)

// Servicer handles account registration and authentication.
type Servicer interface {
	// Register creates a new account and returns it.
	Register(ctx context.Context, login, password string) (*User, error)

	// Authenticate checks credentials and returns the matching user.
	Authenticate(ctx context.Context, login, password string) (*User, error)
}

// Service implements Servicer over a Repository with bcrypt hashing.
type Service struct {
	repo Repository
	log  *slog.Logger
}

// NewService creates the user service.
func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Register creates a new account and returns it.
func (s *Service) Register(ctx context.Context, login, password string) (*User, error) {
	if len(login) < 3 || len(login) > 64 {
		return nil, ErrInvalidLogin
	}
	if len(password) < 8 {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := User{
		ID:           uuid.NewString(),
		Login:        login,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrLoginTaken) {
			return nil, ErrLoginTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info("user registered", "login", login)
	return &u, nil
}

// Authenticate checks credentials and returns the matching user.
func (s *Service) Authenticate(ctx context.Context, login, password string) (*User, error) {
	u, err := s.repo.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}
