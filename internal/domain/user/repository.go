package user

import "context"

// Repository persists user accounts.
type Repository interface {
	// Create stores a new user. Returns ErrLoginTaken when the login is
	// already registered.
	Create(ctx context.Context, u User) error

	// GetByLogin returns the user with the given login, or ErrNotFound.
	GetByLogin(ctx context.Context, login string) (*User, error)
}
