package user

import "errors"

var (
	// ErrLoginTaken is returned when registering with a login that exists.
	ErrLoginTaken = errors.New("login already taken")

	// ErrNotFound is returned when no user matches the lookup.
	ErrNotFound = errors.New("user not found")

	// ErrInvalidCredentials is returned when login or password is wrong.
	ErrInvalidCredentials = errors.New("invalid login or password")

	// ErrInvalidLogin is returned when the login fails validation.
	ErrInvalidLogin = errors.New("login must be 3-64 characters")

	// ErrWeakPassword is returned when the password fails validation.
	ErrWeakPassword = errors.New("password must be at least 8 characters")
)
