package user

import "time"

// User is an account that owns synced habit data. ID is a UUID string and is
// used as the owner id on every synced record.
type User struct {
	ID           string
	Login        string
	PasswordHash string
	CreatedAt    time.Time
}
