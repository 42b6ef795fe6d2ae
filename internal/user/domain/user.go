package domain

import "time"

type ID string

// User's PasswordHash never leaves the service layer; responses only carry
// the id and username.
type User struct {
	ID           ID
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
