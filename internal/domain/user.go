package domain

import "time"

// User is an account that can sign in, report tickets and, with the right
// profile role, be assigned to them.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
