// Package domain holds the account, poll and vote entities with their validation rules.
package domain

import (
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	MinUsernameLen = 2
	MaxUsernameLen = 36
	MinPasswordLen = 8
)

type UserID string

type User struct {
	ID           UserID    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Identity is what an authenticated credential resolves to.
type Identity struct {
	UserID   UserID `json:"userId"`
	Username string `json:"username"`
}

// NewUser is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewUser(username string, hash []byte) (*User, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	return &User{
		ID:           UserID(uuid.NewString()),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

func (u *User) Identity() Identity {
	return Identity{UserID: u.ID, Username: u.Username}
}

func ValidateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < MinUsernameLen {
		return Invalid("username must be at least 2 characters")
	}
	if n > MaxUsernameLen {
		return Invalid("username too long")
	}
	return nil
}
