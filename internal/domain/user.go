package domain

import (
	"context"
	"encoding/json"
	"time"
)

// User is an account owned by the authentication provider.
type User struct {
	ID             string
	Email          string
	Name           string
	Business       string
	EmailConfirmed bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
	// Raw is the provider's own JSON for the user, when it sent one.
	Raw json.RawMessage
}

// NewUser holds the fields accepted when creating an account.
type NewUser struct {
	Email    string
	Password string
	Name     string
	Business string
}

// LocalUser is a user row stored by the local provider, including its password hash.
type LocalUser struct {
	User
	PasswordHash string
}

// UserRepository defines persistence operations for locally stored users.
type UserRepository interface {
	Create(ctx context.Context, user *LocalUser) error
	GetByID(ctx context.Context, id string) (*LocalUser, error)
	GetByEmail(ctx context.Context, email string) (*LocalUser, error)
}
