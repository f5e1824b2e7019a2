package auth

import (
	"context"
	"time"
)

// User is a stored account record. The auth flows never mutate it; writes
// happen only through explicit account management (seeding, password reset).
type User struct {
	ID           string
	Name         string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CredentialStore answers "does this username exist and what does it carry".
// Lookups are read-only and may block on the backing database; they must
// honor ctx cancellation.
type CredentialStore interface {
	FindByName(ctx context.Context, name string) (*User, error)
	Create(ctx context.Context, u *User) error
	UpdatePassword(ctx context.Context, name, passwordHash string) error
}
