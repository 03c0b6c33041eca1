package store

import (
	"context"
	"errors"

	"github.com/fernhill/userd/internal/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrDisabled is returned by drivers that do not support a given
	// mutation, such as the in-memory demo driver.
	ErrDisabled = errors.New("store: operation disabled")
)

// Store is the root data access interface. Concrete drivers (sqlite, memory)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable.
type Store interface {
	Users() Users

	ApplyMigrations() error

	// Close releases any underlying resources (optional for sqlite).
	Close() error

	// Ping verifies the backing store is still alive.
	Ping(ctx context.Context) error
}

type Users interface {
	// CreateUser inserts a new user (id is provided by app via ULID).
	CreateUser(ctx context.Context, u domain.User) error

	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail is used during password login. Email matching is
	// case-insensitive; drivers compare against the lower-cased column.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// GetUserByAPIKey resolves a user by their opaque API key.
	GetUserByAPIKey(ctx context.Context, apiKey string) (domain.User, error)

	// ListUsers returns a page of users ordered by creation date (newest
	// first). Page numbering starts at 1.
	ListUsers(ctx context.Context, page, pageSize int) ([]domain.User, error)

	// CountUsers returns the total number of users.
	CountUsers(ctx context.Context) (int, error)

	// UpdateProfile mutates user_name and email and bumps updated_at.
	UpdateProfile(ctx context.Context, userID, userName, email string) error

	// UpdatePasswordHash sets the password_hash (argon2) and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID, newHash string) error

	// UpdateRole sets the role column and bumps updated_at. Callers are
	// responsible for validating the role first.
	UpdateRole(ctx context.Context, userID, role string) error

	// UpdateRefreshTokenHash sets the stored refresh token hash. An empty
	// hash clears it, which logs the user out everywhere.
	UpdateRefreshTokenHash(ctx context.Context, userID, hash string) error

	// SetTwoFA writes the encrypted TOTP secret and the enabled flag in one
	// step. An empty secret clears the column.
	SetTwoFA(ctx context.Context, userID, encryptedSecret string, enabled bool) error

	// DeleteUser removes a user.
	DeleteUser(ctx context.Context, userID string) error
}
