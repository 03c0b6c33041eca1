// Package memory implements a storage-less demo driver. It holds a single
// fixed account so the service can run without a database, for local demos
// and front-end development. Every mutation except refresh token rotation is
// rejected with store.ErrDisabled.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/fernhill/userd/internal/domain"
	"github.com/fernhill/userd/internal/store"
	"github.com/fernhill/userd/pkg/cryptox"
	"github.com/fernhill/userd/pkg/idx"
)

const (
	DemoEmail    = "demo@example.com"
	DemoPassword = "password"
	DemoAPIKey   = "demo-api-key"
	DemoUserName = "demo"
)

type Store struct {
	mu   sync.RWMutex
	user domain.User
}

// NewStore builds the demo store. The demo account's password hash is
// computed at construction so login goes through the normal argon2 path.
func NewStore() (*Store, error) {
	hash, err := cryptox.HashPassword(DemoPassword)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Store{
		user: domain.User{
			ID:           idx.New().String(),
			UserName:     DemoUserName,
			Email:        DemoEmail,
			PasswordHash: hash,
			APIKey:       DemoAPIKey,
			Role:         domain.RoleUser,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
	}, nil
}

func (s *Store) Users() store.Users     { return &usersRepo{s: s} }
func (s *Store) ApplyMigrations() error { return nil }
func (s *Store) Close() error           { return nil }

func (s *Store) Ping(context.Context) error { return nil }

type usersRepo struct {
	s *Store
}

// snapshot returns a copy so callers cannot mutate the shared record.
func (r *usersRepo) snapshot() domain.User {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u := r.s.user
	if u.TwoFASecret != nil {
		v := *u.TwoFASecret
		u.TwoFASecret = &v
	}
	if u.RefreshTokenHash != nil {
		v := *u.RefreshTokenHash
		u.RefreshTokenHash = &v
	}
	return u
}

func (r *usersRepo) CreateUser(context.Context, domain.User) error {
	return store.ErrDisabled
}

func (r *usersRepo) GetUserByID(_ context.Context, id string) (domain.User, error) {
	u := r.snapshot()
	if u.ID != id {
		return domain.User{}, store.ErrNotFound
	}
	return u, nil
}

func (r *usersRepo) GetUserByEmail(_ context.Context, email string) (domain.User, error) {
	u := r.snapshot()
	if !strings.EqualFold(u.Email, email) {
		return domain.User{}, store.ErrNotFound
	}
	return u, nil
}

func (r *usersRepo) GetUserByAPIKey(_ context.Context, apiKey string) (domain.User, error) {
	u := r.snapshot()
	if u.APIKey != apiKey {
		return domain.User{}, store.ErrNotFound
	}
	return u, nil
}

func (r *usersRepo) ListUsers(_ context.Context, page, pageSize int) ([]domain.User, error) {
	if page > 1 || pageSize < 1 {
		return nil, nil
	}
	return []domain.User{r.snapshot()}, nil
}

func (r *usersRepo) CountUsers(context.Context) (int, error) { return 1, nil }

func (r *usersRepo) UpdateProfile(context.Context, string, string, string) error {
	return store.ErrDisabled
}

func (r *usersRepo) UpdatePasswordHash(context.Context, string, string) error {
	return store.ErrDisabled
}

func (r *usersRepo) UpdateRole(context.Context, string, string) error {
	return store.ErrDisabled
}

// UpdateRefreshTokenHash is the one permitted mutation. Without it the demo
// account could log in but never refresh or log out.
func (r *usersRepo) UpdateRefreshTokenHash(_ context.Context, userID, hash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.user.ID != userID {
		return store.ErrNotFound
	}
	if hash == "" {
		r.s.user.RefreshTokenHash = nil
	} else {
		r.s.user.RefreshTokenHash = &hash
	}
	r.s.user.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *usersRepo) SetTwoFA(context.Context, string, string, bool) error {
	return store.ErrDisabled
}

func (r *usersRepo) DeleteUser(context.Context, string) error {
	return store.ErrDisabled
}
