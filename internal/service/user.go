package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fernhill/userd/internal/domain"
	"github.com/fernhill/userd/internal/store"
	"github.com/fernhill/userd/pkg/cryptox"
	"github.com/fernhill/userd/pkg/idx"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type UserService struct {
	Store store.Store
}

// UserPage is one page of a user listing.
type UserPage struct {
	Users      []domain.User
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// UpdateParams carries the optional fields of a profile update. Nil means
// leave the current value alone.
type UpdateParams struct {
	UserName *string
	Email    *string
	Password *string
	Role     *string
}

// Register creates a new account. The caller gets back the stored record,
// including the generated API key, with secret columns redacted.
func (s *UserService) Register(ctx context.Context, userName, email, password string, role domain.Role) (domain.User, error) {
	if role == "" {
		role = domain.RoleUser
	}
	if !role.Valid() {
		return domain.User{}, fmt.Errorf("unknown role %q", role)
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	apiKey, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to generate api key: %w", err)
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:           idx.New().String(),
		UserName:     userName,
		Email:        strings.ToLower(email),
		PasswordHash: hash,
		APIKey:       apiKey,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		return domain.User{}, mapStoreErr(err)
	}
	return user.Redacted(), nil
}

// Get returns a single user with secret columns redacted.
func (s *UserService) Get(ctx context.Context, id string) (domain.User, error) {
	user, err := s.Store.Users().GetUserByID(ctx, id)
	if err != nil {
		return domain.User{}, mapStoreErr(err)
	}
	return user.Redacted(), nil
}

// List returns a page of users, newest first.
func (s *UserService) List(ctx context.Context, page, pageSize int) (UserPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	total, err := s.Store.Users().CountUsers(ctx)
	if err != nil {
		return UserPage{}, fmt.Errorf("failed to count users: %w", err)
	}

	users, err := s.Store.Users().ListUsers(ctx, page, pageSize)
	if err != nil {
		return UserPage{}, fmt.Errorf("failed to list users: %w", err)
	}

	for i := range users {
		users[i] = users[i].Redacted()
	}

	totalPages := (total + pageSize - 1) / pageSize
	return UserPage{
		Users:      users,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// Update applies a partial profile update. A password change rehashes and
// clears nothing else; an email change is checked for uniqueness by the
// store's constraint.
func (s *UserService) Update(ctx context.Context, id string, params UpdateParams) (domain.User, error) {
	user, err := s.Store.Users().GetUserByID(ctx, id)
	if err != nil {
		return domain.User{}, mapStoreErr(err)
	}

	if params.UserName != nil || params.Email != nil {
		userName := user.UserName
		if params.UserName != nil {
			userName = *params.UserName
		}
		email := user.Email
		if params.Email != nil {
			email = strings.ToLower(*params.Email)
		}
		if err := s.Store.Users().UpdateProfile(ctx, id, userName, email); err != nil {
			return domain.User{}, mapStoreErr(err)
		}
	}

	if params.Password != nil {
		hash, err := cryptox.HashPassword(*params.Password)
		if err != nil {
			return domain.User{}, fmt.Errorf("failed to hash password: %w", err)
		}
		if err := s.Store.Users().UpdatePasswordHash(ctx, id, hash); err != nil {
			return domain.User{}, mapStoreErr(err)
		}
	}

	if params.Role != nil {
		role := domain.Role(*params.Role)
		if !role.Valid() {
			return domain.User{}, fmt.Errorf("unknown role %q", role)
		}
		if err := s.Store.Users().UpdateRole(ctx, id, string(role)); err != nil {
			return domain.User{}, mapStoreErr(err)
		}
	}

	updated, err := s.Store.Users().GetUserByID(ctx, id)
	if err != nil {
		return domain.User{}, mapStoreErr(err)
	}
	return updated.Redacted(), nil
}

// Delete removes an account.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.Store.Users().DeleteUser(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return mapStoreErr(err)
	}
	return nil
}
