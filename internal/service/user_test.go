package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fernhill/userd/internal/domain"
	"github.com/fernhill/userd/pkg/cryptox"
)

func TestRegisterDuplicateEmail(t *testing.T) {
	t.Parallel()
	_, users := newTestEnv(t)
	ctx := context.Background()

	_, err := users.Register(ctx, "alice", "a@x.com", "Secret123!", domain.RoleUser)
	require.NoError(t, err)

	_, err = users.Register(ctx, "other", "A@X.COM", "Different1!", domain.RoleUser)
	require.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	t.Parallel()
	_, users := newTestEnv(t)

	_, err := users.Register(context.Background(), "alice", "a@x.com", "Secret123!", domain.Role("root"))
	require.Error(t, err)
}

func TestRegisterDefaultsRole(t *testing.T) {
	t.Parallel()
	_, users := newTestEnv(t)

	created, err := users.Register(context.Background(), "alice", "a@x.com", "Secret123!", "")
	require.NoError(t, err)
	require.Equal(t, domain.RoleUser, created.Role)
}

func TestGetAndDelete(t *testing.T) {
	t.Parallel()
	_, users := newTestEnv(t)
	ctx := context.Background()

	created, err := users.Register(ctx, "alice", "a@x.com", "Secret123!", domain.RoleAdmin)
	require.NoError(t, err)

	got, err := users.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, got.Role)
	require.Empty(t, got.PasswordHash)
	require.Nil(t, got.RefreshTokenHash)

	require.NoError(t, users.Delete(ctx, created.ID))
	_, err = users.Get(ctx, created.ID)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, users.Delete(ctx, created.ID), ErrNotFound)
}

func TestListPagination(t *testing.T) {
	t.Parallel()
	_, users := newTestEnv(t)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		_, err := users.Register(ctx, "u", fmt.Sprintf("u%d@x.com", i), "Secret123!", domain.RoleUser)
		require.NoError(t, err)
	}

	page, err := users.List(ctx, 1, 3)
	require.NoError(t, err)
	require.Len(t, page.Users, 3)
	require.Equal(t, 7, page.Total)
	require.Equal(t, 3, page.TotalPages)

	last, err := users.List(ctx, 3, 3)
	require.NoError(t, err)
	require.Len(t, last.Users, 1)

	// Out of range pages are empty, not an error.
	empty, err := users.List(ctx, 9, 3)
	require.NoError(t, err)
	require.Empty(t, empty.Users)

	// Page size is clamped and page defaults to 1.
	clamped, err := users.List(ctx, 0, 0)
	require.NoError(t, err)
	require.Equal(t, 1, clamped.Page)
	require.Equal(t, DefaultPageSize, clamped.PageSize)
}

func TestUpdateProfileAndPassword(t *testing.T) {
	t.Parallel()
	auth, users := newTestEnv(t)
	ctx := context.Background()

	created, err := users.Register(ctx, "alice", "a@x.com", "Secret123!", domain.RoleUser)
	require.NoError(t, err)
	_, err = users.Register(ctx, "bob", "b@x.com", "Secret123!", domain.RoleUser)
	require.NoError(t, err)

	t.Run("rename", func(t *testing.T) {
		name := "alicia"
		got, err := users.Update(ctx, created.ID, UpdateParams{UserName: &name})
		require.NoError(t, err)
		require.Equal(t, "alicia", got.UserName)
		require.Equal(t, "a@x.com", got.Email)
	})

	t.Run("email collision", func(t *testing.T) {
		email := "B@x.com"
		_, err := users.Update(ctx, created.ID, UpdateParams{Email: &email})
		require.ErrorIs(t, err, ErrDuplicateEmail)
	})

	t.Run("password change takes effect", func(t *testing.T) {
		password := "NewSecret456!"
		_, err := users.Update(ctx, created.ID, UpdateParams{Password: &password})
		require.NoError(t, err)

		_, _, err = auth.Login(ctx, "a@x.com", "Secret123!")
		require.ErrorIs(t, err, ErrInvalidCredential)
		_, _, err = auth.Login(ctx, "a@x.com", "NewSecret456!")
		require.NoError(t, err)

		stored, err := users.Store.Users().GetUserByID(ctx, created.ID)
		require.NoError(t, err)
		require.NoError(t, cryptox.VerifyPassword("NewSecret456!", stored.PasswordHash))
	})

	t.Run("unknown id", func(t *testing.T) {
		name := "x"
		_, err := users.Update(ctx, "missing", UpdateParams{UserName: &name})
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestUpdateRole(t *testing.T) {
	t.Parallel()
	_, users := newTestEnv(t)
	ctx := context.Background()

	created, err := users.Register(ctx, "alice", "a@x.com", "Secret123!", domain.RoleUser)
	require.NoError(t, err)

	role := "admin"
	got, err := users.Update(ctx, created.ID, UpdateParams{Role: &role})
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, got.Role)

	bogus := "root"
	_, err = users.Update(ctx, created.ID, UpdateParams{Role: &bogus})
	require.Error(t, err)

	stored, err := users.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, stored.Role)
}
