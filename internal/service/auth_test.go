package service

import (
	"context"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"

	"github.com/fernhill/userd/internal/domain"
	"github.com/fernhill/userd/internal/store"
	"github.com/fernhill/userd/internal/store/drivers/memory"
	"github.com/fernhill/userd/internal/store/drivers/sqlite"
	"github.com/fernhill/userd/pkg/cryptox"
	"github.com/fernhill/userd/pkg/jwtx"
)

func newTestEnv(t *testing.T) (*AuthService, *UserService) {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	return newServices(t, st)
}

func newServices(t *testing.T, st store.Store) (*AuthService, *UserService) {
	t.Helper()

	codec, err := cryptox.NewSecretBox("test-master-secret")
	require.NoError(t, err)

	auth := &AuthService{
		Store: st,
		Tokens: &jwtx.TokenService{
			AccessSecret:  []byte("access-secret"),
			RefreshSecret: []byte("refresh-secret"),
			AccessTTL:     jwtx.DefaultAccessTokenTTL,
			RefreshTTL:    jwtx.DefaultRefreshTokenTTL,
			Issuer:        "userd-test",
		},
		Codec:  codec,
		Issuer: "userd-test",
	}
	return auth, &UserService{Store: st}
}

func TestLoginIssuesVerifiableTokens(t *testing.T) {
	t.Parallel()
	auth, users := newTestEnv(t)
	ctx := context.Background()

	created, err := users.Register(ctx, "alice", "A@x.com", "Secret123!", domain.RoleUser)
	require.NoError(t, err)
	require.Equal(t, "a@x.com", created.Email)
	require.NotEmpty(t, created.APIKey)
	require.Empty(t, created.PasswordHash)

	pair, user, err := auth.Login(ctx, "a@X.com", "Secret123!")
	require.NoError(t, err)
	require.Equal(t, created.ID, user.ID)
	require.Empty(t, user.PasswordHash)

	claims, err := auth.Tokens.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, created.ID, claims.Subject)
	require.Equal(t, "a@x.com", claims.Email)
	require.Equal(t, "alice", claims.UserName)
	require.Equal(t, string(domain.RoleUser), claims.Role)

	// Access and refresh are signed with different secrets.
	_, err = auth.Tokens.VerifyAccess(pair.RefreshToken)
	require.Error(t, err)
	_, err = auth.Tokens.VerifyRefresh(pair.RefreshToken)
	require.NoError(t, err)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	t.Parallel()
	auth, users := newTestEnv(t)
	ctx := context.Background()

	_, err := users.Register(ctx, "alice", "a@x.com", "Secret123!", domain.RoleUser)
	require.NoError(t, err)

	_, _, err = auth.Login(ctx, "a@x.com", "wrong-password")
	require.ErrorIs(t, err, ErrInvalidCredential)

	// Unknown accounts produce the exact same error as a bad password.
	_, _, err = auth.Login(ctx, "nobody@x.com", "Secret123!")
	require.ErrorIs(t, err, ErrInvalidCredential)
}

func TestRefreshRotation(t *testing.T) {
	t.Parallel()
	auth, users := newTestEnv(t)
	ctx := context.Background()

	_, err := users.Register(ctx, "alice", "a@x.com", "Secret123!", domain.RoleUser)
	require.NoError(t, err)

	pair, _, err := auth.Login(ctx, "a@x.com", "Secret123!")
	require.NoError(t, err)

	rotated, err := auth.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	// The new refresh token works.
	again, err := auth.Refresh(ctx, rotated.RefreshToken)
	require.NoError(t, err)

	// Replaying the first token is detected and revokes the whole family.
	_, err = auth.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrUnauthorized)
	_, err = auth.Refresh(ctx, again.RefreshToken)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestRefreshRejectsGarbage(t *testing.T) {
	t.Parallel()
	auth, _ := newTestEnv(t)

	_, err := auth.Refresh(context.Background(), "not-a-jwt")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	t.Parallel()
	auth, users := newTestEnv(t)
	ctx := context.Background()

	_, err := users.Register(ctx, "alice", "a@x.com", "Secret123!", domain.RoleUser)
	require.NoError(t, err)
	pair, _, err := auth.Login(ctx, "a@x.com", "Secret123!")
	require.NoError(t, err)

	_, err = auth.Refresh(ctx, pair.AccessToken)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestLogoutEndsSession(t *testing.T) {
	t.Parallel()
	auth, users := newTestEnv(t)
	ctx := context.Background()

	created, err := users.Register(ctx, "alice", "a@x.com", "Secret123!", domain.RoleUser)
	require.NoError(t, err)
	pair, _, err := auth.Login(ctx, "a@x.com", "Secret123!")
	require.NoError(t, err)

	require.NoError(t, auth.Logout(ctx, created.ID))

	_, err = auth.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrUnauthorized)

	// Logging out twice is harmless.
	require.NoError(t, auth.Logout(ctx, created.ID))
}

func TestTwoFALifecycle(t *testing.T) {
	t.Parallel()
	auth, users := newTestEnv(t)
	ctx := context.Background()

	created, err := users.Register(ctx, "alice", "a@x.com", "Secret123!", domain.RoleUser)
	require.NoError(t, err)

	secret, err := auth.Enable2FA(ctx, created.ID)
	require.NoError(t, err)
	require.NotEmpty(t, secret)

	// Enabling again returns the same secret instead of rotating it.
	same, err := auth.Enable2FA(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, secret, same)

	// The secret is never stored in plain text.
	stored, err := auth.Store.Users().GetUserByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.TwoFASecret)
	require.NotEqual(t, secret, *stored.TwoFASecret)

	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)
	valid, err := auth.Validate2FAToken(ctx, created.ID, code)
	require.NoError(t, err)
	require.True(t, valid)

	// A wrong code is a false result, not an error.
	valid, err = auth.Validate2FAToken(ctx, created.ID, "000000")
	require.NoError(t, err)
	require.False(t, valid)

	require.NoError(t, auth.Disable2FA(ctx, created.ID))
	_, err = auth.Validate2FAToken(ctx, created.ID, code)
	require.ErrorIs(t, err, ErrTwoFANotEnabled)
}

func TestTwoFAFailsClosedOnBadCiphertext(t *testing.T) {
	t.Parallel()
	auth, users := newTestEnv(t)
	ctx := context.Background()

	created, err := users.Register(ctx, "alice", "a@x.com", "Secret123!", domain.RoleUser)
	require.NoError(t, err)

	// Simulate a row written under a different master secret.
	require.NoError(t, auth.Store.Users().SetTwoFA(ctx, created.ID, "bm9uY2U=:Z2FyYmFnZQ==", true))

	_, err = auth.Validate2FAToken(ctx, created.ID, "123456")
	require.ErrorIs(t, err, cryptox.ErrCodec)

	_, err = auth.Enable2FA(ctx, created.ID)
	require.ErrorIs(t, err, cryptox.ErrCodec)
}

func TestValidateAPIKey(t *testing.T) {
	t.Parallel()
	auth, users := newTestEnv(t)
	ctx := context.Background()

	created, err := users.Register(ctx, "alice", "a@x.com", "Secret123!", domain.RoleUser)
	require.NoError(t, err)

	user, err := auth.ValidateAPIKey(ctx, created.APIKey)
	require.NoError(t, err)
	require.Equal(t, created.ID, user.ID)
	require.Empty(t, user.PasswordHash)

	_, err = auth.ValidateAPIKey(ctx, "bogus")
	require.ErrorIs(t, err, ErrUnauthorized)
	_, err = auth.ValidateAPIKey(ctx, "")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestDemoMode(t *testing.T) {
	t.Parallel()
	st, err := memory.NewStore()
	require.NoError(t, err)
	auth, users := newServices(t, st)
	ctx := context.Background()

	t.Run("login and refresh work", func(t *testing.T) {
		pair, user, err := auth.Login(ctx, memory.DemoEmail, memory.DemoPassword)
		require.NoError(t, err)
		require.Equal(t, memory.DemoUserName, user.UserName)

		rotated, err := auth.Refresh(ctx, pair.RefreshToken)
		require.NoError(t, err)
		require.NotEmpty(t, rotated.AccessToken)

		require.NoError(t, auth.Logout(ctx, user.ID))
		_, err = auth.Refresh(ctx, rotated.RefreshToken)
		require.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("api key works", func(t *testing.T) {
		user, err := auth.ValidateAPIKey(ctx, memory.DemoAPIKey)
		require.NoError(t, err)
		require.Equal(t, memory.DemoEmail, user.Email)
	})

	t.Run("mutations are disabled", func(t *testing.T) {
		_, err := users.Register(ctx, "bob", "b@x.com", "Secret123!", domain.RoleUser)
		require.ErrorIs(t, err, ErrFeatureDisabled)

		demo, err := auth.Store.Users().GetUserByEmail(ctx, memory.DemoEmail)
		require.NoError(t, err)

		_, err = auth.Enable2FA(ctx, demo.ID)
		require.ErrorIs(t, err, ErrFeatureDisabled)

		err = users.Delete(ctx, demo.ID)
		require.ErrorIs(t, err, ErrFeatureDisabled)
	})
}
