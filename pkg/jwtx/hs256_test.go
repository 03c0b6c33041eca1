package jwtx

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTokenService() *TokenService {
	return &TokenService{
		AccessSecret:  []byte("access-secret-for-tests"),
		RefreshSecret: []byte("refresh-secret-for-tests"),
		AccessTTL:     DefaultAccessTokenTTL,
		RefreshTTL:    DefaultRefreshTokenTTL,
		Issuer:        "userd-test",
	}
}

var testIdentity = Identity{
	Subject:  "01J0000000000000000000TEST",
	Email:    "a@x.com",
	UserName: "alice",
	Role:     "user",
}

func TestIssueAndVerifyBothKinds(t *testing.T) {
	t.Parallel()

	svc := newTokenService()

	access, err := svc.IssueAccess(testIdentity)
	require.NoError(t, err)
	refresh, err := svc.IssueRefresh(testIdentity)
	require.NoError(t, err)
	require.NotEqual(t, access, refresh)

	claims, err := svc.VerifyAccess(access)
	require.NoError(t, err)
	require.Equal(t, testIdentity, claims.Identity())

	claims, err = svc.VerifyRefresh(refresh)
	require.NoError(t, err)
	require.Equal(t, testIdentity, claims.Identity())
}

func TestKindsUseIndependentSecrets(t *testing.T) {
	t.Parallel()

	svc := newTokenService()

	access, err := svc.IssueAccess(testIdentity)
	require.NoError(t, err)
	refresh, err := svc.IssueRefresh(testIdentity)
	require.NoError(t, err)

	_, err = svc.VerifyRefresh(access)
	require.ErrorIs(t, err, ErrMalformed)
	_, err = svc.VerifyAccess(refresh)
	require.ErrorIs(t, err, ErrMalformed)
}

func TestVerifyDistinguishesExpiredFromMalformed(t *testing.T) {
	t.Parallel()

	svc := newTokenService()
	svc.AccessTTL = -time.Minute // already lapsed at issue time

	expired, err := svc.IssueAccess(testIdentity)
	require.NoError(t, err)

	_, err = svc.VerifyAccess(expired)
	require.ErrorIs(t, err, ErrExpired)

	_, err = svc.VerifyAccess("not.a.jwt")
	require.ErrorIs(t, err, ErrMalformed)

	// Tampered payload fails the signature check.
	fresh := newTokenService()
	token, err := fresh.IssueAccess(testIdentity)
	require.NoError(t, err)
	parts := strings.Split(token, ".")
	parts[1] = parts[1][:len(parts[1])-2] + "xx"
	_, err = fresh.VerifyAccess(strings.Join(parts, "."))
	require.ErrorIs(t, err, ErrMalformed)
}

func TestVerifyEnforcesIssuer(t *testing.T) {
	t.Parallel()

	svc := newTokenService()
	token, err := svc.IssueAccess(testIdentity)
	require.NoError(t, err)

	other := newTokenService()
	other.Issuer = "someone-else"
	_, err = other.VerifyAccess(token)
	require.ErrorIs(t, err, ErrMalformed)
}
