// Package jwtx signs and verifies the HS256 access and refresh tokens used by
// the auth service. Each token kind carries its own secret and its own
// expiration, configured independently: compromise of one secret must not
// allow forging the other kind.
package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrExpired reports a structurally valid token past its expiration.
	ErrExpired = errors.New("jwtx: token expired")
	// ErrMalformed reports a token whose structure or signature does not
	// check out. Deliberately indistinct about which, so the boundary can't
	// leak why verification failed.
	ErrMalformed = errors.New("jwtx: malformed token")
)

// TokenService is stateless per call; it only signs and verifies.
type TokenService struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

// IssueAccess signs a short-lived access token for id.
func (s *TokenService) IssueAccess(id Identity) (string, error) {
	return s.sign(id, s.AccessSecret, s.AccessTTL)
}

// IssueRefresh signs a long-lived refresh token for id with the refresh
// secret.
func (s *TokenService) IssueRefresh(id Identity) (string, error) {
	return s.sign(id, s.RefreshSecret, s.RefreshTTL)
}

// VerifyAccess validates token against the access secret.
func (s *TokenService) VerifyAccess(token string) (Claims, error) {
	return s.verify(token, s.AccessSecret)
}

// VerifyRefresh validates token against the refresh secret.
func (s *TokenService) VerifyRefresh(token string) (Claims, error) {
	return s.verify(token, s.RefreshSecret)
}

func (s *TokenService) sign(id Identity, secret []byte, ttl time.Duration) (string, error) {
	claims := newClaims(id, s.Issuer, ttl, time.Now().UTC())

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign token: %w", err)
	}
	return signed, nil
}

func (s *TokenService) verify(token string, secret []byte) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(t *jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		// Expired is the only failure callers are allowed to distinguish.
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrExpired
		}
		return Claims{}, ErrMalformed
	}

	if s.Issuer != "" && claims.Issuer != s.Issuer {
		return Claims{}, ErrMalformed
	}

	return claims, nil
}
