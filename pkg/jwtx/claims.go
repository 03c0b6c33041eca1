package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fernhill/userd/pkg/idx"
)

// Default token TTLs. Access tokens are short-lived; refresh tokens trade
// longevity for the rotation check the auth service performs on every use.
const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Identity is the claim material embedded in every token this service signs.
type Identity struct {
	Subject  string
	Email    string
	UserName string
	Role     string
}

// Claims are the signed token claims. Custom fields are additive on top of
// the registered set to preserve compatibility.
type Claims struct {
	jwt.RegisteredClaims

	Email    string `json:"email,omitempty"`
	UserName string `json:"userName,omitempty"`
	Role     string `json:"role,omitempty"`
}

// Identity recovers the identity material from verified claims.
func (c *Claims) Identity() Identity {
	return Identity{
		Subject:  c.Subject,
		Email:    c.Email,
		UserName: c.UserName,
		Role:     c.Role,
	}
}

func newClaims(id Identity, issuer string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			// A fresh jti per token keeps two tokens minted in the same
			// second from colliding, which matters for refresh rotation.
			ID:        idx.New().String(),
			Issuer:    issuer,
			Subject:   id.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email:    id.Email,
		UserName: id.UserName,
		Role:     id.Role,
	}
}
