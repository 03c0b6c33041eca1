package domain

import "time"

// User is the account record. PasswordHash and RefreshTokenHash are secrets;
// every presentation path must go through Redacted first.
type User struct {
	ID               string
	UserName         string // display identifier, not unique
	Email            string // unique login identifier, stored lower-cased
	PasswordHash     string // argon2id encoded
	APIKey           string // long-lived opaque credential, assigned at creation
	Role             Role
	Enable2FA        bool
	TwoFASecret      *string // encrypted TOTP seed, nil when 2FA disabled
	RefreshTokenHash *string // argon2id of the active refresh token, nil when logged out
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Redacted returns a copy safe to hand to the presentation layer: the
// password hash and refresh-token hash are cleared. The encrypted 2FA secret
// stays - it is ciphertext, and the 2FA flows need it.
func (u User) Redacted() User {
	u.PasswordHash = ""
	u.RefreshTokenHash = nil
	return u
}
