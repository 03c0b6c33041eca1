package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/fernhill/userd/internal/domain"
	"github.com/fernhill/userd/internal/store"
	"github.com/fernhill/userd/pkg/cryptox"
	"github.com/fernhill/userd/pkg/jwtx"
)

var ErrTwoFANotEnabled = errors.New("2FA not enabled for this user")

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type AuthService struct {
	Store  store.Store
	Tokens *jwtx.TokenService
	Codec  *cryptox.SecretBox
	Issuer string // Issuer name for TOTP enrollment (e.g., "userd")
}

// Login verifies an email/password pair and issues a fresh token pair. The
// refresh token's hash replaces whatever was stored before, so a login
// invalidates any earlier session's refresh token.
func (s *AuthService) Login(ctx context.Context, email, password string) (TokenPair, domain.User, error) {
	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return TokenPair{}, domain.User{}, ErrInvalidCredential
		}
		return TokenPair{}, domain.User{}, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrMismatch) {
			return TokenPair{}, domain.User{}, ErrInvalidCredential
		}
		return TokenPair{}, domain.User{}, fmt.Errorf("failed to verify password: %w", err)
	}

	pair, err := s.issuePair(ctx, user)
	if err != nil {
		return TokenPair{}, domain.User{}, err
	}
	return pair, user.Redacted(), nil
}

// Refresh exchanges a valid refresh token for a new pair and rotates the
// stored hash. A refresh token that verifies but does not match the stored
// hash is treated as replay: the stored hash is cleared so the whole session
// family is revoked.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := s.Tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return TokenPair{}, ErrUnauthorized
	}

	user, err := s.Store.Users().GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return TokenPair{}, ErrUnauthorized
		}
		return TokenPair{}, fmt.Errorf("failed to look up user: %w", err)
	}

	if user.RefreshTokenHash == nil {
		return TokenPair{}, ErrUnauthorized
	}
	if err := cryptox.VerifyPassword(refreshToken, *user.RefreshTokenHash); err != nil {
		_ = s.Store.Users().UpdateRefreshTokenHash(ctx, user.ID, "")
		return TokenPair{}, ErrUnauthorized
	}

	return s.issuePair(ctx, user)
}

// Logout clears the stored refresh token hash. Calling it when no session
// exists is not an error.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if err := s.Store.Users().UpdateRefreshTokenHash(ctx, userID, ""); err != nil {
		return mapStoreErr(err)
	}
	return nil
}

// Enable2FA provisions a TOTP secret for the user and returns it in plain
// text for enrollment in an authenticator app. If the user already has a
// secret, the same one is decrypted and returned rather than rotated.
func (s *AuthService) Enable2FA(ctx context.Context, userID string) (string, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return "", mapStoreErr(err)
	}

	if user.TwoFASecret != nil && *user.TwoFASecret != "" {
		secret, err := s.Codec.Decrypt(*user.TwoFASecret)
		if err != nil {
			return "", fmt.Errorf("failed to decrypt stored secret: %w", err)
		}
		if !user.Enable2FA {
			if err := s.Store.Users().SetTwoFA(ctx, userID, *user.TwoFASecret, true); err != nil {
				return "", mapStoreErr(err)
			}
		}
		return secret, nil
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: user.Email,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate TOTP key: %w", err)
	}

	encrypted, err := s.Codec.Encrypt(key.Secret())
	if err != nil {
		return "", fmt.Errorf("failed to encrypt TOTP secret: %w", err)
	}

	if err := s.Store.Users().SetTwoFA(ctx, userID, encrypted, true); err != nil {
		return "", mapStoreErr(err)
	}
	return key.Secret(), nil
}

// Validate2FAToken checks a six digit TOTP code against the user's secret.
// A wrong code is a false result, not an error; errors are reserved for
// lookup and decrypt failures.
func (s *AuthService) Validate2FAToken(ctx context.Context, userID, code string) (bool, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return false, mapStoreErr(err)
	}

	if !user.Enable2FA || user.TwoFASecret == nil || *user.TwoFASecret == "" {
		return false, ErrTwoFANotEnabled
	}

	secret, err := s.Codec.Decrypt(*user.TwoFASecret)
	if err != nil {
		return false, fmt.Errorf("failed to decrypt stored secret: %w", err)
	}

	return totp.Validate(code, secret), nil
}

// Disable2FA clears the stored secret and flag.
func (s *AuthService) Disable2FA(ctx context.Context, userID string) error {
	if err := s.Store.Users().SetTwoFA(ctx, userID, "", false); err != nil {
		return mapStoreErr(err)
	}
	return nil
}

// ValidateAPIKey resolves an opaque API key to its owner.
func (s *AuthService) ValidateAPIKey(ctx context.Context, apiKey string) (domain.User, error) {
	if apiKey == "" {
		return domain.User{}, ErrUnauthorized
	}
	user, err := s.Store.Users().GetUserByAPIKey(ctx, apiKey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUnauthorized
		}
		return domain.User{}, fmt.Errorf("failed to look up api key: %w", err)
	}
	return user.Redacted(), nil
}

// issuePair mints access and refresh tokens for the user and stores the
// refresh token's argon2 hash for later rotation checks.
func (s *AuthService) issuePair(ctx context.Context, user domain.User) (TokenPair, error) {
	id := jwtx.Identity{
		Subject:  user.ID,
		Email:    user.Email,
		UserName: user.UserName,
		Role:     string(user.Role),
	}

	access, err := s.Tokens.IssueAccess(id)
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to issue access token: %w", err)
	}
	refresh, err := s.Tokens.IssueRefresh(id)
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to issue refresh token: %w", err)
	}

	hash, err := cryptox.HashPassword(refresh)
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to hash refresh token: %w", err)
	}
	if err := s.Store.Users().UpdateRefreshTokenHash(ctx, user.ID, hash); err != nil {
		return TokenPair{}, fmt.Errorf("failed to store refresh token hash: %w", err)
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func mapStoreErr(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, store.ErrDisabled):
		return ErrFeatureDisabled
	case errors.Is(err, store.ErrAlreadyExists):
		return ErrDuplicateEmail
	default:
		return err
	}
}
