package http

import (
	"fmt"
	"net/mail"
	"time"

	"github.com/fernhill/userd/internal/domain"
)

const minPasswordLength = 8

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r loginRequest) validate() error {
	if r.Email == "" || r.Password == "" {
		return fmt.Errorf("email and password are required")
	}
	return nil
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type tokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type loginResponse struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	User         userResponse `json:"user"`
}

type twoFASecretResponse struct {
	Secret string `json:"secret"`
}

type twoFAValidateRequest struct {
	Code string `json:"code"`
}

type twoFAValidateResponse struct {
	Valid bool `json:"valid"`
}

// registerRequest deliberately has no role field: public registration always
// creates the lowest-privilege account. Promotion goes through the
// admin-gated update path.
type registerRequest struct {
	UserName string `json:"userName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r registerRequest) validate() error {
	if r.UserName == "" {
		return fmt.Errorf("userName is required")
	}
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	return validatePassword(r.Password)
}

type updateUserRequest struct {
	UserName *string `json:"userName,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
	Role     *string `json:"role,omitempty"`
}

func (r updateUserRequest) validate() error {
	if r.UserName == nil && r.Email == nil && r.Password == nil && r.Role == nil {
		return fmt.Errorf("no fields to update")
	}
	if r.UserName != nil && *r.UserName == "" {
		return fmt.Errorf("userName must not be empty")
	}
	if r.Role != nil && !domain.Role(*r.Role).Valid() {
		return fmt.Errorf("unknown role %q", *r.Role)
	}
	if r.Email != nil {
		if err := validateEmail(*r.Email); err != nil {
			return err
		}
	}
	if r.Password != nil {
		if err := validatePassword(*r.Password); err != nil {
			return err
		}
	}
	return nil
}

type userResponse struct {
	ID        string    `json:"id"`
	UserName  string    `json:"userName"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	APIKey    string    `json:"apiKey,omitempty"`
	Enable2FA bool      `json:"enable2FA"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type userListResponse struct {
	Users      []userResponse `json:"users"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalPages int            `json:"totalPages"`
}

// mapUser builds the wire shape of a user. The API key is only included
// when includeKey is set; it shows up on registration and on the API-key
// profile endpoint, never in listings.
func mapUser(u domain.User, includeKey bool) userResponse {
	resp := userResponse{
		ID:        u.ID,
		UserName:  u.UserName,
		Email:     u.Email,
		Role:      string(u.Role),
		Enable2FA: u.Enable2FA,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if includeKey {
		resp.APIKey = u.APIKey
	}
	return resp
}

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("email is not valid")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	return nil
}
