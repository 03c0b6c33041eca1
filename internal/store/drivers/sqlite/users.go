package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/fernhill/userd/internal/domain"
	"github.com/fernhill/userd/internal/store"
)

type usersRepo struct {
	db *sql.DB
}

type userRow struct {
	ID               string
	UserName         string
	Email            string
	PasswordHash     string
	APIKey           string
	Role             string
	Enable2FA        bool
	TwoFASecret      sql.NullString
	RefreshTokenHash sql.NullString
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

const userColumns = `id, user_name, email, password_hash, api_key, role,
	enable_2fa, two_fa_secret, refresh_token_hash, created_at, updated_at`

func scanUser(row *sql.Row) (userRow, error) {
	var u userRow
	err := row.Scan(
		&u.ID, &u.UserName, &u.Email, &u.PasswordHash, &u.APIKey, &u.Role,
		&u.Enable2FA, &u.TwoFASecret, &u.RefreshTokenHash, &u.CreatedAt, &u.UpdatedAt,
	)
	return u, err
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, user_name, email, password_hash, api_key, role,
			enable_2fa, two_fa_secret, refresh_token_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.UserName, strings.ToLower(u.Email), u.PasswordHash, u.APIKey,
		string(u.Role), u.Enable2FA,
		mapOptionalString(u.TwoFASecret), mapOptionalString(u.RefreshTokenHash),
		u.CreatedAt, u.UpdatedAt,
	)
	return mapConstraint(err)
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return mapUserRow(u), nil
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, strings.ToLower(email))
	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return mapUserRow(u), nil
}

func (r *usersRepo) GetUserByAPIKey(ctx context.Context, apiKey string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE api_key = ?`, apiKey)
	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return mapUserRow(u), nil
}

func (r *usersRepo) ListUsers(ctx context.Context, page, pageSize int) ([]domain.User, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		var u userRow
		if err := rows.Scan(
			&u.ID, &u.UserName, &u.Email, &u.PasswordHash, &u.APIKey, &u.Role,
			&u.Enable2FA, &u.TwoFASecret, &u.RefreshTokenHash, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, mapUserRow(u))
	}
	return out, rows.Err()
}

func (r *usersRepo) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

func (r *usersRepo) UpdateProfile(ctx context.Context, userID, userName, email string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET user_name = ?, email = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		userName, strings.ToLower(email), userID)
	if err != nil {
		return mapConstraint(err)
	}
	return requireRow(res)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID, newHash string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET password_hash = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		newHash, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) UpdateRole(ctx context.Context, userID, role string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET role = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		role, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) UpdateRefreshTokenHash(ctx context.Context, userID, hash string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET refresh_token_hash = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		mapStringNull(hash), userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) SetTwoFA(ctx context.Context, userID, encryptedSecret string, enabled bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET two_fa_secret = ?, enable_2fa = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		mapStringNull(encryptedSecret), enabled, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) DeleteUser(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// requireRow turns a zero-row update or delete into ErrNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// mapConstraint maps sqlite unique constraint violations onto
// store.ErrAlreadyExists so callers need not know the driver.
func mapConstraint(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return store.ErrAlreadyExists
	}
	return err
}
