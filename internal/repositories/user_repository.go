package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"aitoolshub/internal/models"
)

type UserRepository interface {
	Create(user *models.User) error
	GetByID(id int) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	List(limit, offset int) ([]*models.User, error)
	ListByRole(roleID int) ([]*models.User, error)
	GetCount() (int, error)
	GetCountByRole(roleID int) (int, error)
	UpdateRole(userID, roleID int) error

	// refresh helpers
	UpdateRefresh(userID int, token string, expiresAt time.Time) error
	GetByRefreshToken(token string) (*models.User, error)
	ClearRefresh(userID int) error

	// 2FA marker
	SetTwoFactorVerifiedAt(userID int, at time.Time) error
}

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{DB: db}
}

const userColumns = `
	id, name, email, password_hash, role_id,
	two_factor_verified_at,
	refresh_token, refresh_expires_at, refresh_revoked,
	created_at
`

func scanUser(row interface{ Scan(dest ...any) error }) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.RoleID,
		&u.TwoFactorVerifiedAt,
		&u.RefreshToken, &u.RefreshExpiresAt, &u.RefreshRevoked,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *userRepository) Create(user *models.User) error {
	const q = `
		INSERT INTO users (name, email, password_hash, role_id, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, created_at
	`
	if err := r.DB.QueryRow(q, user.Name, user.Email, user.PasswordHash, user.RoleID).
		Scan(&user.ID, &user.CreatedAt); err != nil {
		return fmt.Errorf("user create: %w", err)
	}
	return nil
}

func (r *userRepository) GetByID(id int) (*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.DB.QueryRow(q, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("user get by id: %w", err)
	}
	return u, nil
}

func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	u, err := scanUser(r.DB.QueryRow(q, email))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("user get by email: %w", err)
	}
	return u, nil
}

func (r *userRepository) List(limit, offset int) ([]*models.User, error) {
	if limit <= 0 {
		limit = 50
	}
	q := `SELECT ` + userColumns + ` FROM users ORDER BY id LIMIT $1 OFFSET $2`
	rows, err := r.DB.Query(q, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("user list: %w", err)
	}
	defer rows.Close()

	var out []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("user list scan: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *userRepository) ListByRole(roleID int) ([]*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE role_id = $1 ORDER BY id`
	rows, err := r.DB.Query(q, roleID)
	if err != nil {
		return nil, fmt.Errorf("user list by role: %w", err)
	}
	defer rows.Close()

	var out []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("user list by role scan: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *userRepository) GetCount() (int, error) {
	var c int
	if err := r.DB.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&c); err != nil {
		return 0, fmt.Errorf("user count: %w", err)
	}
	return c, nil
}

func (r *userRepository) GetCountByRole(roleID int) (int, error) {
	var c int
	if err := r.DB.QueryRow(`SELECT COUNT(*) FROM users WHERE role_id = $1`, roleID).Scan(&c); err != nil {
		return 0, fmt.Errorf("user count by role: %w", err)
	}
	return c, nil
}

func (r *userRepository) UpdateRole(userID, roleID int) error {
	if _, err := r.DB.Exec(`UPDATE users SET role_id = $2 WHERE id = $1`, userID, roleID); err != nil {
		return fmt.Errorf("user update role: %w", err)
	}
	return nil
}

func (r *userRepository) UpdateRefresh(userID int, token string, expiresAt time.Time) error {
	const q = `
		UPDATE users
		SET refresh_token = $2, refresh_expires_at = $3, refresh_revoked = FALSE
		WHERE id = $1
	`
	if _, err := r.DB.Exec(q, userID, token, expiresAt); err != nil {
		return fmt.Errorf("user update refresh: %w", err)
	}
	return nil
}

func (r *userRepository) GetByRefreshToken(token string) (*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE refresh_token = $1`
	u, err := scanUser(r.DB.QueryRow(q, token))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("user get by refresh: %w", err)
	}
	return u, nil
}

func (r *userRepository) ClearRefresh(userID int) error {
	const q = `
		UPDATE users
		SET refresh_token = NULL, refresh_expires_at = NULL, refresh_revoked = FALSE
		WHERE id = $1
	`
	if _, err := r.DB.Exec(q, userID); err != nil {
		return fmt.Errorf("user clear refresh: %w", err)
	}
	return nil
}

func (r *userRepository) SetTwoFactorVerifiedAt(userID int, at time.Time) error {
	if _, err := r.DB.Exec(`UPDATE users SET two_factor_verified_at = $2 WHERE id = $1`, userID, at); err != nil {
		return fmt.Errorf("user set 2fa verified: %w", err)
	}
	return nil
}
