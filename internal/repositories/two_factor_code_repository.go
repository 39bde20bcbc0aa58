package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"aitoolshub/internal/models"
)

type TwoFactorCodeRepository struct {
	DB *sql.DB
}

func NewTwoFactorCodeRepository(db *sql.DB) *TwoFactorCodeRepository {
	return &TwoFactorCodeRepository{DB: db}
}

// Create supersedes any still-valid codes and inserts the new row in one
// transaction, so there is no window where two valid codes coexist.
func (r *TwoFactorCodeRepository) Create(userID int, codeHash string, expiresAt time.Time) (int64, error) {
	tx, err := r.DB.Begin()
	if err != nil {
		return 0, fmt.Errorf("two_factor_code create begin: %w", err)
	}
	defer tx.Rollback()

	const supersede = `
		UPDATE two_factor_codes
		SET consumed_at = NOW()
		WHERE user_id = $1 AND consumed_at IS NULL AND expires_at > NOW()
	`
	if _, err := tx.Exec(supersede, userID); err != nil {
		return 0, fmt.Errorf("two_factor_code supersede: %w", err)
	}

	const insert = `
		INSERT INTO two_factor_codes (user_id, code_hash, expires_at, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id
	`
	var id int64
	if err := tx.QueryRow(insert, userID, codeHash, expiresAt).Scan(&id); err != nil {
		return 0, fmt.Errorf("two_factor_code insert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("two_factor_code create commit: %w", err)
	}
	return id, nil
}

// GetLatestValidByUserID returns the newest unexpired, unconsumed code for
// the user, or nil when none exists.
func (r *TwoFactorCodeRepository) GetLatestValidByUserID(userID int) (*models.TwoFactorCode, error) {
	const q = `
		SELECT id, user_id, code_hash, expires_at, consumed_at, created_at
		FROM two_factor_codes
		WHERE user_id = $1 AND consumed_at IS NULL AND expires_at > NOW()
		ORDER BY created_at DESC
		LIMIT 1
	`
	row := r.DB.QueryRow(q, userID)
	var c models.TwoFactorCode
	if err := row.Scan(&c.ID, &c.UserID, &c.CodeHash, &c.ExpiresAt, &c.ConsumedAt, &c.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("two_factor_code latest valid: %w", err)
	}
	return &c, nil
}

// MarkConsumed is a no-op for an already-consumed row (consumed_at is only
// ever set once).
func (r *TwoFactorCodeRepository) MarkConsumed(id int64) error {
	const q = `
		UPDATE two_factor_codes
		SET consumed_at = NOW()
		WHERE id = $1 AND consumed_at IS NULL
	`
	if _, err := r.DB.Exec(q, id); err != nil {
		return fmt.Errorf("two_factor_code mark consumed: %w", err)
	}
	return nil
}

// DeleteExpiredConsumed is storage hygiene only; correctness never depends
// on it (validity is checked at read time).
func (r *TwoFactorCodeRepository) DeleteExpiredConsumed(olderThan time.Time) (int64, error) {
	const q = `
		DELETE FROM two_factor_codes
		WHERE consumed_at IS NOT NULL AND expires_at < $1
	`
	res, err := r.DB.Exec(q, olderThan)
	if err != nil {
		return 0, fmt.Errorf("two_factor_code gc: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
