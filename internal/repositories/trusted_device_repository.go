package repositories

import (
	"database/sql"
	"fmt"

	"aitoolshub/internal/models"
)

type TrustedDeviceRepository struct {
	DB *sql.DB
}

func NewTrustedDeviceRepository(db *sql.DB) *TrustedDeviceRepository {
	return &TrustedDeviceRepository{DB: db}
}

func (r *TrustedDeviceRepository) Create(d *models.TrustedDevice) error {
	const q = `
		INSERT INTO trusted_devices (
			user_id, token_hash, device_name, fingerprint,
			ip_address, user_agent, last_used_at, expires_at,
			created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW(),NOW())
		RETURNING id, created_at, updated_at
	`
	err := r.DB.QueryRow(q,
		d.UserID,
		d.TokenHash,
		d.DeviceName,
		d.Fingerprint,
		d.IPAddress,
		d.UserAgent,
		d.LastUsedAt,
		d.ExpiresAt,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("trusted_device create: %w", err)
	}
	return nil
}

// GetActiveByUserAndTokenHash — lookup is always (user, hash, unexpired).
func (r *TrustedDeviceRepository) GetActiveByUserAndTokenHash(userID int, tokenHash string) (*models.TrustedDevice, error) {
	const q = `
		SELECT id, user_id, token_hash, device_name, fingerprint,
		       ip_address, user_agent, last_used_at, expires_at,
		       created_at, updated_at
		FROM trusted_devices
		WHERE user_id = $1 AND token_hash = $2 AND expires_at > NOW()
		LIMIT 1
	`
	row := r.DB.QueryRow(q, userID, tokenHash)
	var d models.TrustedDevice
	err := row.Scan(&d.ID, &d.UserID, &d.TokenHash, &d.DeviceName, &d.Fingerprint,
		&d.IPAddress, &d.UserAgent, &d.LastUsedAt, &d.ExpiresAt,
		&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("trusted_device get active: %w", err)
	}
	return &d, nil
}

func (r *TrustedDeviceRepository) TouchLastUsed(id int64) error {
	const q = `
		UPDATE trusted_devices
		SET last_used_at = NOW(), updated_at = NOW()
		WHERE id = $1
	`
	if _, err := r.DB.Exec(q, id); err != nil {
		return fmt.Errorf("trusted_device touch: %w", err)
	}
	return nil
}

func (r *TrustedDeviceRepository) ListActiveByUserID(userID int) ([]*models.TrustedDevice, error) {
	const q = `
		SELECT id, user_id, token_hash, device_name, fingerprint,
		       ip_address, user_agent, last_used_at, expires_at,
		       created_at, updated_at
		FROM trusted_devices
		WHERE user_id = $1 AND expires_at > NOW()
		ORDER BY last_used_at DESC
	`
	rows, err := r.DB.Query(q, userID)
	if err != nil {
		return nil, fmt.Errorf("trusted_device list: %w", err)
	}
	defer rows.Close()

	var out []*models.TrustedDevice
	for rows.Next() {
		var d models.TrustedDevice
		if err := rows.Scan(&d.ID, &d.UserID, &d.TokenHash, &d.DeviceName, &d.Fingerprint,
			&d.IPAddress, &d.UserAgent, &d.LastUsedAt, &d.ExpiresAt,
			&d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("trusted_device list scan: %w", err)
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

// DeleteByIDForUser returns whether a row was actually removed, so the
// handler can answer 404 for a device the caller does not own.
func (r *TrustedDeviceRepository) DeleteByIDForUser(userID int, id int64) (bool, error) {
	const q = `DELETE FROM trusted_devices WHERE id = $1 AND user_id = $2`
	res, err := r.DB.Exec(q, id, userID)
	if err != nil {
		return false, fmt.Errorf("trusted_device delete: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *TrustedDeviceRepository) DeleteAllForUser(userID int) (int64, error) {
	const q = `DELETE FROM trusted_devices WHERE user_id = $1`
	res, err := r.DB.Exec(q, userID)
	if err != nil {
		return 0, fmt.Errorf("trusted_device delete all: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// DeleteExpiredForUser — opportunistic cleanup before inserting a new device.
func (r *TrustedDeviceRepository) DeleteExpiredForUser(userID int) error {
	const q = `DELETE FROM trusted_devices WHERE user_id = $1 AND expires_at < NOW()`
	if _, err := r.DB.Exec(q, userID); err != nil {
		return fmt.Errorf("trusted_device delete expired: %w", err)
	}
	return nil
}
