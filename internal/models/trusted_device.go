package models

import "time"

// TrustedDevice — a client that completed 2FA and opted in to skip it for
// 30 days. TokenHash is sha256 of the plaintext token; the plaintext is
// handed to the client once and never stored. Fingerprint is advisory
// only, it is recorded but not enforced on lookup.
type TrustedDevice struct {
	ID          int64     `json:"id"`
	UserID      int       `json:"-"`
	TokenHash   string    `json:"-"`
	DeviceName  string    `json:"device_name"`
	Fingerprint string    `json:"-"`
	IPAddress   string    `json:"ip_address"`
	UserAgent   string    `json:"-"`
	LastUsedAt  time.Time `json:"last_used_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"-"`
}

func (d *TrustedDevice) IsExpired() bool {
	return time.Now().After(d.ExpiresAt)
}
