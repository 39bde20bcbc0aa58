package models

import "time"

// TwoFactorCode — one row per sent code. Only the bcrypt hash is stored;
// a row is valid while it is unexpired and unconsumed. Rows are never
// updated after consumption (no updated_at column).
type TwoFactorCode struct {
	ID         int64      `json:"id"`
	UserID     int        `json:"user_id"`
	CodeHash   string     `json:"-"`
	ExpiresAt  time.Time  `json:"expires_at"`
	ConsumedAt *time.Time `json:"consumed_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (c *TwoFactorCode) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}

func (c *TwoFactorCode) IsConsumed() bool {
	return c.ConsumedAt != nil
}
