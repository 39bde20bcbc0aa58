package models

import (
	"encoding/json"
	"time"
)

// Audit action names; the 2FA handlers emit the otp_* trio.
const (
	AuditLoginSuccess = "login_success"
	AuditLogout       = "logout"
	AuditOtpSent      = "otp_sent"
	AuditOtpVerified  = "otp_verified"
	AuditOtpFailed    = "otp_failed"
	AuditToolApproved = "tool_approved"
	AuditToolRejected = "tool_rejected"
	AuditRoleAssigned = "role_assigned"
)

type AuditLog struct {
	ID         int64           `json:"id"`
	UserID     *int            `json:"user_id"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type,omitempty"`
	EntityID   string          `json:"entity_id,omitempty"`
	Meta       json.RawMessage `json:"meta,omitempty"`
	IP         string          `json:"ip,omitempty"`
	UserAgent  string          `json:"user_agent,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

type AuditLogFilter struct {
	UserID int
	Action string
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

type AuditActionCount struct {
	Action string `json:"action"`
	Count  int    `json:"count"`
}
