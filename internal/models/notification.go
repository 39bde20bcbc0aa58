package models

import (
	"encoding/json"
	"time"
)

const (
	NotificationToolSubmitted = "new_tool_submission"
	NotificationToolApproved  = "tool_approved"
	NotificationToolRejected  = "tool_rejected"
	NotificationNewComment    = "new_comment"
	NotificationNewReply      = "new_reply"
	NotificationDeviceTrusted = "trusted_device_added"
	NotificationAccountLocked = "account_locked"
)

type Notification struct {
	ID        int64           `json:"id"`
	UserID    int             `json:"user_id"`
	Type      string          `json:"type"`
	Message   string          `json:"message"`
	ActionURL string          `json:"action_url,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	ReadAt    *time.Time      `json:"read_at"`
	CreatedAt time.Time       `json:"created_at"`
}
