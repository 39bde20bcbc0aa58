package models

import "time"

// Rating — one row per (user, tool); writes are upserts.
type Rating struct {
	ID        int64     `json:"id"`
	ToolID    int64     `json:"tool_id"`
	UserID    int       `json:"user_id"`
	Value     int       `json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
