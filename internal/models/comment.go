package models

import "time"

type Comment struct {
	ID         int64     `json:"id"`
	ToolID     int64     `json:"tool_id"`
	UserID     int       `json:"user_id"`
	AuthorName string    `json:"author_name,omitempty"`
	ParentID   *int64    `json:"parent_id,omitempty"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
