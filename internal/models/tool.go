package models

import "time"

const (
	ToolStatusPending  = "pending"
	ToolStatusApproved = "approved"
	ToolStatusRejected = "rejected"
	ToolStatusArchived = "archived"
)

type Tool struct {
	ID                int64      `json:"id"`
	Name              string     `json:"name"`
	Slug              string     `json:"slug"`
	Link              string     `json:"link"`
	DocumentationLink string     `json:"documentation_link,omitempty"`
	Description       string     `json:"description"`
	HowToUse          string     `json:"how_to_use,omitempty"`
	UserID            int        `json:"user_id"`
	Status            string     `json:"status"`
	ApprovedBy        *int       `json:"approved_by,omitempty"`
	ReviewedAt        *time.Time `json:"reviewed_at,omitempty"`
	IsFeatured        bool       `json:"is_featured"`
	ViewsCount        int        `json:"views_count"`
	AverageRating     float64    `json:"average_rating"`
	RatingsCount      int        `json:"ratings_count"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

type ToolFilter struct {
	Status     string
	OwnerID    int
	CategoryID int64
	TagID      int64
	Search     string
	Featured   bool
	Limit      int
	Offset     int
}
