package repositories

import (
	"database/sql"
	"fmt"

	"aitoolshub/internal/models"
)

type RatingRepository struct {
	DB *sql.DB
}

func NewRatingRepository(db *sql.DB) *RatingRepository {
	return &RatingRepository{DB: db}
}

// Upsert — one rating per (tool, user); a second write overwrites the value.
func (r *RatingRepository) Upsert(rating *models.Rating) error {
	const q = `
		INSERT INTO ratings (tool_id, user_id, value, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (tool_id, user_id)
		DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	if err := r.DB.QueryRow(q, rating.ToolID, rating.UserID, rating.Value).
		Scan(&rating.ID, &rating.CreatedAt, &rating.UpdatedAt); err != nil {
		return fmt.Errorf("rating upsert: %w", err)
	}
	return nil
}

func (r *RatingRepository) GetByToolAndUser(toolID int64, userID int) (*models.Rating, error) {
	const q = `
		SELECT id, tool_id, user_id, value, created_at, updated_at
		FROM ratings
		WHERE tool_id = $1 AND user_id = $2
	`
	var rt models.Rating
	if err := r.DB.QueryRow(q, toolID, userID).
		Scan(&rt.ID, &rt.ToolID, &rt.UserID, &rt.Value, &rt.CreatedAt, &rt.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("rating get: %w", err)
	}
	return &rt, nil
}

func (r *RatingRepository) GetByID(id int64) (*models.Rating, error) {
	const q = `
		SELECT id, tool_id, user_id, value, created_at, updated_at
		FROM ratings
		WHERE id = $1
	`
	var rt models.Rating
	if err := r.DB.QueryRow(q, id).
		Scan(&rt.ID, &rt.ToolID, &rt.UserID, &rt.Value, &rt.CreatedAt, &rt.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("rating get by id: %w", err)
	}
	return &rt, nil
}

func (r *RatingRepository) DeleteByIDForUser(id int64, userID int) (bool, error) {
	res, err := r.DB.Exec(`DELETE FROM ratings WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("rating delete: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
