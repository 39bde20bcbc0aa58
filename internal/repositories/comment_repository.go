package repositories

import (
	"database/sql"
	"fmt"

	"aitoolshub/internal/models"
)

type CommentRepository struct {
	DB *sql.DB
}

func NewCommentRepository(db *sql.DB) *CommentRepository {
	return &CommentRepository{DB: db}
}

func (r *CommentRepository) Create(c *models.Comment) error {
	const q = `
		INSERT INTO comments (tool_id, user_id, parent_id, body, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	if err := r.DB.QueryRow(q, c.ToolID, c.UserID, c.ParentID, c.Body).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return fmt.Errorf("comment create: %w", err)
	}
	return nil
}

func (r *CommentRepository) GetByID(id int64) (*models.Comment, error) {
	const q = `
		SELECT id, tool_id, user_id, parent_id, body, created_at, updated_at
		FROM comments
		WHERE id = $1
	`
	var c models.Comment
	if err := r.DB.QueryRow(q, id).
		Scan(&c.ID, &c.ToolID, &c.UserID, &c.ParentID, &c.Body, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("comment get: %w", err)
	}
	return &c, nil
}

// ListByToolID joins the author name for display.
func (r *CommentRepository) ListByToolID(toolID int64) ([]*models.Comment, error) {
	const q = `
		SELECT c.id, c.tool_id, c.user_id, u.name, c.parent_id, c.body, c.created_at, c.updated_at
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.tool_id = $1
		ORDER BY c.created_at
	`
	rows, err := r.DB.Query(q, toolID)
	if err != nil {
		return nil, fmt.Errorf("comment list: %w", err)
	}
	defer rows.Close()

	var out []*models.Comment
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.ToolID, &c.UserID, &c.AuthorName, &c.ParentID, &c.Body, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("comment list scan: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (r *CommentRepository) Update(id int64, body string) error {
	const q = `UPDATE comments SET body = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.DB.Exec(q, id, body); err != nil {
		return fmt.Errorf("comment update: %w", err)
	}
	return nil
}

func (r *CommentRepository) Delete(id int64) error {
	if _, err := r.DB.Exec(`DELETE FROM comments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("comment delete: %w", err)
	}
	return nil
}
