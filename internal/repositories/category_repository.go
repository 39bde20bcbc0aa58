package repositories

import (
	"database/sql"
	"fmt"

	"aitoolshub/internal/models"
)

type CategoryRepository struct {
	DB *sql.DB
}

func NewCategoryRepository(db *sql.DB) *CategoryRepository {
	return &CategoryRepository{DB: db}
}

func (r *CategoryRepository) List() ([]*models.Category, error) {
	const q = `SELECT id, name, slug, description, created_at FROM categories ORDER BY name`
	rows, err := r.DB.Query(q)
	if err != nil {
		return nil, fmt.Errorf("category list: %w", err)
	}
	defer rows.Close()

	var out []*models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("category list scan: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (r *CategoryRepository) GetByID(id int64) (*models.Category, error) {
	const q = `SELECT id, name, slug, description, created_at FROM categories WHERE id = $1`
	var c models.Category
	if err := r.DB.QueryRow(q, id).Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("category get: %w", err)
	}
	return &c, nil
}
