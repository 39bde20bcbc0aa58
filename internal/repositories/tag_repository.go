package repositories

import (
	"database/sql"
	"fmt"

	"aitoolshub/internal/models"
)

type TagRepository struct {
	DB *sql.DB
}

func NewTagRepository(db *sql.DB) *TagRepository {
	return &TagRepository{DB: db}
}

func (r *TagRepository) List() ([]*models.Tag, error) {
	const q = `SELECT id, name, slug, created_at FROM tags ORDER BY name`
	rows, err := r.DB.Query(q)
	if err != nil {
		return nil, fmt.Errorf("tag list: %w", err)
	}
	defer rows.Close()

	var out []*models.Tag
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("tag list scan: %w", err)
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

func (r *TagRepository) GetByID(id int64) (*models.Tag, error) {
	const q = `SELECT id, name, slug, created_at FROM tags WHERE id = $1`
	var t models.Tag
	if err := r.DB.QueryRow(q, id).Scan(&t.ID, &t.Name, &t.Slug, &t.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("tag get: %w", err)
	}
	return &t, nil
}

func (r *TagRepository) GetBySlug(slug string) (*models.Tag, error) {
	const q = `SELECT id, name, slug, created_at FROM tags WHERE slug = $1`
	var t models.Tag
	if err := r.DB.QueryRow(q, slug).Scan(&t.ID, &t.Name, &t.Slug, &t.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("tag get by slug: %w", err)
	}
	return &t, nil
}

func (r *TagRepository) Create(t *models.Tag) error {
	const q = `
		INSERT INTO tags (name, slug, created_at)
		VALUES ($1, $2, NOW())
		RETURNING id, created_at
	`
	if err := r.DB.QueryRow(q, t.Name, t.Slug).Scan(&t.ID, &t.CreatedAt); err != nil {
		return fmt.Errorf("tag create: %w", err)
	}
	return nil
}
