package repositories

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"aitoolshub/internal/models"
)

type ToolRepository struct {
	DB *sql.DB
}

func NewToolRepository(db *sql.DB) *ToolRepository {
	return &ToolRepository{DB: db}
}

const toolColumns = `
	id, name, slug, link, documentation_link, description, how_to_use,
	user_id, status, approved_by, reviewed_at, is_featured,
	views_count, average_rating, ratings_count, created_at, updated_at
`

func scanTool(row interface{ Scan(dest ...any) error }) (*models.Tool, error) {
	t := &models.Tool{}
	err := row.Scan(
		&t.ID, &t.Name, &t.Slug, &t.Link, &t.DocumentationLink, &t.Description, &t.HowToUse,
		&t.UserID, &t.Status, &t.ApprovedBy, &t.ReviewedAt, &t.IsFeatured,
		&t.ViewsCount, &t.AverageRating, &t.RatingsCount, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *ToolRepository) Create(t *models.Tool) error {
	const q = `
		INSERT INTO tools (
			name, slug, link, documentation_link, description, how_to_use,
			user_id, status, is_featured, views_count,
			average_rating, ratings_count, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,FALSE,0,0,0,NOW(),NOW())
		RETURNING id, created_at, updated_at
	`
	err := r.DB.QueryRow(q,
		t.Name, t.Slug, t.Link, t.DocumentationLink, t.Description, t.HowToUse,
		t.UserID, t.Status,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("tool create: %w", err)
	}
	return nil
}

func (r *ToolRepository) GetByID(id int64) (*models.Tool, error) {
	q := `SELECT ` + toolColumns + ` FROM tools WHERE id = $1`
	t, err := scanTool(r.DB.QueryRow(q, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("tool get: %w", err)
	}
	return t, nil
}

func (r *ToolRepository) SlugExists(slug string) (bool, error) {
	var exists bool
	const q = `SELECT EXISTS(SELECT 1 FROM tools WHERE slug = $1)`
	if err := r.DB.QueryRow(q, slug).Scan(&exists); err != nil {
		return false, fmt.Errorf("tool slug exists: %w", err)
	}
	return exists, nil
}

func (r *ToolRepository) List(f models.ToolFilter) ([]*models.Tool, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, strings.Replace(cond, "?", "$"+strconv.Itoa(len(args)), 1))
	}

	if f.Status != "" {
		add("status = ?", f.Status)
	}
	if f.OwnerID != 0 {
		add("user_id = ?", f.OwnerID)
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		p := strconv.Itoa(len(args))
		where = append(where, "(name ILIKE $"+p+" OR description ILIKE $"+p+")")
	}
	if f.Featured {
		where = append(where, "is_featured = TRUE")
	}
	if f.CategoryID != 0 {
		add("id IN (SELECT tool_id FROM tool_category WHERE category_id = ?)", f.CategoryID)
	}
	if f.TagID != 0 {
		add("id IN (SELECT tool_id FROM tool_tag WHERE tag_id = ?)", f.TagID)
	}

	q := `SELECT ` + toolColumns + ` FROM tools`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY is_featured DESC, created_at DESC"

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)
	q += " LIMIT $" + strconv.Itoa(len(args))
	args = append(args, f.Offset)
	q += " OFFSET $" + strconv.Itoa(len(args))

	rows, err := r.DB.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("tool list: %w", err)
	}
	defer rows.Close()

	var out []*models.Tool
	for rows.Next() {
		t, err := scanTool(rows)
		if err != nil {
			return nil, fmt.Errorf("tool list scan: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *ToolRepository) Update(t *models.Tool) error {
	const q = `
		UPDATE tools
		SET name = $2, link = $3, documentation_link = $4,
		    description = $5, how_to_use = $6, updated_at = NOW()
		WHERE id = $1
	`
	if _, err := r.DB.Exec(q, t.ID, t.Name, t.Link, t.DocumentationLink, t.Description, t.HowToUse); err != nil {
		return fmt.Errorf("tool update: %w", err)
	}
	return nil
}

func (r *ToolRepository) Delete(id int64) error {
	if _, err := r.DB.Exec(`DELETE FROM tools WHERE id = $1`, id); err != nil {
		return fmt.Errorf("tool delete: %w", err)
	}
	return nil
}

func (r *ToolRepository) IncrementViews(id int64) error {
	if _, err := r.DB.Exec(`UPDATE tools SET views_count = views_count + 1 WHERE id = $1`, id); err != nil {
		return fmt.Errorf("tool increment views: %w", err)
	}
	return nil
}

// SetStatus records the moderation decision together with who made it.
func (r *ToolRepository) SetStatus(id int64, status string, reviewerID int) error {
	const q = `
		UPDATE tools
		SET status = $2, approved_by = $3, reviewed_at = NOW(), updated_at = NOW()
		WHERE id = $1
	`
	if _, err := r.DB.Exec(q, id, status, reviewerID); err != nil {
		return fmt.Errorf("tool set status: %w", err)
	}
	return nil
}

func (r *ToolRepository) SetFeatured(id int64, featured bool) error {
	const q = `UPDATE tools SET is_featured = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.DB.Exec(q, id, featured); err != nil {
		return fmt.Errorf("tool set featured: %w", err)
	}
	return nil
}

// RefreshRatingAggregates recomputes average_rating/ratings_count from the
// ratings table after any rating write.
func (r *ToolRepository) RefreshRatingAggregates(toolID int64) error {
	const q = `
		UPDATE tools
		SET average_rating = COALESCE((SELECT ROUND(AVG(value)::numeric, 2) FROM ratings WHERE tool_id = $1), 0),
		    ratings_count  = (SELECT COUNT(*) FROM ratings WHERE tool_id = $1),
		    updated_at = NOW()
		WHERE id = $1
	`
	if _, err := r.DB.Exec(q, toolID); err != nil {
		return fmt.Errorf("tool refresh rating aggregates: %w", err)
	}
	return nil
}

func (r *ToolRepository) CountByStatus() (map[string]int, error) {
	rows, err := r.DB.Query(`SELECT status, COUNT(*) FROM tools GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("tool count by status: %w", err)
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var status string
		var c int
		if err := rows.Scan(&status, &c); err != nil {
			return nil, fmt.Errorf("tool count scan: %w", err)
		}
		out[status] = c
	}
	return out, rows.Err()
}
