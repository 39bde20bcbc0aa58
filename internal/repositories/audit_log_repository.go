package repositories

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"aitoolshub/internal/models"
)

type AuditLogRepository struct {
	DB *sql.DB
}

func NewAuditLogRepository(db *sql.DB) *AuditLogRepository {
	return &AuditLogRepository{DB: db}
}

func (r *AuditLogRepository) Create(l *models.AuditLog) error {
	const q = `
		INSERT INTO audit_logs (user_id, action, entity_type, entity_id, meta, ip, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING id, created_at
	`
	var meta any
	if len(l.Meta) > 0 {
		meta = []byte(l.Meta)
	}
	if err := r.DB.QueryRow(q, l.UserID, l.Action, l.EntityType, l.EntityID, meta, l.IP, l.UserAgent).
		Scan(&l.ID, &l.CreatedAt); err != nil {
		return fmt.Errorf("audit_log create: %w", err)
	}
	return nil
}

func (r *AuditLogRepository) List(f models.AuditLogFilter) ([]*models.AuditLog, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, strings.Replace(cond, "?", "$"+strconv.Itoa(len(args)), 1))
	}

	if f.UserID != 0 {
		add("user_id = ?", f.UserID)
	}
	if f.Action != "" {
		add("action = ?", f.Action)
	}
	if f.From != nil {
		add("created_at >= ?", *f.From)
	}
	if f.To != nil {
		add("created_at <= ?", *f.To)
	}

	q := `
		SELECT id, user_id, action, entity_type, entity_id, meta, ip, user_agent, created_at
		FROM audit_logs
	`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC"

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	q += " LIMIT $" + strconv.Itoa(len(args))
	args = append(args, f.Offset)
	q += " OFFSET $" + strconv.Itoa(len(args))

	rows, err := r.DB.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("audit_log list: %w", err)
	}
	defer rows.Close()

	var out []*models.AuditLog
	for rows.Next() {
		var l models.AuditLog
		var meta sql.NullString
		if err := rows.Scan(&l.ID, &l.UserID, &l.Action, &l.EntityType, &l.EntityID, &meta, &l.IP, &l.UserAgent, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("audit_log list scan: %w", err)
		}
		if meta.Valid {
			l.Meta = []byte(meta.String)
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}

// DistinctActions backs the admin filter dropdown.
func (r *AuditLogRepository) DistinctActions() ([]string, error) {
	rows, err := r.DB.Query(`SELECT DISTINCT action FROM audit_logs ORDER BY action`)
	if err != nil {
		return nil, fmt.Errorf("audit_log actions: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, fmt.Errorf("audit_log actions scan: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AuditLogRepository) CountByAction() ([]models.AuditActionCount, error) {
	rows, err := r.DB.Query(`SELECT action, COUNT(*) FROM audit_logs GROUP BY action ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, fmt.Errorf("audit_log summary: %w", err)
	}
	defer rows.Close()

	var out []models.AuditActionCount
	for rows.Next() {
		var c models.AuditActionCount
		if err := rows.Scan(&c.Action, &c.Count); err != nil {
			return nil, fmt.Errorf("audit_log summary scan: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
