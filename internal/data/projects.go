package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Project is one stored sizing calculation: the original request kept for
// replay plus the result produced from it.
type Project struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	ContactEmail string          `json:"contact_email,omitempty"`
	Request      json.RawMessage `json:"request"`
	Result       json.RawMessage `json:"result"`
	Feasible     bool            `json:"feasible"`
	TotalDevices int             `json:"total_devices"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	DeletedAt    *time.Time      `json:"deleted_at,omitempty"`
}

type ProjectFilter struct {
	Name         string
	FeasibleOnly bool
}

type ProjectModel struct {
	DB DBTX
}

// Create inserts a stored calculation. ID and timestamps come back from
// the database.
func (m ProjectModel) Create(ctx context.Context, p *Project) error {
	query := `
		INSERT INTO projects (name, contact_email, request, result, feasible, total_devices)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	return m.DB.QueryRowContext(ctx, query,
		p.Name, p.ContactEmail, p.Request, p.Result, p.Feasible, p.TotalDevices,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (m ProjectModel) GetByID(ctx context.Context, id uuid.UUID) (*Project, error) {
	query := `
		SELECT id, name, contact_email, request, result, feasible, total_devices, created_at, updated_at
		FROM projects
		WHERE id = $1 AND deleted_at IS NULL`

	var p Project
	err := m.DB.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.ContactEmail, &p.Request, &p.Result,
		&p.Feasible, &p.TotalDevices, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns projects newest first with the total row count for paging.
func (m ProjectModel) List(ctx context.Context, filter ProjectFilter, limit, offset int) ([]*Project, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	where := "deleted_at IS NULL"
	args := []any{}
	if filter.Name != "" {
		args = append(args, "%"+filter.Name+"%")
		where += " AND name ILIKE $1"
	}
	if filter.FeasibleOnly {
		where += " AND feasible = TRUE"
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM projects WHERE " + where
	if err := m.DB.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	nextArg := len(args) + 1
	query := fmt.Sprintf(`
		SELECT id, name, contact_email, request, result, feasible, total_devices, created_at, updated_at
		FROM projects
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, where, nextArg, nextArg+1)
	args = append(args, limit, offset)

	rows, err := m.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(
			&p.ID, &p.Name, &p.ContactEmail, &p.Request, &p.Result,
			&p.Feasible, &p.TotalDevices, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		out = append(out, &p)
	}
	return out, total, rows.Err()
}

func (m ProjectModel) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE projects SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	res, err := m.DB.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRecordNotFound
	}
	return nil
}
