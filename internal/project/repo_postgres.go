package project

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PostgresRepo stores projects in the projects table:
//
//	id TEXT PRIMARY KEY, name TEXT, manager_id TEXT, contractor_id TEXT,
//	status TEXT, created_at TIMESTAMPTZ, updated_at TIMESTAMPTZ
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Save(ctx context.Context, p Project) error {
	const q = `
INSERT INTO projects (id, name, manager_id, contractor_id, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`
	_, err := r.db.ExecContext(ctx, q, p.ID, p.Name, p.ManagerID, p.ContractorID, p.Status, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (Project, error) {
	const q = `
SELECT id, name, manager_id, contractor_id, status, created_at, updated_at
FROM projects
WHERE id = $1
`
	var p Project
	if err := r.db.QueryRowContext(ctx, q, id).Scan(
		&p.ID, &p.Name, &p.ManagerID, &p.ContractorID, &p.Status, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Project{}, ErrNotFound
		}
		return Project{}, err
	}
	return p, nil
}

// UpdateStatus is a compare-and-set on status; zero rows means a concurrent
// transition won and this one reports ErrInvalidTransition.
func (r *PostgresRepo) UpdateStatus(ctx context.Context, id string, from, to Status, updatedAt time.Time) error {
	const q = `
UPDATE projects
SET status = $3, updated_at = $4
WHERE id = $1 AND status = $2
`
	res, err := r.db.ExecContext(ctx, q, id, from, to, updatedAt)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInvalidTransition
	}
	return nil
}

func (r *PostgresRepo) ListByManager(ctx context.Context, managerID string) ([]Project, error) {
	const q = `
SELECT id, name, manager_id, contractor_id, status, created_at, updated_at
FROM projects
WHERE manager_id = $1
ORDER BY created_at ASC
`
	rows, err := r.db.QueryContext(ctx, q, managerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Name, &p.ManagerID, &p.ContractorID, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
