package identity

import (
	"context"
	"database/sql"
	"errors"
)

// Partition tables. One table per partition; the role-specific profile columns
// live alongside these and are not read here.
var partitionTables = map[Partition]string{
	PartitionSupplier:       "users_supplier",
	PartitionContractor:     "users_contractor",
	PartitionProjectManager: "users_project_manager",
	PartitionGovernment:     "users_govt",
	PartitionSupervisor:     "users_supervisor",
}

// PostgresStore is one partition backed by its Postgres table.
type PostgresStore struct {
	db        *sql.DB
	partition Partition
	table     string
}

func NewPostgresStore(db *sql.DB, p Partition) (*PostgresStore, error) {
	table, ok := partitionTables[p]
	if !ok {
		return nil, ErrInvalidArgument
	}
	return &PostgresStore{db: db, partition: p, table: table}, nil
}

// NewPostgresStores returns one store per partition, in probe order.
func NewPostgresStores(db *sql.DB) ([]*PostgresStore, error) {
	out := make([]*PostgresStore, 0, len(ProbeOrder))
	for _, p := range ProbeOrder {
		s, err := NewPostgresStore(db, p)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (s *PostgresStore) Partition() Partition { return s.partition }

func (s *PostgresStore) FindByUsername(ctx context.Context, username string) (Account, error) {
	// Table name comes from the closed partitionTables map, never from input.
	q := `
SELECT id, username, password_hash, created_at
FROM ` + s.table + `
WHERE username = $1
`
	return s.scanOne(ctx, q, username)
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (Account, error) {
	q := `
SELECT id, username, password_hash, created_at
FROM ` + s.table + `
WHERE id = $1
`
	return s.scanOne(ctx, q, id)
}

func (s *PostgresStore) Create(ctx context.Context, a Account) error {
	q := `
INSERT INTO ` + s.table + ` (id, username, password_hash, created_at)
VALUES ($1, $2, $3, $4)
`
	_, err := s.db.ExecContext(ctx, q, a.ID, a.Username, a.PasswordHash, a.CreatedAt)
	return err
}

func (s *PostgresStore) scanOne(ctx context.Context, q string, arg any) (Account, error) {
	var a Account
	if err := s.db.QueryRowContext(ctx, q, arg).Scan(
		&a.ID,
		&a.Username,
		&a.PasswordHash,
		&a.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	a.Partition = s.partition
	a.Roles = []string{s.partition.Role()}
	return a, nil
}
