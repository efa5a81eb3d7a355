package role

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"catalog/internal/auth/models"
	"catalog/pkg/domain"
	"catalog/pkg/platform/sentinel"
	"catalog/pkg/platform/tx"
)

// PostgresStore reads and seeds the roles table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed role store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureAll upserts every role by name in one transaction; existing rows are
// left untouched.
func (s *PostgresStore) EnsureAll(ctx context.Context, names []domain.RoleName) error {
	query := `INSERT INTO roles (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`
	return tx.Run(ctx, s.db, func(ctx context.Context) error {
		q := tx.Use(ctx, s.db)
		for _, name := range names {
			if _, err := q.ExecContext(ctx, query, string(name)); err != nil {
				return fmt.Errorf("ensure role %s: %w", name, err)
			}
		}
		return nil
	})
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*models.Role, error) {
	return s.findOne(ctx, `SELECT id, name FROM roles WHERE id = $1`, id)
}

func (s *PostgresStore) FindByName(ctx context.Context, name domain.RoleName) (*models.Role, error) {
	return s.findOne(ctx, `SELECT id, name FROM roles WHERE name = $1`, string(name))
}

func (s *PostgresStore) findOne(ctx context.Context, query string, arg any) (*models.Role, error) {
	var (
		r    models.Role
		name string
	)
	if err := s.db.QueryRowContext(ctx, query, arg).Scan(&r.ID, &name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find role: %w", err)
	}
	r.Name = domain.RoleName(name)
	return &r, nil
}
