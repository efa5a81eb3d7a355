package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"catalog/internal/product/models"
	"catalog/pkg/platform/sentinel"
	"catalog/pkg/platform/sqlutil"
)

const productColumns = `id, name, category, description, price, stock, created_at, updated_at`

// PostgresStore persists products in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed product store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (name, category, description, price, stock, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := s.db.QueryRowContext(ctx, query,
		p.Name, p.Category, p.Description, p.Price, p.Stock, p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	p, err := scanProduct(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find product: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) List(ctx context.Context, q models.ListQuery) (*models.ListResult, error) {
	where := &sqlutil.Where{}
	if q.Search != "" {
		pattern := sqlutil.ContainsPattern(q.Search)
		where.Add(`(name ILIKE $%d OR category ILIKE $%d)`, pattern, pattern)
	}
	if q.Category != "" {
		where.Add(`category = $%d`, q.Category)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`+where.SQL(), where.Args()...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	col := q.SortBy.Column()
	if col == "" {
		col = models.SortCreatedAt.Column()
	}
	args := where.Args()
	query := `SELECT ` + productColumns + ` FROM products` + where.SQL() + sqlutil.OrderBy(col, q.Desc)
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", where.Next(), where.Next()+1)
		args = append(args, q.Limit, q.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	result := &models.ListResult{Total: total, Products: []*models.Product{}}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		result.Products = append(result.Products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return result, nil
}

func (s *PostgresStore) Update(ctx context.Context, p *models.Product) error {
	query := `
		UPDATE products
		SET name = $2, category = $3, description = $4, price = $5, stock = $6, updated_at = $7
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query, p.ID, p.Name, p.Category, p.Description, p.Price, p.Stock, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return requireRow(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*models.Product, error) {
	var p models.Product
	if err := row.Scan(&p.ID, &p.Name, &p.Category, &p.Description, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
