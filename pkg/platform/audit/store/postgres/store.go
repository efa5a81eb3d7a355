package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"catalog/pkg/domain"
	audit "catalog/pkg/platform/audit"
	"catalog/pkg/platform/sentinel"
	"catalog/pkg/platform/sqlutil"
)

// Store implements audit.Store over the audit_logs table. The table rejects
// UPDATE and DELETE, so the ledger is append-only at the storage layer too.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append inserts rec and returns the generated id. A missing actor surfaces as
// sentinel.ErrNotFound.
func (s *Store) Append(ctx context.Context, rec *audit.Record) (int64, error) {
	query := `
		INSERT INTO audit_logs (user_id, action, entity_type, entity_id, details, request_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	var id int64
	err := s.db.QueryRowContext(ctx, query,
		rec.ActorID,
		rec.Action,
		rec.EntityType,
		nullableID(rec.EntityID),
		[]byte(rec.Details),
		rec.RequestID,
		rec.CreatedAt,
	).Scan(&id)
	if err != nil {
		if sqlutil.IsForeignKeyViolation(err) {
			return 0, fmt.Errorf("insert audit record: actor %d: %w", rec.ActorID, sentinel.ErrNotFound)
		}
		return 0, fmt.Errorf("insert audit record: %w", err)
	}
	return id, nil
}

// List returns matching records newest first with the actor's username and
// role joined in.
func (s *Store) List(ctx context.Context, filter audit.Filter) (*audit.Page, error) {
	where := buildWhere(filter)

	var total int
	countQuery := `SELECT COUNT(*) FROM audit_logs a` + where.SQL()
	if err := s.db.QueryRowContext(ctx, countQuery, where.Args()...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count audit records: %w", err)
	}

	args := where.Args()
	query := `
		SELECT a.id, a.user_id, a.action, a.entity_type, a.entity_id, a.details, a.request_id, a.created_at,
		       u.username, r.name
		FROM audit_logs a
		JOIN users u ON u.id = a.user_id
		JOIN roles r ON r.id = u.role_id` + where.SQL() + `
		ORDER BY a.created_at DESC, a.id DESC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", where.Next(), where.Next()+1)
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit records: %w", err)
	}
	defer rows.Close()

	page := &audit.Page{Total: total, Records: []*audit.Record{}}
	for rows.Next() {
		var (
			rec      audit.Record
			entityID sql.NullInt64
			details  []byte
			username string
			role     string
		)
		if err := rows.Scan(&rec.ID, &rec.ActorID, &rec.Action, &rec.EntityType, &entityID,
			&details, &rec.RequestID, &rec.CreatedAt, &username, &role); err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}
		if entityID.Valid {
			rec.EntityID = audit.Int64(entityID.Int64)
		}
		rec.Details = details
		rec.CreatedAt = rec.CreatedAt.UTC()
		rec.Actor = &audit.Actor{ID: rec.ActorID, Username: username, Role: domain.RoleName(role)}
		page.Records = append(page.Records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit records: %w", err)
	}
	return page, nil
}

func buildWhere(f audit.Filter) *sqlutil.Where {
	w := &sqlutil.Where{}
	if f.ActorID != nil {
		w.Add("a.user_id = $%d", *f.ActorID)
	}
	if f.Action != "" {
		w.Add("a.action = $%d", f.Action)
	}
	if f.EntityType != "" {
		w.Add("a.entity_type = $%d", f.EntityType)
	}
	if f.EntityID != nil {
		w.Add("a.entity_id = $%d", *f.EntityID)
	}
	if f.From != nil {
		w.Add("a.created_at >= $%d", *f.From)
	}
	if f.To != nil {
		w.Add("a.created_at <= $%d", *f.To)
	}
	return w
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}
