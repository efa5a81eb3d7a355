// Package sqlutil holds the small query-building and error-classification
// helpers shared by the Postgres stores.
package sqlutil

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// Where accumulates AND-ed conditions with positional ($n) placeholders.
type Where struct {
	clauses []string
	args    []any
}

// Add appends a condition. format receives one %d verb per argument, which is
// replaced with that argument's placeholder index.
func (w *Where) Add(format string, args ...any) {
	idx := make([]any, len(args))
	for i, arg := range args {
		w.args = append(w.args, arg)
		idx[i] = len(w.args)
	}
	w.clauses = append(w.clauses, fmt.Sprintf(format, idx...))
}

// SQL renders the WHERE clause, or "" when no condition was added.
func (w *Where) SQL() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// Args returns the accumulated arguments.
func (w *Where) Args() []any {
	return append([]any(nil), w.args...)
}

// Next returns the placeholder index the next argument will take.
func (w *Where) Next() int {
	return len(w.args) + 1
}

// OrderBy renders an ORDER BY clause for an allow-listed column. The column is
// quoted so it can never be interpreted as anything but an identifier.
func OrderBy(column string, desc bool) string {
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, id %s", pq.QuoteIdentifier(column), dir, dir)
}

// ContainsPattern builds an ILIKE pattern matching s anywhere, with LIKE
// wildcards in s escaped.
func ContainsPattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

// IsUniqueViolation reports whether err is a Postgres unique_violation.
func IsUniqueViolation(err error) bool {
	return hasCode(err, uniqueViolation)
}

// IsForeignKeyViolation reports whether err is a Postgres foreign_key_violation.
func IsForeignKeyViolation(err error) bool {
	return hasCode(err, foreignKeyViolation)
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return false
}
