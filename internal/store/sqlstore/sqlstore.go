// Package sqlstore implements store.Store on database/sql. Driver packages
// (postgres, sqlite) open the connection, own the schema and supply a Dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vcalderon2009/note-taker/internal/model"
	"github.com/vcalderon2009/note-taker/internal/store"
)

// Dialect captures the driver differences the shared queries care about.
type Dialect struct {
	Name string
	// Numbered selects $1-style placeholders instead of ?.
	Numbered bool
	// IsUniqueViolation classifies driver errors raised by UNIQUE constraints.
	IsUniqueViolation func(error) bool
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is the shared database/sql implementation.
type Store struct {
	db *sql.DB
	q  querier
	d  Dialect
}

// New returns a Store running queries directly on db.
func New(db *sql.DB, d Dialect) *Store { return &Store{db: db, q: db, d: d} }

func (s *Store) Users() store.Users                 { return &users{s} }
func (s *Store) Conversations() store.Conversations { return &conversations{s} }
func (s *Store) Messages() store.Messages           { return &messages{s} }
func (s *Store) Notes() store.Notes                 { return &notes{s} }
func (s *Store) Tasks() store.Tasks                 { return &tasks{s} }
func (s *Store) Categories() store.Categories       { return &categories{s} }

// DB exposes the underlying pool.
func (s *Store) DB() *sql.DB { return s.db }

// HealthPing implements health.HealthPinger.
func (s *Store) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// WithTx implements store.Store. Nested calls reuse the outer transaction.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Store) error) error {
	if _, inTx := s.q.(*sql.Tx); inTx {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&Store{db: s.db, q: tx, d: s.d}); err != nil {
		return err
	}
	return tx.Commit()
}

// bind rewrites ? placeholders for dialects that number their parameters.
func (s *Store) bind(query string) string {
	if !s.d.Numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.q.ExecContext(ctx, s.bind(query), args...)
}

func (s *Store) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.q.QueryContext(ctx, s.bind(query), args...)
}

func (s *Store) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.q.QueryRowContext(ctx, s.bind(query), args...)
}

// mapErr converts driver errors into model errors.
func (s *Store) mapErr(err error, resource string, id int64, field string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return model.NewNotFoundError(resource, id)
	case s.d.IsUniqueViolation != nil && s.d.IsUniqueViolation(err):
		return model.NewConflictError(field, fmt.Sprintf("%s already exists", resource))
	default:
		return err
	}
}

// expectOne turns a zero-row write into a not-found error.
func expectOne(res sql.Result, resource string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.NewNotFoundError(resource, id)
	}
	return nil
}

func now() time.Time { return time.Now().UTC() }

func limitOrDefault(p model.Page, def int) (int, int) {
	limit := p.Limit
	if limit <= 0 {
		limit = def
	}
	offset := p.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// setter accumulates SET clauses for partial updates.
type setter struct {
	cols []string
	args []any
}

func (st *setter) add(col string, v any) {
	st.cols = append(st.cols, col+"=?")
	st.args = append(st.args, v)
}

func (st *setter) clause() string { return strings.Join(st.cols, ", ") }
