package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	_ "embed"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/lib/pq"
)

// Predefined errors for store operations
var (
	ErrAuthorNotFound     = errors.New("store: author not found")
	ErrBookNotFound       = errors.New("store: book not found")
	ErrProductNotFound    = errors.New("store: product not found")
	ErrCoAuthorNotLinked  = errors.New("store: author is not a co-author of this book")
	ErrStorageUnavailable = errors.New("store: storage unavailable")
)

// IntegrityError is a constraint violation reported by PostgreSQL (class 23)
// that got past the application checks, typically two concurrent writers
// racing for the same unique value. It is surfaced as is, never retried.
type IntegrityError struct {
	Op         string
	Code       string
	Constraint string
	Err        error
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("store: %s: integrity constraint %q violated (%s)", e.Op, e.Constraint, e.Code)
}

func (e *IntegrityError) Unwrap() error { return e.Err }

// PostgresStore implements AuthorStorer, BookStorer and ProductStorer using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgresStore instance.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// withTx runs fn inside a transaction. The transaction is rolled back when fn
// returns an error or panics, so writes are all-or-nothing.
func (s *PostgresStore) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classifyError(op+" begin", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return classifyError(op+" commit", err)
	}
	return nil
}

// classifyError wraps err into the store error taxonomy: *IntegrityError for
// constraint violations, ErrStorageUnavailable for connection level failures.
func classifyError(op string, err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "23": // integrity_constraint_violation
			return &IntegrityError{Op: op, Code: string(pqErr.Code), Constraint: pqErr.Constraint, Err: err}
		case "08", "53", "57", "58": // connection, resources, operator intervention, system
			return fmt.Errorf("store: %s: %w: %w", op, ErrStorageUnavailable, err)
		}
		return fmt.Errorf("store: %s: %w", op, err)
	}

	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) || errors.As(err, &netErr) {
		return fmt.Errorf("store: %s: %w: %w", op, ErrStorageUnavailable, err)
	}
	return fmt.Errorf("store: %s: %w", op, err)
}

// searchClause builds "(col1 ILIKE $n OR col2 ILIKE $n ...)" for the given
// admin search fields, all bound to the same placeholder.
func searchClause(fields []string, columns map[string]string, argID int) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if col, ok := columns[f]; ok {
			parts = append(parts, fmt.Sprintf("%s ILIKE $%d", col, argID))
		}
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

//go:embed schema.sql
var schemaSQL string

// EnsureSchema creates the catalog schema, its tables and indexes when they
// do not exist yet. Existing objects are left untouched.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return classifyError("EnsureSchema", err)
	}
	return nil
}

// Ping checks that the database is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return classifyError("Ping", s.db.PingContext(ctx))
}

func (s *PostgresStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
