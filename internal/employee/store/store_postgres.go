package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"personnel/internal/employee/models"
	"personnel/pkg/platform/sentinel"
	txcontext "personnel/pkg/platform/tx"
)

// Table is the relation every statement in this package targets.
const Table = "employees"

// PostgresStore persists employees in PostgreSQL through database/sql and
// the lib/pq driver.
type PostgresStore struct {
	db        *sql.DB
	txTimeout time.Duration
}

// PostgresOption configures a PostgresStore instance.
type PostgresOption func(*PostgresStore)

// WithTxTimeout bounds each chunk transaction when the caller's context has
// no deadline.
func WithTxTimeout(d time.Duration) PostgresOption {
	return func(s *PostgresStore) {
		if d > 0 {
			s.txTimeout = d
		}
	}
}

// NewPostgres constructs a PostgreSQL-backed employee store.
func NewPostgres(db *sql.DB, opts ...PostgresOption) *PostgresStore {
	s := &PostgresStore{db: db, txTimeout: txcontext.DefaultTimeout}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Insert writes one record and returns the id storage assigned to it.
func (s *PostgresStore) Insert(ctx context.Context, e models.Employee) (int64, error) {
	var id int64
	err := s.execer(ctx).QueryRowContext(ctx, `
		INSERT INTO employees (full_name, date_of_birth, gender)
		VALUES ($1, $2::date, $3)
		RETURNING id
	`, e.FullName, models.FormatDate(e.DateOfBirth), e.Gender).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert employee: %w", describe(err))
	}
	return id, nil
}

// InsertBatch writes records as one transaction. A single INSERT over
// unnest'ed arrays keeps it to one round trip regardless of chunk size.
func (s *PostgresStore) InsertBatch(ctx context.Context, records []models.Employee) error {
	if len(records) == 0 {
		return nil
	}

	names := make([]string, len(records))
	dobs := make([]string, len(records))
	genders := make([]string, len(records))
	for i, r := range records {
		names[i] = r.FullName
		dobs[i] = models.FormatDate(r.DateOfBirth)
		genders[i] = r.Gender
	}

	query := `
		INSERT INTO employees (full_name, date_of_birth, gender)
		SELECT unnest($1::text[]), unnest($2::date[]), unnest($3::text[])
	`
	err := txcontext.Run(ctx, s.db, s.txTimeout, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query, pq.Array(names), pq.Array(dobs), pq.Array(genders))
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n != int64(len(records)) {
			return fmt.Errorf("inserted %d of %d rows", n, len(records))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("insert employee batch: %w", describe(err))
	}
	return nil
}

// FindByID returns a stored record or sentinel.ErrNotFound.
func (s *PostgresStore) FindByID(ctx context.Context, id int64) (models.Employee, error) {
	var e models.Employee
	err := s.execer(ctx).QueryRowContext(ctx, `
		SELECT id, full_name, date_of_birth, gender
		FROM employees
		WHERE id = $1
	`, id).Scan(&e.ID, &e.FullName, &e.DateOfBirth, &e.Gender)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Employee{}, sentinel.ErrNotFound
		}
		return models.Employee{}, fmt.Errorf("find employee by id: %w", describe(err))
	}
	e.DateOfBirth = models.Date(e.DateOfBirth)
	return e, nil
}

// FindUnique returns at most limit records, one per (full_name,
// date_of_birth), keeping the smallest id of each group.
func (s *PostgresStore) FindUnique(ctx context.Context, limit int) ([]models.Employee, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT ON (full_name, date_of_birth) id, full_name, date_of_birth, gender
		FROM employees
		ORDER BY full_name, date_of_birth, id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query unique employees: %w", describe(err))
	}
	defer rows.Close()

	return scanEmployees(rows)
}

// FindByGenderAndNamePrefix returns every record whose gender equals
// f.Gender and whose full name starts with f.NamePrefix, ignoring case.
func (s *PostgresStore) FindByGenderAndNamePrefix(ctx context.Context, f models.Filter) ([]models.Employee, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, full_name, date_of_birth, gender
		FROM employees
		WHERE gender = $1 AND full_name ILIKE $2
	`, f.Gender, f.LikePattern())
	if err != nil {
		return nil, fmt.Errorf("query employees by gender and prefix: %w", describe(err))
	}
	defer rows.Close()

	return scanEmployees(rows)
}

// Count returns the number of stored records.
func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM employees`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count employees: %w", describe(err))
	}
	return n, nil
}

// Exec runs a raw statement, such as index DDL.
func (s *PostgresStore) Exec(ctx context.Context, statement string) error {
	if _, err := s.execer(ctx).ExecContext(ctx, statement); err != nil {
		return fmt.Errorf("exec statement: %w", describe(err))
	}
	return nil
}

// Maintain reclaims dead tuples and refreshes planner statistics. VACUUM
// cannot run inside a transaction block, so this always uses the pool.
func (s *PostgresStore) Maintain(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `VACUUM ANALYZE employees`); err != nil {
		return fmt.Errorf("vacuum analyze employees: %w", describe(err))
	}
	return nil
}

// ListIndexes returns the names of the secondary indexes on employees,
// sorted by name. The primary key index is excluded.
func (s *PostgresStore) ListIndexes(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT indexname
		FROM pg_indexes
		WHERE schemaname = current_schema() AND tablename = $1 AND indexname <> $2
		ORDER BY indexname
	`, Table, Table+"_pkey")
	if err != nil {
		return nil, fmt.Errorf("list indexes: %w", describe(err))
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan index name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate indexes: %w", err)
	}
	return names, nil
}

// Truncate removes every record and resets the id sequence.
func (s *PostgresStore) Truncate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `TRUNCATE employees RESTART IDENTITY`); err != nil {
		return fmt.Errorf("truncate employees: %w", describe(err))
	}
	return nil
}

func scanEmployees(rows *sql.Rows) ([]models.Employee, error) {
	var out []models.Employee
	for rows.Next() {
		var e models.Employee
		if err := rows.Scan(&e.ID, &e.FullName, &e.DateOfBirth, &e.Gender); err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		e.DateOfBirth = models.Date(e.DateOfBirth)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate employees: %w", err)
	}
	return out, nil
}

// describe annotates server errors whose remedy the operator can act on.
func describe(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code.Name() {
	case "undefined_table":
		return fmt.Errorf("%w (schema missing: run mode 1 first)", err)
	case "connection_exception", "connection_failure", "cannot_connect_now":
		return fmt.Errorf("%w: %w", sentinel.ErrUnavailable, err)
	}
	return err
}
