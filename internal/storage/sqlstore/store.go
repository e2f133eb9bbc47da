// Package sqlstore implements storage.Storage on top of database/sql.
//
// Specifications are rendered into parameterised SQL: every value is a
// bind argument and every column comes from a fixed allow-list, so no
// user input ever becomes SQL text. Backend differences (placeholder
// style, constraint error codes) live in a Dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aanand-mishra/records-api/internal/query"
	"github.com/aanand-mishra/records-api/internal/storage"
	"github.com/aanand-mishra/records-api/internal/types"
)

const recordColumns = "id, name, email, age, created_at, updated_at"

// Dialect captures what differs between SQL backends.
type Dialect struct {
	Name string
	// Placeholder renders the n-th (1-based) bind parameter.
	Placeholder func(n int) string
	// IsUniqueViolation reports whether err is a unique constraint failure.
	IsUniqueViolation func(err error) bool
	// Lower names the SQL function that lowercases a column for contains
	// matches. It must fold case like strings.ToLower. Empty means LOWER.
	Lower string
}

func (d Dialect) lower() string {
	if d.Lower == "" {
		return "LOWER"
	}
	return d.Lower
}

// Store is a storage.Storage backed by a *sql.DB connection pool.
type Store struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

func New(db *sql.DB, d Dialect) *Store {
	return &Store{db: db, dialect: d, now: time.Now}
}

func (s *Store) CountAll(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records").Scan(&n); err != nil {
		return 0, fmt.Errorf("CountAll: scan: %w", err)
	}
	return n, nil
}

func (s *Store) FindPage(ctx context.Context, sort query.Sort, offset, limit int) ([]types.Record, int64, error) {
	return s.FindBySpecification(ctx, query.Specification{Sort: sort, Offset: offset, Limit: limit})
}

// FindBySpecification runs the page query and the count query
// concurrently.
func (s *Store) FindBySpecification(ctx context.Context, spec query.Specification) ([]types.Record, int64, error) {
	pageSQL, pageArgs, countSQL, countArgs, err := selectQuery(s.dialect, spec)
	if err != nil {
		return nil, 0, fmt.Errorf("FindBySpecification: build: %w", err)
	}

	var (
		records []types.Record
		total   int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.db.QueryRowContext(gctx, countSQL, countArgs...).Scan(&total); err != nil {
			return fmt.Errorf("FindBySpecification: count: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		records, err = s.queryRecords(gctx, pageSQL, pageArgs...)
		if err != nil {
			return fmt.Errorf("FindBySpecification: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func (s *Store) FindOne(ctx context.Context, pred query.Predicate) (*types.Record, error) {
	b := &builder{dialect: s.dialect}
	where, err := b.where([]query.Predicate{pred})
	if err != nil {
		return nil, fmt.Errorf("FindOne: build: %w", err)
	}

	rec, err := scanRecord(s.db.QueryRowContext(ctx,
		"SELECT "+recordColumns+" FROM records"+where+" ORDER BY id ASC LIMIT 1", b.args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FindOne: scan: %w", err)
	}
	return &rec, nil
}

func (s *Store) Insert(ctx context.Context, data types.RecordData) (types.Record, error) {
	rec := types.Record{Name: data.Name, Email: data.Email, Age: data.Age, CreatedAt: s.stamp()}
	rec.UpdatedAt = rec.CreatedAt

	b := &builder{dialect: s.dialect}
	stmt := fmt.Sprintf(
		"INSERT INTO records (name, email, age, created_at, updated_at) VALUES (%s, %s, %s, %s, %s) RETURNING id",
		b.bind(rec.Name), b.bind(rec.Email), b.bind(rec.Age), b.bind(rec.CreatedAt), b.bind(rec.UpdatedAt),
	)

	if err := s.db.QueryRowContext(ctx, stmt, b.args...).Scan(&rec.ID); err != nil {
		if s.dialect.IsUniqueViolation(err) {
			return types.Record{}, storage.ErrDuplicateEmail
		}
		return types.Record{}, fmt.Errorf("Insert: exec: %w", err)
	}
	return rec, nil
}

// Save writes name, email and age of rec. CreatedAt is taken from rec as
// given; the store never rewrites it.
func (s *Store) Save(ctx context.Context, rec types.Record) (types.Record, error) {
	rec.UpdatedAt = s.stamp()

	b := &builder{dialect: s.dialect}
	stmt := fmt.Sprintf(
		"UPDATE records SET name = %s, email = %s, age = %s, updated_at = %s WHERE id = %s",
		b.bind(rec.Name), b.bind(rec.Email), b.bind(rec.Age), b.bind(rec.UpdatedAt), b.bind(rec.ID),
	)

	res, err := s.db.ExecContext(ctx, stmt, b.args...)
	if err != nil {
		if s.dialect.IsUniqueViolation(err) {
			return types.Record{}, storage.ErrDuplicateEmail
		}
		return types.Record{}, fmt.Errorf("Save: exec: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return types.Record{}, fmt.Errorf("Save: rows affected: %w", err)
	}
	if n == 0 {
		return types.Record{}, fmt.Errorf("Save: no record with id %d", rec.ID)
	}
	return rec, nil
}

func (s *Store) Remove(ctx context.Context, rec types.Record) error {
	b := &builder{dialect: s.dialect}
	res, err := s.db.ExecContext(ctx, "DELETE FROM records WHERE id = "+b.bind(rec.ID), b.args...)
	if err != nil {
		return fmt.Errorf("Remove: exec: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Remove: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("Remove: no record with id %d", rec.ID)
	}
	return nil
}

func (s *Store) queryRecords(ctx context.Context, stmt string, args ...any) ([]types.Record, error) {
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	records := make([]types.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return records, nil
}

// stamp returns the current time at the precision every backend keeps.
func (s *Store) stamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (types.Record, error) {
	var rec types.Record
	err := row.Scan(&rec.ID, &rec.Name, &rec.Email, &rec.Age, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return types.Record{}, err
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	return rec, nil
}
