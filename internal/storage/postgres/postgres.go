// Package postgres provides a PostgreSQL-backed storage.Storage using
// the lib/pq driver.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/lib/pq"

	"github.com/aanand-mishra/records-api/internal/storage/sqlstore"
)

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// Dialect renders "$n" placeholders and recognises unique_violation.
var Dialect = sqlstore.Dialect{
	Name:        "postgres",
	Placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	IsUniqueViolation: func(err error) bool {
		var pe *pq.Error
		return errors.As(err, &pe) && pe.Code == uniqueViolation
	},
}

const schema = `
CREATE TABLE IF NOT EXISTS records (
	id         BIGSERIAL    PRIMARY KEY,
	name       VARCHAR(255) NOT NULL,
	email      VARCHAR(255) NOT NULL,
	age        INTEGER      NOT NULL,
	created_at TIMESTAMPTZ  NOT NULL,
	updated_at TIMESTAMPTZ  NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS records_email_key ON records (email);
`

type Postgres struct {
	*sqlstore.Store
	Db *sql.DB
}

// New connects to dsn, verifies the connection and ensures the records
// table exists.
func New(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: open db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres.New: create table: %w", err)
	}
	return &Postgres{Store: sqlstore.New(db, Dialect), Db: db}, nil
}

func (p *Postgres) Close() error {
	return p.Db.Close()
}
