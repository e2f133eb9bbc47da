// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// SQLite stores everything in a single file on disk: no network, no
// separate server process, nothing to install beyond the driver.
//
// The package registers its own go-sqlite3 driver, sqlite3_records, whose
// connections carry a Unicode-aware unicode_lower function.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/aanand-mishra/records-api/internal/storage/sqlstore"
)

// driverName is go-sqlite3 with unicode_lower registered on every
// connection. SQLite's built-in LOWER only folds ASCII letters.
const driverName = "sqlite3_records"

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("unicode_lower", strings.ToLower, true)
		},
	})
}

// Dialect renders "?" placeholders, lowercases with unicode_lower and
// recognises SQLite unique constraint failures.
var Dialect = sqlstore.Dialect{
	Name:        "sqlite",
	Placeholder: func(int) string { return "?" },
	IsUniqueViolation: func(err error) bool {
		var se sqlite3.Error
		return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique
	},
	Lower: "unicode_lower",
}

// SQLite is the concrete implementation of storage.Storage.
// Db is a connection pool managed by database/sql and is safe for
// concurrent use.
type SQLite struct {
	*sqlstore.Store
	Db *sql.DB
}

// New opens the SQLite database at path, creates the records table if it
// does not already exist, and returns a ready-to-use *SQLite.
func New(path string) (*SQLite, error) {
	// _busy_timeout makes concurrent writers wait for the lock instead of
	// failing immediately with SQLITE_BUSY.
	db, err := sql.Open(driverName, path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// The unique index is the final arbiter for email uniqueness when two
	// writers both pass the service check.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS records (
			id         INTEGER   PRIMARY KEY AUTOINCREMENT,
			name       TEXT      NOT NULL,
			email      TEXT      NOT NULL,
			age        INTEGER   NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);
		CREATE UNIQUE INDEX IF NOT EXISTS records_email_key ON records (email);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: create table: %w", err)
	}

	return &SQLite{Store: sqlstore.New(db, Dialect), Db: db}, nil
}

// Close releases the underlying database file.
func (s *SQLite) Close() error {
	return s.Db.Close()
}
