// Package sqldb is a small uniform layer over the three SQL backends the
// importer writes to: PostgreSQL, MySQL and SQLite.
//
// Every backend holds exactly one connection. Statements are plain text,
// parameters are bound as text (or NULL) and results are read back as text,
// so the importer never needs to know the backend's type system. The
// differences that matter to callers are exposed explicitly: placeholder
// syntax, identifier quoting and whether temporary tables are visible to
// ExistTable.
package sqldb

import (
	"context"
	"database/sql"
	"strings"

	"github.com/ajitpratap0/importdata/pkg/errors"
)

// Type identifies a backend.
type Type int

const (
	// Postgres is PostgreSQL via pgx
	Postgres Type = iota
	// MySQL is MySQL or MariaDB via go-sql-driver/mysql
	MySQL
	// SQLite is SQLite via modernc.org/sqlite or mattn/go-sqlite3
	SQLite
)

func (t Type) String() string {
	switch t {
	case Postgres:
		return "postgresql"
	case MySQL:
		return "mysql"
	case SQLite:
		return "sqlite"
	default:
		return "unknown"
	}
}

// ParseType maps a driver name or one of its synonyms onto a Type,
// case-insensitively.
func ParseType(name string) (Type, bool) {
	switch strings.ToLower(name) {
	case "postgresql", "postgres", "pgsql", "pg":
		return Postgres, true
	case "mysql", "my":
		return MySQL, true
	case "sqlite", "lite":
		return SQLite, true
	}
	return 0, false
}

// Database is one open connection to a backend.
type Database interface {
	// Type returns the backend discriminator.
	Type() Type

	// Initialize opens the connection. params names the database; its
	// meaning is backend specific. A failure leaves the Database unusable
	// but is not fatal: callers may try another backend.
	Initialize(ctx context.Context, params string) error

	// Execute runs a statement that returns no rows.
	Execute(ctx context.Context, query string) error

	// Query runs a parameterized statement. Invalid params bind NULL.
	Query(ctx context.Context, query string, params []sql.NullString) (Result, error)

	// Placeholder renders the i-th (0-based) positional parameter.
	Placeholder(i int) string

	// QuoteField quotes an identifier.
	QuoteField(identifier string) string

	// ExistTable reports whether a table exists.
	ExistTable(ctx context.Context, table string) (bool, error)

	// Close releases the connection.
	Close() error
}

// notConnected is returned by backends used before Initialize.
func notConnected(t Type) error {
	return errors.Newf(errors.ErrorTypeConnection, "%s: not connected", t)
}

// queryError wraps a statement failure that leaves the connection usable.
func queryError(err error, query string) *errors.Error {
	return errors.Wrap(err, errors.ErrorTypeQuery, "statement failed").
		WithDetail("query", query)
}

// connectionError wraps a failure that lost the connection.
func connectionError(err error, query string) *errors.Error {
	e := errors.Wrap(err, errors.ErrorTypeConnection, "connection lost")
	if query != "" {
		e = e.WithDetail("query", query)
	}
	return e
}
