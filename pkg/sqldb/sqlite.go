package sqldb

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/ajitpratap0/importdata/pkg/config"
	"github.com/ajitpratap0/importdata/pkg/errors"
	stringpool "github.com/ajitpratap0/importdata/pkg/strings"
)

// DefaultSQLiteDatabase is used when a SQLite spec names no database.
const DefaultSQLiteDatabase = ":memory:"

// SQLiteDB is the SQLite backend. The driver is chosen at build time, see
// SQLiteDriver.
type SQLiteDB struct {
	cfg config.SQLiteConfig
	*sqlConn
}

// NewSQLite creates an unconnected SQLite backend.
func NewSQLite(cfg config.SQLiteConfig) *SQLiteDB {
	return &SQLiteDB{cfg: cfg}
}

// SQLiteDriver returns the database/sql driver name and implementation.
func SQLiteDriver() (name, impl string) {
	return sqliteDriverName, sqliteDriverPackage
}

// Type returns SQLite.
func (s *SQLiteDB) Type() Type {
	return SQLite
}

// Initialize opens database file params, creating it if missing, or an
// in-memory database. Configured pragmas run right after opening.
func (s *SQLiteDB) Initialize(ctx context.Context, params string) error {
	if params == "" {
		params = DefaultSQLiteDatabase
	}

	db, err := sql.Open(sqliteDriverName, params)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "connection to SQLite failed").
			WithDetail("database", params)
	}

	sc, err := openSQLConn(ctx, db, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "connection to SQLite failed").
			WithDetail("database", params)
	}
	s.sqlConn = sc

	for _, pragma := range s.cfg.Pragmas {
		if err := s.Execute(ctx, "PRAGMA "+pragma); err != nil {
			_ = s.Close()
			return errors.Wrap(err, errors.ErrorTypeConfig, "sqlite pragma failed").
				WithDetail("pragma", pragma)
		}
	}
	return nil
}

// Execute runs a statement that returns no rows.
func (s *SQLiteDB) Execute(ctx context.Context, query string) error {
	if s.sqlConn == nil {
		return notConnected(SQLite)
	}
	return s.execute(ctx, query)
}

// Query runs query with params bound as text or NULL.
func (s *SQLiteDB) Query(ctx context.Context, query string, params []sql.NullString) (Result, error) {
	if s.sqlConn == nil {
		return nil, notConnected(SQLite)
	}
	return s.query(ctx, query, params)
}

// Placeholder returns ?1, ?2, ...
func (s *SQLiteDB) Placeholder(i int) string {
	return "?" + strconv.Itoa(i+1)
}

// QuoteField quotes identifier with double quotes.
func (s *SQLiteDB) QuoteField(identifier string) string {
	return stringpool.DoubleQuote(identifier)
}

// ExistTable checks both the main and the temporary schema.
func (s *SQLiteDB) ExistTable(ctx context.Context, table string) (bool, error) {
	return existTable(ctx, s,
		"SELECT (SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?1)"+
			" + (SELECT COUNT(*) FROM sqlite_temp_master WHERE type = 'table' AND name = ?1)", table)
}

// Close closes the database. An in-memory database is discarded.
func (s *SQLiteDB) Close() error {
	if s.sqlConn == nil {
		return nil
	}
	sc := s.sqlConn
	s.sqlConn = nil
	return sc.close()
}
