package sqldb

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/ajitpratap0/importdata/pkg/config"
	"github.com/ajitpratap0/importdata/pkg/errors"
)

// Spec is a parsed connection spec.
type Spec struct {
	// Probe is set for the empty spec: try every backend in order
	Probe    bool
	Type     Type
	Database string
}

// ParseSpec parses "" or driver[:database]. The database defaults to
// "test" for MySQL, ":memory:" for SQLite and the environment for
// PostgreSQL.
func ParseSpec(spec string) (Spec, error) {
	if spec == "" {
		return Spec{Probe: true}, nil
	}

	driver, database, _ := strings.Cut(spec, ":")
	t, ok := ParseType(driver)
	if !ok {
		return Spec{}, errors.Newf(errors.ErrorTypeConfig, "unknown database driver %q", driver).
			WithDetail("spec", spec)
	}

	if database == "" {
		switch t {
		case MySQL:
			database = DefaultMySQLDatabase
		case SQLite:
			database = DefaultSQLiteDatabase
		}
	}
	return Spec{Type: t, Database: database}, nil
}

// New creates an unconnected backend of type t.
func New(t Type, cfg config.DatabaseConfig) Database {
	switch t {
	case MySQL:
		return NewMySQL(cfg.MySQL)
	case SQLite:
		return NewSQLite(cfg.SQLite)
	default:
		return NewPostgres(cfg.Postgres)
	}
}

// probeOrder is tried for an empty spec.
var probeOrder = []Spec{
	{Type: Postgres},
	{Type: MySQL, Database: DefaultMySQLDatabase},
	{Type: SQLite, Database: DefaultSQLiteDatabase},
}

// Connect selects and opens a backend. With an empty spec PostgreSQL, MySQL
// and an in-memory SQLite database are tried in that order and the first
// that connects wins.
func Connect(ctx context.Context, spec string, cfg config.DatabaseConfig, logger *zap.Logger) (Database, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	parsed, err := ParseSpec(spec)
	if err != nil {
		return nil, err
	}

	if !parsed.Probe {
		db, err := open(ctx, parsed, cfg, logger)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConnection, "could not connect to database").
				WithDetail("spec", spec)
		}
		return db, nil
	}

	var failures error
	for _, candidate := range probeOrder {
		db, err := open(ctx, candidate, cfg, logger)
		if err == nil {
			return db, nil
		}
		logger.Info("database probe failed",
			zap.Stringer("backend", candidate.Type),
			zap.Error(err))
		failures = errors.Append(failures, err)
	}

	return nil, errors.Wrap(failures, errors.ErrorTypeConnection, "could not connect to any database")
}

func open(ctx context.Context, spec Spec, cfg config.DatabaseConfig, logger *zap.Logger) (Database, error) {
	fields := []zap.Field{
		zap.Stringer("backend", spec.Type),
		zap.String("database", spec.Database),
	}
	if spec.Type == SQLite {
		_, impl := SQLiteDriver()
		fields = append(fields, zap.String("driver", impl))
	}
	logger.Info("connecting to database", fields...)

	db := New(spec.Type, cfg)
	if err := db.Initialize(ctx, spec.Database); err != nil {
		return nil, err
	}
	return db, nil
}
