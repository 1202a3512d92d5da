package sqldb

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ajitpratap0/importdata/pkg/config"
	"github.com/ajitpratap0/importdata/pkg/errors"
	stringpool "github.com/ajitpratap0/importdata/pkg/strings"
)

// PostgresDB is the PostgreSQL backend. It talks to the server through the
// low level pgconn API: statements without parameters use the simple
// protocol, parameterized statements use the extended protocol with every
// parameter and result column in text format.
type PostgresDB struct {
	cfg  config.PostgresConfig
	conn *pgx.Conn
}

// NewPostgres creates an unconnected PostgreSQL backend.
func NewPostgres(cfg config.PostgresConfig) *PostgresDB {
	return &PostgresDB{cfg: cfg}
}

// Type returns Postgres.
func (p *PostgresDB) Type() Type {
	return Postgres
}

// Initialize connects using the configured connection string, or the PG*
// environment variables when it is empty. A non-empty params overrides the
// database name.
func (p *PostgresDB) Initialize(ctx context.Context, params string) error {
	connConfig, err := pgx.ParseConfig(p.cfg.ConnString)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse postgres connection string")
	}
	if params != "" {
		connConfig.Database = params
	}

	conn, err := pgx.ConnectConfig(ctx, connConfig)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "connection to PostgreSQL failed").
			WithDetail("host", connConfig.Host).
			WithDetail("database", connConfig.Database)
	}

	p.conn = conn
	return nil
}

// Execute runs query with the simple protocol.
func (p *PostgresDB) Execute(ctx context.Context, query string) error {
	if p.conn == nil {
		return notConnected(Postgres)
	}
	if _, err := p.conn.PgConn().Exec(ctx, query).ReadAll(); err != nil {
		return p.classify(err, query)
	}
	return nil
}

// Query runs query with the extended protocol and buffers the whole result.
func (p *PostgresDB) Query(ctx context.Context, query string, params []sql.NullString) (Result, error) {
	if p.conn == nil {
		return nil, notConnected(Postgres)
	}

	values := make([][]byte, len(params))
	for i, v := range params {
		if v.Valid {
			values[i] = []byte(v.String)
		}
	}

	res := p.conn.PgConn().ExecParams(ctx, query, values, nil, nil, nil).Read()
	if res.Err != nil {
		return nil, p.classify(res.Err, query)
	}

	cols := make([]string, len(res.FieldDescriptions))
	for i, fd := range res.FieldDescriptions {
		cols[i] = fd.Name
	}

	rows := make([][]sql.NullString, len(res.Rows))
	for i, raw := range res.Rows {
		row := make([]sql.NullString, len(raw))
		for j, v := range raw {
			if v != nil {
				row[j] = sql.NullString{String: string(v), Valid: true}
			}
		}
		rows[i] = row
	}

	return newCompleteResult(query, cols, rows), nil
}

// Placeholder returns $1, $2, ...
func (p *PostgresDB) Placeholder(i int) string {
	return "$" + strconv.Itoa(i+1)
}

// QuoteField quotes identifier with double quotes.
func (p *PostgresDB) QuoteField(identifier string) string {
	return stringpool.DoubleQuote(identifier)
}

// ExistTable checks pg_tables, which lists temporary tables too.
func (p *PostgresDB) ExistTable(ctx context.Context, table string) (bool, error) {
	return existTable(ctx, p,
		"SELECT COUNT(*) FROM pg_tables WHERE tablename = $1", table)
}

// Close closes the connection. Closing twice is a no-op.
func (p *PostgresDB) Close() error {
	if p.conn == nil {
		return nil
	}
	conn := p.conn
	p.conn = nil
	return conn.Close(context.Background())
}

// classify separates server side statement errors from lost sessions.
// SQLSTATE class 08 and operator intervention codes mean the server is gone.
func (p *PostgresDB) classify(err error, query string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case len(pgErr.Code) >= 2 && pgErr.Code[:2] == pgerrcode.ConnectionException[:2],
			pgErr.Code == pgerrcode.AdminShutdown,
			pgErr.Code == pgerrcode.CrashShutdown,
			pgErr.Code == pgerrcode.CannotConnectNow:
			return connectionError(err, query)
		}
		return queryError(err, query).WithDetail("sqlstate", pgErr.Code)
	}

	if p.conn.IsClosed() {
		return connectionError(err, query)
	}
	return queryError(err, query)
}

// existTable runs a COUNT(*) probe with a single parameter.
func existTable(ctx context.Context, db Database, query, table string) (bool, error) {
	res, err := db.Query(ctx, query, []sql.NullString{{String: table, Valid: true}})
	if err != nil {
		return false, err
	}
	defer res.Close()

	ok, err := res.Step()
	if err != nil {
		return false, err
	}
	if !ok || res.NumCols() != 1 {
		return false, errors.New(errors.ErrorTypeQuery, "table existence probe returned no count").
			WithDetail("query", query)
	}
	return res.Text(0) != "0", nil
}
