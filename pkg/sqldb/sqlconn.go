package sqldb

import (
	"context"
	"database/sql"
	"database/sql/driver"

	"github.com/ajitpratap0/importdata/pkg/errors"
)

// sqlConn is the database/sql plumbing shared by the MySQL and SQLite
// backends: a pool limited to one connection, pinned for the lifetime of
// the backend so that BEGIN/COMMIT and temporary tables stay on one session.
type sqlConn struct {
	db   *sql.DB
	conn *sql.Conn

	// lost reports driver specific errors that mean the session is gone
	lost func(error) bool
}

func openSQLConn(ctx context.Context, db *sql.DB, lost func(error) bool) (*sqlConn, error) {
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	conn, err := db.Conn(ctx)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		_ = db.Close()
		return nil, err
	}

	return &sqlConn{db: db, conn: conn, lost: lost}, nil
}

func (c *sqlConn) execute(ctx context.Context, query string) error {
	if _, err := c.conn.ExecContext(ctx, query); err != nil {
		return c.classify(err, query)
	}
	return nil
}

// query runs a statement and fetches its first row right away, so that
// statements without a result set are executed before query returns.
func (c *sqlConn) query(ctx context.Context, query string, params []sql.NullString) (Result, error) {
	args := make([]interface{}, len(params))
	for i, p := range params {
		args[i] = p
	}

	rows, err := c.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, c.classify(err, query)
	}

	cols, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		return nil, c.classify(err, query)
	}

	fetch := func() ([]sql.NullString, bool, error) {
		if !rows.Next() {
			if err := rows.Err(); err != nil {
				return nil, false, c.classify(err, query)
			}
			return nil, false, nil
		}

		row := make([]sql.NullString, len(cols))
		dest := make([]interface{}, len(cols))
		for i := range row {
			dest[i] = &row[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, false, c.classify(err, query)
		}
		return row, true, nil
	}

	result := newCursorResult(query, cols, fetch, rows.Close)
	if _, err := result.fetchOne(); err != nil {
		_ = result.Close()
		return nil, err
	}
	return result, nil
}

func (c *sqlConn) classify(err error, query string) error {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) ||
		(c.lost != nil && c.lost(err)) {
		return connectionError(err, query)
	}
	return queryError(err, query)
}

func (c *sqlConn) close() error {
	var err error
	err = errors.Append(err, c.conn.Close())
	err = errors.Append(err, c.db.Close())
	return err
}
