package sqldb

import (
	"context"
	"database/sql"
	"os"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/ajitpratap0/importdata/pkg/config"
	"github.com/ajitpratap0/importdata/pkg/errors"
	stringpool "github.com/ajitpratap0/importdata/pkg/strings"
)

// DefaultMySQLDatabase is used when a MySQL spec names no database.
const DefaultMySQLDatabase = "test"

// erServerShutdown is ER_SERVER_SHUTDOWN.
const erServerShutdown = 1053

// MySQLDB is the MySQL backend. Statements without parameters use the text
// protocol, parameterized statements are prepared server side.
type MySQLDB struct {
	cfg config.MySQLConfig
	*sqlConn
}

// NewMySQL creates an unconnected MySQL backend.
func NewMySQL(cfg config.MySQLConfig) *MySQLDB {
	return &MySQLDB{cfg: cfg}
}

// Type returns MySQL.
func (m *MySQLDB) Type() Type {
	return MySQL
}

// driverConfig fills unset connection settings from MYSQL_USER, MYSQL_PWD
// and MYSQL_HOST the way the mysql client does.
func (m *MySQLDB) driverConfig() *mysql.Config {
	c := mysql.NewConfig()
	c.User = firstNonEmpty(m.cfg.User, os.Getenv("MYSQL_USER"), os.Getenv("USER"))
	c.Passwd = firstNonEmpty(m.cfg.Password, os.Getenv("MYSQL_PWD"))
	c.Net = firstNonEmpty(m.cfg.Net, "tcp")
	c.Addr = firstNonEmpty(m.cfg.Address, os.Getenv("MYSQL_HOST"))

	switch c.Net {
	case "tcp":
		if c.Addr == "" {
			c.Addr = "127.0.0.1:3306"
		} else if !strings.Contains(c.Addr, ":") {
			c.Addr += ":3306"
		}
	case "unix":
		if c.Addr == "" {
			c.Addr = "/var/run/mysqld/mysqld.sock"
		}
	}

	if len(m.cfg.Params) > 0 {
		c.Params = make(map[string]string, len(m.cfg.Params))
		for k, v := range m.cfg.Params {
			c.Params[k] = v
		}
	}
	return c
}

// Initialize connects to the server and selects database params.
func (m *MySQLDB) Initialize(ctx context.Context, params string) error {
	if params == "" {
		params = DefaultMySQLDatabase
	}

	c := m.driverConfig()
	connector, err := mysql.NewConnector(c)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "invalid mysql configuration")
	}

	sc, err := openSQLConn(ctx, sql.OpenDB(connector), isLostMySQL)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "connection to MySQL failed").
			WithDetail("address", c.Addr).
			WithDetail("user", c.User)
	}
	m.sqlConn = sc

	if err := m.Execute(ctx, "USE "+m.QuoteField(params)); err != nil {
		_ = m.Close()
		return errors.Wrap(err, errors.ErrorTypeConnection, "cannot select MySQL database").
			WithDetail("database", params)
	}
	return nil
}

// Execute runs query with the text protocol.
func (m *MySQLDB) Execute(ctx context.Context, query string) error {
	if m.sqlConn == nil {
		return notConnected(MySQL)
	}
	return m.execute(ctx, query)
}

// Query prepares query and binds params.
func (m *MySQLDB) Query(ctx context.Context, query string, params []sql.NullString) (Result, error) {
	if m.sqlConn == nil {
		return nil, notConnected(MySQL)
	}
	return m.query(ctx, query, params)
}

// Placeholder always returns "?".
func (m *MySQLDB) Placeholder(int) string {
	return "?"
}

// QuoteField quotes identifier with backticks.
func (m *MySQLDB) QuoteField(identifier string) string {
	return stringpool.BacktickQuote(identifier)
}

// ExistTable checks information_schema, which does not list temporary
// tables. Callers creating temporary tables must handle CREATE failures.
func (m *MySQLDB) ExistTable(ctx context.Context, table string) (bool, error) {
	return existTable(ctx, m,
		"SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?", table)
}

// Close releases the pinned connection and its pool.
func (m *MySQLDB) Close() error {
	if m.sqlConn == nil {
		return nil
	}
	sc := m.sqlConn
	m.sqlConn = nil
	return sc.close()
}

func isLostMySQL(err error) bool {
	if errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == erServerShutdown
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
