// Package config provides the configuration for an importdata run.
//
// A single ImportConfig describes one import: the target table, how RESULT
// lines are recognised and split, how the table is created, which SQL
// backend to use and where to send reports. It is organized into sections:
//   - Input: line recognition, column naming and empty-input policy
//   - Table: temporary vs permanent, append vs replace, schema mode
//   - Database: connection spec and per-backend connection settings
//   - Observability: verbosity, reports, metrics and tracing
//
// Example usage:
//
//	cfg := config.DefaultImportConfig()
//	cfg.Table.Name = "stats"
//	cfg.Database.Spec = "sqlite:results.db"
//
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"fmt"
	"strings"
)

// ImportConfig is the complete configuration of one import run.
type ImportConfig struct {
	// Input controls how lines are recognised and tokenized
	Input InputConfig `yaml:"input" json:"input"`

	// Table controls creation of the destination table
	Table TableConfig `yaml:"table" json:"table"`

	// Database selects and configures the SQL backend
	Database DatabaseConfig `yaml:"database" json:"database"`

	// Observability settings for logging, reports and metrics
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`
}

// InputConfig contains line recognition settings.
type InputConfig struct {
	// AllLines parses every line as key=value tokens, ignoring RESULT markers
	AllLines bool `yaml:"all_lines" json:"all_lines"`
	// NoDuplicates skips lines whose exact text was already imported
	NoDuplicates bool `yaml:"no_duplicates" json:"no_duplicates"`
	// ColumnNumbers names key-less tokens col<N> instead of using them as flags
	ColumnNumbers bool `yaml:"column_numbers" json:"column_numbers"`
	// EmptyOkay permits unreadable files, unmatched globs and zero rows
	EmptyOkay bool `yaml:"empty_okay" json:"empty_okay"`
}

// TableConfig contains destination table settings.
type TableConfig struct {
	// Name of the table to import into (required)
	Name string `yaml:"name" json:"name"`
	// FirstLine takes column types from the first row and streams the rest
	FirstLine bool `yaml:"first_line" json:"first_line"`
	// Temporary uses CREATE TEMPORARY TABLE
	Temporary bool `yaml:"temporary" json:"temporary"`
	// Append keeps an existing table instead of replacing it
	Append bool `yaml:"append" json:"append"`
}

// DatabaseConfig contains the backend selection and connection settings.
type DatabaseConfig struct {
	// Spec is empty (probe backends) or driver[:database]
	Spec string `yaml:"spec" json:"spec"`
	// Postgres connection settings
	Postgres PostgresConfig `yaml:"postgres" json:"postgres"`
	// MySQL connection settings
	MySQL MySQLConfig `yaml:"mysql" json:"mysql"`
	// SQLite connection settings
	SQLite SQLiteConfig `yaml:"sqlite" json:"sqlite"`
}

// PostgresConfig contains PostgreSQL connection settings.
type PostgresConfig struct {
	// ConnString is a libpq style connection string; empty uses PG* variables
	ConnString string `yaml:"conn_string" json:"conn_string"`
}

// MySQLConfig contains MySQL connection settings.
type MySQLConfig struct {
	// User defaults to $MYSQL_USER, then $USER
	User string `yaml:"user" json:"user"`
	// Password defaults to $MYSQL_PWD
	Password string `yaml:"password" json:"password"`
	// Net is "tcp" or "unix"
	Net string `yaml:"net" json:"net"`
	// Address is host:port or a socket path; defaults to $MYSQL_HOST
	Address string `yaml:"address" json:"address"`
	// Params are extra DSN parameters
	Params map[string]string `yaml:"params" json:"params"`
}

// SQLiteConfig contains SQLite connection settings.
type SQLiteConfig struct {
	// Pragmas are executed after the connection is opened
	Pragmas []string `yaml:"pragmas" json:"pragmas"`
}

// ObservabilityConfig contains logging and reporting settings.
type ObservabilityConfig struct {
	// Verbose is the -v count: 1 logs progress, 2 logs every line and statement
	Verbose int `yaml:"verbose" json:"verbose"`
	// LogEncoding is console or json
	LogEncoding string `yaml:"log_encoding" json:"log_encoding"`
	// ReportPath receives a JSON summary of the import
	ReportPath string `yaml:"report_path" json:"report_path"`
	// MetricsPath receives Prometheus metrics in text format
	MetricsPath string `yaml:"metrics_path" json:"metrics_path"`
	// Trace prints OpenTelemetry spans to stdout
	Trace bool `yaml:"trace" json:"trace"`
	// Show prints the imported table after commit
	Show bool `yaml:"show" json:"show"`
}

// DefaultImportConfig returns a configuration with defaults: permanent
// table, two-pass schema detection, replace existing tables, probe backends.
func DefaultImportConfig() *ImportConfig {
	return &ImportConfig{
		Database: DatabaseConfig{
			MySQL: MySQLConfig{
				Net: "tcp",
			},
		},
		Observability: ObservabilityConfig{
			LogEncoding: "console",
		},
	}
}

// Validate validates the configuration for correctness.
func (c *ImportConfig) Validate() error {
	if strings.TrimSpace(c.Table.Name) == "" {
		return fmt.Errorf("table name is required")
	}
	if c.Observability.Verbose < 0 {
		return fmt.Errorf("verbose cannot be negative")
	}
	switch c.Observability.LogEncoding {
	case "", "console", "json":
	default:
		return fmt.Errorf("unknown log encoding %q", c.Observability.LogEncoding)
	}
	switch c.Database.MySQL.Net {
	case "", "tcp", "unix":
	default:
		return fmt.Errorf("unknown mysql net %q", c.Database.MySQL.Net)
	}
	return nil
}

// SchemaMode returns a short description of the schema detection mode.
func (t *TableConfig) SchemaMode() string {
	if t.FirstLine {
		return "first-line"
	}
	return "two-pass"
}
