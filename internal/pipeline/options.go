package pipeline

import (
	"github.com/ajitpratap0/importdata/pkg/config"
	"github.com/ajitpratap0/importdata/pkg/metrics"
	"github.com/ajitpratap0/importdata/pkg/observability"
)

// Options controls one import run.
type Options struct {
	// Table is the destination table (required)
	Table string
	// FirstLine takes the schema from the first row and inserts while reading
	FirstLine bool
	// AllLines accepts lines without a RESULT marker
	AllLines bool
	// NoDuplicates skips lines whose exact text was already processed
	NoDuplicates bool
	// ColumnNumbers names key-less tokens col<N>
	ColumnNumbers bool
	// EmptyOkay tolerates unreadable inputs and zero rows
	EmptyOkay bool
	// Temporary creates a TEMPORARY table
	Temporary bool
	// Append keeps an existing table
	Append bool
	// Verbose is 0, 1 (DDL and duplicates) or 2 (every line and statement)
	Verbose int
	// Database is the connection spec used when no connection is supplied
	Database string
	// DatabaseConfig holds per-backend connection settings
	DatabaseConfig config.DatabaseConfig
	// RunID identifies the run in logs and the summary
	RunID string
}

// OptionsFromConfig maps an ImportConfig onto importer options.
func OptionsFromConfig(cfg *config.ImportConfig) Options {
	return Options{
		Table:          cfg.Table.Name,
		FirstLine:      cfg.Table.FirstLine,
		AllLines:       cfg.Input.AllLines,
		NoDuplicates:   cfg.Input.NoDuplicates,
		ColumnNumbers:  cfg.Input.ColumnNumbers,
		EmptyOkay:      cfg.Input.EmptyOkay,
		Temporary:      cfg.Table.Temporary,
		Append:         cfg.Table.Append,
		Verbose:        cfg.Observability.Verbose,
		Database:       cfg.Database.Spec,
		DatabaseConfig: cfg.Database,
	}
}

// Option configures optional collaborators of an Importer.
type Option func(*Importer)

// WithMetrics reports counters to c.
func WithMetrics(c *metrics.Collector) Option {
	return func(im *Importer) {
		im.metrics = c
	}
}

// WithTracer wraps the import phases in spans.
func WithTracer(t *observability.Tracer) Option {
	return func(im *Importer) {
		im.tracer = t
	}
}
