// Package pipeline imports RESULT lines into a SQL table.
//
// # Modes
//
// In the default two-pass mode every accepted line is cached while its
// tokens widen the table schema. Once all inputs are read the table is
// created and the cached lines are inserted. In first-line mode the schema
// is frozen after the first row: the table is created immediately and rows
// are inserted while reading. Keys unknown to the frozen schema are
// dropped.
//
// # Transactions
//
// An import runs inside one transaction. A failure rolls it back and
// closes the connection if the Importer opened it.
//
// # Basic Usage
//
//	im := pipeline.NewImporter(pipeline.Options{Table: "stats"}, nil, logger)
//	sources, _ := input.Expand(args)
//	summary, err := im.Run(ctx, sources)
package pipeline

import (
	"bufio"
	"context"
	"database/sql"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/importdata/pkg/errors"
	"github.com/ajitpratap0/importdata/pkg/input"
	"github.com/ajitpratap0/importdata/pkg/metrics"
	"github.com/ajitpratap0/importdata/pkg/observability"
	"github.com/ajitpratap0/importdata/pkg/resultline"
	"github.com/ajitpratap0/importdata/pkg/schema"
	"github.com/ajitpratap0/importdata/pkg/sqldb"
	stringpool "github.com/ajitpratap0/importdata/pkg/strings"
)

const (
	initialLineBuffer = 64 * 1024
	// MaxLineLength bounds a single input line
	MaxLineLength = 64 * 1024 * 1024
)

// Importer drives one import: it owns the transaction, the schema and the
// row counters.
type Importer struct {
	opts Options

	db     sqldb.Database
	ownsDB bool // opened by Begin, closed by Close

	logger  *zap.Logger
	metrics *metrics.Collector
	tracer  *observability.Tracer
	rate    *metrics.ThroughputTracker

	tokenizer resultline.Tokenizer
	fields    *schema.FieldSet
	lines     []string // two-pass cache
	seen      *LineSet

	state      State
	tableReady bool

	// Counters
	rows       int // processed lines, duplicates included
	inserted   int
	duplicates int
	files      []FileSummary
}

// NewImporter creates an importer. A nil db makes Begin connect using
// opts.Database; a supplied db is used as is and never closed.
func NewImporter(opts Options, db sqldb.Database, logger *zap.Logger, options ...Option) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}

	logger = logger.With(zap.String("table", opts.Table))
	if opts.RunID != "" {
		logger = logger.With(zap.String("run_id", opts.RunID))
	}

	im := &Importer{
		opts:      opts,
		db:        db,
		logger:    logger,
		tokenizer: resultline.Tokenizer{ColumnNumbers: opts.ColumnNumbers},
		fields:    schema.NewFieldSet(),
		seen:      NewLineSet(),
	}
	for _, opt := range options {
		opt(im)
	}
	if im.metrics != nil {
		im.rate = metrics.NewThroughputTracker(im.metrics)
	}
	return im
}

// State returns the lifecycle state.
func (im *Importer) State() State {
	return im.state
}

// Database returns the connection in use, or nil before Begin.
func (im *Importer) Database() sqldb.Database {
	return im.db
}

// Fields returns the inferred columns.
func (im *Importer) Fields() *schema.FieldSet {
	return im.fields
}

// Rows returns the number of processed lines, duplicates included.
func (im *Importer) Rows() int {
	return im.rows
}

// Begin connects if needed and opens the transaction.
func (im *Importer) Begin(ctx context.Context) error {
	if im.state != Disconnected {
		return errors.Newf(errors.ErrorTypeValidation, "cannot begin import in state %s", im.state)
	}
	if im.opts.Table == "" {
		return errors.New(errors.ErrorTypeValidation, "table name is required")
	}

	if im.db == nil {
		err := im.tracer.Trace(ctx, "connect", func(ctx context.Context) error {
			db, err := sqldb.Connect(ctx, im.opts.Database, im.opts.DatabaseConfig, im.logger)
			if err != nil {
				return err
			}
			im.db = db
			im.ownsDB = true
			return nil
		})
		if err != nil {
			return err
		}
	}
	im.logger = im.logger.With(zap.Stringer("backend", im.db.Type()))

	if err := im.execute(ctx, "BEGIN", metrics.StatementBegin); err != nil {
		im.Close()
		return errors.Wrap(err, errors.ErrorTypeConnection, "could not open transaction")
	}
	im.state = Connected
	return nil
}

// ProcessStream reads lines from r and returns the number of accepted
// lines. Two-pass mode caches them, first-line mode inserts them.
func (im *Importer) ProcessStream(ctx context.Context, r io.Reader, name string) (int, error) {
	if !im.state.active() {
		return 0, errors.Newf(errors.ErrorTypeValidation, "cannot read input in state %s", im.state)
	}

	ctx, span := im.tracer.StartSpan(ctx, "process_stream")
	defer span.End()
	span.SetAttribute("source", name)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, initialLineBuffer), MaxLineLength)

	count := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			span.Fail(err)
			return count, errors.Wrap(err, errors.ErrorTypeInternal, "import cancelled")
		}

		line := strings.TrimSuffix(scanner.Text(), "\r")
		if !resultline.Accept(line, im.opts.AllLines) {
			continue
		}
		if im.metrics != nil {
			im.metrics.LineRead(name)
		}
		if im.opts.Verbose >= 2 {
			im.logger.Debug("line", zap.String("source", name), zap.String("text", line))
		}

		if im.opts.FirstLine {
			if err := im.streamLine(ctx, line); err != nil {
				span.Fail(err)
				return count, err
			}
		} else {
			for _, tok := range im.tokenizer.Tokenize(line) {
				im.fields.AddField(tok.Key, tok.Value)
			}
			im.lines = append(im.lines, line)
		}
		count++
	}

	if err := scanner.Err(); err != nil {
		span.Fail(err)
		return count, errors.Wrap(err, errors.ErrorTypeFile, "could not read input").
			WithDetail("source", name)
	}

	span.SetAttribute("lines", count)
	return count, nil
}

// streamLine handles one line in first-line mode. The first line with
// tokens defines the schema.
func (im *Importer) streamLine(ctx context.Context, line string) error {
	if !im.tableReady {
		tokens := im.tokenizer.Tokenize(line)
		if len(tokens) == 0 {
			im.rows++
			return nil
		}
		for _, tok := range tokens {
			im.fields.AddField(tok.Key, tok.Value)
		}
		if err := im.CreateTable(ctx); err != nil {
			return err
		}
	}
	_, err := im.InsertLine(ctx, line)
	return err
}

// ProcessLineData creates the table from the collected schema and inserts
// the cached lines. In first-line mode the table normally exists already;
// it is only created here when no row carried any token.
func (im *Importer) ProcessLineData(ctx context.Context) error {
	if !im.state.active() {
		return errors.Newf(errors.ErrorTypeValidation, "cannot insert rows in state %s", im.state)
	}
	if im.opts.FirstLine {
		if im.tableReady {
			return nil
		}
		return im.CreateTable(ctx)
	}

	return im.tracer.Trace(ctx, "insert_rows", func(ctx context.Context) error {
		if err := im.CreateTable(ctx); err != nil {
			return err
		}
		for _, line := range im.lines {
			if _, err := im.InsertLine(ctx, line); err != nil {
				return err
			}
		}
		im.lines = nil
		return nil
	})
}

// CreateTable creates the destination table from the current schema. An
// existing table is kept in append mode and dropped otherwise.
func (im *Importer) CreateTable(ctx context.Context) error {
	if !im.state.active() {
		return errors.Newf(errors.ErrorTypeValidation, "cannot create table in state %s", im.state)
	}

	return im.tracer.Trace(ctx, "create_table", func(ctx context.Context) error {
		exists, err := im.db.ExistTable(ctx, im.opts.Table)
		if err != nil {
			return err
		}

		if exists {
			if im.opts.Append {
				im.logger.Info("Table exists. Appending data.")
				im.tableResolved()
				return nil
			}
			im.logger.Info("Table exists. Replacing data.")
			if err := im.dropTable(ctx); err != nil {
				return err
			}
		}

		if im.fields.Count() == 0 {
			return errors.New(errors.ErrorTypeData, "no columns found in input").
				WithDetail("table", im.opts.Table)
		}

		create := im.fields.MakeCreateTable(im.opts.Table, im.opts.Temporary, im.db.QuoteField)
		if im.opts.Verbose >= 1 {
			im.logger.Debug("creating table", zap.String("query", create))
		}

		err = im.execute(ctx, create, metrics.StatementCreate)
		if err != nil && im.db.Type() == sqldb.MySQL && errors.IsRetryable(err) {
			// information_schema does not list temporary tables
			im.logger.Info("Table maybe exists. Replacing data.")
			if err := im.dropTable(ctx); err != nil {
				return err
			}
			err = im.execute(ctx, create, metrics.StatementCreate)
		}
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeSchema, "could not create table").
				WithDetail("table", im.opts.Table)
		}

		im.tableResolved()
		return nil
	})
}

func (im *Importer) tableResolved() {
	im.tableReady = true
	im.state = SchemaResolved
	if im.metrics != nil {
		im.metrics.SetColumns(im.fields.Count())
	}
}

func (im *Importer) dropTable(ctx context.Context) error {
	sb := stringpool.NewSQLBuilder(16+len(im.opts.Table), im.db.QuoteField)
	query := sb.WriteQuery("DROP TABLE ").WriteIdentifier(im.opts.Table).String()
	sb.Close()

	if err := im.execute(ctx, query, metrics.StatementDrop); err != nil {
		return errors.Wrap(err, errors.ErrorTypeSchema, "could not drop table").
			WithDetail("table", im.opts.Table)
	}
	return nil
}

// InsertLine inserts one line and reports whether it was new. A line
// already seen in duplicate elimination mode is skipped and returns false.
// Only keys present in the schema are inserted; empty values bind NULL.
func (im *Importer) InsertLine(ctx context.Context, line string) (bool, error) {
	if !im.state.active() || !im.tableReady {
		return false, errors.Newf(errors.ErrorTypeValidation, "cannot insert before table exists (state %s)", im.state)
	}
	im.state = Streaming

	if im.opts.NoDuplicates && !im.seen.Add(line) {
		im.duplicates++
		im.rows++
		if im.metrics != nil {
			im.metrics.DuplicateSkipped()
		}
		if im.opts.Verbose >= 1 {
			im.logger.Debug("Dropping duplicate", zap.String("line", line))
		}
		return false, nil
	}

	tokens := im.tokenizer.Tokenize(line)
	cols := make([]string, 0, len(tokens))
	params := make([]sql.NullString, 0, len(tokens))
	for _, tok := range tokens {
		if !im.fields.Has(tok.Key) {
			if im.opts.Verbose >= 1 {
				im.logger.Debug("dropping column not in table", zap.String("column", tok.Key))
			}
			continue
		}
		cols = append(cols, tok.Key)
		params = append(params, sql.NullString{String: tok.Value, Valid: tok.Value != ""})
	}

	im.rows++
	if len(cols) == 0 {
		return true, nil
	}

	query := im.insertStatement(cols)
	if im.opts.Verbose >= 2 {
		im.logger.Debug("insert", zap.String("query", query), zap.Int("params", len(params)))
	}

	timer := metrics.NewTimer("insert")
	res, err := im.db.Query(ctx, query, params)
	if err != nil {
		return true, errors.Wrap(err, errors.ErrorTypeQuery, "could not insert row").
			WithDetail("line", line)
	}
	res.Close()
	elapsed := timer.Stop()

	im.inserted++
	if im.metrics != nil {
		im.metrics.StatementExecuted(metrics.StatementInsert)
		im.metrics.ObserveInsert(elapsed)
		im.metrics.RowInserted()
		im.rate.Increment(1)
	}
	return true, nil
}

func (im *Importer) insertStatement(cols []string) string {
	sb := stringpool.NewSQLBuilder(32+len(im.opts.Table)+len(cols)*24, im.db.QuoteField)
	defer sb.Close()

	sb.WriteQuery("INSERT INTO ").
		WriteIdentifier(im.opts.Table).
		WriteQuery(" (").
		WriteIdentifierList(cols).
		WriteQuery(") VALUES (").
		WritePlaceholders(len(cols), im.db.Placeholder).
		WriteByte(')')
	return sb.String()
}

// Commit commits the transaction.
func (im *Importer) Commit(ctx context.Context) error {
	if !im.state.active() {
		return errors.Newf(errors.ErrorTypeValidation, "cannot commit in state %s", im.state)
	}
	err := im.tracer.Trace(ctx, "commit", func(ctx context.Context) error {
		return im.execute(ctx, "COMMIT", metrics.StatementCommit)
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "could not commit")
	}
	im.state = Committed
	return nil
}

// Abort rolls back an open transaction and releases an owned connection.
// The rollback is best effort; its error is logged, not returned.
func (im *Importer) Abort(ctx context.Context) {
	if im.state.active() {
		if err := im.execute(ctx, "ROLLBACK", metrics.StatementRollback); err != nil {
			im.logger.Warn("rollback failed", zap.Error(err))
		}
		im.state = Aborted
	}
	im.Close()
}

// Close closes the connection if the Importer opened it.
func (im *Importer) Close() error {
	if !im.ownsDB || im.db == nil {
		return nil
	}
	err := im.db.Close()
	im.db = nil
	im.ownsDB = false
	return err
}

func (im *Importer) execute(ctx context.Context, query, kind string) error {
	if err := im.db.Execute(ctx, query); err != nil {
		return err
	}
	if im.metrics != nil {
		im.metrics.StatementExecuted(kind)
	}
	return nil
}

// Run imports all sources in one transaction and commits. On failure the
// transaction is rolled back and the error returned.
func (im *Importer) Run(ctx context.Context, sources []input.Source) (*Summary, error) {
	start := time.Now()

	if err := im.Begin(ctx); err != nil {
		return nil, err
	}
	backend := im.db.Type().String()

	for _, src := range sources {
		if err := im.importSource(ctx, src); err != nil {
			im.Abort(ctx)
			return nil, err
		}
	}

	if im.rows == 0 && len(im.lines) == 0 {
		if !im.opts.EmptyOkay {
			im.Abort(ctx)
			return nil, errors.New(errors.ErrorTypeData, "no data found in input").
				WithDetail("table", im.opts.Table)
		}
		im.logger.Info("No data found. Table not created.")
	} else if err := im.ProcessLineData(ctx); err != nil {
		im.Abort(ctx)
		return nil, err
	}

	if err := im.Commit(ctx); err != nil {
		im.Abort(ctx)
		return nil, err
	}

	im.logger.Info("Imported rows of data in total",
		zap.Int("rows", im.rows),
		zap.Int("fields", im.fields.Count()))

	summary := im.summary(backend, time.Since(start))
	if im.metrics != nil {
		im.metrics.SetThroughput(im.rate.GetAndReset())
		usage, err := im.metrics.RecordResourceUsage()
		if err != nil {
			im.logger.Debug("could not sample resource usage", zap.Error(err))
		} else {
			summary.Resources = &usage
		}
	}
	if err := im.Close(); err != nil {
		im.logger.Warn("could not close database", zap.Error(err))
	}
	return summary, nil
}

// importSource reads one input. Unreadable inputs are skipped when
// EmptyOkay is set.
func (im *Importer) importSource(ctx context.Context, src input.Source) error {
	if src.Name == input.StdinName {
		im.logger.Info("Reading data from stdin ...")
	}

	rc, err := src.Open()
	if err == nil {
		var n int
		n, err = im.ProcessStream(ctx, rc, src.Name)
		closeErr := rc.Close()
		if err == nil && closeErr != nil {
			err = errors.Wrap(closeErr, errors.ErrorTypeFile, "could not close input").
				WithDetail("source", src.Name)
		}
		if err == nil {
			msg := "Cached rows of data"
			if im.opts.FirstLine {
				msg = "Imported rows of data"
			}
			im.logger.Info(msg, zap.String("source", src.Name), zap.Int("rows", n))
			im.files = append(im.files, FileSummary{Name: src.Name, Rows: n})
			return nil
		}
	}

	if im.opts.EmptyOkay && errors.IsType(err, errors.ErrorTypeFile) {
		im.logger.Warn("skipping unreadable input", zap.String("source", src.Name), zap.Error(err))
		im.files = append(im.files, FileSummary{Name: src.Name, Error: err.Error()})
		return nil
	}
	return err
}

func (im *Importer) summary(backend string, d time.Duration) *Summary {
	mode := "two-pass"
	if im.opts.FirstLine {
		mode = "first-line"
	}
	return &Summary{
		RunID:      im.opts.RunID,
		Table:      im.opts.Table,
		Backend:    backend,
		Mode:       mode,
		Rows:       im.rows,
		Inserted:   im.inserted,
		Duplicates: im.duplicates,
		Columns:    im.fields.Count(),
		Fields:     im.fields.Fields(),
		Files:      im.files,
		Duration:   d,
	}
}
