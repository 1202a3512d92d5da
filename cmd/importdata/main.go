package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ajitpratap0/importdata/internal/pipeline"
	"github.com/ajitpratap0/importdata/pkg/config"
	"github.com/ajitpratap0/importdata/pkg/errors"
	"github.com/ajitpratap0/importdata/pkg/input"
	"github.com/ajitpratap0/importdata/pkg/json"
	"github.com/ajitpratap0/importdata/pkg/logger"
	"github.com/ajitpratap0/importdata/pkg/metrics"
	"github.com/ajitpratap0/importdata/pkg/observability"
	"github.com/ajitpratap0/importdata/pkg/sqldb"
)

var version = "0.1.0"

const envPrefix = "IMPORTDATA"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "importdata:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	kind := &tableKind{}

	cmd := &cobra.Command{
		Use:   "importdata [flags] <table> [files...]",
		Short: "Import RESULT lines into a SQL table",
		Long: `importdata reads RESULT lines from log files and imports their key=value
tokens into a SQL table, one row per line. Column types are detected from the
values. Files may be globs and may be compressed; without files standard
input is read.

Example:
  importdata -D sqlite:results.db stats 'logs/**/*.log.gz'`,
		Args:          cobra.MinimumNArgs(1),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(v, args[0], kind)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, args[1:], cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.BoolP("first-line", "1", false, "Take column types from the first line and insert while reading")
	f.BoolP("all-lines", "a", false, "Import all lines, not only RESULT lines")
	f.BoolP("column-numbers", "C", false, "Name tokens without '=' col<N> instead of using them as flags")
	f.BoolP("empty-okay", "E", false, "Accept empty input and skip unreadable files")
	f.BoolP("no-duplicates", "d", false, "Skip lines that were already imported")
	f.VarPF(&tableKindFlag{kind: kind, temporary: true}, "temporary", "T",
		"Create a TEMPORARY table").NoOptDefVal = "true"
	f.VarPF(&tableKindFlag{kind: kind}, "permanent", "P",
		"Create a permanent table (default); reverts an earlier -T").NoOptDefVal = "true"
	f.BoolP("append", "A", false, "Append to an existing table instead of replacing it")
	f.StringP("database", "D", "", "Database: postgresql[:db], mysql[:db] or sqlite[:file]; empty tries all")
	f.CountP("verbose", "v", "Print progress; repeat to print every line and statement")
	f.String("config", "", "Path to YAML configuration file")
	f.String("report", "", "Write a JSON summary to this file ('-' for stdout)")
	f.String("metrics-file", "", "Write Prometheus metrics to this file")
	f.Bool("trace", false, "Print OpenTelemetry spans to stderr")
	f.Bool("show", false, "Print the table after importing")
	f.String("log-encoding", "", "Log encoding (console, json)")

	_ = v.BindPFlags(f)
	return cmd
}

// tableKind records which of -T and -P was given last.
type tableKind struct {
	temporary *bool
}

// tableKindFlag is -T or -P. Both write the same tableKind, so the flag
// given last wins.
type tableKindFlag struct {
	kind      *tableKind
	temporary bool
	value     bool
}

func (f *tableKindFlag) Set(s string) error {
	on, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	f.value = on
	if on {
		temporary := f.temporary
		f.kind.temporary = &temporary
	}
	return nil
}

func (f *tableKindFlag) String() string { return strconv.FormatBool(f.value) }

func (f *tableKindFlag) Type() string { return "bool" }

// buildConfig layers flags and IMPORTDATA_* variables over the optional
// configuration file.
func buildConfig(v *viper.Viper, table string, kind *tableKind) (*config.ImportConfig, error) {
	cfg := config.DefaultImportConfig()
	if path := v.GetString("config"); path != "" {
		loaded, err := config.LoadImportConfig(path)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "could not load configuration").
				WithDetail("path", path)
		}
		cfg = loaded
	}
	cfg.Table.Name = table

	bools := map[string]*bool{
		"first-line":     &cfg.Table.FirstLine,
		"all-lines":      &cfg.Input.AllLines,
		"column-numbers": &cfg.Input.ColumnNumbers,
		"empty-okay":     &cfg.Input.EmptyOkay,
		"no-duplicates":  &cfg.Input.NoDuplicates,
		"append":         &cfg.Table.Append,
		"trace":          &cfg.Observability.Trace,
		"show":           &cfg.Observability.Show,
	}
	for key, dst := range bools {
		if v.IsSet(key) {
			*dst = v.GetBool(key)
		}
	}

	strs := map[string]*string{
		"database":     &cfg.Database.Spec,
		"report":       &cfg.Observability.ReportPath,
		"metrics-file": &cfg.Observability.MetricsPath,
		"log-encoding": &cfg.Observability.LogEncoding,
	}
	for key, dst := range strs {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}

	switch {
	case kind != nil && kind.temporary != nil:
		cfg.Table.Temporary = *kind.temporary
	case v.GetBool("permanent"):
		cfg.Table.Temporary = false
	case v.GetBool("temporary"):
		cfg.Table.Temporary = true
	}
	if v.IsSet("verbose") {
		cfg.Observability.Verbose = v.GetInt("verbose")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid configuration")
	}
	return cfg, nil
}

func run(ctx context.Context, cfg *config.ImportConfig, args []string, stdout, stderr io.Writer) error {
	log, err := logger.New(logger.Config{
		Level:    logger.LevelForVerbosity(cfg.Observability.Verbose),
		Encoding: cfg.Observability.LogEncoding,
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "could not create logger")
	}
	logger.Set(log)
	defer func() { _ = logger.Sync() }()

	runID := uuid.NewString()
	ctx = logger.WithRunID(ctx, runID)
	ctx = context.WithValue(ctx, logger.TableKey, cfg.Table.Name)
	clog := logger.WithContext(ctx, log)

	sources, err := input.Expand(args)
	if err != nil {
		return err
	}

	tracer, err := observability.NewTracer(observability.TracingConfig{
		Enabled:        cfg.Observability.Trace,
		ServiceName:    "importdata",
		ServiceVersion: version,
		Writer:         stderr,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := tracer.Shutdown(context.Background()); err != nil {
			clog.Warn("could not flush spans", zap.Error(err))
		}
	}()

	collector := metrics.NewCollector()

	db, err := sqldb.Connect(ctx, cfg.Database.Spec, cfg.Database, clog)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			clog.Warn("could not close database", zap.Error(err))
		}
	}()

	opts := pipeline.OptionsFromConfig(cfg)
	opts.RunID = runID
	im := pipeline.NewImporter(opts, db, log,
		pipeline.WithMetrics(collector),
		pipeline.WithTracer(tracer))

	summary, err := im.Run(ctx, sources)
	if err != nil {
		return err
	}

	if cfg.Observability.Show {
		if err := showTable(ctx, db, cfg.Table.Name, stdout); err != nil {
			return err
		}
	}
	if path := cfg.Observability.ReportPath; path != "" {
		if err := json.WriteFile(path, summary); err != nil {
			return errors.Wrap(err, errors.ErrorTypeFile, "could not write report").
				WithDetail("path", path)
		}
	}
	if path := cfg.Observability.MetricsPath; path != "" {
		if err := collector.WriteTextfile(path); err != nil {
			return err
		}
	}
	return nil
}

// showTable prints the imported table. A table skipped for empty input is
// not an error.
func showTable(ctx context.Context, db sqldb.Database, table string, w io.Writer) error {
	exists, err := db.ExistTable(ctx, table)
	if err != nil || !exists {
		return err
	}

	res, err := db.Query(ctx, "SELECT * FROM "+db.QuoteField(table), nil)
	if err != nil {
		return err
	}
	defer res.Close()

	text, err := sqldb.FormatTextTable(res)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, text)
	return err
}
