package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/importdata/pkg/config"
	"github.com/ajitpratap0/importdata/pkg/errors"
	"github.com/ajitpratap0/importdata/pkg/json"
	"github.com/ajitpratap0/importdata/pkg/logger"
	"github.com/ajitpratap0/importdata/pkg/sqldb"
	"github.com/ajitpratap0/importdata/pkg/testutil"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() { logger.Set(nil) })

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)

	ctx, cancel := testutil.TestContext(t)
	defer cancel()
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func readReport(t *testing.T, path string) map[string]interface{} {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var report map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &report))
	return report
}

func countRows(t *testing.T, dbPath, table string) string {
	t.Helper()
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	db := sqldb.New(sqldb.SQLite, config.DatabaseConfig{})
	require.NoError(t, db.Initialize(ctx, dbPath))
	defer db.Close()

	res, err := db.Query(ctx, `SELECT COUNT(*) FROM "`+table+`"`, nil)
	require.NoError(t, err)
	defer res.Close()
	ok, err := res.Step()
	require.NoError(t, err)
	require.True(t, ok)
	return res.Text(0)
}

func TestImportIntoSQLiteFile(t *testing.T) {
	dir := t.TempDir()
	logFile := testutil.WriteLines(t, dir, "bench.log",
		"RESULT algo=sort n=100 time=0.5",
		"RESULT algo=merge n=200 time=1.25",
		"noise")
	dbPath := filepath.Join(dir, "results.db")
	reportPath := filepath.Join(dir, "report.json")
	metricsPath := filepath.Join(dir, "importdata.prom")

	out, err := execute(t, "-D", "sqlite:"+dbPath, "--show",
		"--report", reportPath, "--metrics-file", metricsPath,
		"stats", logFile)
	require.NoError(t, err)

	assert.Contains(t, out, "|  algo |   n | time |")
	assert.Contains(t, out, "| merge | 200 | 1.25 |")

	report := readReport(t, reportPath)
	assert.Equal(t, "stats", report["table"])
	assert.Equal(t, "sqlite", report["backend"])
	assert.Equal(t, float64(2), report["rows"])
	assert.Equal(t, float64(3), report["columns"])
	assert.NotEmpty(t, report["run_id"])
	assert.Contains(t, report, "resources")

	prom, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "importdata_rows_inserted_total 2")

	// permanent by default
	assert.Equal(t, "2", countRows(t, dbPath, "stats"))
}

func TestTemporaryTableIsGone(t *testing.T) {
	dir := t.TempDir()
	logFile := testutil.WriteLines(t, dir, "bench.log", "RESULT n=1")
	dbPath := filepath.Join(dir, "results.db")

	out, err := execute(t, "-T", "--show", "-D", "sqlite:"+dbPath, "tmp", logFile)
	require.NoError(t, err)
	assert.Contains(t, out, "| n |")

	ctx, cancel := testutil.TestContext(t)
	defer cancel()
	db := sqldb.New(sqldb.SQLite, config.DatabaseConfig{})
	require.NoError(t, db.Initialize(ctx, dbPath))
	defer db.Close()
	exists, err := db.ExistTable(ctx, "tmp")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLastTableKindFlagWins(t *testing.T) {
	dir := t.TempDir()
	logFile := testutil.WriteLines(t, dir, "bench.log", "RESULT n=1")
	dbPath := filepath.Join(dir, "results.db")

	_, err := execute(t, "-T", "-P", "-D", "sqlite:"+dbPath, "kept", logFile)
	require.NoError(t, err)
	assert.Equal(t, "1", countRows(t, dbPath, "kept"))

	out, err := execute(t, "-P", "-T", "--show", "-D", "sqlite:"+dbPath, "dropped", logFile)
	require.NoError(t, err)
	assert.Contains(t, out, "| n |")

	ctx, cancel := testutil.TestContext(t)
	defer cancel()
	db := sqldb.New(sqldb.SQLite, config.DatabaseConfig{})
	require.NoError(t, db.Initialize(ctx, dbPath))
	defer db.Close()
	exists, err := db.ExistTable(ctx, "dropped")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFlagsFromEnvironment(t *testing.T) {
	dir := t.TempDir()
	logFile := testutil.WriteLines(t, dir, "bench.log", "RESULT n=1", "RESULT n=1", "RESULT n=2 x=y")
	reportPath := filepath.Join(dir, "report.json")

	t.Setenv("IMPORTDATA_NO_DUPLICATES", "true")
	t.Setenv("IMPORTDATA_FIRST_LINE", "true")
	t.Setenv("IMPORTDATA_DATABASE", "sqlite")

	_, err := execute(t, "--report", reportPath, "stats", logFile)
	require.NoError(t, err)

	report := readReport(t, reportPath)
	assert.Equal(t, "first-line", report["mode"])
	assert.Equal(t, float64(1), report["duplicates"])
	assert.Equal(t, float64(1), report["columns"])
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	logFile := testutil.WriteLines(t, dir, "bench.log", "RESULT n=1")
	dbPath := filepath.Join(dir, "results.db")
	reportPath := filepath.Join(dir, "report.json")

	t.Setenv("IMPORTDATA_TEST_DB", dbPath)
	configPath := testutil.WriteLines(t, dir, "importdata.yaml",
		"table:",
		"  first_line: true",
		"database:",
		"  spec: sqlite:${IMPORTDATA_TEST_DB}",
		"  sqlite:",
		"    pragmas: [\"journal_mode = WAL\"]",
		"observability:",
		"  report_path: "+reportPath,
	)

	_, err := execute(t, "--config", configPath, "stats", logFile)
	require.NoError(t, err)

	report := readReport(t, reportPath)
	assert.Equal(t, "first-line", report["mode"])
	assert.Equal(t, "1", countRows(t, dbPath, "stats"))
}

func TestEmptyInput(t *testing.T) {
	dir := t.TempDir()
	logFile := testutil.WriteLines(t, dir, "bench.log", "no results here")

	_, err := execute(t, "-D", "sqlite", "stats", logFile)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))

	_, err = execute(t, "-E", "--show", "-D", "sqlite", "stats", logFile)
	require.NoError(t, err)
}

func TestMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope-*.log")

	_, err := execute(t, "-D", "sqlite", "stats", missing)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))
}

func TestArgumentErrors(t *testing.T) {
	_, err := execute(t)
	assert.Error(t, err)

	_, err = execute(t, "-D", "oracle", "stats", "-")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	_, err = execute(t, "--log-encoding", "xml", "stats")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestRunWithoutCommand(t *testing.T) {
	dir := t.TempDir()
	logFile := testutil.WriteLines(t, dir, "bench.log", "RESULT n=1")

	cfg := config.DefaultImportConfig()
	cfg.Table.Name = "stats"
	cfg.Database.Spec = "sqlite"
	cfg.Observability.Show = true
	t.Cleanup(func() { logger.Set(nil) })

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), cfg, []string{logFile}, &out, io.Discard))
	assert.Contains(t, out.String(), "| 1 |")
}
