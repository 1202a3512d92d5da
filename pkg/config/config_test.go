package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ImportConfig)
		wantErr string
	}{
		{"valid", func(c *ImportConfig) {}, ""},
		{"no table", func(c *ImportConfig) { c.Table.Name = "  " }, "table name is required"},
		{"negative verbose", func(c *ImportConfig) { c.Observability.Verbose = -1 }, "verbose cannot be negative"},
		{"bad encoding", func(c *ImportConfig) { c.Observability.LogEncoding = "xml" }, "unknown log encoding"},
		{"bad mysql net", func(c *ImportConfig) { c.Database.MySQL.Net = "udp" }, "unknown mysql net"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultImportConfig()
			cfg.Table.Name = "stats"
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadImportConfig(t *testing.T) {
	t.Setenv("IMPORTDATA_TEST_PGCONN", "host=db.example dbname=bench")

	path := filepath.Join(t.TempDir(), "import.yaml")
	content := `
table:
  name: stats
  first_line: true
input:
  no_duplicates: true
database:
  spec: pg
  postgres:
    conn_string: ${IMPORTDATA_TEST_PGCONN}
observability:
  verbose: 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadImportConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "stats", cfg.Table.Name)
	assert.True(t, cfg.Table.FirstLine)
	assert.Equal(t, "first-line", cfg.Table.SchemaMode())
	assert.True(t, cfg.Input.NoDuplicates)
	assert.Equal(t, "pg", cfg.Database.Spec)
	assert.Equal(t, "host=db.example dbname=bench", cfg.Database.Postgres.ConnString)
	assert.Equal(t, 2, cfg.Observability.Verbose)
	// defaults survive
	assert.Equal(t, "tcp", cfg.Database.MySQL.Net)
	assert.Equal(t, "console", cfg.Observability.LogEncoding)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := LoadImportConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestSubstituteEnvVars(t *testing.T) {
	t.Setenv("IMPORTDATA_A", "x")
	assert.Equal(t, "x-", substituteEnvVars("${IMPORTDATA_A}-${IMPORTDATA_UNSET_VAR}"))
	assert.Equal(t, "${open", substituteEnvVars("${open"))
}
