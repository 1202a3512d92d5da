package json

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type report struct {
	Table   string   `json:"table"`
	Rows    int      `json:"rows"`
	Columns []string `json:"columns"`
}

func TestEncodeIndentsAndKeepsHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, map[string]string{"q": "a<b"}))
	assert.Equal(t, "{\n  \"q\": \"a<b\"\n}\n", buf.String())
}

func TestWriteFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	in := report{Table: "stats", Rows: 2, Columns: []string{"a", "b"}}
	require.NoError(t, WriteFile(path, in))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var out report
	require.NoError(t, Unmarshal(data, &out))
	assert.Equal(t, in, out)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file must be renamed")
}

func TestWriteFileMissingDir(t *testing.T) {
	err := WriteFile(filepath.Join(t.TempDir(), "nope", "report.json"), report{})
	require.Error(t, err)
}

func TestBufferPool(t *testing.T) {
	buf := GetBuffer()
	buf.WriteString("x")
	PutBuffer(buf)
	assert.Zero(t, GetBuffer().Len())
}
