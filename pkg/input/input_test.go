package input

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/importdata/pkg/errors"
	"github.com/ajitpratap0/importdata/pkg/testutil"
)

const sample = "RESULT a=1 b=2\nnoise\nRESULT a=3\n"

func TestDetectAlgorithm(t *testing.T) {
	tests := map[string]Algorithm{
		"run.log":         None,
		"run.log.gz":      Gzip,
		"RUN.LOG.GZ":      Gzip,
		"run.zst":         Zstd,
		"run.lz4":         LZ4,
		"run.xz":          XZ,
		"run.sz":          S2,
		"run.s2":          S2,
		"dir.gz/plain":    None,
		"archive.tar.bz2": None,
	}
	for name, want := range tests {
		assert.Equal(t, want, DetectAlgorithm(name), name)
	}
}

func TestRoundTripAllAlgorithms(t *testing.T) {
	for _, alg := range []Algorithm{None, Gzip, Zstd, LZ4, XZ, S2} {
		t.Run(string(alg), func(t *testing.T) {
			var buf bytes.Buffer
			w, err := NewWriter(&buf, alg)
			require.NoError(t, err)
			_, err = io.WriteString(w, sample)
			require.NoError(t, err)
			require.NoError(t, w.Close())

			r, err := NewReader(&buf, alg)
			require.NoError(t, err)
			defer r.Close()

			data, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, sample, string(data))
		})
	}
}

func TestUnsupportedAlgorithm(t *testing.T) {
	_, err := NewReader(bytes.NewReader(nil), "bzip2")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func writeCompressed(t *testing.T, path string, alg Algorithm, content string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w, err := NewWriter(f, alg)
	require.NoError(t, err)
	_, err = io.WriteString(w, content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func TestOpenDecompressesByExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bench.log.zst")
	writeCompressed(t, path, Zstd, sample)

	sources, err := Expand([]string{path})
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, Zstd, sources[0].Compression)

	r, err := sources[0].Open()
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, sample, string(data))
}

func TestExpandNoArgsIsStdin(t *testing.T) {
	sources, err := Expand(nil)
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, StdinName, sources[0].Name)

	sources, err = Expand([]string{"-"})
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, StdinName, sources[0].Name)
}

func TestGlobRecursiveAndSorted(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteLines(t, dir, "b.log", "RESULT x=1")
	testutil.WriteLines(t, dir, "a.log", "RESULT x=2")
	testutil.WriteLines(t, dir, "sub/deep/c.log", "RESULT x=3")
	testutil.WriteLines(t, dir, "skip.txt", "RESULT x=4")

	matches, err := Glob(filepath.Join(dir, "*.log"))
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.log"), filepath.Join(dir, "b.log")}, matches)

	matches, err = Glob(filepath.Join(dir, "**", "*.log"))
	require.NoError(t, err)
	assert.Contains(t, matches, filepath.Join(dir, "sub", "deep", "c.log"))
	assert.NotContains(t, matches, filepath.Join(dir, "skip.txt"))
}

func TestGlobWithoutMatchesIsLiteral(t *testing.T) {
	dir := t.TempDir()
	pattern := filepath.Join(dir, "*.none")

	matches, err := Glob(pattern)
	require.NoError(t, err)
	assert.Equal(t, []string{pattern}, matches)

	sources, err := Expand([]string{pattern})
	require.NoError(t, err)
	require.Len(t, sources, 1)

	_, err = sources[0].Open()
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))
}

func TestGlobExpandsHome(t *testing.T) {
	homedir.DisableCache = true
	defer func() { homedir.DisableCache = false }()

	home := t.TempDir()
	t.Setenv("HOME", home)
	testutil.WriteLines(t, home, "r.log", "RESULT x=1")

	matches, err := Glob("~/r.log")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(home, "r.log")}, matches)
}

func TestFromReader(t *testing.T) {
	src := FromReader("inline", bytes.NewBufferString(sample))
	r, err := src.Open()
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, sample, string(data))
}
