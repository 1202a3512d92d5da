package sqldb

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func text(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}

func TestCompleteResultIteration(t *testing.T) {
	r := newCompleteResult("SELECT", []string{"a", "b"}, [][]sql.NullString{
		{text("1"), {}},
		{text("2"), text("x")},
	})

	assert.Equal(t, -1, r.CurrentRow())

	ok, err := r.Step()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1", r.Text(0))
	assert.True(t, r.IsNull(1))
	assert.Equal(t, "", r.Text(1))

	ok, err = r.Step()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, r.CurrentRow())
	assert.Equal(t, "x", r.Text(1))

	ok, err = r.Step()
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = r.Step()
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := r.NumRows()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, r.IsNullAt(0, 1))
	assert.Equal(t, "2", r.TextAt(1, 0))
}

func TestCursorResultCachesSteppedRows(t *testing.T) {
	src := [][]sql.NullString{{text("a")}, {text("b")}, {text("c")}}
	next := 0
	closed := false

	r := newCursorResult("SELECT", []string{"v"}, func() ([]sql.NullString, bool, error) {
		if next == len(src) {
			return nil, false, nil
		}
		next++
		return src[next-1], true, nil
	}, func() error {
		closed = true
		return nil
	})

	ok, err := r.Step()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a", r.Text(0))
	assert.Equal(t, 1, next)

	require.NoError(t, r.ReadComplete())
	assert.True(t, closed)

	n, err := r.NumRows()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "a", r.TextAt(0, 0))
	assert.Equal(t, "c", r.TextAt(2, 0))

	ok, err = r.Step()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "b", r.Text(0))
}

func TestColMap(t *testing.T) {
	r := newCompleteResult("SELECT", []string{"algo", "n"}, nil)
	r.ReadColMap()

	assert.True(t, r.ExistCol("n"))
	assert.False(t, r.ExistCol("time"))

	col, err := r.FindCol("n")
	require.NoError(t, err)
	assert.Equal(t, 1, col)

	_, err = r.FindCol("time")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "time")
}

func TestFormatTextTable(t *testing.T) {
	r := newCompleteResult("SELECT", []string{"algo", "n"}, [][]sql.NullString{
		{text("sort"), text("1024")},
		{text("radix"), {}},
	})

	out, err := FormatTextTable(r)
	require.NoError(t, err)

	want := "" +
		"+-------+------+\n" +
		"|  algo |    n |\n" +
		"+-------+------+\n" +
		"| sort  | 1024 |\n" +
		"| radix |      |\n" +
		"+-------+------+\n"
	assert.Equal(t, want, out)
}
