package sqldb

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/ajitpratap0/importdata/pkg/errors"
	"github.com/ajitpratap0/importdata/pkg/schema"
	stringpool "github.com/ajitpratap0/importdata/pkg/strings"
)

// Result is the outcome of Query. Rows can be iterated with Step and read
// with IsNull/Text, or materialized with ReadComplete and then accessed
// randomly with IsNullAt/TextAt. Rows passed by Step stay available for
// random access.
type Result interface {
	// Query returns the statement text.
	Query() string

	// NumCols returns the number of result columns.
	NumCols() int
	// ColName returns the name of column col.
	ColName(col int) string

	// ReadColMap builds the name to column index map used by ExistCol and
	// FindCol.
	ReadColMap()
	// ExistCol reports whether a column name exists.
	ExistCol(name string) bool
	// FindCol returns the index of a named column.
	FindCol(name string) (int, error)

	// CurrentRow returns the current row index, -1 before the first Step.
	CurrentRow() int
	// Step advances to the next row and reports whether there is one.
	Step() (bool, error)
	// IsNull reports whether column col of the current row is NULL.
	IsNull(col int) bool
	// Text returns column col of the current row, "" for NULL.
	Text(col int) string

	// ReadComplete fetches all remaining rows into memory.
	ReadComplete() error
	// NumRows returns the number of rows, reading them all first.
	NumRows() (int, error)
	// IsNullAt reports whether cell (row, col) is NULL.
	IsNullAt(row, col int) bool
	// TextAt returns cell (row, col), "" for NULL.
	TextAt(row, col int) string

	// Close releases the underlying cursor.
	Close() error
}

// fetchFunc returns the next row of a cursor, or ok == false at the end.
type fetchFunc func() (row []sql.NullString, ok bool, err error)

// cachedResult implements Result over a cursor, caching every fetched row.
type cachedResult struct {
	query  string
	cols   []string
	colmap map[string]int

	rows     [][]sql.NullString
	row      int
	complete bool

	fetch   fetchFunc
	closeFn func() error
}

// newCompleteResult wraps rows that are already in memory.
func newCompleteResult(query string, cols []string, rows [][]sql.NullString) *cachedResult {
	return &cachedResult{
		query:    query,
		cols:     cols,
		rows:     rows,
		row:      -1,
		complete: true,
	}
}

// newCursorResult wraps a cursor that is read on demand.
func newCursorResult(query string, cols []string, fetch fetchFunc, closeFn func() error) *cachedResult {
	return &cachedResult{
		query:   query,
		cols:    cols,
		row:     -1,
		fetch:   fetch,
		closeFn: closeFn,
	}
}

func (r *cachedResult) Query() string {
	return r.query
}

func (r *cachedResult) NumCols() int {
	return len(r.cols)
}

func (r *cachedResult) ColName(col int) string {
	return r.cols[col]
}

func (r *cachedResult) ReadColMap() {
	r.colmap = make(map[string]int, len(r.cols))
	for i, name := range r.cols {
		r.colmap[name] = i
	}
}

func (r *cachedResult) ExistCol(name string) bool {
	_, ok := r.colmap[name]
	return ok
}

func (r *cachedResult) FindCol(name string) (int, error) {
	col, ok := r.colmap[name]
	if !ok {
		return 0, errors.Newf(errors.ErrorTypeQuery, "column %s not found in result", name).
			WithDetail("query", r.query)
	}
	return col, nil
}

func (r *cachedResult) CurrentRow() int {
	return r.row
}

func (r *cachedResult) Step() (bool, error) {
	if r.row < len(r.rows) {
		r.row++
	}
	if r.row < len(r.rows) {
		return true, nil
	}
	if r.complete {
		return false, nil
	}

	ok, err := r.fetchOne()
	if err != nil {
		return false, err
	}
	return ok, nil
}

// fetchOne appends the next cursor row to the cache.
func (r *cachedResult) fetchOne() (bool, error) {
	row, ok, err := r.fetch()
	if err != nil {
		return false, err
	}
	if !ok {
		r.complete = true
		return false, r.release()
	}
	r.rows = append(r.rows, row)
	return true, nil
}

func (r *cachedResult) IsNull(col int) bool {
	return r.IsNullAt(r.row, col)
}

func (r *cachedResult) Text(col int) string {
	return r.TextAt(r.row, col)
}

func (r *cachedResult) ReadComplete() error {
	for !r.complete {
		if _, err := r.fetchOne(); err != nil {
			return err
		}
	}
	return nil
}

func (r *cachedResult) NumRows() (int, error) {
	if err := r.ReadComplete(); err != nil {
		return 0, err
	}
	return len(r.rows), nil
}

func (r *cachedResult) IsNullAt(row, col int) bool {
	return !r.rows[row][col].Valid
}

func (r *cachedResult) TextAt(row, col int) string {
	return r.rows[row][col].String
}

func (r *cachedResult) Close() error {
	r.complete = true
	return r.release()
}

func (r *cachedResult) release() error {
	if r.closeFn == nil {
		return nil
	}
	fn := r.closeFn
	r.closeFn = nil
	return fn()
}

// FormatTextTable reads r completely and renders it as an ASCII table.
// Column names are right-aligned; data is right-aligned in columns where
// every value is numeric or empty and left-aligned otherwise.
func FormatTextTable(r Result) (string, error) {
	numRows, err := r.NumRows()
	if err != nil {
		return "", err
	}
	numCols := r.NumCols()

	width := make([]int, numCols)
	numeric := make([]bool, numCols)
	for col := 0; col < numCols; col++ {
		width[col] = len(r.ColName(col))
		numeric[col] = true
	}
	for row := 0; row < numRows; row++ {
		for col := 0; col < numCols; col++ {
			text := r.TextAt(row, col)
			width[col] = max(width[col], len(text))
			if numeric[col] && !isNumber(text) {
				numeric[col] = false
			}
		}
	}

	sep := stringpool.GetBuilder(stringpool.Small)
	defer stringpool.PutBuilder(sep, stringpool.Small)
	for col := 0; col < numCols; col++ {
		sep.WriteString("+-")
		sep.WriteString(strings.Repeat("-", width[col]+1))
	}
	sep.WriteString("+\n")
	line := sep.String()

	out := stringpool.GetBuilder(stringpool.Medium)
	defer stringpool.PutBuilder(out, stringpool.Medium)

	out.WriteString(line)
	for col := 0; col < numCols; col++ {
		fmt.Fprintf(out, "| %*s ", width[col], r.ColName(col))
	}
	out.WriteString("|\n")
	out.WriteString(line)

	for row := 0; row < numRows; row++ {
		for col := 0; col < numCols; col++ {
			if numeric[col] {
				fmt.Fprintf(out, "| %*s ", width[col], r.TextAt(row, col))
			} else {
				fmt.Fprintf(out, "| %-*s ", width[col], r.TextAt(row, col))
			}
		}
		out.WriteString("|\n")
	}
	out.WriteString(line)

	return stringpool.Clone(out.String()), nil
}

func isNumber(s string) bool {
	switch schema.Detect(s) {
	case schema.TypeNone, schema.TypeInteger, schema.TypeDouble:
		return true
	}
	return false
}
