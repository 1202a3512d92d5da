// Package schema infers SQL column types from streams of key/value samples.
//
// A FieldSet accumulates the columns of one table in first-seen order. Each
// observation may widen a column's type (integer < double < text) but never
// narrows it, so the resulting CREATE TABLE accepts every sampled row.
package schema

import (
	stringpool "github.com/ajitpratap0/importdata/pkg/strings"
)

// Field is one inferred column.
type Field struct {
	Name string    `json:"name"`
	Type FieldType `json:"-"`
	// SQLType is the rendered SQL type, kept for reports
	SQLType string `json:"type"`
}

// FieldSet is the ordered set of detected columns.
type FieldSet struct {
	fields []Field
	index  map[string]int
}

// NewFieldSet creates an empty field set.
func NewFieldSet() *FieldSet {
	return &FieldSet{index: make(map[string]int)}
}

// Count returns the number of distinct columns.
func (fs *FieldSet) Count() int {
	return len(fs.fields)
}

// AddField records an observation of value for column key.
func (fs *FieldSet) AddField(key, value string) {
	if fs.index == nil {
		fs.index = make(map[string]int)
	}

	t := Detect(value)
	if i, ok := fs.index[key]; ok {
		fs.fields[i].Type = Widen(fs.fields[i].Type, t)
		return
	}

	fs.index[key] = len(fs.fields)
	fs.fields = append(fs.fields, Field{Name: key, Type: t})
}

// Has reports whether the column is known.
func (fs *FieldSet) Has(key string) bool {
	_, ok := fs.index[key]
	return ok
}

// Lookup returns the type of a column.
func (fs *FieldSet) Lookup(key string) (FieldType, bool) {
	i, ok := fs.index[key]
	if !ok {
		return TypeNone, false
	}
	return fs.fields[i].Type, true
}

// Fields returns a copy of the columns in first-seen order.
func (fs *FieldSet) Fields() []Field {
	out := make([]Field, len(fs.fields))
	for i, f := range fs.fields {
		f.SQLType = f.Type.SQLName()
		out[i] = f
	}
	return out
}

// Names returns the column names in first-seen order.
func (fs *FieldSet) Names() []string {
	names := make([]string, len(fs.fields))
	for i, f := range fs.fields {
		names[i] = f.Name
	}
	return names
}

// MakeCreateTable renders CREATE [TEMPORARY] TABLE for the field set.
// Every column is nullable since any row may omit any key. A nil quote
// uses ANSI double quotes.
func (fs *FieldSet) MakeCreateTable(table string, temporary bool, quote stringpool.QuoteFunc) string {
	sb := stringpool.NewSQLBuilder(64+len(fs.fields)*32, quote)
	defer sb.Close()

	sb.WriteQuery("CREATE ")
	if temporary {
		sb.WriteQuery("TEMPORARY ")
	}
	sb.WriteQuery("TABLE ").WriteIdentifier(table).WriteQuery(" (")

	for i, f := range fs.fields {
		if i != 0 {
			sb.WriteQuery(", ")
		}
		sb.WriteIdentifier(f.Name).WriteByte(' ').WriteQuery(f.Type.SQLName())
	}

	sb.WriteByte(')')
	return sb.String()
}

// Reset forgets all columns.
func (fs *FieldSet) Reset() {
	fs.fields = fs.fields[:0]
	fs.index = make(map[string]int)
}
