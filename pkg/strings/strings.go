// Package strings provides pooled string building for importdata, mostly
// used to render SQL statements once per input row.
package strings

import (
	"fmt"
	"sync"
	"unsafe"
)

// BytesToString converts byte slice to string without allocation
// WARNING: The returned string shares memory with the byte slice.
// Do not modify the byte slice after calling this function.
func BytesToString(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(unsafe.SliceData(b), len(b))
}

// Builder provides efficient string building
type Builder struct {
	buf []byte
}

// NewBuilder creates a new string builder
func NewBuilder(capacity int) *Builder {
	return &Builder{
		buf: make([]byte, 0, capacity),
	}
}

// WriteString appends a string to the builder
func (b *Builder) WriteString(s string) {
	b.buf = append(b.buf, s...)
}

// WriteByte appends a single byte
func (b *Builder) WriteByte(c byte) {
	b.buf = append(b.buf, c)
}

// Write implements io.Writer interface
func (b *Builder) Write(p []byte) (n int, err error) {
	b.buf = append(b.buf, p...)
	return len(p), nil
}

// String returns the built string using zero-copy conversion
func (b *Builder) String() string {
	return BytesToString(b.buf)
}

// Reset resets the builder for reuse
func (b *Builder) Reset() {
	b.buf = b.buf[:0]
}

// Clone creates a copy of a string (useful when you need to own the memory)
func Clone(s string) string {
	if len(s) == 0 {
		return ""
	}
	b := make([]byte, len(s))
	copy(b, s)
	return BytesToString(b)
}

var (
	smallBuilderPool = &sync.Pool{
		New: func() interface{} {
			return NewBuilder(1024) // 1KB
		},
	}

	// single statements with many columns
	mediumBuilderPool = &sync.Pool{
		New: func() interface{} {
			return NewBuilder(16 * 1024) // 16KB
		},
	}
)

// BuilderSize represents different builder sizes
type BuilderSize int

const (
	Small  BuilderSize = iota // < 1KB
	Medium                    // 1KB+
)

func sizeFor(n int) BuilderSize {
	if n > 1024 {
		return Medium
	}
	return Small
}

func poolFor(size BuilderSize) *sync.Pool {
	if size == Medium {
		return mediumBuilderPool
	}
	return smallBuilderPool
}

// GetBuilder retrieves a pooled builder of the specified size
func GetBuilder(size BuilderSize) *Builder {
	builder := poolFor(size).Get().(*Builder)
	builder.Reset()
	return builder
}

// PutBuilder returns a builder to the appropriate pool
func PutBuilder(builder *Builder, size BuilderSize) {
	if builder == nil {
		return
	}
	builder.Reset()
	poolFor(size).Put(builder)
}

// Sprintf provides a pooled alternative to fmt.Sprintf
func Sprintf(format string, args ...interface{}) string {
	if len(args) == 0 {
		return format
	}

	size := sizeFor(len(format) + len(args)*16)
	builder := GetBuilder(size)
	defer PutBuilder(builder, size)

	fmt.Fprintf(builder, format, args...)

	return Clone(builder.String())
}

// QuoteFunc renders a quoted SQL identifier in a backend's syntax.
type QuoteFunc func(identifier string) string

// PlaceholderFunc renders the i-th (0-based) positional parameter.
type PlaceholderFunc func(i int) string

// DoubleQuote quotes an identifier ANSI style, doubling embedded quotes.
func DoubleQuote(identifier string) string {
	return quoteWith(identifier, '"')
}

// BacktickQuote quotes an identifier MySQL style, doubling embedded backticks.
func BacktickQuote(identifier string) string {
	return quoteWith(identifier, '`')
}

func quoteWith(identifier string, q byte) string {
	builder := GetBuilder(Small)
	defer PutBuilder(builder, Small)

	builder.WriteByte(q)
	for i := 0; i < len(identifier); i++ {
		if identifier[i] == q {
			builder.WriteByte(q)
		}
		builder.WriteByte(identifier[i])
	}
	builder.WriteByte(q)

	return Clone(builder.String())
}

// SQLBuilder provides pooled SQL statement building with backend-specific
// identifier quoting.
type SQLBuilder struct {
	builder *Builder
	size    BuilderSize
	quote   QuoteFunc
}

// NewSQLBuilder creates a new SQL builder. A nil quote defaults to DoubleQuote.
func NewSQLBuilder(estimatedLength int, quote QuoteFunc) *SQLBuilder {
	if quote == nil {
		quote = DoubleQuote
	}
	size := sizeFor(estimatedLength)
	return &SQLBuilder{
		builder: GetBuilder(size),
		size:    size,
		quote:   quote,
	}
}

// WriteQuery writes a SQL query part
func (sb *SQLBuilder) WriteQuery(query string) *SQLBuilder {
	sb.builder.WriteString(query)
	return sb
}

// WriteByte writes a single character, typically a separator
func (sb *SQLBuilder) WriteByte(c byte) *SQLBuilder {
	sb.builder.WriteByte(c)
	return sb
}

// WriteIdentifier writes a quoted identifier
func (sb *SQLBuilder) WriteIdentifier(name string) *SQLBuilder {
	sb.builder.WriteString(sb.quote(name))
	return sb
}

// WriteIdentifierList writes quoted identifiers separated by commas
func (sb *SQLBuilder) WriteIdentifierList(names []string) *SQLBuilder {
	for i, name := range names {
		if i != 0 {
			sb.builder.WriteByte(',')
		}
		sb.builder.WriteString(sb.quote(name))
	}
	return sb
}

// WritePlaceholders writes n placeholders separated by commas
func (sb *SQLBuilder) WritePlaceholders(n int, placeholder PlaceholderFunc) *SQLBuilder {
	for i := 0; i < n; i++ {
		if i != 0 {
			sb.builder.WriteByte(',')
		}
		sb.builder.WriteString(placeholder(i))
	}
	return sb
}

// String returns the built SQL query
func (sb *SQLBuilder) String() string {
	return Clone(sb.builder.String())
}

// Close releases the builder back to the pool
func (sb *SQLBuilder) Close() {
	if sb.builder != nil {
		PutBuilder(sb.builder, sb.size)
		sb.builder = nil
	}
}
