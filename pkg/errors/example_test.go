package errors_test

import (
	"fmt"
	"io"

	"github.com/ajitpratap0/importdata/pkg/errors"
)

// Example demonstrates basic error creation and wrapping.
func Example() {
	err := errors.New(errors.ErrorTypeConnection, "could not connect to a SQL database").
		WithDetail("driver", "postgresql").
		WithDetail("database", "test")

	fmt.Println(err.Error())
	fmt.Println(err.DetailKeys())

	// Output:
	// connection: could not connect to a SQL database
	// [database driver]
}

// ExampleWrap shows how to wrap existing errors with context.
func ExampleWrap() {
	err := errors.Wrap(io.ErrUnexpectedEOF, errors.ErrorTypeFile, "error reading results.txt")

	if errors.IsType(err, errors.ErrorTypeFile) {
		fmt.Println("file error")
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		fmt.Println("caused by unexpected EOF")
	}

	// Output:
	// file error
	// caused by unexpected EOF
}

// ExampleIsRetryable shows which errors allow retrying on the same connection.
func ExampleIsRetryable() {
	queryErr := errors.New(errors.ErrorTypeQuery, "table exists")
	connErr := errors.New(errors.ErrorTypeConnection, "server closed the connection")

	fmt.Println(errors.IsRetryable(queryErr))
	fmt.Println(errors.IsRetryable(connErr))

	// Output:
	// true
	// false
}
