//go:build !cgo_sqlite

package sqldb

import (
	_ "modernc.org/sqlite" // pure Go SQLite driver
)

const (
	sqliteDriverName    = "sqlite"
	sqliteDriverPackage = "modernc.org/sqlite"
)
