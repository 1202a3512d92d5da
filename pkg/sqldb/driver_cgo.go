//go:build cgo_sqlite

// Build with: go build -tags cgo_sqlite
// Requires: CGO_ENABLED=1

package sqldb

import (
	_ "github.com/mattn/go-sqlite3" // CGO SQLite driver
)

const (
	sqliteDriverName    = "sqlite3"
	sqliteDriverPackage = "github.com/mattn/go-sqlite3"
)
