// Package importdata imports benchmark results printed as RESULT lines into
// a SQL database.
//
// Programs under test print one line per measurement:
//
//	RESULT algo=sort n=1048576 time=0.731 stable
//
// importdata collects those lines from log files or standard input, infers a
// column type for every key and loads one row per line into a table of
// PostgreSQL, MySQL or SQLite, where the results can be analysed with SQL.
//
// # Quick Start
//
//	importdata -D sqlite:results.db stats 'logs/**/*.log.gz'
//	sqlite3 results.db 'SELECT algo, AVG(time) FROM stats GROUP BY algo'
//
// # Key Packages
//
//	pkg/resultline     - RESULT line recognition and tokenization
//	pkg/schema         - column type detection and CREATE TABLE rendering
//	pkg/sqldb          - uniform access to PostgreSQL, MySQL and SQLite
//	pkg/input          - glob expansion and transparent decompression
//	internal/pipeline  - the import orchestrator
//	cmd/importdata     - the command line tool
//
// # Column Types
//
// Each column starts untyped and widens as values are seen:
// BIGINT, then DOUBLE PRECISION, then TEXT. Empty values never widen a
// column and are stored as NULL.
package importdata
