// Package storage defines the connection contract the rest of the toolkit is
// written against, plus the pieces every backend shares: a registry of
// backend constructors, a database/sql adapter and a batched loader.
//
// Concrete backends live in subpackages (mssql, postgres, sqlite, mysql) and
// register themselves from init. Import internal/storage/all to enable every
// built-in backend.
package storage

import (
	"context"
	"strings"

	"github.com/kakes-candy/etl-db-tools/internal/ddl"
)

// Conn is an open database connection. It is owned by the caller; nothing in
// the toolkit pools or caches connections.
type Conn interface {
	// Exec runs a statement and returns the affected row count (or -1 when
	// the driver does not report one).
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	// Query runs a query and returns a cursor positioned before the first row.
	Query(ctx context.Context, query string, args ...any) (Cursor, error)
	// Catalog describes the dialect of the connection.
	Catalog() Catalog
	Close() error
}

// Cursor reads a result set in pages.
type Cursor interface {
	// Columns returns the result column names in select-list order.
	Columns() []string
	// Fetch returns up to n rows. An empty, nil-error result means the result
	// set is exhausted.
	Fetch(ctx context.Context, n int) ([][]any, error)
	Close() error
}

// Transactor is implemented by connections that can run work in a single
// transaction. fn receives a Conn bound to the transaction; the transaction
// is committed when fn returns nil and rolled back otherwise.
type Transactor interface {
	InTx(ctx context.Context, fn func(tx Conn) error) error
}

// SchemaChecker is implemented by catalogs whose table queries fail, instead
// of returning nothing, when the schema does not exist. SchemaExistsQuery
// selects a single count that is > 0 when schema exists.
type SchemaChecker interface {
	SchemaExistsQuery(schema string) (string, []any)
}

// Limits bound the size of a single multi-row insert statement.
type Limits struct {
	// MaxParams is the maximum number of bind parameters per statement.
	MaxParams int
	// MaxRows is the maximum number of VALUES tuples per statement; zero
	// means only MaxParams applies.
	MaxRows int
}

// RowsPerStatement returns how many rows of width columns fit in one
// statement. It is always at least 1.
func (l Limits) RowsPerStatement(columns int) int {
	n := l.MaxRows
	if columns > 0 && l.MaxParams > 0 {
		byParams := l.MaxParams / columns
		if n <= 0 || byParams < n {
			n = byParams
		}
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Catalog is the dialect half of a connection: identifier quoting, the
// catalog queries used for introspection and the statements the toolkit
// generates itself. Table names are "schema.table" or bare "table"; bare
// names resolve against DefaultSchema.
type Catalog interface {
	// Dialect renders create statements for this backend.
	Dialect() ddl.Dialect
	DefaultSchema() string

	QuoteIdent(name string) string
	QuoteTable(table string) string

	// ColumnsQuery selects, in ordinal order, exactly these seven columns:
	// name, data type, nullable ('YES'/'NO'), character length, numeric
	// precision, numeric scale and the default expression.
	ColumnsQuery(table string) (string, []any)
	// ExistsQuery selects a single count that is > 0 when table exists.
	ExistsQuery(table string) (string, []any)
	// ListTablesQuery selects qualified table names of schema in catalog
	// object order.
	ListTablesQuery(schema string) (string, []any)

	// CanonicalType maps a catalog type name to a ddl.DataType. Names with no
	// mapping are returned unchanged.
	CanonicalType(native string) ddl.DataType

	DropTableStatement(table string) string
	// InsertStatement returns a parameterized insert of rows tuples.
	InsertStatement(table string, columns []string, rows int) string
	Limits() Limits
}

// SplitName splits "schema.table" into its parts. A bare name gets
// defaultSchema. Brackets, double quotes and backticks around either part are
// removed.
func SplitName(name, defaultSchema string) (schema, table string) {
	name = strings.TrimSpace(name)
	if i := strings.LastIndex(name, "."); i >= 0 {
		schema, table = name[:i], name[i+1:]
	} else {
		schema, table = defaultSchema, name
	}
	return unquote(schema), unquote(table)
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		switch {
		case s[0] == '[' && s[len(s)-1] == ']',
			s[0] == '"' && s[len(s)-1] == '"',
			s[0] == '`' && s[len(s)-1] == '`':
			return s[1 : len(s)-1]
		}
	}
	return s
}

// BulkCopier is implemented by connections with a native bulk load path
// (SQL Server bulk copy, Postgres COPY). It is used instead of multi-row
// inserts when a caller asks for it.
type BulkCopier interface {
	CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)
}
