// Package sqlite implements the SQLite backend on top of modernc.org/sqlite
// (pure Go, no cgo). It backs local files and the hermetic database tests.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kakes-candy/etl-db-tools/internal/ddl"
	"github.com/kakes-candy/etl-db-tools/internal/storage"
	sqliteddl "github.com/kakes-candy/etl-db-tools/internal/storage/sqlite/ddl"
)

// Conn is a SQLite connection.
type Conn struct {
	*storage.SQLConn
}

var (
	_ storage.Conn       = (*Conn)(nil)
	_ storage.Transactor = (*Conn)(nil)
)

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Conn, error) {
		return Open(ctx, cfg.DSN)
	})
}

// Open opens a SQLite database. The DSN is passed to the driver; for example:
//
//	"file:etl.db?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
//	"etl.db"
//	":memory:"
//
// A private in-memory database exists per pooled connection, so ":memory:"
// is limited to a single connection. Such a Conn cannot run a statement while
// a cursor is open and fails with storage.ErrConnBusy instead of waiting; use
// a file (ideally in WAL mode) to copy within one database.
func Open(ctx context.Context, dsn string) (*Conn, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("sqlite: DSN must not be empty")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	if strings.Contains(dsn, ":memory:") && !strings.Contains(dsn, "cache=shared") {
		db.SetMaxOpenConns(1)
	}

	// Apply a basic ping with context to fail fast on invalid DSNs.
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	// Enable foreign keys by default; ignore error if driver doesn't support it.
	_, _ = db.ExecContext(ctx, "PRAGMA foreign_keys = ON;")

	return New(db), nil
}

// New wraps an already open database handle.
func New(db *sql.DB) *Conn {
	return &Conn{SQLConn: storage.NewSQLConn(db, NewCatalog())}
}

// Catalog reads table metadata from sqlite_master and pragma_table_info.
type Catalog struct {
	storage.BaseCatalog
}

var (
	_ storage.Catalog       = Catalog{}
	_ storage.SchemaChecker = Catalog{}
)

// NewCatalog returns the SQLite catalog: "double quote" quoting, ?
// parameters and the sqlite dialect. Bare names resolve to schema "main".
func NewCatalog() Catalog {
	return Catalog{storage.BaseCatalog{
		DDL:         sqliteddl.Dialect,
		Schema:      "main",
		Quote:       storage.QuoteWith(`"`, `"`),
		Placeholder: storage.QuestionMark,
		// SQLITE_MAX_VARIABLE_NUMBER since 3.32.
		Bounds: storage.Limits{MaxParams: 32766},
		Types: map[string]ddl.DataType{
			"integer": ddl.BigInt,
			"text":    ddl.NVarChar,
			"real":    ddl.Float,
		},
	}}
}

// ColumnsQuery reports the declared type verbatim (e.g. "nvarchar(255)");
// length, precision and scale are parsed from it by the caller.
func (c Catalog) ColumnsQuery(table string) (string, []any) {
	schema, name := storage.SplitName(table, c.Schema)
	return `select name, type,
       case when "notnull" = 1 then 'NO' else 'YES' end,
       null, null, null, dflt_value
  from pragma_table_info(?, ?)
 order by cid`, []any{name, schema}
}

func (c Catalog) ExistsQuery(table string) (string, []any) {
	schema, name := storage.SplitName(table, c.Schema)
	return fmt.Sprintf(`select count(*) from %s.sqlite_master where type = 'table' and name = ?`,
		c.Quote(schema)), []any{name}
}

// SchemaExistsQuery implements storage.SchemaChecker: a schema is the name of
// an attached database.
func (c Catalog) SchemaExistsQuery(schema string) (string, []any) {
	return `select count(*) from pragma_database_list where name = ?`, []any{schema}
}

func (c Catalog) ListTablesQuery(schema string) (string, []any) {
	if schema == "" {
		schema = c.Schema
	}
	return fmt.Sprintf(`select ? || '.' || name from %s.sqlite_master
 where type = 'table' and name not like 'sqlite\_%%' escape '\'
 order by rowid`, c.Quote(schema)), []any{schema}
}
