// Package mysql implements the MySQL backend on go-sql-driver/mysql.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/kakes-candy/etl-db-tools/internal/storage"
	myddl "github.com/kakes-candy/etl-db-tools/internal/storage/mysql/ddl"
)

// Conn is a MySQL connection.
type Conn struct {
	*storage.SQLConn
}

var (
	_ storage.Conn       = (*Conn)(nil)
	_ storage.Transactor = (*Conn)(nil)
)

func init() {
	storage.Register("mysql", func(ctx context.Context, cfg storage.Config) (storage.Conn, error) {
		return Open(ctx, cfg.DSN)
	})
}

// ParseDSN parses a go-sql-driver DSN ("user:pw@tcp(host:3306)/db") and
// enables parseTime so DATETIME columns scan as time.Time.
func ParseDSN(dsn string) (*mysql.Config, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("mysql dsn: must not be empty")
	}
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	return cfg, nil
}

// Open connects and pings. Bare table names resolve to the DSN's database.
func Open(ctx context.Context, dsn string) (*Conn, error) {
	cfg, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("mysql: connector: %w", err)
	}
	db := sql.OpenDB(connector)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mysql: ping: %w", err)
	}
	return New(db, cfg.DBName), nil
}

// New wraps an open handle; database is the default schema.
func New(db *sql.DB, database string) *Conn {
	return &Conn{SQLConn: storage.NewSQLConn(db, NewCatalog(database))}
}

// Catalog reads information_schema.
type Catalog struct {
	storage.BaseCatalog
}

var _ storage.Catalog = Catalog{}

// NewCatalog returns the MySQL catalog: `backtick` quoting and ? parameters.
func NewCatalog(database string) Catalog {
	return Catalog{storage.BaseCatalog{
		DDL:         myddl.Dialect,
		Schema:      database,
		Quote:       storage.QuoteWith("`", "`"),
		Placeholder: storage.QuestionMark,
		// Prepared statements carry at most 65535 placeholders.
		Bounds: storage.Limits{MaxParams: 65535},
		Types:  myddl.CatalogTypes,
	}}
}

func (c Catalog) ColumnsQuery(table string) (string, []any) {
	schema, name := storage.SplitName(table, c.Schema)
	return "select column_name, data_type, is_nullable," +
		" character_maximum_length, numeric_precision, numeric_scale," +
		" column_default" +
		" from information_schema.columns" +
		" where table_schema = ? and table_name = ?" +
		" order by ordinal_position", []any{schema, name}
}

func (c Catalog) ExistsQuery(table string) (string, []any) {
	schema, name := storage.SplitName(table, c.Schema)
	return "select count(*) from information_schema.tables" +
		" where table_schema = ? and table_name = ?", []any{schema, name}
}

func (c Catalog) ListTablesQuery(schema string) (string, []any) {
	if schema == "" {
		schema = c.Schema
	}
	return "select concat(table_schema, '.', table_name) from information_schema.tables" +
		" where table_schema = ? and table_type = 'BASE TABLE'" +
		" order by create_time, table_name", []any{schema}
}
