// Package mssql implements the SQL Server backend on top of go-mssqldb.
//
// DSNs are accepted in every form go-mssqldb understands (sqlserver:// URL,
// ADO "server=...;user id=..." and "odbc:" strings) plus the ODBC driver form
// "DRIVER={...};SERVER=...;DATABASE=..." built by ConnString. Bulk loads use
// the TDS bulk copy API (mssql.CopyIn).
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	"github.com/kakes-candy/etl-db-tools/internal/storage"
)

// Conn is a SQL Server connection. Besides storage.Conn and
// storage.Transactor it implements storage.BulkCopier.
type Conn struct {
	*storage.SQLConn
}

var (
	_ storage.Conn       = (*Conn)(nil)
	_ storage.Transactor = (*Conn)(nil)
	_ storage.BulkCopier = (*Conn)(nil)
)

// sqlOpen is a test hook.
var sqlOpen = sql.Open

func init() {
	open := func(ctx context.Context, cfg storage.Config) (storage.Conn, error) {
		return Open(ctx, cfg.DSN)
	}
	storage.Register("mssql", open)
	storage.Register("sqlserver", open)
}

// NormalizeDSN converts an ODBC driver string into a go-mssqldb DSN and
// validates the result. Other forms are validated and returned unchanged.
func NormalizeDSN(dsn string) (string, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return "", fmt.Errorf("mssql dsn: must not be empty")
	}
	if isDriverString(dsn) {
		cs, err := ParseConnString(dsn)
		if err != nil {
			return "", fmt.Errorf("mssql dsn: %w", err)
		}
		dsn = cs.DSN()
	}
	// Validate early to fail fast on obvious mistakes.
	if _, err := msdsn.Parse(dsn); err != nil {
		return "", fmt.Errorf("mssql dsn: %w", err)
	}
	return dsn, nil
}

// Open connects to SQL Server and pings it.
func Open(ctx context.Context, dsn string) (*Conn, error) {
	dsn, err := NormalizeDSN(dsn)
	if err != nil {
		return nil, err
	}
	db, err := sqlOpen("sqlserver", dsn)
	if err != nil {
		return nil, fmt.Errorf("mssql: open: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mssql: ping: %w", err)
	}
	return New(db), nil
}

// New wraps an already open database handle.
func New(db *sql.DB) *Conn {
	return &Conn{SQLConn: storage.NewSQLConn(db, NewCatalog())}
}

// CopyFrom bulk inserts rows into table inside its own transaction.
func (c *Conn) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	tx, err := c.DB().BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("mssql: begin tx: %w", err)
	}
	rollback := func() { _ = tx.Rollback() }

	stmt, err := tx.PrepareContext(ctx, mssql.CopyIn(c.Catalog().QuoteTable(table), mssql.BulkOptions{}, columns...))
	if err != nil {
		rollback()
		return 0, fmt.Errorf("mssql: prepare bulk: %w", err)
	}
	for i := range rows {
		if _, err := stmt.ExecContext(ctx, rows[i]...); err != nil {
			_ = stmt.Close()
			rollback()
			return 0, fmt.Errorf("mssql: bulk row %d: %w", i, err)
		}
	}
	res, err := stmt.ExecContext(ctx)
	if cerr := stmt.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		rollback()
		return 0, fmt.Errorf("mssql: bulk finalize: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		rollback()
		return 0, fmt.Errorf("mssql: rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("mssql: commit: %w", err)
	}
	return n, nil
}

func isDriverString(s string) bool {
	return len(s) >= 7 && strings.EqualFold(s[:7], "driver=")
}
