// Package postgres implements the Postgres backend natively on pgx v5: a
// pgxpool.Pool for statements, pgx.Rows behind the cursor and COPY for bulk
// loads.
package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kakes-candy/etl-db-tools/internal/storage"
)

// querier is the subset of *pgxpool.Pool and pgx.Tx that Conn uses.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error)
}

// Conn is a Postgres connection pool.
type Conn struct {
	pool *pgxpool.Pool
	q    querier
	cat  Catalog
}

var (
	_ storage.Conn       = (*Conn)(nil)
	_ storage.Transactor = (*Conn)(nil)
	_ storage.BulkCopier = (*Conn)(nil)
)

func init() {
	open := func(ctx context.Context, cfg storage.Config) (storage.Conn, error) {
		return Open(ctx, cfg.DSN)
	}
	storage.Register("postgres", open)
	storage.Register("postgresql", open)
}

// Open creates a pool for dsn (URL or key=value form) and pings the server.
func Open(ctx context.Context, dsn string) (*Conn, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("postgres: DSN must not be empty")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return New(pool), nil
}

// New wraps an existing pool. The Conn owns it and closes it on Close.
func New(pool *pgxpool.Pool) *Conn {
	return &Conn{pool: pool, q: pool, cat: NewCatalog()}
}

func (c *Conn) Catalog() storage.Catalog { return c.cat }

func (c *Conn) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	tag, err := c.q.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("postgres: exec: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (c *Conn) Query(ctx context.Context, query string, args ...any) (storage.Cursor, error) {
	rows, err := c.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: query: %w", err)
	}
	fds := rows.FieldDescriptions()
	cols := make([]string, len(fds))
	for i, fd := range fds {
		cols[i] = fd.Name
	}
	return &cursor{rows: rows, cols: cols}, nil
}

// InTx implements storage.Transactor.
func (c *Conn) InTx(ctx context.Context, fn func(tx storage.Conn) error) error {
	if c.pool == nil {
		return fn(c)
	}
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin tx: %w", err)
	}
	if err := fn(&Conn{q: tx, cat: c.cat}); err != nil {
		if rerr := tx.Rollback(ctx); rerr != nil && !errors.Is(rerr, pgx.ErrTxClosed) {
			return errors.Join(err, fmt.Errorf("rollback: %w", rerr))
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

// CopyFrom loads rows with the COPY protocol.
func (c *Conn) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	schema, name := storage.SplitName(table, c.cat.Schema)
	n, err := c.q.CopyFrom(ctx, pgx.Identifier{schema, name}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return n, fmt.Errorf("postgres: copy into %s: %w", table, err)
	}
	return n, nil
}

// Close closes the pool. Closing a transaction-bound Conn is a no-op.
func (c *Conn) Close() error {
	if c.pool != nil {
		c.pool.Close()
	}
	return nil
}

// IsUndefinedTable reports whether err is Postgres error 42P01.
func IsUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "42P01"
}

type cursor struct {
	rows pgx.Rows
	cols []string
	done bool
}

func (c *cursor) Columns() []string { return c.cols }

func (c *cursor) Fetch(ctx context.Context, n int) ([][]any, error) {
	if c.done || n <= 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([][]any, 0, n)
	for len(out) < n {
		if !c.rows.Next() {
			c.done = true
			if err := c.rows.Err(); err != nil {
				return out, fmt.Errorf("postgres: fetch: %w", err)
			}
			break
		}
		vals, err := c.rows.Values()
		if err != nil {
			return out, fmt.Errorf("postgres: fetch: values: %w", err)
		}
		for i, v := range vals {
			vals[i] = plainValue(v)
		}
		out = append(out, vals)
	}
	return out, nil
}

func (c *cursor) Close() error {
	c.done = true
	c.rows.Close()
	return c.rows.Err()
}

// plainValue turns pgtype values (numeric, intervals, ...) into the driver
// values other backends accept.
func plainValue(v any) any {
	if dv, ok := v.(driver.Valuer); ok {
		if out, err := dv.Value(); err == nil {
			return out
		}
	}
	return v
}
