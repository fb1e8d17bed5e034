package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// queryer is the subset of *sql.DB and *sql.Tx that SQLConn uses.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// ErrConnBusy is returned instead of blocking when a handle limited to one
// connection already has it checked out, e.g. by an open cursor on an
// in-memory SQLite database.
var ErrConnBusy = errors.New("storage: the only database connection is in use")

// SQLConn adapts a database/sql handle to Conn. The mssql, sqlite and mysql
// backends are built on it; tests drive it with go-sqlmock.
type SQLConn struct {
	db  *sql.DB
	q   queryer
	cat Catalog
}

// NewSQLConn wraps db. The returned Conn owns db and closes it on Close.
func NewSQLConn(db *sql.DB, cat Catalog) *SQLConn {
	return &SQLConn{db: db, q: db, cat: cat}
}

// DB exposes the underlying handle for backend specific work.
func (c *SQLConn) DB() *sql.DB { return c.db }

func (c *SQLConn) Catalog() Catalog { return c.cat }

func (c *SQLConn) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	if err := c.checkFree(); err != nil {
		return 0, err
	}
	res, err := c.q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: exec: %w", c.cat.Dialect().Name(), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return -1, nil
	}
	return n, nil
}

func (c *SQLConn) Query(ctx context.Context, query string, args ...any) (Cursor, error) {
	if err := c.checkFree(); err != nil {
		return nil, err
	}
	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", c.cat.Dialect().Name(), err)
	}
	cols, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("%s: columns: %w", c.cat.Dialect().Name(), err)
	}
	return &sqlCursor{rows: rows, cols: cols}, nil
}

// InTx implements Transactor.
func (c *SQLConn) InTx(ctx context.Context, fn func(tx Conn) error) error {
	if c.db == nil {
		// Already inside a transaction; nested calls join it.
		return fn(c)
	}
	if err := c.checkFree(); err != nil {
		return err
	}
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin tx: %w", c.cat.Dialect().Name(), err)
	}
	if err := fn(&SQLConn{q: tx, cat: c.cat}); err != nil {
		if rerr := tx.Rollback(); rerr != nil && !errors.Is(rerr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("rollback: %w", rerr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", c.cat.Dialect().Name(), err)
	}
	return nil
}

// checkFree fails with ErrConnBusy when the pool is capped at one
// connection and that connection is in use. Waiting would never end when the
// holder is a cursor of the calling goroutine.
func (c *SQLConn) checkFree() error {
	if c.db == nil {
		return nil
	}
	if st := c.db.Stats(); st.MaxOpenConnections == 1 && st.InUse > 0 {
		return fmt.Errorf("%s: %w", c.cat.Dialect().Name(), ErrConnBusy)
	}
	return nil
}

// Close closes the database handle. Closing a transaction-bound Conn is a
// no-op.
func (c *SQLConn) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

type sqlCursor struct {
	rows *sql.Rows
	cols []string
	done bool
}

func (c *sqlCursor) Columns() []string { return c.cols }

func (c *sqlCursor) Fetch(ctx context.Context, n int) ([][]any, error) {
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
				return out, fmt.Errorf("fetch: %w", err)
			}
			break
		}
		vals := make([]any, len(c.cols))
		ptrs := make([]any, len(c.cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := c.rows.Scan(ptrs...); err != nil {
			return out, fmt.Errorf("fetch: scan: %w", err)
		}
		for i, v := range vals {
			// Text comes back as []byte from several drivers.
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		out = append(out, vals)
	}
	return out, nil
}

func (c *sqlCursor) Close() error {
	c.done = true
	return c.rows.Close()
}
