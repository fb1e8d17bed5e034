package mover

import (
	"context"
	"errors"
	"sync"

	"github.com/kakes-candy/etl-db-tools/internal/storage"
	"github.com/kakes-candy/etl-db-tools/internal/storage/sqlite"
)

// fakeCursor serves rows from memory and records whether it was closed.
type fakeCursor struct {
	cols    []string
	rows    [][]any
	pos     int
	failAt  int // fetch number (1-based) that fails; 0 never
	fetches int
	closed  bool
}

func (c *fakeCursor) Columns() []string { return c.cols }

func (c *fakeCursor) Fetch(_ context.Context, n int) ([][]any, error) {
	c.fetches++
	if c.failAt > 0 && c.fetches == c.failAt {
		return nil, errors.New("network gone")
	}
	hi := min(c.pos+n, len(c.rows))
	out := c.rows[c.pos:hi]
	c.pos = hi
	return out, nil
}

func (c *fakeCursor) Close() error {
	c.closed = true
	return nil
}

type execCall struct {
	query string
	args  []any
}

// fakeConn counts statements. It is not a Transactor.
type fakeConn struct {
	mu       sync.Mutex
	cur      *fakeCursor
	queryErr error
	execs    []execCall
	cat      storage.Catalog
}

func newFakeConn(limits storage.Limits) *fakeConn {
	return &fakeConn{cat: limitedCatalog{Catalog: sqlite.NewCatalog(), limits: limits}}
}

func (c *fakeConn) Exec(_ context.Context, q string, args ...any) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.execs = append(c.execs, execCall{q, args})
	return -1, nil
}

func (c *fakeConn) Query(context.Context, string, ...any) (storage.Cursor, error) {
	if c.queryErr != nil {
		return nil, c.queryErr
	}
	return c.cur, nil
}

func (c *fakeConn) Catalog() storage.Catalog { return c.cat }
func (c *fakeConn) Close() error             { return nil }

type limitedCatalog struct {
	storage.Catalog
	limits storage.Limits
}

func (c limitedCatalog) Limits() storage.Limits { return c.limits }

func intRows(n int) [][]any {
	rows := make([][]any, n)
	for i := range rows {
		rows[i] = []any{int64(i), "row"}
	}
	return rows
}

var stubLimits = storage.Limits{MaxParams: 32766}
