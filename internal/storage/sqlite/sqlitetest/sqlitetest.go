// Package sqlitetest opens throwaway SQLite databases for tests.
package sqlitetest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/kakes-candy/etl-db-tools/internal/storage/sqlite"
)

// Open returns a connection to a fresh database file in a temporary
// directory. WAL mode lets a cursor stay open while the same database is
// written, which is what a copy within one database does. The connection is
// closed when the test ends.
func Open(tb testing.TB) *sqlite.Conn {
	tb.Helper()
	path := filepath.Join(tb.TempDir(), "test.db")
	dsn := "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	c, err := sqlite.Open(context.Background(), dsn)
	if err != nil {
		tb.Fatalf("open sqlite %s: %v", path, err)
	}
	tb.Cleanup(func() { _ = c.Close() })
	return c
}

// MustExec runs statements in order and fails the test on the first error.
func MustExec(tb testing.TB, c *sqlite.Conn, stmts ...string) {
	tb.Helper()
	for _, s := range stmts {
		if _, err := c.Exec(context.Background(), s); err != nil {
			tb.Fatalf("exec %q: %v", s, err)
		}
	}
}
