package mover

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/kakes-candy/etl-db-tools/internal/storage/sqlite/sqlitetest"
)

func TestPages_SizesAndOrder(t *testing.T) {
	t.Parallel()

	conn := newFakeConn(stubLimits)
	conn.cur = &fakeCursor{cols: []string{"id", "name"}, rows: intRows(12)}

	var sizes []int
	next := int64(0)
	for page, err := range Pages(context.Background(), conn, "select id, name from t", 5) {
		if err != nil {
			t.Fatalf("Pages() error = %v", err)
		}
		sizes = append(sizes, len(page))
		for _, r := range page {
			if r["id"] != next || r["name"] != "row" {
				t.Fatalf("row = %v, want id %d", r, next)
			}
			next++
		}
	}
	if fmt.Sprint(sizes) != "[5 5 2]" {
		t.Fatalf("page sizes = %v, want [5 5 2]", sizes)
	}
	if !conn.cur.closed {
		t.Fatal("cursor not closed after full consumption")
	}
}

func TestPages_DefaultPageSize(t *testing.T) {
	t.Parallel()

	conn := newFakeConn(stubLimits)
	conn.cur = &fakeCursor{cols: []string{"id", "name"}, rows: intRows(DefaultPageSize + 1)}

	var sizes []int
	for page, err := range Pages(context.Background(), conn, "q", 0) {
		if err != nil {
			t.Fatalf("Pages() error = %v", err)
		}
		sizes = append(sizes, len(page))
	}
	if len(sizes) != 2 || sizes[0] != DefaultPageSize || sizes[1] != 1 {
		t.Fatalf("page sizes = %v", sizes)
	}
}

func TestSelect_EarlyBreakClosesCursor(t *testing.T) {
	t.Parallel()

	conn := newFakeConn(stubLimits)
	conn.cur = &fakeCursor{cols: []string{"id", "name"}, rows: intRows(20000)}

	seen := 0
	for _, err := range Select(context.Background(), conn, "q") {
		if err != nil {
			t.Fatalf("Select() error = %v", err)
		}
		seen++
		if seen == 3 {
			break
		}
	}
	if !conn.cur.closed {
		t.Fatal("cursor not closed after break")
	}
	if conn.cur.fetches != 1 {
		t.Fatalf("fetches = %d, want 1", conn.cur.fetches)
	}
}

func TestSelect_Errors(t *testing.T) {
	t.Parallel()

	t.Run("query", func(t *testing.T) {
		t.Parallel()
		conn := newFakeConn(stubLimits)
		conn.queryErr = errors.New("syntax error")

		var got error
		for r, err := range Select(context.Background(), conn, "selec 1") {
			if r != nil {
				t.Fatalf("row = %v, want nil", r)
			}
			got = err
		}
		if got == nil || !errors.Is(got, conn.queryErr) {
			t.Fatalf("error = %v, want wrapped query error", got)
		}
	})

	t.Run("fetch", func(t *testing.T) {
		t.Parallel()
		conn := newFakeConn(stubLimits)
		conn.cur = &fakeCursor{cols: []string{"id", "name"}, rows: intRows(10), failAt: 2}

		rows, errs := 0, 0
		for _, err := range Pages(context.Background(), conn, "q", 4) {
			if err != nil {
				errs++
				continue
			}
			rows++
		}
		if rows != 1 || errs != 1 {
			t.Fatalf("pages = %d, errors = %d; want 1, 1", rows, errs)
		}
		if !conn.cur.closed {
			t.Fatal("cursor not closed after fetch error")
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		t.Parallel()
		conn := newFakeConn(stubLimits)
		conn.cur = &fakeCursor{cols: []string{"id", "name"}, rows: intRows(10)}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		for _, err := range Select(ctx, conn, "q") {
			if !errors.Is(err, context.Canceled) {
				t.Fatalf("error = %v, want context.Canceled", err)
			}
		}
		if !conn.cur.closed {
			t.Fatal("cursor not closed after cancellation")
		}
	})
}

// TestPages_SQLiteCount streams a real table and checks every page respects
// the page size and the row total matches count(*).
func TestPages_SQLiteCount(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	conn := sqlitetest.Open(t)
	sqlitetest.MustExec(t, conn,
		"create table n (i int not null)",
		`with recursive c(x) as (select 1 union all select x + 1 from c where x < 1234)
		 insert into n select x from c`,
	)

	var total, pages int
	for page, err := range Pages(ctx, conn, "select i from n order by i", 100) {
		if err != nil {
			t.Fatalf("Pages() error = %v", err)
		}
		if len(page) == 0 || len(page) > 100 {
			t.Fatalf("page size = %d", len(page))
		}
		pages++
		total += len(page)
	}

	var want int64
	for r, err := range Select(ctx, conn, "select count(*) as n from n") {
		if err != nil {
			t.Fatalf("Select() error = %v", err)
		}
		want = r["n"].(int64)
	}
	if int64(total) != want || pages != 13 {
		t.Fatalf("streamed %d rows in %d pages, count(*) = %d", total, pages, want)
	}
}

func TestQuery_LimitAndColumnOrder(t *testing.T) {
	t.Parallel()

	conn := newFakeConn(stubLimits)
	conn.cur = &fakeCursor{cols: []string{"name", "id"}, rows: intRows(10)}

	res, err := Query(context.Background(), conn, "q", 3)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if fmt.Sprint(res.Columns) != "[name id]" || len(res.Rows) != 3 {
		t.Fatalf("Query() = %v with %d rows", res.Columns, len(res.Rows))
	}
	if !conn.cur.closed {
		t.Fatal("cursor not closed")
	}

	conn.cur = &fakeCursor{cols: []string{"name", "id"}, rows: intRows(7)}
	res, err = Query(context.Background(), conn, "q", 0)
	if err != nil || len(res.Rows) != 7 {
		t.Fatalf("Query(no limit) = %d rows, %v", len(res.Rows), err)
	}
}
