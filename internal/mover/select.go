// Package mover moves rows in and out of tables: streaming selects, validated
// multi-row inserts and table-to-table copies across connections.
//
// Everything is synchronous. A select holds one cursor and at most one page
// of rows; inserts are chunked to the target dialect's statement limits.
package mover

import (
	"context"
	"fmt"
	"iter"

	"github.com/kakes-candy/etl-db-tools/internal/storage"
)

// DefaultPageSize is the number of rows fetched per cursor round trip.
const DefaultPageSize = 5000

// Row is one result row keyed by result column name.
type Row map[string]any

// Page is a batch of rows in result order.
type Page []Row

// Select streams the rows of query one at a time. Iteration stops at the
// first error, which is yielded with a nil Row. The cursor is closed when the
// loop ends for any reason, including break.
func Select(ctx context.Context, conn storage.Conn, query string, args ...any) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		for page, err := range Pages(ctx, conn, query, DefaultPageSize, args...) {
			if err != nil {
				yield(nil, err)
				return
			}
			for _, r := range page {
				if !yield(r, nil) {
					return
				}
			}
		}
	}
}

// Pages streams the rows of query in pages of at most pageSize rows
// (DefaultPageSize when pageSize <= 0).
func Pages(ctx context.Context, conn storage.Conn, query string, pageSize int, args ...any) iter.Seq2[Page, error] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return func(yield func(Page, error) bool) {
		for raw, err := range rawPages(ctx, conn, query, pageSize, args...) {
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(toPage(raw.columns, raw.rows), nil) {
				return
			}
		}
	}
}

type rawPage struct {
	columns []string
	rows    [][]any
}

// rawPages owns the cursor. It never yields an empty page.
func rawPages(ctx context.Context, conn storage.Conn, query string, pageSize int, args ...any) iter.Seq2[rawPage, error] {
	return func(yield func(rawPage, error) bool) {
		cur, err := conn.Query(ctx, query, args...)
		if err != nil {
			yield(rawPage{}, fmt.Errorf("mover: select: %w", err))
			return
		}
		defer cur.Close()

		cols := cur.Columns()
		for {
			if err := ctx.Err(); err != nil {
				yield(rawPage{}, err)
				return
			}
			rows, err := cur.Fetch(ctx, pageSize)
			if err != nil {
				yield(rawPage{}, fmt.Errorf("mover: fetch: %w", err))
				return
			}
			if len(rows) == 0 {
				return
			}
			if !yield(rawPage{columns: cols, rows: rows}, nil) {
				return
			}
		}
	}
}

// toPage keys each row by column name. A name that occurs twice in the
// select list keeps its last value.
func toPage(cols []string, rows [][]any) Page {
	page := make(Page, len(rows))
	for i, r := range rows {
		row := make(Row, len(cols))
		for j, c := range cols {
			if j < len(r) {
				row[c] = r[j]
			}
		}
		page[i] = row
	}
	return page
}

// Result is a fully read result set with its column order.
type Result struct {
	Columns []string
	Rows    []Row
}

// Query reads at most limit rows of query (all rows when limit <= 0) and
// keeps the select-list column order, which Row alone does not carry.
func Query(ctx context.Context, conn storage.Conn, query string, limit int, args ...any) (*Result, error) {
	pageSize := DefaultPageSize
	if limit > 0 && limit < pageSize {
		pageSize = limit
	}
	res := &Result{}
	for raw, err := range rawPages(ctx, conn, query, pageSize, args...) {
		if err != nil {
			return nil, err
		}
		res.Columns = raw.columns
		rows := raw.rows
		if limit > 0 && len(res.Rows)+len(rows) > limit {
			rows = rows[:limit-len(res.Rows)]
		}
		res.Rows = append(res.Rows, toPage(raw.columns, rows)...)
		if limit > 0 && len(res.Rows) >= limit {
			break
		}
	}
	return res, nil
}
