package mover

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kakes-candy/etl-db-tools/internal/catalog"
	"github.com/kakes-candy/etl-db-tools/internal/ddl"
	"github.com/kakes-candy/etl-db-tools/internal/logging"
	"github.com/kakes-candy/etl-db-tools/internal/storage"
)

// InsertDictionary inserts rows into table. Every row is checked against
// the table before anything is written: the first unknown key fails the call
// with *UnknownColumnError and the first row without keys with
// *EmptyRowError.
//
// Rows are grouped by their key set, in order of first appearance, and each
// group is inserted with its own column list in table order. A column a row
// does not name gets the column default.
func InsertDictionary(ctx context.Context, conn storage.Conn, table *ddl.Table, rows []Row) (int64, error) {
	groups, err := dictGroups(table, rows)
	if err != nil {
		return 0, err
	}
	return insertRows(ctx, conn, table.Name(), groups...)
}

// InsertList inserts positional rows into table. Each row must hold exactly
// one value per table column, in table order; the first row that does not
// fails the call with *RowLengthError and nothing is written.
func InsertList(ctx context.Context, conn storage.Conn, table *ddl.Table, rows [][]any) (int64, error) {
	want := table.Len()
	for i, r := range rows {
		if len(r) != want {
			return 0, &RowLengthError{Want: want, Got: len(r), Row: i}
		}
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return insertRows(ctx, conn, table.Name(), rowGroup{cols: table.ColumnNames(), rows: rows})
}

// InsertDictionaryInto introspects name on conn and calls InsertDictionary.
func InsertDictionaryInto(ctx context.Context, conn storage.Conn, name string, rows []Row) (int64, error) {
	t, err := catalog.FromConnection(ctx, conn, name)
	if err != nil {
		return 0, err
	}
	return InsertDictionary(ctx, conn, t, rows)
}

// InsertListInto introspects name on conn and calls InsertList.
func InsertListInto(ctx context.Context, conn storage.Conn, name string, rows [][]any) (int64, error) {
	t, err := catalog.FromConnection(ctx, conn, name)
	if err != nil {
		return 0, err
	}
	return InsertList(ctx, conn, t, rows)
}

// rowGroup is a set of rows that share one column list.
type rowGroup struct {
	cols []string
	rows [][]any
}

// dictGroups validates rows against table and groups them by key set.
func dictGroups(table *ddl.Table, rows []Row) ([]rowGroup, error) {
	var groups []rowGroup
	byKey := make(map[string]int)
	for i, r := range rows {
		if len(r) == 0 {
			return nil, &EmptyRowError{Table: table.Name(), Row: i}
		}
		// Sorted so the reported column does not depend on map order.
		keys := make([]string, 0, len(r))
		for k := range r {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if table.Index(k) < 0 {
				return nil, &UnknownColumnError{Table: table.Name(), Column: k, Row: i}
			}
		}

		cols := make([]string, 0, len(r))
		for _, c := range table.ColumnNames() {
			if _, ok := r[c]; ok {
				cols = append(cols, c)
			}
		}
		key := strings.Join(cols, "\x00")
		g, ok := byKey[key]
		if !ok {
			g = len(groups)
			byKey[key] = g
			groups = append(groups, rowGroup{cols: cols})
		}
		vals := make([]any, len(cols))
		for j, c := range cols {
			vals[j] = r[c]
		}
		groups[g].rows = append(groups[g].rows, vals)
	}
	return groups, nil
}

// insertRows writes each group with multi-row insert statements sized to the
// connection's limits. On a Transactor all groups run in a single
// transaction.
func insertRows(ctx context.Context, conn storage.Conn, table string, groups ...rowGroup) (int64, error) {
	if len(groups) == 0 {
		return 0, nil
	}
	cat := conn.Catalog()
	log := logging.FromContext(ctx).With("table", table)

	load := func(c storage.Conn) (int64, error) {
		var total int64
		for _, g := range groups {
			n, err := storage.LoadBatches(ctx, log, g.cols, g.rows, cat.Limits().RowsPerStatement(len(g.cols)),
				func(ctx context.Context, cols []string, batch [][]any) (int64, error) {
					args := make([]any, 0, len(cols)*len(batch))
					for _, r := range batch {
						args = append(args, r...)
					}
					n, err := c.Exec(ctx, cat.InsertStatement(table, cols, len(batch)), args...)
					if err != nil {
						return 0, fmt.Errorf("mover: insert into %s: %w", table, err)
					}
					if n < 0 {
						n = int64(len(batch))
					}
					return n, nil
				})
			total += n
			if err != nil {
				return total, err
			}
		}
		return total, nil
	}

	tx, ok := conn.(storage.Transactor)
	if !ok {
		return load(conn)
	}
	var total int64
	err := tx.InTx(ctx, func(c storage.Conn) error {
		n, err := load(c)
		total = n
		return err
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// bulkRows writes each group through the connection's native bulk path.
func bulkRows(ctx context.Context, bc storage.BulkCopier, table string, groups ...rowGroup) (int64, error) {
	var total int64
	for _, g := range groups {
		if len(g.rows) == 0 {
			continue
		}
		n, err := bc.CopyFrom(ctx, table, g.cols, g.rows)
		total += n
		if err != nil {
			return total, fmt.Errorf("mover: bulk copy into %s: %w", table, err)
		}
	}
	return total, nil
}
