// Package catalog runs the schema operations that need a live connection:
// introspecting a table into a ddl.Table, existence checks, create, drop and
// table listing. Every statement comes from the connection's
// storage.Catalog, so the functions work unchanged on every backend.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kakes-candy/etl-db-tools/internal/ddl"
	"github.com/kakes-candy/etl-db-tools/internal/logging"
	"github.com/kakes-candy/etl-db-tools/internal/storage"
)

// ErrTableNotFound is returned by FromConnection when the catalog reports no
// columns for the table.
var ErrTableNotFound = errors.New("catalog: table not found")

// FromConnection reconstructs table name from the connection's catalog.
// Columns come back in ordinal order. Defaults are kept exactly as the
// catalog reports them (as ddl.Expr), and types without a ddl mapping are
// kept as-is; introspection never renders, so it never fails on them.
func FromConnection(ctx context.Context, conn storage.Conn, name string) (*ddl.Table, error) {
	cat := conn.Catalog()
	schema, _ := storage.SplitName(name, cat.DefaultSchema())
	if ok, err := schemaExists(ctx, conn, schema); err != nil {
		return nil, fmt.Errorf("catalog: columns of %s: %w", name, err)
	} else if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	q, args := cat.ColumnsQuery(name)
	rows, err := queryAll(ctx, conn, q, args...)
	if err != nil {
		return nil, fmt.Errorf("catalog: columns of %s: %w", name, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}

	cols := make([]ddl.Column, 0, len(rows))
	for i, r := range rows {
		if len(r) < 7 {
			return nil, fmt.Errorf("catalog: columns of %s: row %d has %d fields, want 7", name, i, len(r))
		}
		c, err := columnFromRow(cat, r)
		if err != nil {
			return nil, fmt.Errorf("catalog: columns of %s: %w", name, err)
		}
		cols = append(cols, c)
	}
	return ddl.NewTable(name, cols...)
}

// columnFromRow decodes one ColumnsQuery row:
// name, type, nullable, length, precision, scale, default.
func columnFromRow(cat storage.Catalog, r []any) (ddl.Column, error) {
	name, ok := r[0].(string)
	if !ok || name == "" {
		return ddl.Column{}, fmt.Errorf("unexpected column name %#v", r[0])
	}
	base, typeArgs := splitTypeArgs(asString(r[1]))
	c := ddl.Column{
		Name:      name,
		Type:      cat.CanonicalType(base),
		Nullable:  asNullable(r[2]),
		Length:    asInt(r[3]),
		Precision: asInt(r[4]),
		Scale:     asInt(r[5]),
	}
	if r[6] != nil {
		c.Default = ddl.Expr(asString(r[6]))
	}

	// Declared types such as "nvarchar(255)" or "decimal(5,2)" carry their
	// arguments in the name (SQLite).
	switch c.Type.Family() {
	case ddl.FamilyCharacter:
		if len(typeArgs) == 1 && c.Length == 0 {
			if strings.EqualFold(typeArgs[0], "max") {
				c.Length = -1
			} else {
				c.Length, _ = strconv.Atoi(typeArgs[0])
			}
		}
	case ddl.FamilyDecimal, ddl.FamilyFloat:
		if len(typeArgs) >= 1 && c.Precision == 0 {
			c.Precision, _ = strconv.Atoi(typeArgs[0])
		}
		if len(typeArgs) >= 2 && c.Scale == 0 {
			c.Scale, _ = strconv.Atoi(typeArgs[1])
		}
	}
	return c, nil
}

func splitTypeArgs(s string) (string, []string) {
	s = strings.TrimSpace(s)
	open := strings.IndexByte(s, '(')
	if open < 0 || !strings.HasSuffix(s, ")") {
		return s, nil
	}
	args := strings.Split(s[open+1:len(s)-1], ",")
	for i := range args {
		args[i] = strings.TrimSpace(args[i])
	}
	return strings.TrimSpace(s[:open]), args
}

// Exists reports whether the table exists. An absent table is (false, nil).
func Exists(ctx context.Context, conn storage.Conn, name string) (bool, error) {
	schema, _ := storage.SplitName(name, conn.Catalog().DefaultSchema())
	if ok, err := schemaExists(ctx, conn, schema); err != nil {
		return false, fmt.Errorf("catalog: exists %s: %w", name, err)
	} else if !ok {
		return false, nil
	}
	q, args := conn.Catalog().ExistsQuery(name)
	rows, err := queryAll(ctx, conn, q, args...)
	if err != nil {
		return false, fmt.Errorf("catalog: exists %s: %w", name, err)
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return false, nil
	}
	return asInt(rows[0][0]) > 0, nil
}

// Create creates t in the connection's dialect. When the table already
// exists and dropIfExists is false it logs a warning and returns
// (false, nil) without running any DDL; with dropIfExists it drops the
// table first.
func Create(ctx context.Context, conn storage.Conn, t *ddl.Table, dropIfExists bool) (bool, error) {
	log := logging.FromContext(ctx)

	exists, err := Exists(ctx, conn, t.Name())
	if err != nil {
		return false, err
	}
	if exists {
		if !dropIfExists {
			log.Warn("table already exists, not created", "table", t.Name())
			return false, nil
		}
		if err := Drop(ctx, conn, t.Name()); err != nil {
			return false, err
		}
		log.Info("dropped existing table", "table", t.Name())
	}

	stmt, err := t.CreateTableStatementFor(conn.Catalog().Dialect())
	if err != nil {
		return false, err
	}
	if _, err := conn.Exec(ctx, stmt); err != nil {
		return false, fmt.Errorf("catalog: create %s: %w", t.Name(), err)
	}
	log.Debug("table created", "table", t.Name(), "columns", t.Len())
	return true, nil
}

// Drop drops the table. It does not check for existence first.
func Drop(ctx context.Context, conn storage.Conn, name string) error {
	if _, err := conn.Exec(ctx, conn.Catalog().DropTableStatement(name)); err != nil {
		return fmt.Errorf("catalog: drop %s: %w", name, err)
	}
	return nil
}

// Filter narrows ListTables. Both fields apply to the unqualified table name
// and must both match when set.
type Filter struct {
	StartsWith string
	Contains   string
}

// Match reports whether the local part of the qualified name passes f.
func (f Filter) Match(qualified string) bool {
	_, local := storage.SplitName(qualified, "")
	if f.StartsWith != "" && !strings.HasPrefix(local, f.StartsWith) {
		return false
	}
	if f.Contains != "" && !strings.Contains(local, f.Contains) {
		return false
	}
	return true
}

// ListTables returns the qualified names of the tables in schema, in catalog
// object order, filtered by f. An empty schema lists every schema where the
// backend supports it. No match is an empty, non-nil slice.
func ListTables(ctx context.Context, conn storage.Conn, schema string, f Filter) ([]string, error) {
	if ok, err := schemaExists(ctx, conn, schema); err != nil {
		return nil, fmt.Errorf("catalog: list tables: %w", err)
	} else if !ok {
		return []string{}, nil
	}
	q, args := conn.Catalog().ListTablesQuery(schema)
	rows, err := queryAll(ctx, conn, q, args...)
	if err != nil {
		return nil, fmt.Errorf("catalog: list tables: %w", err)
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		if len(r) == 0 {
			continue
		}
		if name := asString(r[0]); f.Match(name) {
			out = append(out, name)
		}
	}
	return out, nil
}

// schemaExists asks a storage.SchemaChecker catalog whether schema exists.
// Other catalogs, and an empty schema, report true.
func schemaExists(ctx context.Context, conn storage.Conn, schema string) (bool, error) {
	sc, ok := conn.Catalog().(storage.SchemaChecker)
	if !ok || schema == "" {
		return true, nil
	}
	q, args := sc.SchemaExistsQuery(schema)
	rows, err := queryAll(ctx, conn, q, args...)
	if err != nil {
		return false, err
	}
	return len(rows) > 0 && len(rows[0]) > 0 && asInt(rows[0][0]) > 0, nil
}

// queryAll drains a (small) catalog result set.
func queryAll(ctx context.Context, conn storage.Conn, q string, args ...any) (rows [][]any, err error) {
	cur, err := conn.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := cur.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	for {
		page, err := cur.Fetch(ctx, 500)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			return rows, nil
		}
		rows = append(rows, page...)
	}
}
