package catalog

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/kakes-candy/etl-db-tools/internal/ddl"
	"github.com/kakes-candy/etl-db-tools/internal/logging"
	"github.com/kakes-candy/etl-db-tools/internal/storage/sqlite/sqlitetest"
)

func secondTable(t *testing.T, name string) *ddl.Table {
	t.Helper()
	tbl, err := ddl.NewTable(name,
		ddl.Column{Name: "tabel_id", Type: ddl.Int},
		ddl.Column{Name: "nummer", Type: ddl.Int, Nullable: true, Default: 1},
		ddl.Column{Name: "breuk", Type: ddl.Decimal, Nullable: true, Precision: 5, Scale: 2, Default: 1.5},
		ddl.Column{Name: "lange_nvarchar", Type: ddl.NVarChar, Nullable: true, Length: -1},
		ddl.Column{Name: "normale_nvarchar", Type: ddl.NVarChar, Nullable: true, Length: 255, Default: "onbekend"},
		ddl.Column{Name: "datum", Type: ddl.Date, Nullable: true},
	)
	if err != nil {
		t.Fatalf("NewTable() error = %v", err)
	}
	return tbl
}

// TestCreateFromConnection_RoundTrip creates a table and reads it back.
func TestCreateFromConnection_RoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	conn := sqlitetest.Open(t)

	want := secondTable(t, "main.SecondTable")
	created, err := Create(ctx, conn, want, false)
	if err != nil || !created {
		t.Fatalf("Create() = %v, %v; want true, nil", created, err)
	}

	got, err := FromConnection(ctx, conn, "main.SecondTable")
	if err != nil {
		t.Fatalf("FromConnection() error = %v", err)
	}
	if got.Name() != "main.SecondTable" {
		t.Fatalf("Name() = %q", got.Name())
	}
	if !reflect.DeepEqual(got.ColumnNames(), want.ColumnNames()) {
		t.Fatalf("ColumnNames() = %v, want %v", got.ColumnNames(), want.ColumnNames())
	}

	c, _ := got.Column("normale_nvarchar")
	if c.Type != ddl.NVarChar || c.Length != 255 || c.Default != ddl.Expr("'onbekend'") || !c.Nullable {
		t.Fatalf("normale_nvarchar = %+v", c)
	}
	c, _ = got.Column("breuk")
	if c.Type != ddl.Decimal || c.Precision != 5 || c.Scale != 2 {
		t.Fatalf("breuk = %+v", c)
	}
	c, _ = got.Column("tabel_id")
	if c.Nullable || c.Type != ddl.Int || c.Default != nil {
		t.Fatalf("tabel_id = %+v", c)
	}

	// The introspected table renders again.
	if _, err := got.Rename("main.again").CreateTableStatementFor(conn.Catalog().Dialect()); err != nil {
		t.Fatalf("re-render error = %v", err)
	}
}

func TestFromConnection_NotFound(t *testing.T) {
	t.Parallel()

	_, err := FromConnection(context.Background(), sqlitetest.Open(t), "nope")
	if !errors.Is(err, ErrTableNotFound) {
		t.Fatalf("FromConnection() error = %v, want ErrTableNotFound", err)
	}
}

func TestExists(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	conn := sqlitetest.Open(t)
	sqlitetest.MustExec(t, conn, "create table plaatsen (plaats_id int)")

	tests := []struct {
		name string
		want bool
	}{
		{"plaatsen", true},
		{"main.plaatsen", true},
		{"plaats", false},
		{"testing.plaatsen", false},
	}
	for _, tt := range tests {
		got, err := Exists(ctx, conn, tt.name)
		if err != nil {
			t.Fatalf("Exists(%q) error = %v", tt.name, err)
		}
		if got != tt.want {
			t.Fatalf("Exists(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

// TestCreate_ExistingTable checks the warning path leaves data alone and the
// drop path replaces the table.
func TestCreate_ExistingTable(t *testing.T) {
	t.Parallel()
	conn := sqlitetest.Open(t)
	sqlitetest.MustExec(t, conn,
		"create table t (a int)",
		"insert into t values (1)",
	)

	var buf bytes.Buffer
	ctx := logging.WithLogger(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))

	tbl, _ := ddl.NewTable("t", ddl.Column{Name: "b", Type: ddl.NVarChar, Length: 10, Nullable: true})
	created, err := Create(ctx, conn, tbl, false)
	if err != nil || created {
		t.Fatalf("Create(existing) = %v, %v; want false, nil", created, err)
	}
	if !strings.Contains(buf.String(), "table already exists, not created") {
		t.Fatalf("log = %q, want warning", buf.String())
	}
	if got, _ := FromConnection(ctx, conn, "t"); got.ColumnNames()[0] != "a" {
		t.Fatalf("existing table was changed: %v", got.ColumnNames())
	}

	created, err = Create(ctx, conn, tbl, true)
	if err != nil || !created {
		t.Fatalf("Create(drop) = %v, %v; want true, nil", created, err)
	}
	if got, _ := FromConnection(ctx, conn, "t"); !reflect.DeepEqual(got.ColumnNames(), []string{"b"}) {
		t.Fatalf("recreated columns = %v", got.ColumnNames())
	}
}

func TestCreate_UnsupportedTypeRunsNoDDL(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	conn := sqlitetest.Open(t)

	tbl, _ := ddl.NewTable("geo", ddl.Column{Name: "g", Type: "geography"})
	if _, err := Create(ctx, conn, tbl, false); !errors.Is(err, ddl.ErrDataTypeNotImplemented) {
		t.Fatalf("Create() error = %v, want ErrDataTypeNotImplemented", err)
	}
	if ok, _ := Exists(ctx, conn, "geo"); ok {
		t.Fatal("table exists after failed create")
	}
}

func TestDrop(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	conn := sqlitetest.Open(t)
	sqlitetest.MustExec(t, conn, "create table gone (a int)")

	if err := Drop(ctx, conn, "gone"); err != nil {
		t.Fatalf("Drop() error = %v", err)
	}
	if ok, _ := Exists(ctx, conn, "gone"); ok {
		t.Fatal("table still exists")
	}
	if err := Drop(ctx, conn, "gone"); err == nil {
		t.Fatal("Drop(missing) error = nil")
	}
}

func TestListTables(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	conn := sqlitetest.Open(t)
	sqlitetest.MustExec(t, conn,
		"create table stg_orders (a int)",
		"create table dim_customer (a int)",
		"create table stg_customer (a int)",
		"create table fact_orders (a int)",
	)

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"no filter keeps creation order", Filter{}, []string{"main.stg_orders", "main.dim_customer", "main.stg_customer", "main.fact_orders"}},
		{"starts with", Filter{StartsWith: "stg_"}, []string{"main.stg_orders", "main.stg_customer"}},
		{"contains", Filter{Contains: "orders"}, []string{"main.stg_orders", "main.fact_orders"}},
		{"both must match", Filter{StartsWith: "stg_", Contains: "customer"}, []string{"main.stg_customer"}},
		{"prefix applies to the local name", Filter{StartsWith: "main"}, []string{}},
		{"no match", Filter{Contains: "zzz"}, []string{}},
	}
	for _, tt := range tests {
		got, err := ListTables(ctx, conn, "main", tt.filter)
		if err != nil {
			t.Fatalf("%s: ListTables() error = %v", tt.name, err)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("%s: ListTables() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestColumnFromRow_CatalogShapes(t *testing.T) {
	t.Parallel()

	cat := sqlitetest.Open(t).Catalog()
	tests := []struct {
		name string
		row  []any
		want ddl.Column
	}{
		{
			name: "sql server nvarchar(max)",
			row:  []any{"lange_nvarchar", "nvarchar", "YES", int64(-1), nil, nil, nil},
			want: ddl.Column{Name: "lange_nvarchar", Type: ddl.NVarChar, Nullable: true, Length: -1},
		},
		{
			name: "sql server default kept verbatim",
			row:  []any{"normale_nvarchar", "nvarchar", "YES", int64(255), nil, nil, "('onbekend')"},
			want: ddl.Column{Name: "normale_nvarchar", Type: ddl.NVarChar, Nullable: true, Length: 255, Default: ddl.Expr("('onbekend')")},
		},
		{
			name: "declared decimal",
			row:  []any{"d", "DECIMAL(10, 3)", "NO", nil, nil, nil, nil},
			want: ddl.Column{Name: "d", Type: ddl.Decimal, Precision: 10, Scale: 3},
		},
		{
			name: "declared nvarchar(max)",
			row:  []any{"s", "nvarchar(max)", "YES", nil, nil, nil, nil},
			want: ddl.Column{Name: "s", Type: ddl.NVarChar, Nullable: true, Length: -1},
		},
		{
			name: "unknown type kept",
			row:  []any{"g", "geography", "YES", nil, nil, nil, nil},
			want: ddl.Column{Name: "g", Type: "geography", Nullable: true},
		},
	}
	for _, tt := range tests {
		got, err := columnFromRow(cat, tt.row)
		if err != nil {
			t.Fatalf("%s: error = %v", tt.name, err)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("%s: got %+v, want %+v", tt.name, got, tt.want)
		}
	}
}

func TestUnattachedSchema(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	conn := sqlitetest.Open(t)
	sqlitetest.MustExec(t, conn, "create table plaatsen (plaats_id int)")

	names, err := ListTables(ctx, conn, "testing", Filter{})
	if err != nil {
		t.Fatalf("ListTables(testing) error = %v", err)
	}
	if names == nil || len(names) != 0 {
		t.Fatalf("ListTables(testing) = %#v, want empty slice", names)
	}

	if _, err := FromConnection(ctx, conn, "testing.plaatsen"); !errors.Is(err, ErrTableNotFound) {
		t.Fatalf("FromConnection(testing.plaatsen) error = %v, want ErrTableNotFound", err)
	}
}
