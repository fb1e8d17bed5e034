// Package ddl models relational table schemas and renders them as DDL.
//
// A Table is a named, ordered list of Columns. Rendering is dialect driven:
// SQL Server (TSQL) is the reference dialect used by Column.Render and
// Table.CreateTableStatement; other dialects register themselves with
// RegisterDialect and are used through CreateTableStatementFor.
//
// The package performs no I/O. Introspection and execution against a live
// connection live in internal/catalog.
package ddl

import (
	"fmt"
	"slices"
	"strings"
)

// NewTable builds a table named name (usually schema-qualified, e.g.
// "dbo.big_table") from cols. Every column is validated immediately: an empty
// or duplicate column name fails with ErrInvalidColumn.
func NewTable(name string, cols ...Column) (*Table, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: table name must not be empty", ErrInvalidTable)
	}
	t := &Table{name: name, columns: make([]Column, 0, len(cols))}
	for i, c := range cols {
		if err := t.AddColumn(c); err != nil {
			return nil, fmt.Errorf("table %s: column #%d: %w", name, i, err)
		}
	}
	return t, nil
}

// Name returns the qualified table name.
func (t *Table) Name() string { return t.name }

// Len returns the number of columns.
func (t *Table) Len() int { return len(t.columns) }

// Columns returns a copy of the columns in table order.
func (t *Table) Columns() []Column {
	return slices.Clone(t.columns)
}

// ColumnNames returns the column names in table order.
func (t *Table) ColumnNames() []string {
	out := make([]string, len(t.columns))
	for i, c := range t.columns {
		out[i] = c.Name
	}
	return out
}

// Index returns the position of the named column, or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Column returns the named column.
func (t *Table) Column(name string) (Column, bool) {
	if i := t.Index(name); i >= 0 {
		return t.columns[i], true
	}
	return Column{}, false
}

// AddColumn appends c. It rejects empty and duplicate names.
func (t *Table) AddColumn(c Column) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return fmt.Errorf("%w: column name must not be empty", ErrInvalidColumn)
	}
	if t.Index(c.Name) >= 0 {
		return fmt.Errorf("%w: duplicate column %q", ErrInvalidColumn, c.Name)
	}
	t.columns = append(t.columns, c)
	return nil
}

// DropColumn removes the named column, keeping the order of the others. A
// name that is not present is a no-op and returns false.
func (t *Table) DropColumn(name string) bool {
	i := t.Index(name)
	if i < 0 {
		return false
	}
	t.columns = slices.Delete(t.columns, i, i+1)
	return true
}

// Rename returns a copy of t with a different name. Used when a schema read
// from one table is created under another name.
func (t *Table) Rename(name string) *Table {
	return &Table{name: strings.TrimSpace(name), columns: slices.Clone(t.columns)}
}

// CreateTableStatement renders the T-SQL create statement:
//
//	create table dbo.myFirstTable (
//	    kolom1 int not null,
//	    kolom2 nvarchar(100)
//	    );
//
// The first column that fails to render aborts the statement.
func (t *Table) CreateTableStatement() (string, error) {
	return t.CreateTableStatementFor(TSQL)
}

// CreateTableStatementFor renders the create statement with d's column rules.
func (t *Table) CreateTableStatementFor(d Dialect) (string, error) {
	if t.name == "" {
		return "", fmt.Errorf("%w: table name must not be empty", ErrInvalidTable)
	}
	if len(t.columns) == 0 {
		return "", fmt.Errorf("%w: table %s has no columns", ErrInvalidTable, t.name)
	}
	defs := make([]string, 0, len(t.columns))
	for _, c := range t.columns {
		def, err := d.RenderColumn(c)
		if err != nil {
			return "", fmt.Errorf("table %s: %w", t.name, err)
		}
		defs = append(defs, def)
	}
	return fmt.Sprintf("create table %s (\n    %s\n    );", t.name, strings.Join(defs, ",\n    ")), nil
}

// String is a one-line diagnostic: "table: big_table, columns: stad, provincie".
func (t *Table) String() string {
	return fmt.Sprintf("table: %s, columns: %s", t.name, strings.Join(t.ColumnNames(), ", "))
}
