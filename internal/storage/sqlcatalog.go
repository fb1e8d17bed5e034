package storage

import (
	"fmt"
	"strings"

	"github.com/kakes-candy/etl-db-tools/internal/ddl"
)

// BaseCatalog implements the dialect-independent half of Catalog. Backends
// embed it and add their catalog queries.
type BaseCatalog struct {
	DDL    ddl.Dialect
	Schema string

	// Quote wraps a single identifier, e.g. [name] or "name".
	Quote func(name string) string
	// Placeholder renders the bind marker for the 1-based index i.
	Placeholder func(i int) string

	Bounds Limits

	// Types maps lower-cased catalog type names to ddl types.
	Types map[string]ddl.DataType
}

func (b BaseCatalog) Dialect() ddl.Dialect  { return b.DDL }
func (b BaseCatalog) DefaultSchema() string { return b.Schema }
func (b BaseCatalog) Limits() Limits        { return b.Bounds }

func (b BaseCatalog) QuoteIdent(name string) string { return b.Quote(name) }

// QuoteTable quotes both parts of a table name. A bare name is qualified with
// the default schema.
func (b BaseCatalog) QuoteTable(table string) string {
	schema, name := SplitName(table, b.Schema)
	if schema == "" {
		return b.Quote(name)
	}
	return b.Quote(schema) + "." + b.Quote(name)
}

func (b BaseCatalog) CanonicalType(native string) ddl.DataType {
	key := strings.ToLower(strings.TrimSpace(native))
	if t, ok := b.Types[key]; ok {
		return t
	}
	return ddl.DataType(key)
}

func (b BaseCatalog) DropTableStatement(table string) string {
	return "drop table " + b.QuoteTable(table)
}

// InsertStatement builds
//
//	insert into <table> (<c1>, <c2>) values (<p1>, <p2>), (<p3>, <p4>)
//
// with rows tuples and placeholders numbered left to right.
func (b BaseCatalog) InsertStatement(table string, columns []string, rows int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "insert into %s (", b.QuoteTable(table))
	for i, c := range columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(b.Quote(c))
	}
	sb.WriteString(") values ")
	p := 1
	for r := 0; r < rows; r++ {
		if r > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for i := range columns {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(b.Placeholder(p))
			p++
		}
		sb.WriteByte(')')
	}
	return sb.String()
}

// QuoteWith returns a quoting function using open and close delimiters;
// a close delimiter inside the name is doubled.
func QuoteWith(open, close string) func(string) string {
	return func(name string) string {
		return open + strings.ReplaceAll(name, close, close+close) + close
	}
}

// Positional placeholder styles.
var (
	QuestionMark = func(int) string { return "?" }
	AtP          = func(i int) string { return fmt.Sprintf("@p%d", i) }
	Dollar       = func(i int) string { return fmt.Sprintf("$%d", i) }
)
