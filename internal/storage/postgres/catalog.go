package postgres

import (
	"github.com/kakes-candy/etl-db-tools/internal/storage"
	pgddl "github.com/kakes-candy/etl-db-tools/internal/storage/postgres/ddl"
)

// Catalog reads information_schema and pg_class.
type Catalog struct {
	storage.BaseCatalog
}

var _ storage.Catalog = Catalog{}

// NewCatalog returns the Postgres catalog: "double quote" quoting, $N
// parameters and the postgres dialect. Bare names resolve to "public".
func NewCatalog() Catalog {
	return Catalog{storage.BaseCatalog{
		DDL:         pgddl.Dialect,
		Schema:      "public",
		Quote:       storage.QuoteWith(`"`, `"`),
		Placeholder: storage.Dollar,
		// The bind message carries the parameter count as an int16.
		Bounds: storage.Limits{MaxParams: 65535},
		Types:  pgddl.CatalogTypes,
	}}
}

func (c Catalog) ColumnsQuery(table string) (string, []any) {
	schema, name := storage.SplitName(table, c.Schema)
	return `select column_name, data_type, is_nullable,
       character_maximum_length, numeric_precision, numeric_scale,
       column_default
  from information_schema.columns
 where table_schema = $1 and table_name = $2
 order by ordinal_position`, []any{schema, name}
}

func (c Catalog) ExistsQuery(table string) (string, []any) {
	schema, name := storage.SplitName(table, c.Schema)
	return `select count(*) from information_schema.tables
 where table_schema = $1 and table_name = $2`, []any{schema, name}
}

func (c Catalog) ListTablesQuery(schema string) (string, []any) {
	return `select n.nspname || '.' || c.relname
  from pg_class c
  join pg_namespace n on n.oid = c.relnamespace
 where c.relkind in ('r', 'p')
   and n.nspname not in ('pg_catalog', 'information_schema')
   and ($1::text = '' or n.nspname = $1::text)
 order by c.oid`, []any{schema}
}
