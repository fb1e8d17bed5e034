package mssql

import (
	"github.com/kakes-candy/etl-db-tools/internal/ddl"
	"github.com/kakes-candy/etl-db-tools/internal/storage"
)

const defaultSchema = "dbo"

// Catalog answers catalog questions through INFORMATION_SCHEMA and sys.tables.
type Catalog struct {
	storage.BaseCatalog
}

var _ storage.Catalog = Catalog{}

// NewCatalog returns the SQL Server catalog: [bracket] quoting, @pN
// parameters and the T-SQL dialect.
func NewCatalog() Catalog {
	return Catalog{storage.BaseCatalog{
		DDL:         ddl.TSQL,
		Schema:      defaultSchema,
		Quote:       storage.QuoteWith("[", "]"),
		Placeholder: storage.AtP,
		// SQL Server rejects requests with more than 2100 parameters and
		// table value constructors with more than 1000 rows.
		Bounds: storage.Limits{MaxParams: 2000, MaxRows: 1000},
		Types: map[string]ddl.DataType{
			"sysname": ddl.NVarChar,
		},
	}}
}

func (c Catalog) ColumnsQuery(table string) (string, []any) {
	schema, name := storage.SplitName(table, c.Schema)
	return `select c.column_name, c.data_type, c.is_nullable,
       c.character_maximum_length, c.numeric_precision, c.numeric_scale,
       c.column_default
  from information_schema.columns c
 where c.table_schema = @p1 and c.table_name = @p2
 order by c.ordinal_position`, []any{schema, name}
}

func (c Catalog) ExistsQuery(table string) (string, []any) {
	schema, name := storage.SplitName(table, c.Schema)
	return `select count(*) from information_schema.tables
 where table_schema = @p1 and table_name = @p2`, []any{schema, name}
}

func (c Catalog) ListTablesQuery(schema string) (string, []any) {
	return `select s.name + '.' + t.name
  from sys.tables t
  join sys.schemas s on s.schema_id = t.schema_id
 where (@p1 = '' or s.name = @p1)
 order by t.object_id`, []any{schema}
}
