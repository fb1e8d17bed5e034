// Package ddl contains the Postgres column rendering rules.
package ddl

import gddl "github.com/kakes-candy/etl-db-tools/internal/ddl"

// Dialect renders Postgres column definitions. T-SQL names without a
// Postgres equivalent are translated:
//
//	int          -> integer
//	tinyint      -> smallint
//	bit          -> boolean
//	datetime*    -> timestamp
//	datetimeoffset -> timestamptz
//	nvarchar     -> varchar
//	nchar        -> char
//	float        -> double precision (float(p) when a precision is given)
//
// Character columns whose length is out of range become text.
var Dialect gddl.Dialect = &gddl.Rules{
	DialectName: "postgres",
	TypeNames: map[gddl.DataType]string{
		gddl.Int:            "integer",
		gddl.TinyInt:        "smallint",
		gddl.Bit:            "boolean",
		gddl.DateTime:       "timestamp",
		gddl.DateTime2:      "timestamp",
		gddl.SmallDateTime:  "timestamp",
		gddl.DateTimeOffset: "timestamptz",
		gddl.NVarChar:       "varchar",
		gddl.NChar:          "char",
	},
	MaxTypes: map[gddl.DataType]string{
		gddl.NVarChar: "text",
		gddl.VarChar:  "text",
		gddl.NChar:    "text",
		gddl.Char:     "text",
	},
}

// CatalogTypes maps information_schema data_type values back to ddl types.
var CatalogTypes = map[string]gddl.DataType{
	"integer":                     gddl.Int,
	"smallint":                    gddl.SmallInt,
	"bigint":                      gddl.BigInt,
	"boolean":                     gddl.Bit,
	"numeric":                     gddl.Decimal,
	"real":                        gddl.Float,
	"double precision":            gddl.Float,
	"date":                        gddl.Date,
	"timestamp without time zone": gddl.DateTime2,
	"timestamp with time zone":    gddl.DateTimeOffset,
	"time without time zone":      gddl.Time,
	"character varying":           gddl.NVarChar,
	"character":                   gddl.NChar,
	"text":                        gddl.NVarChar,
}

func init() { gddl.RegisterDialect(Dialect) }
