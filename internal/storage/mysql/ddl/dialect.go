// Package ddl contains the MySQL column rendering rules.
package ddl

import gddl "github.com/kakes-candy/etl-db-tools/internal/ddl"

// Dialect renders MySQL column definitions. Unbounded character columns
// become longtext; datetime2 keeps its sub-second precision as datetime(6).
var Dialect gddl.Dialect = &gddl.Rules{
	DialectName: "mysql",
	TypeNames: map[gddl.DataType]string{
		gddl.Bit:            "boolean",
		gddl.DateTime2:      "datetime(6)",
		gddl.SmallDateTime:  "datetime",
		gddl.DateTimeOffset: "datetime(6)",
		gddl.NVarChar:       "varchar",
		gddl.NChar:          "char",
	},
	MaxTypes: map[gddl.DataType]string{
		gddl.NVarChar: "longtext",
		gddl.VarChar:  "longtext",
		gddl.NChar:    "longtext",
		gddl.Char:     "longtext",
	},
}

// CatalogTypes maps information_schema data_type values back to ddl types.
var CatalogTypes = map[string]gddl.DataType{
	"integer":    gddl.Int,
	"mediumint":  gddl.Int,
	"double":     gddl.Float,
	"real":       gddl.Float,
	"timestamp":  gddl.DateTime2,
	"varchar":    gddl.NVarChar,
	"char":       gddl.NChar,
	"text":       gddl.NVarChar,
	"mediumtext": gddl.NVarChar,
	"longtext":   gddl.NVarChar,
}

func init() { gddl.RegisterDialect(Dialect) }
