// Package ddl holds the SQLite column rendering rules.
//
// SQLite accepts any declared type name and derives a storage affinity from
// it (nvarchar -> TEXT, decimal -> NUMERIC, int -> INTEGER), so the T-SQL
// spellings are kept as declared. Keeping them means a table created here
// introspects back to the same types. Only the "max" length has no SQLite
// spelling; the bare type name is used instead.
package ddl

import gddl "github.com/kakes-candy/etl-db-tools/internal/ddl"

// Dialect renders SQLite column definitions.
var Dialect gddl.Dialect = &gddl.Rules{DialectName: "sqlite"}

func init() { gddl.RegisterDialect(Dialect) }
