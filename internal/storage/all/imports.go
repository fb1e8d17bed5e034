// Package all wires all built-in storage backends into the storage registry.
//
// This package exists purely for side effects: importing it (even as a blank
// import) runs the init functions of each backend, which register their
// openers with storage.Register and their dialects with ddl.RegisterDialect.
//
//	import _ "github.com/kakes-candy/etl-db-tools/internal/storage/all"
//
//	conn, err := storage.Open(ctx, storage.Config{Kind: "mssql", DSN: dsn})
//
// Binaries that need only a subset can import the backends they want
// instead.
package all

import (
	_ "github.com/kakes-candy/etl-db-tools/internal/storage/mssql"
	_ "github.com/kakes-candy/etl-db-tools/internal/storage/mysql"
	_ "github.com/kakes-candy/etl-db-tools/internal/storage/postgres"
	_ "github.com/kakes-candy/etl-db-tools/internal/storage/sqlite"
)
