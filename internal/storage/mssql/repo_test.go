package mssql

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kakes-candy/etl-db-tools/internal/storage"
)

// TestCopyFromEmptyRows verifies that CopyFrom short-circuits when no rows
// are provided and does not require a live database connection.
func TestCopyFromEmptyRows(t *testing.T) {
	t.Parallel()

	c := &Conn{SQLConn: storage.NewSQLConn(nil, NewCatalog())}
	n, err := c.CopyFrom(context.Background(), "dbo.t", []string{"id"}, nil)
	if err != nil || n != 0 {
		t.Fatalf("CopyFrom(nil rows) = %d, %v; want 0, nil", n, err)
	}
}

// TestOpen_UsesNormalizedDSN swaps the sql.Open hook for go-sqlmock and
// checks the driver name, the DSN conversion and the ping.
//
// Not parallel: it replaces a package-level hook.
func TestOpen_UsesNormalizedDSN(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	mock.ExpectPing()

	var gotDriver, gotDSN string
	orig := sqlOpen
	sqlOpen = func(driver, dsn string) (*sql.DB, error) {
		gotDriver, gotDSN = driver, dsn
		return db, nil
	}
	defer func() { sqlOpen = orig }()

	c, err := Open(context.Background(), "DRIVER={ODBC Driver 18 for SQL Server};SERVER=localhost;DATABASE=TestDB")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if gotDriver != "sqlserver" {
		t.Fatalf("driver = %q, want sqlserver", gotDriver)
	}
	if gotDSN != "odbc:server=localhost;database=TestDB" {
		t.Fatalf("dsn = %q", gotDSN)
	}
	if c.Catalog().Dialect().Name() != "mssql" {
		t.Fatalf("dialect = %q", c.Catalog().Dialect().Name())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestOpen_PingFailureClosesHandle(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	boom := errors.New("login failed")
	mock.ExpectPing().WillReturnError(boom)
	mock.ExpectClose()

	orig := sqlOpen
	sqlOpen = func(string, string) (*sql.DB, error) { return db, nil }
	defer func() { sqlOpen = orig }()

	if _, err := Open(context.Background(), "sqlserver://sa:pw@localhost"); !errors.Is(err, boom) {
		t.Fatalf("Open() error = %v, want %v", err, boom)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestOpen_InvalidDSN(t *testing.T) {
	t.Parallel()

	if _, err := Open(context.Background(), "DRIVER={x};DATABASE=nope"); err == nil {
		t.Fatal("Open() error = nil, want dsn error")
	}
}
