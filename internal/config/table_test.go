package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kakes-candy/etl-db-tools/internal/ddl"
)

const plaatsenYAML = `
name: dbo.plaatsen
columns:
  - name: plaats_id
    type: INT
    nullable: false
  - name: plaatsnaam
    type: nvarchar
    length: 255
    default: onbekend
  - name: breuk
    type: decimal
    precision: 5
    scale: 2
    default: 1.5
  - name: geladen_op
    type: datetime2
    default_expr: (sysdatetime())
`

func TestParseTable(t *testing.T) {
	t.Parallel()

	tbl, err := ParseTable(strings.NewReader(plaatsenYAML))
	require.NoError(t, err)

	assert.Equal(t, "dbo.plaatsen", tbl.Name())
	assert.Equal(t, []string{"plaats_id", "plaatsnaam", "breuk", "geladen_op"}, tbl.ColumnNames())

	id, _ := tbl.Column("plaats_id")
	assert.Equal(t, ddl.Int, id.Type)
	assert.False(t, id.Nullable)

	naam, _ := tbl.Column("plaatsnaam")
	assert.True(t, naam.Nullable, "nullable defaults to true")

	stmt, err := tbl.CreateTableStatement()
	require.NoError(t, err)
	assert.Equal(t, "create table dbo.plaatsen (\n"+
		"    plaats_id int not null,\n"+
		"    plaatsnaam nvarchar(255) default 'onbekend',\n"+
		"    breuk decimal(5,2) default 1.5,\n"+
		"    geladen_op datetime2 default (sysdatetime())\n"+
		"    );", stmt)
}

func TestParseTable_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
		is   error
	}{
		{"unknown field", "name: t\ncolumns:\n  - {name: a, type: int, size: 3}\n", nil},
		{"duplicate column", "name: t\ncolumns:\n  - {name: a, type: int}\n  - {name: a, type: int}\n", ddl.ErrInvalidColumn},
		{"no table name", "columns:\n  - {name: a, type: int}\n", ddl.ErrInvalidTable},
		{"both defaults", "name: t\ncolumns:\n  - {name: a, type: int, default: 1, default_expr: (1)}\n", nil},
	}
	for _, tt := range tests {
		_, err := ParseTable(strings.NewReader(tt.doc))
		require.Error(t, err, tt.name)
		if tt.is != nil {
			assert.True(t, errors.Is(err, tt.is), "%s: %v", tt.name, err)
		}
	}
}

func TestMarshalTable_RoundTrip(t *testing.T) {
	t.Parallel()

	orig, err := ParseTable(strings.NewReader(plaatsenYAML))
	require.NoError(t, err)

	out, err := MarshalTable(orig)
	require.NoError(t, err)
	assert.Contains(t, string(out), "default_expr: (sysdatetime())")

	path := filepath.Join(t.TempDir(), "plaatsen.yaml")
	require.NoError(t, os.WriteFile(path, out, 0o600))
	back, err := LoadTable(path)
	require.NoError(t, err)

	want, _ := orig.CreateTableStatement()
	got, err := back.CreateTableStatement()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
