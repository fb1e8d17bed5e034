package config

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kakes-candy/etl-db-tools/internal/ddl"
)

// tableDoc is the YAML form of a table definition:
//
//	name: dbo.plaatsen
//	columns:
//	  - {name: plaats_id, type: int, nullable: false}
//	  - {name: plaatsnaam, type: nvarchar, length: 255, default: onbekend}
//	  - {name: geladen_op, type: datetime2, default_expr: "(sysdatetime())"}
//
// nullable defaults to true. default is a literal rendered per the column
// type; default_expr is emitted verbatim.
type tableDoc struct {
	Name    string      `yaml:"name"`
	Columns []columnDoc `yaml:"columns"`
}

type columnDoc struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Nullable    *bool  `yaml:"nullable,omitempty"`
	Length      int    `yaml:"length,omitempty"`
	Precision   int    `yaml:"precision,omitempty"`
	Scale       int    `yaml:"scale,omitempty"`
	Default     any    `yaml:"default,omitempty"`
	DefaultExpr string `yaml:"default_expr,omitempty"`
}

// LoadTable reads a table definition file.
func LoadTable(path string) (*ddl.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	defer f.Close()
	t, err := ParseTable(f)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return t, nil
}

// ParseTable decodes a YAML table definition.
func ParseTable(r io.Reader) (*ddl.Table, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var doc tableDoc
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode table: %w", err)
	}
	cols := make([]ddl.Column, 0, len(doc.Columns))
	for i, cd := range doc.Columns {
		if cd.Default != nil && cd.DefaultExpr != "" {
			return nil, fmt.Errorf("column #%d (%s): default and default_expr are exclusive", i, cd.Name)
		}
		c := ddl.Column{
			Name:      cd.Name,
			Type:      ddl.DataType(cd.Type).Canonical(),
			Nullable:  cd.Nullable == nil || *cd.Nullable,
			Length:    cd.Length,
			Precision: cd.Precision,
			Scale:     cd.Scale,
			Default:   cd.Default,
		}
		if cd.DefaultExpr != "" {
			c.Default = ddl.Expr(cd.DefaultExpr)
		}
		cols = append(cols, c)
	}
	return ddl.NewTable(doc.Name, cols...)
}

// MarshalTable encodes t in the format ParseTable reads. Expr defaults, such
// as those read from a database catalog, are written as default_expr.
func MarshalTable(t *ddl.Table) ([]byte, error) {
	doc := tableDoc{Name: t.Name()}
	for _, c := range t.Columns() {
		nullable := c.Nullable
		cd := columnDoc{
			Name:      c.Name,
			Type:      string(c.Type),
			Nullable:  &nullable,
			Length:    c.Length,
			Precision: c.Precision,
			Scale:     c.Scale,
		}
		if e, ok := c.Default.(ddl.Expr); ok {
			cd.DefaultExpr = string(e)
		} else {
			cd.Default = c.Default
		}
		doc.Columns = append(doc.Columns, cd)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode table: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
