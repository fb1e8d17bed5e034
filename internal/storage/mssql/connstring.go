package mssql

import (
	"fmt"
	"strings"
)

// Param is one extra key=value pair of a connection string.
type Param struct {
	Key   string
	Value string
}

// ConnString is an ODBC style SQL Server connection string:
//
//	DRIVER={ODBC Driver 18 for SQL Server};SERVER=localhost;DATABASE=TestDB;UID=etl;TrustServerCertificate=yes
//
// Extra parameters keep the order in which they were added.
type ConnString struct {
	Driver   string
	Server   string
	Database string
	Params   []Param
}

// NewConnString builds a connection string from its required parts.
func NewConnString(driver, server, database string, params ...Param) ConnString {
	return ConnString{Driver: driver, Server: server, Database: database, Params: params}
}

// With returns a copy of c with key set to value. An existing key (compared
// case-insensitively) is replaced in place.
func (c ConnString) With(key, value string) ConnString {
	out := c
	out.Params = append([]Param(nil), c.Params...)
	for i, p := range out.Params {
		if strings.EqualFold(p.Key, key) {
			out.Params[i].Value = value
			return out
		}
	}
	out.Params = append(out.Params, Param{Key: key, Value: value})
	return out
}

// Param returns the value of an extra parameter.
func (c ConnString) Param(key string) (string, bool) {
	for _, p := range c.Params {
		if strings.EqualFold(p.Key, key) {
			return p.Value, true
		}
	}
	return "", false
}

// String renders the ODBC form: DRIVER={d};SERVER=s;DATABASE=db;k=v...
func (c ConnString) String() string {
	parts := make([]string, 0, 3+len(c.Params))
	parts = append(parts,
		"DRIVER={"+c.Driver+"}",
		"SERVER="+c.Server,
		"DATABASE="+c.Database,
	)
	for _, p := range c.Params {
		parts = append(parts, p.Key+"="+p.Value)
	}
	return strings.Join(parts, ";")
}

// odbcKeys maps ODBC driver keywords to their go-mssqldb spelling.
var odbcKeys = map[string]string{
	"uid":                    "user id",
	"pwd":                    "password",
	"trusted_connection":     "integrated security",
	"trustservercertificate": "TrustServerCertificate",
	"app":                    "app name",
}

// DSN converts c to a go-mssqldb "odbc:" DSN. The DRIVER keyword has no
// meaning for go-mssqldb and is dropped.
func (c ConnString) DSN() string {
	parts := []string{
		"server=" + odbcValue(c.Server),
		"database=" + odbcValue(c.Database),
	}
	for _, p := range c.Params {
		key := strings.TrimSpace(p.Key)
		if k, ok := odbcKeys[strings.ToLower(key)]; ok {
			key = k
		}
		val := p.Value
		if key == "TrustServerCertificate" {
			val = odbcBool(val)
		}
		parts = append(parts, key+"="+odbcValue(val))
	}
	return "odbc:" + strings.Join(parts, ";")
}

// odbcBool maps the ODBC yes/no spelling to the true/false go-mssqldb parses.
func odbcBool(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes":
		return "true"
	case "no":
		return "false"
	}
	return v
}

func odbcValue(v string) string {
	if strings.ContainsAny(v, ";{}") || strings.TrimSpace(v) != v {
		return "{" + strings.ReplaceAll(v, "}", "}}") + "}"
	}
	return v
}

// ParseConnString parses the ODBC form produced by String. Values may be
// wrapped in braces to carry semicolons; "}}" inside braces is a literal "}".
func ParseConnString(s string) (ConnString, error) {
	var c ConnString
	pairs, err := splitODBC(s)
	if err != nil {
		return c, err
	}
	for _, kv := range pairs {
		switch strings.ToUpper(kv.Key) {
		case "DRIVER":
			c.Driver = kv.Value
		case "SERVER":
			c.Server = kv.Value
		case "DATABASE":
			c.Database = kv.Value
		default:
			c.Params = append(c.Params, kv)
		}
	}
	if c.Server == "" {
		return c, fmt.Errorf("connection string: SERVER is required")
	}
	return c, nil
}

func splitODBC(s string) ([]Param, error) {
	var (
		out []Param
		i   int
	)
	for i < len(s) {
		eq := strings.IndexByte(s[i:], '=')
		if eq < 0 {
			if strings.TrimSpace(s[i:]) == "" {
				break
			}
			return nil, fmt.Errorf("connection string: missing '=' in %q", s[i:])
		}
		key := strings.TrimSpace(s[i : i+eq])
		i += eq + 1

		var val strings.Builder
		if i < len(s) && s[i] == '{' {
			i++
			closed := false
			for i < len(s) {
				if s[i] == '}' {
					if i+1 < len(s) && s[i+1] == '}' {
						val.WriteByte('}')
						i += 2
						continue
					}
					i++
					closed = true
					break
				}
				val.WriteByte(s[i])
				i++
			}
			if !closed {
				return nil, fmt.Errorf("connection string: unterminated '{' for %s", key)
			}
			for i < len(s) && s[i] != ';' {
				i++
			}
		} else {
			end := strings.IndexByte(s[i:], ';')
			if end < 0 {
				end = len(s) - i
			}
			val.WriteString(strings.TrimSpace(s[i : i+end]))
			i += end
		}
		if i < len(s) && s[i] == ';' {
			i++
		}
		if key == "" {
			return nil, fmt.Errorf("connection string: empty key")
		}
		out = append(out, Param{Key: key, Value: val.String()})
	}
	return out, nil
}
