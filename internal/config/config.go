// Package config loads the dbtools configuration: named database
// connections plus page size, logging and metrics settings.
//
// Values are merged from, lowest to highest precedence: built-in defaults, a
// YAML file, DBTOOLS_* environment variables and explicitly set CLI flags.
//
// Example file:
//
//	page_size: 5000
//	log:
//	  level: info
//	  seq_url: http://seq:5341
//	connections:
//	  dwh:
//	    kind: mssql
//	    dsn: "DRIVER={ODBC Driver 18 for SQL Server};SERVER=sql01;DATABASE=dwh;UID=etl;PWD=${DWH_PASSWORD}"
//	  local:
//	    kind: sqlite
//	    dsn: file:local.db
package config

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/kakes-candy/etl-db-tools/internal/storage"
)

// EnvPrefix prefixes every environment variable read by Load. A double
// underscore separates nesting levels: DBTOOLS_LOG__LEVEL sets log.level.
const EnvPrefix = "DBTOOLS_"

// DefaultFile is read when Load gets no explicit path and the file exists.
const DefaultFile = "dbtools.yaml"

// Config is the merged configuration.
type Config struct {
	// Connections maps a connection name to a backend and DSN.
	Connections map[string]Connection `koanf:"connections"`
	PageSize    int                   `koanf:"page_size"`
	// Job labels metrics.
	Job     string  `koanf:"job"`
	Log     Log     `koanf:"log"`
	Metrics Metrics `koanf:"metrics"`

	// File is the config file that was read, if any.
	File string `koanf:"-"`
}

// Connection names a backend kind (see storage.Kinds) and its DSN. ${VAR}
// references in the DSN are expanded from the environment.
type Connection struct {
	Kind string `koanf:"kind"`
	DSN  string `koanf:"dsn"`
}

// Log configures logging.Setup.
type Log struct {
	Level     string `koanf:"level"`
	Format    string `koanf:"format"`
	SeqURL    string `koanf:"seq_url"`
	AddSource bool   `koanf:"add_source"`
}

// Metrics selects a metrics backend: "none", "prometheus" (Pushgateway) or
// "datadog" (DogStatsD).
type Metrics struct {
	Backend        string   `koanf:"backend"`
	PushgatewayURL string   `koanf:"pushgateway_url"`
	DatadogAddr    string   `koanf:"datadog_addr"`
	Namespace      string   `koanf:"namespace"`
	Tags           []string `koanf:"tags"`
}

func defaults() map[string]any {
	return map[string]any{
		"page_size":       5000,
		"job":             "dbtools",
		"log.level":       "info",
		"log.format":      "text",
		"metrics.backend": "none",
	}
}

// flagKeys maps CLI flag names to config keys. Flags not listed map to their
// name with dashes replaced by underscores.
var flagKeys = map[string]string{
	"log-level":  "log.level",
	"log-format": "log.format",
	"seq-url":    "log.seq_url",
	"metrics":    "metrics.backend",
}

// Load merges defaults, the YAML file at path (or DefaultFile when path is
// empty and it exists), the environment and the changed flags in fs.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("config: defaults: %w", err)
	}

	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("config: env: %w", err)
	}

	if fs != nil {
		if err := k.Load(posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				key = strings.ReplaceAll(f.Name, "-", "_")
			}
			return key, posflag.FlagVal(fs, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("config: flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	cfg.File = path
	for name, c := range cfg.Connections {
		c.Kind = strings.ToLower(strings.TrimSpace(c.Kind))
		c.DSN = expandEnv(c.DSN)
		cfg.Connections[name] = c
	}
	return &cfg, nil
}

var envRef = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnv replaces ${VAR} with its value; unset variables are left as-is.
func expandEnv(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(m string) string {
		if v, ok := os.LookupEnv(m[2 : len(m)-1]); ok {
			return v
		}
		return m
	})
}

// Resolve turns a connection reference into a storage.Config. A reference
// is either a configured connection name, a URL whose scheme names a
// backend ("postgres://u@h/db") or "kind:dsn" ("sqlite:local.db").
func (c *Config) Resolve(ref string) (storage.Config, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return storage.Config{}, fmt.Errorf("config: empty connection reference")
	}
	if conn, ok := c.Connections[ref]; ok {
		return storage.Config{Kind: conn.Kind, DSN: conn.DSN}, nil
	}
	kind, rest, ok := strings.Cut(ref, ":")
	if !ok || kind == "" {
		return storage.Config{}, fmt.Errorf("config: unknown connection %q (configured: %s)", ref, strings.Join(c.ConnectionNames(), ", "))
	}
	kind = strings.ToLower(kind)
	if strings.HasPrefix(rest, "//") {
		return storage.Config{Kind: kind, DSN: expandEnv(ref)}, nil
	}
	return storage.Config{Kind: kind, DSN: expandEnv(rest)}, nil
}

// ConnectionNames returns the configured connection names, sorted.
func (c *Config) ConnectionNames() []string {
	out := make([]string, 0, len(c.Connections))
	for name := range c.Connections {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
