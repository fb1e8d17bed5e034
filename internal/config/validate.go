package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/kakes-candy/etl-db-tools/internal/logging"
	"github.com/kakes-candy/etl-db-tools/internal/storage"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is reported but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding. Path is a dotted path into
// the config, e.g. "connections.dwh.dsn".
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue has SeverityError.
func HasErrors(issues []Issue) bool {
	return slices.ContainsFunc(issues, func(i Issue) bool { return i.Severity == SeverityError })
}

// Validate checks c without changing it. Connection kinds are checked
// against the backends registered with storage; import
// internal/storage/all before calling it.
func Validate(c *Config) []Issue {
	var issues []Issue
	issues = append(issues, validateConnections(c.Connections)...)

	if c.PageSize <= 0 {
		issues = append(issues, Issue{SeverityError, "page_size", "page_size must be > 0"})
	} else if c.PageSize > 100_000 {
		issues = append(issues, Issue{SeverityWarning, "page_size",
			fmt.Sprintf("page_size %d holds a very large page in memory", c.PageSize)})
	}
	if strings.TrimSpace(c.Job) == "" {
		issues = append(issues, Issue{SeverityWarning, "job", "job is empty; metrics will carry an empty job label"})
	}

	issues = append(issues, validateLog(c.Log)...)
	issues = append(issues, validateMetrics(c.Metrics)...)
	return issues
}

func validateConnections(conns map[string]Connection) []Issue {
	var issues []Issue
	known := storage.Kinds()
	names := make([]string, 0, len(conns))
	for name := range conns {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		c := conns[name]
		path := "connections." + name
		switch {
		case strings.TrimSpace(c.Kind) == "":
			issues = append(issues, Issue{SeverityError, path + ".kind", "kind must not be empty"})
		case !slices.Contains(known, c.Kind):
			issues = append(issues, Issue{SeverityError, path + ".kind",
				fmt.Sprintf("unknown kind %q (known: %s)", c.Kind, strings.Join(known, ", "))})
		}
		if strings.TrimSpace(c.DSN) == "" {
			issues = append(issues, Issue{SeverityError, path + ".dsn", "dsn must not be empty"})
		} else if strings.Contains(c.DSN, "${") {
			issues = append(issues, Issue{SeverityWarning, path + ".dsn", "dsn references an unset environment variable"})
		}
	}
	return issues
}

func validateLog(l Log) []Issue {
	var issues []Issue
	if _, err := logging.ParseLevel(l.Level); err != nil {
		issues = append(issues, Issue{SeverityError, "log.level",
			fmt.Sprintf("unknown level %q; use debug, info, warn or error", l.Level)})
	}
	switch strings.ToLower(l.Format) {
	case "", "text", "json":
	default:
		issues = append(issues, Issue{SeverityError, "log.format",
			fmt.Sprintf("unknown format %q; use text or json", l.Format)})
	}
	if l.SeqURL != "" {
		if u, err := url.Parse(l.SeqURL); err != nil || u.Scheme == "" || u.Host == "" {
			issues = append(issues, Issue{SeverityError, "log.seq_url", "seq_url must be an absolute URL"})
		}
	}
	return issues
}

func validateMetrics(m Metrics) []Issue {
	var issues []Issue
	switch strings.ToLower(m.Backend) {
	case "", "none":
	case "prometheus":
		if m.PushgatewayURL == "" {
			issues = append(issues, Issue{SeverityError, "metrics.pushgateway_url", "prometheus backend requires pushgateway_url"})
		}
	case "datadog":
		if m.DatadogAddr == "" {
			issues = append(issues, Issue{SeverityError, "metrics.datadog_addr", "datadog backend requires datadog_addr"})
		}
	default:
		issues = append(issues, Issue{SeverityError, "metrics.backend",
			fmt.Sprintf("unknown backend %q; use none, prometheus or datadog", m.Backend)})
	}
	return issues
}
