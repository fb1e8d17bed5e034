package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Config selects a backend and tells it where to connect.
type Config struct {
	// Kind is the registered backend name: "mssql", "postgres", "sqlite" or
	// "mysql".
	Kind string
	// DSN is passed to the backend. Its format is backend specific.
	DSN string
}

// Opener opens a connection for a backend. Backends register one from init.
type Opener func(ctx context.Context, cfg Config) (Conn, error)

var (
	regMu   sync.RWMutex
	openers = map[string]Opener{}
)

// Register registers (or replaces) the Opener for kind.
func Register(kind string, fn Opener) {
	regMu.Lock()
	defer regMu.Unlock()
	openers[strings.ToLower(kind)] = fn
}

// Open locates the Opener registered for cfg.Kind and invokes it. Callers do
// not need to know which backend they are using.
func Open(ctx context.Context, cfg Config) (Conn, error) {
	regMu.RLock()
	fn, ok := openers[strings.ToLower(strings.TrimSpace(cfg.Kind))]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: no backend registered for kind=%q (known: %s)",
			cfg.Kind, strings.Join(Kinds(), ", "))
	}
	return fn(ctx, cfg)
}

// Kinds lists the registered backend names.
func Kinds() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(openers))
	for k := range openers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
