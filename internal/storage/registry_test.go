package storage

import (
	"context"
	"strings"
	"testing"
)

// TestRegisterAndOpen verifies that registering a backend enables Open() to
// return its connection, matching the kind case-insensitively.
func TestRegisterAndOpen(t *testing.T) {
	t.Parallel()

	var gotDSN string
	Register("fake-registry", func(_ context.Context, cfg Config) (Conn, error) {
		gotDSN = cfg.DSN
		return nil, nil
	})

	if _, err := Open(context.Background(), Config{Kind: " Fake-Registry ", DSN: "x://y"}); err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if gotDSN != "x://y" {
		t.Fatalf("opener got DSN %q", gotDSN)
	}
}

func TestOpen_UnknownKind(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), Config{Kind: "oracle"})
	if err == nil || !strings.Contains(err.Error(), `kind="oracle"`) {
		t.Fatalf("Open error = %v, want unknown kind error", err)
	}
}
