package patternstore

import (
	"testing"

	"github.com/tinytelemetry/logmine"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore("")
	if err != nil {
		t.Fatalf("NewStore(\"\") failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func samplePatterns(t *testing.T) []*logmine.Pattern {
	t.Helper()
	e, err := logmine.NewEngine(logmine.DefaultConfig())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e.Process([]string{
		"user alice logged in",
		"user bob logged in",
		"disk usage warning on node-1",
	})
}

func TestUpsertSnapshot_WritesEveryPattern(t *testing.T) {
	store := newTestStore(t)
	patterns := samplePatterns(t)

	written, err := store.UpsertSnapshot(patterns, "webapp", "prod")
	if err != nil {
		t.Fatalf("UpsertSnapshot: %v", err)
	}
	if written != len(patterns) {
		t.Fatalf("written = %d, want %d", written, len(patterns))
	}

	count, err := store.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != len(patterns) {
		t.Fatalf("Count() = %d, want %d", count, len(patterns))
	}
}

func TestUpsertSnapshot_IsIdempotent(t *testing.T) {
	store := newTestStore(t)
	patterns := samplePatterns(t)

	if _, err := store.UpsertSnapshot(patterns, "webapp", "prod"); err != nil {
		t.Fatalf("first UpsertSnapshot: %v", err)
	}
	if _, err := store.UpsertSnapshot(patterns, "webapp", "prod"); err != nil {
		t.Fatalf("second UpsertSnapshot: %v", err)
	}

	count, err := store.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != len(patterns) {
		t.Fatalf("Count() after re-upsert = %d, want %d (rows should be replaced, not duplicated)", count, len(patterns))
	}
}

func TestGet_RoundTripsTokens(t *testing.T) {
	store := newTestStore(t)
	patterns := samplePatterns(t)

	if _, err := store.UpsertSnapshot(patterns, "webapp", "prod"); err != nil {
		t.Fatalf("UpsertSnapshot: %v", err)
	}

	key := logmine.NewCompositeKey(patterns[0], "webapp", "prod")
	row, ok, err := store.Get(key.StorageKey())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatalf("Get(%q) found = false, want true", key.StorageKey())
	}
	if len(row.Tokens) != len(patterns[0].Tokens()) {
		t.Fatalf("len(row.Tokens) = %d, want %d", len(row.Tokens), len(patterns[0].Tokens()))
	}
}

func TestGet_MissingKey(t *testing.T) {
	store := newTestStore(t)

	_, ok, err := store.Get("does-not-exist")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatal("expected Get to report found = false for a missing key")
	}
}

func TestListBySource_FiltersBySource(t *testing.T) {
	store := newTestStore(t)
	patterns := samplePatterns(t)

	if _, err := store.UpsertSnapshot(patterns, "webapp", "prod"); err != nil {
		t.Fatalf("UpsertSnapshot webapp: %v", err)
	}
	if _, err := store.UpsertSnapshot(patterns[:1], "worker", "prod"); err != nil {
		t.Fatalf("UpsertSnapshot worker: %v", err)
	}

	rows, err := store.ListBySource("webapp")
	if err != nil {
		t.Fatalf("ListBySource: %v", err)
	}
	if len(rows) != len(patterns) {
		t.Fatalf("ListBySource(webapp) = %d rows, want %d", len(rows), len(patterns))
	}
	for _, r := range rows {
		if r.Source != "webapp" {
			t.Errorf("row source = %q, want webapp", r.Source)
		}
	}
}
