package results

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/vigilsec/argus/internal/config"
	"github.com/vigilsec/argus/internal/core"
)

func configResults(backend, path string) config.ResultsConfig {
	return config.ResultsConfig{Backend: backend, Path: path}
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "results.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	want := sampleResult("wf-sql-1", "acme")
	id, err := store.Save(ctx, want)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load(ctx, id)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.WorkflowID != want.WorkflowID || got.Tenant != want.Tenant {
		t.Fatalf("unexpected result: %#v", got)
	}
	if got.Report.Summary != want.Report.Summary ||
		got.Report.Confidence != want.Report.Confidence {
		t.Fatalf("report did not round-trip: %#v", got.Report)
	}
	if !got.PersistedAt.Equal(want.PersistedAt) {
		t.Fatalf("persisted_at did not round-trip: got %v want %v", got.PersistedAt, want.PersistedAt)
	}
}

func TestSQLiteStore_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	first := sampleResult("wf-dup", "acme")
	if _, err := store.Save(ctx, first); err != nil {
		t.Fatalf("Save: %v", err)
	}

	second := first
	second.Reason = "second attempt"
	if _, err := store.Save(ctx, second); err != nil {
		t.Fatalf("Save overwrite: %v", err)
	}

	got, err := store.Load(ctx, "wf-dup")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Reason != "second attempt" {
		t.Fatalf("expected overwrite, got reason %q", got.Reason)
	}

	ids, err := store.List(ctx, "acme")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("expected a single row after overwrite, got %v", ids)
	}
}

func TestSQLiteStore_LoadMissing(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	_, err = store.Load(context.Background(), "ghost")
	if err == nil {
		t.Fatal("expected error for missing result")
	}
	var domainErr *core.DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != core.CodeResultNotFound {
		t.Fatalf("expected RESULT_NOT_FOUND, got %v", err)
	}
}

func TestSQLiteStore_ListByTenant(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	for _, r := range []core.OrphanedResult{
		sampleResult("wf-a", "acme"),
		sampleResult("wf-b", "globex"),
	} {
		if _, err := store.Save(ctx, r); err != nil {
			t.Fatalf("Save %s: %v", r.WorkflowID, err)
		}
	}

	ids, err := store.List(ctx, "globex")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(ids) != 1 || ids[0] != "wf-b" {
		t.Fatalf("unexpected result IDs: %v", ids)
	}
}

func TestNewStore_BackendSelection(t *testing.T) {
	dir := t.TempDir()

	jsonStore, err := NewStore(configResults("json", filepath.Join(dir, "json-results")))
	if err != nil {
		t.Fatalf("NewStore json: %v", err)
	}
	if _, ok := jsonStore.(*JSONStore); !ok {
		t.Fatalf("expected *JSONStore, got %T", jsonStore)
	}

	sqliteStore, err := NewStore(configResults("sqlite", filepath.Join(dir, "results")))
	if err != nil {
		t.Fatalf("NewStore sqlite: %v", err)
	}
	if _, ok := sqliteStore.(*SQLiteStore); !ok {
		t.Fatalf("expected *SQLiteStore, got %T", sqliteStore)
	}
	_ = sqliteStore.Close()

	if _, err := NewStore(configResults("cassandra", dir)); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}
