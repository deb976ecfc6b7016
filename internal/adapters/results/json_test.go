package results

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vigilsec/argus/internal/core"
)

func sampleResult(id core.WorkflowID, tenant string) core.OrphanedResult {
	return core.OrphanedResult{
		WorkflowID: id,
		Tenant:     tenant,
		Reason:     "session closed before delivery",
		Report: core.SynthesizedReport{
			WorkflowID:      id,
			URL:             "https://example.com/v/1",
			Tier:            core.TierStandard,
			Summary:         "analysis of something",
			Confidence:      0.82,
			ThreatScore:     0.3,
			ProductionReady: true,
			Findings: map[string][]core.Finding{
				"themes": {{Category: "themes", Text: "governance", Weight: 0.9, Source: core.StageAnalysis}},
			},
			GeneratedAt: time.Now().UTC().Truncate(time.Second),
		},
		PersistedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestJSONStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewJSONStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewJSONStore: %v", err)
	}

	want := sampleResult("wf-json-1", "acme")
	id, err := store.Save(ctx, want)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if id != want.WorkflowID {
		t.Fatalf("Save returned %q, want %q", id, want.WorkflowID)
	}

	got, err := store.Load(ctx, id)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Tenant != want.Tenant || got.Reason != want.Reason {
		t.Fatalf("unexpected result: %#v", got)
	}
	if got.Report.Summary != want.Report.Summary ||
		got.Report.Confidence != want.Report.Confidence ||
		!got.Report.ProductionReady {
		t.Fatalf("report did not round-trip: %#v", got.Report)
	}
	if len(got.Report.Findings["themes"]) != 1 {
		t.Fatalf("findings did not round-trip: %#v", got.Report.Findings)
	}
}

func TestJSONStore_LoadMissing(t *testing.T) {
	store, err := NewJSONStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewJSONStore: %v", err)
	}

	_, err = store.Load(context.Background(), "ghost")
	if err == nil {
		t.Fatal("expected error for missing result")
	}
	var domainErr *core.DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != core.CodeResultNotFound {
		t.Fatalf("expected RESULT_NOT_FOUND, got %v", err)
	}
}

func TestJSONStore_DetectsCorruption(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewJSONStore(dir)
	if err != nil {
		t.Fatalf("NewJSONStore: %v", err)
	}

	result := sampleResult("wf-corrupt", "acme")
	if _, err := store.Save(ctx, result); err != nil {
		t.Fatalf("Save: %v", err)
	}

	path := filepath.Join(dir, "wf-corrupt.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading result file: %v", err)
	}
	tampered := strings.Replace(string(data), "acme", "mallory", 1)
	if err := os.WriteFile(path, []byte(tampered), 0o644); err != nil {
		t.Fatalf("writing tampered file: %v", err)
	}

	_, err = store.Load(ctx, "wf-corrupt")
	if err == nil {
		t.Fatal("expected checksum mismatch")
	}
	var domainErr *core.DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != core.CodeStateCorrupted {
		t.Fatalf("expected STATE_CORRUPTED, got %v", err)
	}
}

func TestJSONStore_ListByTenant(t *testing.T) {
	ctx := context.Background()
	store, err := NewJSONStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewJSONStore: %v", err)
	}

	for _, r := range []core.OrphanedResult{
		sampleResult("wf-a", "acme"),
		sampleResult("wf-b", "acme"),
		sampleResult("wf-c", "globex"),
	} {
		if _, err := store.Save(ctx, r); err != nil {
			t.Fatalf("Save %s: %v", r.WorkflowID, err)
		}
	}

	ids, err := store.List(ctx, "acme")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 results for acme, got %v", ids)
	}

	all, err := store.List(ctx, "")
	if err != nil {
		t.Fatalf("List all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 results, got %v", all)
	}
}

func TestJSONStore_RejectsEmptyID(t *testing.T) {
	store, err := NewJSONStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewJSONStore: %v", err)
	}
	if _, err := store.Save(context.Background(), core.OrphanedResult{Tenant: "acme"}); err == nil {
		t.Fatal("expected error for empty workflow ID")
	}
}
