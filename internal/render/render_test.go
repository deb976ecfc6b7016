package render

import (
	"strings"
	"testing"
	"time"

	"github.com/vigilsec/argus/internal/core"
	"github.com/vigilsec/argus/internal/testutil"
)

func sampleReport() core.SynthesizedReport {
	return core.SynthesizedReport{
		WorkflowID: "wf-render",
		URL:        "https://videotube.example/v/123",
		Tier:       core.TierStandard,
		Summary:    "Briefing built from three completed stages.",
		Findings: map[string][]core.Finding{
			"themes": {
				{Category: "themes", Text: "governance", Weight: 0.9, Source: core.StageAnalysis},
			},
			"claims": {
				{Category: "claims", Text: "budget passed", Weight: 0.56, Source: core.StageVerification},
			},
		},
		Confidence:  0.8,
		ThreatScore: 0.25,
		Caveats: []core.Caveat{
			{Kind: core.CaveatFailed, Stage: core.StageVerification, Message: "stage verification failed: request timed out"},
		},
		Stats: core.RunStats{
			Elapsed:      30 * time.Second,
			StagesRun:    3,
			StagesFailed: 1,
			Retries:      1,
		},
		ProductionReady: true,
		GeneratedAt:     time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestMarkdownGolden(t *testing.T) {
	g := testutil.NewGolden(t, "testdata")
	g.AssertString("report_markdown", testutil.Normalize(Markdown(sampleReport())))
}

func TestMarkdownFallbackReport(t *testing.T) {
	report := sampleReport()
	report.ProductionReady = false
	report.FailureCategory = core.ErrCatSynthesis
	report.Findings = nil
	report.LedgerExcerpt = []core.LedgerExcerpt{
		{Stage: core.StageAcquisition, Status: core.StageStatusOK, Preview: "media metadata"},
		{Stage: core.StageTranscription, Status: core.StageStatusFailed, Error: "worker timed out"},
	}

	md := Markdown(report)

	if !strings.Contains(md, "> **Not production ready** (failure category: synthesis_failure)") {
		t.Errorf("missing fallback banner:\n%s", md)
	}
	if strings.Contains(md, "## Findings") {
		t.Error("findings section rendered with no findings")
	}
	if !strings.Contains(md, "## Ledger excerpt") {
		t.Errorf("missing ledger excerpt section:\n%s", md)
	}
	if !strings.Contains(md, "- acquisition (ok): media metadata") {
		t.Errorf("missing ok excerpt line:\n%s", md)
	}
	if !strings.Contains(md, "- transcription (failed): worker timed out") {
		t.Errorf("missing failed excerpt line:\n%s", md)
	}
}

func TestRendererPlainPath(t *testing.T) {
	r := New(WithColor(false))
	out := r.Render(sampleReport())
	if out != Markdown(sampleReport()) {
		t.Error("color-off render should return plain markdown")
	}
}

func TestRendererColorPath(t *testing.T) {
	r := New(WithWidth(80))
	out := r.Render(sampleReport())
	if out == "" {
		t.Fatal("empty render output")
	}
	if !strings.Contains(out, "Content Analysis Report") {
		t.Errorf("missing title in rendered output:\n%s", out)
	}

	scrubbed := testutil.ScrubAll(out)
	if strings.Contains(scrubbed, "2026-08-01T12:00:00Z") {
		t.Error("scrubbing left the generation timestamp in place")
	}
}

func TestStatusLine(t *testing.T) {
	ready := StatusLine(sampleReport())
	if !strings.Contains(ready, "PRODUCTION READY") {
		t.Errorf("expected ready badge, got %q", ready)
	}
	if !strings.Contains(ready, "confidence 0.80") {
		t.Errorf("expected score detail, got %q", ready)
	}

	failed := sampleReport()
	failed.ProductionReady = false
	failed.FailureCategory = core.ErrCatTransient
	line := StatusLine(failed)
	if !strings.Contains(line, "DEGRADED") {
		t.Errorf("expected degraded badge, got %q", line)
	}
	if !strings.Contains(line, "failure: transient") {
		t.Errorf("expected failure detail, got %q", line)
	}
}
