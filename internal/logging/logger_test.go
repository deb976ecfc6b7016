package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", Format: "json", Output: &buf})

	log.Info("workflow accepted", "workflow_id", "wf-1")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if record["msg"] != "workflow accepted" {
		t.Errorf("msg = %v", record["msg"])
	}
	if record["workflow_id"] != "wf-1" {
		t.Errorf("workflow_id = %v", record["workflow_id"])
	}
}

func TestNewTextFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", Format: "text", Output: &buf})

	log.Info("stage started", "stage", "acquisition")

	out := buf.String()
	if !strings.Contains(out, "stage started") || !strings.Contains(out, "stage=acquisition") {
		t.Errorf("unexpected text output: %q", out)
	}
}

func TestAutoFormatFallsBackToJSON(t *testing.T) {
	// A bytes.Buffer is not a terminal, so auto selects JSON.
	var buf bytes.Buffer
	log := New(Config{Level: "info", Format: "auto", Output: &buf})

	log.Info("hello")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("auto on non-TTY should emit JSON: %v", err)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Format: "json", Output: &buf})

	log.Info("dropped")
	log.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Error("info record emitted at warn level")
	}
	if !strings.Contains(out, "kept") {
		t.Error("warn record missing")
	}
}

func TestLoggerSanitizesOutput(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", Format: "json", Output: &buf})

	log.Info("fetching media", "url", "https://cdn.example.com/a.mp4?Signature=a1b2c3d4e5f6a7b8c9d0e1f2")

	out := buf.String()
	if strings.Contains(out, "a1b2c3d4e5f6a7b8c9d0e1f2") {
		t.Errorf("signed URL token leaked: %q", out)
	}
	if !strings.Contains(out, "[REDACTED]") {
		t.Errorf("expected redaction marker in %q", out)
	}
}

func TestContextHelpers(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", Format: "json", Output: &buf})

	log.WithWorkflow("wf-9").WithStage("analysis").WithTenant("acme").Info("running")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if record["workflow_id"] != "wf-9" || record["stage"] != "analysis" || record["tenant"] != "acme" {
		t.Errorf("context fields missing: %v", record)
	}
}

func TestNewNop(t *testing.T) {
	log := NewNop()
	// Must not panic and must swallow output.
	log.Info("noop")
	log.Error("noop")
}

func TestPrettyHandlerOutput(t *testing.T) {
	var buf bytes.Buffer
	h := NewPrettyHandler(&buf, slog.LevelInfo)
	log := slog.New(h)

	log.Info("stage done", "stage", "verification")

	out := buf.String()
	if !strings.Contains(out, "INF") || !strings.Contains(out, "stage done") || !strings.Contains(out, "verification") {
		t.Errorf("unexpected pretty output: %q", out)
	}
	if h.Enabled(t.Context(), slog.LevelDebug) {
		t.Error("debug should be disabled at info level")
	}
}
