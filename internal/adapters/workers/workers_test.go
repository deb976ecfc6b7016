package workers

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/vigilsec/argus/internal/config"
	"github.com/vigilsec/argus/internal/core"
)

func snapshotFor(url string) core.ContextSnapshot {
	return core.ContextSnapshot{
		Request: core.WorkflowRequest{
			ID:     "wf-test",
			URL:    url,
			Tier:   core.TierStandard,
			Tenant: "acme",
		},
	}
}

func TestSimulatedWorkerCoversEveryStage(t *testing.T) {
	for _, stage := range core.AllStages() {
		w := NewSimulatedWorker(stage)
		if w.Stage() != stage {
			t.Fatalf("stage mismatch: %s != %s", w.Stage(), stage)
		}

		out, err := w.Invoke(context.Background(), snapshotFor("https://videotube.example/v/1"), time.Time{})
		if err != nil {
			t.Fatalf("stage %s: %v", stage, err)
		}
		if out.Empty() {
			t.Errorf("stage %s produced empty output", stage)
		}
	}
}

func TestSimulatedWorkerDeterministic(t *testing.T) {
	w := NewSimulatedWorker(core.StageTranscription)
	snap := snapshotFor("https://videotube.example/v/7")

	first, err := w.Invoke(context.Background(), snap, time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	second, err := w.Invoke(context.Background(), snap, time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if first.Text != second.Text {
		t.Errorf("same URL produced different transcripts:\n%q\n%q", first.Text, second.Text)
	}
}

func TestSimulatedWorkerHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := NewSimulatedWorker(core.StageAnalysis)
	_, err := w.Invoke(ctx, snapshotFor("https://x.example/v/1"), time.Time{})
	if core.GetCategory(err) != core.ErrCatCancelled {
		t.Errorf("expected cancelled error, got %v", err)
	}
}

func TestExecWorkerParsesJSONOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	w := NewExecWorker(core.StageAnalysis, "sh",
		[]string{"-c", `cat >/dev/null; echo '{"payload":{"keywords":["a","b"]}}'`}, nil)

	out, err := w.Invoke(context.Background(), snapshotFor("https://x.example/v/1"), time.Now().Add(10*time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Payload) == 0 {
		t.Fatalf("expected structured payload, got %+v", out)
	}
}

func TestExecWorkerPlainTextOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	w := NewExecWorker(core.StageTranscription, "sh",
		[]string{"-c", `cat >/dev/null; echo "[00:01] plain transcript"`}, nil)

	out, err := w.Invoke(context.Background(), snapshotFor("https://x.example/v/1"), time.Now().Add(10*time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if out.Text != "[00:01] plain transcript" {
		t.Errorf("unexpected text output: %q", out.Text)
	}
}

func TestExecWorkerCommandFailureIsTransient(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	w := NewExecWorker(core.StageAcquisition, "sh", []string{"-c", "exit 3"}, nil)

	_, err := w.Invoke(context.Background(), snapshotFor("https://x.example/v/1"), time.Now().Add(10*time.Second))
	var domErr *core.DomainError
	if !errors.As(err, &domErr) {
		t.Fatalf("expected domain error, got %v", err)
	}
	if domErr.Category != core.ErrCatTransient || !domErr.Retryable {
		t.Errorf("expected retryable transient error, got %+v", domErr)
	}
}

func TestExecWorkerDeadline(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	w := NewExecWorker(core.StageAcquisition, "sh", []string{"-c", "sleep 5"}, nil)

	_, err := w.Invoke(context.Background(), snapshotFor("https://x.example/v/1"), time.Now().Add(50*time.Millisecond))
	if core.GetCategory(err) != core.ErrCatTransient {
		t.Errorf("expected transient timeout, got %v", err)
	}
}

func TestBuildSetMixesExecAndSimulated(t *testing.T) {
	cfg := config.WorkersConfig{
		Commands: map[string]config.WorkerCommand{
			"acquisition": {Command: "sh", Args: []string{"-c", "true"}},
		},
	}

	set := BuildSet(cfg, nil)
	if len(set) != len(core.AllStages()) {
		t.Fatalf("expected a worker per stage, got %d", len(set))
	}
	if _, ok := set[core.StageAcquisition].(*ExecWorker); !ok {
		t.Errorf("acquisition should run the configured command")
	}
	if _, ok := set[core.StageTranscription].(*SimulatedWorker); !ok {
		t.Errorf("transcription should fall back to simulation")
	}
}

func TestProbeHealth(t *testing.T) {
	cfg := config.WorkersConfig{
		Commands: map[string]config.WorkerCommand{
			"acquisition":   {Command: "downloader-bin"},
			"transcription": {Command: "transcriber-bin"},
		},
	}

	probe := NewProbe(cfg)
	probe.lookPath = func(cmd string) (string, error) {
		if cmd == "downloader-bin" {
			return "/usr/bin/downloader-bin", nil
		}
		return "", errors.New("not found")
	}

	ctx := context.Background()
	if !probe.IsHealthy(ctx, core.CapabilityDownloader) {
		t.Error("downloader should be healthy")
	}
	if probe.IsHealthy(ctx, core.CapabilityTranscribe) {
		t.Error("transcriber command is missing, capability should be down")
	}
	// Simulated capabilities have no command to resolve.
	if !probe.IsHealthy(ctx, core.CapabilityModel) {
		t.Error("unconfigured capability should default to healthy")
	}
}
