package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigilsec/argus/internal/core"
)

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	SetVersion("v1.2.3", "abc123def", "2026-01-15")

	out, err := executeCommand(t, "version")
	require.NoError(t, err)

	assert.Contains(t, out, "argus v1.2.3")
	assert.Contains(t, out, "abc123def")
	assert.Contains(t, out, "2026-01-15")
}

func TestRunDumpPlan(t *testing.T) {
	out, err := executeCommand(t,
		"run", "--dump-plan", "--depth", "deep",
		"https://videotube.example/v/abc123")
	require.NoError(t, err)

	// Deep tier plan covers the standard stages plus threat scoring.
	assert.Contains(t, out, "acquisition")
	assert.Contains(t, out, "transcription")
	assert.Contains(t, out, "analysis")
	assert.Contains(t, out, "verification")
	assert.Contains(t, out, "threat_scoring")
	assert.NotContains(t, out, "cross_platform")
	assert.Contains(t, out, "deadline")
}

func TestRunDumpPlanInvalidTier(t *testing.T) {
	_, err := executeCommand(t,
		"run", "--dump-plan", "--depth", "bottomless",
		"https://videotube.example/v/abc123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid depth tier")
}

func TestRunRequiresURL(t *testing.T) {
	runDepth = "standard"

	_, err := executeCommand(t, "run")
	require.Error(t, err)
}

func TestDoctorWithSimulatedWorkers(t *testing.T) {
	out, err := executeCommand(t, "doctor")
	require.NoError(t, err)

	// Without configured commands every capability runs simulated.
	assert.Contains(t, out, "✓ downloader")
	assert.Contains(t, out, "✓ transcriber")
	assert.Contains(t, out, "✓ language_model")
	assert.Contains(t, out, "minimum viable stages can run")
}

func TestCLIChannelProgress(t *testing.T) {
	var buf bytes.Buffer
	ch := newCLIChannel(&buf, "term", false)

	err := ch.SendProgress(context.Background(), "cli", core.ProgressUpdate{
		Stage:     core.StageAnalysis,
		Completed: 2,
		Total:     4,
	})
	require.NoError(t, err)
	assert.Equal(t, "[2/4] analysis\n", buf.String())
}

func TestCLIChannelProgressQuiet(t *testing.T) {
	var buf bytes.Buffer
	ch := newCLIChannel(&buf, "term", true)

	require.NoError(t, ch.SendProgress(context.Background(), "cli", core.ProgressUpdate{}))
	assert.Empty(t, buf.String())
}

func TestCLIChannelFinalFormats(t *testing.T) {
	report := core.SynthesizedReport{
		WorkflowID:      "wf-1",
		Summary:         "Briefing built from four stages.",
		ProductionReady: true,
	}

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		ch := newCLIChannel(&buf, "json", false)
		require.NoError(t, ch.SendFinal(context.Background(), "cli", report))
		assert.Contains(t, buf.String(), `"workflow_id": "wf-1"`)
	})

	t.Run("markdown", func(t *testing.T) {
		var buf bytes.Buffer
		ch := newCLIChannel(&buf, "markdown", false)
		require.NoError(t, ch.SendFinal(context.Background(), "cli", report))
		assert.Contains(t, buf.String(), "# Content Analysis Report")
	})

	t.Run("term", func(t *testing.T) {
		var buf bytes.Buffer
		ch := newCLIChannel(&buf, "term", false)
		require.NoError(t, ch.SendFinal(context.Background(), "cli", report))
		assert.Contains(t, buf.String(), "PRODUCTION READY")
	})
}
