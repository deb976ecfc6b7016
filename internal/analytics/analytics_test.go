package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vigilsec/argus/internal/core"
	"github.com/vigilsec/argus/internal/transform"
)

func testCalculator() *Calculator {
	return NewCalculator(map[string]float64{
		"acquisition":   1.0,
		"transcription": 1.0,
		"analysis":      0.8,
		"verification":  0.9,
	})
}

func TestConfidenceAllPerfect(t *testing.T) {
	c := testCalculator()
	results := []core.StageResult{
		{Stage: core.StageAcquisition, Status: core.StageStatusOK, Quality: 1.0},
		{Stage: core.StageTranscription, Status: core.StageStatusOK, Quality: 1.0},
	}
	assert.InDelta(t, 1.0, c.Confidence(results), 1e-9)
}

func TestConfidenceWeightsByCriticality(t *testing.T) {
	c := testCalculator()
	results := []core.StageResult{
		{Stage: core.StageAcquisition, Status: core.StageStatusOK, Quality: 1.0},   // weight 1.0
		{Stage: core.StageAnalysis, Status: core.StageStatusOK, Quality: 0.5},      // weight 0.8
		{Stage: core.StageVerification, Status: core.StageStatusFailed, Quality: 0}, // weight 0.9, contributes 0
	}
	want := (1.0*1.0 + 0.8*0.5) / (1.0 + 0.8 + 0.9)
	assert.InDelta(t, want, c.Confidence(results), 1e-9)
}

func TestConfidenceFailedStagesLowerScore(t *testing.T) {
	c := testCalculator()
	healthy := []core.StageResult{
		{Stage: core.StageAcquisition, Status: core.StageStatusOK, Quality: 0.9},
		{Stage: core.StageTranscription, Status: core.StageStatusOK, Quality: 0.9},
	}
	degraded := append(append([]core.StageResult{}, healthy...), core.StageResult{
		Stage: core.StageVerification, Status: core.StageStatusSkipped,
	})
	assert.Less(t, c.Confidence(degraded), c.Confidence(healthy))
}

func TestConfidenceEmptyLedger(t *testing.T) {
	assert.Zero(t, testCalculator().Confidence(nil))
}

func TestConfidenceUnknownStageGetsDefaultWeight(t *testing.T) {
	c := NewCalculator(nil)
	results := []core.StageResult{
		{Stage: core.StageThreatScoring, Status: core.StageStatusOK, Quality: 0.6},
	}
	assert.InDelta(t, 0.6, c.Confidence(results), 1e-9)
}

func TestThreatScore(t *testing.T) {
	c := testCalculator()

	assert.Zero(t, c.ThreatScore(transform.CompositeSignals{}))

	single := transform.CompositeSignals{
		Threat: []core.Signal{{Key: "incitement", Severity: 0.8}},
	}
	assert.InDelta(t, 0.8, c.ThreatScore(single), 1e-9)

	mixed := transform.CompositeSignals{
		Threat:    []core.Signal{{Key: "incitement", Severity: 0.9}},
		Deception: []core.Signal{{Key: "manipulated_media", Severity: 0.3}},
	}
	want := 0.7*0.9 + 0.3*(0.9+0.3)/2
	assert.InDelta(t, want, c.ThreatScore(mixed), 1e-9)

	// More corroboration at the same max means a higher score.
	assert.Greater(t, c.ThreatScore(transform.CompositeSignals{
		Threat: []core.Signal{
			{Key: "a", Severity: 0.9},
			{Key: "b", Severity: 0.9},
		},
	}), c.ThreatScore(mixed))
}

func TestStats(t *testing.T) {
	c := testCalculator()
	results := []core.StageResult{
		{Stage: core.StageAcquisition, Status: core.StageStatusOK, Attempts: 1},
		{Stage: core.StageTranscription, Status: core.StageStatusFailed, Attempts: 3},
		{Stage: core.StageAnalysis, Status: core.StageStatusSkipped},
	}

	stats := c.Stats(results, 42*time.Second)
	assert.Equal(t, 42*time.Second, stats.Elapsed)
	assert.Equal(t, 1, stats.StagesRun)
	assert.Equal(t, 1, stats.StagesFailed)
	assert.Equal(t, 1, stats.StagesSkipped)
	assert.Equal(t, 2, stats.Retries)
}
