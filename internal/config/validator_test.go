package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	return cfg
}

func TestValidateDefaults(t *testing.T) {
	assert.NoError(t, ValidateConfig(validConfig(t)))
}

func TestValidateLog(t *testing.T) {
	cfg := validConfig(t)
	cfg.Log.Level = "verbose"
	cfg.Log.Format = "xml"

	err := ValidateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.level")
	assert.Contains(t, err.Error(), "log.format")
}

func TestValidateTierNesting(t *testing.T) {
	cfg := validConfig(t)
	// deep drops a stage that standard carries
	cfg.Workflow.Tiers["deep"] = []string{
		"acquisition", "transcription", "analysis", "threat_scoring",
	}

	err := ValidateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must include every standard stage")
}

func TestValidateTierMinimumViable(t *testing.T) {
	cfg := validConfig(t)
	cfg.Workflow.Tiers["standard"] = []string{"analysis", "verification"}

	err := ValidateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "minimum viable stage missing")
}

func TestValidateTierUnknownStage(t *testing.T) {
	cfg := validConfig(t)
	cfg.Workflow.Tiers["experimental"] = append(cfg.Workflow.Tiers["experimental"], "exfiltration")

	err := ValidateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown stage")
}

func TestValidateMissingTier(t *testing.T) {
	cfg := validConfig(t)
	delete(cfg.Workflow.Tiers, "comprehensive")

	err := ValidateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workflow.tiers.comprehensive")
}

func TestValidateDurations(t *testing.T) {
	cfg := validConfig(t)
	cfg.Workflow.TierBudgets["deep"] = "soon"
	cfg.Workflow.StageTimeouts["analysis"] = "-2m"

	err := ValidateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration format")
	assert.Contains(t, err.Error(), "must be positive")
}

func TestValidateRetries(t *testing.T) {
	cfg := validConfig(t)
	cfg.Workflow.TransientRetries = 25

	err := ValidateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workflow.transient_retries")
}

func TestValidateQuality(t *testing.T) {
	cfg := validConfig(t)
	cfg.Quality.LowQualityThreshold = 1.5

	err := ValidateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quality.low_quality_threshold")
}

func TestValidateAnalyticsWeights(t *testing.T) {
	cfg := validConfig(t)
	cfg.Analytics.CriticalityWeights["analysis"] = 2.0
	cfg.Analytics.CriticalityWeights["bogus"] = 0.5

	err := ValidateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "analytics.criticality_weights.analysis")
	assert.Contains(t, err.Error(), "unknown stage")
}

func TestValidateSynthesis(t *testing.T) {
	cfg := validConfig(t)
	cfg.Synthesis.Strategy = "vibes"
	cfg.Synthesis.MaxFindingsPerCategory = 0

	err := ValidateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "synthesis.strategy")
	assert.Contains(t, err.Error(), "synthesis.max_findings_per_category")
}

func TestValidateResultsAndServer(t *testing.T) {
	cfg := validConfig(t)
	cfg.Results.Backend = "mongo"
	cfg.Results.Path = ""
	cfg.Server.Addr = ""

	err := ValidateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "results.backend")
	assert.Contains(t, err.Error(), "results.path")
	assert.Contains(t, err.Error(), "server.addr")
}

func TestValidationErrorsCollectAll(t *testing.T) {
	cfg := validConfig(t)
	cfg.Log.Level = "bad"
	cfg.Results.Backend = "bad"

	v := NewValidator()
	err := v.Validate(cfg)
	require.Error(t, err)
	assert.True(t, v.Errors().HasErrors())
	assert.GreaterOrEqual(t, len(v.Errors()), 2)
	assert.Equal(t, 2, strings.Count(err.Error(), "config validation:"))
}
