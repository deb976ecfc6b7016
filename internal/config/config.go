package config

import (
	"time"

	"github.com/vigilsec/argus/internal/core"
)

// Config holds all application configuration. It is loaded once at
// startup and passed by value into the planner and executor; a running
// workflow never observes a config change.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Workflow  WorkflowConfig  `mapstructure:"workflow"`
	Quality   QualityConfig   `mapstructure:"quality"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
	Synthesis SynthesisConfig `mapstructure:"synthesis"`
	Results   ResultsConfig   `mapstructure:"results"`
	Server    ServerConfig    `mapstructure:"server"`
	Workers   WorkersConfig   `mapstructure:"workers"`
}

// LogConfig configures logging behavior.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// WorkflowConfig configures workflow planning and execution.
// Durations are stored as strings ("90s", "5m") and parsed on access so
// the same values round-trip cleanly through YAML and env vars.
type WorkflowConfig struct {
	Tiers            map[string][]string `mapstructure:"tiers"`
	TierBudgets      map[string]string   `mapstructure:"tier_budgets"`
	StageTimeouts    map[string]string   `mapstructure:"stage_timeouts"`
	StageMedians     map[string]string   `mapstructure:"stage_medians"`
	TransientRetries int                 `mapstructure:"transient_retries"`
}

// QualityConfig configures per-stage output quality heuristics.
type QualityConfig struct {
	MinLength           int      `mapstructure:"min_length"`
	PlaceholderPhrases  []string `mapstructure:"placeholder_phrases"`
	LowQualityThreshold float64  `mapstructure:"low_quality_threshold"`
}

// AnalyticsConfig configures derived-metric calculation.
type AnalyticsConfig struct {
	CriticalityWeights map[string]float64 `mapstructure:"criticality_weights"`
}

// SynthesisConfig configures report synthesis.
type SynthesisConfig struct {
	Strategy               string `mapstructure:"strategy"`
	MaxFindingsPerCategory int    `mapstructure:"max_findings_per_category"`
}

// ResultsConfig configures orphaned-result persistence.
type ResultsConfig struct {
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
}

// ServerConfig configures the HTTP ops surface.
type ServerConfig struct {
	Addr        string   `mapstructure:"addr"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// WorkersConfig maps stages to the external commands that run them.
// Stages without a command fall back to simulated workers.
type WorkersConfig struct {
	Commands map[string]WorkerCommand `mapstructure:"commands"`
}

// WorkerCommand is one external stage command.
type WorkerCommand struct {
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`
}

const (
	fallbackStageTimeout = 3 * time.Minute
	fallbackStageMedian  = 60 * time.Second
	fallbackTierBudget   = 15 * time.Minute
)

// TierStages returns the stage set for a tier, in canonical order.
// Unknown stage names are dropped silently; the validator reports them.
func (w WorkflowConfig) TierStages(tier core.DepthTier) []core.Stage {
	names, ok := w.Tiers[string(tier)]
	if !ok {
		stages := append([]core.Stage(nil), core.DefaultTierStages()[tier]...)
		core.SortStages(stages)
		return stages
	}
	stages := make([]core.Stage, 0, len(names))
	for _, name := range names {
		if s, err := core.ParseStage(name); err == nil {
			stages = append(stages, s)
		}
	}
	core.SortStages(stages)
	return stages
}

// TierBudget returns the overall time budget for a tier.
func (w WorkflowConfig) TierBudget(tier core.DepthTier) time.Duration {
	return parseDuration(w.TierBudgets[string(tier)], fallbackTierBudget)
}

// StageTimeout returns the per-invocation timeout for a stage.
func (w WorkflowConfig) StageTimeout(stage core.Stage) time.Duration {
	return parseDuration(w.StageTimeouts[string(stage)], fallbackStageTimeout)
}

// StageMedian returns the historical median duration for a stage, used
// for progress scaling and plan estimates.
func (w WorkflowConfig) StageMedian(stage core.Stage) time.Duration {
	return parseDuration(w.StageMedians[string(stage)], fallbackStageMedian)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
