package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/vigilsec/argus/internal/core"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation: %s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects multiple validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

// Validate validates the entire configuration.
func (v *Validator) Validate(cfg *Config) error {
	v.validateLog(&cfg.Log)
	v.validateWorkflow(&cfg.Workflow)
	v.validateQuality(&cfg.Quality)
	v.validateAnalytics(&cfg.Analytics)
	v.validateSynthesis(&cfg.Synthesis)
	v.validateResults(&cfg.Results)
	v.validateServer(&cfg.Server)

	if len(v.errors) > 0 {
		return v.errors
	}
	return nil
}

// Errors returns the collected validation errors.
func (v *Validator) Errors() ValidationErrors {
	return v.errors
}

func (v *Validator) addError(field string, value interface{}, msg string) {
	v.errors = append(v.errors, ValidationError{
		Field:   field,
		Value:   value,
		Message: msg,
	})
}

func (v *Validator) validateLog(cfg *LogConfig) {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[cfg.Level] {
		v.addError("log.level", cfg.Level, "must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"auto": true, "text": true, "json": true,
	}
	if !validFormats[cfg.Format] {
		v.addError("log.format", cfg.Format, "must be one of: auto, text, json")
	}
}

func (v *Validator) validateWorkflow(cfg *WorkflowConfig) {
	tierSets := make(map[core.DepthTier]map[core.Stage]bool)

	for _, tier := range core.AllTiers() {
		field := "workflow.tiers." + tier.String()
		names, ok := cfg.Tiers[tier.String()]
		if !ok {
			v.addError(field, nil, "tier stage set required")
			continue
		}

		set := make(map[core.Stage]bool, len(names))
		for _, name := range names {
			stage, err := core.ParseStage(name)
			if err != nil {
				v.addError(field, name, "unknown stage")
				continue
			}
			if set[stage] {
				v.addError(field, name, "duplicate stage")
			}
			set[stage] = true
		}

		for _, mv := range core.MinimumViableStages() {
			if !set[mv] {
				v.addError(field, mv.String(), "minimum viable stage missing")
			}
		}
		tierSets[tier] = set
	}

	// Each deeper tier must be a superset of the previous one.
	tiers := core.AllTiers()
	for i := 1; i < len(tiers); i++ {
		inner, outer := tierSets[tiers[i-1]], tierSets[tiers[i]]
		if inner == nil || outer == nil {
			continue
		}
		for stage := range inner {
			if !outer[stage] {
				v.addError("workflow.tiers."+tiers[i].String(), stage.String(),
					fmt.Sprintf("must include every %s stage", tiers[i-1]))
			}
		}
	}

	for tier, raw := range cfg.TierBudgets {
		v.validateDuration("workflow.tier_budgets."+tier, raw)
	}
	for stage, raw := range cfg.StageTimeouts {
		if !core.ValidStage(core.Stage(stage)) {
			v.addError("workflow.stage_timeouts", stage, "unknown stage")
		}
		v.validateDuration("workflow.stage_timeouts."+stage, raw)
	}
	for stage, raw := range cfg.StageMedians {
		if !core.ValidStage(core.Stage(stage)) {
			v.addError("workflow.stage_medians", stage, "unknown stage")
		}
		v.validateDuration("workflow.stage_medians."+stage, raw)
	}

	if cfg.TransientRetries < 0 || cfg.TransientRetries > 10 {
		v.addError("workflow.transient_retries", cfg.TransientRetries, "must be between 0 and 10")
	}
}

func (v *Validator) validateDuration(field, raw string) {
	d, err := time.ParseDuration(raw)
	if err != nil {
		v.addError(field, raw, "invalid duration format")
		return
	}
	if d <= 0 {
		v.addError(field, raw, "must be positive")
	}
}

func (v *Validator) validateQuality(cfg *QualityConfig) {
	if cfg.MinLength < 0 {
		v.addError("quality.min_length", cfg.MinLength, "must be non-negative")
	}
	if cfg.LowQualityThreshold < 0 || cfg.LowQualityThreshold > 1 {
		v.addError("quality.low_quality_threshold", cfg.LowQualityThreshold, "must be between 0 and 1")
	}
}

func (v *Validator) validateAnalytics(cfg *AnalyticsConfig) {
	for stage, weight := range cfg.CriticalityWeights {
		if !core.ValidStage(core.Stage(stage)) {
			v.addError("analytics.criticality_weights", stage, "unknown stage")
		}
		if weight < 0 || weight > 1 {
			v.addError("analytics.criticality_weights."+stage, weight, "must be between 0 and 1")
		}
	}
}

func (v *Validator) validateSynthesis(cfg *SynthesisConfig) {
	validStrategies := map[string]bool{
		"weighted": true, "uniform": true,
	}
	if !validStrategies[cfg.Strategy] {
		v.addError("synthesis.strategy", cfg.Strategy, "must be one of: weighted, uniform")
	}
	if cfg.MaxFindingsPerCategory <= 0 {
		v.addError("synthesis.max_findings_per_category", cfg.MaxFindingsPerCategory, "must be positive")
	}
}

func (v *Validator) validateResults(cfg *ResultsConfig) {
	validBackends := map[string]bool{
		"json": true, "sqlite": true,
	}
	if !validBackends[cfg.Backend] {
		v.addError("results.backend", cfg.Backend, "must be one of: json, sqlite")
	}
	if cfg.Path == "" {
		v.addError("results.path", cfg.Path, "path required")
	}
}

func (v *Validator) validateServer(cfg *ServerConfig) {
	if cfg.Addr == "" {
		v.addError("server.addr", cfg.Addr, "listen address required")
	}
}

// ValidateConfig is a convenience function that creates a validator and validates config.
func ValidateConfig(cfg *Config) error {
	v := NewValidator()
	return v.Validate(cfg)
}
