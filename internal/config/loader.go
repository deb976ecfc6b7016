package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader handles configuration loading from multiple sources.
type Loader struct {
	v          *viper.Viper
	configFile string
	envPrefix  string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		v:         viper.New(),
		envPrefix: "ARGUS",
	}
}

// NewLoaderWithViper creates a loader using an existing viper instance.
// This allows integration with CLI flag bindings.
func NewLoaderWithViper(v *viper.Viper) *Loader {
	return &Loader{
		v:         v,
		envPrefix: "ARGUS",
	}
}

// WithConfigFile sets an explicit config file path.
func (l *Loader) WithConfigFile(path string) *Loader {
	l.configFile = path
	return l
}

// WithEnvPrefix sets the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// Viper returns the underlying viper instance for flag binding.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// Load loads configuration from all sources.
// Precedence (highest to lowest):
// 1. CLI flags (set via viper.BindPFlag)
// 2. Environment variables (ARGUS_*)
// 3. Project config (.argus.yaml in current directory)
// 4. User config (~/.config/argus/config.yaml)
// 5. Defaults
func (l *Loader) Load() (*Config, error) {
	l.setDefaults()

	l.v.SetEnvPrefix(l.envPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
	} else {
		l.v.SetConfigName(".argus")
		l.v.SetConfigType("yaml")

		// Project config takes precedence over user config
		l.v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			l.v.AddConfigPath(filepath.Join(home, ".config", "argus"))
		}
	}

	// Read config file (ignore not found)
	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values.
func (l *Loader) setDefaults() {
	// Log defaults
	l.v.SetDefault("log.level", "info")
	l.v.SetDefault("log.format", "auto")

	// Workflow defaults. Tiers nest: each deeper tier is a strict
	// superset of the previous one.
	l.v.SetDefault("workflow.tiers.standard", []string{
		"acquisition", "transcription", "analysis", "verification",
	})
	l.v.SetDefault("workflow.tiers.deep", []string{
		"acquisition", "transcription", "analysis", "verification",
		"threat_scoring",
	})
	l.v.SetDefault("workflow.tiers.comprehensive", []string{
		"acquisition", "transcription", "analysis", "verification",
		"threat_scoring", "knowledge_integration",
	})
	l.v.SetDefault("workflow.tiers.experimental", []string{
		"acquisition", "transcription", "analysis", "verification",
		"cross_platform", "threat_scoring", "knowledge_integration",
	})
	l.v.SetDefault("workflow.tier_budgets.standard", "10m")
	l.v.SetDefault("workflow.tier_budgets.deep", "20m")
	l.v.SetDefault("workflow.tier_budgets.comprehensive", "30m")
	l.v.SetDefault("workflow.tier_budgets.experimental", "45m")
	l.v.SetDefault("workflow.stage_timeouts.acquisition", "3m")
	l.v.SetDefault("workflow.stage_timeouts.transcription", "5m")
	l.v.SetDefault("workflow.stage_timeouts.analysis", "4m")
	l.v.SetDefault("workflow.stage_timeouts.verification", "3m")
	l.v.SetDefault("workflow.stage_timeouts.cross_platform", "3m")
	l.v.SetDefault("workflow.stage_timeouts.threat_scoring", "2m")
	l.v.SetDefault("workflow.stage_timeouts.knowledge_integration", "2m")
	l.v.SetDefault("workflow.stage_medians.acquisition", "45s")
	l.v.SetDefault("workflow.stage_medians.transcription", "2m")
	l.v.SetDefault("workflow.stage_medians.analysis", "90s")
	l.v.SetDefault("workflow.stage_medians.verification", "60s")
	l.v.SetDefault("workflow.stage_medians.cross_platform", "50s")
	l.v.SetDefault("workflow.stage_medians.threat_scoring", "30s")
	l.v.SetDefault("workflow.stage_medians.knowledge_integration", "40s")
	l.v.SetDefault("workflow.transient_retries", 1)

	// Quality defaults
	l.v.SetDefault("quality.min_length", 80)
	l.v.SetDefault("quality.placeholder_phrases", []string{
		"lorem ipsum",
		"placeholder",
		"not available",
		"to be determined",
		"unable to process",
	})
	l.v.SetDefault("quality.low_quality_threshold", 0.5)

	// Analytics defaults: criticality weight per stage for the
	// composite confidence score.
	l.v.SetDefault("analytics.criticality_weights.acquisition", 1.0)
	l.v.SetDefault("analytics.criticality_weights.transcription", 1.0)
	l.v.SetDefault("analytics.criticality_weights.analysis", 0.8)
	l.v.SetDefault("analytics.criticality_weights.verification", 0.9)
	l.v.SetDefault("analytics.criticality_weights.cross_platform", 0.4)
	l.v.SetDefault("analytics.criticality_weights.threat_scoring", 0.7)
	l.v.SetDefault("analytics.criticality_weights.knowledge_integration", 0.5)

	// Synthesis defaults
	l.v.SetDefault("synthesis.strategy", "weighted")
	l.v.SetDefault("synthesis.max_findings_per_category", 12)

	// Results defaults
	l.v.SetDefault("results.backend", "sqlite")
	l.v.SetDefault("results.path", ".argus/results")

	// Server defaults
	l.v.SetDefault("server.addr", ":8787")
	l.v.SetDefault("server.cors_origins", []string{"*"})
}

// ConfigFile returns the config file path if one was used.
func (l *Loader) ConfigFile() string {
	return l.v.ConfigFileUsed()
}

// Get returns a configuration value by key.
func (l *Loader) Get(key string) interface{} {
	return l.v.Get(key)
}

// Set sets a configuration value.
func (l *Loader) Set(key string, value interface{}) {
	l.v.Set(key, value)
}

// IsSet checks if a key has been set.
func (l *Loader) IsSet(key string) bool {
	return l.v.IsSet(key)
}

// AllSettings returns all settings as a map.
func (l *Loader) AllSettings() map[string]interface{} {
	return l.v.AllSettings()
}
