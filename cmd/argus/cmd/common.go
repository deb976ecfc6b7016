package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/vigilsec/argus/internal/adapters/results"
	"github.com/vigilsec/argus/internal/adapters/workers"
	"github.com/vigilsec/argus/internal/analytics"
	"github.com/vigilsec/argus/internal/config"
	"github.com/vigilsec/argus/internal/core"
	"github.com/vigilsec/argus/internal/delivery"
	"github.com/vigilsec/argus/internal/logging"
	"github.com/vigilsec/argus/internal/service"
	"github.com/vigilsec/argus/internal/synthesis"
	"github.com/vigilsec/argus/internal/validate"
)

// loadConfig loads and validates configuration with CLI flag bindings
// applied, returning the loader for config-file introspection.
func loadConfig() (*config.Config, *config.Loader, error) {
	loader := config.NewLoaderWithViper(viper.GetViper())
	if cfgFile != "" {
		loader.WithConfigFile(cfgFile)
	}

	cfg, err := loader.Load()
	if err != nil {
		return nil, nil, err
	}
	if err := config.NewValidator().Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, loader, nil
}

// newLogger builds the process logger from config and flags.
func newLogger(cfg *config.Config) *logging.Logger {
	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	format := cfg.Log.Format
	if logFormat != "" {
		format = logFormat
	}
	return logging.New(logging.Config{
		Level:  level,
		Format: format,
		Output: os.Stderr,
	})
}

// buildValidator assembles the capability validator over the worker
// probe and host resource measurements.
func buildValidator(cfg *config.Config, log *logging.Logger) *validate.Validator {
	probe := workers.NewProbe(cfg.Workers)
	return validate.New(probe, &validate.HostChecker{}, log)
}

// buildOrchestrator wires the full pipeline around a session channel.
// The caller owns the returned sink and must close it.
func buildOrchestrator(
	cfg *config.Config,
	channel core.SessionChannel,
	registry *service.RunRegistry,
	log *logging.Logger,
) (*service.Orchestrator, core.PersistenceSink, error) {
	sink, err := results.NewStore(cfg.Results)
	if err != nil {
		return nil, nil, fmt.Errorf("opening results store: %w", err)
	}

	set := workers.BuildSet(cfg.Workers, log)
	workerList := make([]core.Worker, 0, len(set))
	for _, w := range set {
		workerList = append(workerList, w)
	}
	workerRegistry, err := service.NewWorkerRegistry(workerList...)
	if err != nil {
		_ = sink.Close()
		return nil, nil, err
	}

	synth := synthesis.New(
		synthesis.Config{
			Strategy:               cfg.Synthesis.Strategy,
			MaxFindingsPerCategory: cfg.Synthesis.MaxFindingsPerCategory,
		},
		analytics.NewCalculator(cfg.Analytics.CriticalityWeights),
		log,
	)

	orch := service.NewOrchestrator(
		buildValidator(cfg, log),
		service.NewPlanner(*cfg, log),
		service.NewBuilder(workerRegistry),
		service.NewExecutor(*cfg, service.NewProgressReporter(channel, log), log),
		synth,
		delivery.New(channel, sink, log),
		registry,
		log,
	)
	return orch, sink, nil
}
