package workers

import (
	"context"
	"os/exec"

	"github.com/vigilsec/argus/internal/config"
	"github.com/vigilsec/argus/internal/core"
	"github.com/vigilsec/argus/internal/logging"
)

// BuildSet assembles one worker per stage from config. Stages with a
// configured command get an ExecWorker, the rest run simulated.
func BuildSet(cfg config.WorkersConfig, log *logging.Logger) map[core.Stage]core.Worker {
	set := make(map[core.Stage]core.Worker, len(core.AllStages()))
	for _, stage := range core.AllStages() {
		if wc, ok := cfg.Commands[string(stage)]; ok && wc.Command != "" {
			set[stage] = NewExecWorker(stage, wc.Command, wc.Args, log)
			continue
		}
		set[stage] = NewSimulatedWorker(stage)
	}
	return set
}

// Probe reports capability health from the worker configuration: a
// capability backed by an external command is healthy when the command
// resolves on PATH, simulated capabilities are always healthy.
type Probe struct {
	commands map[core.CapabilityID]string
	lookPath func(string) (string, error)
}

// NewProbe creates a probe over the configured worker commands.
func NewProbe(cfg config.WorkersConfig) *Probe {
	commands := make(map[core.CapabilityID]string)
	for _, stage := range core.AllStages() {
		wc, ok := cfg.Commands[string(stage)]
		if !ok || wc.Command == "" {
			continue
		}
		for _, capability := range core.StageCapabilities(stage) {
			commands[capability] = wc.Command
		}
	}
	return &Probe{commands: commands, lookPath: exec.LookPath}
}

// IsHealthy reports whether the capability's backing command resolves.
func (p *Probe) IsHealthy(_ context.Context, id core.CapabilityID) bool {
	command, ok := p.commands[id]
	if !ok {
		return true
	}
	_, err := p.lookPath(command)
	return err == nil
}

var (
	_ core.Worker          = (*ExecWorker)(nil)
	_ core.Worker          = (*SimulatedWorker)(nil)
	_ core.CapabilityProbe = (*Probe)(nil)
)
