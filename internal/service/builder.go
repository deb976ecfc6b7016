package service

import (
	"fmt"

	"github.com/vigilsec/argus/internal/core"
)

// WorkerRegistry holds the process-wide worker implementations, one
// per stage. Registration is checked: a duplicate stage is a
// programming error surfaced at startup, not a silent override.
type WorkerRegistry struct {
	workers map[core.Stage]core.Worker
}

// NewWorkerRegistry creates a registry from the given workers.
func NewWorkerRegistry(workers ...core.Worker) (*WorkerRegistry, error) {
	r := &WorkerRegistry{workers: make(map[core.Stage]core.Worker, len(workers))}
	for _, w := range workers {
		stage := w.Stage()
		if !core.ValidStage(stage) {
			return nil, core.ErrState(core.CodeUnknownStage,
				fmt.Sprintf("worker registered for unknown stage %q", stage))
		}
		if _, exists := r.workers[stage]; exists {
			return nil, core.ErrState(core.CodeDuplicateStage,
				fmt.Sprintf("duplicate worker for stage %s", stage))
		}
		r.workers[stage] = w
	}
	return r, nil
}

// Get returns the worker for a stage.
func (r *WorkerRegistry) Get(stage core.Stage) (core.Worker, bool) {
	w, ok := r.workers[stage]
	return w, ok
}

// RunSet is everything the executor needs for one run: the resolved
// worker per planned stage and the initial shared context.
type RunSet struct {
	Workers map[core.Stage]core.Worker
	Context *SharedContext
}

// Builder resolves the worker set for a plan once per run.
type Builder struct {
	registry *WorkerRegistry
}

// NewBuilder creates a builder over a worker registry.
func NewBuilder(registry *WorkerRegistry) *Builder {
	return &Builder{registry: registry}
}

// Build resolves workers for every planned stage and seeds the shared
// context. A missing worker for a minimum-viable stage is a
// precondition failure; for an optional stage it is a configuration
// error, since the plan already filtered unhealthy capabilities.
func (b *Builder) Build(req core.WorkflowRequest, plan *core.WorkflowPlan) (*RunSet, error) {
	workers := make(map[core.Stage]core.Worker)
	for _, stage := range plan.Stages() {
		w, ok := b.registry.Get(stage)
		if !ok {
			if core.IsMinimumViable(stage) {
				return nil, core.ErrPrecondition(core.CodeWorkerUnavailable,
					fmt.Sprintf("no worker registered for minimum viable stage %s", stage))
			}
			return nil, core.ErrState(core.CodeWorkerUnavailable,
				fmt.Sprintf("plan selects stage %s but no worker is registered", stage))
		}
		workers[stage] = w
	}

	return &RunSet{
		Workers: workers,
		Context: NewSharedContext(req, plan),
	}, nil
}
