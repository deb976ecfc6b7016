package core

import (
	"context"
	"time"
)

// Worker performs a stage's actual work. One implementation per stage
// type; the orchestrator selects workers from a registry keyed by Stage.
// Implementations read the shared context snapshot but must not retain
// it past the invocation.
type Worker interface {
	// Stage returns the stage this worker serves.
	Stage() Stage

	// Invoke runs the stage's work against the given context snapshot.
	// The deadline is plan-provided; in-flight calls should self-abort
	// when it passes.
	Invoke(ctx context.Context, snapshot ContextSnapshot, deadline time.Time) (RawOutput, error)
}

// ContextSnapshot is the read view of the shared context handed to
// workers. It carries the request metadata plus everything upstream
// stages have produced so far.
type ContextSnapshot struct {
	Request    WorkflowRequest
	Media      *MediaMeta
	Transcript string
	Timeline   []TimelineEntry
	Keywords   []string
	Sentiment  *Sentiment
	Themes     []string
	Claims     []Claim
	Fallacies  []Fallacy
	Threat     []Signal
	Deception  []Signal
	Cross      []Signal
	Knowledge  []string

	// Produced records which stages have already run, so consumers can
	// distinguish "not yet produced" from "produced empty".
	Produced map[Stage]bool

	// Extra is the escape hatch for experimental fields.
	Extra map[string]string
}

// CapabilityProbe reports the health of external capabilities.
type CapabilityProbe interface {
	IsHealthy(ctx context.Context, id CapabilityID) bool
}

// CapabilityFlags is a point-in-time snapshot of probe results.
type CapabilityFlags map[CapabilityID]bool

// Healthy reports whether a capability was healthy at snapshot time.
// Unknown capabilities count as unhealthy.
func (f CapabilityFlags) Healthy(id CapabilityID) bool {
	return f[id]
}

// PersistenceSink stores reports that outlive their calling session.
type PersistenceSink interface {
	Save(ctx context.Context, result OrphanedResult) (WorkflowID, error)
	Load(ctx context.Context, id WorkflowID) (*OrphanedResult, error)
	List(ctx context.Context, tenant string) ([]WorkflowID, error)
	Close() error
}

// ProgressUpdate is one best-effort status message to the session.
type ProgressUpdate struct {
	WorkflowID WorkflowID `json:"workflow_id"`
	Stage      Stage      `json:"stage"`
	Completed  int        `json:"completed"`
	Total      int        `json:"total"`
	Message    string     `json:"message,omitempty"`
}

// SessionChannel delivers progress and final results to a calling
// session. Both methods report unreachable sessions via error; progress
// failures never abort a workflow.
type SessionChannel interface {
	SendProgress(ctx context.Context, session SessionHandle, update ProgressUpdate) error
	SendFinal(ctx context.Context, session SessionHandle, report SynthesizedReport) error
}
