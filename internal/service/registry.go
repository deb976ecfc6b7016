package service

import (
	"sort"
	"sync"
	"time"

	"github.com/vigilsec/argus/internal/core"
)

// RunRecord is a point-in-time view of one workflow run. Records are
// copied out of the registry; mutating one never affects the registry.
type RunRecord struct {
	ID          core.WorkflowID   `json:"id"`
	Tenant      string            `json:"tenant"`
	Tier        core.DepthTier    `json:"tier"`
	URL         string            `json:"url"`
	State       core.RunState     `json:"state"`
	StartedAt   time.Time         `json:"started_at"`
	CompletedAt time.Time         `json:"completed_at,omitempty"`
	Summary     string            `json:"summary,omitempty"`
	Error       string            `json:"error,omitempty"`
	Delivery    core.DeliveryOutcome `json:"delivery"`
}

// RunRegistry tracks active and recently finished runs in memory.
// Concurrent runs stay fully isolated; the registry only ever sees
// per-run records.
type RunRegistry struct {
	mu   sync.RWMutex
	runs map[core.WorkflowID]RunRecord
	now  func() time.Time
}

// NewRunRegistry creates an empty registry.
func NewRunRegistry() *RunRegistry {
	return &RunRegistry{
		runs: make(map[core.WorkflowID]RunRecord),
		now:  time.Now,
	}
}

// Begin registers a new run. A workflow ID can only be active once;
// re-running a finished ID replaces its record.
func (r *RunRegistry) Begin(req core.WorkflowRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.runs[req.ID]; ok && !existing.State.IsTerminal() {
		return core.ErrState(core.CodeDuplicateWorkflow,
			"workflow "+string(req.ID)+" is already running")
	}
	r.runs[req.ID] = RunRecord{
		ID:        req.ID,
		Tenant:    req.Tenant,
		Tier:      req.Tier,
		URL:       req.URL,
		State:     core.RunStatePlanned,
		StartedAt: r.now().UTC(),
	}
	return nil
}

// SetState moves a run to a new state. Unknown IDs are ignored.
func (r *RunRegistry) SetState(id core.WorkflowID, state core.RunState) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.runs[id]
	if !ok {
		return
	}
	record.State = state
	r.runs[id] = record
}

// Complete records a run's terminal outcome.
func (r *RunRegistry) Complete(id core.WorkflowID, state core.RunState, summary string, runErr error, outcome core.DeliveryOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.runs[id]
	if !ok {
		return
	}
	record.State = state
	record.CompletedAt = r.now().UTC()
	record.Summary = summary
	record.Delivery = outcome
	if runErr != nil {
		record.Error = runErr.Error()
	}
	r.runs[id] = record
}

// Get returns the record for a run.
func (r *RunRegistry) Get(id core.WorkflowID) (RunRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.runs[id]
	return record, ok
}

// List returns all records, newest first.
func (r *RunRegistry) List() []RunRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]RunRecord, 0, len(r.runs))
	for _, record := range r.runs {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].StartedAt.After(records[j].StartedAt)
	})
	return records
}
