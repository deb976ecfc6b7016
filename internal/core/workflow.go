package core

import (
	"fmt"
	"time"
)

// WorkflowID uniquely identifies a workflow run.
type WorkflowID string

// RunState represents the executor state machine position.
type RunState string

const (
	RunStatePlanned   RunState = "planned"
	RunStateRunning   RunState = "running"
	RunStateDegraded  RunState = "degraded"
	RunStateCompleted RunState = "completed"
	RunStateFailed    RunState = "failed"
)

// IsTerminal reports whether the run state is terminal.
func (s RunState) IsTerminal() bool {
	return s == RunStateCompleted || s == RunStateFailed
}

// SessionHandle identifies the calling session a run reports back to.
type SessionHandle string

// WorkflowRequest is the immutable input for one run.
type WorkflowRequest struct {
	ID        WorkflowID    `json:"id"`
	URL       string        `json:"url"`
	Tier      DepthTier     `json:"tier"`
	Tenant    string        `json:"tenant"`
	Workspace string        `json:"workspace"`
	Session   SessionHandle `json:"session"`
	CreatedAt time.Time     `json:"created_at"`
}

// Validate checks request invariants.
func (r *WorkflowRequest) Validate() error {
	if r.ID == "" {
		return ErrValidation(CodeInvalidRequest, "workflow ID cannot be empty")
	}
	if r.URL == "" {
		return ErrValidation(CodeEmptyURL, "content URL cannot be empty")
	}
	if len(r.URL) > MaxURLLength {
		return ErrValidation(CodeURLTooLong,
			fmt.Sprintf("content URL exceeds maximum length of %d characters", MaxURLLength))
	}
	if !ValidTier(r.Tier) {
		return ErrValidation(CodeInvalidTier, fmt.Sprintf("unknown depth tier: %s", r.Tier))
	}
	if r.Tenant == "" {
		return ErrValidation(CodeTenantRequired, "tenant identifier cannot be empty")
	}
	return nil
}

// PlanWarning annotates a stage dropped or adjusted during planning.
type PlanWarning struct {
	Stage   Stage  `json:"stage"`
	Message string `json:"message"`
}

// WorkflowPlan is the ordered stage selection for one run.
// Derived once from a WorkflowRequest plus capability flags; never
// mutated after creation.
type WorkflowPlan struct {
	WorkflowID WorkflowID `json:"workflow_id"`
	Tier       DepthTier  `json:"tier"`

	// Groups holds the stages in execution order. Stages inside one
	// group are independent and may run concurrently; groups run
	// sequentially.
	Groups [][]Stage `json:"groups"`

	// StageBudget is the per-stage timeout.
	StageBudget map[Stage]time.Duration `json:"stage_budget"`

	// Deadline is the overall wall-clock deadline for the run.
	Deadline time.Time `json:"deadline"`

	// Estimate is the sum of historical median stage durations. Used
	// for progress scaling, not a guarantee.
	Estimate time.Duration `json:"estimate"`

	// Ownership maps each shared-context key to the only stage allowed
	// to write it. Assigned at plan creation.
	Ownership map[ContextKey]Stage `json:"ownership"`

	// Warnings lists stages dropped for unhealthy capabilities.
	Warnings []PlanWarning `json:"warnings,omitempty"`
}

// Stages flattens the plan groups in execution order.
func (p *WorkflowPlan) Stages() []Stage {
	var out []Stage
	for _, g := range p.Groups {
		out = append(out, g...)
	}
	return out
}

// Contains reports whether the plan includes a stage.
func (p *WorkflowPlan) Contains(s Stage) bool {
	for _, stage := range p.Stages() {
		if stage == s {
			return true
		}
	}
	return false
}

// StageStatus is the outcome classification of one stage execution.
type StageStatus string

const (
	StageStatusOK      StageStatus = "ok"
	StageStatusFailed  StageStatus = "failed"
	StageStatusSkipped StageStatus = "skipped"
)

// RawOutput is the loosely structured payload a worker returns.
// Workers emit free text, a semi-structured payload, or both.
type RawOutput struct {
	Text    string                 `json:"text,omitempty"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// Empty reports whether the worker produced nothing at all.
func (r RawOutput) Empty() bool {
	return r.Text == "" && len(r.Payload) == 0
}

// StageResult is the immutable outcome of one stage execution.
type StageResult struct {
	Stage       Stage           `json:"stage"`
	Status      StageStatus     `json:"status"`
	Raw         RawOutput       `json:"raw"`
	Fields      ExtractedFields `json:"fields"`
	Quality     float64         `json:"quality"`
	LowQuality  bool            `json:"low_quality"`
	Error       string          `json:"error,omitempty"`
	ErrCategory ErrorCategory   `json:"error_category,omitempty"`
	Attempts    int             `json:"attempts"`
	StartedAt   time.Time       `json:"started_at"`
	Duration    time.Duration   `json:"duration"`
}

// ResultLedger is the append-only, plan-ordered record of stage results.
// The synthesizer reads nothing else.
type ResultLedger struct {
	WorkflowID WorkflowID
	results    []StageResult
	finalized  bool
}

// NewResultLedger creates an empty ledger for a run.
func NewResultLedger(id WorkflowID) *ResultLedger {
	return &ResultLedger{WorkflowID: id}
}

// Append records a stage result. Fails once the ledger is finalized.
func (l *ResultLedger) Append(r StageResult) error {
	if l.finalized {
		return ErrState(CodeLedgerFinalized, "cannot append to a finalized ledger")
	}
	l.results = append(l.results, r)
	return nil
}

// Finalize marks the ledger read-only.
func (l *ResultLedger) Finalize() {
	l.finalized = true
}

// Finalized reports whether the ledger has been finalized.
func (l *ResultLedger) Finalized() bool {
	return l.finalized
}

// Results returns a copy of the recorded results in append order.
func (l *ResultLedger) Results() []StageResult {
	out := make([]StageResult, len(l.results))
	copy(out, l.results)
	return out
}

// Len returns the number of recorded results.
func (l *ResultLedger) Len() int {
	return len(l.results)
}

// ByStatus returns the results matching a status, in append order.
func (l *ResultLedger) ByStatus(status StageStatus) []StageResult {
	var out []StageResult
	for _, r := range l.results {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out
}

// Get returns the result for a stage, if recorded.
func (l *ResultLedger) Get(s Stage) (StageResult, bool) {
	for _, r := range l.results {
		if r.Stage == s {
			return r, true
		}
	}
	return StageResult{}, false
}
