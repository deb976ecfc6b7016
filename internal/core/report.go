package core

import "time"

// CaveatKind classifies a data-completeness caveat on a report.
type CaveatKind string

const (
	CaveatSkipped         CaveatKind = "skipped"
	CaveatFailed          CaveatKind = "failed"
	CaveatLowQuality      CaveatKind = "low_quality"
	CaveatParseWarning    CaveatKind = "parse_warning"
	CaveatBudgetExhausted CaveatKind = "budget_exhausted"
)

// Caveat describes a known gap in the report's underlying data.
type Caveat struct {
	Kind    CaveatKind `json:"kind"`
	Stage   Stage      `json:"stage,omitempty"`
	Message string     `json:"message"`
}

// Finding is one deduplicated, category-grouped observation.
type Finding struct {
	Category string  `json:"category"`
	Text     string  `json:"text"`
	Weight   float64 `json:"weight"`
	Source   Stage   `json:"source,omitempty"`
}

// RunStats summarizes resource usage for one run.
type RunStats struct {
	Elapsed       time.Duration `json:"elapsed"`
	StagesRun     int           `json:"stages_run"`
	StagesSkipped int           `json:"stages_skipped"`
	StagesFailed  int           `json:"stages_failed"`
	Retries       int           `json:"retries"`
}

// SynthesizedReport is the consolidated output of a run. The fallback
// path produces the same shape with ProductionReady=false and a raw
// ledger excerpt attached.
type SynthesizedReport struct {
	WorkflowID      WorkflowID          `json:"workflow_id"`
	URL             string              `json:"url"`
	Tier            DepthTier           `json:"tier"`
	Summary         string              `json:"summary"`
	Findings        map[string][]Finding `json:"findings"`
	Confidence      float64             `json:"confidence"` // 0.0 .. 1.0
	ThreatScore     float64             `json:"threat_score"`
	Caveats         []Caveat            `json:"caveats,omitempty"`
	Stats           RunStats            `json:"stats"`
	ProductionReady bool                `json:"production_ready"`

	// FailureCategory and LedgerExcerpt are set only on the fallback path.
	FailureCategory ErrorCategory   `json:"failure_category,omitempty"`
	LedgerExcerpt   []LedgerExcerpt `json:"ledger_excerpt,omitempty"`

	GeneratedAt time.Time `json:"generated_at"`
}

// LedgerExcerpt is a bounded per-stage slice of the raw ledger used to
// keep fallback reports diagnosable.
type LedgerExcerpt struct {
	Stage   Stage       `json:"stage"`
	Status  StageStatus `json:"status"`
	Error   string      `json:"error,omitempty"`
	Preview string      `json:"preview,omitempty"`
}

// DeliveryOutcome describes where a finished report ended up.
type DeliveryOutcome struct {
	// Delivered is true when the session received the final report.
	Delivered bool `json:"delivered"`

	// OrphanID is set when the report was persisted for later pickup
	// instead of delivered.
	OrphanID WorkflowID `json:"orphan_id,omitempty"`
}

// OrphanedResult is a report that could not be delivered because the
// calling session ended. Persisted once, never mutated.
type OrphanedResult struct {
	WorkflowID WorkflowID        `json:"workflow_id"`
	Tenant     string            `json:"tenant"`
	Report     SynthesizedReport `json:"report"`
	Reason     string            `json:"reason"`
	PersistedAt time.Time        `json:"persisted_at"`
}
