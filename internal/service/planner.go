package service

import (
	"fmt"
	"time"

	"github.com/vigilsec/argus/internal/config"
	"github.com/vigilsec/argus/internal/core"
	"github.com/vigilsec/argus/internal/logging"
)

// Planner derives an immutable WorkflowPlan from a request and the
// current capability flags.
type Planner struct {
	cfg config.Config
	log *logging.Logger
	now func() time.Time
}

// NewPlanner creates a planner.
func NewPlanner(cfg config.Config, log *logging.Logger) *Planner {
	if log == nil {
		log = logging.NewNop()
	}
	return &Planner{cfg: cfg, log: log, now: time.Now}
}

// Plan selects the stages for a run: the requested tier's stage set
// intersected with stages whose required capabilities are healthy.
// Dropped optional stages become warnings; a dropped minimum-viable
// stage fails planning with a precondition error.
func (p *Planner) Plan(req core.WorkflowRequest, flags core.CapabilityFlags) (*core.WorkflowPlan, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	tierStages := p.cfg.Workflow.TierStages(req.Tier)
	if len(tierStages) == 0 {
		return nil, core.ErrState(core.CodeInvalidPlan,
			fmt.Sprintf("tier %s maps to no stages", req.Tier))
	}

	var (
		selected []core.Stage
		warnings []core.PlanWarning
	)
	for _, stage := range tierStages {
		if down := unhealthyCapability(stage, flags); down != "" {
			if core.IsMinimumViable(stage) {
				return nil, core.ErrPrecondition(core.CodeMissingCapability,
					fmt.Sprintf("stage %s requires unavailable capability %s", stage, down))
			}
			warnings = append(warnings, core.PlanWarning{
				Stage:   stage,
				Message: fmt.Sprintf("dropped: capability %s unhealthy", down),
			})
			p.log.WithWorkflow(string(req.ID)).Warn("stage dropped from plan",
				"stage", stage.String(), "capability", string(down))
			continue
		}
		selected = append(selected, stage)
	}

	var estimate time.Duration
	budget := make(map[core.Stage]time.Duration, len(selected))
	ownership := make(map[core.ContextKey]core.Stage)
	for _, stage := range selected {
		budget[stage] = p.cfg.Workflow.StageTimeout(stage)
		estimate += p.cfg.Workflow.StageMedian(stage)
		for _, key := range core.StageWrites(stage) {
			ownership[key] = stage
		}
	}

	return &core.WorkflowPlan{
		WorkflowID:  req.ID,
		Tier:        req.Tier,
		Groups:      groupStages(selected),
		StageBudget: budget,
		Deadline:    p.now().Add(p.cfg.Workflow.TierBudget(req.Tier)),
		Estimate:    estimate,
		Ownership:   ownership,
		Warnings:    warnings,
	}, nil
}

func unhealthyCapability(stage core.Stage, flags core.CapabilityFlags) core.CapabilityID {
	for _, cap := range core.StageCapabilities(stage) {
		if !flags.Healthy(cap) {
			return cap
		}
	}
	return ""
}

// independentStages are the stages that read only upstream context and
// not each other's output, so they may execute concurrently when both
// are selected.
var independentStages = map[core.Stage]bool{
	core.StageCrossPlatform:  true,
	core.StageThreatScoring:  true,
}

// groupStages packs the selected stages into sequential groups. Each
// group holds one stage, except the independent set which shares a
// group; within a group the canonical stage order fixes merge order.
func groupStages(stages []core.Stage) [][]core.Stage {
	var (
		groups      [][]core.Stage
		independent []core.Stage
	)
	for _, stage := range stages {
		if independentStages[stage] {
			independent = append(independent, stage)
			continue
		}
		// The independent group runs where its first member appeared.
		if len(independent) > 0 {
			groups = append(groups, independent)
			independent = nil
		}
		groups = append(groups, []core.Stage{stage})
	}
	if len(independent) > 0 {
		groups = append(groups, independent)
	}
	return groups
}
