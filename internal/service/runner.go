package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vigilsec/argus/internal/core"
	"github.com/vigilsec/argus/internal/logging"
)

// CapabilityValidator gates runs on external capability health.
type CapabilityValidator interface {
	Snapshot(ctx context.Context) core.CapabilityFlags
	CheckMinimumViable(flags core.CapabilityFlags) error
}

// ReportSynthesizer turns a ledger into the consolidated report. It
// never returns an error; internal failures surface as a fallback
// report.
type ReportSynthesizer interface {
	Synthesize(req core.WorkflowRequest, ledger *core.ResultLedger, elapsed time.Duration) core.SynthesizedReport
}

// ReportDeliverer pushes the final report back to the caller, falling
// back to persistence when the session is gone.
type ReportDeliverer interface {
	Deliver(ctx context.Context, req core.WorkflowRequest, report core.SynthesizedReport) (core.DeliveryOutcome, error)
}

// RunOutcome is everything the caller gets back from a run. Report is
// always populated once the request passes validation and planning.
type RunOutcome struct {
	Report   core.SynthesizedReport
	State    core.RunState
	Delivery core.DeliveryOutcome
}

// Orchestrator drives a workflow end to end: capability validation,
// planning, worker binding, stage execution, synthesis and delivery.
type Orchestrator struct {
	validator CapabilityValidator
	planner   *Planner
	builder   *Builder
	executor  *Executor
	synth     ReportSynthesizer
	deliverer ReportDeliverer
	registry  *RunRegistry
	log       *logging.Logger
	now       func() time.Time
	newID     func() string
}

// NewOrchestrator wires the pipeline together. registry may be nil; a
// private one is created.
func NewOrchestrator(
	validator CapabilityValidator,
	planner *Planner,
	builder *Builder,
	executor *Executor,
	synth ReportSynthesizer,
	deliverer ReportDeliverer,
	registry *RunRegistry,
	log *logging.Logger,
) *Orchestrator {
	if registry == nil {
		registry = NewRunRegistry()
	}
	if log == nil {
		log = logging.NewNop()
	}
	return &Orchestrator{
		validator: validator,
		planner:   planner,
		builder:   builder,
		executor:  executor,
		synth:     synth,
		deliverer: deliverer,
		registry:  registry,
		log:       log,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Registry exposes the run registry for status queries.
func (o *Orchestrator) Registry() *RunRegistry { return o.registry }

// Run executes one workflow request. Requests that fail validation,
// capability checks or planning return an error and no outcome. Once a
// plan is accepted the caller always gets an outcome holding a report
// (or fallback report) and where it was delivered; the error then only
// signals that the run ended in a failed state.
func (o *Orchestrator) Run(ctx context.Context, req core.WorkflowRequest) (*RunOutcome, error) {
	if req.ID == "" {
		req.ID = core.WorkflowID(o.newID())
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	log := o.log.WithWorkflow(string(req.ID)).WithTenant(req.Tenant)
	log.Info("workflow accepted", "url", log.Sanitize(req.URL), "tier", string(req.Tier))

	flags := o.validator.Snapshot(ctx)
	if err := o.validator.CheckMinimumViable(flags); err != nil {
		log.Warn("rejecting run, minimum viable capabilities unavailable", "error", err)
		return nil, err
	}

	plan, err := o.planner.Plan(req, flags)
	if err != nil {
		return nil, err
	}
	set, err := o.builder.Build(req, plan)
	if err != nil {
		return nil, err
	}

	if err := o.registry.Begin(req); err != nil {
		return nil, err
	}

	started := o.now()
	o.registry.SetState(req.ID, core.RunStateRunning)

	ledger, state, execErr := o.executor.Execute(ctx, req, plan, set)
	elapsed := o.now().Sub(started)

	report := o.synth.Synthesize(req, ledger, elapsed)
	if state == core.RunStateFailed && report.ProductionReady {
		// A failed run never ships as production-ready, even when the
		// partial ledger synthesized cleanly.
		report.ProductionReady = false
		report.FailureCategory = core.GetCategory(execErr)
	}

	// Delivery and bookkeeping still run when the workflow context was
	// cancelled; the result must outlive the caller.
	deliveryCtx := context.WithoutCancel(ctx)
	outcome, deliverErr := o.deliverer.Deliver(deliveryCtx, req, report)
	if deliverErr != nil {
		log.Error("report undeliverable and not persisted", "error", deliverErr)
	}

	o.registry.Complete(req.ID, state, report.Summary, execErr, outcome)
	log.Info("workflow finished",
		"state", string(state),
		"elapsed", elapsed.String(),
		"delivered", outcome.Delivered,
	)

	result := &RunOutcome{Report: report, State: state, Delivery: outcome}
	if execErr != nil {
		return result, execErr
	}
	return result, deliverErr
}
