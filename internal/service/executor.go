package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vigilsec/argus/internal/config"
	"github.com/vigilsec/argus/internal/core"
	"github.com/vigilsec/argus/internal/extract"
	"github.com/vigilsec/argus/internal/logging"
	"github.com/vigilsec/argus/internal/quality"
)

// Executor runs a planned workflow: sequencing, per-stage timeout and
// retry, error classification and budget enforcement. One executor
// instance drives one run; the shared context never crosses runs.
type Executor struct {
	assessor *quality.Assessor
	policy   func() *RetryPolicy
	progress *ProgressReporter
	log      *logging.Logger
	now      func() time.Time
}

// NewExecutor creates an executor. A nil progress reporter disables
// progress updates.
func NewExecutor(cfg config.Config, progress *ProgressReporter, log *logging.Logger) *Executor {
	if log == nil {
		log = logging.NewNop()
	}
	if progress == nil {
		progress = NopProgressReporter()
	}
	return &Executor{
		assessor: quality.NewAssessor(quality.Config{
			MinLength:           cfg.Quality.MinLength,
			PlaceholderPhrases:  cfg.Quality.PlaceholderPhrases,
			LowQualityThreshold: cfg.Quality.LowQualityThreshold,
		}),
		policy: func() *RetryPolicy {
			return StageRetryPolicy(cfg.Workflow.TransientRetries)
		},
		progress: progress,
		log:      log,
		now:      time.Now,
	}
}

// Execute drives the run to a terminal state and returns the finalized
// ledger. The error is non-nil only for cancellation or a failed
// minimum-viable stage; in both cases the partial ledger is still
// returned so the caller can synthesize and persist what exists.
func (e *Executor) Execute(ctx context.Context, req core.WorkflowRequest, plan *core.WorkflowPlan, set *RunSet) (*core.ResultLedger, core.RunState, error) {
	log := e.log.WithWorkflow(string(req.ID))
	ledger := core.NewResultLedger(req.ID)
	defer ledger.Finalize()

	state := core.RunStateRunning
	total := len(plan.Stages())
	completed := 0
	log.Info("run started", "tier", req.Tier.String(), "stages", total,
		"deadline", plan.Deadline.Format(time.RFC3339))

	for _, group := range plan.Groups {
		if err := ctx.Err(); err != nil {
			log.Warn("run cancelled", "completed", completed, "total", total)
			return ledger, core.RunStateFailed, core.ErrCancelled("run cancelled between stages").WithCause(err)
		}

		// Budget check: past the overall deadline, optional stages are
		// skipped; minimum-viable stages still run.
		if e.now().After(plan.Deadline) && state != core.RunStateDegraded {
			state = core.RunStateDegraded
			log.Warn("budget exhausted, skipping remaining optional stages")
		}

		results := e.runGroup(ctx, group, plan, set, state, log)

		// Results and context merges land in canonical stage order
		// regardless of completion order.
		for _, result := range results {
			if result.Status == core.StageStatusOK {
				if err := set.Context.Merge(result.Stage, result.Fields); err != nil {
					log.Error("context merge rejected", "stage", result.Stage.String(), "error", err)
					result.Status = core.StageStatusFailed
					result.Error = err.Error()
					result.ErrCategory = core.GetCategory(err)
				}
			}
			if err := ledger.Append(result); err != nil {
				log.Error("ledger append failed", "stage", result.Stage.String(), "error", err)
			}
			completed++
			e.progress.Report(ctx, req, core.ProgressUpdate{
				WorkflowID: req.ID,
				Stage:      result.Stage,
				Completed:  completed,
				Total:      total,
				Message:    fmt.Sprintf("stage %s %s", result.Stage, result.Status),
			})
		}

		if failed := firstMinimumViableFailure(results); failed != nil {
			log.Error("minimum viable stage failed, stopping run",
				"stage", failed.Stage.String(), "error", failed.Error)
			return ledger, core.RunStateFailed, core.ErrState(core.CodeMinimumViable,
				fmt.Sprintf("minimum viable stage %s failed: %s", failed.Stage, failed.Error))
		}
	}

	log.Info("run finished", "state", string(core.RunStateCompleted),
		"stages_recorded", ledger.Len())
	return ledger, core.RunStateCompleted, nil
}

// runGroup executes one plan group. A single-stage group runs inline;
// independent stages run concurrently. The returned slice follows the
// group's stage order.
func (e *Executor) runGroup(ctx context.Context, group []core.Stage, plan *core.WorkflowPlan, set *RunSet, state core.RunState, log *logging.Logger) []core.StageResult {
	results := make([]core.StageResult, len(group))

	if len(group) == 1 {
		results[0] = e.runStage(ctx, group[0], plan, set, state, log)
		return results
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, stage := range group {
		g.Go(func() error {
			results[i] = e.runStage(gctx, stage, plan, set, state, log)
			return nil
		})
	}
	// Stage failures are recorded in results, never returned.
	_ = g.Wait()
	return results
}

// runStage invokes one worker with timeout and retry and assembles the
// StageResult.
func (e *Executor) runStage(ctx context.Context, stage core.Stage, plan *core.WorkflowPlan, set *RunSet, state core.RunState, log *logging.Logger) core.StageResult {
	started := e.now()

	if state == core.RunStateDegraded && !core.IsMinimumViable(stage) {
		return core.StageResult{
			Stage:       stage,
			Status:      core.StageStatusSkipped,
			Error:       "skipped: run budget exhausted",
			ErrCategory: core.ErrCatBudget,
			StartedAt:   started,
		}
	}

	worker := set.Workers[stage]
	deadline := started.Add(plan.StageBudget[stage])
	// Minimum-viable stages keep their stage budget even past the run
	// deadline; clamping would instantly time them out.
	if deadline.After(plan.Deadline) && !(state == core.RunStateDegraded && core.IsMinimumViable(stage)) {
		deadline = plan.Deadline
	}

	slog := log.WithStage(stage.String())
	slog.Info("stage started", "deadline", deadline.Format(time.RFC3339))

	var (
		raw      core.RawOutput
		attempts int
	)
	policy := e.policy()
	err := policy.ExecuteWithNotify(ctx,
		func(ctx context.Context) error {
			attempts++
			stageCtx, cancel := context.WithDeadline(ctx, deadline)
			defer cancel()

			out, invokeErr := worker.Invoke(stageCtx, set.Context.Snapshot(), deadline)
			if invokeErr != nil {
				return classify(invokeErr, stage)
			}
			raw = out
			return nil
		},
		func(attempt int, err error, delay time.Duration) {
			slog.Warn("stage attempt failed, retrying",
				"attempt", attempt, "delay", delay.String(), "error", err)
		})

	elapsed := e.now().Sub(started)
	if err != nil {
		slog.Error("stage failed", "attempts", attempts, "error", err)
		return core.StageResult{
			Stage:       stage,
			Status:      core.StageStatusFailed,
			Error:       err.Error(),
			ErrCategory: core.GetCategory(err),
			Attempts:    attempts,
			StartedAt:   started,
			Duration:    elapsed,
		}
	}

	fields := extract.Extract(stage, raw)
	score, low := e.assessor.Assess(raw, fields)
	slog.Info("stage completed", "attempts", attempts,
		"quality", fmt.Sprintf("%.2f", score), "low_quality", low,
		"duration", elapsed.String())

	return core.StageResult{
		Stage:      stage,
		Status:     core.StageStatusOK,
		Raw:        raw,
		Fields:     fields,
		Quality:    score,
		LowQuality: low,
		Attempts:   attempts,
		StartedAt:  started,
		Duration:   elapsed,
	}
}

// classify maps raw worker errors onto the domain taxonomy so the
// retry policy can act on them. Deadline overruns become retryable
// timeouts; unclassified errors are treated as internal and never
// retried.
func classify(err error, stage core.Stage) error {
	var domainErr *core.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return core.ErrTimeout(fmt.Sprintf("stage %s exceeded its budget", stage)).WithCause(err)
	}
	if errors.Is(err, context.Canceled) {
		return core.ErrCancelled(fmt.Sprintf("stage %s cancelled", stage)).WithCause(err)
	}
	return core.ErrState(core.CodeMalformedOutput,
		fmt.Sprintf("stage %s worker error: %v", stage, err)).WithCause(err)
}

func firstMinimumViableFailure(results []core.StageResult) *core.StageResult {
	for i := range results {
		r := &results[i]
		if r.Status == core.StageStatusFailed && core.IsMinimumViable(r.Stage) {
			return r
		}
	}
	return nil
}
