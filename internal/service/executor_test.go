package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigilsec/argus/internal/config"
	"github.com/vigilsec/argus/internal/core"
	"github.com/vigilsec/argus/internal/testutil"
)

func TestExecuteStandardRunCompletes(t *testing.T) {
	cfg := config.Config{}
	req := newRequest(core.TierStandard)
	plan, set := buildRun(t, cfg, req, stageWorkers())

	ledger, state, err := fastExecutor(cfg).Execute(t.Context(), req, plan, set)
	require.NoError(t, err)

	assert.Equal(t, core.RunStateCompleted, state)
	assert.True(t, ledger.Finalized())

	results := ledger.Results()
	require.Len(t, results, 4)
	wantOrder := []core.Stage{
		core.StageAcquisition, core.StageTranscription,
		core.StageAnalysis, core.StageVerification,
	}
	for i, r := range results {
		assert.Equal(t, wantOrder[i], r.Stage)
		assert.Equal(t, core.StageStatusOK, r.Status)
		assert.GreaterOrEqual(t, r.Quality, 0.0)
		assert.LessOrEqual(t, r.Quality, 1.0)
	}

	// Downstream stages saw upstream output through the shared context.
	snap := set.Context.Snapshot()
	assert.Contains(t, snap.Transcript, "hello there")
	require.NotNil(t, snap.Media)
	assert.Equal(t, "Quarterly Brief", snap.Media.Title)
	assert.True(t, snap.Produced[core.StageAcquisition])
}

func TestExecuteMinimumViableFailureStopsRun(t *testing.T) {
	cfg := config.Config{Workflow: config.WorkflowConfig{TransientRetries: 1}}
	req := newRequest(core.TierStandard)

	workers := stageWorkers()
	for i, w := range workers {
		if w.Stage() == core.StageTranscription {
			workers[i] = testutil.NewMockWorker(core.StageTranscription).
				WithError(core.ErrTimeout("transcriber stalled"))
		}
	}
	plan, set := buildRun(t, cfg, req, workers)

	ledger, state, err := fastExecutor(cfg).Execute(t.Context(), req, plan, set)
	require.Error(t, err)

	assert.Equal(t, core.RunStateFailed, state)
	var domainErr *core.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, core.CodeMinimumViable, domainErr.Code)

	// The partial ledger survives for synthesis: acquisition succeeded,
	// transcription failed after both attempts, nothing downstream ran.
	assert.True(t, ledger.Finalized())
	results := ledger.Results()
	require.Len(t, results, 2)
	assert.Equal(t, core.StageStatusOK, results[0].Status)

	failed := results[1]
	assert.Equal(t, core.StageTranscription, failed.Stage)
	assert.Equal(t, core.StageStatusFailed, failed.Status)
	assert.Equal(t, 2, failed.Attempts)
	assert.Equal(t, core.ErrCatTransient, failed.ErrCategory)
}

func TestExecuteTransientErrorRetriedThenSucceeds(t *testing.T) {
	cfg := config.Config{Workflow: config.WorkflowConfig{TransientRetries: 1}}
	req := newRequest(core.TierStandard)

	calls := 0
	workers := stageWorkers()
	for i, w := range workers {
		if w.Stage() == core.StageAnalysis {
			workers[i] = testutil.NewMockWorker(core.StageAnalysis).
				WithInvoke(func(context.Context, core.ContextSnapshot, time.Time) (core.RawOutput, error) {
					calls++
					if calls == 1 {
						return core.RawOutput{}, core.ErrTransient(core.CodeNetworkFailure, "model briefly unreachable")
					}
					return core.RawOutput{Payload: map[string]interface{}{
						"keywords": []interface{}{"recovered"},
					}}, nil
				})
		}
	}
	plan, set := buildRun(t, cfg, req, workers)

	ledger, state, err := fastExecutor(cfg).Execute(t.Context(), req, plan, set)
	require.NoError(t, err)
	assert.Equal(t, core.RunStateCompleted, state)

	result, ok := ledger.Get(core.StageAnalysis)
	require.True(t, ok)
	assert.Equal(t, core.StageStatusOK, result.Status)
	assert.Equal(t, 2, result.Attempts)
}

func TestExecuteBudgetExhaustedSkipsOptionalStages(t *testing.T) {
	cfg := config.Config{}
	req := newRequest(core.TierStandard)
	plan, set := buildRun(t, cfg, req, stageWorkers())
	plan.Deadline = time.Now().Add(-time.Second)

	ledger, state, err := fastExecutor(cfg).Execute(t.Context(), req, plan, set)
	require.NoError(t, err)
	assert.Equal(t, core.RunStateCompleted, state)

	results := ledger.Results()
	require.Len(t, results, 4)
	for _, r := range results {
		if core.IsMinimumViable(r.Stage) {
			assert.Equal(t, core.StageStatusOK, r.Status, "stage %s", r.Stage)
		} else {
			assert.Equal(t, core.StageStatusSkipped, r.Status, "stage %s", r.Stage)
			assert.Equal(t, core.ErrCatBudget, r.ErrCategory)
		}
	}
}

func TestExecuteConcurrentStagesKeepCanonicalOrder(t *testing.T) {
	cfg := config.Config{}
	req := newRequest(core.TierExperimental)

	workers := stageWorkers()
	for i, w := range workers {
		// The first member of the independent pair finishes last; the
		// ledger order must not care.
		if w.Stage() == core.StageCrossPlatform {
			workers[i] = testutil.NewMockWorker(core.StageCrossPlatform).
				WithInvoke(func(context.Context, core.ContextSnapshot, time.Time) (core.RawOutput, error) {
					time.Sleep(40 * time.Millisecond)
					return core.RawOutput{Payload: map[string]interface{}{
						"signals": []interface{}{map[string]interface{}{"key": "slow", "severity": 0.3}},
					}}, nil
				})
		}
	}
	plan, set := buildRun(t, cfg, req, workers)

	ledger, state, err := fastExecutor(cfg).Execute(t.Context(), req, plan, set)
	require.NoError(t, err)
	assert.Equal(t, core.RunStateCompleted, state)

	results := ledger.Results()
	require.Len(t, results, 7)
	var order []core.Stage
	for _, r := range results {
		order = append(order, r.Stage)
	}
	assert.Equal(t, []core.Stage{
		core.StageAcquisition,
		core.StageTranscription,
		core.StageAnalysis,
		core.StageVerification,
		core.StageCrossPlatform,
		core.StageThreatScoring,
		core.StageKnowledgeIntegration,
	}, order)
}

func TestExecuteCancellationBetweenGroups(t *testing.T) {
	cfg := config.Config{}
	req := newRequest(core.TierStandard)

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	workers := stageWorkers()
	for i, w := range workers {
		if w.Stage() == core.StageAcquisition {
			workers[i] = testutil.NewMockWorker(core.StageAcquisition).
				WithInvoke(func(context.Context, core.ContextSnapshot, time.Time) (core.RawOutput, error) {
					cancel()
					return core.RawOutput{Payload: map[string]interface{}{
						"meta": map[string]interface{}{"title": "t"},
					}}, nil
				})
		}
	}
	plan, set := buildRun(t, cfg, req, workers)

	ledger, state, err := fastExecutor(cfg).Execute(ctx, req, plan, set)
	require.Error(t, err)
	assert.Equal(t, core.RunStateFailed, state)
	assert.Equal(t, core.ErrCatCancelled, core.GetCategory(err))

	// Whatever finished before the cancel is preserved.
	assert.True(t, ledger.Finalized())
	assert.Equal(t, 1, ledger.Len())
}

func TestExecuteOptionalStageFailureDoesNotStopRun(t *testing.T) {
	cfg := config.Config{}
	req := newRequest(core.TierStandard)

	workers := stageWorkers()
	for i, w := range workers {
		if w.Stage() == core.StageVerification {
			workers[i] = testutil.NewMockWorker(core.StageVerification).
				WithError(core.ErrValidation(core.CodeMalformedOutput, "unusable model output"))
		}
	}
	plan, set := buildRun(t, cfg, req, workers)

	ledger, state, err := fastExecutor(cfg).Execute(t.Context(), req, plan, set)
	require.NoError(t, err)
	assert.Equal(t, core.RunStateCompleted, state)

	failed, ok := ledger.Get(core.StageVerification)
	require.True(t, ok)
	assert.Equal(t, core.StageStatusFailed, failed.Status)
	assert.Equal(t, 1, failed.Attempts, "validation errors are not retried")
}
