package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vigilsec/argus/internal/config"
	"github.com/vigilsec/argus/internal/core"
	"github.com/vigilsec/argus/internal/testutil"
)

func healthyFlags() core.CapabilityFlags {
	return core.CapabilityFlags{
		core.CapabilityDownloader: true,
		core.CapabilityTranscribe: true,
		core.CapabilityModel:      true,
		core.CapabilityDelivery:   true,
		core.CapabilityKnowledge:  true,
	}
}

func newRequest(tier core.DepthTier) core.WorkflowRequest {
	return core.WorkflowRequest{
		ID:      "wf-test",
		URL:     "https://example.com/watch?v=abc",
		Tier:    tier,
		Tenant:  "acme",
		Session: "session-1",
	}
}

// stageWorkers returns one well-behaved worker per stage, each emitting
// output its stage's extractor understands.
func stageWorkers() []core.Worker {
	return []core.Worker{
		testutil.NewMockWorker(core.StageAcquisition).WithOutput(core.RawOutput{
			Payload: map[string]interface{}{
				"meta": map[string]interface{}{
					"title":    "Quarterly Brief",
					"platform": "videotube",
				},
			},
		}),
		testutil.NewMockWorker(core.StageTranscription).WithOutput(core.RawOutput{
			Text: "[00:05] hello there\n[00:12] general remarks",
		}),
		testutil.NewMockWorker(core.StageAnalysis).WithOutput(core.RawOutput{
			Payload: map[string]interface{}{
				"keywords":  []interface{}{"briefing", "remarks"},
				"themes":    []interface{}{"governance"},
				"sentiment": -0.4,
			},
		}),
		testutil.NewMockWorker(core.StageVerification).WithOutput(core.RawOutput{
			Payload: map[string]interface{}{
				"claims": []interface{}{
					map[string]interface{}{
						"text": "the board met twice", "verdict": "verified", "confidence": 0.9,
					},
				},
			},
		}),
		testutil.NewMockWorker(core.StageCrossPlatform).WithOutput(core.RawOutput{
			Payload: map[string]interface{}{
				"signals": []interface{}{
					map[string]interface{}{"key": "amplification", "severity": 0.6},
				},
			},
		}),
		testutil.NewMockWorker(core.StageThreatScoring).WithOutput(core.RawOutput{
			Payload: map[string]interface{}{
				"threats": []interface{}{
					map[string]interface{}{"key": "coordinated_posting", "severity": 0.7},
				},
			},
		}),
		testutil.NewMockWorker(core.StageKnowledgeIntegration).WithOutput(core.RawOutput{
			Payload: map[string]interface{}{
				"links": []interface{}{"entity:acme-board"},
			},
		}),
	}
}

func buildRun(t *testing.T, cfg config.Config, req core.WorkflowRequest, workers []core.Worker) (*core.WorkflowPlan, *RunSet) {
	t.Helper()

	plan, err := NewPlanner(cfg, nil).Plan(req, healthyFlags())
	require.NoError(t, err)

	registry, err := NewWorkerRegistry(workers...)
	require.NoError(t, err)

	set, err := NewBuilder(registry).Build(req, plan)
	require.NoError(t, err)
	return plan, set
}

func fastExecutor(cfg config.Config) *Executor {
	e := NewExecutor(cfg, nil, nil)
	retries := cfg.Workflow.TransientRetries
	e.policy = func() *RetryPolicy {
		return NewRetryPolicy(
			WithMaxAttempts(1+retries),
			WithBaseDelay(time.Millisecond),
			WithMaxDelay(2*time.Millisecond),
			WithJitter(0),
		)
	}
	return e
}
