package workers

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/vigilsec/argus/internal/core"
)

// SimulatedWorker produces deterministic placeholder output for a
// stage. It backs dry runs and development setups where no external
// pipeline commands are configured; the output shapes match what the
// extractors expect from real workers.
type SimulatedWorker struct {
	stage core.Stage
}

// NewSimulatedWorker creates a simulated worker for a stage.
func NewSimulatedWorker(stage core.Stage) *SimulatedWorker {
	return &SimulatedWorker{stage: stage}
}

// Stage returns the stage this worker serves.
func (w *SimulatedWorker) Stage() core.Stage { return w.stage }

// Invoke fabricates stage output derived from the request URL, so the
// same URL always simulates the same run.
func (w *SimulatedWorker) Invoke(ctx context.Context, snapshot core.ContextSnapshot, _ time.Time) (core.RawOutput, error) {
	if err := ctx.Err(); err != nil {
		return core.RawOutput{}, core.ErrCancelled("simulated worker cancelled").WithCause(err)
	}

	seed := urlSeed(snapshot.Request.URL)

	switch w.stage {
	case core.StageAcquisition:
		return core.RawOutput{Payload: map[string]interface{}{
			"meta": map[string]interface{}{
				"title":            fmt.Sprintf("Simulated content %s", seed),
				"platform":         "simulated",
				"duration_seconds": 90,
			},
		}}, nil

	case core.StageTranscription:
		return core.RawOutput{Text: fmt.Sprintf(
			"[00:02] simulated transcript for %s\n[00:31] closing remarks", seed)}, nil

	case core.StageAnalysis:
		return core.RawOutput{Payload: map[string]interface{}{
			"keywords":  []interface{}{"simulated", seed},
			"themes":    []interface{}{"placeholder analysis"},
			"sentiment": 0.1,
		}}, nil

	case core.StageVerification:
		return core.RawOutput{Payload: map[string]interface{}{
			"claims": []interface{}{
				map[string]interface{}{
					"text":       "simulated claim",
					"verdict":    "unverified",
					"confidence": 0.5,
				},
			},
		}}, nil

	case core.StageCrossPlatform:
		return core.RawOutput{Payload: map[string]interface{}{
			"signals": []interface{}{
				map[string]interface{}{"key": "simulated_spread", "severity": 0.2},
			},
		}}, nil

	case core.StageThreatScoring:
		return core.RawOutput{Payload: map[string]interface{}{
			"threats": []interface{}{
				map[string]interface{}{"key": "simulated_threat", "severity": 0.1},
			},
		}}, nil

	case core.StageKnowledgeIntegration:
		return core.RawOutput{Payload: map[string]interface{}{
			"links": []interface{}{"entity:simulated-" + seed},
		}}, nil
	}

	return core.RawOutput{}, core.ErrState(core.CodeUnknownStage, fmt.Sprintf("no simulation for stage %s", w.stage))
}

func urlSeed(url string) string {
	sum := sha256.Sum256([]byte(url))
	return fmt.Sprintf("%x", sum[:4])
}
