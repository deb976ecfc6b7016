// Package analytics computes derived metrics from a finalized result
// ledger: composite confidence, threat scores and run statistics.
// Everything here is pure and deterministic.
package analytics

import (
	"time"

	"github.com/vigilsec/argus/internal/core"
	"github.com/vigilsec/argus/internal/transform"
)

const defaultCriticality = 0.5

// Calculator computes composite scores using per-stage criticality
// weights.
type Calculator struct {
	weights map[core.Stage]float64
}

// NewCalculator creates a calculator. Stages missing from the weight
// table get a middling default.
func NewCalculator(weights map[string]float64) *Calculator {
	w := make(map[core.Stage]float64, len(weights))
	for name, weight := range weights {
		if stage, err := core.ParseStage(name); err == nil {
			w[stage] = weight
		}
	}
	return &Calculator{weights: w}
}

func (c *Calculator) weight(stage core.Stage) float64 {
	if w, ok := c.weights[stage]; ok {
		return w
	}
	return defaultCriticality
}

// Confidence is the criticality-weighted average of per-stage quality
// scores. Failed and skipped stages contribute zero quality but full
// weight, so an incomplete run reads as less confident.
func (c *Calculator) Confidence(results []core.StageResult) float64 {
	var weighted, total float64
	for _, r := range results {
		w := c.weight(r.Stage)
		total += w
		if r.Status == core.StageStatusOK {
			weighted += w * r.Quality
		}
	}
	if total == 0 {
		return 0
	}
	score := weighted / total
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// ThreatScore collapses the composite signal set into one number.
// The strongest signal dominates; volume of corroborating signals
// nudges the score upward.
func (c *Calculator) ThreatScore(signals transform.CompositeSignals) float64 {
	pool := make([]core.Signal, 0, len(signals.Threat)+len(signals.Deception))
	pool = append(pool, signals.Threat...)
	pool = append(pool, signals.Deception...)
	if len(pool) == 0 {
		return 0
	}

	var max, sum float64
	for _, s := range pool {
		if s.Severity > max {
			max = s.Severity
		}
		sum += s.Severity
	}
	mean := sum / float64(len(pool))

	score := 0.7*max + 0.3*mean
	if score > 1 {
		return 1
	}
	return score
}

// Stats summarizes resource usage for the run.
func (c *Calculator) Stats(results []core.StageResult, elapsed time.Duration) core.RunStats {
	stats := core.RunStats{Elapsed: elapsed}
	for _, r := range results {
		switch r.Status {
		case core.StageStatusOK:
			stats.StagesRun++
		case core.StageStatusFailed:
			stats.StagesFailed++
		case core.StageStatusSkipped:
			stats.StagesSkipped++
		}
		if r.Attempts > 1 {
			stats.Retries += r.Attempts - 1
		}
	}
	return stats
}
