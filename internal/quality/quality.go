// Package quality scores stage output on heuristics: length, stub
// detection and internal consistency. Scores weight synthesis; a low
// score never discards a stage by itself.
package quality

import (
	"strings"

	"github.com/vigilsec/argus/internal/core"
)

// Component weights of the composite score.
const (
	weightLength      = 0.3
	weightPlaceholder = 0.3
	weightConsistency = 0.2
	weightSubstance   = 0.2
)

// Config holds the assessment thresholds.
type Config struct {
	// MinLength is the content length below which the length component
	// degrades proportionally.
	MinLength int

	// PlaceholderPhrases are boilerplate markers indicating stub output.
	PlaceholderPhrases []string

	// LowQualityThreshold flags results scoring strictly below it.
	LowQualityThreshold float64
}

// Assessor computes per-stage quality scores.
type Assessor struct {
	cfg Config
}

// NewAssessor creates an assessor. A zero MinLength disables the
// length component (it always scores full).
func NewAssessor(cfg Config) *Assessor {
	return &Assessor{cfg: cfg}
}

// Assess scores one stage's output in [0,1] and reports whether it
// falls below the low-quality threshold.
func (a *Assessor) Assess(raw core.RawOutput, fields core.ExtractedFields) (float64, bool) {
	score := weightLength*a.lengthScore(raw, fields) +
		weightPlaceholder*a.placeholderScore(raw) +
		weightConsistency*consistencyScore(raw, fields) +
		weightSubstance*substanceScore(fields)

	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score, score < a.cfg.LowQualityThreshold
}

// lengthScore degrades proportionally below the configured minimum
// content length.
func (a *Assessor) lengthScore(raw core.RawOutput, fields core.ExtractedFields) float64 {
	if a.cfg.MinLength <= 0 {
		return 1
	}
	length := len(raw.Text)
	if len(fields.Transcript) > length {
		length = len(fields.Transcript)
	}
	if length == 0 && len(raw.Payload) > 0 {
		// Structured-only output is not penalized for missing prose.
		return 1
	}
	if length >= a.cfg.MinLength {
		return 1
	}
	return float64(length) / float64(a.cfg.MinLength)
}

// placeholderScore drops to zero when known boilerplate appears.
func (a *Assessor) placeholderScore(raw core.RawOutput) float64 {
	text := strings.ToLower(raw.Text)
	for _, phrase := range a.cfg.PlaceholderPhrases {
		if phrase != "" && strings.Contains(text, strings.ToLower(phrase)) {
			return 0
		}
	}
	return 1
}

// consistencyScore checks worker-claimed counts against the lengths of
// the lists actually extracted. No claimed counts means full score.
func consistencyScore(raw core.RawOutput, fields core.ExtractedFields) float64 {
	checks := []struct {
		keys []string
		got  int
	}{
		{[]string{"claim_count", "claims_count"}, len(fields.Claims)},
		{[]string{"keyword_count"}, len(fields.Keywords)},
		{[]string{"segment_count"}, len(fields.Timeline)},
		{[]string{"signal_count"}, len(fields.Threat) + len(fields.Deception) + len(fields.Cross)},
		{[]string{"link_count"}, len(fields.Knowledge)},
	}

	total, violations := 0, 0
	for _, check := range checks {
		claimed, ok := claimedCount(raw.Payload, check.keys)
		if !ok {
			continue
		}
		total++
		if claimed != check.got {
			violations++
		}
	}
	if total == 0 {
		return 1
	}
	return 1 - float64(violations)/float64(total)
}

func claimedCount(m map[string]interface{}, keys []string) (int, bool) {
	for _, key := range keys {
		switch v := m[key].(type) {
		case float64:
			return int(v), true
		case int:
			return v, true
		}
	}
	return 0, false
}

// substanceScore is zero when extraction produced nothing typed at all.
func substanceScore(fields core.ExtractedFields) float64 {
	if fields.IsEmpty() {
		return 0
	}
	return 1
}
