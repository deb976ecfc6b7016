package core

import "time"

// ContextKey names a slot in the shared per-run context. Write ownership
// is assigned per key at plan creation.
type ContextKey string

const (
	KeyMediaMeta      ContextKey = "media_meta"
	KeyTranscript     ContextKey = "transcript"
	KeyTimeline       ContextKey = "timeline"
	KeyKeywords       ContextKey = "keywords"
	KeySentiment      ContextKey = "sentiment"
	KeyThemes         ContextKey = "themes"
	KeyClaims         ContextKey = "claims"
	KeyFallacies      ContextKey = "fallacies"
	KeyThreatSignals  ContextKey = "threat_signals"
	KeyDeception      ContextKey = "deception_indicators"
	KeyCrossPlatform  ContextKey = "cross_platform_signals"
	KeyKnowledgeLinks ContextKey = "knowledge_links"
)

// StageWrites maps each stage to the context keys it owns.
func StageWrites(s Stage) []ContextKey {
	switch s {
	case StageAcquisition:
		return []ContextKey{KeyMediaMeta}
	case StageTranscription:
		return []ContextKey{KeyTranscript, KeyTimeline}
	case StageAnalysis:
		return []ContextKey{KeyKeywords, KeySentiment, KeyThemes}
	case StageVerification:
		return []ContextKey{KeyClaims, KeyFallacies}
	case StageThreatScoring:
		return []ContextKey{KeyThreatSignals, KeyDeception}
	case StageCrossPlatform:
		return []ContextKey{KeyCrossPlatform}
	case StageKnowledgeIntegration:
		return []ContextKey{KeyKnowledgeLinks}
	default:
		return nil
	}
}

// MediaMeta is the flattened acquisition metadata.
type MediaMeta struct {
	Title       string        `json:"title,omitempty"`
	Author      string        `json:"author,omitempty"`
	Platform    string        `json:"platform,omitempty"`
	PublishedAt time.Time     `json:"published_at,omitempty"`
	Duration    time.Duration `json:"duration,omitempty"`
	Views       int64         `json:"views,omitempty"`
	Language    string        `json:"language,omitempty"`
}

// TimelineEntry is one timestamped moment pulled from loose output.
type TimelineEntry struct {
	Offset time.Duration `json:"offset"`
	Text   string        `json:"text"`
}

// Sentiment is an overall polarity score with a coarse label.
type Sentiment struct {
	Polarity float64 `json:"polarity"` // -1.0 .. 1.0
	Label    string  `json:"label"`    // negative|neutral|positive
}

// Claim is a checkable assertion extracted from the content.
type Claim struct {
	Text       string  `json:"text"`
	Verdict    string  `json:"verdict,omitempty"` // supported|disputed|unverified
	Confidence float64 `json:"confidence"`
}

// Fallacy is a named rhetorical fallacy with its triggering excerpt.
type Fallacy struct {
	Kind    string `json:"kind"`
	Excerpt string `json:"excerpt,omitempty"`
}

// Signal is a scored indicator (threat, deception or cross-platform).
// Specific signals name a sub-field key; generic ones apply broadly and
// yield to specific ones when both are present for the same key.
type Signal struct {
	Key      string  `json:"key"`
	Severity float64 `json:"severity"` // 0.0 .. 1.0
	Specific bool    `json:"specific"`
	Source   Stage   `json:"source,omitempty"`
	Note     string  `json:"note,omitempty"`
}

// ExtractedFields is the typed result of running extractors over one
// stage's raw output. Zero value is "empty but typed": extraction never
// fails a stage, it degrades to empty fields plus parse warnings.
type ExtractedFields struct {
	Media      *MediaMeta      `json:"media,omitempty"`
	Transcript string          `json:"transcript,omitempty"`
	Timeline   []TimelineEntry `json:"timeline,omitempty"`
	Keywords   []string        `json:"keywords,omitempty"`
	Sentiment  *Sentiment      `json:"sentiment,omitempty"`
	Themes     []string        `json:"themes,omitempty"`
	Claims     []Claim         `json:"claims,omitempty"`
	Fallacies  []Fallacy       `json:"fallacies,omitempty"`
	Threat     []Signal        `json:"threat,omitempty"`
	Deception  []Signal        `json:"deception,omitempty"`
	Cross      []Signal        `json:"cross,omitempty"`
	Knowledge  []string        `json:"knowledge,omitempty"`

	// Warnings carries parse_warning annotations from best-effort
	// extraction over malformed input.
	Warnings []string `json:"warnings,omitempty"`
}

// IsEmpty reports whether no field was extracted at all.
func (f ExtractedFields) IsEmpty() bool {
	return f.Media == nil &&
		f.Transcript == "" &&
		len(f.Timeline) == 0 &&
		len(f.Keywords) == 0 &&
		f.Sentiment == nil &&
		len(f.Themes) == 0 &&
		len(f.Claims) == 0 &&
		len(f.Fallacies) == 0 &&
		len(f.Threat) == 0 &&
		len(f.Deception) == 0 &&
		len(f.Cross) == 0 &&
		len(f.Knowledge) == 0
}
