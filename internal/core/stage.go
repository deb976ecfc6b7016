package core

import (
	"fmt"
	"sort"
)

// Stage identifies one discrete step of the intelligence workflow.
type Stage string

const (
	// StageAcquisition downloads the external content and its metadata.
	StageAcquisition Stage = "acquisition"

	// StageTranscription turns acquired media into text.
	StageTranscription Stage = "transcription"

	// StageAnalysis runs sentiment/theme/keyword analysis over the transcript.
	StageAnalysis Stage = "analysis"

	// StageVerification fact-checks claims extracted from the transcript.
	StageVerification Stage = "verification"

	// StageCrossPlatform gathers related signals from other platforms.
	// Independent of threat scoring; the two may run concurrently.
	StageCrossPlatform Stage = "cross_platform"

	// StageThreatScoring computes threat and deception indicators.
	StageThreatScoring Stage = "threat_scoring"

	// StageKnowledgeIntegration links findings into the knowledge store.
	StageKnowledgeIntegration Stage = "knowledge_integration"
)

// AllStages returns every stage in canonical execution order.
func AllStages() []Stage {
	return []Stage{
		StageAcquisition,
		StageTranscription,
		StageAnalysis,
		StageVerification,
		StageCrossPlatform,
		StageThreatScoring,
		StageKnowledgeIntegration,
	}
}

// StageOrder returns the canonical position of a stage (0-indexed),
// or -1 for an unknown stage. Ledger ordering and concurrent-group
// merging both rely on this order, never on completion order.
func StageOrder(s Stage) int {
	for i, stage := range AllStages() {
		if stage == s {
			return i
		}
	}
	return -1
}

// ValidStage checks whether a stage identifier is known.
func ValidStage(s Stage) bool {
	return StageOrder(s) >= 0
}

// ParseStage converts a string to a Stage with validation.
func ParseStage(s string) (Stage, error) {
	stage := Stage(s)
	if !ValidStage(stage) {
		return "", fmt.Errorf("invalid stage: %s", s)
	}
	return stage, nil
}

// String returns the string representation of the stage.
func (s Stage) String() string {
	return string(s)
}

// Description returns a human-readable description of the stage.
func (s Stage) Description() string {
	switch s {
	case StageAcquisition:
		return "Download the target content and collect source metadata"
	case StageTranscription:
		return "Transcribe acquired media into analyzable text"
	case StageAnalysis:
		return "Extract sentiment, themes and keywords from the transcript"
	case StageVerification:
		return "Fact-check claims made in the content"
	case StageCrossPlatform:
		return "Gather related signals from other platforms"
	case StageThreatScoring:
		return "Score threat and deception indicators"
	case StageKnowledgeIntegration:
		return "Integrate findings into the knowledge store"
	default:
		return "Unknown stage"
	}
}

// MinimumViableStages returns the stages without which no meaningful
// report can be produced.
func MinimumViableStages() []Stage {
	return []Stage{StageAcquisition, StageTranscription}
}

// IsMinimumViable reports whether a stage belongs to the minimum viable set.
func IsMinimumViable(s Stage) bool {
	for _, mv := range MinimumViableStages() {
		if mv == s {
			return true
		}
	}
	return false
}

// SortStages sorts stages in place into canonical execution order.
// Unknown stages sort first so they surface early in diagnostics.
func SortStages(stages []Stage) {
	sort.SliceStable(stages, func(i, j int) bool {
		return StageOrder(stages[i]) < StageOrder(stages[j])
	})
}

// DepthTier is a named preset controlling which stages run.
type DepthTier string

const (
	TierStandard      DepthTier = "standard"
	TierDeep          DepthTier = "deep"
	TierComprehensive DepthTier = "comprehensive"
	TierExperimental  DepthTier = "experimental"
)

// AllTiers returns the tiers from shallowest to deepest.
func AllTiers() []DepthTier {
	return []DepthTier{TierStandard, TierDeep, TierComprehensive, TierExperimental}
}

// ValidTier checks whether a depth tier is known.
func ValidTier(t DepthTier) bool {
	switch t {
	case TierStandard, TierDeep, TierComprehensive, TierExperimental:
		return true
	default:
		return false
	}
}

// ParseTier converts a string to a DepthTier with validation.
func ParseTier(s string) (DepthTier, error) {
	t := DepthTier(s)
	if !ValidTier(t) {
		return "", fmt.Errorf("invalid depth tier: %s", s)
	}
	return t, nil
}

// String returns the string representation of the tier.
func (t DepthTier) String() string {
	return string(t)
}

// DefaultTierStages returns the built-in tier -> stage mapping.
// Each tier is a strict superset of the previous one; the config layer
// may override the table but must preserve that nesting.
func DefaultTierStages() map[DepthTier][]Stage {
	standard := []Stage{StageAcquisition, StageTranscription, StageAnalysis, StageVerification}
	deep := append(append([]Stage{}, standard...), StageThreatScoring)
	comprehensive := append(append([]Stage{}, deep...), StageKnowledgeIntegration)
	experimental := append(append([]Stage{}, comprehensive...), StageCrossPlatform)
	return map[DepthTier][]Stage{
		TierStandard:      standard,
		TierDeep:          deep,
		TierComprehensive: comprehensive,
		TierExperimental:  experimental,
	}
}

// CapabilityID identifies an external capability a stage depends on.
type CapabilityID string

const (
	CapabilityDownloader CapabilityID = "downloader"
	CapabilityTranscribe CapabilityID = "transcriber"
	CapabilityModel      CapabilityID = "language_model"
	CapabilityDelivery   CapabilityID = "delivery_channel"
	CapabilityKnowledge  CapabilityID = "knowledge_store"
)

// StageCapabilities maps each stage to the capabilities it requires.
func StageCapabilities(s Stage) []CapabilityID {
	switch s {
	case StageAcquisition:
		return []CapabilityID{CapabilityDownloader}
	case StageTranscription:
		return []CapabilityID{CapabilityTranscribe}
	case StageAnalysis, StageVerification, StageThreatScoring, StageCrossPlatform:
		return []CapabilityID{CapabilityModel}
	case StageKnowledgeIntegration:
		return []CapabilityID{CapabilityModel, CapabilityKnowledge}
	default:
		return nil
	}
}
