// Package extract turns loosely structured worker output into typed
// fields. Extractors are pure functions and never fail: malformed
// input degrades to empty fields plus parse warnings.
package extract

import (
	"fmt"

	"github.com/vigilsec/argus/internal/core"
)

// Func extracts typed fields from one stage's raw output.
type Func func(raw core.RawOutput) core.ExtractedFields

var registry = map[core.Stage]Func{
	core.StageAcquisition:          acquisition,
	core.StageTranscription:        transcription,
	core.StageAnalysis:             analysis,
	core.StageVerification:         verification,
	core.StageCrossPlatform:        crossPlatform,
	core.StageThreatScoring:        threatScoring,
	core.StageKnowledgeIntegration: knowledgeIntegration,
}

// Extract runs the stage's extractor over raw worker output. Unknown
// stages and panicking extractors both degrade to an empty result with
// a parse warning, never an error.
func Extract(stage core.Stage, raw core.RawOutput) (fields core.ExtractedFields) {
	defer func() {
		if r := recover(); r != nil {
			fields = core.ExtractedFields{
				Warnings: []string{fmt.Sprintf("parse_warning: extractor panicked on %s output: %v", stage, r)},
			}
		}
	}()

	fn, ok := registry[stage]
	if !ok {
		return core.ExtractedFields{
			Warnings: []string{fmt.Sprintf("parse_warning: no extractor registered for stage %q", stage)},
		}
	}
	if raw.Empty() {
		return core.ExtractedFields{
			Warnings: []string{fmt.Sprintf("parse_warning: %s worker produced no output", stage)},
		}
	}
	return fn(raw)
}
