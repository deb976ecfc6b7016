package extract

import (
	"fmt"

	"github.com/vigilsec/argus/internal/core"
)

// threatScoring extracts threat signals and deception indicators. The
// two lists are kept separate; the transformer later merges them with
// precedence rules.
func threatScoring(raw core.RawOutput) core.ExtractedFields {
	var fields core.ExtractedFields

	fields.Threat = parseSignals(raw.Payload, core.StageThreatScoring, &fields.Warnings,
		"threat_signals", "threats")
	fields.Deception = parseSignals(raw.Payload, core.StageThreatScoring, &fields.Warnings,
		"deception_indicators", "deception")

	if fields.IsEmpty() {
		fields.Warnings = append(fields.Warnings,
			"parse_warning: threat scoring output yielded no signals")
	}
	return fields
}

// crossPlatform extracts related signals gathered from other platforms.
func crossPlatform(raw core.RawOutput) core.ExtractedFields {
	var fields core.ExtractedFields

	fields.Cross = parseSignals(raw.Payload, core.StageCrossPlatform, &fields.Warnings,
		"cross_platform_signals", "signals")

	if fields.IsEmpty() {
		fields.Warnings = append(fields.Warnings,
			"parse_warning: cross-platform output yielded no signals")
	}
	return fields
}

// knowledgeIntegration extracts knowledge-store link identifiers.
func knowledgeIntegration(raw core.RawOutput) core.ExtractedFields {
	var fields core.ExtractedFields

	fields.Knowledge = getStrings(raw.Payload, "knowledge_links", "links", "entities")

	if fields.IsEmpty() {
		fields.Warnings = append(fields.Warnings,
			"parse_warning: knowledge integration output yielded no links")
	}
	return fields
}

func parseSignals(m map[string]interface{}, source core.Stage, warnings *[]string, keys ...string) []core.Signal {
	var out []core.Signal
	for i, item := range getSlice(m, keys...) {
		sm, ok := item.(map[string]interface{})
		if !ok {
			if s, ok := item.(string); ok {
				out = append(out, core.Signal{Key: s, Severity: 0.5, Source: source})
				continue
			}
			*warnings = append(*warnings,
				fmt.Sprintf("parse_warning: unrecognized signal shape %T at index %d", item, i))
			continue
		}
		key := getString(sm, "key", "name", "indicator")
		if key == "" {
			*warnings = append(*warnings,
				fmt.Sprintf("parse_warning: signal %d has no key", i))
			continue
		}
		severity, ok := getFloat(sm, "severity", "score")
		if !ok {
			severity = 0.5
		}
		out = append(out, core.Signal{
			Key:      key,
			Severity: clamp01(severity),
			Specific: getBool(sm, "specific", "targeted"),
			Source:   source,
			Note:     getString(sm, "note", "detail", "description"),
		})
	}
	return out
}
