package extract

import (
	"fmt"

	"github.com/vigilsec/argus/internal/core"
)

// verification extracts fact-check claims and rhetorical fallacies.
func verification(raw core.RawOutput) core.ExtractedFields {
	var fields core.ExtractedFields

	for i, item := range getSlice(raw.Payload, "claims", "facts") {
		switch v := item.(type) {
		case map[string]interface{}:
			text := getString(v, "text", "claim", "statement")
			if text == "" {
				fields.Warnings = append(fields.Warnings,
					fmt.Sprintf("parse_warning: claim %d has no text", i))
				continue
			}
			confidence, _ := getFloat(v, "confidence", "score")
			fields.Claims = append(fields.Claims, core.Claim{
				Text:       text,
				Verdict:    normalizeVerdict(getString(v, "verdict", "status")),
				Confidence: clamp01(confidence),
			})
		case string:
			fields.Claims = append(fields.Claims, core.Claim{Text: v, Verdict: "unverified"})
		default:
			fields.Warnings = append(fields.Warnings,
				fmt.Sprintf("parse_warning: unrecognized claim shape %T", item))
		}
	}

	for _, item := range getSlice(raw.Payload, "fallacies") {
		m, ok := item.(map[string]interface{})
		if !ok {
			if s, ok := item.(string); ok {
				fields.Fallacies = append(fields.Fallacies, core.Fallacy{Kind: s})
			}
			continue
		}
		kind := getString(m, "kind", "type", "name")
		if kind == "" {
			fields.Warnings = append(fields.Warnings,
				"parse_warning: fallacy entry has no kind")
			continue
		}
		fields.Fallacies = append(fields.Fallacies, core.Fallacy{
			Kind:    kind,
			Excerpt: getString(m, "excerpt", "quote", "text"),
		})
	}

	if fields.IsEmpty() {
		fields.Warnings = append(fields.Warnings,
			"parse_warning: verification output yielded no claims or fallacies")
	}
	return fields
}

func normalizeVerdict(v string) string {
	switch v {
	case "supported", "disputed", "unverified":
		return v
	case "true", "verified", "confirmed":
		return "supported"
	case "false", "refuted", "debunked":
		return "disputed"
	default:
		return "unverified"
	}
}
