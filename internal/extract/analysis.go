package extract

import (
	"fmt"
	"strings"

	"github.com/vigilsec/argus/internal/core"
)

// analysis extracts keywords, themes and an overall sentiment from the
// analysis worker's output.
func analysis(raw core.RawOutput) core.ExtractedFields {
	var fields core.ExtractedFields

	fields.Keywords = getStrings(raw.Payload, "keywords", "tags")
	fields.Themes = getStrings(raw.Payload, "themes", "topics")

	// Sentiment arrives as a nested object, a bare polarity number, or
	// not at all.
	switch v := raw.Payload["sentiment"].(type) {
	case map[string]interface{}:
		polarity, ok := getFloat(v, "polarity", "score")
		if !ok {
			fields.Warnings = append(fields.Warnings,
				"parse_warning: sentiment object carries no polarity")
			break
		}
		polarity = clampPolarity(polarity)
		label := getString(v, "label")
		if !validSentimentLabel(label) {
			label = labelFor(polarity)
		}
		fields.Sentiment = &core.Sentiment{Polarity: polarity, Label: label}
	case float64:
		polarity := clampPolarity(v)
		fields.Sentiment = &core.Sentiment{Polarity: polarity, Label: labelFor(polarity)}
	case nil:
	default:
		fields.Warnings = append(fields.Warnings,
			fmt.Sprintf("parse_warning: unrecognized sentiment shape %T", v))
	}

	// Fall back to "keywords: a, b, c" lines in free text.
	if len(fields.Keywords) == 0 && raw.Text != "" {
		for _, line := range strings.Split(raw.Text, "\n") {
			lower := strings.ToLower(line)
			if rest, ok := strings.CutPrefix(lower, "keywords:"); ok {
				for _, kw := range strings.Split(rest, ",") {
					if kw = strings.TrimSpace(kw); kw != "" {
						fields.Keywords = append(fields.Keywords, kw)
					}
				}
			}
		}
	}

	if fields.IsEmpty() {
		fields.Warnings = append(fields.Warnings,
			"parse_warning: analysis output yielded no keywords, themes or sentiment")
	}
	return fields
}

func clampPolarity(f float64) float64 {
	if f < -1 {
		return -1
	}
	if f > 1 {
		return 1
	}
	return f
}

func validSentimentLabel(label string) bool {
	switch label {
	case "negative", "neutral", "positive":
		return true
	default:
		return false
	}
}

func labelFor(polarity float64) string {
	switch {
	case polarity < -0.2:
		return "negative"
	case polarity > 0.2:
		return "positive"
	default:
		return "neutral"
	}
}
