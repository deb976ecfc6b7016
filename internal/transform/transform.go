// Package transform merges the extracted fields of multiple stages
// into the unified payloads downstream stages and synthesis consume.
// Pure functions over StageResults.
package transform

import (
	"sort"
	"strings"

	"github.com/vigilsec/argus/internal/core"
)

// CompositeSignals is the unified signal view across threat scoring
// and cross-platform gathering.
type CompositeSignals struct {
	Threat    []core.Signal `json:"threat,omitempty"`
	Deception []core.Signal `json:"deception,omitempty"`
}

// MergeSignals merges threat and deception signals from all completed
// stages into one composite structure. When two signals land on the
// same key, a specific (targeted) signal overrides a generic one; two
// signals of equal specificity keep the higher severity.
func MergeSignals(results []core.StageResult) CompositeSignals {
	var threat, deception []core.Signal
	for _, r := range results {
		if r.Status != core.StageStatusOK {
			continue
		}
		threat = append(threat, r.Fields.Threat...)
		threat = append(threat, r.Fields.Cross...)
		deception = append(deception, r.Fields.Deception...)
	}
	return CompositeSignals{
		Threat:    dedupeSignals(threat),
		Deception: dedupeSignals(deception),
	}
}

func dedupeSignals(signals []core.Signal) []core.Signal {
	byKey := make(map[string]core.Signal, len(signals))
	for _, s := range signals {
		existing, ok := byKey[s.Key]
		if !ok || wins(s, existing) {
			byKey[s.Key] = s
		}
	}
	if len(byKey) == 0 {
		return nil
	}
	out := make([]core.Signal, 0, len(byKey))
	for _, s := range byKey {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// wins reports whether candidate should replace existing for a key.
func wins(candidate, existing core.Signal) bool {
	if candidate.Specific != existing.Specific {
		return candidate.Specific
	}
	return candidate.Severity > existing.Severity
}

// MergeMedia overlays acquisition metadata with fields later stages
// established more reliably, e.g. the language detected during
// transcription beats the platform-reported one.
func MergeMedia(results []core.StageResult) *core.MediaMeta {
	var merged *core.MediaMeta
	for _, r := range results {
		if r.Status != core.StageStatusOK || r.Fields.Media == nil {
			continue
		}
		m := *r.Fields.Media
		if merged == nil {
			merged = &m
			continue
		}
		overlay(merged, m)
	}
	return merged
}

func overlay(dst *core.MediaMeta, src core.MediaMeta) {
	if src.Title != "" {
		dst.Title = src.Title
	}
	if src.Author != "" {
		dst.Author = src.Author
	}
	if src.Platform != "" {
		dst.Platform = src.Platform
	}
	if src.Language != "" {
		dst.Language = src.Language
	}
	if !src.PublishedAt.IsZero() {
		dst.PublishedAt = src.PublishedAt
	}
	if src.Duration > 0 {
		dst.Duration = src.Duration
	}
	if src.Views > 0 {
		dst.Views = src.Views
	}
}

// CollectWarnings gathers the parse warnings of every stage, prefixed
// with the originating stage identifier.
func CollectWarnings(results []core.StageResult) []string {
	var out []string
	for _, r := range results {
		for _, w := range r.Fields.Warnings {
			out = append(out, r.Stage.String()+": "+w)
		}
	}
	return out
}

// DedupeStrings removes duplicates by normalized text, keeping first
// occurrence order.
func DedupeStrings(items []string) []string {
	seen := make(map[string]bool, len(items))
	var out []string
	for _, item := range items {
		norm := strings.ToLower(strings.TrimSpace(item))
		if norm == "" || seen[norm] {
			continue
		}
		seen[norm] = true
		out = append(out, item)
	}
	return out
}
