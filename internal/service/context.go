package service

import (
	"fmt"
	"sync"

	"github.com/vigilsec/argus/internal/core"
)

// SharedContext is the per-run mutable context stages read from and
// write into. It is owned by exactly one executor; concurrent
// independent stages may read freely but may only write keys assigned
// to them by the plan's ownership map.
type SharedContext struct {
	mu        sync.RWMutex
	request   core.WorkflowRequest
	ownership map[core.ContextKey]core.Stage
	produced  map[core.Stage]bool

	media      *core.MediaMeta
	transcript string
	timeline   []core.TimelineEntry
	keywords   []string
	sentiment  *core.Sentiment
	themes     []string
	claims     []core.Claim
	fallacies  []core.Fallacy
	threat     []core.Signal
	deception  []core.Signal
	cross      []core.Signal
	knowledge  []string
	extra      map[string]string
}

// NewSharedContext creates the run context with the plan's write
// ownership baked in.
func NewSharedContext(req core.WorkflowRequest, plan *core.WorkflowPlan) *SharedContext {
	ownership := make(map[core.ContextKey]core.Stage, len(plan.Ownership))
	for key, stage := range plan.Ownership {
		ownership[key] = stage
	}
	return &SharedContext{
		request:   req,
		ownership: ownership,
		produced:  make(map[core.Stage]bool),
		extra:     make(map[string]string),
	}
}

// Merge folds a stage's extracted fields into the context. Every
// non-empty field is checked against the ownership map; a write to a
// key the stage does not own fails the whole merge without applying
// anything.
func (c *SharedContext) Merge(stage core.Stage, fields core.ExtractedFields) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var writes []core.ContextKey
	if fields.Media != nil {
		writes = append(writes, core.KeyMediaMeta)
	}
	if fields.Transcript != "" {
		writes = append(writes, core.KeyTranscript)
	}
	if len(fields.Timeline) > 0 {
		writes = append(writes, core.KeyTimeline)
	}
	if len(fields.Keywords) > 0 {
		writes = append(writes, core.KeyKeywords)
	}
	if fields.Sentiment != nil {
		writes = append(writes, core.KeySentiment)
	}
	if len(fields.Themes) > 0 {
		writes = append(writes, core.KeyThemes)
	}
	if len(fields.Claims) > 0 {
		writes = append(writes, core.KeyClaims)
	}
	if len(fields.Fallacies) > 0 {
		writes = append(writes, core.KeyFallacies)
	}
	if len(fields.Threat) > 0 {
		writes = append(writes, core.KeyThreatSignals)
	}
	if len(fields.Deception) > 0 {
		writes = append(writes, core.KeyDeception)
	}
	if len(fields.Cross) > 0 {
		writes = append(writes, core.KeyCrossPlatform)
	}
	if len(fields.Knowledge) > 0 {
		writes = append(writes, core.KeyKnowledgeLinks)
	}

	for _, key := range writes {
		owner, ok := c.ownership[key]
		if !ok || owner != stage {
			return core.ErrState(core.CodeContextOwnership,
				fmt.Sprintf("stage %s may not write context key %s (owner: %s)", stage, key, owner))
		}
	}

	if fields.Media != nil {
		m := *fields.Media
		c.media = &m
	}
	if fields.Transcript != "" {
		c.transcript = fields.Transcript
	}
	if len(fields.Timeline) > 0 {
		c.timeline = append([]core.TimelineEntry(nil), fields.Timeline...)
	}
	if len(fields.Keywords) > 0 {
		c.keywords = append([]string(nil), fields.Keywords...)
	}
	if fields.Sentiment != nil {
		s := *fields.Sentiment
		c.sentiment = &s
	}
	if len(fields.Themes) > 0 {
		c.themes = append([]string(nil), fields.Themes...)
	}
	if len(fields.Claims) > 0 {
		c.claims = append([]core.Claim(nil), fields.Claims...)
	}
	if len(fields.Fallacies) > 0 {
		c.fallacies = append([]core.Fallacy(nil), fields.Fallacies...)
	}
	if len(fields.Threat) > 0 {
		c.threat = append([]core.Signal(nil), fields.Threat...)
	}
	if len(fields.Deception) > 0 {
		c.deception = append([]core.Signal(nil), fields.Deception...)
	}
	if len(fields.Cross) > 0 {
		c.cross = append([]core.Signal(nil), fields.Cross...)
	}
	if len(fields.Knowledge) > 0 {
		c.knowledge = append([]string(nil), fields.Knowledge...)
	}

	c.produced[stage] = true
	return nil
}

// MarkProduced records that a stage ran without contributing fields.
func (c *SharedContext) MarkProduced(stage core.Stage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.produced[stage] = true
}

// SetExtra writes an experimental free-form field.
func (c *SharedContext) SetExtra(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.extra[key] = value
}

// Snapshot returns a deep read copy safe to hand to workers.
func (c *SharedContext) Snapshot() core.ContextSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := core.ContextSnapshot{
		Request:    c.request,
		Transcript: c.transcript,
		Timeline:   append([]core.TimelineEntry(nil), c.timeline...),
		Keywords:   append([]string(nil), c.keywords...),
		Themes:     append([]string(nil), c.themes...),
		Claims:     append([]core.Claim(nil), c.claims...),
		Fallacies:  append([]core.Fallacy(nil), c.fallacies...),
		Threat:     append([]core.Signal(nil), c.threat...),
		Deception:  append([]core.Signal(nil), c.deception...),
		Cross:      append([]core.Signal(nil), c.cross...),
		Knowledge:  append([]string(nil), c.knowledge...),
		Produced:   make(map[core.Stage]bool, len(c.produced)),
		Extra:      make(map[string]string, len(c.extra)),
	}
	if c.media != nil {
		m := *c.media
		snap.Media = &m
	}
	if c.sentiment != nil {
		s := *c.sentiment
		snap.Sentiment = &s
	}
	for stage, ok := range c.produced {
		snap.Produced[stage] = ok
	}
	for k, v := range c.extra {
		snap.Extra[k] = v
	}
	return snap
}
