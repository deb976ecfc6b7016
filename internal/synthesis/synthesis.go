// Package synthesis turns a finalized result ledger into the
// consolidated report. Synthesis never fails past its boundary: any
// internal error or panic yields a fallback report built from the raw
// ledger with production_ready=false.
package synthesis

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/vigilsec/argus/internal/analytics"
	"github.com/vigilsec/argus/internal/core"
	"github.com/vigilsec/argus/internal/logging"
	"github.com/vigilsec/argus/internal/transform"
)

// Finding categories.
const (
	CategoryThemes    = "themes"
	CategoryClaims    = "claims"
	CategoryFallacies = "fallacies"
	CategoryThreat    = "threat"
	CategoryDeception = "deception"
	CategoryKnowledge = "knowledge"
)

// previewLen bounds the raw-output preview inside ledger excerpts.
const previewLen = 160

// Config holds synthesis tuning.
type Config struct {
	// Strategy selects finding weighting: "weighted" scales each
	// finding by its source stage's quality score, "uniform" does not.
	Strategy string

	// MaxFindingsPerCategory bounds each category's finding list.
	MaxFindingsPerCategory int
}

// Synthesizer builds reports from ledgers.
type Synthesizer struct {
	cfg  Config
	calc *analytics.Calculator
	log  *logging.Logger
}

// New creates a synthesizer.
func New(cfg Config, calc *analytics.Calculator, log *logging.Logger) *Synthesizer {
	if log == nil {
		log = logging.NewNop()
	}
	if cfg.MaxFindingsPerCategory <= 0 {
		cfg.MaxFindingsPerCategory = 12
	}
	return &Synthesizer{cfg: cfg, calc: calc, log: log}
}

// Synthesize produces a report for the run. It always returns one: the
// primary path on success, a fallback report carrying the triggering
// error's category and a ledger excerpt on any internal failure.
func (s *Synthesizer) Synthesize(req core.WorkflowRequest, ledger *core.ResultLedger, elapsed time.Duration) (report core.SynthesizedReport) {
	defer func() {
		if r := recover(); r != nil {
			s.log.WithWorkflow(string(req.ID)).Error("synthesis panicked, producing fallback report", "panic", fmt.Sprint(r))
			report = s.fallback(req, ledger, elapsed,
				core.ErrSynthesis(fmt.Sprintf("synthesis panicked: %v", r)))
		}
	}()

	primary, err := s.primary(req, ledger, elapsed)
	if err != nil {
		s.log.WithWorkflow(string(req.ID)).Error("synthesis failed, producing fallback report", "error", err)
		return s.fallback(req, ledger, elapsed, err)
	}
	return primary
}

func (s *Synthesizer) primary(req core.WorkflowRequest, ledger *core.ResultLedger, elapsed time.Duration) (core.SynthesizedReport, error) {
	if !ledger.Finalized() {
		return core.SynthesizedReport{}, core.ErrSynthesis("ledger not finalized")
	}

	results := ledger.Results()
	signals := transform.MergeSignals(results)
	media := transform.MergeMedia(results)

	report := core.SynthesizedReport{
		WorkflowID:      req.ID,
		URL:             req.URL,
		Tier:            req.Tier,
		Findings:        s.collectFindings(results, signals),
		Confidence:      s.calc.Confidence(results),
		ThreatScore:     s.calc.ThreatScore(signals),
		Caveats:         collectCaveats(results),
		Stats:           s.calc.Stats(results, elapsed),
		ProductionReady: true,
		GeneratedAt:     time.Now().UTC(),
	}
	report.Summary = summarize(media, report)
	return report, nil
}

// collectFindings groups, weights, deduplicates and bounds findings
// per category.
func (s *Synthesizer) collectFindings(results []core.StageResult, signals transform.CompositeSignals) map[string][]core.Finding {
	var all []core.Finding
	for _, r := range results {
		if r.Status != core.StageStatusOK {
			continue
		}
		weight := 1.0
		if s.cfg.Strategy == "weighted" {
			weight = r.Quality
		}
		for _, theme := range r.Fields.Themes {
			all = append(all, core.Finding{
				Category: CategoryThemes, Text: theme, Weight: weight, Source: r.Stage,
			})
		}
		for _, claim := range r.Fields.Claims {
			all = append(all, core.Finding{
				Category: CategoryClaims,
				Text:     fmt.Sprintf("%s [%s]", claim.Text, claim.Verdict),
				Weight:   weight * claim.Confidence,
				Source:   r.Stage,
			})
		}
		for _, fallacy := range r.Fields.Fallacies {
			text := fallacy.Kind
			if fallacy.Excerpt != "" {
				text = fmt.Sprintf("%s: %q", fallacy.Kind, fallacy.Excerpt)
			}
			all = append(all, core.Finding{
				Category: CategoryFallacies, Text: text, Weight: weight, Source: r.Stage,
			})
		}
		for _, link := range r.Fields.Knowledge {
			all = append(all, core.Finding{
				Category: CategoryKnowledge, Text: link, Weight: weight, Source: r.Stage,
			})
		}
	}
	for _, sig := range signals.Threat {
		all = append(all, core.Finding{
			Category: CategoryThreat, Text: signalText(sig), Weight: sig.Severity, Source: sig.Source,
		})
	}
	for _, sig := range signals.Deception {
		all = append(all, core.Finding{
			Category: CategoryDeception, Text: signalText(sig), Weight: sig.Severity, Source: sig.Source,
		})
	}

	grouped := make(map[string][]core.Finding)
	seen := make(map[string]bool)
	for _, f := range all {
		norm := f.Category + "\x00" + strings.ToLower(strings.TrimSpace(f.Text))
		if seen[norm] {
			continue
		}
		seen[norm] = true
		grouped[f.Category] = append(grouped[f.Category], f)
	}
	for category, findings := range grouped {
		sort.SliceStable(findings, func(i, j int) bool {
			return findings[i].Weight > findings[j].Weight
		})
		if len(findings) > s.cfg.MaxFindingsPerCategory {
			findings = findings[:s.cfg.MaxFindingsPerCategory]
		}
		grouped[category] = findings
	}
	return grouped
}

func signalText(sig core.Signal) string {
	if sig.Note != "" {
		return fmt.Sprintf("%s: %s", sig.Key, sig.Note)
	}
	return sig.Key
}

func collectCaveats(results []core.StageResult) []core.Caveat {
	var caveats []core.Caveat
	for _, r := range results {
		switch r.Status {
		case core.StageStatusSkipped:
			kind := core.CaveatSkipped
			if r.ErrCategory == core.ErrCatBudget {
				kind = core.CaveatBudgetExhausted
			}
			caveats = append(caveats, core.Caveat{
				Kind: kind, Stage: r.Stage,
				Message: fmt.Sprintf("stage %s was skipped: %s", r.Stage, r.Error),
			})
		case core.StageStatusFailed:
			caveats = append(caveats, core.Caveat{
				Kind: core.CaveatFailed, Stage: r.Stage,
				Message: fmt.Sprintf("stage %s failed: %s", r.Stage, r.Error),
			})
		case core.StageStatusOK:
			if r.LowQuality {
				caveats = append(caveats, core.Caveat{
					Kind: core.CaveatLowQuality, Stage: r.Stage,
					Message: fmt.Sprintf("stage %s output scored %.2f, below the quality threshold", r.Stage, r.Quality),
				})
			}
		}
		for _, w := range r.Fields.Warnings {
			caveats = append(caveats, core.Caveat{
				Kind: core.CaveatParseWarning, Stage: r.Stage, Message: w,
			})
		}
	}
	return caveats
}

func summarize(media *core.MediaMeta, report core.SynthesizedReport) string {
	var b strings.Builder
	if media != nil && media.Title != "" {
		fmt.Fprintf(&b, "Analysis of %q", media.Title)
		if media.Platform != "" {
			fmt.Fprintf(&b, " (%s)", media.Platform)
		}
	} else {
		fmt.Fprintf(&b, "Analysis of %s", report.URL)
	}
	fmt.Fprintf(&b, ": %d stages run, %d failed, %d skipped.",
		report.Stats.StagesRun, report.Stats.StagesFailed, report.Stats.StagesSkipped)
	fmt.Fprintf(&b, " Confidence %.2f, threat score %.2f.", report.Confidence, report.ThreatScore)
	if len(report.Caveats) > 0 {
		fmt.Fprintf(&b, " %d caveats apply.", len(report.Caveats))
	}
	return b.String()
}

// fallback builds the degraded report from nothing but the raw ledger.
func (s *Synthesizer) fallback(req core.WorkflowRequest, ledger *core.ResultLedger, elapsed time.Duration, cause error) core.SynthesizedReport {
	results := ledger.Results()

	excerpt := make([]core.LedgerExcerpt, 0, len(results))
	stagesRun, stagesFailed, stagesSkipped := 0, 0, 0
	for _, r := range results {
		switch r.Status {
		case core.StageStatusOK:
			stagesRun++
		case core.StageStatusFailed:
			stagesFailed++
		case core.StageStatusSkipped:
			stagesSkipped++
		}
		excerpt = append(excerpt, core.LedgerExcerpt{
			Stage:   r.Stage,
			Status:  r.Status,
			Error:   r.Error,
			Preview: preview(r.Raw.Text),
		})
	}

	return core.SynthesizedReport{
		WorkflowID: req.ID,
		URL:        req.URL,
		Tier:       req.Tier,
		Summary: fmt.Sprintf("Synthesis failed (%s); raw ledger attached with %d stage results.",
			core.GetCategory(cause), len(results)),
		Confidence:      0,
		ProductionReady: false,
		FailureCategory: core.GetCategory(cause),
		LedgerExcerpt:   excerpt,
		Stats: core.RunStats{
			Elapsed:       elapsed,
			StagesRun:     stagesRun,
			StagesFailed:  stagesFailed,
			StagesSkipped: stagesSkipped,
		},
		GeneratedAt: time.Now().UTC(),
	}
}

func preview(text string) string {
	text = strings.TrimSpace(text)
	if len(text) <= previewLen {
		return text
	}
	return text[:previewLen] + "..."
}
