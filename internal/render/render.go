// Package render formats synthesized reports for terminals: plain
// markdown plus an ANSI path through glamour.
package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/vigilsec/argus/internal/core"
)

var (
	readyBadge = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("2")).
			Padding(0, 1)

	degradedBadge = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("3")).
			Padding(0, 1)

	stateStyle = lipgloss.NewStyle().Faint(true)
)

// StatusLine returns a one-line colored banner for a report.
func StatusLine(report core.SynthesizedReport) string {
	badge := readyBadge.Render("PRODUCTION READY")
	if !report.ProductionReady {
		badge = degradedBadge.Render("DEGRADED")
	}
	detail := fmt.Sprintf("confidence %.2f, threat %.2f", report.Confidence, report.ThreatScore)
	if report.FailureCategory != "" {
		detail = "failure: " + string(report.FailureCategory)
	}
	return badge + " " + stateStyle.Render(detail)
}

// Markdown renders a report as plain markdown. Output is deterministic
// for a given report: categories and findings keep a stable order.
func Markdown(report core.SynthesizedReport) string {
	var b strings.Builder

	b.WriteString("# Content Analysis Report\n\n")
	fmt.Fprintf(&b, "**Workflow:** %s\n", report.WorkflowID)
	fmt.Fprintf(&b, "**URL:** %s\n", report.URL)
	fmt.Fprintf(&b, "**Depth tier:** %s\n", report.Tier)
	fmt.Fprintf(&b, "**Generated:** %s\n\n", report.GeneratedAt.UTC().Format("2006-01-02T15:04:05Z"))

	if report.Summary != "" {
		b.WriteString(report.Summary + "\n\n")
	}
	if !report.ProductionReady {
		fmt.Fprintf(&b, "> **Not production ready** (failure category: %s)\n\n", report.FailureCategory)
	}

	b.WriteString("## Scores\n\n")
	fmt.Fprintf(&b, "- Confidence: %.2f\n", report.Confidence)
	fmt.Fprintf(&b, "- Threat score: %.2f\n\n", report.ThreatScore)

	if len(report.Findings) > 0 {
		b.WriteString("## Findings\n\n")
		categories := make([]string, 0, len(report.Findings))
		for category := range report.Findings {
			categories = append(categories, category)
		}
		sort.Strings(categories)
		for _, category := range categories {
			findings := report.Findings[category]
			if len(findings) == 0 {
				continue
			}
			fmt.Fprintf(&b, "### %s\n\n", category)
			for _, f := range findings {
				fmt.Fprintf(&b, "- (%.2f) %s\n", f.Weight, f.Text)
			}
			b.WriteString("\n")
		}
	}

	if len(report.Caveats) > 0 {
		b.WriteString("## Caveats\n\n")
		for _, c := range report.Caveats {
			fmt.Fprintf(&b, "- [%s] %s: %s\n", c.Kind, c.Stage, c.Message)
		}
		b.WriteString("\n")
	}

	if len(report.LedgerExcerpt) > 0 {
		b.WriteString("## Ledger excerpt\n\n")
		for _, e := range report.LedgerExcerpt {
			line := fmt.Sprintf("- %s (%s)", e.Stage, e.Status)
			if e.Error != "" {
				line += ": " + e.Error
			} else if e.Preview != "" {
				line += ": " + e.Preview
			}
			b.WriteString(line + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("## Run statistics\n\n")
	fmt.Fprintf(&b, "- Stages run: %d\n", report.Stats.StagesRun)
	fmt.Fprintf(&b, "- Stages failed: %d\n", report.Stats.StagesFailed)
	fmt.Fprintf(&b, "- Stages skipped: %d\n", report.Stats.StagesSkipped)
	fmt.Fprintf(&b, "- Retries: %d\n", report.Stats.Retries)
	fmt.Fprintf(&b, "- Elapsed: %s\n", report.Stats.Elapsed)

	return b.String()
}

// Renderer renders reports for a terminal.
type Renderer struct {
	width int
	color bool
}

// Option configures a renderer.
type Option func(*Renderer)

// WithWidth sets the wrap width.
func WithWidth(width int) Option {
	return func(r *Renderer) { r.width = width }
}

// WithColor toggles ANSI rendering. Off, Render returns plain markdown.
func WithColor(color bool) Option {
	return func(r *Renderer) { r.color = color }
}

// New creates a renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{width: 100, color: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render formats the report. With color enabled the markdown goes
// through glamour; on any renderer error the plain markdown comes back
// instead, a report must always be printable.
func (r *Renderer) Render(report core.SynthesizedReport) string {
	md := Markdown(report)
	if !r.color {
		return md
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(r.width),
	)
	if err != nil {
		return md
	}
	out, err := renderer.Render(md)
	if err != nil {
		return md
	}
	return out
}
