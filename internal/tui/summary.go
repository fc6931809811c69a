package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/ethanolivertroy/tmcheck/internal/catalog"
	"github.com/ethanolivertroy/tmcheck/internal/check"
	"github.com/ethanolivertroy/tmcheck/internal/grc"
	"github.com/ethanolivertroy/tmcheck/internal/model"
	"github.com/ethanolivertroy/tmcheck/internal/score"
)

// RenderSummary renders the console report printed after a check
func RenderSummary(run *check.Run) string {
	var b strings.Builder
	v, p := run.Validation, run.Posture

	b.WriteString(TitleStyle.Render("Threat Model Check"))
	b.WriteString("\n\n")

	b.WriteString(LabelStyle.Render("Validation:"))
	b.WriteString(ValidationBadge(v.Status))
	b.WriteString(SubtitleStyle.Render(fmt.Sprintf("  %d error(s), %d gap(s), tolerance %d", len(v.Errors), len(v.Gaps), v.GapTolerance)))
	b.WriteString("\n")

	b.WriteString(LabelStyle.Render("Security score:"))
	b.WriteString(ValueStyle.Render(fmt.Sprintf("%.2f / 100 ", p.Score)))
	b.WriteString(PostureBadge(p.Posture))
	b.WriteString(SubtitleStyle.Render(fmt.Sprintf("  target %.0f", score.Target)))
	b.WriteString("\n")

	if run.Baseline != nil {
		b.WriteString(LabelStyle.Render("Trend:"))
		b.WriteString(ValueStyle.Render(fmt.Sprintf("%s (previous %.2f)", run.Trend, *run.Baseline)))
		b.WriteString("\n")
	}

	b.WriteString(LabelStyle.Render("Threats:"))
	b.WriteString(ValueStyle.Render(fmt.Sprintf("%d ", v.TotalThreats)))
	b.WriteString(SubtitleStyle.Render(fmt.Sprintf("(%s %d high, %s %d medium, %s %d low)",
		lipgloss.NewStyle().Foreground(HighColor).Render("●"), v.Risk.High,
		lipgloss.NewStyle().Foreground(MediumColor).Render("●"), v.Risk.Medium,
		lipgloss.NewStyle().Foreground(LowColor).Render("●"), v.Risk.Low)))
	b.WriteString("\n")

	b.WriteString(LabelStyle.Render("Controls:"))
	b.WriteString(ValueStyle.Render(fmt.Sprintf("%d implemented of %d, %d passing tests",
		p.Summary.ImplementedControls, p.Summary.TotalControls, p.Summary.PassedTests)))
	b.WriteString("\n")

	b.WriteString(LabelStyle.Render("STRIDE coverage:"))
	b.WriteString(ValueStyle.Render(fmt.Sprintf("%.1f%%", v.Stride.Percent)))
	b.WriteString("\n")

	b.WriteString(LabelStyle.Render("Annual exposure:"))
	b.WriteString(ValueStyle.Render(model.FormatDollars(p.TotalExposure)))
	b.WriteString("\n")

	if len(run.Compliance) > 0 {
		b.WriteString(LabelStyle.Render("Compliance:"))
		var parts []string
		for _, r := range run.Compliance {
			color := SecondaryColor
			if r.Status != grc.Compliant {
				color = FailedColor
			}
			parts = append(parts, r.Regulation+" "+lipgloss.NewStyle().Foreground(color).Render(string(r.Status)))
		}
		b.WriteString(strings.Join(parts, ", "))
		b.WriteString("\n")
	}

	if len(v.Errors) > 0 {
		b.WriteString("\n")
		b.WriteString(SectionStyle.Render("Errors"))
		b.WriteString("\n")
		for _, e := range v.ErrorStrings() {
			b.WriteString(lipgloss.NewStyle().Foreground(FailedColor).Render("  ✗ " + e))
			b.WriteString("\n")
		}
	}

	if len(v.Gaps) > 0 {
		b.WriteString("\n")
		b.WriteString(SectionStyle.Render("Gaps"))
		b.WriteString("\n")
		for _, g := range v.Gaps {
			b.WriteString(lipgloss.NewStyle().Foreground(WarningColor).Render(fmt.Sprintf("  ! [%s] %s", g.Kind, g)))
			b.WriteString("\n")
		}
	}

	var failing []model.ControlTest
	for _, t := range p.Controls {
		if !t.Passed {
			failing = append(failing, t)
		}
	}
	if len(failing) > 0 {
		b.WriteString("\n")
		b.WriteString(SectionStyle.Render("Failing controls"))
		b.WriteString("\n")
		for _, t := range failing {
			b.WriteString(fmt.Sprintf("  %s %s: %s\n", TestBadge(false), t.ID, t.Reason))
		}
	}

	b.WriteString("\n")
	b.WriteString(renderOutcome(run.Outcome()))
	b.WriteString("\n")
	return b.String()
}

// renderOutcome states the worst finding and the exit code it maps to
func renderOutcome(o check.Outcome) string {
	color := FailedColor
	switch o {
	case check.OutcomeClean:
		color = SecondaryColor
	case check.OutcomeWeak:
		color = WarningColor
	}
	return LabelStyle.Render("Result:") +
		lipgloss.NewStyle().Foreground(color).Bold(true).Render(fmt.Sprintf("%s (exit %d)", o, o.ExitCode()))
}

// RenderSchemaError lists every problem the loader found
func RenderSchemaError(err *catalog.SchemaError) string {
	var b strings.Builder
	b.WriteString(FailedBadge.Render("SCHEMA ERROR"))
	b.WriteString(SubtitleStyle.Render(fmt.Sprintf("  %d problem(s), nothing was evaluated", len(err.Problems))))
	b.WriteString("\n\n")
	for _, line := range err.Lines() {
		b.WriteString(lipgloss.NewStyle().Foreground(FailedColor).Render("  ✗ " + line))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(renderOutcome(check.OutcomeSchemaError))
	b.WriteString("\n")
	return b.String()
}

// RenderArtifacts lists the files written by the emitter
func RenderArtifacts(paths []string, failures []string) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(SectionStyle.Render("Artifacts"))
	b.WriteString("\n")
	for _, p := range paths {
		b.WriteString(SubtitleStyle.Render("  " + p))
		b.WriteString("\n")
	}
	for _, f := range failures {
		b.WriteString(lipgloss.NewStyle().Foreground(FailedColor).Render("  ✗ " + f))
		b.WriteString("\n")
	}
	return b.String()
}
