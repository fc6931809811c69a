package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"
	"github.com/ethanolivertroy/tmcheck/internal/check"
	"github.com/ethanolivertroy/tmcheck/internal/model"
)

// Count is one labelled bar
type Count struct {
	Name  string
	Value float64
	Color lipgloss.Color
}

// RiskStats holds the canonical risk band breakdown
type RiskStats struct {
	High   int // >= 7
	Medium int // >= 4
	Low    int
}

// GetRiskStats buckets threats by canonical risk
func GetRiskStats(threats []model.Threat) RiskStats {
	var stats RiskStats
	for _, t := range threats {
		switch model.RiskBand(float64(t.CanonicalRisk())) {
		case "high":
			stats.High++
		case "medium":
			stats.Medium++
		default:
			stats.Low++
		}
	}
	return stats
}

// GetStrideCounts counts threats per STRIDE category, in taxonomy order
func GetStrideCounts(threats []model.Threat) []Count {
	counts := make(map[model.Stride]int)
	for _, t := range threats {
		counts[t.Stride]++
	}

	var out []Count
	for _, s := range model.StrideCategories {
		color := StrideColor
		if counts[s] == 0 {
			color = GapColor
		}
		out = append(out, Count{Name: string(s), Value: float64(counts[s]), Color: color})
	}
	return out
}

// GetStatusCounts counts controls per implementation status, in rollout order
func GetStatusCounts(controls []model.Control) []Count {
	counts := make(map[model.ImplementationStatus]int)
	for _, c := range controls {
		counts[c.Status]++
	}

	var out []Count
	for _, s := range model.Statuses {
		out = append(out, Count{Name: string(s), Value: float64(counts[s]), Color: StatusColor(s)})
	}
	return out
}

// GetEffectiveness lists control effectiveness ordered by ID, colored by test outcome
func GetEffectiveness(run *check.Run) []Count {
	var out []Count
	for _, c := range run.Catalog.SortedControls() {
		color := SecondaryColor
		if test, ok := run.Posture.Test(c.ID); ok && !test.Passed {
			color = FailedColor
		}
		out = append(out, Count{Name: c.ID, Value: c.Effectiveness, Color: color})
	}
	return out
}

// GetTopExposures returns the n threats with the largest annual exposure
func GetTopExposures(run *check.Run, n int) []Count {
	var out []Count
	for _, e := range run.Posture.Exposures {
		if e.Annual <= 0 {
			continue
		}
		t, _ := run.Catalog.Threat(e.ID)
		out = append(out, Count{Name: e.ID, Value: e.Annual, Color: RiskColor(float64(t.CanonicalRisk()))})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Value > out[j].Value
	})

	if len(out) > n {
		out = out[:n]
	}
	return out
}

func chartTitle(s string) string {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(PrimaryColor).
		Padding(0, 1).
		Render(s)
}

// renderBars draws counts as a vertical bar chart followed by a legend
func renderBars(title string, counts []Count, width, height int, legend func(Count) string) string {
	var b strings.Builder

	b.WriteString(chartTitle(title))
	b.WriteString("\n\n")

	chartHeight := height - 8 - len(counts)
	if chartHeight < 5 {
		chartHeight = 5
	}
	bc := barchart.New(width-4, chartHeight,
		barchart.WithNoAutoBarWidth(),
		barchart.WithBarWidth(4),
		barchart.WithBarGap(1),
	)

	var items []barchart.BarData
	for _, c := range counts {
		items = append(items, barchart.BarData{
			Label: truncateString(c.Name, 8),
			Values: []barchart.BarValue{{
				Name:  c.Name,
				Value: c.Value,
				Style: lipgloss.NewStyle().Foreground(c.Color),
			}},
		})
	}
	bc.PushAll(items)
	bc.Draw()

	b.WriteString(bc.View())
	b.WriteString("\n\n")

	for _, c := range counts {
		marker := lipgloss.NewStyle().Foreground(c.Color).Render("█")
		b.WriteString(fmt.Sprintf("%s %s\n", marker, legend(c)))
	}

	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(SubtleColor).Render("g/esc back to charts menu"))
	return b.String()
}

func countLegend(c Count) string {
	return fmt.Sprintf("%s: %.0f", c.Name, c.Value)
}

// RenderRiskChart renders threats by canonical risk band
func RenderRiskChart(run *check.Run, width, height int) string {
	if len(run.Catalog.Threats) == 0 {
		return "No threat data available"
	}
	stats := GetRiskStats(run.Catalog.Threats)
	counts := []Count{
		{Name: "High (7-9)", Value: float64(stats.High), Color: HighColor},
		{Name: "Medium (4-6)", Value: float64(stats.Medium), Color: MediumColor},
		{Name: "Low (1-3)", Value: float64(stats.Low), Color: LowColor},
	}
	return renderBars("Threats by Risk Level", counts, width, height, countLegend)
}

// RenderStrideChart renders threats per STRIDE category, uncovered categories highlighted
func RenderStrideChart(run *check.Run, width, height int) string {
	if len(run.Catalog.Threats) == 0 {
		return "No threat data available"
	}
	title := fmt.Sprintf("STRIDE Coverage (%.1f%%)", run.Validation.Stride.Percent)
	return renderBars(title, GetStrideCounts(run.Catalog.Threats), width, height, countLegend)
}

// RenderStatusChart renders controls per implementation status
func RenderStatusChart(run *check.Run, width, height int) string {
	if len(run.Catalog.Controls) == 0 {
		return "No control data available"
	}
	title := fmt.Sprintf("Control Implementation (%.1f%% implemented)", run.Posture.Summary.ImplementationRate)
	return renderBars(title, GetStatusCounts(run.Catalog.Controls), width, height, countLegend)
}

// RenderEffectivenessChart renders each control's effectiveness score
func RenderEffectivenessChart(run *check.Run, width, height int) string {
	counts := GetEffectiveness(run)
	if len(counts) == 0 {
		return "No control data available"
	}
	return renderBars("Control Effectiveness (failing tests in red)", counts, width, height, func(c Count) string {
		return fmt.Sprintf("%s: %g/10", c.Name, c.Value)
	})
}

// RenderExposureChart renders the threats carrying the most annual exposure
func RenderExposureChart(run *check.Run, width, height int) string {
	counts := GetTopExposures(run, 10)
	if len(counts) == 0 {
		return "No exposure data available"
	}
	title := fmt.Sprintf("Annual Exposure (total %s)", model.FormatDollars(run.Posture.TotalExposure))
	return renderBars(title, counts, width, height, func(c Count) string {
		return fmt.Sprintf("%s: %s", c.Name, model.FormatDollars(c.Value))
	})
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-1] + "."
}
