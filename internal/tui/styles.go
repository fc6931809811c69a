package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/ethanolivertroy/tmcheck/internal/model"
)

// Palette colors, repointed by applyTheme
var (
	PrimaryColor   lipgloss.Color
	SecondaryColor lipgloss.Color
	WarningColor   lipgloss.Color
	SubtleColor    lipgloss.Color
	GapColor       lipgloss.Color
	FailedColor    lipgloss.Color
	StrideColor    lipgloss.Color
	AccentColor    lipgloss.Color
	HighColor      lipgloss.Color
	MediumColor    lipgloss.Color
	LowColor       lipgloss.Color
)

// Styles built from the palette
var (
	TitleStyle    lipgloss.Style
	SubtitleStyle lipgloss.Style
	SectionStyle  lipgloss.Style
	StatsStyle    lipgloss.Style
	StatHighlight lipgloss.Style

	// detail view
	LabelStyle       lipgloss.Style
	ValueStyle       lipgloss.Style
	AccentStyle      lipgloss.Style
	StrideStyle      lipgloss.Style
	DescriptionStyle lipgloss.Style

	IDBadge     lipgloss.Style
	GapBadge    lipgloss.Style
	FailedBadge lipgloss.Style
	PassedBadge lipgloss.Style

	SelectedItemStyle lipgloss.Style
	DimmedItemStyle   lipgloss.Style
	NormalItemStyle   = lipgloss.NewStyle().PaddingLeft(2)
)

// RiskColor maps a risk score onto its band color
func RiskColor(score float64) lipgloss.Color {
	switch model.RiskBand(score) {
	case "high":
		return HighColor
	case "medium":
		return MediumColor
	}
	return LowColor
}

// RiskBadge returns a colored risk score badge
func RiskBadge(score float64) string {
	style := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#000000")).
		Background(RiskColor(score)).
		Padding(0, 1)
	return style.Render(fmt.Sprintf("RISK %g %s", score, strings.ToUpper(model.RiskBand(score))))
}

// StatusColor maps an implementation status onto a color
func StatusColor(s model.ImplementationStatus) lipgloss.Color {
	switch s {
	case model.StatusImplemented:
		return SecondaryColor
	case model.StatusPartial:
		return MediumColor
	case model.StatusNotStarted:
		return FailedColor
	}
	return SubtleColor
}

// StatusBadge returns a colored implementation status label
func StatusBadge(s model.ImplementationStatus) string {
	return lipgloss.NewStyle().Foreground(StatusColor(s)).Bold(true).Render(string(s))
}

// PostureBadge renders the posture label on its color
func PostureBadge(p model.Posture) string {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#000000")).
		Background(PostureColor(p)).
		Padding(0, 1).
		Render(string(p))
}

// ValidationBadge renders PASSED or FAILED
func ValidationBadge(s model.ValidationStatus) string {
	if s == model.ValidationPassed {
		return PassedBadge.Render(string(s))
	}
	return FailedBadge.Render(string(s))
}

// TestBadge renders a control test outcome
func TestBadge(passed bool) string {
	if passed {
		return PassedBadge.Render("PASS")
	}
	return FailedBadge.Render("FAIL")
}

// EffectivenessBar returns a visual bar for a 0-10 effectiveness score
func EffectivenessBar(score float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(score / 10 * float64(width))
	if filled < 1 && score > 0 {
		filled = 1
	}
	if filled > width {
		filled = width
	}
	empty := width - filled

	var color lipgloss.Color
	switch {
	case score >= 7:
		color = LowColor
	case score >= 5:
		color = MediumColor
	default:
		color = HighColor
	}

	filledStyle := lipgloss.NewStyle().Foreground(color)
	emptyStyle := lipgloss.NewStyle().Foreground(SubtleColor)

	return filledStyle.Render(strings.Repeat("█", filled)) +
		emptyStyle.Render(strings.Repeat("░", empty))
}
