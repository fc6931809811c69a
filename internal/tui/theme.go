package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/ethanolivertroy/tmcheck/internal/model"
)

// ThemeName identifies a color theme
type ThemeName string

const (
	ThemeDefault    ThemeName = "default"
	ThemeDracula    ThemeName = "dracula"
	ThemeCatppuccin ThemeName = "catppuccin"
	ThemeNord       ThemeName = "nord"
)

// Theme is the palette the browser paints findings with
type Theme struct {
	Name     ThemeName
	Markdown string // glamour style for rendered Markdown

	Brand  lipgloss.Color
	Text   lipgloss.Color
	Muted  lipgloss.Color
	Accent lipgloss.Color
	Stride lipgloss.Color

	Pass lipgloss.Color
	Fail lipgloss.Color
	Gap  lipgloss.Color

	RiskHigh   lipgloss.Color
	RiskMedium lipgloss.Color
	RiskLow    lipgloss.Color

	Strong     lipgloss.Color
	Acceptable lipgloss.Color
	Weak       lipgloss.Color
}

// themes in cycling order; the first entry is the default
var themes = []Theme{
	{
		Name: ThemeDefault, Markdown: "dark",
		Brand: "#7D56F4", Text: "#FFFFFF", Muted: "#626262", Accent: "#00BFFF", Stride: "#DDA0DD",
		Pass: "#04B575", Fail: "#FF5F56", Gap: "#FF1493",
		RiskHigh: "#FF5F56", RiskMedium: "#FFCC00", RiskLow: "#04B575",
		Strong: "#04B575", Acceptable: "#FFCC00", Weak: "#FF5F56",
	},
	{
		Name: ThemeDracula, Markdown: "dracula",
		Brand: "#bd93f9", Text: "#f8f8f2", Muted: "#6272a4", Accent: "#8be9fd", Stride: "#ffb86c",
		Pass: "#50fa7b", Fail: "#ff5555", Gap: "#ff79c6",
		RiskHigh: "#ff5555", RiskMedium: "#f1fa8c", RiskLow: "#50fa7b",
		Strong: "#50fa7b", Acceptable: "#f1fa8c", Weak: "#ff5555",
	},
	{
		Name: ThemeCatppuccin, Markdown: "pink",
		Brand: "#cba6f7", Text: "#cdd6f4", Muted: "#6c7086", Accent: "#89dceb", Stride: "#fab387",
		Pass: "#a6e3a1", Fail: "#f38ba8", Gap: "#f5c2e7",
		RiskHigh: "#f38ba8", RiskMedium: "#f9e2af", RiskLow: "#a6e3a1",
		Strong: "#a6e3a1", Acceptable: "#f9e2af", Weak: "#eba0ac",
	},
	{
		Name: ThemeNord, Markdown: "tokyo-night",
		Brand: "#5e81ac", Text: "#eceff4", Muted: "#4c566a", Accent: "#88c0d0", Stride: "#d08770",
		Pass: "#a3be8c", Fail: "#bf616a", Gap: "#b48ead",
		RiskHigh: "#bf616a", RiskMedium: "#ebcb8b", RiskLow: "#a3be8c",
		Strong: "#a3be8c", Acceptable: "#ebcb8b", Weak: "#d08770",
	},
}

// CurrentTheme is the palette in use
var CurrentTheme = themes[0]

func init() {
	applyTheme(CurrentTheme)
}

// ThemeNames lists the themes in cycling order
func ThemeNames() []ThemeName {
	names := make([]ThemeName, len(themes))
	for i, t := range themes {
		names[i] = t.Name
	}
	return names
}

// ParseTheme resolves a theme name case-insensitively. Empty means default.
func ParseTheme(s string) (ThemeName, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ThemeDefault, nil
	}
	for _, t := range themes {
		if string(t.Name) == s {
			return t.Name, nil
		}
	}
	return "", fmt.Errorf("unknown theme %q (available: %s)", s, joinThemeNames())
}

func joinThemeNames() string {
	names := ThemeNames()
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = string(n)
	}
	return strings.Join(parts, ", ")
}

// SetTheme switches palettes. Unknown names leave the current theme in place.
func SetTheme(name ThemeName) bool {
	for _, t := range themes {
		if t.Name == name {
			CurrentTheme = t
			applyTheme(t)
			return true
		}
	}
	return false
}

// CycleTheme moves to the next theme and returns its name
func CycleTheme() ThemeName {
	next := 0
	for i, t := range themes {
		if t.Name == CurrentTheme.Name {
			next = (i + 1) % len(themes)
			break
		}
	}
	SetTheme(themes[next].Name)
	return CurrentTheme.Name
}

// PostureColor is the theme color for a posture level
func PostureColor(p model.Posture) lipgloss.Color {
	switch p {
	case model.PostureStrong:
		return CurrentTheme.Strong
	case model.PostureAcceptable:
		return CurrentTheme.Acceptable
	}
	return CurrentTheme.Weak
}

// applyTheme repoints the package colors and rebuilds every style derived from them
func applyTheme(t Theme) {
	PrimaryColor = t.Brand
	SecondaryColor = t.Pass
	WarningColor = t.RiskMedium
	SubtleColor = t.Muted
	GapColor = t.Gap
	FailedColor = t.Fail
	StrideColor = t.Stride
	AccentColor = t.Accent
	HighColor = t.RiskHigh
	MediumColor = t.RiskMedium
	LowColor = t.RiskLow

	badge := func(bg lipgloss.Color) lipgloss.Style {
		return lipgloss.NewStyle().Bold(true).Foreground(t.Text).Background(bg).Padding(0, 1)
	}
	TitleStyle = badge(t.Brand)
	IDBadge = badge(t.Brand)
	GapBadge = badge(t.Gap)
	FailedBadge = badge(t.Fail)
	PassedBadge = badge(t.Pass).Foreground(lipgloss.Color("#000000"))

	SubtitleStyle = lipgloss.NewStyle().Foreground(t.Muted)
	LabelStyle = lipgloss.NewStyle().Bold(true).Foreground(t.Brand).Width(18)
	ValueStyle = lipgloss.NewStyle().Foreground(t.Text)
	AccentStyle = lipgloss.NewStyle().Foreground(t.Accent)
	StrideStyle = lipgloss.NewStyle().Foreground(t.Stride)
	SectionStyle = lipgloss.NewStyle().Bold(true).Foreground(t.Brand)
	DescriptionStyle = lipgloss.NewStyle().Foreground(t.Text).Width(80)

	SelectedItemStyle = lipgloss.NewStyle().
		BorderLeft(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(t.Brand).
		PaddingLeft(1)
	DimmedItemStyle = lipgloss.NewStyle().Foreground(t.Muted).PaddingLeft(2)

	StatsStyle = lipgloss.NewStyle().Foreground(t.Muted).Padding(0, 1)
	StatHighlight = lipgloss.NewStyle().Foreground(t.Brand).Bold(true)
}
