package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ethanolivertroy/tmcheck/internal/model"
)

// ItemDelegate renders threat and control items
type ItemDelegate struct {
	ShowDescription bool
	Styles          ItemDelegateStyles
	// Uncovered holds IDs of threats no control addresses
	Uncovered map[string]bool
	// Failing holds IDs of controls whose test failed
	Failing map[string]bool
}

// ItemDelegateStyles contains the styles for the delegate
type ItemDelegateStyles struct {
	NormalTitle   lipgloss.Style
	NormalDesc    lipgloss.Style
	SelectedTitle lipgloss.Style
	SelectedDesc  lipgloss.Style
	DimmedTitle   lipgloss.Style
	DimmedDesc    lipgloss.Style
	IDStyle       lipgloss.Style
	GapIcon       lipgloss.Style
}

// NewItemDelegate creates a new delegate with default styles
func NewItemDelegate(uncovered, failing map[string]bool) ItemDelegate {
	return ItemDelegate{
		ShowDescription: true,
		Uncovered:       uncovered,
		Failing:         failing,
		Styles: ItemDelegateStyles{
			NormalTitle:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")),
			NormalDesc:    lipgloss.NewStyle().Foreground(SubtleColor),
			SelectedTitle: lipgloss.NewStyle().Foreground(PrimaryColor).Bold(true),
			SelectedDesc:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")),
			DimmedTitle:   lipgloss.NewStyle().Foreground(SubtleColor),
			DimmedDesc:    lipgloss.NewStyle().Foreground(SubtleColor),
			IDStyle:       lipgloss.NewStyle().Foreground(SecondaryColor).Bold(true),
			GapIcon:       lipgloss.NewStyle().Foreground(GapColor).Bold(true),
		},
	}
}

// Height returns the height of each item
func (d ItemDelegate) Height() int {
	if d.ShowDescription {
		return 2
	}
	return 1
}

// Spacing returns the spacing between items
func (d ItemDelegate) Spacing() int {
	return 1
}

// Update handles item updates
func (d ItemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd {
	return nil
}

// Render renders a single item
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	var id, title, desc, indicators string
	switch it := item.(type) {
	case model.ThreatItem:
		id, title, desc = it.ID, it.Title(), it.Description()
		indicators = " " + lipgloss.NewStyle().Foreground(RiskColor(float64(it.CanonicalRisk()))).Render(fmt.Sprintf("[%d]", it.CanonicalRisk()))
		if d.Uncovered[it.ID] {
			indicators += d.Styles.GapIcon.Render(" [uncovered]")
		}
		if !it.RiskConsistent() {
			indicators += " " + lipgloss.NewStyle().Foreground(WarningColor).Bold(true).Render("[!]")
		}
	case model.ControlItem:
		id, title, desc = it.ID, it.Title(), it.Description()
		indicators = " " + StatusBadge(it.Status)
		if d.Failing[it.ID] {
			indicators += " " + lipgloss.NewStyle().Foreground(FailedColor).Bold(true).Render("[FAIL]")
		}
		desc = fmt.Sprintf("%s | %s", desc, EffectivenessBar(it.Effectiveness, 10))
	default:
		return
	}

	isSelected := index == m.Index()
	isFiltering := m.FilterState() == list.Filtering

	var titleStyle, descStyle, idStyle lipgloss.Style
	if isFiltering {
		titleStyle = d.Styles.DimmedTitle
		descStyle = d.Styles.DimmedDesc
		idStyle = d.Styles.DimmedTitle
	} else if isSelected {
		titleStyle = d.Styles.SelectedTitle
		descStyle = d.Styles.SelectedDesc
		idStyle = d.Styles.IDStyle
	} else {
		titleStyle = d.Styles.NormalTitle
		descStyle = d.Styles.NormalDesc
		idStyle = d.Styles.IDStyle
	}

	line := idStyle.Render(fmt.Sprintf("[%s]", id)) + titleStyle.Render(" "+title) + indicators
	if isSelected {
		line = SelectedItemStyle.Render(line)
	} else {
		line = NormalItemStyle.Render(line)
	}
	fmt.Fprint(w, line)

	if d.ShowDescription {
		rendered := descStyle.Render(desc)
		if isSelected {
			rendered = SelectedItemStyle.Render(rendered)
		} else {
			rendered = NormalItemStyle.Render(rendered)
		}
		fmt.Fprint(w, "\n"+rendered)
	}
}
