package tui

import (
	"fmt"
	"os/exec"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/ethanolivertroy/tmcheck/internal/check"
	"github.com/ethanolivertroy/tmcheck/internal/config"
	"github.com/ethanolivertroy/tmcheck/internal/grc"
	"github.com/ethanolivertroy/tmcheck/internal/model"
	"github.com/ethanolivertroy/tmcheck/internal/report"
	"go.uber.org/zap"
)

// ViewState represents the current view
type ViewState int

const (
	ViewList ViewState = iota
	ViewDetail
	ViewChartsMenu
	ViewRiskChart
	ViewStrideChart
	ViewStatusChart
	ViewEffectivenessChart
	ViewExposureChart
	ViewExportMenu
	ViewSummary
)

// ChartOption represents a chart in the charts menu
type ChartOption struct {
	Name        string
	Description string
	View        ViewState
}

// ExportOption is one entry of the export menu. A nil Artifact exports everything.
type ExportOption struct {
	Name     string
	Artifact *report.Artifact
}

// Collection selects which records the list shows
type Collection int

const (
	CollectionThreats Collection = iota
	CollectionControls
)

func (c Collection) String() string {
	if c == CollectionControls {
		return "Security Controls"
	}
	return "Threats"
}

// SortMode represents the current sort order
type SortMode int

const (
	SortByID SortMode = iota
	SortByRisk
	SortByName
)

// String names the sort for the collection it applies to
func (s SortMode) String() string {
	switch s {
	case SortByID:
		return "ID"
	case SortByRisk:
		return "Risk / Effectiveness"
	case SortByName:
		return "Name"
	}
	return ""
}

// FilterMode represents special filters
type FilterMode int

const (
	FilterNone FilterMode = iota
	FilterUncovered
	FilterFailing
)

// Model is the browser over a single check run
type Model struct {
	cfg        config.Config
	logger     *zap.Logger
	list       list.Model
	run        *check.Run
	items      []list.Item
	spinner    spinner.Model
	loading    bool
	err        error
	width      int
	height     int
	view       ViewState
	collection Collection
	selected   list.Item
	keys       KeyMap
	help       help.Model
	showHelp   bool
	viewport   viewport.Model
	viewportOK bool
	sortMode   SortMode
	filterMode FilterMode
	statusMsg  string
	// lookups rebuilt on every run
	uncovered map[string]bool
	failing   map[string]bool
	// Charts menu state
	chartOptions       []ChartOption
	selectedChartIndex int
	// Export menu state
	exportOptions       []ExportOption
	selectedExportIndex int
}

// RunLoadedMsg carries a completed run
type RunLoadedMsg struct {
	Run *check.Run
}

// ErrorMsg reports a run that could not complete
type ErrorMsg struct {
	Err error
}

// NewModel creates a browser that evaluates the catalogs named in cfg
func NewModel(cfg config.Config, logger *zap.Logger) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(PrimaryColor)

	h := help.New()
	h.ShowAll = false

	if logger == nil {
		logger = zap.NewNop()
	}

	exportOptions := []ExportOption{{Name: "All artifacts"}}
	for _, a := range report.Artifacts {
		exportOptions = append(exportOptions, ExportOption{Name: a.Filename(), Artifact: &a})
	}

	return Model{
		cfg:      cfg,
		logger:   logger,
		spinner:  s,
		loading:  true,
		keys:     DefaultKeyMap(),
		help:     h,
		sortMode: SortByID,
		chartOptions: []ChartOption{
			{Name: "Risk Distribution", Description: "Threats by canonical risk level", View: ViewRiskChart},
			{Name: "STRIDE Coverage", Description: "Threats per STRIDE category", View: ViewStrideChart},
			{Name: "Implementation Status", Description: "Controls by rollout status", View: ViewStatusChart},
			{Name: "Effectiveness", Description: "Control effectiveness and test outcome", View: ViewEffectivenessChart},
			{Name: "Annual Exposure", Description: "Threats carrying the most exposure", View: ViewExposureChart},
		},
		exportOptions: exportOptions,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.evaluate())
}

func (m Model) evaluate() tea.Cmd {
	cfg, logger := m.cfg, m.logger
	return func() tea.Msg {
		run, err := check.Execute(cfg, logger)
		if err != nil {
			return ErrorMsg{Err: err}
		}
		return RunLoadedMsg{Run: run}
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.statusMsg = ""

		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		switch msg.String() {
		case "?":
			m.showHelp = !m.showHelp
			return m, nil
		}

		if m.err != nil || m.loading {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "r":
				m.err = nil
				m.loading = true
				return m, tea.Batch(m.spinner.Tick, m.evaluate())
			}
			return m, nil
		}

		if m.view == ViewList && m.list.FilterState() != list.Filtering {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "enter":
				if item := m.list.SelectedItem(); item != nil {
					m.selected = item
					m.view = ViewDetail
					m.viewport = viewport.New(m.width-4, m.height-6)
					m.viewport.SetContent(m.renderDetailContent())
					m.viewportOK = true
				}
				return m, nil
			case "tab":
				m.collection = (m.collection + 1) % 2
				m.filterMode = FilterNone
				m.refreshList()
				m.statusMsg = fmt.Sprintf("Showing %s", m.collection)
				return m, nil
			case "s":
				m.sortMode = (m.sortMode + 1) % 3
				m.refreshList()
				m.statusMsg = fmt.Sprintf("Sorted by: %s", m.sortMode.String())
				return m, nil
			case "u":
				m.toggleFilter(FilterUncovered, CollectionThreats, "Showing uncovered threats only")
				return m, nil
			case "f":
				m.toggleFilter(FilterFailing, CollectionControls, "Showing failing controls only")
				return m, nil
			case "r":
				m.loading = true
				m.statusMsg = "Re-running check..."
				return m, tea.Batch(m.spinner.Tick, m.evaluate())
			case "c":
				if id := itemID(m.list.SelectedItem()); id != "" {
					copyToClipboard(id)
					m.statusMsg = fmt.Sprintf("Copied: %s", id)
				}
				return m, nil
			case "g":
				m.selectedChartIndex = 0
				m.view = ViewChartsMenu
				return m, nil
			case "x":
				m.selectedExportIndex = 0
				m.view = ViewExportMenu
				return m, nil
			case "m":
				m.view = ViewSummary
				m.viewport = viewport.New(m.width-4, m.height-6)
				m.viewport.SetContent(m.renderSummaryMarkdown())
				m.viewportOK = true
				return m, nil
			case "T":
				name := CycleTheme()
				m.refreshList()
				m.statusMsg = fmt.Sprintf("Theme: %s", name)
				return m, nil
			case "G", "end":
				if len(m.list.Items()) > 0 {
					m.list.Select(len(m.list.Items()) - 1)
				}
				return m, nil
			case "home":
				m.list.Select(0)
				return m, nil
			}
		}

		if m.view == ViewDetail || m.view == ViewSummary {
			switch msg.String() {
			case "q", "esc", "backspace":
				m.view = ViewList
				m.selected = nil
				return m, nil
			case "c":
				if id := itemID(m.selected); id != "" {
					copyToClipboard(id)
					m.statusMsg = fmt.Sprintf("Copied: %s", id)
				}
				return m, nil
			default:
				if m.viewportOK {
					var cmd tea.Cmd
					m.viewport, cmd = m.viewport.Update(msg)
					return m, cmd
				}
			}
		}

		if m.view == ViewChartsMenu {
			switch msg.String() {
			case "q", "esc", "g", "backspace":
				m.view = ViewList
				return m, nil
			case "j", "down":
				m.selectedChartIndex = (m.selectedChartIndex + 1) % len(m.chartOptions)
				return m, nil
			case "k", "up":
				m.selectedChartIndex = (m.selectedChartIndex - 1 + len(m.chartOptions)) % len(m.chartOptions)
				return m, nil
			case "enter":
				m.view = m.chartOptions[m.selectedChartIndex].View
				return m, nil
			}
		}

		if m.view == ViewExportMenu {
			switch msg.String() {
			case "q", "esc", "x", "backspace":
				m.view = ViewList
				return m, nil
			case "j", "down":
				m.selectedExportIndex = (m.selectedExportIndex + 1) % len(m.exportOptions)
				return m, nil
			case "k", "up":
				m.selectedExportIndex = (m.selectedExportIndex - 1 + len(m.exportOptions)) % len(m.exportOptions)
				return m, nil
			case "enter":
				m.statusMsg = m.export(m.exportOptions[m.selectedExportIndex])
				m.view = ViewList
				return m, nil
			}
		}

		if m.isChartView() {
			switch msg.String() {
			case "q", "esc", "g", "backspace":
				m.view = ViewChartsMenu
				return m, nil
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		if m.run != nil {
			headerHeight := 4 // Title + stats
			footerHeight := 2 // Help
			m.list.SetSize(msg.Width, msg.Height-headerHeight-footerHeight)
		}
		if m.viewportOK {
			m.viewport.Width = msg.Width - 4
			m.viewport.Height = msg.Height - 6
		}
		return m, nil

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}

	case RunLoadedMsg:
		m.loading = false
		m.err = nil
		m.setRun(msg.Run)
		return m, nil

	case ErrorMsg:
		m.loading = false
		m.err = msg.Err
		return m, nil
	}

	if m.view == ViewList && m.run != nil {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) isChartView() bool {
	switch m.view {
	case ViewRiskChart, ViewStrideChart, ViewStatusChart, ViewEffectivenessChart, ViewExposureChart:
		return true
	}
	return false
}

// setRun installs a fresh run and rebuilds the list around it
func (m *Model) setRun(run *check.Run) {
	m.run = run
	m.uncovered = make(map[string]bool)
	for _, t := range run.Catalog.Threats {
		if len(run.Catalog.ControlsFor(t.ID)) == 0 {
			m.uncovered[t.ID] = true
		}
	}
	m.failing = make(map[string]bool)
	for _, t := range run.Posture.Controls {
		if !t.Passed {
			m.failing[t.ID] = true
		}
	}

	m.list = list.New(nil, NewItemDelegate(m.uncovered, m.failing), m.width, m.height-6)
	m.list.SetShowStatusBar(true)
	m.list.SetFilteringEnabled(true)
	m.list.SetShowHelp(false)
	m.list.Styles.Title = TitleStyle

	m.list.Filter = func(term string, targets []string) []list.Rank {
		var ranks []list.Rank
		term = strings.ToLower(term)
		for i, target := range targets {
			if strings.Contains(strings.ToLower(target), term) {
				ranks = append(ranks, list.Rank{Index: i})
			}
		}
		return ranks
	}

	m.refreshList()
}

func (m *Model) toggleFilter(f FilterMode, c Collection, msg string) {
	if m.filterMode == f {
		m.filterMode = FilterNone
		m.statusMsg = "Filter cleared"
	} else {
		m.filterMode = f
		m.collection = c
		m.statusMsg = msg
	}
	m.refreshList()
}

func (m *Model) refreshList() {
	if m.run == nil {
		return
	}
	m.applySortAndFilter()
	m.list.Title = m.collection.String()
	m.list.SetDelegate(NewItemDelegate(m.uncovered, m.failing))
	m.list.SetItems(m.items)
}

func (m *Model) applySortAndFilter() {
	m.items = nil
	if m.collection == CollectionControls {
		controls := m.run.Catalog.SortedControls()
		if m.filterMode == FilterFailing {
			var failing []model.Control
			for _, c := range controls {
				if m.failing[c.ID] {
					failing = append(failing, c)
				}
			}
			controls = failing
		}
		switch m.sortMode {
		case SortByRisk:
			sort.SliceStable(controls, func(i, j int) bool {
				return controls[i].Effectiveness > controls[j].Effectiveness
			})
		case SortByName:
			sort.SliceStable(controls, func(i, j int) bool {
				return controls[i].Name < controls[j].Name
			})
		}
		for _, c := range controls {
			m.items = append(m.items, model.ControlItem{Control: c})
		}
		return
	}

	threats := m.run.Catalog.SortedThreats()
	if m.filterMode == FilterUncovered {
		var uncovered []model.Threat
		for _, t := range threats {
			if m.uncovered[t.ID] {
				uncovered = append(uncovered, t)
			}
		}
		threats = uncovered
	}
	switch m.sortMode {
	case SortByRisk:
		sort.SliceStable(threats, func(i, j int) bool {
			return threats[i].CanonicalRisk() > threats[j].CanonicalRisk()
		})
	case SortByName:
		sort.SliceStable(threats, func(i, j int) bool {
			return threats[i].Name < threats[j].Name
		})
	}
	for _, t := range threats {
		m.items = append(m.items, model.ThreatItem{Threat: t})
	}
}

// export writes the chosen artifact (or all of them) and returns a status line
func (m Model) export(opt ExportOption) string {
	emitter := report.NewEmitter(m.cfg.OutputDir)
	if opt.Artifact == nil {
		results, err := emitter.Emit(m.run)
		if err != nil {
			return fmt.Sprintf("Export failed: %v", err)
		}
		return fmt.Sprintf("Exported %d artifacts to %s", len(results), m.cfg.OutputDir)
	}
	result := emitter.Write(m.run, *opt.Artifact)
	if result.Err != nil {
		return fmt.Sprintf("Export failed: %v", result.Err)
	}
	return fmt.Sprintf("Exported %s", result.FilePath)
}

// View renders the view
func (m Model) View() string {
	if m.loading {
		return fmt.Sprintf("\n  %s Evaluating threat model...\n", m.spinner.View())
	}

	if m.err != nil {
		return fmt.Sprintf("\n  Error: %v\n\n  Press r to retry, q to quit.\n", m.err)
	}

	if m.run == nil {
		return ""
	}

	switch m.view {
	case ViewDetail:
		if m.selected != nil {
			return m.renderDetailView()
		}
	case ViewChartsMenu:
		return m.renderChartsMenu()
	case ViewExportMenu:
		return m.renderExportMenu()
	case ViewSummary:
		return m.renderSummaryView()
	case ViewRiskChart:
		return RenderRiskChart(m.run, m.width, m.height)
	case ViewStrideChart:
		return RenderStrideChart(m.run, m.width, m.height)
	case ViewStatusChart:
		return RenderStatusChart(m.run, m.width, m.height)
	case ViewEffectivenessChart:
		return RenderEffectivenessChart(m.run, m.width, m.height)
	case ViewExposureChart:
		return RenderExposureChart(m.run, m.width, m.height)
	}

	return m.renderListView()
}

func renderMenu(title string, names, descriptions []string, selected int, footer string) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(chartTitle(title))
	b.WriteString("\n\n")

	for i, name := range names {
		if i == selected {
			selectedStyle := lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FFFFFF")).
				Background(PrimaryColor).
				Padding(0, 1)
			b.WriteString(selectedStyle.Render(fmt.Sprintf("> %s", name)))
		} else {
			b.WriteString(fmt.Sprintf("  %s", name))
		}
		b.WriteString("\n")
		if descriptions != nil {
			b.WriteString(SubtitleStyle.Render(fmt.Sprintf("    %s", descriptions[i])))
			b.WriteString("\n\n")
		}
	}

	if descriptions == nil {
		b.WriteString("\n")
	}
	b.WriteString(SubtitleStyle.Render(footer))
	return b.String()
}

func (m Model) renderExportMenu() string {
	names := make([]string, len(m.exportOptions))
	for i, opt := range m.exportOptions {
		names[i] = opt.Name
	}
	menu := renderMenu("Export Reports", names, nil, m.selectedExportIndex, "j/k navigate • enter export • x/esc back")
	info := SubtitleStyle.Render(fmt.Sprintf("Output directory: %s", m.cfg.OutputDir))
	return menu + "\n\n" + info
}

func (m Model) renderChartsMenu() string {
	names := make([]string, len(m.chartOptions))
	descs := make([]string, len(m.chartOptions))
	for i, opt := range m.chartOptions {
		names[i] = opt.Name
		descs[i] = opt.Description
	}
	return renderMenu("Charts & Graphs", names, descs, m.selectedChartIndex, "j/k navigate • enter select • g/esc back")
}

func (m Model) renderListView() string {
	var b strings.Builder
	v, p := m.run.Validation, m.run.Posture

	stats := fmt.Sprintf("%s %d threats | %d controls | %s %d gaps | score %.2f %s",
		StatHighlight.Render(""),
		v.TotalThreats,
		p.Summary.TotalControls,
		lipgloss.NewStyle().Foreground(GapColor).Render(""),
		len(v.Gaps),
		p.Score,
		PostureBadge(p.Posture),
	)
	b.WriteString(StatsStyle.Render(stats))
	b.WriteString(" ")
	b.WriteString(ValidationBadge(v.Status))
	b.WriteString("\n")

	indicators := []string{fmt.Sprintf("Sort: %s", m.sortMode.String())}
	switch m.filterMode {
	case FilterUncovered:
		indicators = append(indicators, lipgloss.NewStyle().Foreground(GapColor).Render("Filter: Uncovered"))
	case FilterFailing:
		indicators = append(indicators, lipgloss.NewStyle().Foreground(FailedColor).Render("Filter: Failing"))
	}
	b.WriteString(SubtitleStyle.Render(strings.Join(indicators, " | ")))
	b.WriteString("\n")

	b.WriteString(m.list.View())

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(SubtitleStyle.Render(m.statusMsg))
	}

	b.WriteString("\n")
	if m.showHelp {
		b.WriteString(m.help.View(m.keys))
	} else {
		helpText := "tab threats/controls • / filter • s sort • u uncovered • f failing • g graphs • x export • m summary • r rerun • q quit"
		b.WriteString(SubtitleStyle.Render(helpText))
	}

	return b.String()
}

func (m Model) renderDetailView() string {
	var b strings.Builder

	b.WriteString("\n")
	switch it := m.selected.(type) {
	case model.ThreatItem:
		b.WriteString(IDBadge.Render(it.ID))
		b.WriteString("  ")
		b.WriteString(RiskBadge(float64(it.CanonicalRisk())))
		if m.uncovered[it.ID] {
			b.WriteString("  ")
			b.WriteString(GapBadge.Render("UNCOVERED"))
		}
	case model.ControlItem:
		b.WriteString(IDBadge.Render(it.ID))
		b.WriteString("  ")
		b.WriteString(TestBadge(!m.failing[it.ID]))
	}
	b.WriteString("\n\n")

	if m.viewportOK {
		b.WriteString(m.viewport.View())
	}

	b.WriteString("\n")
	footer := "↑/↓ scroll | c copy ID | q/esc back"
	if m.statusMsg != "" {
		footer = m.statusMsg + " | " + footer
	}
	b.WriteString(SubtitleStyle.Render(footer))
	b.WriteString("\n")

	return b.String()
}

// renderSummaryMarkdown styles the executive summary for the terminal
func (m Model) renderSummaryMarkdown() string {
	md, err := report.RenderExecutiveMarkdown(m.run, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath(CurrentTheme.Markdown),
		glamour.WithWordWrap(max(m.width-8, 40)),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

func (m Model) renderSummaryView() string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(TitleStyle.Render("Executive Summary"))
	b.WriteString("  ")
	b.WriteString(PostureBadge(m.run.Posture.Posture))
	b.WriteString("\n\n")
	if m.viewportOK {
		b.WriteString(m.viewport.View())
	}
	b.WriteString("\n")
	b.WriteString(SubtitleStyle.Render("↑/↓ scroll | q/esc back"))
	b.WriteString("\n")
	return b.String()
}

type field struct {
	label string
	value string
}

func writeFields(b *strings.Builder, fields []field) {
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		b.WriteString(LabelStyle.Render(f.label + ":"))
		b.WriteString(ValueStyle.Render(f.value))
		b.WriteString("\n")
	}
}

func writeSection(b *strings.Builder, title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	b.WriteString("\n")
	b.WriteString(SectionStyle.Render(title))
	b.WriteString("\n")
	for _, l := range lines {
		b.WriteString(DescriptionStyle.Render("• " + l))
		b.WriteString("\n")
	}
}

func (m Model) renderDetailContent() string {
	switch it := m.selected.(type) {
	case model.ThreatItem:
		return m.renderThreatDetail(it.Threat)
	case model.ControlItem:
		return m.renderControlDetail(it.Control)
	}
	return ""
}

func (m Model) renderThreatDetail(t model.Threat) string {
	var b strings.Builder

	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Render(t.Name))
	b.WriteString("\n\n")

	declared := "not declared"
	if t.RiskDeclared {
		declared = fmt.Sprintf("%g", t.RiskScore)
	}
	var exposure string
	if m.run != nil {
		if e, ok := m.run.Posture.Exposure(t.ID); ok && e.ImpactParsed {
			exposure = fmt.Sprintf("%s (p=%.2f)", model.FormatDollars(e.Annual), e.Probability)
		}
	}

	writeFields(&b, []field{
		{"Category", t.Category},
		{"STRIDE", StrideStyle.Render(string(t.Stride))},
		{"Likelihood", string(t.Likelihood)},
		{"Impact", string(t.Impact)},
		{"Declared risk", declared},
		{"Canonical risk", fmt.Sprintf("%d", t.CanonicalRisk())},
		{"Business impact", t.BusinessImpact},
		{"Annual exposure", exposure},
		{"Estimated cost", t.EstimatedCost},
		{"Current controls", t.CurrentControls},
	})

	if !t.RiskConsistent() {
		b.WriteString(lipgloss.NewStyle().Foreground(WarningColor).Bold(true).Render(
			fmt.Sprintf("Declared risk does not match the risk matrix (%d)", t.CanonicalRisk())))
		b.WriteString("\n")
	}

	var addressedBy []string
	if m.run != nil {
		for _, id := range m.run.Catalog.ControlsFor(t.ID) {
			c, _ := m.run.Catalog.Control(id)
			addressedBy = append(addressedBy, fmt.Sprintf("%s %s (%s)", id, c.Name, c.Status))
		}
	}
	writeSection(&b, "Addressed By", addressedBy)
	writeSection(&b, "Attack Scenarios", t.AttackScenarios)
	writeSection(&b, "Detection Methods", t.DetectionMethods)
	writeSection(&b, "Recommended Controls", t.RecommendedControls)

	return b.String()
}

func (m Model) renderControlDetail(c model.Control) string {
	var b strings.Builder

	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Render(c.Name))
	b.WriteString("\n\n")

	writeFields(&b, []field{
		{"Category", string(c.Category)},
		{"Status", StatusBadge(c.Status)},
		{"Effectiveness", fmt.Sprintf("%g/10 %s", c.Effectiveness, EffectivenessBar(c.Effectiveness, 20))},
		{"Priority", c.Priority()},
		{"Effort", c.ImplementationEffort},
		{"Estimated cost", c.EstimatedCost},
		{"Maintenance", string(c.MaintenanceOverhead)},
	})

	if m.run != nil {
		if test, ok := m.run.Posture.Test(c.ID); ok {
			b.WriteString(LabelStyle.Render("Control test:"))
			b.WriteString(TestBadge(test.Passed))
			b.WriteString(" ")
			b.WriteString(ValueStyle.Render(test.Reason))
			b.WriteString("\n")
		}
		if regs := grc.NewMapper(m.run.Catalog).RegulationsFor(c.ID); len(regs) > 0 {
			b.WriteString(LabelStyle.Render("Regulations:"))
			b.WriteString(AccentStyle.Render(strings.Join(regs, ", ")))
			b.WriteString("\n")
		}
	}

	if c.Description != "" {
		b.WriteString("\n")
		b.WriteString(SectionStyle.Render("Description"))
		b.WriteString("\n")
		b.WriteString(DescriptionStyle.Render(c.Description))
		b.WriteString("\n")
	}

	var threats []string
	for _, id := range c.ThreatsAddressed {
		line := id
		if m.run != nil {
			if t, ok := m.run.Catalog.Threat(id); ok {
				line = fmt.Sprintf("%s %s (risk %d)", id, t.Name, t.CanonicalRisk())
			} else {
				line = id + " (unknown threat)"
			}
		}
		threats = append(threats, line)
	}
	writeSection(&b, "Threats Addressed", threats)
	writeSection(&b, "Technical Details", c.TechnicalDetails)
	writeSection(&b, "Dependencies", c.Dependencies)

	return b.String()
}

func itemID(item list.Item) string {
	switch it := item.(type) {
	case model.ThreatItem:
		return it.ID
	case model.ControlItem:
		return it.ID
	}
	return ""
}

func copyToClipboard(text string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("pbcopy")
	case "linux":
		cmd = exec.Command("xclip", "-selection", "clipboard")
	case "windows":
		cmd = exec.Command("clip")
	default:
		return
	}
	cmd.Stdin = strings.NewReader(text)
	_ = cmd.Run()
}
