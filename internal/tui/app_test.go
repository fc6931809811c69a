package tui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethanolivertroy/tmcheck/internal/catalog"
	"github.com/ethanolivertroy/tmcheck/internal/check"
	"github.com/ethanolivertroy/tmcheck/internal/config"
	"github.com/ethanolivertroy/tmcheck/internal/model"
	"go.uber.org/zap"
)

func loadCatalog(t *testing.T) *model.Catalog {
	t.Helper()
	cat, err := catalog.LoadFiles(
		filepath.Join("..", "check", "testdata", "threats.yaml"),
		filepath.Join("..", "check", "testdata", "controls.yaml"),
	)
	if err != nil {
		t.Fatalf("LoadFiles() error = %v", err)
	}
	return cat
}

func testRun(t *testing.T) *check.Run {
	t.Helper()
	return check.Evaluate(loadCatalog(t), config.Default(), zap.NewNop())
}

// runWithGaps adds an uncovered threat and a control that fails its test
func runWithGaps(t *testing.T) *check.Run {
	t.Helper()
	cat := loadCatalog(t)
	cat.Threats = append(cat.Threats, model.Threat{
		ID: "ML-005", Name: "Prompt Injection", Stride: model.StrideElevationOfPrivilege,
		Likelihood: model.LevelHigh, Impact: model.LevelHigh, RiskScore: 9, RiskDeclared: true,
		BusinessImpact: "$2M",
	})
	cat.Controls = append(cat.Controls, model.Control{
		ID: "SC-006", Name: "Output Filtering", Category: model.CategoryPreventive,
		ThreatsAddressed: []string{"ML-003"}, Status: model.StatusPlanned,
		TechnicalDetails: []string{"regex deny list"}, Effectiveness: 3,
	})
	return check.Evaluate(cat, config.Default(), zap.NewNop())
}

func loadedModel(t *testing.T, run *check.Run) Model {
	t.Helper()
	cfg := config.Default()
	cfg.OutputDir = t.TempDir()
	m := NewModel(cfg, zap.NewNop())
	m.width, m.height = 120, 40
	updated, _ := m.Update(RunLoadedMsg{Run: run})
	return updated.(Model)
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		updated, _ := m.Update(msg)
		m = updated.(Model)
	}
	return m
}

func listIDs(m Model) []string {
	var ids []string
	for _, item := range m.list.Items() {
		ids = append(ids, itemID(item))
	}
	return ids
}

func TestRunLoadedShowsThreats(t *testing.T) {
	m := loadedModel(t, testRun(t))

	if m.loading {
		t.Error("model still loading after RunLoadedMsg")
	}
	ids := listIDs(m)
	want := []string{"ML-001", "ML-002", "ML-003", "ML-004"}
	if strings.Join(ids, ",") != strings.Join(want, ",") {
		t.Errorf("list = %v, want %v", ids, want)
	}
	if m.list.Title != "Threats" {
		t.Errorf("Title = %q, want Threats", m.list.Title)
	}
}

func TestTabSwitchesCollection(t *testing.T) {
	m := press(t, loadedModel(t, testRun(t)), "tab")

	if m.collection != CollectionControls {
		t.Fatalf("collection = %v, want controls", m.collection)
	}
	if got := len(m.list.Items()); got != 5 {
		t.Errorf("len(items) = %d, want 5", got)
	}
	if _, ok := m.list.Items()[0].(model.ControlItem); !ok {
		t.Errorf("first item is %T, want model.ControlItem", m.list.Items()[0])
	}

	m = press(t, m, "tab")
	if m.collection != CollectionThreats {
		t.Errorf("second tab should return to threats")
	}
}

func TestSortByRisk(t *testing.T) {
	m := press(t, loadedModel(t, testRun(t)), "s")

	if m.sortMode != SortByRisk {
		t.Fatalf("sortMode = %v, want SortByRisk", m.sortMode)
	}
	if ids := listIDs(m); ids[0] != "ML-002" {
		t.Errorf("first threat = %s, want ML-002 (risk 9)", ids[0])
	}

	m = press(t, m, "tab")
	if ids := listIDs(m); ids[0] != "SC-001" && ids[0] != "SC-004" {
		t.Errorf("first control = %s, want an effectiveness 8 control", ids[0])
	}
}

func TestFilters(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		collection Collection
		want       []string
	}{
		{"uncovered threats", "u", CollectionThreats, []string{"ML-005"}},
		{"failing controls", "f", CollectionControls, []string{"SC-006"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := press(t, loadedModel(t, runWithGaps(t)), tt.key)
			if m.collection != tt.collection {
				t.Errorf("collection = %v, want %v", m.collection, tt.collection)
			}
			if got := listIDs(m); strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("filtered = %v, want %v", got, tt.want)
			}

			m = press(t, m, tt.key)
			if m.filterMode != FilterNone {
				t.Error("pressing the filter key again should clear it")
			}
		})
	}
}

func TestRenderThreatDetail(t *testing.T) {
	m := press(t, loadedModel(t, testRun(t)), "enter")

	if m.view != ViewDetail {
		t.Fatalf("view = %v, want ViewDetail", m.view)
	}
	content := m.renderDetailContent()
	for _, want := range []string{
		"Training Data Poisoning",
		"Tampering",
		"Canonical risk",
		"SC-001 Training Data Validation Pipeline (Implemented)",
		"SC-003",
		"Label distribution checks",
		"$3,500,000",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("threat detail missing %q", want)
		}
	}

	m = press(t, m, "esc")
	if m.view != ViewList || m.selected != nil {
		t.Error("esc should return to the list")
	}
}

func TestRenderControlDetail(t *testing.T) {
	m := press(t, loadedModel(t, testRun(t)), "tab", "enter")

	content := m.renderDetailContent()
	for _, want := range []string{
		"Training Data Validation Pipeline",
		"all checks passed",
		"PCI DSS, SOX",
		"ML-001 Training Data Poisoning (risk 6)",
		"Great Expectations suites per data source",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("control detail missing %q", want)
		}
	}
}

func TestRenderDetailContentNothingSelected(t *testing.T) {
	m := loadedModel(t, testRun(t))
	if got := m.renderDetailContent(); got != "" {
		t.Errorf("renderDetailContent() = %q, want empty", got)
	}
}

func TestExportAllArtifacts(t *testing.T) {
	m := loadedModel(t, testRun(t))
	m = press(t, m, "x")
	if m.view != ViewExportMenu {
		t.Fatalf("view = %v, want ViewExportMenu", m.view)
	}

	m = press(t, m, "enter")
	if !strings.HasPrefix(m.statusMsg, "Exported") {
		t.Fatalf("statusMsg = %q", m.statusMsg)
	}
	for _, name := range []string{"validation-report.json", "executive-summary.md", "risk-register.csv"} {
		if _, err := os.Stat(filepath.Join(m.cfg.OutputDir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
}

func TestExportSingleArtifact(t *testing.T) {
	m := press(t, loadedModel(t, testRun(t)), "x", "j", "enter")

	path := filepath.Join(m.cfg.OutputDir, "validation-report.json")
	if !strings.Contains(m.statusMsg, path) {
		t.Errorf("statusMsg = %q, want it to name %s", m.statusMsg, path)
	}
	if _, err := os.Stat(filepath.Join(m.cfg.OutputDir, "technical-report.json")); err == nil {
		t.Error("single export wrote other artifacts")
	}
}

func TestChartsMenuNavigation(t *testing.T) {
	m := press(t, loadedModel(t, testRun(t)), "g", "j", "enter")
	if m.view != ViewStrideChart {
		t.Fatalf("view = %v, want ViewStrideChart", m.view)
	}
	if !strings.Contains(m.View(), "STRIDE Coverage") {
		t.Error("chart view missing title")
	}

	m = press(t, m, "esc")
	if m.view != ViewChartsMenu {
		t.Errorf("esc from a chart should return to the menu, got %v", m.view)
	}
}

func TestErrorView(t *testing.T) {
	m := NewModel(config.Default(), nil)
	updated, _ := m.Update(ErrorMsg{Err: os.ErrNotExist})
	m = updated.(Model)

	view := m.View()
	if !strings.Contains(view, "Error:") || !strings.Contains(view, "r to retry") {
		t.Errorf("View() = %q", view)
	}
}

func TestListViewHeader(t *testing.T) {
	view := loadedModel(t, testRun(t)).View()
	for _, want := range []string{"4 threats", "5 controls", "0 gaps", "66.67", "ACCEPTABLE", "PASSED"} {
		if !strings.Contains(view, want) {
			t.Errorf("list view missing %q", want)
		}
	}
}

func TestExecutiveSummaryView(t *testing.T) {
	m := press(t, loadedModel(t, testRun(t)), "m")
	if m.view != ViewSummary {
		t.Fatalf("view = %v, want ViewSummary", m.view)
	}

	view := m.View()
	if !strings.Contains(view, "Executive Summary") || !strings.Contains(view, "ACCEPTABLE") {
		t.Errorf("summary view header missing")
	}
	if content := m.renderSummaryMarkdown(); !strings.Contains(content, "6,900,000") {
		t.Errorf("rendered summary missing total exposure")
	}

	m = press(t, m, "esc")
	if m.view != ViewList {
		t.Errorf("esc should return to the list, got %v", m.view)
	}
}
