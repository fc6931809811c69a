package agent

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ethanolivertroy/tmcheck/internal/check"
	"github.com/ethanolivertroy/tmcheck/internal/config"
	"github.com/ethanolivertroy/tmcheck/internal/model"
	"github.com/ethanolivertroy/tmcheck/internal/report"
	"go.uber.org/zap"
	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"
)

const defaultLimit = 10

// Toolset serves the assistant's tools from a single evaluated run.
// The run is loaded lazily and shared across concurrent server requests.
type Toolset struct {
	cfg       config.Config
	logger    *zap.Logger
	exportDir string

	once sync.Once
	run  *check.Run
	err  error
}

// NewToolset evaluates the catalogs named in cfg on first use
func NewToolset(cfg config.Config, logger *zap.Logger) *Toolset {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Toolset{cfg: cfg, logger: logger, exportDir: getExportDir()}
}

// NewToolsetForRun serves an already evaluated run
func NewToolsetForRun(run *check.Run, exportDir string) *Toolset {
	ts := &Toolset{logger: zap.NewNop(), exportDir: exportDir, run: run}
	ts.once.Do(func() {})
	return ts
}

// getExportDir returns the safe export directory for assistant-generated files
func getExportDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(homeDir, ".tmcheck-exports")
}

// ensureRun evaluates the threat model once
func (ts *Toolset) ensureRun() (*check.Run, error) {
	ts.once.Do(func() {
		ts.run, ts.err = check.Execute(ts.cfg, ts.logger)
	})
	if ts.err != nil {
		return nil, fmt.Errorf("failed to evaluate threat model: %w", ts.err)
	}
	return ts.run, nil
}

// --- Tool Input/Output Types ---

// SearchThreatsParams for search_threats tool
type SearchThreatsParams struct {
	Query         string `json:"query,omitempty" jsonschema:"Search term to match against threat ID, name, category or business impact"`
	Stride        string `json:"stride,omitempty" jsonschema:"Filter by STRIDE category (e.g. Tampering)"`
	MinRisk       int    `json:"min_risk,omitempty" jsonschema:"Only return threats whose canonical risk is at least this value (1-9)"`
	UncoveredOnly bool   `json:"uncovered_only,omitempty" jsonschema:"Only return threats no control addresses"`
	Limit         int    `json:"limit,omitempty" jsonschema:"Maximum number of results to return (default 10)"`
}

// ThreatSummary is a condensed view of a threat
type ThreatSummary struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Stride        string   `json:"stride_category"`
	Likelihood    string   `json:"likelihood"`
	Impact        string   `json:"impact"`
	CanonicalRisk int      `json:"canonical_risk"`
	RiskLevel     string   `json:"risk_level"`
	AddressedBy   []string `json:"addressed_by"`
}

// SearchThreatsResult for search_threats tool
type SearchThreatsResult struct {
	Count   int             `json:"count"`
	Total   int             `json:"total"`
	Results []ThreatSummary `json:"results"`
}

// GetThreatParams for get_threat tool
type GetThreatParams struct {
	ThreatID string `json:"threat_id" jsonschema:"The threat ID to look up (e.g., ML-001)"`
}

// GetThreatResult for get_threat tool
type GetThreatResult struct {
	Found               bool     `json:"found"`
	ID                  string   `json:"id,omitempty"`
	Name                string   `json:"name,omitempty"`
	Category            string   `json:"category,omitempty"`
	Stride              string   `json:"stride_category,omitempty"`
	Likelihood          string   `json:"likelihood,omitempty"`
	Impact              string   `json:"impact,omitempty"`
	DeclaredRisk        float64  `json:"declared_risk_score,omitempty"`
	CanonicalRisk       int      `json:"canonical_risk_score,omitempty"`
	RiskConsistent      bool     `json:"risk_consistent,omitempty"`
	BusinessImpact      string   `json:"business_impact,omitempty"`
	AnnualExposure      float64  `json:"annual_exposure,omitempty"`
	AttackScenarios     []string `json:"attack_scenarios,omitempty"`
	DetectionMethods    []string `json:"detection_methods,omitempty"`
	RecommendedControls []string `json:"recommended_controls,omitempty"`
	AddressedBy         []string `json:"addressed_by,omitempty"`
	Gaps                []string `json:"gaps,omitempty"`
}

// SearchControlsParams for search_controls tool
type SearchControlsParams struct {
	Query       string `json:"query,omitempty" jsonschema:"Search term to match against control ID, name or description"`
	Status      string `json:"status,omitempty" jsonschema:"Filter by implementation status (Implemented, Partial, Planned, Research, Not Started)"`
	FailingOnly bool   `json:"failing_only,omitempty" jsonschema:"Only return controls that fail their test"`
	Limit       int    `json:"limit,omitempty" jsonschema:"Maximum number of results to return (default 10)"`
}

// ControlSummary is a condensed view of a control
type ControlSummary struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Category      string   `json:"category"`
	Status        string   `json:"implementation_status"`
	Effectiveness float64  `json:"effectiveness_score"`
	TestPassed    bool     `json:"test_passed"`
	Threats       []string `json:"threats_addressed"`
}

// SearchControlsResult for search_controls tool
type SearchControlsResult struct {
	Count   int              `json:"count"`
	Total   int              `json:"total"`
	Results []ControlSummary `json:"results"`
}

// GetControlParams for get_control tool
type GetControlParams struct {
	ControlID string `json:"control_id" jsonschema:"The control ID to look up (e.g., SC-001)"`
}

// GetControlResult for get_control tool
type GetControlResult struct {
	Found            bool     `json:"found"`
	ID               string   `json:"id,omitempty"`
	Name             string   `json:"name,omitempty"`
	Category         string   `json:"category,omitempty"`
	Status           string   `json:"implementation_status,omitempty"`
	Description      string   `json:"description,omitempty"`
	Effectiveness    float64  `json:"effectiveness_score,omitempty"`
	Maintenance      string   `json:"maintenance_overhead,omitempty"`
	TechnicalDetails []string `json:"technical_details,omitempty"`
	Threats          []string `json:"threats_addressed,omitempty"`
	Dependencies     []string `json:"dependencies,omitempty"`
	TestPassed       bool     `json:"test_passed,omitempty"`
	TestReason       string   `json:"test_reason,omitempty"`
	Priority         string   `json:"priority,omitempty"`
}

// ListGapsParams for list_gaps tool
type ListGapsParams struct {
	Kind string `json:"kind,omitempty" jsonschema:"Filter by gap kind: dangling-reference, coverage or risk-matrix"`
}

// GapEntry is one validation finding
type GapEntry struct {
	Kind    string `json:"kind"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// ListGapsResult for list_gaps tool
type ListGapsResult struct {
	Status       string     `json:"validation_status"`
	GapTolerance int        `json:"gap_tolerance"`
	Count        int        `json:"count"`
	Gaps         []GapEntry `json:"gaps"`
	Errors       []string   `json:"errors,omitempty"`
}

// ExportParams for export_reports tool
type ExportParams struct {
	Artifact string `json:"artifact,omitempty" jsonschema:"Artifact file name to export (e.g. risk-register.csv); all artifacts when empty"`
}

// ExportResult for export_reports tool
type ExportResult struct {
	Success bool     `json:"success"`
	Files   []string `json:"files,omitempty"`
	Message string   `json:"message"`
}

// --- Tool Implementations ---

func threatSummary(cat *model.Catalog, t model.Threat) ThreatSummary {
	risk := t.CanonicalRisk()
	return ThreatSummary{
		ID:            t.ID,
		Name:          t.Name,
		Stride:        string(t.Stride),
		Likelihood:    string(t.Likelihood),
		Impact:        string(t.Impact),
		CanonicalRisk: risk,
		RiskLevel:     model.RiskBand(float64(risk)),
		AddressedBy:   cat.ControlsFor(t.ID),
	}
}

func matches(query string, fields ...string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	return limit
}

// searchThreats filters threats, highest canonical risk first
func (ts *Toolset) searchThreats(ctx tool.Context, params SearchThreatsParams) (SearchThreatsResult, error) {
	run, err := ts.ensureRun()
	if err != nil {
		return SearchThreatsResult{}, err
	}
	cat := run.Catalog

	var results []ThreatSummary
	for _, t := range cat.SortedThreats() {
		if !matches(params.Query, t.ID, t.Name, t.Category, t.BusinessImpact) {
			continue
		}
		if params.Stride != "" && !strings.EqualFold(string(t.Stride), params.Stride) {
			continue
		}
		if t.CanonicalRisk() < params.MinRisk {
			continue
		}
		if params.UncoveredOnly && len(cat.ControlsFor(t.ID)) > 0 {
			continue
		}
		results = append(results, threatSummary(cat, t))
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].CanonicalRisk > results[j].CanonicalRisk
	})

	total := len(results)
	if limit := limitOrDefault(params.Limit); len(results) > limit {
		results = results[:limit]
	}
	return SearchThreatsResult{Count: len(results), Total: total, Results: results}, nil
}

// getThreat returns the full record with computed risk and exposure
func (ts *Toolset) getThreat(ctx tool.Context, params GetThreatParams) (GetThreatResult, error) {
	run, err := ts.ensureRun()
	if err != nil {
		return GetThreatResult{}, err
	}

	id := strings.ToUpper(strings.TrimSpace(params.ThreatID))
	t, ok := run.Catalog.Threat(id)
	if !ok {
		return GetThreatResult{Found: false}, nil
	}

	exposure, _ := run.Posture.Exposure(t.ID)
	var gaps []string
	for _, g := range run.Validation.Gaps {
		if g.Subject == t.ID {
			gaps = append(gaps, g.Message)
		}
	}

	return GetThreatResult{
		Found:               true,
		ID:                  t.ID,
		Name:                t.Name,
		Category:            t.Category,
		Stride:              string(t.Stride),
		Likelihood:          string(t.Likelihood),
		Impact:              string(t.Impact),
		DeclaredRisk:        t.RiskScore,
		CanonicalRisk:       t.CanonicalRisk(),
		RiskConsistent:      t.RiskConsistent(),
		BusinessImpact:      t.BusinessImpact,
		AnnualExposure:      exposure.Annual,
		AttackScenarios:     t.AttackScenarios,
		DetectionMethods:    t.DetectionMethods,
		RecommendedControls: t.RecommendedControls,
		AddressedBy:         run.Catalog.ControlsFor(t.ID),
		Gaps:                gaps,
	}, nil
}

func (ts *Toolset) searchControls(ctx tool.Context, params SearchControlsParams) (SearchControlsResult, error) {
	run, err := ts.ensureRun()
	if err != nil {
		return SearchControlsResult{}, err
	}

	var results []ControlSummary
	for _, c := range run.Catalog.SortedControls() {
		if !matches(params.Query, c.ID, c.Name, c.Description) {
			continue
		}
		if params.Status != "" && !strings.EqualFold(string(c.Status), params.Status) {
			continue
		}
		test, _ := run.Posture.Test(c.ID)
		if params.FailingOnly && test.Passed {
			continue
		}
		results = append(results, ControlSummary{
			ID:            c.ID,
			Name:          c.Name,
			Category:      string(c.Category),
			Status:        string(c.Status),
			Effectiveness: c.Effectiveness,
			TestPassed:    test.Passed,
			Threats:       c.ThreatsAddressed,
		})
	}

	total := len(results)
	if limit := limitOrDefault(params.Limit); len(results) > limit {
		results = results[:limit]
	}
	return SearchControlsResult{Count: len(results), Total: total, Results: results}, nil
}

func (ts *Toolset) getControl(ctx tool.Context, params GetControlParams) (GetControlResult, error) {
	run, err := ts.ensureRun()
	if err != nil {
		return GetControlResult{}, err
	}

	id := strings.ToUpper(strings.TrimSpace(params.ControlID))
	c, ok := run.Catalog.Control(id)
	if !ok {
		return GetControlResult{Found: false}, nil
	}

	test, _ := run.Posture.Test(c.ID)
	return GetControlResult{
		Found:            true,
		ID:               c.ID,
		Name:             c.Name,
		Category:         string(c.Category),
		Status:           string(c.Status),
		Description:      c.Description,
		Effectiveness:    c.Effectiveness,
		Maintenance:      string(c.MaintenanceOverhead),
		TechnicalDetails: c.TechnicalDetails,
		Threats:          c.ThreatsAddressed,
		Dependencies:     c.Dependencies,
		TestPassed:       test.Passed,
		TestReason:       test.Reason,
		Priority:         c.Priority(),
	}, nil
}

func (ts *Toolset) listGaps(ctx tool.Context, params ListGapsParams) (ListGapsResult, error) {
	run, err := ts.ensureRun()
	if err != nil {
		return ListGapsResult{}, err
	}
	v := run.Validation

	gaps := []GapEntry{}
	for _, g := range v.Gaps {
		if params.Kind != "" && !strings.EqualFold(string(g.Kind), params.Kind) {
			continue
		}
		gaps = append(gaps, GapEntry{Kind: string(g.Kind), Subject: g.Subject, Message: g.Message})
	}

	return ListGapsResult{
		Status:       string(v.Status),
		GapTolerance: v.GapTolerance,
		Count:        len(gaps),
		Gaps:         gaps,
		Errors:       v.ErrorStrings(),
	}, nil
}

// exportReports writes artifacts into the export directory only
func (ts *Toolset) exportReports(ctx tool.Context, params ExportParams) (ExportResult, error) {
	run, err := ts.ensureRun()
	if err != nil {
		return ExportResult{Success: false, Message: err.Error()}, nil
	}

	if err := os.MkdirAll(ts.exportDir, 0700); err != nil {
		return ExportResult{Success: false, Message: fmt.Sprintf("failed to create export directory: %v", err)}, nil
	}
	emitter := report.NewEmitter(ts.exportDir)

	if params.Artifact == "" {
		results, err := emitter.Emit(run)
		var files []string
		for _, r := range results {
			if r.Err == nil {
				files = append(files, r.FilePath)
			}
		}
		if err != nil {
			return ExportResult{Success: false, Files: files, Message: err.Error()}, nil
		}
		return ExportResult{
			Success: true,
			Files:   files,
			Message: fmt.Sprintf("Exported %d artifacts to %s", len(files), ts.exportDir),
		}, nil
	}

	// Base name only, no directory components
	name := filepath.Base(strings.TrimSpace(params.Artifact))
	for _, a := range report.Artifacts {
		if a.Filename() != name {
			continue
		}
		res := emitter.Write(run, a)
		if res.Err != nil {
			return ExportResult{Success: false, Message: res.Err.Error()}, nil
		}
		return ExportResult{Success: true, Files: []string{res.FilePath}, Message: "Exported " + res.FilePath}, nil
	}

	names := make([]string, 0, len(report.Artifacts))
	for _, a := range report.Artifacts {
		names = append(names, a.Filename())
	}
	return ExportResult{
		Success: false,
		Message: fmt.Sprintf("unknown artifact %q (available: %s)", name, strings.Join(names, ", ")),
	}, nil
}

// CreateTools creates the catalog tools for the agent
func (ts *Toolset) CreateTools() ([]tool.Tool, error) {
	searchThreatsTool, err := functiontool.New(
		functiontool.Config{
			Name:        "search_threats",
			Description: "Search the threat catalog by keyword, STRIDE category or minimum canonical risk. Results are ordered by risk, highest first.",
		},
		ts.searchThreats,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create search_threats tool: %w", err)
	}

	getThreatTool, err := functiontool.New(
		functiontool.Config{
			Name:        "get_threat",
			Description: "Get full details of a threat: declared and canonical risk, annual exposure, attack scenarios and the controls addressing it.",
		},
		ts.getThreat,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create get_threat tool: %w", err)
	}

	searchControlsTool, err := functiontool.New(
		functiontool.Config{
			Name:        "search_controls",
			Description: "Search security controls by keyword or implementation status, optionally only those failing their test.",
		},
		ts.searchControls,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create search_controls tool: %w", err)
	}

	getControlTool, err := functiontool.New(
		functiontool.Config{
			Name:        "get_control",
			Description: "Get full details of a security control including its test result and roadmap priority.",
		},
		ts.getControl,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create get_control tool: %w", err)
	}

	gapsTool, err := functiontool.New(
		functiontool.Config{
			Name:        "list_gaps",
			Description: "List validation gaps (dangling references, uncovered threats, risk matrix mismatches) and the validation status.",
		},
		ts.listGaps,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create list_gaps tool: %w", err)
	}

	exportTool, err := functiontool.New(
		functiontool.Config{
			Name:        "export_reports",
			Description: "Write the report artifacts (JSON, Markdown, CSV, Prometheus textfile) to ~/.tmcheck-exports/.",
		},
		ts.exportReports,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create export_reports tool: %w", err)
	}

	return []tool.Tool{searchThreatsTool, getThreatTool, searchControlsTool, getControlTool, gapsTool, exportTool}, nil
}
