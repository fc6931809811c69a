package agent

import (
	"fmt"
	"math"

	"github.com/ethanolivertroy/tmcheck/internal/model"
	"github.com/ethanolivertroy/tmcheck/internal/report"
	"github.com/ethanolivertroy/tmcheck/internal/tui"
	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"
)

// ============================================================================
// get_posture
// ============================================================================

// PostureParams for get_posture tool
type PostureParams struct{}

// PostureResult for get_posture tool
type PostureResult struct {
	Score                float64  `json:"overall_score"`
	Target               float64  `json:"target"`
	Posture              string   `json:"posture"`
	ValidationStatus     string   `json:"validation_status"`
	Trend                string   `json:"trend"`
	PreviousScore        *float64 `json:"previous_score,omitempty"`
	ImplementedControls  int      `json:"implemented_controls"`
	TotalControls        int      `json:"total_controls"`
	PassedTests          int      `json:"passed_tests"`
	FailedTests          int      `json:"failed_tests"`
	AverageEffectiveness float64  `json:"average_effectiveness"`
	StrideCoverage       float64  `json:"stride_coverage_percent"`
	MissingStride        []string `json:"missing_stride_categories,omitempty"`
	Outcome              string   `json:"ci_outcome"`
	ExitCode             int      `json:"ci_exit_code"`
	Recommendations      []string `json:"recommendations,omitempty"`
}

func (ts *Toolset) getPosture(ctx tool.Context, params PostureParams) (PostureResult, error) {
	run, err := ts.ensureRun()
	if err != nil {
		return PostureResult{}, err
	}
	p := run.Posture

	var missing []string
	for _, s := range run.Validation.Stride.Missing {
		missing = append(missing, string(s))
	}

	recs := append([]string{}, run.Validation.Recommendations...)
	recs = append(recs, p.Recommendations...)

	outcome := run.Outcome()
	return PostureResult{
		Score:                round2(p.Score),
		Target:               80,
		Posture:              string(p.Posture),
		ValidationStatus:     string(run.Validation.Status),
		Trend:                string(run.Trend),
		PreviousScore:        run.Baseline,
		ImplementedControls:  p.Summary.ImplementedControls,
		TotalControls:        p.Summary.TotalControls,
		PassedTests:          p.Summary.PassedTests,
		FailedTests:          p.Summary.FailedTests,
		AverageEffectiveness: round2(p.Summary.AverageEffectiveness),
		StrideCoverage:       round2(run.Validation.Stride.Percent),
		MissingStride:        missing,
		Outcome:              outcome.String(),
		ExitCode:             outcome.ExitCode(),
		Recommendations:      recs,
	}, nil
}

// ============================================================================
// get_risk_statistics
// ============================================================================

// RiskStatsParams for get_risk_statistics tool
type RiskStatsParams struct{}

// RiskStatsResult for get_risk_statistics tool
type RiskStatsResult struct {
	TotalThreats       int            `json:"total_threats"`
	High               int            `json:"high_risk"`
	Medium             int            `json:"medium_risk"`
	Low                int            `json:"low_risk"`
	AverageRisk        float64        `json:"average_risk_score"`
	TotalEstimatedCost float64        `json:"total_estimated_cost"`
	ByStride           map[string]int `json:"by_stride"`
	Inconsistent       []string       `json:"inconsistent_risk_scores,omitempty"`
}

func (ts *Toolset) getRiskStatistics(ctx tool.Context, params RiskStatsParams) (RiskStatsResult, error) {
	run, err := ts.ensureRun()
	if err != nil {
		return RiskStatsResult{}, err
	}
	v := run.Validation

	byStride := make(map[string]int, len(model.StrideCategories))
	for _, s := range model.StrideCategories {
		byStride[string(s)] = v.Stride.ByStride[s]
	}

	var inconsistent []string
	for _, t := range run.Catalog.SortedThreats() {
		if t.RiskDeclared && !t.RiskConsistent() {
			inconsistent = append(inconsistent, fmt.Sprintf("%s declared %g, matrix %d", t.ID, t.RiskScore, t.CanonicalRisk()))
		}
	}

	return RiskStatsResult{
		TotalThreats:       v.TotalThreats,
		High:               v.Risk.High,
		Medium:             v.Risk.Medium,
		Low:                v.Risk.Low,
		AverageRisk:        round2(v.Risk.AverageRisk),
		TotalEstimatedCost: v.Risk.TotalEstimatedCost,
		ByStride:           byStride,
		Inconsistent:       inconsistent,
	}, nil
}

// ============================================================================
// get_exposure
// ============================================================================

// ExposureParams for get_exposure tool
type ExposureParams struct {
	TopN int `json:"top_n,omitempty" jsonschema:"Number of threats to return, largest exposure first (default 10)"`
}

// ExposureEntry is the annual exposure of one threat
type ExposureEntry struct {
	ThreatID string  `json:"threat_id"`
	Name     string  `json:"name"`
	Annual   float64 `json:"annual_exposure"`
	Display  string  `json:"display"`
}

// ExposureResult for get_exposure tool
type ExposureResult struct {
	TotalExposure   float64         `json:"total_annual_exposure"`
	TotalDisplay    string          `json:"total_display"`
	TotalInvestment float64         `json:"total_security_investment"`
	ProtectedValue  float64         `json:"protected_value"`
	Threats         []ExposureEntry `json:"threats"`
}

func (ts *Toolset) getExposure(ctx tool.Context, params ExposureParams) (ExposureResult, error) {
	run, err := ts.ensureRun()
	if err != nil {
		return ExposureResult{}, err
	}

	entries := []ExposureEntry{}
	for _, c := range tui.GetTopExposures(run, limitOrDefault(params.TopN)) {
		t, _ := run.Catalog.Threat(c.Name)
		entries = append(entries, ExposureEntry{
			ThreatID: c.Name,
			Name:     t.Name,
			Annual:   c.Value,
			Display:  model.FormatDollars(c.Value),
		})
	}

	investment := run.Posture.Summary.TotalInvestment
	return ExposureResult{
		TotalExposure:   run.Posture.TotalExposure,
		TotalDisplay:    model.FormatDollars(run.Posture.TotalExposure),
		TotalInvestment: investment,
		ProtectedValue:  run.Posture.TotalExposure - investment,
		Threats:         entries,
	}, nil
}

// ============================================================================
// get_roadmap
// ============================================================================

// RoadmapParams for get_roadmap tool
type RoadmapParams struct {
	HighPriorityOnly bool `json:"high_priority_only,omitempty" jsonschema:"Only return High priority controls (effectiveness 7 or above)"`
}

// RoadmapResult for get_roadmap tool
type RoadmapResult struct {
	Count int                  `json:"count"`
	Items []report.RoadmapItem `json:"items"`
}

func (ts *Toolset) getRoadmap(ctx tool.Context, params RoadmapParams) (RoadmapResult, error) {
	run, err := ts.ensureRun()
	if err != nil {
		return RoadmapResult{}, err
	}

	items := []report.RoadmapItem{}
	for _, item := range report.Roadmap(run.Catalog.SortedControls()) {
		if params.HighPriorityOnly && item.Priority != "High" {
			continue
		}
		items = append(items, item)
	}
	return RoadmapResult{Count: len(items), Items: items}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// CreateAnalyticsTools creates the posture and exposure tools for the agent
func (ts *Toolset) CreateAnalyticsTools() ([]tool.Tool, error) {
	postureTool, err := functiontool.New(
		functiontool.Config{
			Name:        "get_posture",
			Description: "Get the overall security score (0-100, target 80), posture (STRONG, ACCEPTABLE, WEAK), validation status, trend and recommendations.",
		},
		ts.getPosture,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create get_posture tool: %w", err)
	}

	riskTool, err := functiontool.New(
		functiontool.Config{
			Name:        "get_risk_statistics",
			Description: "Get threat counts by risk band and STRIDE category, average risk and threats whose declared risk disagrees with the matrix.",
		},
		ts.getRiskStatistics,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create get_risk_statistics tool: %w", err)
	}

	exposureTool, err := functiontool.New(
		functiontool.Config{
			Name:        "get_exposure",
			Description: "Get annualised financial exposure per threat (likelihood probability times business impact), total investment and protected value.",
		},
		ts.getExposure,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create get_exposure tool: %w", err)
	}

	roadmapTool, err := functiontool.New(
		functiontool.Config{
			Name:        "get_roadmap",
			Description: "Get the implementation roadmap: controls not yet Implemented with priority, effort, cost and dependencies.",
		},
		ts.getRoadmap,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create get_roadmap tool: %w", err)
	}

	return []tool.Tool{postureTool, riskTool, exposureTool, roadmapTool}, nil
}
