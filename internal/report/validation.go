package report

import (
	"github.com/ethanolivertroy/tmcheck/internal/check"
)

// ValidationReport is the shape of validation-report.json
type ValidationReport struct {
	ValidationStatus string         `json:"validation_status"`
	ThreatCoverage   ThreatCoverage `json:"threat_coverage"`
	Errors           []string       `json:"errors"`
	GapTolerance     int            `json:"gap_tolerance"`
	RiskStatistics   RiskStatistics `json:"risk_statistics"`
	Recommendations  []string       `json:"recommendations"`
	Timestamp        string         `json:"timestamp"`
}

// ThreatCoverage lists the gaps and STRIDE coverage
type ThreatCoverage struct {
	TotalThreats     int              `json:"total_threats"`
	Gaps             []string         `json:"gaps"`
	CoverageAnalysis CoverageAnalysis `json:"coverage_analysis"`
}

// CoverageAnalysis is informational and never gates the run
type CoverageAnalysis struct {
	StrideCategoriesCovered []string       `json:"stride_categories_covered"`
	StrideCategoriesMissing []string       `json:"stride_categories_missing"`
	CoveragePercentage      float64        `json:"coverage_percentage"`
	ThreatsByStride         map[string]int `json:"threats_by_stride"`
}

// RiskStatistics buckets threats by canonical risk
type RiskStatistics struct {
	HighRisk           int     `json:"high_risk_threats"`
	MediumRisk         int     `json:"medium_risk_threats"`
	LowRisk            int     `json:"low_risk_threats"`
	AverageRiskScore   float64 `json:"average_risk_score"`
	TotalEstimatedCost float64 `json:"total_estimated_cost"`
}

// BuildValidationReport converts the validator output
func BuildValidationReport(run *check.Run, ts string) ValidationReport {
	v := run.Validation

	analysis := CoverageAnalysis{
		StrideCategoriesCovered: []string{},
		StrideCategoriesMissing: []string{},
		CoveragePercentage:      v.Stride.Percent,
		ThreatsByStride:         make(map[string]int),
	}
	for _, s := range v.Stride.Covered {
		analysis.StrideCategoriesCovered = append(analysis.StrideCategoriesCovered, string(s))
	}
	for _, s := range v.Stride.Missing {
		analysis.StrideCategoriesMissing = append(analysis.StrideCategoriesMissing, string(s))
	}
	for s, n := range v.Stride.ByStride {
		analysis.ThreatsByStride[string(s)] = n
	}

	return ValidationReport{
		ValidationStatus: string(v.Status),
		ThreatCoverage: ThreatCoverage{
			TotalThreats:     v.TotalThreats,
			Gaps:             v.GapStrings(),
			CoverageAnalysis: analysis,
		},
		Errors:       v.ErrorStrings(),
		GapTolerance: v.GapTolerance,
		RiskStatistics: RiskStatistics{
			HighRisk:           v.Risk.High,
			MediumRisk:         v.Risk.Medium,
			LowRisk:            v.Risk.Low,
			AverageRiskScore:   v.Risk.AverageRisk,
			TotalEstimatedCost: v.Risk.TotalEstimatedCost,
		},
		Recommendations: strs(v.Recommendations),
		Timestamp:       ts,
	}
}

// ControlTestResults is the shape of control-test-results.json
type ControlTestResults struct {
	OverallSecurityPosture  string             `json:"overall_security_posture"`
	Summary                 ControlTestSummary `json:"summary"`
	PerControl              []ControlResult    `json:"per_control"`
	CriticalRecommendations []string           `json:"critical_recommendations"`
	Timestamp               string             `json:"timestamp"`
}

// ControlTestSummary holds the aggregate counts
type ControlTestSummary struct {
	OverallSecurityScore float64 `json:"overall_security_score"`
	TotalControls        int     `json:"total_controls"`
	ImplementedControls  int     `json:"implemented_controls"`
	ImplementationRate   float64 `json:"implementation_rate"`
	PassedTests          int     `json:"passed_tests"`
	FailedTests          int     `json:"failed_tests"`
	AverageEffectiveness float64 `json:"average_effectiveness"`
}

// ControlResult is one control's test outcome
type ControlResult struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Reason string `json:"reason"`
}

// BuildControlTestResults converts the scorer output
func BuildControlTestResults(run *check.Run, ts string) ControlTestResults {
	p := run.Posture
	out := ControlTestResults{
		OverallSecurityPosture: string(p.Posture),
		Summary: ControlTestSummary{
			OverallSecurityScore: p.Score,
			TotalControls:        p.Summary.TotalControls,
			ImplementedControls:  p.Summary.ImplementedControls,
			ImplementationRate:   p.Summary.ImplementationRate,
			PassedTests:          p.Summary.PassedTests,
			FailedTests:          p.Summary.FailedTests,
			AverageEffectiveness: p.Summary.AverageEffectiveness,
		},
		PerControl:              make([]ControlResult, 0, len(p.Controls)),
		CriticalRecommendations: strs(p.Recommendations),
		Timestamp:               ts,
	}
	for _, t := range p.Controls {
		out.PerControl = append(out.PerControl, ControlResult{
			ID:     t.ID,
			Name:   t.Name,
			Passed: t.Passed,
			Reason: t.Reason,
		})
	}
	return out
}
