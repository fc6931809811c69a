package report

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/ethanolivertroy/tmcheck/internal/check"
	"github.com/ethanolivertroy/tmcheck/internal/grc"
	"github.com/ethanolivertroy/tmcheck/internal/model"
	"github.com/ethanolivertroy/tmcheck/internal/score"
)

// maxKeyRecommendations caps the list shown to non-technical readers
const maxKeyRecommendations = 5

// ExecutiveSummary is the shape of executive-summary.json
type ExecutiveSummary struct {
	ReportType         string            `json:"report_type"`
	Timestamp          string            `json:"timestamp"`
	SecurityPosture    SecurityPosture   `json:"security_posture"`
	ThreatLandscape    ThreatLandscape   `json:"threat_landscape"`
	FinancialImpact    FinancialImpact   `json:"financial_impact"`
	ComplianceStatus   map[string]string `json:"compliance_status"`
	ValidationStatus   string            `json:"validation_status"`
	KeyRecommendations []string          `json:"key_recommendations"`
}

// SecurityPosture is the headline score
type SecurityPosture struct {
	OverallScore float64 `json:"overall_score"`
	Posture      string  `json:"posture"`
	TargetScore  float64 `json:"target_score"`
	Trend        string  `json:"trend"`
}

// ThreatLandscape summarises the threat catalog
type ThreatLandscape struct {
	TotalThreats             int     `json:"total_threats"`
	HighRisk                 int     `json:"high_risk"`
	MediumRisk               int     `json:"medium_risk"`
	LowRisk                  int     `json:"low_risk"`
	CoverageGaps             int     `json:"coverage_gaps"`
	StrideCoveragePercentage float64 `json:"stride_coverage_percentage"`
}

// FinancialImpact holds the portfolio dollar figures
type FinancialImpact struct {
	TotalAnnualExposure     float64 `json:"total_annual_exposure"`
	TotalSecurityInvestment float64 `json:"total_security_investment"`
	ProtectedValue          float64 `json:"protected_value"`
	Display                 Display `json:"display"`
}

// Display carries the same figures formatted for people
type Display struct {
	TotalAnnualExposure     string `json:"total_annual_exposure"`
	TotalSecurityInvestment string `json:"total_security_investment"`
	ProtectedValue          string `json:"protected_value"`
}

// BuildExecutiveSummary produces the portfolio-level view
func BuildExecutiveSummary(run *check.Run, ts string) ExecutiveSummary {
	v, p := run.Validation, run.Posture

	exposure := p.TotalExposure
	investment := p.Summary.TotalInvestment
	protected := exposure - investment

	status := make(map[string]string, len(run.Compliance))
	for _, r := range run.Compliance {
		status[r.Regulation] = string(r.Status)
	}

	return ExecutiveSummary{
		ReportType: "Executive Summary",
		Timestamp:  ts,
		SecurityPosture: SecurityPosture{
			OverallScore: p.Score,
			Posture:      string(p.Posture),
			TargetScore:  score.Target,
			Trend:        string(run.Trend),
		},
		ThreatLandscape: ThreatLandscape{
			TotalThreats:             v.TotalThreats,
			HighRisk:                 v.Risk.High,
			MediumRisk:               v.Risk.Medium,
			LowRisk:                  v.Risk.Low,
			CoverageGaps:             countGaps(v, model.GapCoverage),
			StrideCoveragePercentage: v.Stride.Percent,
		},
		FinancialImpact: FinancialImpact{
			TotalAnnualExposure:     exposure,
			TotalSecurityInvestment: investment,
			ProtectedValue:          protected,
			Display: Display{
				TotalAnnualExposure:     model.FormatDollars(exposure),
				TotalSecurityInvestment: model.FormatDollars(investment),
				ProtectedValue:          model.FormatDollars(protected),
			},
		},
		ComplianceStatus:   status,
		ValidationStatus:   string(v.Status),
		KeyRecommendations: keyRecommendations(run),
	}
}

func countGaps(v model.ValidationReport, kind model.GapKind) int {
	n := 0
	for _, g := range v.Gaps {
		if g.Kind == kind {
			n++
		}
	}
	return n
}

// keyRecommendations puts validation findings first, then control findings
func keyRecommendations(run *check.Run) []string {
	var all []string
	all = append(all, run.Validation.Recommendations...)
	all = append(all, run.Posture.Recommendations...)
	if len(all) > maxKeyRecommendations {
		all = all[:maxKeyRecommendations]
	}
	return strs(all)
}

const executiveTemplate = `# Threat Model Executive Summary

**Generated:** {{ .Timestamp }}

## Security Posture

- **Overall score:** {{ printf "%.2f" .Score }} / 100 (target {{ printf "%.0f" .Target }})
- **Posture:** {{ .Posture }}
- **Validation:** {{ .ValidationStatus }}
- **Trend:** {{ .Trend | title }}

## Threat Landscape

| Risk level | Threats |
|------------|---------|
| High | {{ .HighRisk }} |
| Medium | {{ .MediumRisk }} |
| Low | {{ .LowRisk }} |
| **Total** | **{{ .TotalThreats }}** |

STRIDE coverage: {{ printf "%.1f" .StrideCoverage }}%{{ if .MissingStride }} (missing: {{ join ", " .MissingStride }}){{ end }}

## Financial Impact

- **Annual risk exposure:** {{ dollars .Exposure }}
- **Security investment:** {{ dollars .Investment }}
- **Protected value:** {{ dollars .Protected }}
{{ if .Compliance }}
## Compliance

| Regulation | Requirements | Controls | Status |
|------------|--------------|----------|--------|
{{- range .Compliance }}
| {{ .Regulation }} | {{ .Requirements }} | {{ .Controls }} | {{ if eq (toString .Status) "COMPLIANT" }}{{ .Status }}{{ else }}**{{ .Status }}**{{ end }} |
{{- end }}
{{ end }}
{{- if .Recommendations }}
## Key Recommendations
{{ range $i, $r := .Recommendations }}
{{ add1 $i }}. {{ $r }}
{{- end }}
{{ end }}
---

*Generated by tmcheck*
`

// executiveData flattens the run for the markdown template
type executiveData struct {
	Timestamp        string
	Score            float64
	Target           float64
	Posture          string
	ValidationStatus string
	Trend            string
	HighRisk         int
	MediumRisk       int
	LowRisk          int
	TotalThreats     int
	StrideCoverage   float64
	MissingStride    []string
	Exposure         float64
	Investment       float64
	Protected        float64
	Compliance       []grc.RegulationResult
	Recommendations  []string
}

// RenderExecutiveMarkdown renders the executive summary as Markdown
func RenderExecutiveMarkdown(run *check.Run, ts string) (string, error) {
	summary := BuildExecutiveSummary(run, ts)

	data := executiveData{
		Timestamp:        ts,
		Score:            summary.SecurityPosture.OverallScore,
		Target:           summary.SecurityPosture.TargetScore,
		Posture:          summary.SecurityPosture.Posture,
		ValidationStatus: summary.ValidationStatus,
		Trend:            summary.SecurityPosture.Trend,
		HighRisk:         summary.ThreatLandscape.HighRisk,
		MediumRisk:       summary.ThreatLandscape.MediumRisk,
		LowRisk:          summary.ThreatLandscape.LowRisk,
		TotalThreats:     summary.ThreatLandscape.TotalThreats,
		StrideCoverage:   summary.ThreatLandscape.StrideCoveragePercentage,
		Exposure:         summary.FinancialImpact.TotalAnnualExposure,
		Investment:       summary.FinancialImpact.TotalSecurityInvestment,
		Protected:        summary.FinancialImpact.ProtectedValue,
		Compliance:       run.Compliance,
		Recommendations:  summary.KeyRecommendations,
	}
	for _, s := range run.Validation.Stride.Missing {
		data.MissingStride = append(data.MissingStride, string(s))
	}

	funcMap := sprig.TxtFuncMap()
	funcMap["dollars"] = model.FormatDollars

	tmpl, err := template.New("executive-summary").Funcs(funcMap).Parse(executiveTemplate)
	if err != nil {
		return "", fmt.Errorf("template parse error: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("template execute error: %w", err)
	}
	return buf.String(), nil
}

func writeExecutiveMarkdown(path string, run *check.Run, ts string) error {
	md, err := RenderExecutiveMarkdown(run, ts)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(md), 0644)
}
