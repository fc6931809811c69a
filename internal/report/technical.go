package report

import (
	"sort"

	"github.com/ethanolivertroy/tmcheck/internal/check"
	"github.com/ethanolivertroy/tmcheck/internal/grc"
	"github.com/ethanolivertroy/tmcheck/internal/model"
)

// TechnicalReport is the shape of technical-report.json
type TechnicalReport struct {
	ReportType            string          `json:"report_type"`
	Timestamp             string          `json:"timestamp"`
	ThreatAnalysis        ThreatAnalysis  `json:"threat_analysis"`
	Threats               []ThreatDetail  `json:"threats"`
	ControlAnalysis       ControlAnalysis `json:"control_analysis"`
	Controls              []ControlDetail `json:"controls"`
	ImplementationRoadmap []RoadmapItem   `json:"implementation_roadmap"`
}

// ThreatAnalysis counts threats along three axes
type ThreatAnalysis struct {
	ByCategory  map[string]int `json:"by_category"`
	ByStride    map[string]int `json:"by_stride"`
	ByRiskLevel map[string]int `json:"by_risk_level"`
}

// ThreatDetail is one threat with its computed fields
type ThreatDetail struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	Category            string   `json:"category"`
	StrideCategory      string   `json:"stride_category"`
	Likelihood          string   `json:"likelihood"`
	Impact              string   `json:"impact"`
	DeclaredRiskScore   float64  `json:"declared_risk_score"`
	RiskDeclared        bool     `json:"risk_declared"`
	CanonicalRiskScore  int      `json:"canonical_risk_score"`
	RiskConsistent      bool     `json:"risk_consistent"`
	RiskLevel           string   `json:"risk_level"`
	BusinessImpact      string   `json:"business_impact"`
	AnnualExposure      float64  `json:"annual_exposure"`
	AttackScenarios     []string `json:"attack_scenarios"`
	DetectionMethods    []string `json:"detection_methods"`
	CurrentControls     string   `json:"current_controls,omitempty"`
	RecommendedControls []string `json:"recommended_controls"`
	AddressedBy         []string `json:"addressed_by"`
	EstimatedCost       string   `json:"estimated_cost,omitempty"`
}

// ControlAnalysis counts controls by category and status
type ControlAnalysis struct {
	ByCategory map[string]int `json:"by_category"`
	ByStatus   map[string]int `json:"by_status"`
}

// ControlDetail is one control with its test outcome
type ControlDetail struct {
	ID                   string   `json:"id"`
	Name                 string   `json:"name"`
	Category             string   `json:"category"`
	ImplementationStatus string   `json:"implementation_status"`
	EffectivenessScore   float64  `json:"effectiveness_score"`
	MaintenanceOverhead  string   `json:"maintenance_overhead,omitempty"`
	ThreatsAddressed     []string `json:"threats_addressed"`
	TechnicalDetails     []string `json:"technical_details"`
	TestPassed           bool     `json:"test_passed"`
	TestReason           string   `json:"test_reason"`
	Priority             string   `json:"priority"`
	Regulations          []string `json:"regulations"`
}

// RoadmapItem is a control still to be rolled out
type RoadmapItem struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Priority      string   `json:"priority"`
	Status        string   `json:"status"`
	Effort        string   `json:"effort,omitempty"`
	EstimatedCost string   `json:"estimated_cost,omitempty"`
	Dependencies  []string `json:"dependencies"`
}

// BuildTechnicalReport produces the per-threat and per-control detail
func BuildTechnicalReport(run *check.Run, ts string) TechnicalReport {
	cat := run.Catalog
	mapper := grc.NewMapper(cat)

	out := TechnicalReport{
		ReportType: "Technical Report",
		Timestamp:  ts,
		ThreatAnalysis: ThreatAnalysis{
			ByCategory:  make(map[string]int),
			ByStride:    make(map[string]int),
			ByRiskLevel: make(map[string]int),
		},
		Threats: []ThreatDetail{},
		ControlAnalysis: ControlAnalysis{
			ByCategory: make(map[string]int),
			ByStatus:   make(map[string]int),
		},
		Controls:              []ControlDetail{},
		ImplementationRoadmap: []RoadmapItem{},
	}

	for _, t := range cat.SortedThreats() {
		band := model.RiskBand(float64(t.CanonicalRisk()))
		if t.Category != "" {
			out.ThreatAnalysis.ByCategory[t.Category]++
		}
		out.ThreatAnalysis.ByStride[string(t.Stride)]++
		out.ThreatAnalysis.ByRiskLevel[band]++

		exposure, _ := run.Posture.Exposure(t.ID)
		out.Threats = append(out.Threats, ThreatDetail{
			ID:                  t.ID,
			Name:                t.Name,
			Category:            t.Category,
			StrideCategory:      string(t.Stride),
			Likelihood:          string(t.Likelihood),
			Impact:              string(t.Impact),
			DeclaredRiskScore:   t.RiskScore,
			RiskDeclared:        t.RiskDeclared,
			CanonicalRiskScore:  t.CanonicalRisk(),
			RiskConsistent:      t.RiskConsistent(),
			RiskLevel:           band,
			BusinessImpact:      t.BusinessImpact,
			AnnualExposure:      exposure.Annual,
			AttackScenarios:     strs(t.AttackScenarios),
			DetectionMethods:    strs(t.DetectionMethods),
			CurrentControls:     t.CurrentControls,
			RecommendedControls: strs(t.RecommendedControls),
			AddressedBy:         strs(cat.ControlsFor(t.ID)),
			EstimatedCost:       t.EstimatedCost,
		})
	}

	controls := cat.SortedControls()
	for _, c := range controls {
		out.ControlAnalysis.ByCategory[string(c.Category)]++
		out.ControlAnalysis.ByStatus[string(c.Status)]++

		test, _ := run.Posture.Test(c.ID)
		out.Controls = append(out.Controls, ControlDetail{
			ID:                   c.ID,
			Name:                 c.Name,
			Category:             string(c.Category),
			ImplementationStatus: string(c.Status),
			EffectivenessScore:   c.Effectiveness,
			MaintenanceOverhead:  string(c.MaintenanceOverhead),
			ThreatsAddressed:     strs(c.ThreatsAddressed),
			TechnicalDetails:     strs(c.TechnicalDetails),
			TestPassed:           test.Passed,
			TestReason:           test.Reason,
			Priority:             c.Priority(),
			Regulations:          strs(mapper.RegulationsFor(c.ID)),
		})
	}

	out.ImplementationRoadmap = Roadmap(controls)
	return out
}

// Roadmap lists controls that are not yet Implemented, High priority first
func Roadmap(controls []model.Control) []RoadmapItem {
	items := []RoadmapItem{}
	for _, c := range controls {
		if c.Implemented() {
			continue
		}
		items = append(items, RoadmapItem{
			ID:            c.ID,
			Name:          c.Name,
			Priority:      c.Priority(),
			Status:        string(c.Status),
			Effort:        c.ImplementationEffort,
			EstimatedCost: c.EstimatedCost,
			Dependencies:  strs(c.Dependencies),
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Priority != items[j].Priority {
			return items[i].Priority == "High"
		}
		return items[i].ID < items[j].ID
	})
	return items
}
