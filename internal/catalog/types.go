package catalog

import "gopkg.in/yaml.v3"

// threatsFile is the root mapping of the threat catalog
type threatsFile struct {
	Threats *[]yaml.Node `yaml:"threats"`
}

// controlsFile is the root mapping of the control catalog
type controlsFile struct {
	SecurityControls  *[]yaml.Node `yaml:"security_controls"`
	ComplianceMapping yaml.Node    `yaml:"compliance_mapping"`
}

// ThreatRecord represents a single threat entry as written in the catalog
type ThreatRecord struct {
	ID                  string         `yaml:"id"`
	Name                string         `yaml:"name"`
	Category            string         `yaml:"category"`
	StrideCategory      string         `yaml:"stride_category"`
	Likelihood          string         `yaml:"likelihood"`
	Impact              string         `yaml:"impact"`
	RiskScore           *float64       `yaml:"risk_score"`
	BusinessImpact      string         `yaml:"business_impact"`
	AttackScenarios     []string       `yaml:"attack_scenarios"`
	DetectionMethods    []string       `yaml:"detection_methods"`
	CurrentControls     string         `yaml:"current_controls"`
	RecommendedControls []string       `yaml:"recommended_controls"`
	EstimatedCost       string         `yaml:"estimated_cost"`
	Extra               map[string]any `yaml:",inline"`
}

// ControlRecord represents a single control entry as written in the catalog
type ControlRecord struct {
	ID                   string         `yaml:"id"`
	Name                 string         `yaml:"name"`
	Category             string         `yaml:"category"`
	ThreatsAddressed     *[]string      `yaml:"threats_addressed"`
	ImplementationStatus string         `yaml:"implementation_status"`
	Description          string         `yaml:"description"`
	TechnicalDetails     []string       `yaml:"technical_details"`
	ImplementationEffort string         `yaml:"implementation_effort"`
	EstimatedCost        string         `yaml:"estimated_cost"`
	EffectivenessScore   *float64       `yaml:"effectiveness_score"`
	MaintenanceOverhead  string         `yaml:"maintenance_overhead"`
	Dependencies         []string       `yaml:"dependencies"`
	Extra                map[string]any `yaml:",inline"`
}

// MappingRecord represents one regulation's compliance mapping
type MappingRecord struct {
	Regulation         string         `yaml:"regulation"`
	Requirements       []string       `yaml:"requirements"`
	Controls           *[]string      `yaml:"controls"`
	ApplicableControls *[]string      `yaml:"applicable_controls"`
	Extra              map[string]any `yaml:",inline"`
}
