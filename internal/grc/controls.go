// Package grc evaluates compliance mappings against the control catalog
package grc

// ComplianceStatus is the per-regulation verdict
type ComplianceStatus string

const (
	Compliant    ComplianceStatus = "COMPLIANT"
	NonCompliant ComplianceStatus = "NON-COMPLIANT"
)

// RegulationResult is the evaluation of one regulation's mapping
type RegulationResult struct {
	Regulation    string           `json:"regulation"`
	Requirements  int              `json:"requirements"`  // number of requirement strings
	Controls      int              `json:"controls"`      // number of mapped control IDs
	Status        ComplianceStatus `json:"status"`
	Unknown       []string         `json:"unknown,omitempty"`       // mapped IDs with no matching control
	Unimplemented []string         `json:"unimplemented,omitempty"` // mapped controls not yet Implemented
	Rationale     string           `json:"rationale"`
	Coverage      float64          `json:"coverage"` // fraction of mapped controls implemented, 0.0-1.0
}

// RegulationSummary is a simplified result for assistant tool responses
type RegulationSummary struct {
	Regulation string           `json:"regulation"`
	Status     ComplianceStatus `json:"status"`
	Controls   int              `json:"controls"`
	Rationale  string           `json:"rationale,omitempty"`
}

// ToSummary converts a RegulationResult to a RegulationSummary
func (r RegulationResult) ToSummary() RegulationSummary {
	return RegulationSummary{
		Regulation: r.Regulation,
		Status:     r.Status,
		Controls:   r.Controls,
		Rationale:  r.Rationale,
	}
}
