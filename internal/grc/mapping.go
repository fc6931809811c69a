package grc

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ethanolivertroy/tmcheck/internal/model"
)

// Mapper evaluates compliance mappings against a control catalog
type Mapper struct {
	controls map[string]model.Control
	mappings []model.ComplianceMapping
}

// NewMapper creates a mapper over a loaded catalog
func NewMapper(cat *model.Catalog) *Mapper {
	return &Mapper{
		controls: cat.ControlIndex(),
		mappings: cat.SortedMappings(),
	}
}

// Evaluate checks a single regulation. A regulation is COMPLIANT when it maps at least one
// control, every mapped control exists and every mapped control is Implemented.
func (m *Mapper) Evaluate(mapping model.ComplianceMapping) RegulationResult {
	result := RegulationResult{
		Regulation:   mapping.Regulation,
		Requirements: len(mapping.Requirements),
		Controls:     len(mapping.Controls),
		Status:       NonCompliant,
	}

	var rationale []string
	implemented := 0
	for _, id := range mapping.Controls {
		ctrl, ok := m.controls[id]
		switch {
		case !ok:
			result.Unknown = append(result.Unknown, id)
		case !ctrl.Implemented():
			result.Unimplemented = append(result.Unimplemented, id)
		default:
			implemented++
		}
	}
	sort.Strings(result.Unknown)
	sort.Strings(result.Unimplemented)

	if len(mapping.Controls) == 0 {
		rationale = append(rationale, "no controls mapped")
	} else {
		result.Coverage = float64(implemented) / float64(len(mapping.Controls))
	}
	if len(result.Unknown) > 0 {
		rationale = append(rationale, fmt.Sprintf("unknown controls %s", strings.Join(result.Unknown, ", ")))
	}
	if len(result.Unimplemented) > 0 {
		rationale = append(rationale, fmt.Sprintf("controls not implemented: %s", strings.Join(result.Unimplemented, ", ")))
	}

	if len(rationale) == 0 {
		result.Status = Compliant
		rationale = append(rationale, fmt.Sprintf("all %d mapped controls implemented", implemented))
	}
	result.Rationale = strings.Join(rationale, "; ")

	return result
}

// EvaluateAll checks every regulation, ordered by name
func (m *Mapper) EvaluateAll() []RegulationResult {
	results := make([]RegulationResult, 0, len(m.mappings))
	for _, mapping := range m.mappings {
		results = append(results, m.Evaluate(mapping))
	}
	return results
}

// GetRegulation returns the evaluation for one regulation, matched case-insensitively
func (m *Mapper) GetRegulation(name string) (RegulationResult, bool) {
	for _, mapping := range m.mappings {
		if strings.EqualFold(mapping.Regulation, strings.TrimSpace(name)) {
			return m.Evaluate(mapping), true
		}
	}
	return RegulationResult{}, false
}

// RegulationsFor returns the regulations that map a control
func (m *Mapper) RegulationsFor(controlID string) []string {
	var regs []string
	for _, mapping := range m.mappings {
		for _, id := range mapping.Controls {
			if id == controlID {
				regs = append(regs, mapping.Regulation)
				break
			}
		}
	}
	return regs
}

// CompliantCount returns how many regulations are fully satisfied
func CompliantCount(results []RegulationResult) int {
	n := 0
	for _, r := range results {
		if r.Status == Compliant {
			n++
		}
	}
	return n
}
