// Package catalog loads threat and control catalogs into typed records
package catalog

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/ethanolivertroy/tmcheck/internal/model"
	"gopkg.in/yaml.v3"
)

const (
	sourceThreats  = "threats"
	sourceControls = "controls"
)

// LoadFiles reads and parses the threat and control catalogs from disk
func LoadFiles(threatsPath, controlsPath string) (*model.Catalog, error) {
	threatsData, err := os.ReadFile(threatsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read threats file: %w", err)
	}
	controlsData, err := os.ReadFile(controlsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read controls file: %w", err)
	}
	return Parse(threatsData, controlsData)
}

// Parse converts raw catalog documents into a Catalog. Every schema problem found in
// either document is reported together in a single *SchemaError.
func Parse(threatsData, controlsData []byte) (*model.Catalog, error) {
	schemaErr := &SchemaError{}
	cat := &model.Catalog{}

	cat.Threats = parseThreats(threatsData, schemaErr)
	cat.Controls, cat.Mappings = parseControls(controlsData, schemaErr)

	if len(schemaErr.Problems) > 0 {
		schemaErr.sort()
		return nil, schemaErr
	}
	return cat, nil
}

func parseThreats(data []byte, schemaErr *SchemaError) []model.Threat {
	var file threatsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		schemaErr.add(FieldError{Source: sourceThreats, Record: "document", Problem: yamlProblem(err)})
		return nil
	}
	if file.Threats == nil {
		schemaErr.add(FieldError{Source: sourceThreats, Record: "document", Field: "threats", Problem: "is missing"})
		return nil
	}

	threats := make([]model.Threat, 0, len(*file.Threats))
	seen := make(map[string]int)
	for i, node := range *file.Threats {
		fail := func(record, field, problem string) {
			schemaErr.add(FieldError{Source: sourceThreats, Record: record, Field: field, Problem: problem, Line: node.Line})
		}

		var rec ThreatRecord
		label := fmt.Sprintf("threats[%d]", i)
		if err := node.Decode(&rec); err != nil {
			if rec.ID != "" {
				label = rec.ID
			}
			fail(label, "", yamlProblem(err))
			continue
		}
		if rec.ID != "" {
			label = rec.ID
		}

		ok := true
		for _, f := range []struct{ name, value string }{
			{"id", rec.ID},
			{"name", rec.Name},
			{"likelihood", rec.Likelihood},
			{"impact", rec.Impact},
			{"business_impact", rec.BusinessImpact},
		} {
			if strings.TrimSpace(f.value) == "" {
				fail(label, f.name, "is required")
				ok = false
			}
		}

		threat := model.Threat{
			ID:                  rec.ID,
			Name:                rec.Name,
			Category:            rec.Category,
			BusinessImpact:      rec.BusinessImpact,
			AttackScenarios:     rec.AttackScenarios,
			DetectionMethods:    rec.DetectionMethods,
			CurrentControls:     rec.CurrentControls,
			RecommendedControls: rec.RecommendedControls,
			EstimatedCost:       rec.EstimatedCost,
			Extra:               rec.Extra,
		}

		if rec.Likelihood != "" {
			l, err := model.ParseLevel(rec.Likelihood)
			if err != nil {
				fail(label, "likelihood", err.Error())
				ok = false
			}
			threat.Likelihood = l
		}
		if rec.Impact != "" {
			l, err := model.ParseLevel(rec.Impact)
			if err != nil {
				fail(label, "impact", err.Error())
				ok = false
			}
			threat.Impact = l
		}
		if rec.StrideCategory != "" {
			s, err := model.ParseStride(rec.StrideCategory)
			if err != nil {
				fail(label, "stride_category", err.Error())
				ok = false
			}
			threat.Stride = s
		}

		if rec.RiskScore != nil {
			threat.RiskScore = *rec.RiskScore
			threat.RiskDeclared = true
			if !finite(threat.RiskScore) {
				fail(label, "risk_score", "must be a finite number")
				ok = false
			}
		} else {
			threat.RiskScore = float64(model.RiskMatrix(threat.Likelihood, threat.Impact))
		}

		if rec.ID != "" {
			if prev, dup := seen[rec.ID]; dup {
				fail(label, "id", fmt.Sprintf("duplicates the threat defined at line %d", prev))
				ok = false
			} else {
				seen[rec.ID] = node.Line
			}
		}

		if ok {
			threats = append(threats, threat)
		}
	}
	return threats
}

func parseControls(data []byte, schemaErr *SchemaError) ([]model.Control, []model.ComplianceMapping) {
	var file controlsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		schemaErr.add(FieldError{Source: sourceControls, Record: "document", Problem: yamlProblem(err)})
		return nil, nil
	}
	if file.SecurityControls == nil {
		schemaErr.add(FieldError{Source: sourceControls, Record: "document", Field: "security_controls", Problem: "is missing"})
		return nil, nil
	}

	controls := make([]model.Control, 0, len(*file.SecurityControls))
	seen := make(map[string]int)
	for i, node := range *file.SecurityControls {
		fail := func(record, field, problem string) {
			schemaErr.add(FieldError{Source: sourceControls, Record: record, Field: field, Problem: problem, Line: node.Line})
		}

		var rec ControlRecord
		label := fmt.Sprintf("security_controls[%d]", i)
		if err := node.Decode(&rec); err != nil {
			if rec.ID != "" {
				label = rec.ID
			}
			fail(label, "", yamlProblem(err))
			continue
		}
		if rec.ID != "" {
			label = rec.ID
		}

		ok := true
		for _, f := range []struct{ name, value string }{
			{"id", rec.ID},
			{"name", rec.Name},
			{"category", rec.Category},
			{"implementation_status", rec.ImplementationStatus},
		} {
			if strings.TrimSpace(f.value) == "" {
				fail(label, f.name, "is required")
				ok = false
			}
		}
		if rec.ThreatsAddressed == nil {
			fail(label, "threats_addressed", "is required")
			ok = false
		}
		if rec.EffectivenessScore == nil {
			fail(label, "effectiveness_score", "is required")
			ok = false
		}

		ctrl := model.Control{
			ID:                   rec.ID,
			Name:                 rec.Name,
			Description:          rec.Description,
			TechnicalDetails:     rec.TechnicalDetails,
			ImplementationEffort: rec.ImplementationEffort,
			EstimatedCost:        rec.EstimatedCost,
			Dependencies:         rec.Dependencies,
			Extra:                rec.Extra,
		}
		if rec.ThreatsAddressed != nil {
			ctrl.ThreatsAddressed = *rec.ThreatsAddressed
		}
		if rec.EffectivenessScore != nil {
			ctrl.Effectiveness = *rec.EffectivenessScore
			if !finite(ctrl.Effectiveness) {
				fail(label, "effectiveness_score", "must be a finite number")
				ok = false
			}
		}

		if rec.Category != "" {
			c, err := model.ParseControlCategory(rec.Category)
			if err != nil {
				fail(label, "category", err.Error())
				ok = false
			}
			ctrl.Category = c
		}
		if rec.ImplementationStatus != "" {
			s, err := model.ParseStatus(rec.ImplementationStatus)
			if err != nil {
				fail(label, "implementation_status", err.Error())
				ok = false
			}
			ctrl.Status = s
		}
		if rec.MaintenanceOverhead != "" {
			l, err := model.ParseLevel(rec.MaintenanceOverhead)
			if err != nil {
				fail(label, "maintenance_overhead", err.Error())
				ok = false
			}
			ctrl.MaintenanceOverhead = l
		}

		if rec.ID != "" {
			if prev, dup := seen[rec.ID]; dup {
				fail(label, "id", fmt.Sprintf("duplicates the control defined at line %d", prev))
				ok = false
			} else {
				seen[rec.ID] = node.Line
			}
		}

		if ok {
			controls = append(controls, ctrl)
		}
	}

	return controls, parseMappings(&file.ComplianceMapping, schemaErr)
}

// parseMappings accepts either a mapping keyed by regulation name or a list of
// records carrying a regulation field.
func parseMappings(node *yaml.Node, schemaErr *SchemaError) []model.ComplianceMapping {
	var mappings []model.ComplianceMapping
	seen := make(map[string]bool)

	add := func(regulation string, valueNode *yaml.Node, line int) {
		fail := func(field, problem string) {
			schemaErr.add(FieldError{Source: sourceControls, Record: regulation, Field: field, Problem: problem, Line: line})
		}

		var rec MappingRecord
		if err := valueNode.Decode(&rec); err != nil {
			fail("", yamlProblem(err))
			return
		}
		if regulation == "" {
			regulation = rec.Regulation
		}
		if strings.TrimSpace(regulation) == "" {
			fail("regulation", "is required")
			return
		}
		if seen[regulation] {
			fail("regulation", "is defined more than once")
			return
		}
		seen[regulation] = true

		if rec.Controls == nil && rec.ApplicableControls == nil {
			fail("controls", "is required")
			return
		}
		var controls []string
		if rec.Controls != nil {
			controls = append(controls, *rec.Controls...)
		}
		if rec.ApplicableControls != nil {
			controls = append(controls, *rec.ApplicableControls...)
		}

		mappings = append(mappings, model.ComplianceMapping{
			Regulation:   regulation,
			Requirements: rec.Requirements,
			Controls:     controls,
		})
	}

	switch node.Kind {
	case 0:
		// compliance_mapping absent
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, value := node.Content[i], node.Content[i+1]
			add(key.Value, value, key.Line)
		}
	case yaml.SequenceNode:
		for i, item := range node.Content {
			label := fmt.Sprintf("compliance_mapping[%d]", i)
			var probe struct {
				Regulation string `yaml:"regulation"`
			}
			if err := item.Decode(&probe); err == nil && probe.Regulation != "" {
				label = ""
			}
			if label != "" {
				schemaErr.add(FieldError{Source: sourceControls, Record: label, Field: "regulation", Problem: "is required", Line: item.Line})
				continue
			}
			add("", item, item.Line)
		}
	default:
		schemaErr.add(FieldError{
			Source:  sourceControls,
			Record:  "document",
			Field:   "compliance_mapping",
			Problem: "must be a mapping of regulation names or a list",
			Line:    node.Line,
		})
	}
	return mappings
}

// yamlProblem flattens yaml.v3 errors into a single line
// finite rejects YAML .nan and .inf, which decode into float64 without error
func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func yamlProblem(err error) string {
	var typeErr *yaml.TypeError
	if errors.As(err, &typeErr) {
		return strings.Join(typeErr.Errors, "; ")
	}
	return strings.TrimPrefix(err.Error(), "yaml: ")
}
