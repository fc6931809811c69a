package agent

import (
	"fmt"

	"github.com/ethanolivertroy/tmcheck/internal/grc"
	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"
)

// --- GRC Tool Input/Output Types ---

// ComplianceParams for get_compliance tool
type ComplianceParams struct {
	NonCompliantOnly bool `json:"non_compliant_only,omitempty" jsonschema:"Only return regulations that are not satisfied"`
}

// ComplianceResult for get_compliance tool
type ComplianceResult struct {
	Total       int                     `json:"total"`
	Compliant   int                     `json:"compliant"`
	Regulations []grc.RegulationSummary `json:"regulations"`
}

// RegulationParams for get_regulation tool
type RegulationParams struct {
	Regulation string `json:"regulation" jsonschema:"Regulation name as it appears in the compliance mapping (e.g., SOX, GDPR)"`
}

// RegulationResult for get_regulation tool
type RegulationResult struct {
	Found  bool                  `json:"found"`
	Result *grc.RegulationResult `json:"result,omitempty"`
	Known  []string              `json:"known_regulations,omitempty"`
}

// --- GRC Tool Implementations ---

func (ts *Toolset) getCompliance(ctx tool.Context, params ComplianceParams) (ComplianceResult, error) {
	run, err := ts.ensureRun()
	if err != nil {
		return ComplianceResult{}, err
	}

	regs := []grc.RegulationSummary{}
	for _, r := range run.Compliance {
		if params.NonCompliantOnly && r.Status == grc.Compliant {
			continue
		}
		regs = append(regs, r.ToSummary())
	}

	return ComplianceResult{
		Total:       len(run.Compliance),
		Compliant:   grc.CompliantCount(run.Compliance),
		Regulations: regs,
	}, nil
}

func (ts *Toolset) getRegulation(ctx tool.Context, params RegulationParams) (RegulationResult, error) {
	run, err := ts.ensureRun()
	if err != nil {
		return RegulationResult{}, err
	}

	if r, ok := grc.NewMapper(run.Catalog).GetRegulation(params.Regulation); ok {
		return RegulationResult{Found: true, Result: &r}, nil
	}

	known := make([]string, 0, len(run.Compliance))
	for _, r := range run.Compliance {
		known = append(known, r.Regulation)
	}
	return RegulationResult{Found: false, Known: known}, nil
}

// CreateGRCTools creates the compliance tools for the agent
func (ts *Toolset) CreateGRCTools() ([]tool.Tool, error) {
	complianceTool, err := functiontool.New(
		functiontool.Config{
			Name:        "get_compliance",
			Description: "Get the compliance status of every regulation in the mapping. A regulation is COMPLIANT only when all mapped controls exist and are Implemented.",
		},
		ts.getCompliance,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create get_compliance tool: %w", err)
	}

	regulationTool, err := functiontool.New(
		functiontool.Config{
			Name:        "get_regulation",
			Description: "Explain one regulation's status: mapped controls, unknown or unimplemented controls and coverage.",
		},
		ts.getRegulation,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create get_regulation tool: %w", err)
	}

	return []tool.Tool{complianceTool, regulationTool}, nil
}
