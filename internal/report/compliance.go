package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ethanolivertroy/tmcheck/internal/check"
	"github.com/ethanolivertroy/tmcheck/internal/model"
)

// ComplianceEntry is one regulation in compliance-report.json
type ComplianceEntry struct {
	Requirements  int      `json:"requirements"`
	Controls      int      `json:"controls"`
	Status        string   `json:"status"`
	Unknown       []string `json:"unknown_controls,omitempty"`
	Unimplemented []string `json:"unimplemented_controls,omitempty"`
}

// BuildComplianceReport keys every regulation by name
func BuildComplianceReport(run *check.Run) map[string]ComplianceEntry {
	out := make(map[string]ComplianceEntry, len(run.Compliance))
	for _, r := range run.Compliance {
		out[r.Regulation] = ComplianceEntry{
			Requirements:  r.Requirements,
			Controls:      r.Controls,
			Status:        string(r.Status),
			Unknown:       r.Unknown,
			Unimplemented: r.Unimplemented,
		}
	}
	return out
}

var riskRegisterHeader = []string{
	"Threat ID", "Name", "STRIDE", "Likelihood", "Impact",
	"Declared Risk", "Canonical Risk", "Risk Level", "Annual Exposure",
	"Addressed By", "Coverage",
}

func writeRiskRegister(path string, run *check.Run) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer closeFile(file, &err)

	writer := csv.NewWriter(file)
	if err := writer.Write(riskRegisterHeader); err != nil {
		return err
	}

	for _, t := range run.Catalog.SortedThreats() {
		exposure, _ := run.Posture.Exposure(t.ID)
		addressedBy := run.Catalog.ControlsFor(t.ID)
		coverage := "Covered"
		if len(addressedBy) == 0 {
			coverage = "Uncovered"
		}

		declared := ""
		if t.RiskDeclared {
			declared = strconv.FormatFloat(t.RiskScore, 'f', -1, 64)
		}

		row := []string{
			t.ID,
			t.Name,
			string(t.Stride),
			string(t.Likelihood),
			string(t.Impact),
			declared,
			strconv.Itoa(t.CanonicalRisk()),
			model.RiskBand(float64(t.CanonicalRisk())),
			fmt.Sprintf("%.2f", exposure.Annual),
			strings.Join(addressedBy, "; "),
			coverage,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
