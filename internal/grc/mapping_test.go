package grc

import (
	"testing"

	"github.com/ethanolivertroy/tmcheck/internal/model"
)

func testCatalog() *model.Catalog {
	return &model.Catalog{
		Controls: []model.Control{
			{ID: "SC-001", Status: model.StatusImplemented},
			{ID: "SC-002", Status: model.StatusImplemented},
			{ID: "SC-003", Status: model.StatusPartial},
		},
		Mappings: []model.ComplianceMapping{
			{Regulation: "SOX", Requirements: []string{"404"}, Controls: []string{"SC-003", "SC-001"}},
			{Regulation: "PCI DSS", Requirements: []string{"6.5", "10.2"}, Controls: []string{"SC-001", "SC-002"}},
			{Regulation: "GDPR", Requirements: []string{"Art 32"}, Controls: []string{"SC-001", "SC-404"}},
			{Regulation: "HIPAA", Requirements: []string{"164.312"}, Controls: []string{}},
		},
	}
}

func TestEvaluateAll(t *testing.T) {
	results := NewMapper(testCatalog()).EvaluateAll()

	tests := []struct {
		regulation   string
		status       ComplianceStatus
		requirements int
		controls     int
		rationale    string
	}{
		{"GDPR", NonCompliant, 1, 2, "unknown controls SC-404"},
		{"HIPAA", NonCompliant, 1, 0, "no controls mapped"},
		{"PCI DSS", Compliant, 2, 2, "all 2 mapped controls implemented"},
		{"SOX", NonCompliant, 1, 2, "controls not implemented: SC-003"},
	}

	if len(results) != len(tests) {
		t.Fatalf("EvaluateAll() returned %d results, want %d", len(results), len(tests))
	}

	for i, tt := range tests {
		t.Run(tt.regulation, func(t *testing.T) {
			got := results[i]
			if got.Regulation != tt.regulation {
				t.Fatalf("results[%d].Regulation = %q, want %q", i, got.Regulation, tt.regulation)
			}
			if got.Status != tt.status {
				t.Errorf("Status = %s, want %s", got.Status, tt.status)
			}
			if got.Requirements != tt.requirements {
				t.Errorf("Requirements = %d, want %d", got.Requirements, tt.requirements)
			}
			if got.Controls != tt.controls {
				t.Errorf("Controls = %d, want %d", got.Controls, tt.controls)
			}
			if got.Rationale != tt.rationale {
				t.Errorf("Rationale = %q, want %q", got.Rationale, tt.rationale)
			}
		})
	}

	if n := CompliantCount(results); n != 1 {
		t.Errorf("CompliantCount() = %d, want 1", n)
	}
}

func TestEvaluateCoverage(t *testing.T) {
	m := NewMapper(testCatalog())

	sox, ok := m.GetRegulation("sox")
	if !ok {
		t.Fatal("GetRegulation(sox) not found")
	}
	if sox.Coverage != 0.5 {
		t.Errorf("Coverage = %v, want 0.5", sox.Coverage)
	}

	if _, ok := m.GetRegulation("FedRAMP"); ok {
		t.Error("GetRegulation(FedRAMP) should not be found")
	}
}

func TestRegulationsFor(t *testing.T) {
	m := NewMapper(testCatalog())

	regs := m.RegulationsFor("SC-001")
	want := []string{"GDPR", "PCI DSS", "SOX"}
	if len(regs) != len(want) {
		t.Fatalf("RegulationsFor(SC-001) = %v, want %v", regs, want)
	}
	for i := range want {
		if regs[i] != want[i] {
			t.Errorf("RegulationsFor(SC-001)[%d] = %q, want %q", i, regs[i], want[i])
		}
	}

	if regs := m.RegulationsFor("SC-999"); len(regs) != 0 {
		t.Errorf("RegulationsFor(SC-999) = %v, want none", regs)
	}
}

func TestToSummary(t *testing.T) {
	r := RegulationResult{Regulation: "SOX", Status: Compliant, Controls: 3, Rationale: "ok", Requirements: 2}
	s := r.ToSummary()
	if s.Regulation != "SOX" || s.Status != Compliant || s.Controls != 3 || s.Rationale != "ok" {
		t.Errorf("ToSummary() = %+v", s)
	}
}
