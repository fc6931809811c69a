package validate

import (
	"math"
	"strings"
	"testing"

	"github.com/ethanolivertroy/tmcheck/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threat(id string, l, i model.Level) model.Threat {
	return model.Threat{
		ID:             id,
		Name:           "Threat " + id,
		Stride:         model.StrideTampering,
		Likelihood:     l,
		Impact:         i,
		RiskScore:      float64(model.RiskMatrix(l, i)),
		RiskDeclared:   true,
		BusinessImpact: "$1M",
	}
}

func control(id string, threats ...string) model.Control {
	return model.Control{
		ID:               id,
		Name:             "Control " + id,
		Category:         model.CategoryPreventive,
		ThreatsAddressed: threats,
		Status:           model.StatusImplemented,
		TechnicalDetails: []string{"detail"},
		Effectiveness:    8,
	}
}

func cleanCatalog() *model.Catalog {
	return &model.Catalog{
		Threats: []model.Threat{
			threat("ML-001", model.LevelMedium, model.LevelHigh),
			threat("ML-002", model.LevelLow, model.LevelLow),
		},
		Controls: []model.Control{
			control("SC-001", "ML-001"),
			control("SC-002", "ML-002"),
		},
		Mappings: []model.ComplianceMapping{
			{Regulation: "PCI DSS", Requirements: []string{"6.5"}, Controls: []string{"SC-001"}},
		},
	}
}

func TestValidateClean(t *testing.T) {
	report := New(DefaultGapTolerance).Validate(cleanCatalog())

	assert.Equal(t, model.ValidationPassed, report.Status)
	assert.Empty(t, report.Gaps)
	assert.Empty(t, report.Errors)
	assert.Equal(t, 2, report.TotalThreats)
}

func TestValidateDanglingControlReference(t *testing.T) {
	cat := cleanCatalog()
	cat.Controls[1].ThreatsAddressed = append(cat.Controls[1].ThreatsAddressed, "ML-999")

	report := New(0).Validate(cat)

	assert.Equal(t, model.ValidationFailed, report.Status)
	require.Len(t, report.Gaps, 1)
	assert.Equal(t, model.GapDanglingReference, report.Gaps[0].Kind)
	assert.Contains(t, report.Gaps[0].String(), "ML-999")
	assert.Empty(t, report.Errors)
}

func TestValidateDanglingMappingAndRecommendation(t *testing.T) {
	cat := cleanCatalog()
	cat.Mappings[0].Controls = []string{"SC-001", "SC-404"}
	cat.Threats[0].RecommendedControls = []string{"SC-001", "SC-777"}

	report := New(0).Validate(cat)

	gaps := strings.Join(report.GapStrings(), "\n")
	assert.Contains(t, gaps, "PCI DSS: maps unknown control SC-404")
	assert.Contains(t, gaps, "ML-001: recommends unknown control SC-777")
	assert.Equal(t, model.ValidationFailed, report.Status)
}

func TestValidateCoverageGap(t *testing.T) {
	cat := cleanCatalog()
	cat.Threats = append(cat.Threats, threat("ML-003", model.LevelHigh, model.LevelHigh))

	report := New(0).Validate(cat)

	require.Len(t, report.Gaps, 1)
	assert.Equal(t, model.GapCoverage, report.Gaps[0].Kind)
	assert.Equal(t, "ML-003", report.Gaps[0].Subject)
	assert.Contains(t, report.Gaps[0].Message, "ML-003")
}

func TestValidateRiskMatrixMismatchIsGap(t *testing.T) {
	cat := cleanCatalog()
	cat.Threats[0].RiskScore = 8

	report := New(0).Validate(cat)

	assert.Equal(t, 6, cat.Threats[0].CanonicalRisk())
	require.Len(t, report.Gaps, 1)
	assert.Equal(t, model.GapRiskMatrix, report.Gaps[0].Kind)
	assert.Equal(t, "ML-001", report.Gaps[0].Subject)
	assert.Empty(t, report.Errors, "a matrix mismatch is never a hard error")

	// waived by tolerance, the run passes
	report = New(1).Validate(cat)
	assert.Equal(t, model.ValidationPassed, report.Status)
}

func TestValidateUndeclaredRiskIsNotCompared(t *testing.T) {
	cat := cleanCatalog()
	cat.Threats[0].RiskDeclared = false
	cat.Threats[0].RiskScore = 6

	report := New(0).Validate(cat)
	assert.Equal(t, model.ValidationPassed, report.Status)
}

func TestValidateHardErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.Catalog)
		want   string
	}{
		{"bad threat id", func(c *model.Catalog) { c.Threats[0].ID = "T-1"; c.Controls[0].ThreatsAddressed = []string{"T-1"} }, `T-1: id "T-1" does not match ML-###`},
		{"bad control id", func(c *model.Catalog) { c.Controls[0].ID = "CTRL-1"; c.Mappings = nil }, `CTRL-1: id "CTRL-1" does not match SC-###`},
		{"empty threat name", func(c *model.Catalog) { c.Threats[1].Name = " " }, "ML-002: name must not be empty"},
		{"missing stride", func(c *model.Catalog) { c.Threats[1].Stride = "" }, "ML-002: stride_category is missing"},
		{"risk out of range", func(c *model.Catalog) { c.Threats[1].RiskScore = 12; c.Threats[1].RiskDeclared = false }, "ML-002: risk_score 12 is outside 0-10"},
		{"effectiveness out of range", func(c *model.Catalog) { c.Controls[1].Effectiveness = -1 }, "SC-002: effectiveness_score -1 is outside 0-10"},
		{"risk not a number", func(c *model.Catalog) { c.Threats[1].RiskScore = math.NaN() }, "ML-002: risk_score NaN is outside 0-10"},
		{"effectiveness infinite", func(c *model.Catalog) { c.Controls[1].Effectiveness = math.Inf(1) }, "SC-002: effectiveness_score +Inf is outside 0-10"},
		{"empty technical details", func(c *model.Catalog) { c.Controls[1].TechnicalDetails = []string{""} }, "SC-002: technical_details must list at least one detail"},
		{"empty regulation", func(c *model.Catalog) { c.Mappings[0].Regulation = "" }, "compliance_mapping: regulation must not be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat := cleanCatalog()
			tt.mutate(cat)

			report := New(5).Validate(cat)

			assert.Equal(t, model.ValidationFailed, report.Status, "hard errors fail regardless of tolerance")
			assert.Contains(t, report.ErrorStrings(), tt.want)
		})
	}
}

func TestValidateScoreBounds(t *testing.T) {
	for _, v := range []float64{0, 10} {
		cat := cleanCatalog()
		cat.Threats[1].RiskScore = v
		cat.Threats[1].RiskDeclared = false
		cat.Controls[1].Effectiveness = v

		report := New(DefaultGapTolerance).Validate(cat)
		assert.Empty(t, report.Errors, "%g is inside 0-10", v)
	}
}

func TestValidateReportsEverythingSorted(t *testing.T) {
	cat := cleanCatalog()
	cat.Threats = append(cat.Threats,
		threat("ML-005", model.LevelHigh, model.LevelLow),
		threat("ML-004", model.LevelLow, model.LevelHigh),
	)
	cat.Controls[0].ThreatsAddressed = []string{"ML-001", "ML-900"}
	cat.Threats[1].RiskScore = 3

	report := New(0).Validate(cat)

	subjects := make([]string, 0, len(report.Gaps))
	for _, g := range report.Gaps {
		subjects = append(subjects, g.Subject)
	}
	assert.Equal(t, []string{"ML-002", "ML-004", "ML-005", "SC-001"}, subjects)
}

func TestValidateOrderIndependent(t *testing.T) {
	a := cleanCatalog()
	a.Threats = append(a.Threats, threat("ML-003", model.LevelHigh, model.LevelHigh))
	a.Threats[0].RiskScore = 9

	b := cleanCatalog()
	b.Threats = append(b.Threats, threat("ML-003", model.LevelHigh, model.LevelHigh))
	b.Threats[0].RiskScore = 9
	b.Threats[0], b.Threats[2] = b.Threats[2], b.Threats[0]
	b.Controls[0], b.Controls[1] = b.Controls[1], b.Controls[0]

	v := New(0)
	assert.Equal(t, v.Validate(a).GapStrings(), v.Validate(b).GapStrings())
}

func TestStrideCoverage(t *testing.T) {
	threats := []model.Threat{
		{ID: "ML-001", Stride: model.StrideSpoofing},
		{ID: "ML-002", Stride: model.StrideSpoofing},
		{ID: "ML-003", Stride: model.StrideDenialOfService},
	}

	cov := StrideCoverage(threats)

	assert.Equal(t, []model.Stride{model.StrideSpoofing, model.StrideDenialOfService}, cov.Covered)
	assert.Len(t, cov.Missing, 4)
	assert.Equal(t, 33.33, cov.Percent)
	assert.Equal(t, 2, cov.ByStride[model.StrideSpoofing])
}

func TestRiskStatistics(t *testing.T) {
	threats := []model.Threat{
		{Likelihood: model.LevelHigh, Impact: model.LevelHigh, EstimatedCost: "$500K"},
		{Likelihood: model.LevelMedium, Impact: model.LevelHigh, EstimatedCost: "$1.5M"},
		{Likelihood: model.LevelLow, Impact: model.LevelLow, EstimatedCost: "unknown"},
	}

	stats := RiskStatistics(threats)

	assert.Equal(t, 1, stats.High)
	assert.Equal(t, 1, stats.Medium)
	assert.Equal(t, 1, stats.Low)
	assert.Equal(t, 5.33, stats.AverageRisk)
	assert.Equal(t, 2000000.0, stats.TotalEstimatedCost)
}

func TestRecommendations(t *testing.T) {
	cat := cleanCatalog()
	cat.Threats = append(cat.Threats, threat("ML-003", model.LevelHigh, model.LevelHigh))

	report := New(0).Validate(cat)

	recs := strings.Join(report.Recommendations, "\n")
	assert.Contains(t, recs, "1 uncovered threat")
	assert.Contains(t, recs, "1 high-risk threat")
	assert.Contains(t, recs, "5 uncovered STRIDE categories")
}
