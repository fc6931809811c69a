package score

import (
	"fmt"
	"testing"

	"github.com/ethanolivertroy/tmcheck/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fiveControls(status model.ImplementationStatus, effectiveness float64) *model.Catalog {
	cat := &model.Catalog{
		Threats: []model.Threat{
			{ID: "ML-001", Likelihood: model.LevelMedium, Impact: model.LevelHigh, BusinessImpact: "$10M+"},
			{ID: "ML-002", Likelihood: model.LevelLow, Impact: model.LevelMedium, BusinessImpact: "$500K"},
		},
	}
	for i := 1; i <= 5; i++ {
		cat.Controls = append(cat.Controls, model.Control{
			ID:               fmt.Sprintf("SC-%03d", i),
			Name:             fmt.Sprintf("Control %d", i),
			Category:         model.CategoryPreventive,
			ThreatsAddressed: []string{"ML-001"},
			Status:           status,
			TechnicalDetails: []string{"documented"},
			Effectiveness:    effectiveness,
			EstimatedCost:    "$100K",
		})
	}
	return cat
}

func TestScoreAllNotStartedIsWeak(t *testing.T) {
	result := New(DefaultMinEffectiveness, nil).Score(fiveControls(model.StatusNotStarted, 8))

	assert.Equal(t, 0.0, result.Summary.ImplementationRate)
	assert.Equal(t, 0, result.Summary.ImplementedControls)
	assert.Equal(t, 0.0, result.Score)
	assert.Equal(t, model.PostureWeak, result.Posture)
	assert.Equal(t, 5, result.Summary.ByStatus[model.StatusNotStarted])
}

func TestScoreAllImplementedIsStrong(t *testing.T) {
	result := New(DefaultMinEffectiveness, nil).Score(fiveControls(model.StatusImplemented, 8))

	assert.Equal(t, 100.0, result.Summary.ImplementationRate)
	assert.Equal(t, 92.0, result.Score)
	assert.Equal(t, model.PostureStrong, result.Posture)
	assert.Equal(t, 5, result.Summary.PassedTests)
	assert.Equal(t, 500000.0, result.Summary.TotalInvestment)
}

func TestScoreIsDeterministic(t *testing.T) {
	cat := fiveControls(model.StatusPartial, 6)
	cat.Controls[0].Status = model.StatusImplemented
	cat.Controls[3].Status = model.StatusImplemented
	cat.Controls[3].Effectiveness = 9.5

	s := New(DefaultMinEffectiveness, nil)
	first := s.Score(cat)
	second := s.Score(cat)

	assert.Equal(t, first.Score, second.Score)
	assert.Equal(t, first, second)
}

func TestScoreOnlyCreditsPassingImplementedControls(t *testing.T) {
	cat := fiveControls(model.StatusImplemented, 8)
	cat.Controls[4].Effectiveness = 2 // implemented but failing

	result := New(DefaultMinEffectiveness, nil).Score(cat)

	// 4/5 credited * 60 + 8/10 * 40
	assert.Equal(t, 80.0, result.Score)
	assert.Equal(t, 5, result.Summary.ImplementedControls)
	assert.Equal(t, 4, result.Summary.CreditedControls)
	assert.Equal(t, 1, result.Summary.FailedTests)
}

func TestScoreClampedAndRounded(t *testing.T) {
	cat := fiveControls(model.StatusImplemented, 10)
	cat.Controls[0].Effectiveness = 7.777

	result := New(0, nil).Score(cat)

	assert.LessOrEqual(t, result.Score, 100.0)
	assert.Equal(t, 98.22, result.Score)
}

func TestScoreEmptyCatalog(t *testing.T) {
	result := New(DefaultMinEffectiveness, nil).Score(&model.Catalog{})

	assert.Equal(t, 0.0, result.Score)
	assert.Equal(t, model.PostureWeak, result.Posture)
	assert.Empty(t, result.Controls)
}

func TestControlTest(t *testing.T) {
	threats := map[string]model.Threat{
		"ML-001": {ID: "ML-001", Likelihood: model.LevelHigh, Impact: model.LevelHigh},
		"ML-002": {ID: "ML-002", Likelihood: model.LevelMedium, Impact: model.LevelHigh, RiskScore: 8, RiskDeclared: true},
		"ML-003": {ID: "ML-003", Likelihood: model.LevelHigh, Impact: model.LevelHigh, RiskScore: 3, RiskDeclared: true},
	}
	base := model.Control{
		ID:               "SC-001",
		Status:           model.StatusPlanned,
		TechnicalDetails: []string{"x"},
		Effectiveness:    6,
	}

	tests := []struct {
		name     string
		mutate   func(*model.Control)
		passed   bool
		contains string
	}{
		{"passing", func(c *model.Control) {}, true, "all checks passed"},
		{"no details", func(c *model.Control) { c.TechnicalDetails = nil }, false, "no technical details"},
		{"low effectiveness", func(c *model.Control) { c.Effectiveness = 4.5 }, false, "effectiveness 4.5 below minimum 5"},
		{"not started on critical threat", func(c *model.Control) {
			c.Status = model.StatusNotStarted
			c.ThreatsAddressed = []string{"ML-001"}
		}, false, "critical threat ML-001 (risk 9)"},
		{"not started uses canonical risk", func(c *model.Control) {
			c.Status = model.StatusNotStarted
			c.ThreatsAddressed = []string{"ML-002"}
		}, true, "all checks passed"},
		{"not started ignores understated declared risk", func(c *model.Control) {
			c.Status = model.StatusNotStarted
			c.ThreatsAddressed = []string{"ML-003"}
		}, false, "critical threat ML-003 (risk 9)"},
		{"not started on unknown threat", func(c *model.Control) {
			c.Status = model.StatusNotStarted
			c.ThreatsAddressed = []string{"ML-404"}
		}, true, "all checks passed"},
	}

	s := New(DefaultMinEffectiveness, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)

			got := s.TestControl(c, threats)

			assert.Equal(t, tt.passed, got.Passed)
			assert.Contains(t, got.Reason, tt.contains)
		})
	}
}

func TestExposure(t *testing.T) {
	cat := fiveControls(model.StatusImplemented, 8)

	result := New(DefaultMinEffectiveness, nil).Score(cat)

	require.Len(t, result.Exposures, 2)
	e, ok := result.Exposure("ML-001")
	require.True(t, ok)
	assert.Equal(t, 0.35, e.Probability)
	assert.Equal(t, 3500000.0, e.Annual)
	assert.Equal(t, 3575000.0, result.TotalExposure)
}

func TestExposureProbabilityOverride(t *testing.T) {
	cat := fiveControls(model.StatusImplemented, 8)

	result := New(DefaultMinEffectiveness, map[model.Level]float64{model.LevelMedium: 0.5}).Score(cat)

	e, _ := result.Exposure("ML-001")
	assert.Equal(t, 5000000.0, e.Annual)
	low, _ := result.Exposure("ML-002")
	assert.Equal(t, 0.15, low.Probability, "levels without an override keep the default")
}

func TestRecommendations(t *testing.T) {
	cat := fiveControls(model.StatusImplemented, 8)
	cat.Controls[2].Status = model.StatusPlanned
	cat.Controls[1].TechnicalDetails = nil

	result := New(DefaultMinEffectiveness, nil).Score(cat)

	assert.Contains(t, result.Recommendations, "SC-002 (Control 2): no technical details")
	assert.Contains(t, result.Recommendations, "Complete implementation of SC-003 (Control 3), currently Planned")
}
