// Package score evaluates control tests and aggregates the portfolio security posture
package score

import (
	"fmt"
	"math"
	"strings"

	"github.com/ethanolivertroy/tmcheck/internal/model"
)

const (
	// DefaultMinEffectiveness is the lowest effectiveness score a passing control may have
	DefaultMinEffectiveness = 5.0

	// CriticalRisk is the canonical risk score from which an unstarted control fails its test
	CriticalRisk = 7

	// Target is the score a STRONG posture starts at
	Target = 80.0

	implementationWeight = 60.0
	effectivenessWeight  = 40.0
)

// DefaultProbabilities are the annual likelihood proxies used for exposure figures
var DefaultProbabilities = map[model.Level]float64{
	model.LevelHigh:   0.6,
	model.LevelMedium: 0.35,
	model.LevelLow:    0.15,
}

// Scorer computes control tests, the overall security score and exposure figures
type Scorer struct {
	MinEffectiveness float64
	Probabilities    map[model.Level]float64
}

// New creates a scorer. A nil probability map uses DefaultProbabilities; missing levels
// fall back to their defaults.
func New(minEffectiveness float64, probabilities map[model.Level]float64) *Scorer {
	probs := make(map[model.Level]float64, len(DefaultProbabilities))
	for l, p := range DefaultProbabilities {
		probs[l] = p
	}
	for l, p := range probabilities {
		probs[l] = p
	}
	return &Scorer{MinEffectiveness: minEffectiveness, Probabilities: probs}
}

// Score runs every control test and aggregates the result. It is a pure function of the catalog.
func (s *Scorer) Score(cat *model.Catalog) model.PostureResult {
	threats := cat.ThreatIndex()
	controls := cat.SortedControls()

	result := model.PostureResult{
		Summary: model.PostureSummary{
			TotalControls: len(controls),
			ByStatus:      make(map[model.ImplementationStatus]int),
			ByCategory:    make(map[model.ControlCategory]int),
		},
	}

	var effectivenessSum, creditedEffectiveness float64
	for _, c := range controls {
		test := s.TestControl(c, threats)
		result.Controls = append(result.Controls, test)

		sum := &result.Summary
		sum.ByStatus[c.Status]++
		sum.ByCategory[c.Category]++
		effectivenessSum += c.Effectiveness
		if cost, ok := model.ParseDollars(c.EstimatedCost); ok {
			sum.TotalInvestment += cost
		}
		if test.Passed {
			sum.PassedTests++
		} else {
			sum.FailedTests++
		}
		if c.Implemented() {
			sum.ImplementedControls++
			if test.Passed {
				sum.CreditedControls++
				creditedEffectiveness += c.Effectiveness
			}
		}
	}

	if n := result.Summary.TotalControls; n > 0 {
		result.Summary.ImplementationRate = round2(float64(result.Summary.ImplementedControls) / float64(n) * 100)
		result.Summary.AverageEffectiveness = round2(effectivenessSum / float64(n))
	}

	result.Score = overallScore(result.Summary.CreditedControls, result.Summary.TotalControls, creditedEffectiveness)
	result.Posture = model.PostureFromScore(result.Score)

	result.Exposures, result.TotalExposure = s.exposures(cat.SortedThreats())
	result.Recommendations = recommendations(result, cat)

	return result
}

// TestControl evaluates the rule set for a single control
func (s *Scorer) TestControl(c model.Control, threats map[string]model.Threat) model.ControlTest {
	test := model.ControlTest{ID: c.ID, Name: c.Name}

	if len(nonEmpty(c.TechnicalDetails)) == 0 {
		test.Failures = append(test.Failures, "no technical details")
	}
	if c.Effectiveness < s.MinEffectiveness {
		test.Failures = append(test.Failures,
			fmt.Sprintf("effectiveness %g below minimum %g", c.Effectiveness, s.MinEffectiveness))
	}
	if c.Status == model.StatusNotStarted {
		for _, tid := range c.ThreatsAddressed {
			t, ok := threats[tid]
			if !ok {
				continue
			}
			if risk := t.CanonicalRisk(); risk >= CriticalRisk {
				test.Failures = append(test.Failures,
					fmt.Sprintf("not started while addressing critical threat %s (risk %d)", tid, risk))
			}
		}
	}

	test.Passed = len(test.Failures) == 0
	if test.Passed {
		test.Reason = "all checks passed"
	} else {
		test.Reason = strings.Join(test.Failures, "; ")
	}
	return test
}

// overallScore weights the credited fraction at 60 and the credited mean effectiveness at 40
func overallScore(credited, total int, creditedEffectiveness float64) float64 {
	if total == 0 {
		return 0
	}
	score := float64(credited) / float64(total) * implementationWeight
	if credited > 0 {
		score += creditedEffectiveness / float64(credited) / 10 * effectivenessWeight
	}
	return round2(math.Max(0, math.Min(100, score)))
}

func (s *Scorer) exposures(threats []model.Threat) ([]model.ThreatExposure, float64) {
	out := make([]model.ThreatExposure, 0, len(threats))
	var total float64
	for _, t := range threats {
		e := model.ThreatExposure{ID: t.ID, Probability: s.Probabilities[t.Likelihood]}
		e.ImpactValue, e.ImpactParsed = model.ParseDollars(t.BusinessImpact)
		e.Annual = round2(e.Probability * e.ImpactValue)
		total += e.Annual
		out = append(out, e)
	}
	return out, round2(total)
}

func recommendations(r model.PostureResult, cat *model.Catalog) []string {
	var recs []string
	for _, t := range r.Controls {
		if !t.Passed {
			recs = append(recs, fmt.Sprintf("%s (%s): %s", t.ID, t.Name, t.Reason))
		}
	}
	for _, c := range cat.SortedControls() {
		if !c.Implemented() && c.Priority() == "High" {
			recs = append(recs, fmt.Sprintf("Complete implementation of %s (%s), currently %s", c.ID, c.Name, c.Status))
		}
	}
	if r.Score < Target {
		recs = append(recs, fmt.Sprintf("Raise the overall security score from %.2f to the %.0f target", r.Score, Target))
	}
	return recs
}

func nonEmpty(items []string) []string {
	var out []string
	for _, s := range items {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
