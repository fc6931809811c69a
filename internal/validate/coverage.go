package validate

import (
	"fmt"
	"math"

	"github.com/ethanolivertroy/tmcheck/internal/model"
)

// StrideCoverage reports which STRIDE categories the threat catalog touches
func StrideCoverage(threats []model.Threat) model.StrideCoverage {
	cov := model.StrideCoverage{ByStride: make(map[model.Stride]int)}
	for _, t := range threats {
		if t.Stride.IsValid() {
			cov.ByStride[t.Stride]++
		}
	}
	for _, s := range model.StrideCategories {
		if cov.ByStride[s] > 0 {
			cov.Covered = append(cov.Covered, s)
		} else {
			cov.Missing = append(cov.Missing, s)
		}
	}
	cov.Percent = round2(float64(len(cov.Covered)) / float64(len(model.StrideCategories)) * 100)
	return cov
}

// RiskStatistics buckets threats into high (>=7), medium (4-6) and low bands by canonical risk
func RiskStatistics(threats []model.Threat) model.RiskStatistics {
	var stats model.RiskStatistics
	if len(threats) == 0 {
		return stats
	}

	total := 0
	for _, t := range threats {
		score := t.CanonicalRisk()
		total += score
		switch model.RiskBand(float64(score)) {
		case "high":
			stats.High++
		case "medium":
			stats.Medium++
		default:
			stats.Low++
		}
		if cost, ok := model.ParseDollars(t.EstimatedCost); ok {
			stats.TotalEstimatedCost += cost
		}
	}
	stats.AverageRisk = round2(float64(total) / float64(len(threats)))
	return stats
}

func recommendations(r model.ValidationReport) []string {
	var recs []string

	if len(r.Errors) > 0 {
		recs = append(recs, fmt.Sprintf("Fix %d malformed record field(s) before the next release", len(r.Errors)))
	}

	var dangling, coverage, matrix int
	for _, g := range r.Gaps {
		switch g.Kind {
		case model.GapDanglingReference:
			dangling++
		case model.GapCoverage:
			coverage++
		case model.GapRiskMatrix:
			matrix++
		}
	}
	if dangling > 0 {
		recs = append(recs, fmt.Sprintf("Resolve %d dangling reference(s) between threats, controls and compliance mappings", dangling))
	}
	if coverage > 0 {
		recs = append(recs, fmt.Sprintf("Assign mitigating controls to %d uncovered threat(s)", coverage))
	}
	if matrix > 0 {
		recs = append(recs, fmt.Sprintf("Review %d risk score(s) that disagree with the risk matrix", matrix))
	}
	if r.Risk.High > 0 {
		recs = append(recs, fmt.Sprintf("Prioritise controls for %d high-risk threat(s)", r.Risk.High))
	}
	if len(r.Stride.Missing) > 0 && r.TotalThreats > 0 {
		recs = append(recs, fmt.Sprintf("Extend the threat model to %d uncovered STRIDE categories", len(r.Stride.Missing)))
	}
	return recs
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
