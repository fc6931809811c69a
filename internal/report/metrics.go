package report

import (
	"fmt"

	"github.com/ethanolivertroy/tmcheck/internal/check"
	"github.com/ethanolivertroy/tmcheck/internal/grc"
	"github.com/ethanolivertroy/tmcheck/internal/model"
	"github.com/ethanolivertroy/tmcheck/internal/score"
	"github.com/prometheus/client_golang/prometheus"
)

// SecurityMetrics is the shape of security-metrics.json
type SecurityMetrics struct {
	Timestamp      string         `json:"timestamp"`
	ThreatMetrics  ThreatMetrics  `json:"threat_metrics"`
	ControlMetrics ControlMetrics `json:"control_metrics"`
	SecurityScore  SecurityScore  `json:"security_score"`
}

// ThreatMetrics are the threat-side figures tracked over time
type ThreatMetrics struct {
	TotalThreats             int     `json:"total_threats"`
	HighRisk                 int     `json:"high_risk"`
	MediumRisk               int     `json:"medium_risk"`
	LowRisk                  int     `json:"low_risk"`
	AverageRiskScore         float64 `json:"average_risk_score"`
	Gaps                     int     `json:"gaps"`
	StrideCoveragePercentage float64 `json:"stride_coverage_percentage"`
	AnnualExposure           float64 `json:"annual_exposure"`
}

// ControlMetrics are the control-side figures tracked over time
type ControlMetrics struct {
	TotalControls        int     `json:"total_controls"`
	ImplementedControls  int     `json:"implemented_controls"`
	ImplementationRate   float64 `json:"implementation_rate"`
	PassedTests          int     `json:"passed_tests"`
	FailedTests          int     `json:"failed_tests"`
	AverageEffectiveness float64 `json:"average_effectiveness"`
}

// SecurityScore is the overall score with its trend against a baseline
type SecurityScore struct {
	Overall  float64  `json:"overall"`
	Trend    string   `json:"trend"`
	Target   float64  `json:"target"`
	Previous *float64 `json:"previous,omitempty"`
}

// BuildSecurityMetrics produces the metrics snapshot
func BuildSecurityMetrics(run *check.Run, ts string) SecurityMetrics {
	v, p := run.Validation, run.Posture
	return SecurityMetrics{
		Timestamp: ts,
		ThreatMetrics: ThreatMetrics{
			TotalThreats:             v.TotalThreats,
			HighRisk:                 v.Risk.High,
			MediumRisk:               v.Risk.Medium,
			LowRisk:                  v.Risk.Low,
			AverageRiskScore:         v.Risk.AverageRisk,
			Gaps:                     len(v.Gaps),
			StrideCoveragePercentage: v.Stride.Percent,
			AnnualExposure:           p.TotalExposure,
		},
		ControlMetrics: ControlMetrics{
			TotalControls:        p.Summary.TotalControls,
			ImplementedControls:  p.Summary.ImplementedControls,
			ImplementationRate:   p.Summary.ImplementationRate,
			PassedTests:          p.Summary.PassedTests,
			FailedTests:          p.Summary.FailedTests,
			AverageEffectiveness: p.Summary.AverageEffectiveness,
		},
		SecurityScore: SecurityScore{
			Overall:  p.Score,
			Trend:    string(run.Trend),
			Target:   score.Target,
			Previous: run.Baseline,
		},
	}
}

// NewRegistry builds a dedicated registry holding the run's gauges
func NewRegistry(run *check.Run) (*prometheus.Registry, error) {
	registry := prometheus.NewRegistry()

	securityScore := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tmcheck_security_score",
		Help: "Overall security score (0-100)",
	})
	targetScore := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tmcheck_security_score_target",
		Help: "Score from which the posture is STRONG",
	})
	validationPassed := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tmcheck_validation_passed",
		Help: "1 when validation PASSED, 0 when FAILED",
	})
	exposure := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tmcheck_annual_exposure_dollars",
		Help: "Portfolio annual risk exposure in dollars",
	})
	gaps := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tmcheck_gaps",
		Help: "Validation gaps by kind",
	}, []string{"kind"})
	threats := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tmcheck_threats",
		Help: "Threats by canonical risk level",
	}, []string{"risk_level"})
	controls := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tmcheck_controls",
		Help: "Controls by implementation status",
	}, []string{"status"})
	tests := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tmcheck_control_tests",
		Help: "Control test outcomes",
	}, []string{"result"})
	regulations := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tmcheck_regulations",
		Help: "Regulations by compliance status",
	}, []string{"status"})

	for _, c := range []prometheus.Collector{
		securityScore, targetScore, validationPassed, exposure,
		gaps, threats, controls, tests, regulations,
	} {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}

	v, p := run.Validation, run.Posture

	securityScore.Set(p.Score)
	targetScore.Set(score.Target)
	if v.Status == model.ValidationPassed {
		validationPassed.Set(1)
	}
	exposure.Set(p.TotalExposure)

	for _, kind := range []model.GapKind{model.GapDanglingReference, model.GapCoverage, model.GapRiskMatrix} {
		gaps.WithLabelValues(string(kind)).Set(float64(countGaps(v, kind)))
	}

	threats.WithLabelValues("high").Set(float64(v.Risk.High))
	threats.WithLabelValues("medium").Set(float64(v.Risk.Medium))
	threats.WithLabelValues("low").Set(float64(v.Risk.Low))

	for _, s := range model.Statuses {
		controls.WithLabelValues(string(s)).Set(float64(p.Summary.ByStatus[s]))
	}

	tests.WithLabelValues("passed").Set(float64(p.Summary.PassedTests))
	tests.WithLabelValues("failed").Set(float64(p.Summary.FailedTests))

	compliant := grc.CompliantCount(run.Compliance)
	regulations.WithLabelValues(string(grc.Compliant)).Set(float64(compliant))
	regulations.WithLabelValues(string(grc.NonCompliant)).Set(float64(len(run.Compliance) - compliant))

	return registry, nil
}

// writeMetricsTextfile writes the node_exporter textfile collector format
func writeMetricsTextfile(path string, run *check.Run) error {
	registry, err := NewRegistry(run)
	if err != nil {
		return err
	}
	return prometheus.WriteToTextfile(path, registry)
}
