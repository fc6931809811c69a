// Package validate checks a loaded catalog for well-formedness and cross-reference consistency
package validate

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ethanolivertroy/tmcheck/internal/model"
)

var (
	threatIDPattern  = regexp.MustCompile(`^ML-\d{3}$`)
	controlIDPattern = regexp.MustCompile(`^SC-\d{3}$`)
)

// DefaultGapTolerance fails validation on any gap
const DefaultGapTolerance = 0

// Validator runs every consistency check over a catalog
type Validator struct {
	// GapTolerance is the number of gaps allowed before validation fails
	GapTolerance int
}

// New creates a validator with the given gap tolerance
func New(gapTolerance int) *Validator {
	return &Validator{GapTolerance: gapTolerance}
}

// Validate runs all checks and never stops at the first finding
func (v *Validator) Validate(cat *model.Catalog) model.ValidationReport {
	report := model.ValidationReport{
		GapTolerance: v.GapTolerance,
		TotalThreats: len(cat.Threats),
	}

	threats := cat.ThreatIndex()
	controls := cat.ControlIndex()

	for _, t := range cat.Threats {
		report.Errors = append(report.Errors, checkThreat(t)...)
		report.Gaps = append(report.Gaps, threatGaps(t, controls)...)
	}
	for _, c := range cat.Controls {
		report.Errors = append(report.Errors, checkControl(c)...)
		for _, tid := range c.ThreatsAddressed {
			if _, ok := threats[tid]; !ok {
				report.Gaps = append(report.Gaps, model.Gap{
					Kind:    model.GapDanglingReference,
					Subject: c.ID,
					Message: fmt.Sprintf("addresses unknown threat %s", tid),
				})
			}
		}
	}
	for _, m := range cat.Mappings {
		if strings.TrimSpace(m.Regulation) == "" {
			report.Errors = append(report.Errors, model.RecordError{
				Subject: "compliance_mapping",
				Field:   "regulation",
				Message: "must not be empty",
			})
		}
		for _, cid := range m.Controls {
			if _, ok := controls[cid]; !ok {
				report.Gaps = append(report.Gaps, model.Gap{
					Kind:    model.GapDanglingReference,
					Subject: m.Regulation,
					Message: fmt.Sprintf("maps unknown control %s", cid),
				})
			}
		}
	}

	report.Gaps = append(report.Gaps, coverageGaps(cat)...)

	sortGaps(report.Gaps)
	sortErrors(report.Errors)

	report.Stride = StrideCoverage(cat.Threats)
	report.Risk = RiskStatistics(cat.Threats)

	report.Status = model.ValidationPassed
	if len(report.Errors) > 0 || len(report.Gaps) > v.GapTolerance {
		report.Status = model.ValidationFailed
	}
	report.Recommendations = recommendations(report)

	return report
}

func checkThreat(t model.Threat) []model.RecordError {
	var errs []model.RecordError
	fail := func(field, msg string) {
		errs = append(errs, model.RecordError{Subject: subject(t.ID), Field: field, Message: msg})
	}

	if !threatIDPattern.MatchString(t.ID) {
		fail("id", fmt.Sprintf("%q does not match ML-###", t.ID))
	}
	if strings.TrimSpace(t.Name) == "" {
		fail("name", "must not be empty")
	}
	if t.Stride == "" {
		fail("stride_category", "is missing")
	} else if !t.Stride.IsValid() {
		fail("stride_category", fmt.Sprintf("%q is not a STRIDE category", t.Stride))
	}
	if !t.Likelihood.IsValid() {
		fail("likelihood", fmt.Sprintf("%q is not Low, Medium or High", t.Likelihood))
	}
	if !t.Impact.IsValid() {
		fail("impact", fmt.Sprintf("%q is not Low, Medium or High", t.Impact))
	}
	if !(t.RiskScore >= 0 && t.RiskScore <= 10) {
		fail("risk_score", fmt.Sprintf("%g is outside 0-10", t.RiskScore))
	}
	if strings.TrimSpace(t.BusinessImpact) == "" {
		fail("business_impact", "must not be empty")
	}
	return errs
}

func checkControl(c model.Control) []model.RecordError {
	var errs []model.RecordError
	fail := func(field, msg string) {
		errs = append(errs, model.RecordError{Subject: subject(c.ID), Field: field, Message: msg})
	}

	if !controlIDPattern.MatchString(c.ID) {
		fail("id", fmt.Sprintf("%q does not match SC-###", c.ID))
	}
	if strings.TrimSpace(c.Name) == "" {
		fail("name", "must not be empty")
	}
	if !c.Category.IsValid() {
		fail("category", fmt.Sprintf("%q is not Preventive, Detective or Corrective", c.Category))
	}
	if !c.Status.IsValid() {
		fail("implementation_status", fmt.Sprintf("%q is not a known status", c.Status))
	}
	if c.MaintenanceOverhead != "" && !c.MaintenanceOverhead.IsValid() {
		fail("maintenance_overhead", fmt.Sprintf("%q is not Low, Medium or High", c.MaintenanceOverhead))
	}
	if !(c.Effectiveness >= 0 && c.Effectiveness <= 10) {
		fail("effectiveness_score", fmt.Sprintf("%g is outside 0-10", c.Effectiveness))
	}
	if len(nonEmpty(c.TechnicalDetails)) == 0 {
		fail("technical_details", "must list at least one detail")
	}
	return errs
}

// threatGaps covers the per-threat findings: risk matrix and recommended controls
func threatGaps(t model.Threat, controls map[string]model.Control) []model.Gap {
	var gaps []model.Gap

	if t.RiskDeclared && t.Likelihood.IsValid() && t.Impact.IsValid() && !t.RiskConsistent() {
		gaps = append(gaps, model.Gap{
			Kind:    model.GapRiskMatrix,
			Subject: t.ID,
			Message: fmt.Sprintf("declared risk score %g does not match %d for likelihood %s and impact %s",
				t.RiskScore, t.CanonicalRisk(), t.Likelihood, t.Impact),
		})
	}

	for _, cid := range t.RecommendedControls {
		if _, ok := controls[cid]; !ok {
			gaps = append(gaps, model.Gap{
				Kind:    model.GapDanglingReference,
				Subject: t.ID,
				Message: fmt.Sprintf("recommends unknown control %s", cid),
			})
		}
	}
	return gaps
}

// coverageGaps reports every threat that no control addresses
func coverageGaps(cat *model.Catalog) []model.Gap {
	addressed := make(map[string]bool)
	for _, c := range cat.Controls {
		for _, tid := range c.ThreatsAddressed {
			addressed[tid] = true
		}
	}

	var gaps []model.Gap
	for _, t := range cat.Threats {
		if !addressed[t.ID] {
			gaps = append(gaps, model.Gap{
				Kind:    model.GapCoverage,
				Subject: t.ID,
				Message: fmt.Sprintf("threat %s is not addressed by any control", t.ID),
			})
		}
	}
	return gaps
}

func sortGaps(gaps []model.Gap) {
	sort.SliceStable(gaps, func(i, j int) bool {
		if gaps[i].Subject != gaps[j].Subject {
			return gaps[i].Subject < gaps[j].Subject
		}
		return gaps[i].Message < gaps[j].Message
	})
}

func sortErrors(errs []model.RecordError) {
	sort.SliceStable(errs, func(i, j int) bool {
		a, b := errs[i], errs[j]
		if a.Subject != b.Subject {
			return a.Subject < b.Subject
		}
		if a.Field != b.Field {
			return a.Field < b.Field
		}
		return a.Message < b.Message
	})
}

func subject(id string) string {
	if strings.TrimSpace(id) == "" {
		return "(no id)"
	}
	return id
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
