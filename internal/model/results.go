package model

// ValidationStatus is the binary verdict that gates CI
type ValidationStatus string

const (
	ValidationPassed ValidationStatus = "PASSED"
	ValidationFailed ValidationStatus = "FAILED"
)

// GapKind classifies a non-fatal finding
type GapKind string

const (
	GapDanglingReference GapKind = "dangling-reference"
	GapCoverage          GapKind = "coverage"
	GapRiskMatrix        GapKind = "risk-matrix"
)

// Gap is a non-fatal consistency finding. Subject is the record the finding is about.
type Gap struct {
	Kind    GapKind
	Subject string
	Message string
}

// String renders the gap as it appears in reports
func (g Gap) String() string {
	return g.Subject + ": " + g.Message
}

// RecordError is a hard error about a malformed record
type RecordError struct {
	Subject string
	Field   string
	Message string
}

func (e RecordError) String() string {
	if e.Field == "" {
		return e.Subject + ": " + e.Message
	}
	return e.Subject + ": " + e.Field + " " + e.Message
}

// StrideCoverage summarises which STRIDE categories the catalog addresses
type StrideCoverage struct {
	Covered  []Stride
	Missing  []Stride
	Percent  float64
	ByStride map[Stride]int
}

// RiskStatistics buckets threats by canonical risk band
type RiskStatistics struct {
	High               int
	Medium             int
	Low                int
	AverageRisk        float64
	TotalEstimatedCost float64
}

// ValidationReport is the validator's output
type ValidationReport struct {
	Status          ValidationStatus
	Gaps            []Gap
	Errors          []RecordError
	GapTolerance    int
	TotalThreats    int
	Stride          StrideCoverage
	Risk            RiskStatistics
	Recommendations []string
}

// GapStrings returns the rendered gap list
func (r ValidationReport) GapStrings() []string {
	out := make([]string, 0, len(r.Gaps))
	for _, g := range r.Gaps {
		out = append(out, g.String())
	}
	return out
}

// ErrorStrings returns the rendered hard error list
func (r ValidationReport) ErrorStrings() []string {
	out := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		out = append(out, e.String())
	}
	return out
}

// Posture is the three-level security posture classification
type Posture string

const (
	PostureStrong     Posture = "STRONG"
	PostureAcceptable Posture = "ACCEPTABLE"
	PostureWeak       Posture = "WEAK"
)

// PostureFromScore maps an overall security score onto a posture label
func PostureFromScore(score float64) Posture {
	switch {
	case score >= 80:
		return PostureStrong
	case score >= 50:
		return PostureAcceptable
	}
	return PostureWeak
}

// ControlTest is the outcome of the rule evaluator for one control
type ControlTest struct {
	ID       string
	Name     string
	Passed   bool
	Reason   string
	Failures []string
}

// ThreatExposure is the annualised exposure computed for one threat
type ThreatExposure struct {
	ID           string
	Probability  float64
	ImpactValue  float64
	ImpactParsed bool
	Annual       float64
}

// PostureSummary holds the aggregate counts behind the score
type PostureSummary struct {
	TotalControls        int
	ImplementedControls  int
	CreditedControls     int
	ImplementationRate   float64
	PassedTests          int
	FailedTests          int
	AverageEffectiveness float64
	TotalInvestment      float64
	ByStatus             map[ImplementationStatus]int
	ByCategory           map[ControlCategory]int
}

// PostureResult is the scorer's output
type PostureResult struct {
	Score           float64
	Posture         Posture
	Controls        []ControlTest
	Summary         PostureSummary
	Exposures       []ThreatExposure
	TotalExposure   float64
	Recommendations []string
}

// Test returns the control test for an ID
func (p PostureResult) Test(id string) (ControlTest, bool) {
	for _, t := range p.Controls {
		if t.ID == id {
			return t, true
		}
	}
	return ControlTest{}, false
}

// Exposure returns the exposure entry for a threat ID
func (p PostureResult) Exposure(id string) (ThreatExposure, bool) {
	for _, e := range p.Exposures {
		if e.ID == id {
			return e, true
		}
	}
	return ThreatExposure{}, false
}
