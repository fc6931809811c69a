// Package model holds the typed threat-model records shared by every stage of a run
package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Level is a three-step rating used for likelihood, impact and maintenance overhead
type Level string

const (
	LevelLow    Level = "Low"
	LevelMedium Level = "Medium"
	LevelHigh   Level = "High"
)

// Levels lists the valid levels from lowest to highest
var Levels = []Level{LevelLow, LevelMedium, LevelHigh}

// IsValid reports whether l is one of the known levels
func (l Level) IsValid() bool {
	switch l {
	case LevelLow, LevelMedium, LevelHigh:
		return true
	}
	return false
}

// ParseLevel accepts a level name in any case
func ParseLevel(s string) (Level, error) {
	for _, l := range Levels {
		if strings.EqualFold(strings.TrimSpace(s), string(l)) {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown level %q (want Low, Medium or High)", s)
}

// Stride is one of the six STRIDE threat categories
type Stride string

const (
	StrideSpoofing              Stride = "Spoofing"
	StrideTampering             Stride = "Tampering"
	StrideRepudiation           Stride = "Repudiation"
	StrideInformationDisclosure Stride = "Information Disclosure"
	StrideDenialOfService       Stride = "Denial of Service"
	StrideElevationOfPrivilege  Stride = "Elevation of Privilege"
)

// StrideCategories lists the taxonomy in its conventional order
var StrideCategories = []Stride{
	StrideSpoofing,
	StrideTampering,
	StrideRepudiation,
	StrideInformationDisclosure,
	StrideDenialOfService,
	StrideElevationOfPrivilege,
}

// IsValid reports whether s is a STRIDE category
func (s Stride) IsValid() bool {
	for _, c := range StrideCategories {
		if s == c {
			return true
		}
	}
	return false
}

// ParseStride accepts a category name in any case
func ParseStride(s string) (Stride, error) {
	for _, c := range StrideCategories {
		if strings.EqualFold(strings.TrimSpace(s), string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown STRIDE category %q", s)
}

// Threat is a single entry of the threat catalog
type Threat struct {
	ID                  string
	Name                string
	Category            string
	Stride              Stride
	Likelihood          Level
	Impact              Level
	RiskScore           float64
	RiskDeclared        bool // false when risk_score was absent and RiskScore came from the matrix
	BusinessImpact      string
	AttackScenarios     []string
	DetectionMethods    []string
	CurrentControls     string
	RecommendedControls []string
	EstimatedCost       string
	Extra               map[string]any
}

// CanonicalRisk returns the risk matrix value for the threat's likelihood and impact
func (t Threat) CanonicalRisk() int {
	return RiskMatrix(t.Likelihood, t.Impact)
}

// RiskConsistent reports whether the declared score matches the risk matrix
func (t Threat) RiskConsistent() bool {
	return t.RiskScore == float64(t.CanonicalRisk())
}

// RiskBand classifies a risk score the way the risk statistics do: high >= 7, medium >= 4
func RiskBand(score float64) string {
	switch {
	case score >= 7:
		return "high"
	case score >= 4:
		return "medium"
	}
	return "low"
}

// riskMatrix is indexed [likelihood][impact]
var riskMatrix = map[Level]map[Level]int{
	LevelHigh:   {LevelHigh: 9, LevelMedium: 6, LevelLow: 3},
	LevelMedium: {LevelHigh: 6, LevelMedium: 4, LevelLow: 2},
	LevelLow:    {LevelHigh: 3, LevelMedium: 2, LevelLow: 1},
}

// RiskMatrix returns the canonical risk score for a likelihood/impact pair, or 0 for unknown levels
func RiskMatrix(likelihood, impact Level) int {
	return riskMatrix[likelihood][impact]
}

// ParseDollars extracts a dollar amount from strings like "$500K", "$10M+" or "$1.5M".
// The second return value is false when no amount could be found.
func ParseDollars(s string) (float64, bool) {
	idx := strings.Index(s, "$")
	if idx < 0 {
		return 0, false
	}
	rest := s[idx+1:]

	end := 0
	for end < len(rest) && (rest[end] >= '0' && rest[end] <= '9' || rest[end] == '.' || rest[end] == ',') {
		end++
	}
	if end == 0 {
		return 0, false
	}
	value, err := strconv.ParseFloat(strings.ReplaceAll(rest[:end], ",", ""), 64)
	if err != nil {
		return 0, false
	}

	multiplier := 1.0
	if end < len(rest) {
		switch rest[end] {
		case 'K', 'k':
			multiplier = 1e3
		case 'M', 'm':
			multiplier = 1e6
		case 'B', 'b':
			multiplier = 1e9
		}
	}
	return value * multiplier, true
}

// FormatDollars renders an amount as "$1,234,567"
func FormatDollars(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}
	digits := strconv.FormatInt(int64(amount+0.5), 10)

	var b strings.Builder
	if negative {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	return b.String()
}
