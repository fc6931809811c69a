package model

import (
	"fmt"
	"strings"
)

// ControlCategory is the functional role of a control
type ControlCategory string

const (
	CategoryPreventive ControlCategory = "Preventive"
	CategoryDetective  ControlCategory = "Detective"
	CategoryCorrective ControlCategory = "Corrective"
)

// ControlCategories lists the valid control categories
var ControlCategories = []ControlCategory{CategoryPreventive, CategoryDetective, CategoryCorrective}

// IsValid reports whether c is a known category
func (c ControlCategory) IsValid() bool {
	switch c {
	case CategoryPreventive, CategoryDetective, CategoryCorrective:
		return true
	}
	return false
}

// ParseControlCategory accepts a category name in any case
func ParseControlCategory(s string) (ControlCategory, error) {
	for _, c := range ControlCategories {
		if strings.EqualFold(strings.TrimSpace(s), string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown control category %q (want Preventive, Detective or Corrective)", s)
}

// ImplementationStatus tracks how far a control has been rolled out
type ImplementationStatus string

const (
	StatusNotStarted  ImplementationStatus = "Not Started"
	StatusPlanned     ImplementationStatus = "Planned"
	StatusResearch    ImplementationStatus = "Research"
	StatusPartial     ImplementationStatus = "Partial"
	StatusImplemented ImplementationStatus = "Implemented"
)

// Statuses lists the implementation statuses in rollout order
var Statuses = []ImplementationStatus{
	StatusNotStarted,
	StatusPlanned,
	StatusResearch,
	StatusPartial,
	StatusImplemented,
}

// IsValid reports whether s is a known status
func (s ImplementationStatus) IsValid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// ParseStatus accepts a status name in any case
func ParseStatus(s string) (ImplementationStatus, error) {
	for _, v := range Statuses {
		if strings.EqualFold(strings.TrimSpace(s), string(v)) {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown implementation status %q", s)
}

// Control is a mitigating security control
type Control struct {
	ID                   string
	Name                 string
	Category             ControlCategory
	ThreatsAddressed     []string
	Status               ImplementationStatus
	Description          string
	TechnicalDetails     []string
	ImplementationEffort string
	EstimatedCost        string
	Effectiveness        float64
	MaintenanceOverhead  Level
	Dependencies         []string
	Extra                map[string]any
}

// Implemented reports whether the control is fully rolled out
func (c Control) Implemented() bool {
	return c.Status == StatusImplemented
}

// Priority ranks the control for the implementation roadmap
func (c Control) Priority() string {
	if c.Effectiveness >= 7 {
		return "High"
	}
	return "Medium"
}

// ComplianceMapping ties a regulation's requirements to the controls claimed to satisfy them
type ComplianceMapping struct {
	Regulation   string
	Requirements []string
	Controls     []string
}
