package model

import (
	"fmt"
	"strings"
)

// ThreatItem wraps Threat to implement list.Item interface
type ThreatItem struct {
	Threat
}

// Title returns the display title for the list
func (t ThreatItem) Title() string {
	return t.Name
}

// Description returns the secondary text for the list
func (t ThreatItem) Description() string {
	return fmt.Sprintf("%s | %s/%s | Risk: %g", t.Stride, t.Likelihood, t.Impact, t.RiskScore)
}

// FilterValue returns the string used for filtering
func (t ThreatItem) FilterValue() string {
	return strings.Join([]string{
		t.ID,
		t.Name,
		t.Category,
		string(t.Stride),
	}, " ")
}

// ControlItem wraps Control to implement list.Item interface
type ControlItem struct {
	Control
}

// Title returns the display title for the list
func (c ControlItem) Title() string {
	return c.Name
}

// Description returns the secondary text for the list
func (c ControlItem) Description() string {
	threats := "none"
	if len(c.ThreatsAddressed) > 0 {
		threats = strings.Join(c.ThreatsAddressed, ", ")
	}
	return fmt.Sprintf("%s | %s | Addresses: %s", c.Category, c.Status, threats)
}

// FilterValue returns the string used for filtering
func (c ControlItem) FilterValue() string {
	return strings.Join([]string{
		c.ID,
		c.Name,
		string(c.Category),
		string(c.Status),
	}, " ")
}
