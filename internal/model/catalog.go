package model

import "sort"

// Catalog holds the three collections loaded for a single run
type Catalog struct {
	Threats  []Threat
	Controls []Control
	Mappings []ComplianceMapping
}

// Threat looks up a threat by ID
func (c *Catalog) Threat(id string) (Threat, bool) {
	for _, t := range c.Threats {
		if t.ID == id {
			return t, true
		}
	}
	return Threat{}, false
}

// Control looks up a control by ID
func (c *Catalog) Control(id string) (Control, bool) {
	for _, ctrl := range c.Controls {
		if ctrl.ID == id {
			return ctrl, true
		}
	}
	return Control{}, false
}

// ThreatIndex returns threats keyed by ID
func (c *Catalog) ThreatIndex() map[string]Threat {
	idx := make(map[string]Threat, len(c.Threats))
	for _, t := range c.Threats {
		idx[t.ID] = t
	}
	return idx
}

// ControlIndex returns controls keyed by ID
func (c *Catalog) ControlIndex() map[string]Control {
	idx := make(map[string]Control, len(c.Controls))
	for _, ctrl := range c.Controls {
		idx[ctrl.ID] = ctrl
	}
	return idx
}

// ControlsFor returns the IDs of controls addressing a threat, sorted
func (c *Catalog) ControlsFor(threatID string) []string {
	var ids []string
	for _, ctrl := range c.Controls {
		for _, tid := range ctrl.ThreatsAddressed {
			if tid == threatID {
				ids = append(ids, ctrl.ID)
				break
			}
		}
	}
	sort.Strings(ids)
	return ids
}

// SortedThreats returns a copy of the threats ordered by ID
func (c *Catalog) SortedThreats() []Threat {
	out := make([]Threat, len(c.Threats))
	copy(out, c.Threats)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SortedControls returns a copy of the controls ordered by ID
func (c *Catalog) SortedControls() []Control {
	out := make([]Control, len(c.Controls))
	copy(out, c.Controls)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SortedMappings returns a copy of the mappings ordered by regulation name
func (c *Catalog) SortedMappings() []ComplianceMapping {
	out := make([]ComplianceMapping, len(c.Mappings))
	copy(out, c.Mappings)
	sort.Slice(out, func(i, j int) bool { return out[i].Regulation < out[j].Regulation })
	return out
}
