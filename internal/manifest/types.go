package manifest

import "time"

// Manifest is the persisted record of one installation.
type Manifest struct {
	Version      string    `json:"version"`
	InstalledAt  time.Time `json:"installedAt"`
	Technologies []string  `json:"technologies"`
	Targets      []string  `json:"targets"`
	Options      Options   `json:"options"`
}

// Options are the install options that update replays.
type Options struct {
	WithSkills bool `json:"withSkills"`
	WithRules  bool `json:"withRules"`
	// TechChoices maps technology to variant category to chosen file.
	TechChoices map[string]map[string]string `json:"techChoices,omitempty"`
}

// PrimaryTarget returns the first recorded target, or "" when none is set.
func (m *Manifest) PrimaryTarget() string {
	if len(m.Targets) == 0 {
		return ""
	}
	return m.Targets[0]
}
