package adapters

import (
	"fmt"
	"strings"
)

// Target identifiers.
const (
	Claude   = "claude"
	Copilot  = "copilot"
	Codex    = "codex"
	Windsurf = "windsurf"
)

// Capabilities lists which artifact kinds a target accepts.
type Capabilities struct {
	Rules     bool `json:"rules"`
	Skills    bool `json:"skills"`
	Settings  bool `json:"settings"`
	Workflows bool `json:"workflows"`
}

// Descriptor is the static description of a target.
type Descriptor struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	OutputDir string       `json:"outputDir"`
	Supports  Capabilities `json:"supports"`
}

// UnknownTargetError is returned for a target id that is not registered.
type UnknownTargetError struct {
	ID    string
	Valid []string
}

func (e *UnknownTargetError) Error() string {
	return fmt.Sprintf("unknown target %q (valid targets: %s)", e.ID, strings.Join(e.Valid, ", "))
}

type registration struct {
	adapter    Adapter
	descriptor Descriptor
}

// Registry maps target ids to adapters. It is built once and never
// modified afterwards.
type Registry struct {
	order   []string
	entries map[string]registration
}

// NewRegistry returns the registry of every supported target.
func NewRegistry() *Registry {
	r := &Registry{entries: make(map[string]registration)}

	r.add(NewPassthroughAdapter(".claude"), Descriptor{
		ID:        Claude,
		Name:      "Claude Code",
		OutputDir: ".claude",
		Supports:  Capabilities{Rules: true, Skills: true, Settings: true},
	})
	r.add(NewPathsToApplyToAdapter(".github", "copilot-instructions.md"), Descriptor{
		ID:        Copilot,
		Name:      "GitHub Copilot",
		OutputDir: ".github",
		Supports:  Capabilities{Rules: true},
	})
	r.add(NewAggregatingAdapter(".codex", "AGENTS.md"), Descriptor{
		ID:        Codex,
		Name:      "Codex",
		OutputDir: ".codex",
		Supports:  Capabilities{Rules: true},
	})
	r.add(NewWorkflowAdapter(".windsurf"), Descriptor{
		ID:        Windsurf,
		Name:      "Windsurf",
		OutputDir: ".windsurf",
		Supports:  Capabilities{Rules: true, Workflows: true},
	})

	return r
}

func (r *Registry) add(a Adapter, d Descriptor) {
	r.order = append(r.order, d.ID)
	r.entries[d.ID] = registration{adapter: a, descriptor: d}
}

// Get returns the adapter registered for id.
func (r *Registry) Get(id string) (Adapter, error) {
	reg, ok := r.entries[id]
	if !ok {
		return nil, r.unknown(id)
	}
	return reg.adapter, nil
}

// Descriptor returns the static descriptor registered for id.
func (r *Registry) Descriptor(id string) (Descriptor, error) {
	reg, ok := r.entries[id]
	if !ok {
		return Descriptor{}, r.unknown(id)
	}
	return reg.descriptor, nil
}

// IDs returns every registered id in registration order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Descriptors returns every descriptor in registration order.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.entries[id].descriptor)
	}
	return out
}

// Validate checks that every id is registered, returning the first failure.
func (r *Registry) Validate(ids []string) error {
	for _, id := range ids {
		if _, ok := r.entries[id]; !ok {
			return r.unknown(id)
		}
	}
	return nil
}

func (r *Registry) unknown(id string) error {
	return &UnknownTargetError{ID: id, Valid: r.IDs()}
}
