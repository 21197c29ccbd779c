package installer

import (
	"fmt"

	"github.com/agentx-labs/rulesync/internal/manifest"
	"github.com/agentx-labs/rulesync/internal/variant"
)

// UpdateRequest re-runs the installation recorded in a project's manifest.
type UpdateRequest struct {
	TargetDir string
	DryRun    bool
	// Force re-runs even when the recorded version matches, and disables
	// backups.
	Force bool
}

// UpdateResult is the outcome of Update. Install is nil when UpToDate.
type UpdateResult struct {
	UpToDate     bool
	Previous     *manifest.Manifest
	ManifestPath string
	Install      *Result
}

// Update replays the manifest's installation when the running version
// differs from the recorded one. An up-to-date project is left untouched.
func (i *Installer) Update(req UpdateRequest) (*UpdateResult, error) {
	prev, path, err := i.store.Read(req.TargetDir)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	out := &UpdateResult{Previous: prev, ManifestPath: path}
	if !req.Force && manifest.SameVersion(prev.Version, i.version) {
		i.logger.Debug().Str("version", prev.Version).Msg("Installation is already up to date")
		out.UpToDate = true
		return out, nil
	}

	choices := make(map[string]variant.Selection, len(prev.Options.TechChoices))
	for tech, sel := range prev.Options.TechChoices {
		choices[tech] = variant.Selection(sel)
	}

	res, err := i.Install(Request{
		TargetDir:    req.TargetDir,
		Targets:      prev.Targets,
		Technologies: prev.Technologies,
		Options: Options{
			WithSkills:  prev.Options.WithSkills,
			WithRules:   prev.Options.WithRules,
			TechChoices: choices,
			DryRun:      req.DryRun,
			Force:       req.Force,
		},
	})
	out.Install = res
	return out, err
}
