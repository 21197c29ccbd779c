package installer

import (
	"github.com/agentx-labs/rulesync/internal/manifest"
)

// Status summarizes a project's recorded installation.
type Status struct {
	Manifest     *manifest.Manifest `json:"manifest"`
	ManifestPath string             `json:"manifestPath"`
	Running      string             `json:"runningVersion"`
	Drift        manifest.Drift     `json:"drift"`
}

// Status reads the project's manifest and compares it with the running
// version. It returns manifest.ErrNotFound when nothing is installed.
func (i *Installer) Status(targetDir string) (*Status, error) {
	m, path, err := i.store.Read(targetDir)
	if err != nil {
		return nil, err
	}
	return &Status{
		Manifest:     m,
		ManifestPath: path,
		Running:      i.version,
		Drift:        manifest.DriftFrom(m.Version, i.version),
	}, nil
}
