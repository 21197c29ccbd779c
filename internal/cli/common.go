package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/agentx-labs/rulesync/internal/adapters"
	"github.com/agentx-labs/rulesync/internal/catalog"
	"github.com/agentx-labs/rulesync/internal/config"
	"github.com/agentx-labs/rulesync/internal/installer"
	"github.com/spf13/afero"
)

// appFs is the filesystem every command operates on.
var appFs = afero.NewOsFs()

// projectDir resolves the --target flag to an absolute directory.
func projectDir(target string) (string, error) {
	if target == "" {
		target = "."
	}
	abs, err := filepath.Abs(target)
	if err != nil {
		return "", fmt.Errorf("resolving target directory: %w", err)
	}
	if info, err := os.Stat(abs); err != nil || !info.IsDir() {
		return "", fmt.Errorf("target directory %s does not exist", abs)
	}
	return abs, nil
}

func loadCatalog(override string) (*catalog.Catalog, error) {
	dir, err := config.ConfigsDir(override)
	if err != nil {
		return nil, err
	}
	return catalog.Load(appFs, dir)
}

// newInstaller returns an installer for cat. cat may be nil for commands
// that only read manifests.
func newInstaller(cat *catalog.Catalog) *installer.Installer {
	return installer.New(appFs, adapters.NewRegistry(), cat,
		installer.WithVersion(buildVersion),
		installer.WithBackup(config.BackupEnabled()),
	)
}
