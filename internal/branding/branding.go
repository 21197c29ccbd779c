// Package branding provides compile-time identity values for the CLI.
//
// The values live in branding.yaml next to this file and are baked into the
// binary with //go:embed, so a fork only has to edit one file to rename the
// tool, its home directory, and its environment variable prefix.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName      string `yaml:"cli_name"`
	DisplayName  string `yaml:"display_name"`
	Description  string `yaml:"description"`
	HomeDir      string `yaml:"home_dir"`
	EnvPrefix    string `yaml:"env_prefix"`
	ManifestFile string `yaml:"manifest_file"`
}

func load() {
	once.Do(func() {
		// Used for any key the embedded file leaves out.
		defaults = brand{
			CLIName:      "rulesync",
			DisplayName:  "RuleSync",
			Description:  "Installs and syncs AI assistant rules, skills, and settings into projects",
			HomeDir:      ".rulesync",
			EnvPrefix:    "RULESYNC",
			ManifestFile: ".rulesync-manifest.json",
		}
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "rulesync").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name (e.g., "RuleSync").
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// HomeDir returns the dot-directory name under $HOME (e.g., ".rulesync").
func HomeDir() string { load(); return defaults.HomeDir }

// EnvPrefix returns the environment variable prefix (e.g., "RULESYNC").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// ManifestFile returns the name of the installation manifest written into
// the primary output directory of a project.
func ManifestFile() string { load(); return defaults.ManifestFile }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("HOME") → "RULESYNC_HOME".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
