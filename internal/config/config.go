package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/agentx-labs/rulesync/internal/branding"
	"github.com/spf13/viper"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Known configuration keys.
const (
	KeyConfigsDir = "configs_dir"
	KeyTargets    = "targets"
	KeyBackup     = "backup"
)

// Keys returns the known configuration keys in display order.
func Keys() []string {
	return []string{KeyConfigsDir, KeyTargets, KeyBackup}
}

// CheckValue reports whether value can be stored under key.
func CheckValue(key, value string) error {
	switch key {
	case KeyConfigsDir:
		return nil
	case KeyTargets:
		if len(SplitList(value)) == 0 {
			return fmt.Errorf("%s needs at least one target", key)
		}
		return nil
	case KeyBackup:
		if _, err := strconv.ParseBool(value); err != nil {
			return fmt.Errorf("%s must be true or false, got %q", key, value)
		}
		return nil
	default:
		return fmt.Errorf("unknown key %q (known: %s)", key, strings.Join(Keys(), ", "))
	}
}

// configsDirName is the directory holding per-technology sources.
const configsDirName = "configs"

// Dir returns the path to the RuleSync config directory (~/.rulesync/).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file (~/.rulesync/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

// Load initializes Viper to read from the config file and environment.
func Load() {
	viper.SetConfigFile(FilePath())
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.AutomaticEnv()

	viper.SetDefault(KeyBackup, true)
	viper.SetDefault(KeyTargets, "claude")

	// Ignore error if config file doesn't exist yet.
	_ = viper.ReadInConfig()
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) string {
	return viper.GetString(key)
}

// BackupEnabled reports whether overwritten files are backed up by default.
func BackupEnabled() bool {
	return viper.GetBool(KeyBackup)
}

// DefaultTargets returns the configured default target tools.
func DefaultTargets() []string {
	return SplitList(viper.GetString(KeyTargets))
}

// Set writes a config key-value pair and saves the config file.
func Set(key, value string) error {
	if err := CheckValue(key, value); err != nil {
		return err
	}
	if err := EnsureDir(); err != nil {
		return err
	}

	viper.Set(key, value)

	configFile := FilePath()

	// Create the file if it doesn't exist.
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("creating config file %s: %w", configFile, err)
		}
		f.Close()
	}

	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// ConfigsDir locates the source configs directory.
//
// Resolution order:
//  1. explicit override (the --configs flag)
//  2. RULESYNC_CONFIGS env var
//  3. config key "configs_dir"
//  4. $RULESYNC_HOME/configs (development checkout)
//  5. binary-relative ../configs (bundled releases)
//  6. ~/.rulesync/configs
func ConfigsDir(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	if v := os.Getenv(branding.EnvVar("CONFIGS")); v != "" {
		return v, nil
	}
	if v := Get(KeyConfigsDir); v != "" {
		return v, nil
	}

	var candidates []string
	if home := os.Getenv(branding.EnvVar("HOME")); home != "" {
		candidates = append(candidates, filepath.Join(home, configsDirName))
	}
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), "..", configsDirName))
	}
	candidates = append(candidates, filepath.Join(Dir(), configsDirName))

	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && info.IsDir() {
			return c, nil
		}
	}

	return "", fmt.Errorf("no configs directory found: pass --configs or set %s", branding.EnvVar("CONFIGS"))
}

// SplitList splits a comma-separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
