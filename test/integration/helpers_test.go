//go:build integration

package integration_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/agentx-labs/rulesync/internal/adapters"
	"github.com/agentx-labs/rulesync/internal/catalog"
	"github.com/agentx-labs/rulesync/internal/installer"
	"github.com/spf13/afero"
)

// testEnv holds paths to isolated test directories.
type testEnv struct {
	HomeDir    string // RULESYNC_HOME
	ConfigsDir string // RULESYNC_CONFIGS, the technology sources
	ProjectDir string // A mock project directory
}

// setupTestEnv creates isolated temp directories and sets environment variables
// so all rulesync operations are sandboxed. The env vars are restored after the test.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		HomeDir:    t.TempDir(),
		ConfigsDir: t.TempDir(),
		ProjectDir: t.TempDir(),
	}

	t.Setenv("HOME", env.HomeDir)
	t.Setenv("RULESYNC_HOME", env.HomeDir)
	t.Setenv("RULESYNC_CONFIGS", env.ConfigsDir)

	return env
}

// setupConfigs writes a synthetic source tree with two technologies, shared
// rules in two categories, and a skill with a supporting script.
func setupConfigs(t *testing.T, configsDir string) {
	t.Helper()

	writeFile(t, filepath.Join(configsDir, "catalog.yaml"), `technologies:
  - name: go
    description: Go services
    variants:
      conventions: [styleA, styleB]
  - name: python
    description: Python tools
shared:
  categories:
    testing: [go]
    packaging: [python]
`)

	// --- go ---
	writeFile(t, filepath.Join(configsDir, "go/rules/errors.md"), `---
description: Error handling
alwaysApply: true
---
Wrap errors with context.
`)
	writeFile(t, filepath.Join(configsDir, "go/rules/http-handlers.md"), `---
description: HTTP handlers
paths:
  - "internal/http/**"
  - "cmd/**"
---
Keep handlers thin.
`)
	writeFile(t, filepath.Join(configsDir, "go/rules/conventions/styleA.md"), "Use style A.\n")
	writeFile(t, filepath.Join(configsDir, "go/rules/conventions/styleB.md"), "Use style B.\n")
	writeFile(t, filepath.Join(configsDir, "go/skills/lint/SKILL.md"), `---
name: lint
description: Run the linters
allowed-tools: Bash
---
Run golangci-lint run ./...
`)
	writeFile(t, filepath.Join(configsDir, "go/skills/lint/scripts/lint.sh"), "#!/bin/sh\ngolangci-lint run ./...\n")
	writeFile(t, filepath.Join(configsDir, "go/settings.json"), `{
  "permissions": {"allow": ["Bash(go test:*)"]},
  "env": {"GOFLAGS": "-mod=mod"}
}
`)

	// --- python ---
	writeFile(t, filepath.Join(configsDir, "python/rules/style.md"), "Format with black.\n")
	writeFile(t, filepath.Join(configsDir, "python/settings.json"), `{
  "permissions": {"allow": ["Bash(pytest:*)", "Bash(go test:*)"]}
}
`)

	// --- shared ---
	writeFile(t, filepath.Join(configsDir, "_shared/rules/commits.md"), `---
alwaysApply: true
---
Write imperative commit messages.
`)
	writeFile(t, filepath.Join(configsDir, "_shared/rules/testing/coverage.md"), "Cover new code.\n")
	writeFile(t, filepath.Join(configsDir, "_shared/rules/packaging/wheels.md"), "Build wheels.\n")
}

// newInstaller returns an installer on the real filesystem reporting version.
func newInstaller(t *testing.T, configsDir, version string) *installer.Installer {
	t.Helper()
	fs := afero.NewOsFs()
	cat, err := catalog.Load(fs, configsDir)
	if err != nil {
		t.Fatalf("loading catalog: %v", err)
	}
	return installer.New(fs, adapters.NewRegistry(), cat,
		installer.WithVersion(version),
		installer.WithBackup(true),
		installer.WithClock(func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC) }),
	)
}

// writeFile creates a file at the given path with the given content.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("creating dir %s: %v", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

// assertFileExists fails the test if the file does not exist.
func assertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file to exist: %s (error: %v)", path, err)
	}
}

// assertFileNotExists fails the test if the file exists.
func assertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("expected file NOT to exist: %s", path)
	}
}

// assertFileContains fails if the file doesn't exist or doesn't contain substr.
func assertFileContains(t *testing.T, path, substr string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Errorf("reading %s: %v", path, err)
		return
	}
	if !strings.Contains(string(data), substr) {
		t.Errorf("file %s does not contain %q.\nContents:\n%s", path, substr, string(data))
	}
}

// listFiles returns every regular file under root, relative and slash separated.
func listFiles(t *testing.T, root string) []string {
	t.Helper()
	var files []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		t.Fatalf("walking %s: %v", root, err)
	}
	return files
}
