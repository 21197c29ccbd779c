package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/agentx-labs/rulesync/internal/branding"
	"github.com/spf13/afero"
)

// ErrNotFound is returned when no manifest exists in a project.
var ErrNotFound = errors.New("no manifest found")

// Store reads and writes manifests under a project directory.
type Store struct {
	fs    afero.Fs
	roots []string
}

// NewStore returns a Store that looks for the manifest in each of roots,
// in order. Roots are output directories relative to the project, such as
// ".claude".
func NewStore(fs afero.Fs, roots ...string) *Store {
	return &Store{fs: fs, roots: roots}
}

// Path returns the manifest path inside dir.
func Path(dir string) string {
	return filepath.Join(dir, branding.ManifestFile())
}

// Write stores m in the root directory of projectDir, creating it if
// needed, and returns the path written. Manifests left in the other roots
// by an earlier installation with a different primary target are removed,
// so the project keeps exactly one.
func (s *Store) Write(projectDir, root string, m *Manifest) (string, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding manifest: %w", err)
	}

	dir := filepath.Join(projectDir, root)
	if err := s.fs.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}
	path := Path(dir)
	if err := afero.WriteFile(s.fs, path, append(data, '\n'), 0644); err != nil {
		return "", fmt.Errorf("writing manifest: %w", err)
	}

	for _, other := range s.roots {
		stale := Path(filepath.Join(projectDir, other))
		if stale == path {
			continue
		}
		if err := s.fs.Remove(stale); err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("removing stale manifest %s: %w", stale, err)
		}
	}
	return path, nil
}

// Find returns the path of the first manifest present under projectDir.
func (s *Store) Find(projectDir string) (string, error) {
	for _, root := range s.roots {
		path := Path(filepath.Join(projectDir, root))
		ok, err := afero.Exists(s.fs, path)
		if err != nil {
			return "", fmt.Errorf("checking %s: %w", path, err)
		}
		if ok {
			return path, nil
		}
	}
	return "", ErrNotFound
}

// Read locates, validates, and decodes the project's manifest. It returns
// the manifest and the path it was read from.
func (s *Store) Read(projectDir string) (*Manifest, string, error) {
	path, err := s.Find(projectDir)
	if err != nil {
		return nil, "", err
	}
	m, err := s.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	return m, path, nil
}

// ReadFile validates and decodes the manifest at path.
func (s *Store) ReadFile(path string) (*Manifest, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	issues, err := Validate(data)
	if err != nil {
		return nil, fmt.Errorf("validating %s: %w", path, err)
	}
	if len(issues) > 0 {
		return nil, &InvalidError{Path: path, Issues: issues}
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return &m, nil
}
