package writer

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// OperationType classifies a single filesystem effect.
type OperationType string

const (
	OpCreate    OperationType = "create"
	OpOverwrite OperationType = "overwrite"
	OpMerge     OperationType = "merge"
)

// Operation records one file written (or, in dry-run, that would be written).
// Path is relative to the target directory.
type Operation struct {
	Type OperationType `json:"type"`
	Path string        `json:"path"`
}

// Options control a single write.
type Options struct {
	DryRun    bool
	Backup    bool
	TargetDir string
}

// BackupDirName is the directory under the target directory that holds
// copies of overwritten files.
const BackupDirName = "backups"

// backupTimeFormat has nanosecond resolution so that repeated writes of the
// same path in one run get distinct backup names.
const backupTimeFormat = "20060102T150405.000000000Z"

const (
	dirPerm  os.FileMode = 0755
	filePerm os.FileMode = 0644
)

// Writer performs classified writes against a filesystem. Dry-run writes
// are remembered in memory so that later writes to the same path within
// the Writer's lifetime are classified as they would be in a real run.
// Use one Writer per installation.
type Writer struct {
	fs        afero.Fs
	now       func() time.Time
	logger    zerolog.Logger
	simulated map[string][]byte
}

// Option configures a Writer.
type Option func(*Writer)

// WithClock overrides the clock used for backup timestamps.
func WithClock(now func() time.Time) Option {
	return func(w *Writer) { w.now = now }
}

// WithLogger sets the logger used for recovered warnings.
func WithLogger(l zerolog.Logger) Option {
	return func(w *Writer) { w.logger = l }
}

// New returns a Writer on fs.
func New(fs afero.Fs, opts ...Option) *Writer {
	w := &Writer{
		fs:        fs,
		now:       time.Now,
		logger:    log.Logger,
		simulated: make(map[string][]byte),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Fs returns the underlying filesystem.
func (w *Writer) Fs() afero.Fs {
	return w.fs
}

// WriteFile writes content to destPath. Under DryRun it only classifies the
// write and touches nothing, including the backup directory.
func (w *Writer) WriteFile(destPath, content string, opts Options) (Operation, error) {
	exists, err := w.exists(destPath)
	if err != nil {
		return Operation{}, err
	}

	op := Operation{Type: OpCreate, Path: relative(opts.TargetDir, destPath)}
	if exists {
		op.Type = OpOverwrite
	}

	if opts.DryRun {
		w.simulated[destPath] = []byte(content)
		return op, nil
	}

	if exists && opts.Backup {
		if _, err := w.backup(destPath, opts.TargetDir); err != nil {
			return Operation{}, err
		}
	}

	if err := w.write(destPath, []byte(content)); err != nil {
		return Operation{}, err
	}
	return op, nil
}

// CopyFile copies srcPath to destPath with the same semantics as WriteFile.
func (w *Writer) CopyFile(destPath, srcPath string, opts Options) (Operation, error) {
	data, err := w.read(srcPath)
	if err != nil {
		return Operation{}, fmt.Errorf("reading %s: %w", srcPath, err)
	}
	return w.WriteFile(destPath, string(data), opts)
}

func (w *Writer) exists(path string) (bool, error) {
	if _, ok := w.simulated[path]; ok {
		return true, nil
	}
	ok, err := afero.Exists(w.fs, path)
	if err != nil {
		return false, fmt.Errorf("checking %s: %w", path, err)
	}
	return ok, nil
}

// read returns the simulated content of path if a dry run wrote it,
// otherwise the file's content.
func (w *Writer) read(path string) ([]byte, error) {
	if data, ok := w.simulated[path]; ok {
		return data, nil
	}
	return afero.ReadFile(w.fs, path)
}

func (w *Writer) write(path string, data []byte) error {
	if err := w.fs.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	if err := afero.WriteFile(w.fs, path, data, filePerm); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// backup copies path to <targetDir>/backups/<relative path>.<timestamp>.
// If that name is already taken a numeric suffix is appended.
func (w *Writer) backup(path, targetDir string) (string, error) {
	data, err := afero.ReadFile(w.fs, path)
	if err != nil {
		return "", fmt.Errorf("reading %s for backup: %w", path, err)
	}

	base := filepath.Join(targetDir, BackupDirName, relative(targetDir, path)) +
		"." + w.now().UTC().Format(backupTimeFormat)

	dest := base
	for i := 1; ; i++ {
		taken, err := w.exists(dest)
		if err != nil {
			return "", err
		}
		if !taken {
			break
		}
		dest = base + "-" + strconv.Itoa(i)
	}

	if err := w.write(dest, data); err != nil {
		return "", fmt.Errorf("backing up %s: %w", path, err)
	}
	w.logger.Debug().Str("path", path).Str("backup", dest).Msg("Backed up existing file")
	return dest, nil
}

// relative returns path relative to base, or path itself when it cannot be
// expressed that way.
func relative(base, path string) string {
	if base == "" {
		return path
	}
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return path
	}
	return rel
}
