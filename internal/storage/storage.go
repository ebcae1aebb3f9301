package storage

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	triageerrors "github.com/abatilo/triage/internal/errors"
)

const snapshotFile = "last.md"

// Store persists the most recent analysis for a project. It keeps exactly
// one snapshot; saving replaces the previous one.
type Store struct {
	basePath string
}

// NewStore creates a Store under baseDir, scoped to the current project
// (baseDir/<sanitized-project-root>/). A leading "~" expands to the home
// directory.
func NewStore(baseDir string) (*Store, error) {
	base, err := ExpandHome(baseDir)
	if err != nil {
		return nil, err
	}
	project, err := ProjectDir()
	if err != nil {
		return nil, errors.Wrap(err, "resolve project directory")
	}
	return &Store{basePath: filepath.Join(base, SanitizePath(project))}, nil
}

// NewStoreWithPath creates a Store with a custom base path.
func NewStoreWithPath(path string) *Store {
	return &Store{basePath: path}
}

// BasePath returns the base path of the store.
func (s *Store) BasePath() string {
	return s.basePath
}

func (s *Store) snapshotPath() string {
	return filepath.Join(s.basePath, snapshotFile)
}

// HasSnapshot reports whether an analysis has been saved.
func (s *Store) HasSnapshot() bool {
	_, err := os.Stat(s.snapshotPath())
	return err == nil
}

// SaveSnapshot writes snap, replacing any previous snapshot.
func (s *Store) SaveSnapshot(snap *Snapshot) error {
	content, err := SerializeSnapshot(snap)
	if err != nil {
		return errors.Wrap(err, "serialize snapshot")
	}
	//nolint:gosec // G301: 0755 is appropriate for user-accessible data directory
	if err := os.MkdirAll(s.basePath, 0o755); err != nil {
		return errors.Wrapf(err, "create %s", s.basePath)
	}

	// Write then rename so readers never see a partial file.
	tmp := s.snapshotPath() + ".tmp"
	//nolint:gosec // G306: 0644 is appropriate for user-readable snapshot files
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", tmp)
	}
	if err := os.Rename(tmp, s.snapshotPath()); err != nil {
		return errors.Wrapf(err, "replace %s", s.snapshotPath())
	}
	return nil
}

// LoadSnapshot reads the saved analysis.
func (s *Store) LoadSnapshot() (*Snapshot, error) {
	content, err := os.ReadFile(s.snapshotPath())
	if os.IsNotExist(err) {
		return nil, triageerrors.NoAnalysisError{}
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", s.snapshotPath())
	}
	snap, err := ParseSnapshot(content)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", s.snapshotPath())
	}
	return snap, nil
}

// DeleteSnapshot removes the saved analysis. Deleting a missing snapshot is
// not an error.
func (s *Store) DeleteSnapshot() error {
	err := os.Remove(s.snapshotPath())
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "resolve home directory")
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
