package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/nao1215/anonsetup/internal/model"
	"github.com/nao1215/anonsetup/internal/system"
)

// idLayout is the time layout snapshot IDs are generated from. The fixed
// width nanosecond form makes lexicographic and chronological order the
// same thing.
const idLayout = "20060102-150405.000000000"

// PackageState captures and restores the dpkg selection state. It is the
// package side of a snapshot; *system.PackageManager implements it.
type PackageState interface {
	// Selections returns the current selection list.
	Selections(ctx context.Context) ([]model.Selection, error)

	// RestoreSelections replaces the selection state and converges the
	// installed set to match it.
	RestoreSelections(ctx context.Context, selections []model.Selection) error
}

// ServiceReloader reloads the systemd manager configuration after a
// restore rewrote files on disk. *system.ServiceManager implements it.
type ServiceReloader interface {
	DaemonReload(ctx context.Context) error
}

// Snapshot describes one stored snapshot.
type Snapshot struct {
	// ID is the timestamp identifier, also the directory name.
	ID string
	// CreatedAt is when the snapshot was taken.
	CreatedAt time.Time
	// Files is the number of recorded files, missing ones included.
	Files int
	// Packages is the number of captured selection entries.
	Packages int
}

// Store keeps snapshots under a root directory, one subdirectory per
// snapshot.
type Store struct {
	root     string
	watched  []string
	packages PackageState
	services ServiceReloader
	logger   *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithPackageState overrides the package state collaborator. Tests use it
// to avoid touching the host package database.
func WithPackageState(p PackageState) Option {
	return func(s *Store) {
		s.packages = p
	}
}

// WithServiceReloader overrides the systemd collaborator.
func WithServiceReloader(r ServiceReloader) Option {
	return func(s *Store) {
		s.services = r
	}
}

// WithLogger sets the logger used by the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a Store rooted at root that snapshots the watched files.
// Watched paths should be absolute; they are recorded verbatim and
// restored to the same place.
func New(root string, watched []string, opts ...Option) *Store {
	s := &Store{
		root:     root,
		watched:  watched,
		packages: system.NewPackageManager(),
		services: system.NewServiceManager(),
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// List returns all snapshots, newest first. Directories without a
// readable manifest are aborted snapshots and are skipped.
func (s *Store) List() ([]Snapshot, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshot directory failed: %w", err)
	}

	var snapshots []Snapshot
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		m, err := readManifest(filepath.Join(s.root, entry.Name()))
		if err != nil {
			s.logger.Warn("skipping snapshot without readable manifest",
				slog.String("id", entry.Name()))
			continue
		}
		snapshots = append(snapshots, Snapshot{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			Files:     len(m.Files),
			Packages:  m.Packages,
		})
	}

	slices.SortFunc(snapshots, func(a, b Snapshot) int {
		return strings.Compare(b.ID, a.ID)
	})
	return snapshots, nil
}

// Latest returns the newest snapshot, or ErrNoSnapshot when the store is
// empty.
func (s *Store) Latest() (*Snapshot, error) {
	snapshots, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return nil, ErrNoSnapshot
	}
	return &snapshots[0], nil
}

// Prune removes the oldest snapshots beyond keep and returns how many
// were removed. keep <= 0 keeps everything.
func (s *Store) Prune(keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}

	snapshots, err := s.List()
	if err != nil {
		return 0, err
	}
	if len(snapshots) <= keep {
		return 0, nil
	}

	removed := 0
	for _, snap := range snapshots[keep:] {
		if err := os.RemoveAll(filepath.Join(s.root, snap.ID)); err != nil {
			return removed, fmt.Errorf("prune snapshot %s failed: %w", snap.ID, err)
		}
		removed++
	}

	s.logger.Info("pruned snapshots", slog.Int("removed", removed), slog.Int("kept", keep))
	return removed, nil
}

// dir returns the directory of a snapshot.
func (s *Store) dir(id string) string {
	return filepath.Join(s.root, id)
}

// copyPath returns where the stored copy of path lives inside snapshot
// id. The absolute path is mirrored under files/, so /etc/tor/torrc is
// stored at <root>/<id>/files/etc/tor/torrc.
func (s *Store) copyPath(id, path string) string {
	return filepath.Join(s.dir(id), filesDirName, filepath.Clean(path))
}

// checkID rejects IDs that do not have the generated timestamp form.
// IDs arrive from the command line and become path components, so
// anything else must not reach the filesystem.
func checkID(id string) error {
	if _, err := time.Parse(idLayout, id); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidSnapshotID, id)
	}
	return nil
}
