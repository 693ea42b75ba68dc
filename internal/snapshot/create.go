package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/natefinch/atomic"

	"github.com/nao1215/anonsetup/internal/system"
)

// Create takes a snapshot of the watched files and the package selection
// list and returns its descriptor.
//
// A watched file that does not exist or cannot be read is recorded as
// missing rather than aborting; restore then removes it, which is exactly
// the pre-snapshot state. Failing to capture the selection list or to
// write into the store is fatal because a transaction must not start
// without a complete snapshot; a partially written directory is removed.
func (s *Store) Create(ctx context.Context) (*Snapshot, error) {
	now := time.Now()
	id := now.Format(idLayout)
	dir := s.dir(id)

	if err := os.MkdirAll(filepath.Join(dir, filesDirName), 0o700); err != nil {
		return nil, fmt.Errorf("create snapshot directory failed: %w", err)
	}

	snap, err := s.fill(ctx, dir, id, now)
	if err != nil {
		// Half-written snapshots must not survive; without a manifest the
		// directory would be skipped anyway, but there is no reason to
		// keep the bytes.
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			s.logger.Warn("could not remove aborted snapshot",
				slog.String("id", id), slog.String("error", rmErr.Error()))
		}
		return nil, err
	}

	s.logger.Info("created snapshot",
		slog.String("id", id),
		slog.Int("files", snap.Files),
		slog.Int("packages", snap.Packages))
	return snap, nil
}

// fill writes the snapshot contents into dir. The manifest goes last so
// its presence marks the snapshot complete.
func (s *Store) fill(ctx context.Context, dir, id string, now time.Time) (*Snapshot, error) {
	selections, err := s.packages.Selections(ctx)
	if err != nil {
		return nil, fmt.Errorf("capture package selections failed: %w", err)
	}

	list := system.FormatSelections(selections)
	if err := atomic.WriteFile(filepath.Join(dir, selectionsName), strings.NewReader(list)); err != nil {
		return nil, fmt.Errorf("write selection list failed: %w", err)
	}

	manifest := &Manifest{
		ID:        id,
		CreatedAt: now,
		Packages:  len(selections),
	}

	for _, path := range s.watched {
		entry, err := s.captureFile(id, path)
		if err != nil {
			return nil, err
		}
		manifest.Files = append(manifest.Files, *entry)
	}

	if err := writeManifest(dir, manifest); err != nil {
		return nil, err
	}

	return &Snapshot{
		ID:        id,
		CreatedAt: now,
		Files:     len(manifest.Files),
		Packages:  manifest.Packages,
	}, nil
}

// captureFile copies one watched file into the snapshot and returns its
// manifest entry. An unreadable file yields a missing entry, not an
// error; only a failure to write the copy into the store is fatal.
func (s *Store) captureFile(id, path string) (*FileEntry, error) {
	info, err := os.Stat(path)
	if err != nil {
		s.logger.Debug("watched file absent at snapshot time", slog.String("path", path))
		return &FileEntry{Path: path, Missing: true}, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // watched paths come from the local configuration, not remote input
	if err != nil {
		s.logger.Debug("watched file unreadable at snapshot time", slog.String("path", path))
		return &FileEntry{Path: path, Missing: true}, nil
	}

	copyPath := s.copyPath(id, path)
	if err := os.MkdirAll(filepath.Dir(copyPath), 0o700); err != nil {
		return nil, fmt.Errorf("create snapshot copy directory for %s failed: %w", path, err)
	}
	if err := atomic.WriteFile(copyPath, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("store copy of %s failed: %w", path, err)
	}

	return &FileEntry{
		Path: path,
		Size: int64(len(data)),
		Mode: info.Mode().Perm(),
		SHA3: digest(data),
	}, nil
}
