package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"github.com/nao1215/anonsetup/internal/model"
	"github.com/nao1215/anonsetup/internal/system"
)

// Restore puts every file recorded in snapshot id back at its original
// path and re-applies the recorded package selection state.
//
// Design decision: Restore runs in two phases because:
//  1. Every stored copy is verified against its manifest digest before
//     any file is written back, so a corrupted snapshot rejects the whole
//     restore instead of half-applying
//  2. Verified contents are kept in memory between the phases, so what
//     was checked is exactly what gets written
//  3. Files recorded missing at snapshot time are removed, making the
//     post-restore state observably identical to the pre-snapshot state
func (s *Store) Restore(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}

	manifest, contents, selections, err := s.verify(id)
	if err != nil {
		return err
	}

	s.logger.Info("restoring snapshot", slog.String("id", id), slog.Int("files", len(manifest.Files)))

	for _, entry := range manifest.Files {
		if err := s.restoreFile(entry, contents[entry.Path]); err != nil {
			return err
		}
	}

	if err := s.packages.RestoreSelections(ctx, selections); err != nil {
		return fmt.Errorf("restore package selections failed: %w", err)
	}
	if err := s.services.DaemonReload(ctx); err != nil {
		return fmt.Errorf("reload systemd after restore failed: %w", err)
	}

	s.logger.Info("restored snapshot", slog.String("id", id))
	return nil
}

// RestoreLatest restores the newest snapshot. It returns ErrNoSnapshot
// when the store is empty.
func (s *Store) RestoreLatest(ctx context.Context) error {
	latest, err := s.Latest()
	if err != nil {
		return err
	}
	return s.Restore(ctx, latest.ID)
}

// verify is the read-only phase: it loads the manifest, checks every
// stored copy against its recorded digest and parses the selection list.
// Nothing on the host changes until verify succeeds.
func (s *Store) verify(id string) (*Manifest, map[string][]byte, []model.Selection, error) {
	manifest, err := readManifest(s.dir(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
		}
		return nil, nil, nil, fmt.Errorf("snapshot %s: %w", id, err)
	}

	contents := make(map[string][]byte, len(manifest.Files))
	for _, entry := range manifest.Files {
		if entry.Missing {
			continue
		}

		data, err := os.ReadFile(s.copyPath(id, entry.Path)) //nolint:gosec // paths come from the store's own manifest
		if err != nil {
			return nil, nil, nil, fmt.Errorf("snapshot %s: read stored copy of %s failed: %w", id, entry.Path, err)
		}
		if digest(data) != entry.SHA3 {
			return nil, nil, nil, fmt.Errorf("%w: %s in snapshot %s", ErrDigestMismatch, entry.Path, id)
		}
		contents[entry.Path] = data
	}

	list, err := os.ReadFile(filepath.Join(s.dir(id), selectionsName)) //nolint:gosec // path is store-internal
	if err != nil {
		return nil, nil, nil, fmt.Errorf("snapshot %s: read selection list failed: %w", id, err)
	}

	return manifest, contents, system.ParseSelections(list), nil
}

// restoreFile is the write phase for one entry: put the verified content
// back with the recorded mode, or remove the file when the entry records
// it as missing.
func (s *Store) restoreFile(entry FileEntry, data []byte) error {
	if entry.Missing {
		if err := os.Remove(entry.Path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s failed: %w", entry.Path, err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(entry.Path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s failed: %w", entry.Path, err)
	}
	if err := atomic.WriteFile(entry.Path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("restore %s failed: %w", entry.Path, err)
	}
	// atomic.WriteFile keeps the mode of an existing destination and
	// leaves 0600 on a new one; the manifest mode wins either way.
	if err := os.Chmod(entry.Path, entry.Mode); err != nil {
		return fmt.Errorf("restore mode of %s failed: %w", entry.Path, err)
	}
	return nil
}
