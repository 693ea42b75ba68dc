package snapshot

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/sha3"
)

const (
	manifestName   = "manifest.json"
	selectionsName = "selections.list"
	filesDirName   = "files"
)

// Manifest is the JSON index written into every snapshot directory. It is
// written last, after all file copies and the selection list, so a
// directory without a manifest is an aborted snapshot and is ignored.
type Manifest struct {
	ID        string      `json:"id"`
	CreatedAt time.Time   `json:"created_at"`
	Packages  int         `json:"packages"`
	Files     []FileEntry `json:"files"`
}

// FileEntry records one watched file. A file absent at snapshot time is
// recorded with Missing set and no stored copy; restore removes it if it
// exists by then.
type FileEntry struct {
	Path    string      `json:"path"`
	Size    int64       `json:"size,omitempty"`
	Mode    fs.FileMode `json:"mode,omitempty"`
	SHA3    string      `json:"sha3_256,omitempty"`
	Missing bool        `json:"missing,omitempty"`
}

// digest returns the hex encoded SHA3-256 digest of data.
func digest(data []byte) string {
	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// writeManifest marshals the manifest into the snapshot directory.
func writeManifest(dir string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot manifest failed: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, manifestName), data, 0o600); err != nil {
		return fmt.Errorf("write snapshot manifest failed: %w", err)
	}
	return nil
}

// readManifest loads the manifest from the snapshot directory.
func readManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestName))
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse snapshot manifest failed: %w", err)
	}
	return &m, nil
}
