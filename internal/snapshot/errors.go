package snapshot

import "errors"

var (
	// ErrNoSnapshot is returned when a restore or Latest call finds no
	// snapshot to work with. Rollback cannot proceed past it, which makes
	// it the one unrecoverable failure class of a transaction.
	ErrNoSnapshot = errors.New("no snapshot available")

	// ErrSnapshotNotFound is returned when the requested snapshot ID does
	// not exist in the store.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrInvalidSnapshotID is returned when a snapshot ID does not have
	// the timestamp form the store generates. IDs reach the store from
	// the command line, so they are validated before touching the
	// filesystem.
	ErrInvalidSnapshotID = errors.New("invalid snapshot ID")

	// ErrDigestMismatch is returned when a stored file copy no longer
	// matches the digest recorded in the manifest. The whole restore is
	// rejected before any file is written back.
	ErrDigestMismatch = errors.New("snapshot digest mismatch")
)
