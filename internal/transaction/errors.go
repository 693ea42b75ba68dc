package transaction

import (
	"errors"
	"fmt"
)

// ErrLocked is returned when another transaction already holds the
// single-instance lock. The caller should simply try again later;
// nothing was snapshotted or mutated.
var ErrLocked = errors.New("another transaction is already running")

// RollbackError reports the one unrecoverable outcome: a step failed and
// the snapshot restore failed too, so the host may be in a partially
// configured state. Cause is the step failure that triggered the
// rollback, Err is the restore failure (snapshot.ErrNoSnapshot included).
type RollbackError struct {
	Cause error
	Err   error
}

// Error returns a description naming both failures.
func (e *RollbackError) Error() string {
	return fmt.Sprintf("rollback failed: %v (while rolling back: %v)", e.Err, e.Cause)
}

// Unwrap exposes both the rollback failure and its cause so errors.Is
// can match either chain.
func (e *RollbackError) Unwrap() []error {
	return []error{e.Err, e.Cause}
}
