package model

import (
	"encoding/json"
	"time"
)

// TransactionState represents the life-cycle state of a configuration
// transaction. A transaction moves strictly forward:
//
//	Idle -> SnapshotTaken -> Running -> Committed or RolledBack
//
// Design decision: We use iota-based constants rather than string constants
// for efficiency in comparisons. The String() method provides the stable
// human-readable form used in reports and the journal.
type TransactionState int

const (
	// TransactionIdle is the initial state before the safety snapshot exists.
	TransactionIdle TransactionState = iota

	// TransactionSnapshotTaken means the safety snapshot was captured and
	// the transaction may start executing steps.
	TransactionSnapshotTaken

	// TransactionRunning means at least one step has started executing.
	TransactionRunning

	// TransactionCommitted means every step succeeded. The snapshot is
	// retained so a later transaction can still roll back further.
	TransactionCommitted

	// TransactionRolledBack means a step failed and the snapshot was
	// restored. A rolled-back transaction is never resumed.
	TransactionRolledBack
)

// String returns a human-readable representation of the transaction state.
func (s TransactionState) String() string {
	switch s {
	case TransactionIdle:
		return "idle"
	case TransactionSnapshotTaken:
		return "snapshot-taken"
	case TransactionRunning:
		return "running"
	case TransactionCommitted:
		return "committed"
	case TransactionRolledBack:
		return "rolled-back"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the state as its string form so reports and journal
// rows stay readable without knowledge of the Go constant values.
func (s TransactionState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a state from its string form.
func (s *TransactionState) UnmarshalJSON(data []byte) error {
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = ParseTransactionState(v)
	return nil
}

// ParseTransactionState converts the string form produced by String() back
// into a TransactionState. Unknown strings map to TransactionIdle.
func ParseTransactionState(v string) TransactionState {
	switch v {
	case "snapshot-taken":
		return TransactionSnapshotTaken
	case "running":
		return TransactionRunning
	case "committed":
		return TransactionCommitted
	case "rolled-back":
		return TransactionRolledBack
	default:
		return TransactionIdle
	}
}

// StepStatus classifies the outcome of a single transaction step.
// Anything other than StepStatusSuccess triggers rollback of the
// enclosing transaction.
type StepStatus int

const (
	// StepStatusSuccess means the step completed normally.
	StepStatusSuccess StepStatus = iota

	// StepStatusRejected means a validator refused an input configuration
	// file. The input is at fault, not the system.
	StepStatusRejected

	// StepStatusFailed means a delegated operation (install, restart,
	// file edit) reported an error.
	StepStatusFailed

	// StepStatusSkipped means the step never ran because an earlier step
	// already failed.
	StepStatusSkipped
)

// String returns a human-readable representation of the step status.
func (s StepStatus) String() string {
	switch s {
	case StepStatusSuccess:
		return "success"
	case StepStatusRejected:
		return "rejected"
	case StepStatusFailed:
		return "failed"
	case StepStatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the status as its string form.
func (s StepStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a status from its string form.
func (s *StepStatus) UnmarshalJSON(data []byte) error {
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = ParseStepStatus(v)
	return nil
}

// ParseStepStatus converts the string form produced by String() back into a
// StepStatus. Unknown strings map to StepStatusFailed so a corrupted journal
// row never reads as a success.
func ParseStepStatus(v string) StepStatus {
	switch v {
	case "success":
		return StepStatusSuccess
	case "rejected":
		return StepStatusRejected
	case "skipped":
		return StepStatusSkipped
	default:
		return StepStatusFailed
	}
}

// StepRecord captures the outcome of one step inside a transaction.
type StepRecord struct {
	// Name identifies the step (e.g. "install-packages", "edit-torrc").
	Name string `json:"name"`

	// Status is the step outcome.
	Status StepStatus `json:"status"`

	// Message carries the error text for rejected/failed steps, or an
	// optional informational note for successful ones.
	Message string `json:"message,omitempty"`

	// Duration is how long the step ran. Zero for skipped steps.
	Duration time.Duration `json:"duration_ns"`
}

// TransactionRecord is the complete outcome of one configuration
// transaction: which flow ran, which snapshot guards it, how each step
// ended, and the terminal state. It is the unit stored in the journal and
// rendered by the report writers.
type TransactionRecord struct {
	// ID is the journal row ID, zero until the record has been saved.
	ID int64 `json:"id,omitempty"`

	// Flow names the setup flow that ran (e.g. "tor", "vpn", "proxychains").
	Flow string `json:"flow"`

	// SnapshotID identifies the safety snapshot taken at transaction start.
	SnapshotID string `json:"snapshot_id"`

	// State is the terminal transaction state.
	State TransactionState `json:"state"`

	// Error holds the failure description for rolled-back transactions.
	Error string `json:"error,omitempty"`

	// StartedAt is when the transaction began (before the snapshot).
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the transaction reached its terminal state.
	FinishedAt time.Time `json:"finished_at"`

	// Steps holds one record per configured step, in execution order.
	Steps []StepRecord `json:"steps"`
}

// Duration returns the total wall-clock time of the transaction.
func (r *TransactionRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Failed reports whether the transaction ended in rollback.
func (r *TransactionRecord) Failed() bool {
	return r.State == TransactionRolledBack
}

// FailedStep returns the first step that did not succeed, or nil when every
// executed step succeeded.
func (r *TransactionRecord) FailedStep() *StepRecord {
	for i := range r.Steps {
		switch r.Steps[i].Status {
		case StepStatusRejected, StepStatusFailed:
			return &r.Steps[i]
		}
	}
	return nil
}
