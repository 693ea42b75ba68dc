package transaction

import "context"

// Step is one unit of work inside a transaction. Steps are executed in
// sequence; the first non-nil error fails the transaction and triggers
// rollback, and the remaining steps are skipped.
//
// Design decision: We use an interface rather than function types because:
//  1. It allows steps to carry configuration state
//  2. It provides a Name() method for step records and logging
//  3. Flows can assemble steps declaratively and hand them to the
//     controller as data
type Step interface {
	// Do executes the step. A *validator.RejectionError marks the step
	// rejected rather than failed; both end the transaction.
	Do(ctx context.Context) error

	// Name returns the step's name as it appears in the transaction
	// record (e.g. "install-packages", "edit-torrc").
	Name() string
}
