// Package model defines the core data structures shared across anonsetup.
//
// This package contains the following main types:
//   - TransactionRecord: the outcome of one configuration transaction
//   - StepRecord: the outcome of a single step within a transaction
//   - TransactionState: the transaction life-cycle state machine values
//   - Selection: one package-name/status pair from the dpkg selection list
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (transaction, database, report) need to use
// these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
