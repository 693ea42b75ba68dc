// Package transaction runs setup flows as all-or-nothing transactions.
// A controller takes a safety snapshot, executes the flow's steps in
// order, and either commits (every step succeeded, snapshot retained) or
// restores the snapshot so the host ends up observably unchanged. A
// file lock keeps concurrent transactions from interleaving their edits.
package transaction
