// Package database provides SQLite-based storage for the transaction
// journal.
//
// Every flow run is recorded here after it finishes: the flow name, the
// snapshot that guarded it, per-step outcomes, and the terminal state.
// The history command reads this journal; nothing else depends on it, so
// a journal write failure never fails a transaction.
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of an
// append-only log file because:
// 1. No external dependencies - the journal is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. The history command filters and limits, which SQL gives us for free
// 4. WAL mode lets history reads overlap a flow's journal write
package database
