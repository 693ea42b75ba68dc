package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/anonsetup/internal/model"
)

// ErrJournalNotFound is returned by Open when the journal database does
// not exist and Options.CreateIfNotExists is unset.
var ErrJournalNotFound = errors.New("transaction journal not found")

// Journal stores the history of configuration transactions in SQLite.
// Every flow run is recorded, committed and rolled back alike, so the
// history command can answer "what changed this host and when".
//
// Design decision: We keep one database for all flows rather than a file
// per flow because a transaction's natural key is time, not flow, and
// the history view interleaves them.
type Journal struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures Journal behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging. Recommended; the history
	// command may read while a flow writes.
	EnableWAL bool
}

// DefaultOptions returns the default journal options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the journal database under dbDir. With
// CreateIfNotExists unset, a missing database is an error instead; the
// history command uses that so it never creates an empty journal just to
// show nothing.
func Open(dbDir string, opts Options) (*Journal, error) {
	dbPath := filepath.Join(dbDir, "anonsetup.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrJournalNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("check journal path failed: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("create journal directory failed: %w", err)
		}
	}

	// modernc.org/sqlite DSN: mode=rw opens existing only, mode=rwc may
	// create.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open journal failed: %w", err)
	}

	// SQLite supports one writer; a second connection only buys lock
	// contention.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	j := &Journal{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("enable WAL mode failed: %w", err)
		}
	}

	if err := j.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create journal tables failed: %w", err)
	}

	return j, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

// createTables creates the journal schema if it doesn't exist.
func (j *Journal) createTables() error {
	schema := `
	-- One row per transaction (flow run).
	CREATE TABLE IF NOT EXISTS transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		flow TEXT NOT NULL,
		snapshot_id TEXT NOT NULL,
		state TEXT NOT NULL,
		error TEXT,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_flow ON transactions(flow);
	CREATE INDEX IF NOT EXISTS idx_transactions_started ON transactions(started_at);

	-- One row per step, in execution order.
	CREATE TABLE IF NOT EXISTS transaction_steps (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		transaction_id INTEGER NOT NULL,
		seq INTEGER NOT NULL,
		name TEXT NOT NULL,
		status TEXT NOT NULL,
		message TEXT,
		duration_ns INTEGER NOT NULL,
		FOREIGN KEY(transaction_id) REFERENCES transactions(id)
	);

	CREATE INDEX IF NOT EXISTS idx_steps_transaction ON transaction_steps(transaction_id);
	`

	_, err := j.db.ExecContext(context.Background(), schema)
	return err
}

// SaveTransaction stores a finished transaction record with its steps
// and returns the journal row ID. The record's ID field is set on
// success.
func (j *Journal) SaveTransaction(ctx context.Context, record *model.TransactionRecord) (int64, error) {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin journal write failed: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	result, err := tx.ExecContext(ctx, `
	INSERT INTO transactions (flow, snapshot_id, state, error, started_at, finished_at)
	VALUES (?, ?, ?, ?, ?, ?)
	`,
		record.Flow,
		record.SnapshotID,
		record.State.String(),
		record.Error,
		record.StartedAt.UTC().Format(time.RFC3339Nano),
		record.FinishedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("insert transaction failed: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read transaction ID failed: %w", err)
	}

	for seq, step := range record.Steps {
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO transaction_steps (transaction_id, seq, name, status, message, duration_ns)
		VALUES (?, ?, ?, ?, ?, ?)
		`,
			id, seq, step.Name, step.Status.String(), step.Message, int64(step.Duration),
		); err != nil {
			return 0, fmt.Errorf("insert step %s failed: %w", step.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit journal write failed: %w", err)
	}

	record.ID = id
	return id, nil
}

// ListTransactions returns transaction records newest first, without
// their steps. limit <= 0 returns everything.
func (j *Journal) ListTransactions(ctx context.Context, limit int) ([]*model.TransactionRecord, error) {
	if limit <= 0 {
		limit = -1 // SQLite: LIMIT -1 means no limit
	}

	rows, err := j.db.QueryContext(ctx, `
	SELECT id, flow, snapshot_id, state, error, started_at, finished_at
	FROM transactions
	ORDER BY id DESC
	LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions failed: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only rows

	var records []*model.TransactionRecord
	for rows.Next() {
		record, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

// GetTransaction returns one transaction with its steps, or nil when the
// ID is unknown.
func (j *Journal) GetTransaction(ctx context.Context, id int64) (*model.TransactionRecord, error) {
	row := j.db.QueryRowContext(ctx, `
	SELECT id, flow, snapshot_id, state, error, started_at, finished_at
	FROM transactions
	WHERE id = ?
	`, id)

	record, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := j.loadSteps(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// LastTransaction returns the most recent transaction with its steps, or
// nil when the journal is empty.
func (j *Journal) LastTransaction(ctx context.Context) (*model.TransactionRecord, error) {
	row := j.db.QueryRowContext(ctx, `
	SELECT id, flow, snapshot_id, state, error, started_at, finished_at
	FROM transactions
	ORDER BY id DESC
	LIMIT 1
	`)

	record, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := j.loadSteps(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// loadSteps attaches the step rows to a transaction record.
func (j *Journal) loadSteps(ctx context.Context, record *model.TransactionRecord) error {
	rows, err := j.db.QueryContext(ctx, `
	SELECT name, status, message, duration_ns
	FROM transaction_steps
	WHERE transaction_id = ?
	ORDER BY seq
	`, record.ID)
	if err != nil {
		return fmt.Errorf("load steps failed: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only rows

	for rows.Next() {
		var step model.StepRecord
		var status string
		var durationNS int64
		if err := rows.Scan(&step.Name, &status, &step.Message, &durationNS); err != nil {
			return fmt.Errorf("scan step failed: %w", err)
		}
		step.Status = model.ParseStepStatus(status)
		step.Duration = time.Duration(durationNS)
		record.Steps = append(record.Steps, step)
	}

	return rows.Err()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTransaction reads one transactions row into a record.
func scanTransaction(row rowScanner) (*model.TransactionRecord, error) {
	var record model.TransactionRecord
	var state, startedAt, finishedAt string

	err := row.Scan(
		&record.ID,
		&record.Flow,
		&record.SnapshotID,
		&state,
		&record.Error,
		&startedAt,
		&finishedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan transaction failed: %w", err)
	}

	record.State = model.ParseTransactionState(state)
	record.StartedAt = parseTimestamp(startedAt)
	record.FinishedAt = parseTimestamp(finishedAt)
	return &record, nil
}

// timestampFormats contains the timestamp formats the journal may read
// back. Rows written by this package use RFC3339Nano; the other forms
// cover values SQLite functions may have produced.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp attempts each known format and returns zero time when
// none matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
