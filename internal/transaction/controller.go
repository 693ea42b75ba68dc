package transaction

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/nao1215/anonsetup/internal/model"
	"github.com/nao1215/anonsetup/internal/snapshot"
	"github.com/nao1215/anonsetup/internal/validator"
)

// SnapshotStore is the snapshot side of a transaction; *snapshot.Store
// implements it.
type SnapshotStore interface {
	// Create takes the safety snapshot before any step runs.
	Create(ctx context.Context) (*snapshot.Snapshot, error)

	// Restore puts the snapshot back after a step failure.
	Restore(ctx context.Context, id string) error

	// Prune applies the retention policy after a commit.
	Prune(keep int) (int, error)
}

// Controller drives the transaction life cycle: lock, snapshot, steps,
// then commit or rollback.
type Controller struct {
	store    SnapshotStore
	lockPath string
	keep     int
	logger   *slog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithKeep sets how many snapshots survive the post-commit prune.
// Zero, the default, keeps everything.
func WithKeep(keep int) Option {
	return func(c *Controller) {
		c.keep = keep
	}
}

// WithLogger sets the logger used by the controller.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// New creates a Controller that snapshots through store and serializes
// transactions with a file lock at lockPath.
func New(store SnapshotStore, lockPath string, opts ...Option) *Controller {
	c := &Controller{
		store:    store,
		lockPath: lockPath,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Run executes the flow's steps as one transaction and returns its
// record. The record is returned for every outcome that got past the
// lock, success and rollback alike, so callers can journal it.
//
// The error is nil on commit, the failing step's error on a clean
// rollback, and a *RollbackError when the rollback itself failed, which
// is the only outcome that leaves the host modified.
func (c *Controller) Run(ctx context.Context, flow string, steps []Step) (*model.TransactionRecord, error) {
	unlock, err := c.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	record := &model.TransactionRecord{
		Flow:      flow,
		State:     model.TransactionIdle,
		StartedAt: time.Now(),
	}

	snap, err := c.store.Create(ctx)
	if err != nil {
		// Nothing was mutated yet; failing to snapshot just refuses the
		// transaction.
		record.Error = err.Error()
		record.FinishedAt = time.Now()
		return record, fmt.Errorf("snapshot creation failed: %w", err)
	}
	record.SnapshotID = snap.ID
	record.State = model.TransactionSnapshotTaken

	c.logger.Info("transaction started",
		slog.String("flow", flow),
		slog.String("snapshot", snap.ID),
		slog.Int("steps", len(steps)))

	record.State = model.TransactionRunning
	failure := c.runSteps(ctx, record, steps)

	if failure == nil {
		record.State = model.TransactionCommitted
		record.FinishedAt = time.Now()
		c.logger.Info("transaction committed", slog.String("flow", flow))
		c.prune()
		return record, nil
	}

	record.Error = failure.Error()

	// Design decision: The restore runs on a context detached from the
	// caller's because:
	//  1. A cancelled context is itself a reason to roll back, and the
	//     restore must not inherit the cancellation that triggered it
	//  2. Once a step has mutated the host, finishing the rollback is
	//     mandatory, not best-effort
	if err := c.store.Restore(context.WithoutCancel(ctx), snap.ID); err != nil {
		record.FinishedAt = time.Now()
		c.logger.Error("rollback failed",
			slog.String("flow", flow),
			slog.String("snapshot", snap.ID),
			slog.String("error", err.Error()))
		return record, &RollbackError{Cause: failure, Err: err}
	}

	record.State = model.TransactionRolledBack
	record.FinishedAt = time.Now()
	c.logger.Warn("transaction rolled back",
		slog.String("flow", flow),
		slog.String("snapshot", snap.ID),
		slog.String("cause", failure.Error()))
	return record, failure
}

// runSteps executes the steps in order, appending one StepRecord each.
// It returns the error of the first step that did not succeed; later
// steps are recorded as skipped and never execute.
func (c *Controller) runSteps(ctx context.Context, record *model.TransactionRecord, steps []Step) error {
	var failure error
	for _, step := range steps {
		if failure != nil {
			record.Steps = append(record.Steps, model.StepRecord{
				Name:   step.Name(),
				Status: model.StepStatusSkipped,
			})
			continue
		}

		if err := ctx.Err(); err != nil {
			failure = err
			record.Steps = append(record.Steps, model.StepRecord{
				Name:    step.Name(),
				Status:  model.StepStatusFailed,
				Message: err.Error(),
			})
			continue
		}

		c.logger.Info("executing step", slog.String("step", step.Name()))

		start := time.Now()
		err := step.Do(ctx)
		rec := model.StepRecord{
			Name:     step.Name(),
			Status:   model.StepStatusSuccess,
			Duration: time.Since(start),
		}
		switch {
		case err == nil:
		case validator.IsRejection(err):
			rec.Status = model.StepStatusRejected
			rec.Message = err.Error()
			failure = err
		default:
			rec.Status = model.StepStatusFailed
			rec.Message = err.Error()
			failure = err
		}
		record.Steps = append(record.Steps, rec)

		if failure != nil {
			c.logger.Error("step failed",
				slog.String("step", step.Name()),
				slog.String("status", rec.Status.String()),
				slog.String("error", failure.Error()))
		}
	}
	return failure
}

// lock acquires the single-instance lock and returns its release
// function. ErrLocked means another transaction holds it.
func (c *Controller) lock() (func(), error) {
	if err := os.MkdirAll(filepath.Dir(c.lockPath), 0o700); err != nil {
		return nil, fmt.Errorf("create lock directory failed: %w", err)
	}

	lock := flock.New(c.lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire transaction lock failed: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w (lock file: %s)", ErrLocked, c.lockPath)
	}

	return func() {
		if err := lock.Unlock(); err != nil {
			c.logger.Warn("release transaction lock failed",
				slog.String("path", c.lockPath),
				slog.String("error", err.Error()))
		}
	}, nil
}

// prune applies the retention policy. Failing to prune never fails a
// committed transaction.
func (c *Controller) prune() {
	if c.keep <= 0 {
		return
	}
	if _, err := c.store.Prune(c.keep); err != nil {
		c.logger.Warn("snapshot prune failed", slog.String("error", err.Error()))
	}
}
