package system

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nao1215/anonsetup/internal/model"
)

// PackageManager installs Debian packages and captures or re-applies the
// dpkg selection state.
//
// Design decision: We shell out to apt-get and dpkg rather than linking a
// packaging library because:
//  1. dpkg --get-selections / --set-selections is the stable contract for
//     saving and restoring package state as plain text
//  2. apt-get resolves dependencies and prompts; re-implementing that is
//     out of scope for a setup tool
//  3. The selection list round-trips through snapshots unchanged, so the
//     text format is the storage format
type PackageManager struct {
	runner Runner
	logger *slog.Logger
}

// PackageOption configures a PackageManager.
type PackageOption func(*PackageManager)

// WithPackageRunner overrides the command runner. Tests use it to avoid
// touching the host package database.
func WithPackageRunner(r Runner) PackageOption {
	return func(m *PackageManager) {
		m.runner = r
	}
}

// WithPackageLogger sets the logger used by the package manager.
func WithPackageLogger(logger *slog.Logger) PackageOption {
	return func(m *PackageManager) {
		m.logger = logger
	}
}

// NewPackageManager creates a PackageManager that drives apt-get and dpkg
// on the host.
func NewPackageManager(opts ...PackageOption) *PackageManager {
	m := &PackageManager{
		runner: NewExecRunner(),
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Install installs the given packages via apt-get. An empty list is a
// no-op. Already installed packages are left alone by apt-get, so Install
// is safe to repeat.
func (m *PackageManager) Install(ctx context.Context, packages []string) error {
	if len(packages) == 0 {
		return nil
	}

	m.logger.Info("installing packages", slog.Any("packages", packages))

	args := append([]string{"install", "-y"}, packages...)
	output, err := m.runner.Run(ctx, "apt-get", args...)
	if err != nil {
		return fmt.Errorf("apt-get install %s failed: %w: %s",
			strings.Join(packages, " "), err, strings.TrimSpace(string(output)))
	}
	return nil
}

// Selections returns the current dpkg selection list.
func (m *PackageManager) Selections(ctx context.Context) ([]model.Selection, error) {
	output, err := m.runner.Run(ctx, "dpkg", "--get-selections")
	if err != nil {
		return nil, fmt.Errorf("dpkg --get-selections failed: %w: %s",
			err, strings.TrimSpace(string(output)))
	}
	return ParseSelections(output), nil
}

// ClearSelections marks every package "deinstall" in the dpkg database.
// Only the selection state changes; nothing is removed until apt acts on
// it, which is why SetSelections must follow before any convergence.
func (m *PackageManager) ClearSelections(ctx context.Context) error {
	output, err := m.runner.Run(ctx, "dpkg", "--clear-selections")
	if err != nil {
		return fmt.Errorf("dpkg --clear-selections failed: %w: %s",
			err, strings.TrimSpace(string(output)))
	}
	return nil
}

// SetSelections feeds a selection list to dpkg --set-selections.
func (m *PackageManager) SetSelections(ctx context.Context, selections []model.Selection) error {
	stdin := strings.NewReader(FormatSelections(selections))
	output, err := m.runner.RunStdin(ctx, stdin, "dpkg", "--set-selections")
	if err != nil {
		return fmt.Errorf("dpkg --set-selections failed: %w: %s",
			err, strings.TrimSpace(string(output)))
	}
	return nil
}

// Converge installs and removes packages until the installed set matches
// the dpkg selection state.
func (m *PackageManager) Converge(ctx context.Context) error {
	output, err := m.runner.Run(ctx, "apt-get", "dselect-upgrade", "-y")
	if err != nil {
		return fmt.Errorf("apt-get dselect-upgrade failed: %w: %s",
			err, strings.TrimSpace(string(output)))
	}
	return nil
}

// RestoreSelections replaces the dpkg selection state with the given list
// and converges the installed set to match it. Snapshot restore delegates
// the whole package side of a rollback to this one call.
func (m *PackageManager) RestoreSelections(ctx context.Context, selections []model.Selection) error {
	m.logger.Info("restoring package selections", slog.Int("count", len(selections)))

	if err := m.ClearSelections(ctx); err != nil {
		return err
	}
	if err := m.SetSelections(ctx, selections); err != nil {
		return err
	}
	return m.Converge(ctx)
}
