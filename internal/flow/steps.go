package flow

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"github.com/nao1215/anonsetup/internal/editor"
	"github.com/nao1215/anonsetup/internal/tor"
	"github.com/nao1215/anonsetup/internal/validator"
)

// PackageInstaller installs packages onto the host.
// *system.PackageManager implements it.
//
// Design decision: Steps depend on small interfaces rather than the
// concrete system types because:
//  1. Flow tests run against in-memory fakes, not apt and systemctl
//  2. Each step declares exactly the capability it uses
//  3. The system package stays free of flow concerns
type PackageInstaller interface {
	Install(ctx context.Context, packages []string) error
}

// ServiceController restarts and enables systemd units.
// *system.ServiceManager implements it.
type ServiceController interface {
	Restart(ctx context.Context, unit string) error
	Enable(ctx context.Context, unit string) error
	DaemonReload(ctx context.Context) error
}

// ProxyChecker verifies a SOCKS5 proxy endpoint. *tor.Client implements it.
type ProxyChecker interface {
	CheckConnection(ctx context.Context) tor.ProxyStatus
}

// Deps bundles the collaborators a flow builder wires into its steps.
type Deps struct {
	// Editor applies idempotent line edits to configuration files.
	Editor *editor.Editor

	// Packages installs the packages a flow depends on.
	Packages PackageInstaller

	// Services restarts and enables systemd units.
	Services ServiceController

	// Logger receives step-level progress. nil means slog.Default().
	Logger *slog.Logger
}

// InstallPackagesStep installs a list of packages.
type InstallPackagesStep struct {
	packages []string
	manager  PackageInstaller
}

// NewInstallPackagesStep creates a step that installs the given packages.
func NewInstallPackagesStep(manager PackageInstaller, packages []string) *InstallPackagesStep {
	return &InstallPackagesStep{packages: packages, manager: manager}
}

// Name returns the step name.
func (s *InstallPackagesStep) Name() string { return "install-packages" }

// Do installs the packages.
func (s *InstallPackagesStep) Do(ctx context.Context) error {
	return s.manager.Install(ctx, s.packages)
}

// EnsureLineStep appends an exact line to a file unless already present.
type EnsureLineStep struct {
	name   string
	editor *editor.Editor
	path   string
	line   string
}

// NewEnsureLineStep creates a step that pins the exact line in the file.
// The name appears in transaction records, e.g. "pin-SocksPort".
func NewEnsureLineStep(name string, ed *editor.Editor, path, line string) *EnsureLineStep {
	return &EnsureLineStep{name: name, editor: ed, path: path, line: line}
}

// Name returns the step name.
func (s *EnsureLineStep) Name() string { return s.name }

// Do ensures the line is present. Both "appended" and "already there"
// count as success; that is what makes re-running a flow safe.
func (s *EnsureLineStep) Do(_ context.Context) error {
	_, err := s.editor.EnsureLine(s.path, s.line)
	return err
}

// UncommentStep activates commented directives matching a key pattern.
type UncommentStep struct {
	editor *editor.Editor
	path   string
	key    string
}

// NewUncommentStep creates a step that uncomments directives starting
// with key.
func NewUncommentStep(ed *editor.Editor, path, key string) *UncommentStep {
	return &UncommentStep{editor: ed, path: path, key: key}
}

// Name returns the step name.
func (s *UncommentStep) Name() string { return "uncomment-" + s.key }

// Do uncomments matching directives. No commented match is success: the
// directive may already be active, or absent and pinned by a later step.
func (s *UncommentStep) Do(_ context.Context) error {
	_, err := s.editor.Uncomment(s.path, s.key)
	return err
}

// RemoveMatchingStep deletes every line matching a pattern.
type RemoveMatchingStep struct {
	name    string
	editor  *editor.Editor
	path    string
	pattern string
}

// NewRemoveMatchingStep creates a step that clears lines matching the
// whole-line pattern, e.g. conflicting chain-mode flags.
func NewRemoveMatchingStep(name string, ed *editor.Editor, path, pattern string) *RemoveMatchingStep {
	return &RemoveMatchingStep{name: name, editor: ed, path: path, pattern: pattern}
}

// Name returns the step name.
func (s *RemoveMatchingStep) Name() string { return s.name }

// Do removes matching lines. Zero matches is success.
func (s *RemoveMatchingStep) Do(_ context.Context) error {
	_, err := s.editor.RemoveMatching(s.path, s.pattern)
	return err
}

// ValidateWireGuardStep checks a user-supplied WireGuard interface file
// before any mutation step runs: grammar first, then key well-formedness.
type ValidateWireGuardStep struct {
	path   string
	logger *slog.Logger
}

// NewValidateWireGuardStep creates a step that validates the candidate
// file at path.
func NewValidateWireGuardStep(path string, logger *slog.Logger) *ValidateWireGuardStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ValidateWireGuardStep{path: path, logger: logger}
}

// Name returns the step name.
func (s *ValidateWireGuardStep) Name() string { return "validate-config" }

// Do validates the candidate file. A *RejectionError passes through
// unwrapped so the transaction records the step as rejected rather
// than failed.
func (s *ValidateWireGuardStep) Do(_ context.Context) error {
	if err := validator.Validate(s.path, validator.WireGuard()); err != nil {
		return err
	}

	private, ok, err := validator.KeyValue(s.path, "Interface", "PrivateKey")
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("read PrivateKey from %s failed", s.path)
	}
	if err := validator.CheckKey(private); err != nil {
		return fmt.Errorf("interface private key: %w", err)
	}

	peer, ok, err := validator.KeyValue(s.path, "Peer", "PublicKey")
	if err != nil {
		return err
	}
	if ok {
		if err := validator.CheckKey(peer); err != nil {
			return fmt.Errorf("peer public key: %w", err)
		}
	}

	// The full public key would be masked by the secure log handler, so
	// the identity is logged as a prefix.
	public, err := validator.PublicKey(private)
	if err != nil {
		return fmt.Errorf("derive interface public key: %w", err)
	}
	s.logger.Info("wireguard config accepted",
		slog.String("path", s.path),
		slog.String("public_key_prefix", public[:8]+"..."))
	return nil
}

// InstallFileStep copies a file to its destination with a fixed mode.
// The write is atomic: the destination either keeps its old content or
// carries the complete new content.
type InstallFileStep struct {
	source string
	dest   string
	mode   fs.FileMode
}

// NewInstallFileStep creates a step that installs source at dest with
// the given mode.
func NewInstallFileStep(source, dest string, mode fs.FileMode) *InstallFileStep {
	return &InstallFileStep{source: source, dest: dest, mode: mode}
}

// Name returns the step name.
func (s *InstallFileStep) Name() string { return "install-config" }

// Do copies the file into place.
func (s *InstallFileStep) Do(_ context.Context) error {
	data, err := os.ReadFile(s.source) //nolint:gosec // installing the caller-chosen file is the point
	if err != nil {
		return fmt.Errorf("read %s failed: %w", s.source, err)
	}

	if err := os.MkdirAll(filepath.Dir(s.dest), 0o755); err != nil {
		return fmt.Errorf("create %s failed: %w", filepath.Dir(s.dest), err)
	}
	if err := atomic.WriteFile(s.dest, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("install %s failed: %w", s.dest, err)
	}

	// atomic.WriteFile keeps an existing destination's mode and creates
	// new files 0600; the configured mode wins either way.
	if err := os.Chmod(s.dest, s.mode); err != nil {
		return fmt.Errorf("set mode on %s failed: %w", s.dest, err)
	}
	return nil
}

// RestartServiceStep restarts a systemd unit.
type RestartServiceStep struct {
	unit     string
	services ServiceController
}

// NewRestartServiceStep creates a step that restarts the unit.
func NewRestartServiceStep(services ServiceController, unit string) *RestartServiceStep {
	return &RestartServiceStep{unit: unit, services: services}
}

// Name returns the step name.
func (s *RestartServiceStep) Name() string { return "restart-" + s.unit }

// Do restarts the unit.
func (s *RestartServiceStep) Do(ctx context.Context) error {
	return s.services.Restart(ctx, s.unit)
}

// EnableServiceStep enables and starts a systemd unit.
type EnableServiceStep struct {
	unit     string
	services ServiceController
}

// NewEnableServiceStep creates a step that enables and starts the unit.
func NewEnableServiceStep(services ServiceController, unit string) *EnableServiceStep {
	return &EnableServiceStep{unit: unit, services: services}
}

// Name returns the step name.
func (s *EnableServiceStep) Name() string { return "enable-" + s.unit }

// Do enables and starts the unit.
func (s *EnableServiceStep) Do(ctx context.Context) error {
	return s.services.Enable(ctx, s.unit)
}

// DaemonReloadStep reloads the systemd manager configuration.
type DaemonReloadStep struct {
	services ServiceController
}

// NewDaemonReloadStep creates a step that runs a daemon-reload.
func NewDaemonReloadStep(services ServiceController) *DaemonReloadStep {
	return &DaemonReloadStep{services: services}
}

// Name returns the step name.
func (s *DaemonReloadStep) Name() string { return "daemon-reload" }

// Do reloads the systemd manager configuration.
func (s *DaemonReloadStep) Do(ctx context.Context) error {
	return s.services.DaemonReload(ctx)
}

// VerifyProxyStep checks that the configured SOCKS5 proxy answers like
// Tor. It is the flow's last step, so a daemon that came up broken
// rolls the whole transaction back.
type VerifyProxyStep struct {
	checker ProxyChecker
}

// NewVerifyProxyStep creates a step that verifies the proxy.
func NewVerifyProxyStep(checker ProxyChecker) *VerifyProxyStep {
	return &VerifyProxyStep{checker: checker}
}

// Name returns the step name.
func (s *VerifyProxyStep) Name() string { return "verify-proxy" }

// Do performs the SOCKS5 handshake check.
func (s *VerifyProxyStep) Do(ctx context.Context) error {
	if err := s.checker.CheckConnection(ctx).Error(); err != nil {
		return fmt.Errorf("socks5 proxy check failed: %w", err)
	}
	return nil
}
