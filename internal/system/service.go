package system

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// ServiceManager drives systemd units through systemctl.
type ServiceManager struct {
	runner Runner
	logger *slog.Logger
}

// ServiceOption configures a ServiceManager.
type ServiceOption func(*ServiceManager)

// WithServiceRunner overrides the command runner. Tests use it to avoid
// touching the host service state.
func WithServiceRunner(r Runner) ServiceOption {
	return func(m *ServiceManager) {
		m.runner = r
	}
}

// WithServiceLogger sets the logger used by the service manager.
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(m *ServiceManager) {
		m.logger = logger
	}
}

// NewServiceManager creates a ServiceManager that drives systemctl on the
// host.
func NewServiceManager(opts ...ServiceOption) *ServiceManager {
	m := &ServiceManager{
		runner: NewExecRunner(),
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Restart restarts a unit. The unit picks up configuration written before
// the call.
func (m *ServiceManager) Restart(ctx context.Context, unit string) error {
	m.logger.Info("restarting service", slog.String("unit", unit))

	output, err := m.runner.Run(ctx, "systemctl", "restart", unit)
	if err != nil {
		return fmt.Errorf("systemctl restart %s failed: %w: %s",
			unit, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// Enable enables a unit and starts it immediately (systemctl enable
// --now). Instance units such as wg-quick@wg0 work unchanged.
func (m *ServiceManager) Enable(ctx context.Context, unit string) error {
	m.logger.Info("enabling service", slog.String("unit", unit))

	output, err := m.runner.Run(ctx, "systemctl", "enable", "--now", unit)
	if err != nil {
		return fmt.Errorf("systemctl enable --now %s failed: %w: %s",
			unit, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// IsActive reports whether a unit is currently active. systemctl
// is-active exits non-zero for every state but "active" while still
// printing the state, so a non-zero exit with output is a regular false
// result rather than an error.
func (m *ServiceManager) IsActive(ctx context.Context, unit string) (bool, error) {
	output, err := m.runner.Run(ctx, "systemctl", "is-active", unit)
	status := strings.TrimSpace(string(output))
	if err != nil && status == "" {
		return false, fmt.Errorf("systemctl is-active %s failed: %w", unit, err)
	}
	return status == "active", nil
}

// DaemonReload reloads the systemd manager configuration. Restore calls
// it after rewriting unit-adjacent files so systemd sees the rolled back
// state.
func (m *ServiceManager) DaemonReload(ctx context.Context) error {
	output, err := m.runner.Run(ctx, "systemctl", "daemon-reload")
	if err != nil {
		return fmt.Errorf("systemctl daemon-reload failed: %w: %s",
			err, strings.TrimSpace(string(output)))
	}
	return nil
}
