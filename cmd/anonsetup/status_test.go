package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/anonsetup/internal/config"
	"github.com/nao1215/anonsetup/internal/editor"
	"github.com/nao1215/anonsetup/internal/flow"
	"github.com/nao1215/anonsetup/internal/tor"
)

// fakeUnitChecker reports a fixed systemd unit state.
type fakeUnitChecker struct {
	active bool
	err    error
}

func (f fakeUnitChecker) IsActive(_ context.Context, _ string) (bool, error) {
	return f.active, f.err
}

// fakeProxyChecker reports a fixed proxy status.
type fakeProxyChecker struct {
	status tor.ProxyStatus
}

func (f fakeProxyChecker) CheckConnection(_ context.Context) tor.ProxyStatus {
	return f.status
}

// testStatusEditor returns an editor that logs nowhere.
func testStatusEditor() *editor.Editor {
	return editor.New(editor.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

// configuredHost writes every file the probes look for and returns a
// config pointing at them.
func configuredHost(t *testing.T) *config.Config {
	t.Helper()

	dir := t.TempDir()
	cfg := config.NewConfig()
	cfg.Tor.TorrcPath = filepath.Join(dir, "torrc")
	cfg.Tor.ResolvConfPath = filepath.Join(dir, "resolv.conf")
	cfg.Proxychains.ConfigPath = filepath.Join(dir, "proxychains4.conf")
	cfg.VPN.Dir = dir

	torrc := strings.Join(flow.TorDirectives(cfg), "\n") + "\n"
	if err := os.WriteFile(cfg.Tor.TorrcPath, []byte(torrc), 0600); err != nil {
		t.Fatalf("failed to write torrc: %v", err)
	}
	if err := os.WriteFile(cfg.Tor.ResolvConfPath, []byte("nameserver 127.0.0.1\n"), 0600); err != nil {
		t.Fatalf("failed to write resolv.conf: %v", err)
	}
	proxychains := cfg.Proxychains.ChainMode + "\n" + cfg.Proxychains.ProxyLine + "\n"
	if err := os.WriteFile(cfg.Proxychains.ConfigPath, []byte(proxychains), 0600); err != nil {
		t.Fatalf("failed to write proxychains config: %v", err)
	}
	wgPath := filepath.Join(cfg.VPN.Dir, cfg.VPN.Interface+".conf")
	if err := os.WriteFile(wgPath, []byte("[Interface]\n"), 0600); err != nil {
		t.Fatalf("failed to write wireguard config: %v", err)
	}

	return cfg
}

// TestNewStatusCmd tests the status command creation.
func TestNewStatusCmd(t *testing.T) {
	t.Parallel()

	cmd := NewStatusCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "status" {
			t.Errorf("expected use 'status', got %q", cmd.Use)
		}
	})

	t.Run("has config flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("config")
		if flag == nil {
			t.Fatal("expected config flag")
		}
		if flag.Shorthand != "c" {
			t.Errorf("expected shorthand 'c', got %q", flag.Shorthand)
		}
	})
}

// TestGatherStatus tests the concurrent host probes.
func TestGatherStatus(t *testing.T) {
	t.Parallel()

	t.Run("keeps probes in display order", func(t *testing.T) {
		t.Parallel()

		cfg := configuredHost(t)
		results := gatherStatus(context.Background(), cfg, testStatusEditor(),
			fakeUnitChecker{active: true}, fakeProxyChecker{status: tor.ProxyStatusOK})

		want := []string{"tor unit", "socks5 proxy", "torrc", "dns", "proxychains", "wireguard"}
		if len(results) != len(want) {
			t.Fatalf("expected %d probes, got %d", len(want), len(results))
		}
		for i, name := range want {
			if results[i].name != name {
				t.Errorf("expected probe %d to be %q, got %q", i, name, results[i].name)
			}
		}
	})

	t.Run("reports a fully configured host", func(t *testing.T) {
		t.Parallel()

		cfg := configuredHost(t)
		results := gatherStatus(context.Background(), cfg, testStatusEditor(),
			fakeUnitChecker{active: true}, fakeProxyChecker{status: tor.ProxyStatusOK})

		for _, result := range results {
			if !result.known {
				t.Errorf("expected %s to be determinable: %s", result.name, result.detail)
			}
			if !result.ok {
				t.Errorf("expected %s to be ok: %s", result.name, result.detail)
			}
		}
	})

	t.Run("reports an unconfigured host", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		cfg := config.NewConfig()
		cfg.Tor.TorrcPath = filepath.Join(dir, "torrc")
		cfg.Tor.ResolvConfPath = filepath.Join(dir, "resolv.conf")
		cfg.Proxychains.ConfigPath = filepath.Join(dir, "proxychains4.conf")
		cfg.VPN.Dir = dir

		results := gatherStatus(context.Background(), cfg, testStatusEditor(),
			fakeUnitChecker{active: false}, fakeProxyChecker{status: tor.ProxyStatusCannotConnect})

		for _, result := range results {
			if !result.known {
				t.Errorf("expected %s to be determinable: %s", result.name, result.detail)
			}
			if result.ok {
				t.Errorf("expected %s to be not ok: %s", result.name, result.detail)
			}
		}
	})

	t.Run("counts partially pinned torrc directives", func(t *testing.T) {
		t.Parallel()

		cfg := configuredHost(t)
		directives := flow.TorDirectives(cfg)
		partial := strings.Join(directives[:2], "\n") + "\n"
		if err := os.WriteFile(cfg.Tor.TorrcPath, []byte(partial), 0600); err != nil {
			t.Fatalf("failed to write torrc: %v", err)
		}

		results := gatherStatus(context.Background(), cfg, testStatusEditor(),
			fakeUnitChecker{active: true}, fakeProxyChecker{status: tor.ProxyStatusOK})

		torrc := results[2]
		if torrc.ok {
			t.Error("expected partially pinned torrc to be not ok")
		}
		if !strings.Contains(torrc.detail, "2/5") {
			t.Errorf("expected 2/5 in detail, got %q", torrc.detail)
		}
	})

	t.Run("marks unanswerable probes as unknown", func(t *testing.T) {
		t.Parallel()

		cfg := configuredHost(t)
		results := gatherStatus(context.Background(), cfg, testStatusEditor(),
			fakeUnitChecker{err: errors.New("systemd unavailable")},
			fakeProxyChecker{status: tor.ProxyStatusOK})

		if results[0].known {
			t.Error("expected tor unit probe to be unknown")
		}
		if !strings.Contains(results[0].detail, "systemd unavailable") {
			t.Errorf("expected cause in detail, got %q", results[0].detail)
		}
	})
}

// TestRunStatusCmd tests the status command end to end. Every probe
// records what it finds, so the command succeeds regardless of host
// state.
func TestRunStatusCmd(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	cmd := NewStatusCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"-c", writeSnapshotConfig(t)})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "anonsetup status") {
		t.Errorf("expected status header, got %q", output)
	}
	for _, name := range []string{"tor unit", "socks5 proxy", "torrc", "dns", "proxychains", "wireguard"} {
		if !strings.Contains(output, name) {
			t.Errorf("expected %s probe in output, got %q", name, output)
		}
	}
}
