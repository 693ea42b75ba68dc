package editor

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeTestFile creates a file with the given content in a temp directory
// and returns its path.
func writeTestFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	return path
}

// markFileTime pushes the file's modification time into the past so a
// rewrite (which creates a fresh file) is detectable without sleeping.
func markFileTime(t *testing.T, path string) time.Time {
	t.Helper()

	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatalf("failed to set file times: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("failed to stat test file: %v", err)
	}
	return info.ModTime()
}

func readTestFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read test file: %v", err)
	}
	return string(data)
}

// TestEditorEnsureLine tests appending directives idempotently.
func TestEditorEnsureLine(t *testing.T) {
	t.Parallel()

	t.Run("appends missing line", func(t *testing.T) {
		t.Parallel()

		path := writeTestFile(t, "Log notice\n")
		e := New()

		outcome, err := e.EnsureLine(path, "SocksPort 9050")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if outcome != OutcomeAdded {
			t.Errorf("expected OutcomeAdded, got %s", outcome)
		}

		want := "Log notice\nSocksPort 9050\n"
		if got := readTestFile(t, path); got != want {
			t.Errorf("expected content %q, got %q", want, got)
		}
	})

	t.Run("reports already present without rewriting", func(t *testing.T) {
		t.Parallel()

		path := writeTestFile(t, "SocksPort 9050\nLog notice\n")
		before := markFileTime(t, path)
		e := New()

		outcome, err := e.EnsureLine(path, "SocksPort 9050")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if outcome != OutcomeAlreadyPresent {
			t.Errorf("expected OutcomeAlreadyPresent, got %s", outcome)
		}

		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("failed to stat file: %v", err)
		}
		if !info.ModTime().Equal(before) {
			t.Error("expected file to be left untouched, but it was rewritten")
		}
	})

	t.Run("commented variant does not count as present", func(t *testing.T) {
		t.Parallel()

		path := writeTestFile(t, "#SocksPort 9050\n")
		e := New()

		outcome, err := e.EnsureLine(path, "SocksPort 9050")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if outcome != OutcomeAdded {
			t.Errorf("expected OutcomeAdded, got %s", outcome)
		}

		want := "#SocksPort 9050\nSocksPort 9050\n"
		if got := readTestFile(t, path); got != want {
			t.Errorf("expected content %q, got %q", want, got)
		}
	})

	t.Run("creates a missing file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "resolv.conf")
		e := New()

		outcome, err := e.EnsureLine(path, "nameserver 127.0.0.1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if outcome != OutcomeAdded {
			t.Errorf("expected OutcomeAdded, got %s", outcome)
		}

		if got := readTestFile(t, path); got != "nameserver 127.0.0.1\n" {
			t.Errorf("unexpected content %q", got)
		}

		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("failed to stat file: %v", err)
		}
		if info.Mode().Perm() != 0o644 {
			t.Errorf("expected created file mode 0644, got %o", info.Mode().Perm())
		}
	})

	t.Run("preserves the mode of an existing file", func(t *testing.T) {
		t.Parallel()

		path := writeTestFile(t, "Log notice\n")
		if err := os.Chmod(path, 0o640); err != nil {
			t.Fatalf("failed to chmod test file: %v", err)
		}
		e := New()

		if _, err := e.EnsureLine(path, "SocksPort 9050"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("failed to stat file: %v", err)
		}
		if info.Mode().Perm() != 0o640 {
			t.Errorf("expected mode 0640 to be preserved, got %o", info.Mode().Perm())
		}
	})

	t.Run("running twice changes nothing", func(t *testing.T) {
		t.Parallel()

		path := writeTestFile(t, "")
		e := New()

		if _, err := e.EnsureLine(path, "proxy_dns"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		first := readTestFile(t, path)

		outcome, err := e.EnsureLine(path, "proxy_dns")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if outcome != OutcomeAlreadyPresent {
			t.Errorf("expected OutcomeAlreadyPresent, got %s", outcome)
		}
		if got := readTestFile(t, path); got != first {
			t.Errorf("expected stable content, got %q then %q", first, got)
		}
	})
}

// TestEditorUncomment tests activating commented directives.
func TestEditorUncomment(t *testing.T) {
	t.Parallel()

	t.Run("uncomments a disabled directive", func(t *testing.T) {
		t.Parallel()

		path := writeTestFile(t, "#SocksPort 9050\nLog notice\n")
		e := New()

		outcome, err := e.Uncomment(path, "SocksPort")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if outcome != OutcomeUncommented {
			t.Errorf("expected OutcomeUncommented, got %s", outcome)
		}

		want := "SocksPort 9050\nLog notice\n"
		if got := readTestFile(t, path); got != want {
			t.Errorf("expected content %q, got %q", want, got)
		}
	})

	t.Run("handles whitespace around the comment marker", func(t *testing.T) {
		t.Parallel()

		path := writeTestFile(t, "  #  TransPort 9040\n")
		e := New()

		outcome, err := e.Uncomment(path, "TransPort")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if outcome != OutcomeUncommented {
			t.Errorf("expected OutcomeUncommented, got %s", outcome)
		}

		if got := readTestFile(t, path); got != "TransPort 9040\n" {
			t.Errorf("unexpected content %q", got)
		}
	})

	t.Run("uncomments every matching line", func(t *testing.T) {
		t.Parallel()

		path := writeTestFile(t, "#SocksPort 9050\nother\n# SocksPort 9150\n")
		e := New()

		outcome, err := e.Uncomment(path, "SocksPort")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if outcome != OutcomeUncommented {
			t.Errorf("expected OutcomeUncommented, got %s", outcome)
		}

		want := "SocksPort 9050\nother\nSocksPort 9150\n"
		if got := readTestFile(t, path); got != want {
			t.Errorf("expected content %q, got %q", want, got)
		}
	})

	t.Run("already active directive reports no match", func(t *testing.T) {
		t.Parallel()

		path := writeTestFile(t, "SocksPort 9050\n")
		before := markFileTime(t, path)
		e := New()

		outcome, err := e.Uncomment(path, "SocksPort")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if outcome != OutcomeNoMatch {
			t.Errorf("expected OutcomeNoMatch, got %s", outcome)
		}

		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("failed to stat file: %v", err)
		}
		if !info.ModTime().Equal(before) {
			t.Error("expected file to be left untouched, but it was rewritten")
		}
	})

	t.Run("preserves unrelated lines verbatim", func(t *testing.T) {
		t.Parallel()

		content := "# comment stays\n#proxy_dns\n\tweird\tspacing \n\n"
		path := writeTestFile(t, content)
		e := New()

		if _, err := e.Uncomment(path, "proxy_dns"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := "# comment stays\nproxy_dns\n\tweird\tspacing \n\n"
		if got := readTestFile(t, path); got != want {
			t.Errorf("expected content %q, got %q", want, got)
		}
	})

	t.Run("missing file reports no match", func(t *testing.T) {
		t.Parallel()

		e := New()
		outcome, err := e.Uncomment(filepath.Join(t.TempDir(), "missing"), "SocksPort")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if outcome != OutcomeNoMatch {
			t.Errorf("expected OutcomeNoMatch, got %s", outcome)
		}
	})

	t.Run("uncommented directive coexists with an ensured line", func(t *testing.T) {
		t.Parallel()

		path := writeTestFile(t, "#SocksPort 9150\n")
		e := New()

		if _, err := e.Uncomment(path, "SocksPort"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := e.EnsureLine(path, "SocksPort 9050"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := "SocksPort 9150\nSocksPort 9050\n"
		if got := readTestFile(t, path); got != want {
			t.Errorf("expected both directives active in order, got %q", got)
		}
	})

	t.Run("invalid pattern returns error", func(t *testing.T) {
		t.Parallel()

		path := writeTestFile(t, "anything\n")
		e := New()

		if _, err := e.Uncomment(path, "("); err == nil {
			t.Error("expected error for invalid pattern")
		}
	})
}

// TestEditorRemoveMatching tests deleting conflicting directives.
func TestEditorRemoveMatching(t *testing.T) {
	t.Parallel()

	t.Run("removes matching lines and reports count", func(t *testing.T) {
		t.Parallel()

		path := writeTestFile(t, "strict_chain\nkeep me\ndynamic_chain\n")
		e := New()

		count, err := e.RemoveMatching(path, `(dynamic_chain|strict_chain|random_chain|round_robin_chain)`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if count != 2 {
			t.Errorf("expected 2 lines removed, got %d", count)
		}

		if got := readTestFile(t, path); got != "keep me\n" {
			t.Errorf("unexpected content %q", got)
		}
	})

	t.Run("pattern is anchored to the whole line", func(t *testing.T) {
		t.Parallel()

		path := writeTestFile(t, "#strict_chain\nstrict_chain_extra\nstrict_chain\n")
		e := New()

		count, err := e.RemoveMatching(path, "strict_chain")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if count != 1 {
			t.Errorf("expected 1 line removed, got %d", count)
		}

		want := "#strict_chain\nstrict_chain_extra\n"
		if got := readTestFile(t, path); got != want {
			t.Errorf("expected content %q, got %q", want, got)
		}
	})

	t.Run("no match leaves file untouched", func(t *testing.T) {
		t.Parallel()

		path := writeTestFile(t, "keep\n")
		before := markFileTime(t, path)
		e := New()

		count, err := e.RemoveMatching(path, "absent")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if count != 0 {
			t.Errorf("expected 0 lines removed, got %d", count)
		}

		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("failed to stat file: %v", err)
		}
		if !info.ModTime().Equal(before) {
			t.Error("expected file to be left untouched, but it was rewritten")
		}
	})

	t.Run("whitespace tolerant pattern removes default proxy entry", func(t *testing.T) {
		t.Parallel()

		path := writeTestFile(t, "socks4 \t127.0.0.1 9050\nsocks5 127.0.0.1 9050\n")
		e := New()

		count, err := e.RemoveMatching(path, `socks4\s+127\.0\.0\.1\s+9050`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if count != 1 {
			t.Errorf("expected 1 line removed, got %d", count)
		}

		if got := readTestFile(t, path); got != "socks5 127.0.0.1 9050\n" {
			t.Errorf("unexpected content %q", got)
		}
	})

	t.Run("invalid pattern returns error", func(t *testing.T) {
		t.Parallel()

		path := writeTestFile(t, "anything\n")
		e := New()

		if _, err := e.RemoveMatching(path, "["); err == nil {
			t.Error("expected error for invalid pattern")
		}
	})
}

// TestEditorHasLine tests the read-only line query.
func TestEditorHasLine(t *testing.T) {
	t.Parallel()

	t.Run("finds an exact line", func(t *testing.T) {
		t.Parallel()

		path := writeTestFile(t, "nameserver 127.0.0.1\n")
		e := New()

		ok, err := e.HasLine(path, "nameserver 127.0.0.1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ok {
			t.Error("expected line to be found")
		}
	})

	t.Run("does not match substrings or comments", func(t *testing.T) {
		t.Parallel()

		path := writeTestFile(t, "#nameserver 127.0.0.1\nnameserver 127.0.0.1 extra\n")
		e := New()

		ok, err := e.HasLine(path, "nameserver 127.0.0.1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok {
			t.Error("expected line not to be found")
		}
	})

	t.Run("missing file contains nothing", func(t *testing.T) {
		t.Parallel()

		e := New()
		ok, err := e.HasLine(filepath.Join(t.TempDir(), "missing"), "anything")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok {
			t.Error("expected no line in missing file")
		}
	})
}
