package editor

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/natefinch/atomic"
)

// Outcome describes what an editing operation did to the target file.
// Idempotent operations report "nothing to do" outcomes instead of errors
// so callers can distinguish a no-op from a failure.
type Outcome int

const (
	// OutcomeAdded means the line was appended to the file.
	OutcomeAdded Outcome = iota

	// OutcomeAlreadyPresent means the exact line already existed and the
	// file was not rewritten.
	OutcomeAlreadyPresent

	// OutcomeUncommented means at least one commented line was activated.
	OutcomeUncommented

	// OutcomeNoMatch means no commented line matched and the file was not
	// rewritten.
	OutcomeNoMatch
)

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeAdded:
		return "added"
	case OutcomeAlreadyPresent:
		return "already-present"
	case OutcomeUncommented:
		return "uncommented"
	case OutcomeNoMatch:
		return "no-match"
	default:
		return "unknown"
	}
}

// Editor edits configuration files line by line.
//
// Design decision: We operate on whole lines rather than parsing each file
// format because:
//  1. torrc, resolv.conf and proxychains4.conf share no grammar beyond
//     "one directive per line"
//  2. Unknown lines must survive an edit byte-for-byte; a parser that
//     re-serializes the file cannot guarantee that
//  3. Line equality makes idempotence trivial to verify
type Editor struct {
	// logger records what each operation did at debug level.
	logger *slog.Logger
}

// Option configures an Editor.
type Option func(*Editor)

// WithLogger sets the logger used by the editor.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) {
		e.logger = logger
	}
}

// New creates a new Editor.
func New(opts ...Option) *Editor {
	e := &Editor{
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// EnsureLine appends line to the file at path unless a line equal to it
// already exists. Comparison is exact: a commented or differently spaced
// variant does not count as present. A missing file is created.
//
// Returns OutcomeAdded when the line was appended and OutcomeAlreadyPresent
// when the file already contained it.
func (e *Editor) EnsureLine(path, line string) (Outcome, error) {
	content, exists, err := readFile(path)
	if err != nil {
		return OutcomeNoMatch, err
	}

	lines := splitLines(content)
	if slices.Contains(lines, line) {
		e.logger.Debug("line already present", "path", path, "line", line)
		return OutcomeAlreadyPresent, nil
	}

	lines = append(lines, line)
	if err := e.writeFile(path, lines, exists); err != nil {
		return OutcomeNoMatch, err
	}

	e.logger.Debug("line appended", "path", path, "line", line)
	return OutcomeAdded, nil
}

// Uncomment activates every commented directive matching keyPattern.
// A line of the form "#<keyPattern>..." (with optional whitespace around
// the comment marker) is replaced by its uncommented form; all other lines
// are preserved verbatim, in order.
//
// Returns OutcomeUncommented when at least one line changed and
// OutcomeNoMatch when nothing matched. A file with the directive already
// active reports OutcomeNoMatch, which makes the operation idempotent.
func (e *Editor) Uncomment(path, keyPattern string) (Outcome, error) {
	re, err := regexp.Compile(`^\s*#\s*(` + keyPattern + `.*)$`)
	if err != nil {
		return OutcomeNoMatch, fmt.Errorf("compile pattern %q: %w", keyPattern, err)
	}

	content, exists, err := readFile(path)
	if err != nil {
		return OutcomeNoMatch, err
	}

	lines := splitLines(content)
	changed := false
	for i, l := range lines {
		if m := re.FindStringSubmatch(l); m != nil {
			lines[i] = m[1]
			changed = true
		}
	}

	if !changed {
		e.logger.Debug("no commented line matched", "path", path, "pattern", keyPattern)
		return OutcomeNoMatch, nil
	}

	if err := e.writeFile(path, lines, exists); err != nil {
		return OutcomeNoMatch, err
	}

	e.logger.Debug("directive uncommented", "path", path, "pattern", keyPattern)
	return OutcomeUncommented, nil
}

// RemoveMatching deletes every line matching pattern and returns how many
// lines were removed. The pattern is anchored to the whole line, so a
// substring match does not delete an unrelated directive. Callers use this
// to clear conflicting directives before EnsureLine.
func (e *Editor) RemoveMatching(path, pattern string) (int, error) {
	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		return 0, fmt.Errorf("compile pattern %q: %w", pattern, err)
	}

	content, exists, err := readFile(path)
	if err != nil {
		return 0, err
	}

	lines := splitLines(content)
	kept := lines[:0]
	removed := 0
	for _, l := range lines {
		if re.MatchString(l) {
			removed++
			continue
		}
		kept = append(kept, l)
	}

	if removed == 0 {
		return 0, nil
	}

	if err := e.writeFile(path, kept, exists); err != nil {
		return 0, err
	}

	e.logger.Debug("lines removed", "path", path, "pattern", pattern, "count", removed)
	return removed, nil
}

// HasLine reports whether the file contains a line exactly equal to line.
// A missing file contains nothing. The file is never modified.
func (e *Editor) HasLine(path, line string) (bool, error) {
	content, _, err := readFile(path)
	if err != nil {
		return false, err
	}

	return slices.Contains(splitLines(content), line), nil
}

// readFile reads the file at path. A missing file is reported as empty
// content with exists=false rather than an error, so edits can create
// configuration files that are not installed yet.
func readFile(path string) (content string, exists bool, err error) {
	data, err := os.ReadFile(path) //nolint:gosec // Editing caller-chosen config files is the point
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), true, nil
}

// writeFile stages the new content and swaps it into place. The rename
// keeps the original file intact if anything fails mid-write, and the
// existing file mode is preserved across the swap.
func (e *Editor) writeFile(path string, lines []string, existed bool) error {
	if err := atomic.WriteFile(path, strings.NewReader(joinLines(lines))); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	// A freshly created config file must stay readable by the daemon that
	// consumes it, not just by root.
	if !existed {
		if err := os.Chmod(path, 0o644); err != nil {
			return fmt.Errorf("chmod %s: %w", path, err)
		}
	}

	return nil
}

// splitLines splits content into lines without a trailing empty element
// for the final newline.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// joinLines joins lines back into file content ending in a newline.
func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
