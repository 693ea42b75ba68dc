package validator

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Reason classifies why a candidate configuration file was rejected.
type Reason int

const (
	// ReasonEmptyOrMissing means the file does not exist, cannot be read,
	// or contains nothing but whitespace.
	ReasonEmptyOrMissing Reason = iota

	// ReasonMissingSection means a required [Section] header was not found.
	ReasonMissingSection

	// ReasonMissingKey means a required key was not found inside its section.
	ReasonMissingKey
)

// String returns the string representation of the rejection reason.
func (r Reason) String() string {
	switch r {
	case ReasonEmptyOrMissing:
		return "empty-or-missing"
	case ReasonMissingSection:
		return "missing-section"
	case ReasonMissingKey:
		return "missing-key"
	default:
		return "unknown"
	}
}

// RejectionError reports that a candidate file failed validation.
// It names the offending section or key so the user can fix the file,
// and is distinct from I/O errors: a rejection means the input is wrong,
// not that the system failed.
type RejectionError struct {
	// Path is the candidate file that was rejected.
	Path string

	// Reason classifies the rejection.
	Reason Reason

	// Section is the section involved, when the reason concerns one.
	Section string

	// Key is the missing key, for ReasonMissingKey.
	Key string
}

// Error returns a human-readable description of the rejection.
func (e *RejectionError) Error() string {
	switch e.Reason {
	case ReasonMissingSection:
		return fmt.Sprintf("%s: required section [%s] not found", e.Path, e.Section)
	case ReasonMissingKey:
		return fmt.Sprintf("%s: required key %q not found in section [%s]", e.Path, e.Key, e.Section)
	default:
		return fmt.Sprintf("%s: file is empty or missing", e.Path)
	}
}

// IsRejection reports whether err (or an error it wraps) is a validation
// rejection. The transaction controller uses this to distinguish "the input
// was refused" from "an operation failed".
func IsRejection(err error) bool {
	var rejection *RejectionError
	return errors.As(err, &rejection)
}

// SectionRule names a required section and the keys it must contain.
type SectionRule struct {
	// Name is the section header without brackets, e.g. "Interface".
	Name string

	// Keys are the key names that must appear inside the section.
	Keys []string
}

// Grammar describes the required structure of a configuration file.
// Anything beyond the required sections and keys is permitted.
type Grammar struct {
	// Sections are the required sections, checked in order.
	Sections []SectionRule
}

// sectionHeader matches a "[Name]" header line with optional surrounding
// whitespace.
var sectionHeader = regexp.MustCompile(`^\s*\[(.+)\]\s*$`)

// Validate checks the file at path against the grammar. It returns nil when
// the file is accepted and a *RejectionError when it is not. The candidate
// file is only read, never modified.
//
// Design decision: An unreadable file is a rejection, not an I/O error.
// The validator's sole question is "may this file be installed?", and a
// file we cannot read has answered it.
func Validate(path string, grammar Grammar) error {
	data, err := os.ReadFile(path) //nolint:gosec // Validating caller-chosen candidate files is the point
	if err != nil {
		return &RejectionError{Path: path, Reason: ReasonEmptyOrMissing}
	}
	if strings.TrimSpace(string(data)) == "" {
		return &RejectionError{Path: path, Reason: ReasonEmptyOrMissing}
	}

	sections := parseSections(string(data))

	for _, rule := range grammar.Sections {
		lines, ok := sections[strings.ToLower(rule.Name)]
		if !ok {
			return &RejectionError{Path: path, Reason: ReasonMissingSection, Section: rule.Name}
		}
		for _, key := range rule.Keys {
			if !hasKey(lines, key) {
				return &RejectionError{Path: path, Reason: ReasonMissingKey, Section: rule.Name, Key: key}
			}
		}
	}

	return nil
}

// KeyValue returns the value of the first occurrence of key inside the
// named section, for callers that need a field after Validate accepted the
// file. The boolean reports whether the key was found; err is I/O only.
func KeyValue(path, section, key string) (string, bool, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Reading caller-chosen candidate files is the point
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", path, err)
	}

	lines, ok := parseSections(string(data))[strings.ToLower(section)]
	if !ok {
		return "", false, nil
	}

	for _, line := range lines {
		name, value := splitKeyLine(line)
		if strings.EqualFold(name, key) {
			return value, true, nil
		}
	}
	return "", false, nil
}

// parseSections groups content lines by the section they appear under.
// Section names are folded to lower case; a section that appears multiple
// times contributes all of its lines. Lines before the first header belong
// to no section.
func parseSections(content string) map[string][]string {
	sections := make(map[string][]string)
	current := ""

	for _, line := range strings.Split(content, "\n") {
		if m := sectionHeader.FindStringSubmatch(line); m != nil {
			current = strings.ToLower(strings.TrimSpace(m[1]))
			if _, ok := sections[current]; !ok {
				sections[current] = nil
			}
			continue
		}
		if current != "" {
			sections[current] = append(sections[current], line)
		}
	}

	return sections
}

// hasKey reports whether any line carries the key, in either "key = value"
// or "key value" or bare flag form. Comments do not count.
func hasKey(lines []string, key string) bool {
	for _, line := range lines {
		name, _ := splitKeyLine(line)
		if strings.EqualFold(name, key) {
			return true
		}
	}
	return false
}

// splitKeyLine splits a directive line into its key name and value.
// Comment and blank lines yield an empty name. Key matching is
// case-insensitive because the consumers of these files are.
func splitKeyLine(line string) (name, value string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return "", ""
	}

	if i := strings.IndexAny(trimmed, "= \t"); i >= 0 {
		return trimmed[:i], strings.TrimSpace(strings.TrimLeft(trimmed[i:], "= \t"))
	}
	return trimmed, ""
}
