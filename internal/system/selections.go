package system

import (
	"strings"

	"github.com/nao1215/anonsetup/internal/model"
)

// ParseSelections parses dpkg --get-selections output into a selection
// list. Blank lines and lines without a status column are skipped.
func ParseSelections(output []byte) []model.Selection {
	var selections []model.Selection
	for _, line := range strings.Split(string(output), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		selections = append(selections, model.Selection{
			Name:   fields[0],
			Status: fields[1],
		})
	}
	return selections
}

// FormatSelections renders a selection list in the tab separated form
// dpkg --set-selections consumes. An empty list renders as an empty
// string.
func FormatSelections(selections []model.Selection) string {
	if len(selections) == 0 {
		return ""
	}

	var b strings.Builder
	for _, s := range selections {
		b.WriteString(s.String())
		b.WriteByte('\n')
	}
	return b.String()
}
