package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/anonsetup/internal/model"
)

// SimpleWriter outputs human-readable transaction reports.
// This format is designed for terminal display after a flow finishes.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// verbose enables per-step durations and messages for successful steps.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the transaction record in human-readable format.
func (w *SimpleWriter) Write(record *model.TransactionRecord) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, record)
	w.writeSteps(&sb, record)
	w.writeError(&sb, record)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with transaction information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, record *model.TransactionRecord) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                      ANONSETUP TRANSACTION\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Flow:       %s\n", record.Flow))
	sb.WriteString(fmt.Sprintf("State:      %s\n", strings.ToUpper(record.State.String())))
	if record.SnapshotID != "" {
		sb.WriteString(fmt.Sprintf("Snapshot:   %s\n", record.SnapshotID))
	}
	sb.WriteString(fmt.Sprintf("Started:    %s\n", record.StartedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Duration:   %s\n", record.Duration().Round(time.Millisecond)))

	sb.WriteString("\n")
}

// writeSteps writes the per-step outcome section.
func (w *SimpleWriter) writeSteps(sb *strings.Builder, record *model.TransactionRecord) {
	if len(record.Steps) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("STEPS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, step := range record.Steps {
		indicator := w.getStatusIndicator(step.Status)
		if w.verbose && step.Status != model.StepStatusSkipped {
			sb.WriteString(fmt.Sprintf("  [%s] %s (%s)\n", indicator, step.Name, step.Duration.Round(time.Millisecond)))
		} else {
			sb.WriteString(fmt.Sprintf("  [%s] %s\n", indicator, step.Name))
		}

		// Messages matter most on the step that stopped the flow.
		if step.Message != "" && (w.verbose || step.Status != model.StepStatusSuccess) {
			sb.WriteString(fmt.Sprintf("      %s\n", step.Message))
		}
	}
	sb.WriteString("\n")
}

// getStatusIndicator returns a visual indicator for the step status.
func (w *SimpleWriter) getStatusIndicator(status model.StepStatus) string {
	switch status {
	case model.StepStatusSuccess:
		return "+"
	case model.StepStatusRejected:
		return "!"
	case model.StepStatusFailed:
		return "x"
	case model.StepStatusSkipped:
		return "-"
	default:
		return "?"
	}
}

// writeError writes the rollback section for failed transactions.
func (w *SimpleWriter) writeError(sb *strings.Builder, record *model.TransactionRecord) {
	if !record.Failed() {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("ROLLED BACK\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if record.Error != "" {
		sb.WriteString(fmt.Sprintf("  %s\n", record.Error))
	}
	sb.WriteString("  The pre-transaction snapshot was restored. The system is unchanged.\n")
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by anonsetup\n")
	sb.WriteString("https://github.com/nao1215/anonsetup\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
