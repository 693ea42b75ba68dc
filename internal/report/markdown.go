package report

import (
	"fmt"
	"io"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/anonsetup/internal/model"
)

// MarkdownWriter outputs transaction reports in Markdown format.
// This format is designed for documentation and sharing, e.g. attaching
// the outcome of a setup run to a ticket.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the transaction record in Markdown format.
func (w *MarkdownWriter) Write(record *model.TransactionRecord) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, record)
	w.writeOutcome(md, record)
	w.writeSteps(md, record)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with transaction information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, record *model.TransactionRecord) {
	md.H1(flowTitle(record.Flow) + " Setup Transaction")
	md.PlainText("")

	snapshot := "-"
	if record.SnapshotID != "" {
		snapshot = "`" + record.SnapshotID + "`"
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Flow", "`" + record.Flow + "`"},
			{"State", w.getStateText(record)},
			{"Snapshot", snapshot},
			{"Started", record.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", record.Duration().Round(time.Millisecond).String()},
		},
	})
	md.PlainText("")
}

// flowTitle renders a flow name as a heading word, e.g. "tor" -> "Tor".
func flowTitle(flow string) string {
	return cases.Title(language.English).String(flow)
}

// getStateText returns the state cell text for the property table.
func (w *MarkdownWriter) getStateText(record *model.TransactionRecord) string {
	switch record.State {
	case model.TransactionCommitted:
		return "✅ Committed"
	case model.TransactionRolledBack:
		return "❌ Rolled Back"
	default:
		return "⚠️ " + record.State.String()
	}
}

// writeOutcome writes an alert summarizing how the transaction ended,
// plus an outcome distribution chart when step results were mixed.
func (w *MarkdownWriter) writeOutcome(md *markdown.Markdown, record *model.TransactionRecord) {
	failed := record.FailedStep()

	switch {
	case record.Failed() && failed != nil && failed.Status == model.StepStatusRejected:
		md.Cautionf(
			"Configuration rejected by step `%s`: %s. The host was not modified.",
			failed.Name, failed.Message,
		)
	case record.Failed():
		md.Cautionf(
			"Transaction rolled back: %s. The pre-transaction snapshot was restored.",
			record.Error,
		)
	case record.State == model.TransactionCommitted:
		md.Tip(fmt.Sprintf(
			"All %d step(s) completed and the transaction was committed.",
			len(record.Steps),
		))
	default:
		md.Note("Transaction did not reach a terminal state.")
	}
	md.PlainText("")

	if record.Failed() && len(record.Steps) > 0 {
		w.writePieChart(md, record)
	}
}

// writePieChart writes a mermaid pie chart of step outcomes.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, record *model.TransactionRecord) {
	var success, rejected, failed, skipped int
	for _, step := range record.Steps {
		switch step.Status {
		case model.StepStatusSuccess:
			success++
		case model.StepStatusRejected:
			rejected++
		case model.StepStatusFailed:
			failed++
		case model.StepStatusSkipped:
			skipped++
		}
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Step Outcome Distribution"),
		piechart.WithShowData(true),
	)

	if success > 0 {
		chart.LabelAndIntValue("Success", uint64(success))
	}
	if rejected > 0 {
		chart.LabelAndIntValue("Rejected", uint64(rejected))
	}
	if failed > 0 {
		chart.LabelAndIntValue("Failed", uint64(failed))
	}
	if skipped > 0 {
		chart.LabelAndIntValue("Skipped", uint64(skipped))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeSteps writes the per-step outcome table.
func (w *MarkdownWriter) writeSteps(md *markdown.Markdown, record *model.TransactionRecord) {
	md.H2("Steps")
	md.PlainText("")

	if len(record.Steps) == 0 {
		md.PlainText("No steps were executed.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(record.Steps))
	for i, step := range record.Steps {
		duration := "-"
		if step.Status != model.StepStatusSkipped {
			duration = step.Duration.Round(time.Millisecond).String()
		}
		notes := step.Message
		if notes == "" {
			notes = "-"
		}

		rows[i] = []string{
			"`" + step.Name + "`",
			w.getStatusText(step.Status),
			duration,
			truncateString(notes, 60),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Step", "Status", "Duration", "Notes"},
		Rows:   rows,
	})
	md.PlainText("")
}

// getStatusText returns the status cell text for the step table.
func (w *MarkdownWriter) getStatusText(status model.StepStatus) string {
	switch status {
	case model.StepStatusSuccess:
		return "✅ success"
	case model.StepStatusRejected:
		return "⛔ rejected"
	case model.StepStatusFailed:
		return "❌ failed"
	case model.StepStatusSkipped:
		return "⏭️ skipped"
	default:
		return status.String()
	}
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [anonsetup](https://github.com/nao1215/anonsetup)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
