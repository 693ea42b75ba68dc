package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/anonsetup/internal/database"
	"github.com/nao1215/anonsetup/internal/report"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the transaction journal",
		Long: `History lists past transactions from the journal: which flow ran,
whether it committed or rolled back, which snapshot covered it and
what failed. With --id it prints the full step-by-step record of one
transaction.

Examples:
  # The last 20 transactions
  anonsetup history

  # Everything
  anonsetup history --limit 0

  # One transaction in detail
  anonsetup history --id 12`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().StringP("config", "c", "", "Configuration file path (default: /etc/anonsetup.yaml, then XDG locations)")
	cmd.Flags().Int64("id", 0, "Show the full record of one transaction")
	cmd.Flags().IntP("limit", "l", 20, "Maximum number of transactions to list (0 lists all)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	id, err := cmd.Flags().GetInt64("id")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	journal, err := database.Open(cfg.JournalDir, database.Options{EnableWAL: true})
	if err != nil {
		// A host that never ran a transaction has no journal; that is not
		// an error worth a non-zero exit.
		if errors.Is(err, database.ErrJournalNotFound) {
			fmt.Fprintln(cmd.OutOrStdout(), "No transactions recorded yet.")
			return nil
		}
		return err
	}
	defer journal.Close()

	if id > 0 {
		return showTransaction(cmd.Context(), cmd, journal, id)
	}
	return listTransactions(cmd.Context(), cmd, journal, limit)
}

// showTransaction prints one transaction with all its steps.
func showTransaction(ctx context.Context, cmd *cobra.Command, journal *database.Journal, id int64) error {
	record, err := journal.GetTransaction(ctx, id)
	if err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("transaction %d not found", id)
	}

	writer := report.NewSimpleWriter(cmd.OutOrStdout(), report.WithVerbose(true))
	if _, err := writer.Write(record); err != nil {
		return fmt.Errorf("failed to write transaction record: %w", err)
	}
	return nil
}

// listTransactions prints the journal as a table, newest first.
func listTransactions(ctx context.Context, cmd *cobra.Command, journal *database.Journal, limit int) error {
	records, err := journal.ListTransactions(ctx, limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintln(out, "No transactions recorded yet.")
		return nil
	}

	fmt.Fprintf(out, "%-4s %-12s %-12s %-26s %-20s %s\n", "ID", "FLOW", "STATE", "SNAPSHOT", "STARTED", "ERROR")
	for _, record := range records {
		snapshotID := record.SnapshotID
		if snapshotID == "" {
			snapshotID = "-"
		}
		errText := record.Error
		if errText == "" {
			errText = "-"
		}
		fmt.Fprintf(out, "%-4d %-12s %-12s %-26s %-20s %s\n",
			record.ID, record.Flow, record.State, snapshotID,
			record.StartedAt.Format("2006-01-02 15:04:05"), errText)
	}
	return nil
}
